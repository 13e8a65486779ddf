package game

// Phase is the session lifecycle state. Transitions are closed: an
// operation that does not match the current phase is rejected rather
// than guarded ad hoc.
type Phase string

const (
	PhaseSetup            Phase = "setup"
	PhaseCasePresentation Phase = "case_presentation"
	PhaseEvidenceReview   Phase = "evidence_review"
	PhaseVerdict          Phase = "verdict"
	PhaseCompleted        Phase = "completed"
)

var phaseTransitions = map[Phase]Phase{
	PhaseSetup:            PhaseCasePresentation,
	PhaseCasePresentation: PhaseEvidenceReview,
	PhaseEvidenceReview:   PhaseVerdict,
	PhaseVerdict:          PhaseCompleted,
}

func canTransition(from, to Phase) bool {
	next, ok := phaseTransitions[from]
	return ok && next == to
}
