package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bayes-court/internal/casefile"
)

func testCase(t *testing.T, evidenceCount int) *casefile.Case {
	t.Helper()
	evidence := make([]casefile.Evidence, 0, evidenceCount)
	names := []string{"Fingerprints", "Witness", "Alibi", "DNA"}
	for i := 0; i < evidenceCount; i++ {
		evidence = append(evidence, casefile.Evidence{
			Name:        names[i%len(names)],
			Description: "test evidence",
		})
	}
	return &casefile.Case{
		Info:     casefile.Info{Name: "Test Case", Description: "A test criminal case"},
		Prior:    casefile.Prior{DB: -40, Odds: "1 in 10,000"},
		Evidence: evidence,
	}
}

func fixedClock() Clock {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTestSession(t *testing.T, evidenceCount, maxPlayers int) *Session {
	t.Helper()
	return NewSession("game-1", testCase(t, evidenceCount), maxPlayers, fixedClock())
}

func TestFullSessionScenario(t *testing.T) {
	s := newTestSession(t, 2, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))

	player, ok := s.Player("p1")
	require.True(t, ok)
	assert.InDelta(t, 20, player.ThresholdDB, 0.01)
	assert.Equal(t, -40.0, player.CurrentDB)

	require.True(t, s.CanStart())
	require.NoError(t, s.Start())
	assert.Equal(t, PhaseCasePresentation, s.Phase)

	require.NoError(t, s.AdvanceToEvidenceReview())
	assert.Equal(t, PhaseEvidenceReview, s.Phase)
	assert.Equal(t, 0, s.EvidenceIndex)

	require.NoError(t, s.SubmitResponse("p1", 0.8, 0.2, nil))
	assert.True(t, s.AllResponded())

	more, err := s.AdvanceEvidence()
	require.NoError(t, err)
	assert.True(t, more, "one item should remain")
	assert.Equal(t, 1, s.EvidenceIndex)
	assert.InDelta(t, -33.98, player.CurrentDB, 0.01)

	require.NoError(t, s.SubmitResponse("p1", 0.6, 0.4, nil))
	more, err = s.AdvanceEvidence()
	require.NoError(t, err)
	assert.False(t, more, "no evidence should remain")
	assert.Equal(t, PhaseVerdict, s.Phase)
	assert.InDelta(t, -32.2, player.CurrentDB, 0.02)

	result := s.Verdict()
	assert.Equal(t, VerdictNotGuilty, result.Verdict)
	assert.Equal(t, 0, result.GuiltyVotes)
	assert.Equal(t, 1, result.NotGuiltyVotes)

	require.Len(t, player.Responses, 2)
	assert.Equal(t, "Fingerprints", player.Responses[0].EvidenceName)
	assert.Equal(t, 0, player.Responses[0].EvidenceIndex)
	assert.Equal(t, 1, player.Responses[1].EvidenceIndex)
}

func TestAddPlayerCapacity(t *testing.T) {
	s := newTestSession(t, 1, 2)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	require.NoError(t, s.AddPlayer("p2", "Bob", 10, true))

	err := s.AddPlayer("p3", "Cam", 50, false)
	assert.ErrorIs(t, err, ErrSessionFull)
	assert.Equal(t, 2, s.PlayerCount())
}

func TestAddPlayerDuplicate(t *testing.T) {
	s := newTestSession(t, 1, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	err := s.AddPlayer("p1", "Imposter", 10, false)
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
	assert.Equal(t, 1, s.PlayerCount())

	player, _ := s.Player("p1")
	assert.Equal(t, "Ada", player.Name)
}

func TestRemovePlayerClearsPending(t *testing.T) {
	s := newTestSession(t, 1, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	require.NoError(t, s.AddPlayer("p2", "Bob", 100, false))
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceToEvidenceReview())
	require.NoError(t, s.SubmitResponse("p1", 0.8, 0.2, nil))

	require.NoError(t, s.RemovePlayer("p1"))
	assert.Equal(t, 0, s.PendingCount())
	assert.Equal(t, 1, s.PlayerCount())

	assert.ErrorIs(t, s.RemovePlayer("ghost"), ErrUnknownPlayer)
}

func TestStartRequiresPlayers(t *testing.T) {
	s := newTestSession(t, 1, 12)
	assert.False(t, s.CanStart())
	assert.ErrorIs(t, s.Start(), ErrNotReady)
	assert.Equal(t, PhaseSetup, s.Phase)
}

func TestStartTwiceFails(t *testing.T) {
	s := newTestSession(t, 1, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrNotReady)
}

func TestAdvanceToEvidenceReviewOutsidePresentation(t *testing.T) {
	s := newTestSession(t, 1, 12)
	assert.ErrorIs(t, s.AdvanceToEvidenceReview(), ErrWrongPhase)
	assert.Equal(t, PhaseSetup, s.Phase)
}

func TestSubmitResponseRejectsWrongPhase(t *testing.T) {
	s := newTestSession(t, 1, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	assert.ErrorIs(t, s.SubmitResponse("p1", 0.8, 0.2, nil), ErrWrongPhase)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.SubmitResponse("p1", 0.8, 0.2, nil), ErrWrongPhase)
}

func TestSubmitResponseUnknownPlayer(t *testing.T) {
	s := newTestSession(t, 1, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceToEvidenceReview())
	assert.ErrorIs(t, s.SubmitResponse("ghost", 0.8, 0.2, nil), ErrUnknownPlayer)
}

func TestResubmissionReplacesBufferedResponse(t *testing.T) {
	s := newTestSession(t, 1, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceToEvidenceReview())

	require.NoError(t, s.SubmitResponse("p1", 0.9, 0.1, nil))
	require.NoError(t, s.SubmitResponse("p1", 0.6, 0.4, nil))
	assert.Equal(t, 1, s.PendingCount())

	_, err := s.AdvanceEvidence()
	require.NoError(t, err)

	player, _ := s.Player("p1")
	require.Len(t, player.Responses, 1)
	assert.InDelta(t, 1.76, player.Responses[0].Delta, 0.01)
}

func TestQuorumTracksConnectedPlayers(t *testing.T) {
	s := newTestSession(t, 1, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	require.NoError(t, s.AddPlayer("p2", "Bob", 100, false))
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceToEvidenceReview())

	assert.False(t, s.AllResponded())
	require.NoError(t, s.SubmitResponse("p1", 0.8, 0.2, nil))
	assert.False(t, s.AllResponded())
	require.NoError(t, s.SubmitResponse("p2", 0.7, 0.3, nil))
	assert.True(t, s.AllResponded())
}

func TestDisconnectedPlayerExcludedFromQuorum(t *testing.T) {
	s := newTestSession(t, 1, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	require.NoError(t, s.AddPlayer("p2", "Bob", 100, false))
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceToEvidenceReview())

	require.NoError(t, s.SetConnected("p2", false))
	require.NoError(t, s.SubmitResponse("p1", 0.8, 0.2, nil))
	assert.True(t, s.AllResponded())

	assert.ErrorIs(t, s.SetConnected("ghost", false), ErrUnknownPlayer)
}

func TestRatingsRecordedOnResponse(t *testing.T) {
	s := newTestSession(t, 1, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, true))
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceToEvidenceReview())

	require.NoError(t, s.SubmitResponse("p1", 0.9, 0.1, &Ratings{Guilty: 8, Innocent: 2}))
	_, err := s.AdvanceEvidence()
	require.NoError(t, err)

	player, _ := s.Player("p1")
	require.Len(t, player.Responses, 1)
	response := player.Responses[0]
	assert.True(t, response.UsedRatingScale)
	require.NotNil(t, response.GuiltyRating)
	require.NotNil(t, response.InnocentRating)
	assert.Equal(t, 8, *response.GuiltyRating)
	assert.Equal(t, 2, *response.InnocentRating)
}

func TestZeroEvidenceCaseDegeneratesToVerdict(t *testing.T) {
	s := newTestSession(t, 0, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceToEvidenceReview())

	more, err := s.AdvanceEvidence()
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, PhaseVerdict, s.Phase)
}

func TestCompleteOnlyFromVerdict(t *testing.T) {
	s := newTestSession(t, 0, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	assert.ErrorIs(t, s.Complete(), ErrWrongPhase)

	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceToEvidenceReview())
	_, err := s.AdvanceEvidence()
	require.NoError(t, err)
	require.NoError(t, s.Complete())
	assert.Equal(t, PhaseCompleted, s.Phase)
}

func TestReportPackagesHistories(t *testing.T) {
	s := newTestSession(t, 1, 12)
	require.NoError(t, s.AddPlayer("p1", "Ada", 100, false))
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceToEvidenceReview())
	require.NoError(t, s.SubmitResponse("p1", 0.8, 0.2, nil))
	_, err := s.AdvanceEvidence()
	require.NoError(t, err)

	completedAt := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	report := s.Report(completedAt)
	assert.Equal(t, "game-1", report.GameID)
	assert.Equal(t, VerdictNotGuilty, report.Verdict)
	assert.Equal(t, completedAt, report.CompletedAt)
	require.Contains(t, report.Players, "p1")
	entry := report.Players["p1"]
	assert.Equal(t, 100, entry.Tolerance)
	assert.InDelta(t, 20, entry.ThresholdDB, 0.01)
	require.Len(t, entry.Responses, 1)
	assert.InDelta(t, 6.02, entry.Responses[0].Delta, 0.01)
}

func TestCurrentEvidenceOnlyDuringReview(t *testing.T) {
	s := newTestSession(t, 2, 12)
	if _, ok := s.CurrentEvidence(); ok {
		t.Fatal("expected no current evidence during setup")
	}
	_ = s.AddPlayer("p1", "Ada", 100, false)
	_ = s.Start()
	_ = s.AdvanceToEvidenceReview()
	item, ok := s.CurrentEvidence()
	require.True(t, ok)
	assert.Equal(t, "Fingerprints", item.Name)
}
