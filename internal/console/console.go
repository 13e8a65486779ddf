// Package console runs the single-juror version of the game in a
// terminal: one player, one case, evidence presented item by item.
package console

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bayes-court/internal/bayes"
	"bayes-court/internal/casefile"
	"bayes-court/internal/game"
)

const title = `
    ==============================================================
              BAYESIAN JURISPRUDENCE: THE COURTROOM GAME
    ==============================================================
`

// Console drives one interactive play-through. Input, output, delay,
// and clock are injectable so tests can script a full game.
type Console struct {
	In      io.Reader
	Out     io.Writer
	CaseDir string
	Delay   time.Duration
	Now     func() time.Time

	scanner *bufio.Scanner
	player  *game.Player
}

func New(in io.Reader, out io.Writer, caseDir string) *Console {
	return &Console{
		In:      in,
		Out:     out,
		CaseDir: caseDir,
		Delay:   5 * time.Millisecond,
		Now:     time.Now,
	}
}

// Run plays one full game: pick a case, set the input method and
// tolerance, review every evidence item, deliver the verdict, and save
// the results next to the case file.
func (c *Console) Run() error {
	c.scanner = bufio.NewScanner(c.In)

	c.say("Welcome to the Bayesian Court Game!")
	c.say("This program will guide you through analyzing legal evidence using Bayesian probability theory.")

	path, err := c.pickCase()
	if err != nil {
		return err
	}
	courtCase, err := casefile.Load(path)
	if err != nil {
		return err
	}

	c.say(title)
	c.say("Welcome to the Bayesian Jurisprudence simulation.")
	c.say("You'll estimate the probability of guilt as new evidence is presented.")

	useRating := c.chooseInputMethod()
	tolerance := c.askTolerance()
	c.player = game.NewPlayer("console", "Juror", tolerance, courtCase.Prior.DB, useRating)
	c.explainThreshold(tolerance)

	c.presentCase(courtCase)
	c.listEvidence(courtCase)

	for i := 0; i < courtCase.EvidenceCount(); i++ {
		evidence, _ := courtCase.EvidenceAt(i)
		c.presentEvidence(i, evidence)
		c.collectResponse(i, evidence)
	}

	c.deliverVerdict(courtCase)
	return c.saveResults(courtCase)
}

func (c *Console) pickCase() (string, error) {
	names, err := casefile.List(c.CaseDir)
	if err != nil {
		return "", fmt.Errorf("could not list case files in %q: %w", c.CaseDir, err)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no case files found in %q", c.CaseDir)
	}
	c.say("\nAvailable case files:")
	for i, name := range names {
		c.say(fmt.Sprintf("%d. %s", i+1, name))
	}
	choice := c.askInt("\nEnter the number of the case file to use: ", 1, len(names))
	return filepath.Join(c.CaseDir, names[choice-1]), nil
}

func (c *Console) chooseInputMethod() bool {
	c.say("\nBefore we begin, please choose how you'd like to enter probabilities:")
	c.say("1. Using a rating scale from 0-10")
	c.say("   0 = Very unlikely (0.1%)")
	c.say("   5 = Equal chance (50%)")
	c.say("   10 = Almost certain (99.9%)")
	c.say("2. Entering a probability directly (0-1)")
	for {
		answer := c.ask("\nEnter your choice (1 or 2): ")
		switch answer {
		case "1":
			return true
		case "2":
			return false
		}
		c.say("Please enter either 1 or 2.")
	}
}

func (c *Console) askTolerance() int {
	c.say("\nBefore we proceed, we need to establish your standards for conviction.")
	c.say("How many innocent people would you be willing to convict per guilty conviction?")
	c.say("For example, '1 in 100' means 1 out of every 100 convictions may be of an innocent person.")
	return c.askInt("\nEnter your tolerance (e.g., for 1 in 200, enter 200): ", 10, 0)
}

func (c *Console) explainThreshold(tolerance int) {
	c.say("\nBased on your tolerance, the threshold for conviction is:")
	c.say(fmt.Sprintf("%.1f decibels of evidence", c.player.ThresholdDB))
	c.say(fmt.Sprintf("This corresponds to a %.4f%% certainty of guilt.", (1-1/float64(tolerance))*100))
	c.say(fmt.Sprintf("Statistically, only 1 in %d convictions would be of an innocent person.", tolerance))
}

func (c *Console) presentCase(courtCase *casefile.Case) {
	c.say("\n=== THE CASE ===")
	c.say("\n" + courtCase.Info.Name)
	c.say(courtCase.Info.Description)
	if courtCase.Info.Population != nil {
		c.say(fmt.Sprintf("The case takes place in a location with %.0f people.", *courtCase.Info.Population))
	}
	c.say("\nInitially, with no specific evidence, the probability that any particular person is guilty is:")
	c.say(fmt.Sprintf("- Prior probability = %s", courtCase.Prior.Odds))
	c.say(fmt.Sprintf("- In decibels: e(guilty|X) = %g db", courtCase.Prior.DB))
	if courtCase.Prior.Reasoning != "" {
		c.say("\n=== Base Probability Reasoning ===")
		c.say(courtCase.Prior.Reasoning)
	}
}

func (c *Console) listEvidence(courtCase *casefile.Case) {
	c.say("\n=== LIST OF EVIDENCE TO BE PRESENTED ===")
	for i := 0; i < courtCase.EvidenceCount(); i++ {
		evidence, _ := courtCase.EvidenceAt(i)
		c.say(fmt.Sprintf("\nEvidence %d: %s", i+1, evidence.Name))
		c.say(fmt.Sprintf("Description: %s", evidence.Description))
	}
}

func (c *Console) presentEvidence(index int, evidence casefile.Evidence) {
	c.say(fmt.Sprintf("\n=== EVIDENCE %d: %s ===", index+1, evidence.Name))
	c.say("\n" + evidence.Description)
	c.say(fmt.Sprintf("\nCurrent evidence level: %.1f db", c.player.CurrentDB))
	c.say(fmt.Sprintf("This corresponds to a %.4f%% probability of guilt.", c.player.GuiltProbability()))
}

func (c *Console) collectResponse(index int, evidence casefile.Evidence) {
	for {
		var (
			probGuilty   float64
			probInnocent float64
			ratings      *game.Ratings
		)
		if c.player.UseRatingScale {
			c.say("\nRate these probabilities on a scale of 0-10:")
			c.say("   0 = Very unlikely (0.1%)")
			c.say("   5 = Equal chance (50%)")
			c.say("   10 = Almost certain (99.9%)")
			innocentRating := c.askInt("\nRate likelihood if INNOCENT P(evidence|innocent) (0-10): ", 0, 10)
			guiltyRating := c.askInt("Rate likelihood if GUILTY P(evidence|guilty) (0-10): ", 0, 10)
			probInnocent, _ = bayes.RatingProbability(innocentRating)
			probGuilty, _ = bayes.RatingProbability(guiltyRating)
			ratings = &game.Ratings{Guilty: guiltyRating, Innocent: innocentRating}
		} else {
			c.say("\nEnter probabilities between 0 and 1:")
			probInnocent = c.askProbability("\nP(evidence|innocent) - Enter probability (0-1): ")
			probGuilty = c.askProbability("P(evidence|guilty) - Enter probability (0-1): ")
		}

		delta := bayes.Update(probGuilty, probInnocent)
		c.say("\nYour current probability estimates:")
		if ratings != nil {
			c.say(fmt.Sprintf("- Guilty rating: %d/10 -> P(evidence|guilty) = %.4f", ratings.Guilty, probGuilty))
			c.say(fmt.Sprintf("- Innocent rating: %d/10 -> P(evidence|innocent) = %.4f", ratings.Innocent, probInnocent))
		} else {
			c.say(fmt.Sprintf("- P(evidence|guilty) = %.4f", probGuilty))
			c.say(fmt.Sprintf("- P(evidence|innocent) = %.4f", probInnocent))
		}
		c.say(fmt.Sprintf("- Likelihood ratio = %.4f", probGuilty/probInnocent))
		c.say(fmt.Sprintf("- Evidence update = %.1f db", delta))

		confirm := strings.ToLower(c.ask("\nAre you sure about these values? (y/n): "))
		if confirm != "y" {
			c.say("\nLet's try again...")
			c.presentEvidence(index, evidence)
			continue
		}

		response := game.Response{
			PlayerID:        c.player.ID,
			EvidenceIndex:   index,
			EvidenceName:    evidence.Name,
			ProbGuilty:      probGuilty,
			ProbInnocent:    probInnocent,
			UsedRatingScale: c.player.UseRatingScale,
			Delta:           delta,
			SubmittedAt:     c.Now().UTC(),
		}
		if ratings != nil {
			guilty, innocent := ratings.Guilty, ratings.Innocent
			response.GuiltyRating = &guilty
			response.InnocentRating = &innocent
		}
		c.player.Record(response)

		// Compare against the case file's own likelihoods when present.
		if evidence.ProbGuilty != nil && evidence.ProbInnocent != nil {
			actual := bayes.Update(*evidence.ProbGuilty, *evidence.ProbInnocent)
			c.say("\nActual values in case file:")
			c.say(fmt.Sprintf("- P(evidence|guilty) = %.4f", *evidence.ProbGuilty))
			c.say(fmt.Sprintf("- P(evidence|innocent) = %.4f", *evidence.ProbInnocent))
			c.say(fmt.Sprintf("- Likelihood ratio = %.4f", *evidence.ProbGuilty / *evidence.ProbInnocent))
			c.say(fmt.Sprintf("- Evidence update = %.1f db", actual))
		}

		c.say(fmt.Sprintf("\nThe evidence level is now %.1f db", c.player.CurrentDB))
		c.say(fmt.Sprintf("This corresponds to a %.4f%% probability of guilt.", c.player.GuiltProbability()))
		if evidence.Explanation != "" {
			c.say("\n=== Explanation ===")
			c.say(evidence.Explanation)
		}
		return
	}
}

func (c *Console) deliverVerdict(courtCase *casefile.Case) {
	c.say("\n=== FINAL VERDICT ===")
	c.say("\nCase: " + courtCase.Info.Name)

	c.say("\nYour evidence assessment:")
	for i, response := range c.player.Responses {
		c.say(fmt.Sprintf("Evidence %d - %s: %.1f db", i+1, response.EvidenceName, response.Delta))
	}

	c.say(fmt.Sprintf("\nFinal evidence level: %.1f db", c.player.CurrentDB))
	c.say(fmt.Sprintf("Final probability of guilt: %.4f%%", c.player.GuiltProbability()))
	c.say(fmt.Sprintf("Your conviction threshold: %.1f db", c.player.ThresholdDB))

	if c.player.WouldConvict() {
		c.say("\nVERDICT: GUILTY - The evidence exceeds your threshold for conviction.")
	} else {
		c.say("\nVERDICT: NOT GUILTY - The evidence does not meet your threshold for conviction.")
		c.say("This does not mean the defendant is innocent, only that the evidence")
		c.say("is insufficient to justify conviction by your standards.")
		needed := c.player.ThresholdDB - c.player.CurrentDB
		c.say(fmt.Sprintf("\nAdditional evidence of %.1f db would be needed to convict.", needed))
	}

	c.say("\nThank you for participating in this Bayesian reasoning exercise!")
}

type playedResult struct {
	Case             json.RawMessage `json:"case_data"`
	PlayerResponses  []game.Response `json:"player_responses"`
	FinalEvidenceDB  float64         `json:"final_evidence_db"`
	GuiltThresholdDB float64         `json:"guilt_threshold_db"`
	Tolerance        int             `json:"prior_guilt_tolerance"`
	Verdict          string          `json:"verdict"`
	PlayedAt         time.Time       `json:"played_at"`
}

// saveResults writes the play-through next to the case file. The
// _played_ marker keeps the result out of future case listings.
func (c *Console) saveResults(courtCase *casefile.Case) error {
	verdict := game.VerdictNotGuilty
	if c.player.WouldConvict() {
		verdict = game.VerdictGuilty
	}
	result := playedResult{
		Case:             courtCase.Raw,
		PlayerResponses:  c.player.Responses,
		FinalEvidenceDB:  c.player.CurrentDB,
		GuiltThresholdDB: c.player.ThresholdDB,
		Tolerance:        c.player.Tolerance,
		Verdict:          verdict,
		PlayedAt:         c.Now().UTC(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	timestamp := c.Now().Format("20060102_150405")
	ext := filepath.Ext(courtCase.Path)
	base := strings.TrimSuffix(courtCase.Path, ext)
	filename := fmt.Sprintf("%s_played_%s%s", base, timestamp, ext)
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("could not save results: %w", err)
	}
	c.say(fmt.Sprintf("\nGame results saved to %s", filename))
	return nil
}

// say prints a line with a typing effect. A zero delay prints
// immediately, which tests rely on.
func (c *Console) say(text string) {
	if c.Delay <= 0 {
		fmt.Fprintln(c.Out, text)
		return
	}
	for _, char := range text {
		fmt.Fprint(c.Out, string(char))
		time.Sleep(c.Delay)
	}
	fmt.Fprintln(c.Out)
}

func (c *Console) ask(prompt string) string {
	fmt.Fprint(c.Out, prompt)
	if !c.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(c.scanner.Text())
}

// askInt prompts until it reads an integer within bounds. A max of 0
// means unbounded.
func (c *Console) askInt(prompt string, min, max int) int {
	for {
		answer := c.ask(prompt)
		value, err := strconv.Atoi(answer)
		if err != nil {
			c.say("Please enter a valid number.")
			continue
		}
		if value < min {
			c.say(fmt.Sprintf("Please enter a number greater than or equal to %d.", min))
			continue
		}
		if max > 0 && value > max {
			c.say(fmt.Sprintf("Please enter a number less than or equal to %d.", max))
			continue
		}
		return value
	}
}

// askProbability prompts until it reads a usable likelihood. Zero is
// rejected so the update rule stays finite.
func (c *Console) askProbability(prompt string) float64 {
	for {
		answer := c.ask(prompt)
		value, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			c.say("Please enter a valid number.")
			continue
		}
		if value <= 0 || value >= 1 {
			c.say("Please enter a probability between 0 and 1, exclusive.")
			continue
		}
		return value
	}
}
