// Package casefile loads and validates the JSON case bundles the game
// runs against. Validation happens once here; the engine never sees a
// malformed case.
package casefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Population  *float64 `json:"population,omitempty"`
}

type Prior struct {
	DB        float64 `json:"db"`
	Odds      string  `json:"odds"`
	Reasoning string  `json:"reasoning,omitempty"`
}

type Evidence struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	ProbGuilty   *float64 `json:"prob_guilty,omitempty"`
	ProbInnocent *float64 `json:"prob_innocent,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Case is an immutable bundle of case info, prior belief, and ordered
// evidence. Raw keeps the original payload for result exports.
type Case struct {
	Path     string
	Info     Info
	Prior    Prior
	Evidence []Evidence
	Raw      json.RawMessage
}

func (c *Case) EvidenceCount() int {
	return len(c.Evidence)
}

// EvidenceAt returns the item at a 0-based index.
func (c *Case) EvidenceAt(index int) (Evidence, bool) {
	if index < 0 || index >= len(c.Evidence) {
		return Evidence{}, false
	}
	return c.Evidence[index], true
}

type caseDoc struct {
	Case *struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Population  *float64 `json:"population"`
	} `json:"case"`
	Prior *struct {
		DB        *float64 `json:"db"`
		Odds      *string  `json:"odds"`
		Reasoning string   `json:"reasoning"`
	} `json:"prior"`
	Evidence []struct {
		Name         *string  `json:"name"`
		Description  *string  `json:"description"`
		ProbGuilty   *float64 `json:"prob_guilty"`
		ProbInnocent *float64 `json:"prob_innocent"`
		Explanation  string   `json:"explanation"`
	} `json:"evidence"`
}

// Load reads and validates a case file from disk.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read case file %q: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("case file %q: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// Parse validates the required case structure and builds a typed Case.
func Parse(data []byte) (*Case, error) {
	var doc caseDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if doc.Case == nil {
		return nil, fmt.Errorf("missing required field %q", "case")
	}
	if doc.Case.Name == nil {
		return nil, fmt.Errorf("missing required field %q", "case.name")
	}
	if doc.Case.Description == nil {
		return nil, fmt.Errorf("missing required field %q", "case.description")
	}
	if doc.Prior == nil {
		return nil, fmt.Errorf("missing required field %q", "prior")
	}
	if doc.Prior.DB == nil {
		return nil, fmt.Errorf("missing required field %q", "prior.db")
	}
	if doc.Prior.Odds == nil {
		return nil, fmt.Errorf("missing required field %q", "prior.odds")
	}
	if doc.Evidence == nil {
		return nil, fmt.Errorf("missing required field %q", "evidence")
	}

	c := &Case{
		Info: Info{
			Name:        *doc.Case.Name,
			Description: *doc.Case.Description,
			Population:  doc.Case.Population,
		},
		Prior: Prior{
			DB:        *doc.Prior.DB,
			Odds:      *doc.Prior.Odds,
			Reasoning: doc.Prior.Reasoning,
		},
		Evidence: make([]Evidence, 0, len(doc.Evidence)),
		Raw:      json.RawMessage(data),
	}
	for i, item := range doc.Evidence {
		if item.Name == nil {
			return nil, fmt.Errorf("missing required field %q", fmt.Sprintf("evidence[%d].name", i))
		}
		if item.Description == nil {
			return nil, fmt.Errorf("missing required field %q", fmt.Sprintf("evidence[%d].description", i))
		}
		c.Evidence = append(c.Evidence, Evidence{
			Name:         *item.Name,
			Description:  *item.Description,
			ProbGuilty:   item.ProbGuilty,
			ProbInnocent: item.ProbInnocent,
			Explanation:  item.Explanation,
		})
	}
	return c, nil
}

// Validate loads a case file purely for its error.
func Validate(path string) error {
	_, err := Load(path)
	return err
}

// List returns the case files in a directory, excluding generated
// result files.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		if strings.Contains(name, "_results_") || strings.Contains(name, "_played_") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}
