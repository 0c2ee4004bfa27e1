// Package catalog loads and validates the read-only question bank.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/akozachenko/accesscheck/internal/model"
)

// Load reads a catalog JSON file, validates it and returns the immutable
// catalog the rest of the process shares. Structural problems are fatal here,
// at the loading boundary: the engines themselves assume a sane catalog.
func Load(path string) (*model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var c model.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := Validate(&c); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}

	slog.Info("loaded question catalog",
		"path", path,
		"sections", len(c.Sections),
		"questions", c.QuestionCount(),
		"accessibility_questions", len(c.AccessibilityQuestions()),
		"categories", len(c.UserCategories),
	)
	return &c, nil
}

// Validate checks the structural invariants the engines rely on: non-empty
// section and question ids, ids unique across the catalog, and grid questions
// carrying both a row and a column vocabulary. An accessibility question with
// an empty trigger list is deliberately NOT an error; it scores every answer
// positive.
func Validate(c *model.Catalog) error {
	if len(c.Sections) == 0 {
		return fmt.Errorf("catalog has no sections")
	}

	sectionIDs := make(map[string]bool)
	questionIDs := make(map[string]bool)
	for _, sec := range c.Sections {
		if sec.ID == "" {
			return fmt.Errorf("section with empty id (title %q)", sec.Title)
		}
		if sectionIDs[sec.ID] {
			return fmt.Errorf("duplicate section id %q", sec.ID)
		}
		sectionIDs[sec.ID] = true

		for _, sub := range sec.Subsections {
			for _, q := range sub.Questions {
				if q.ID == "" {
					return fmt.Errorf("question with empty id in section %q", sec.ID)
				}
				if questionIDs[q.ID] {
					return fmt.Errorf("duplicate question id %q", q.ID)
				}
				questionIDs[q.ID] = true

				if q.Type == model.KindMatrix && (len(q.Rows) == 0 || len(q.Columns) == 0) {
					return fmt.Errorf("matrix question %q missing rows or columns", q.ID)
				}
			}
		}
	}
	return nil
}
