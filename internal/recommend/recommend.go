// Package recommend turns the scoring engine's per-category issue lists into
// ranked, human-readable remediation entries. Like the scoring engine it is a
// pure function of its inputs.
package recommend

import (
	"sort"

	"github.com/akozachenko/accesscheck/internal/model"
	"github.com/akozachenko/accesscheck/internal/scoring"
)

// Priority is the urgency tier of a recommendation. It is derived from the
// owning category's score, not from the individual issue, so every issue in
// one category shares the same tier.
type Priority string

const (
	PriorityCritical    Priority = "critical"
	PriorityImportant   Priority = "important"
	PriorityRecommended Priority = "recommended"
)

// PriorityFor maps a category score to its tier.
func PriorityFor(score int) Priority {
	switch {
	case score < 50:
		return PriorityCritical
	case score < 80:
		return PriorityImportant
	default:
		return PriorityRecommended
	}
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityImportant:
		return 1
	default:
		return 2
	}
}

// Recommendation is one remediation entry derived from a single issue.
type Recommendation struct {
	Priority     Priority `json:"priority"`
	Area         string   `json:"area"`
	Issue        string   `json:"issue"`
	CurrentState string   `json:"currentState"`
	Advice       string   `json:"advice"`
	Explanation  string   `json:"explanation,omitempty"`
}

// CategoryGroup is the set of recommendations for one user category.
type CategoryGroup struct {
	CategoryID      string          `json:"categoryId"`
	CategoryName    string          `json:"categoryName"`
	Score           int             `json:"score"`
	Level           scoring.Level   `json:"level"`
	IssueCount      int             `json:"issueCount"`
	Recommendations []Recommendation `json:"recommendations"`
}

// SummaryItem is a recommendation tagged with its category for the top
// priorities view.
type SummaryItem struct {
	Recommendation
	CategoryName string `json:"categoryName"`
}

// Generate builds one group per category that has at least one issue.
// Categories with a clean sheet produce no group. Groups are ordered worst
// score first; equal scores fall back to category id so repeated runs over
// the same inputs are byte-identical.
func Generate(byCategory map[string]scoring.CategoryScore, catalog *model.Catalog) []CategoryGroup {
	ids := make([]string, 0, len(byCategory))
	for id := range byCategory {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var groups []CategoryGroup
	for _, id := range ids {
		cs := byCategory[id]
		if len(cs.Issues) == 0 {
			continue
		}

		group := CategoryGroup{
			CategoryID:   id,
			CategoryName: catalog.CategoryName(id),
			Score:        cs.Score,
			Level:        cs.Level,
			IssueCount:   len(cs.Issues),
		}

		for _, issue := range cs.Issues {
			q := catalog.FindQuestion(issue.QuestionID)
			if q == nil {
				// Should be impossible: issues come from catalog traversal.
				// Skip the entry rather than fail the batch.
				continue
			}
			group.Recommendations = append(group.Recommendations, Recommendation{
				Priority:     PriorityFor(cs.Score),
				Area:         issue.SectionTitle,
				Issue:        issue.QuestionText,
				CurrentState: issue.Answer.Format(q),
				Advice:       adviceFor(q.Text),
				Explanation:  q.Explanation,
			})
		}

		groups = append(groups, group)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Score != groups[j].Score {
			return groups[i].Score < groups[j].Score
		}
		return groups[i].CategoryID < groups[j].CategoryID
	})

	return groups
}

// Summary flattens all groups into one list sorted by priority tier and
// returns the first 5. It feeds the top-priorities view, not an exhaustive
// ranking; ties keep the group order already established by Generate.
func Summary(groups []CategoryGroup) []SummaryItem {
	var all []SummaryItem
	for _, g := range groups {
		for _, rec := range g.Recommendations {
			all = append(all, SummaryItem{Recommendation: rec, CategoryName: g.CategoryName})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return priorityRank(all[i].Priority) < priorityRank(all[j].Priority)
	})

	if len(all) > 5 {
		all = all[:5]
	}
	return all
}
