// Package scoring computes normalized accessibility scores from a snapshot of
// answers and the read-only question catalog. It is a pure transformation:
// no I/O, no shared state, identical inputs always produce identical output,
// so results are recomputed on every view instead of cached.
package scoring

import (
	"math"

	"github.com/akozachenko/accesscheck/internal/model"
)

// Level is the qualitative band for a percentage score.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// ScoreLevel maps a percentage to its band. Thresholds are inclusive:
// 80 is high, 50 is medium.
func ScoreLevel(score int) Level {
	switch {
	case score >= 80:
		return LevelHigh
	case score >= 50:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Issue records one negative answer attributed to a category, with enough
// context for the recommendation engine to work from.
type Issue struct {
	QuestionID   string            `json:"questionId"`
	QuestionText string            `json:"questionText"`
	Answer       model.AnswerValue `json:"answer"`
	SectionTitle string            `json:"sectionTitle"`
}

// CategoryScore is the scoring bucket for one user category.
type CategoryScore struct {
	Score    int     `json:"score"`
	Total    int     `json:"total"`
	Positive int     `json:"positive"`
	Level    Level   `json:"level"`
	Issues   []Issue `json:"issues"`
}

// SectionScore is the scoring bucket for one catalog section.
type SectionScore struct {
	Title    string `json:"title"`
	Score    int    `json:"score"`
	Total    int    `json:"total"`
	Positive int    `json:"positive"`
	Level    Level  `json:"level"`
}

// OverallScore is the rounded unweighted mean of all category scores.
type OverallScore struct {
	Score int   `json:"score"`
	Level Level `json:"level"`
}

// ScoreReport is the full output of one scoring pass. Buckets nobody answered
// are absent from the maps, never present with a fabricated 0%.
type ScoreReport struct {
	Overall           OverallScore             `json:"overall"`
	ByCategory        map[string]CategoryScore `json:"byCategory"`
	BySection         map[string]SectionScore  `json:"bySection"`
	TotalQuestions    int                      `json:"totalQuestions"`
	AnsweredQuestions int                      `json:"answeredQuestions"`
}

type bucket struct {
	title    string
	total    int
	positive int
	issues   []Issue
}

// ComputeScores reduces the answer snapshot over the catalog's accessibility
// questions into per-category, per-section and overall scores. Unanswered
// questions are skipped entirely: partial completion shrinks denominators,
// it does not count as failure.
func ComputeScores(answers map[string]model.AnswerValue, catalog *model.Catalog) ScoreReport {
	questions := catalog.AccessibilityQuestions()

	categories := make(map[string]*bucket)
	sections := make(map[string]*bucket)

	for _, fq := range questions {
		answer, ok := answers[fq.Question.ID]
		if !ok {
			continue
		}

		hasIssue := IsNegativeAnswer(answer, fq.Question)

		for _, categoryID := range fq.Question.Categories {
			b := categories[categoryID]
			if b == nil {
				b = &bucket{}
				categories[categoryID] = b
			}
			b.total++
			if hasIssue {
				b.issues = append(b.issues, Issue{
					QuestionID:   fq.Question.ID,
					QuestionText: fq.Question.Text,
					Answer:       answer,
					SectionTitle: fq.SectionTitle,
				})
			} else {
				b.positive++
			}
		}

		// A question contributes once to its section, regardless of how many
		// categories it tags.
		b := sections[fq.SectionID]
		if b == nil {
			b = &bucket{title: fq.SectionTitle}
			sections[fq.SectionID] = b
		}
		b.total++
		if !hasIssue {
			b.positive++
		}
	}

	byCategory := make(map[string]CategoryScore, len(categories))
	for id, b := range categories {
		score := percentage(b.positive, b.total)
		byCategory[id] = CategoryScore{
			Score:    score,
			Total:    b.total,
			Positive: b.positive,
			Level:    ScoreLevel(score),
			Issues:   b.issues,
		}
	}

	bySection := make(map[string]SectionScore, len(sections))
	for id, b := range sections {
		score := percentage(b.positive, b.total)
		bySection[id] = SectionScore{
			Title:    b.title,
			Score:    score,
			Total:    b.total,
			Positive: b.positive,
			Level:    ScoreLevel(score),
		}
	}

	overall := overallScore(byCategory)

	return ScoreReport{
		Overall:           OverallScore{Score: overall, Level: ScoreLevel(overall)},
		ByCategory:        byCategory,
		BySection:         bySection,
		TotalQuestions:    len(questions),
		AnsweredQuestions: len(answers),
	}
}

// overallScore is the rounded arithmetic mean of category percentages, not a
// mean over questions: a category with few questions counts the same as a
// common one, so rare but critical categories are never under-weighted.
func overallScore(byCategory map[string]CategoryScore) int {
	if len(byCategory) == 0 {
		return 0
	}
	sum := 0
	for _, cs := range byCategory {
		sum += cs.Score
	}
	return int(math.Round(float64(sum) / float64(len(byCategory))))
}

func percentage(positive, total int) int {
	return int(math.Round(float64(positive) / float64(total) * 100))
}

// IsNegativeAnswer reports whether an answer marks an accessibility shortfall
// for the question. A question with no trigger list never produces an issue;
// every answer to it counts positive. Shapes the predicate does not recognize
// degrade to "not an issue" rather than failing the computation.
func IsNegativeAnswer(answer model.AnswerValue, q model.Question) bool {
	if len(q.RecommendationTrigger) == 0 {
		return false
	}

	switch answer.Kind {
	case model.AnswerGrid:
		// One failing row fails the whole question.
		for _, col := range answer.Grid {
			if containsTrigger(q.RecommendationTrigger, col) {
				return true
			}
		}
	case model.AnswerText, model.AnswerSingleChoice:
		return containsTrigger(q.RecommendationTrigger, answer.Text)
	case model.AnswerChoiceWithFollowup:
		// The conditional free text is never matched against triggers.
		return containsTrigger(q.RecommendationTrigger, answer.Text)
	case model.AnswerMultiChoice:
		for _, v := range answer.Selected {
			if containsTrigger(q.RecommendationTrigger, v) {
				return true
			}
		}
	}
	return false
}

func containsTrigger(triggers []string, value string) bool {
	for _, t := range triggers {
		if t == value {
			return true
		}
	}
	return false
}
