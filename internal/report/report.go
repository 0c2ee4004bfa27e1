// Package report assembles localized view models and HTML documents from the
// scoring and recommendation engines. The engines hand over enum levels and
// priorities; all display strings are resolved here through the translation
// bundle so the same report data can render in any configured language.
package report

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"time"

	"github.com/akozachenko/accesscheck/internal/i18n"
	"github.com/akozachenko/accesscheck/internal/model"
	"github.com/akozachenko/accesscheck/internal/recommend"
	"github.com/akozachenko/accesscheck/internal/scoring"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Assembler builds reports against a fixed catalog.
type Assembler struct {
	catalog *model.Catalog
}

// New creates an assembler for the given catalog.
func New(catalog *model.Catalog) *Assembler {
	return &Assembler{catalog: catalog}
}

// CategoryResult is one category score row with display strings resolved.
type CategoryResult struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Score      int           `json:"score"`
	Positive   int           `json:"positive"`
	Total      int           `json:"total"`
	Level      scoring.Level `json:"level"`
	LevelLabel string        `json:"levelLabel"`
}

// SectionResult is one section score row in catalog order.
type SectionResult struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Score      int           `json:"score"`
	Positive   int           `json:"positive"`
	Total      int           `json:"total"`
	Level      scoring.Level `json:"level"`
	LevelLabel string        `json:"levelLabel"`
}

// RecommendationView is one remediation entry with its priority label resolved.
type RecommendationView struct {
	Priority      recommend.Priority `json:"priority"`
	PriorityLabel string             `json:"priorityLabel"`
	Area          string             `json:"area"`
	Issue         string             `json:"issue"`
	CurrentState  string             `json:"currentState"`
	Advice        string             `json:"advice"`
	Explanation   string             `json:"explanation,omitempty"`
}

// GroupView is the recommendations block for one category.
type GroupView struct {
	CategoryName    string               `json:"categoryName"`
	Score           int                  `json:"score"`
	LevelLabel      string               `json:"levelLabel"`
	IssueCountLabel string               `json:"issueCountLabel"`
	Recommendations []RecommendationView `json:"recommendations"`
}

// SummaryView is one top-priority entry.
type SummaryView struct {
	RecommendationView
	CategoryName string `json:"categoryName"`
}

// ResultsReport is the full localized results document: scores plus ranked
// recommendations.
type ResultsReport struct {
	Title         string           `json:"title"`
	Subtitle      string           `json:"subtitle"`
	CenterName    string           `json:"centerName"`
	CompletedAt   string           `json:"completedAt"`
	Progress      string           `json:"progress"`
	OverallScore  int              `json:"overallScore"`
	OverallLevel  scoring.Level    `json:"overallLevel"`
	OverallLabel  string           `json:"overallLabel"`
	OverallNote   string           `json:"overallNote"`
	Categories    []CategoryResult `json:"categories"`
	Sections      []SectionResult  `json:"sections"`
	Summary       []SummaryView    `json:"summary"`
	Groups        []GroupView      `json:"groups"`
	Labels        Labels           `json:"-"`
	GeneratedNote string           `json:"-"`
}

// Labels carries the static table headings the templates print.
type Labels struct {
	CenterName   string
	CompletedAt  string
	Overall      string
	ByCategory   string
	BySection    string
	Summary      string
	Recommend    string
	Area         string
	CurrentState string
	Advice       string
	Answer       string
}

// Results assembles the localized results report for a session.
func (a *Assembler) Results(ctx context.Context, sess model.AssessmentSession, answers map[string]model.AnswerValue) ResultsReport {
	scores := scoring.ComputeScores(answers, a.catalog)
	groups := recommend.Generate(scores.ByCategory, a.catalog)
	summary := recommend.Summary(groups)

	r := ResultsReport{
		Title:         i18n.T(ctx, "ReportTitle"),
		Subtitle:      i18n.T(ctx, "ReportSubtitle"),
		CenterName:    centerName(ctx, sess),
		CompletedAt:   completedAt(sess),
		Progress:      i18n.Td(ctx, "QuestionsAnsweredOf", map[string]any{"Answered": scores.AnsweredQuestions, "Total": scores.TotalQuestions}),
		OverallScore:  scores.Overall.Score,
		OverallLevel:  scores.Overall.Level,
		OverallLabel:  levelLabel(ctx, scores.Overall.Level),
		OverallNote:   levelDescription(ctx, scores.Overall.Level),
		Labels:        labels(ctx),
		GeneratedNote: i18n.T(ctx, "GeneratedBy"),
	}

	for id, cs := range scores.ByCategory {
		r.Categories = append(r.Categories, CategoryResult{
			ID:         id,
			Name:       a.catalog.CategoryName(id),
			Score:      cs.Score,
			Positive:   cs.Positive,
			Total:      cs.Total,
			Level:      cs.Level,
			LevelLabel: levelLabel(ctx, cs.Level),
		})
	}
	// Worst first, matching the recommendation ordering.
	sort.Slice(r.Categories, func(i, j int) bool {
		if r.Categories[i].Score != r.Categories[j].Score {
			return r.Categories[i].Score < r.Categories[j].Score
		}
		return r.Categories[i].ID < r.Categories[j].ID
	})

	// Sections stay in catalog order.
	for _, sec := range a.catalog.Sections {
		ss, ok := scores.BySection[sec.ID]
		if !ok {
			continue
		}
		r.Sections = append(r.Sections, SectionResult{
			ID:         sec.ID,
			Title:      ss.Title,
			Score:      ss.Score,
			Positive:   ss.Positive,
			Total:      ss.Total,
			Level:      ss.Level,
			LevelLabel: levelLabel(ctx, ss.Level),
		})
	}

	for _, g := range groups {
		gv := GroupView{
			CategoryName:    g.CategoryName,
			Score:           g.Score,
			LevelLabel:      levelLabel(ctx, g.Level),
			IssueCountLabel: i18n.Tp(ctx, "IssueCount", g.IssueCount),
		}
		for _, rec := range g.Recommendations {
			gv.Recommendations = append(gv.Recommendations, recommendationView(ctx, rec))
		}
		r.Groups = append(r.Groups, gv)
	}

	for _, item := range summary {
		r.Summary = append(r.Summary, SummaryView{
			RecommendationView: recommendationView(ctx, item.Recommendation),
			CategoryName:       item.CategoryName,
		})
	}

	return r
}

// AnswerRow is one question with its formatted answer.
type AnswerRow struct {
	QuestionID   string `json:"questionId"`
	QuestionText string `json:"questionText"`
	Answer       string `json:"answer"`
	Answered     bool   `json:"answered"`
}

// SubsectionBlock groups answer rows under a subsection heading.
type SubsectionBlock struct {
	Title string      `json:"title"`
	Rows  []AnswerRow `json:"rows"`
}

// SectionBlock groups subsections under a section heading.
type SectionBlock struct {
	Title       string            `json:"title"`
	Subsections []SubsectionBlock `json:"subsections"`
}

// FullAnswersReport is the complete answer transcript in catalog order,
// including questions left unanswered.
type FullAnswersReport struct {
	Title         string         `json:"title"`
	Subtitle      string         `json:"subtitle"`
	CenterName    string         `json:"centerName"`
	CompletedAt   string         `json:"completedAt"`
	Progress      string         `json:"progress"`
	Sections      []SectionBlock `json:"sections"`
	Labels        Labels         `json:"-"`
	GeneratedNote string         `json:"-"`
}

// FullAnswers assembles the answer transcript for a session.
func (a *Assembler) FullAnswers(ctx context.Context, sess model.AssessmentSession, answers map[string]model.AnswerValue) FullAnswersReport {
	r := FullAnswersReport{
		Title:         i18n.T(ctx, "FullReportTitle"),
		Subtitle:      i18n.T(ctx, "ReportSubtitle"),
		CenterName:    centerName(ctx, sess),
		CompletedAt:   completedAt(sess),
		Progress:      i18n.Td(ctx, "QuestionsAnsweredOf", map[string]any{"Answered": len(answers), "Total": a.catalog.QuestionCount()}),
		Labels:        labels(ctx),
		GeneratedNote: i18n.T(ctx, "GeneratedBy"),
	}

	missing := i18n.T(ctx, "AnswerMissing")
	for _, sec := range a.catalog.Sections {
		block := SectionBlock{Title: sec.Title}
		for _, sub := range sec.Subsections {
			sb := SubsectionBlock{Title: sub.Title}
			for _, q := range sub.Questions {
				row := AnswerRow{QuestionID: q.ID, QuestionText: q.Text}
				if answer, ok := answers[q.ID]; ok {
					row.Answer = answer.Format(&q)
					row.Answered = true
				} else {
					row.Answer = missing
				}
				sb.Rows = append(sb.Rows, row)
			}
			block.Subsections = append(block.Subsections, sb)
		}
		r.Sections = append(r.Sections, block)
	}

	return r
}

// ResultsHTML renders the results report as a standalone HTML document.
func (a *Assembler) ResultsHTML(ctx context.Context, sess model.AssessmentSession, answers map[string]model.AnswerValue) ([]byte, error) {
	r := a.Results(ctx, sess, answers)
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "results.html", r); err != nil {
		return nil, fmt.Errorf("render results report: %w", err)
	}
	return buf.Bytes(), nil
}

// FullAnswersHTML renders the answer transcript as a standalone HTML document.
func (a *Assembler) FullAnswersHTML(ctx context.Context, sess model.AssessmentSession, answers map[string]model.AnswerValue) ([]byte, error) {
	r := a.FullAnswers(ctx, sess, answers)
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "answers.html", r); err != nil {
		return nil, fmt.Errorf("render answers report: %w", err)
	}
	return buf.Bytes(), nil
}

// Export bundles everything about a session into one machine-readable
// document for the export command and the admin API.
type Export struct {
	Session         model.AssessmentSession      `json:"session"`
	Scores          scoring.ScoreReport          `json:"scores"`
	Recommendations []recommend.CategoryGroup    `json:"recommendations"`
	Summary         []recommend.SummaryItem      `json:"summary"`
	Answers         map[string]model.AnswerValue `json:"answers"`
	ExportedAt      time.Time                    `json:"exportedAt"`
}

// BuildExport assembles the export document for a session.
func (a *Assembler) BuildExport(sess model.AssessmentSession, answers map[string]model.AnswerValue) Export {
	scores := scoring.ComputeScores(answers, a.catalog)
	groups := recommend.Generate(scores.ByCategory, a.catalog)
	return Export{
		Session:         sess,
		Scores:          scores,
		Recommendations: groups,
		Summary:         recommend.Summary(groups),
		Answers:         answers,
		ExportedAt:      time.Now().UTC(),
	}
}

func recommendationView(ctx context.Context, rec recommend.Recommendation) RecommendationView {
	return RecommendationView{
		Priority:      rec.Priority,
		PriorityLabel: priorityLabel(ctx, rec.Priority),
		Area:          rec.Area,
		Issue:         rec.Issue,
		CurrentState:  rec.CurrentState,
		Advice:        rec.Advice,
		Explanation:   rec.Explanation,
	}
}

func centerName(ctx context.Context, sess model.AssessmentSession) string {
	if sess.CenterName == "" {
		return i18n.T(ctx, "CenterNameMissing")
	}
	return sess.CenterName
}

func completedAt(sess model.AssessmentSession) string {
	if sess.CompletedAt == nil {
		return ""
	}
	return sess.CompletedAt.Format("02.01.2006 15:04")
}

func levelLabel(ctx context.Context, level scoring.Level) string {
	switch level {
	case scoring.LevelHigh:
		return i18n.T(ctx, "ScoreLevelHigh")
	case scoring.LevelMedium:
		return i18n.T(ctx, "ScoreLevelMedium")
	default:
		return i18n.T(ctx, "ScoreLevelLow")
	}
}

func levelDescription(ctx context.Context, level scoring.Level) string {
	switch level {
	case scoring.LevelHigh:
		return i18n.T(ctx, "ScoreDescriptionHigh")
	case scoring.LevelMedium:
		return i18n.T(ctx, "ScoreDescriptionMedium")
	default:
		return i18n.T(ctx, "ScoreDescriptionLow")
	}
}

func priorityLabel(ctx context.Context, p recommend.Priority) string {
	switch p {
	case recommend.PriorityCritical:
		return i18n.T(ctx, "PriorityCritical")
	case recommend.PriorityImportant:
		return i18n.T(ctx, "PriorityImportant")
	default:
		return i18n.T(ctx, "PriorityRecommended")
	}
}

func labels(ctx context.Context) Labels {
	return Labels{
		CenterName:   i18n.T(ctx, "CenterName"),
		CompletedAt:  i18n.T(ctx, "CompletedAt"),
		Overall:      i18n.T(ctx, "OverallScore"),
		ByCategory:   i18n.T(ctx, "ScoresByCategory"),
		BySection:    i18n.T(ctx, "ScoresBySection"),
		Summary:      i18n.T(ctx, "SummaryTitle"),
		Recommend:    i18n.T(ctx, "RecommendationsTitle"),
		Area:         i18n.T(ctx, "Area"),
		CurrentState: i18n.T(ctx, "CurrentState"),
		Advice:       i18n.T(ctx, "Advice"),
		Answer:       i18n.T(ctx, "AnswerLabel"),
	}
}
