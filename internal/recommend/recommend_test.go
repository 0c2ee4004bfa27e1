package recommend

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/akozachenko/accesscheck/internal/model"
	"github.com/akozachenko/accesscheck/internal/scoring"
)

func testCatalog() *model.Catalog {
	return &model.Catalog{
		Sections: []model.Section{
			{
				ID: "physical", Title: "Фізична доступність",
				Subsections: []model.Subsection{
					{ID: "entrance", Title: "Вхід", Questions: []model.Question{
						{
							ID: "q1", Text: "Чи є пандус біля входу?", Type: model.KindRadio,
							IsAccessibilityQuestion: true,
							Categories:              []string{"wheelchair"},
							RecommendationTrigger:   []string{"Ні"},
							Explanation:             "Пандус є ключовим елементом безбар'єрного входу.",
						},
						{
							ID: "q2", Text: "Чи облаштований санвузол для людей з інвалідністю?", Type: model.KindRadio,
							IsAccessibilityQuestion: true,
							Categories:              []string{"wheelchair"},
							RecommendationTrigger:   []string{"Ні"},
						},
					}},
				},
			},
		},
		UserCategories: map[string]model.UserCategory{
			"wheelchair": {ID: "wheelchair", Name: "Люди на інвалідному кріслі"},
			"stroller":   {ID: "stroller", Name: "Батьки з дитячим візочком"},
		},
	}
}

func issue(id, text, rawAnswer, sectionTitle string) scoring.Issue {
	return scoring.Issue{
		QuestionID:   id,
		QuestionText: text,
		Answer:       model.DecodeAnswerValue(json.RawMessage(rawAnswer), model.KindRadio),
		SectionTitle: sectionTitle,
	}
}

func TestGenerateSkipsCleanCategories(t *testing.T) {
	c := testCatalog()
	byCategory := map[string]scoring.CategoryScore{
		"wheelchair": {Score: 50, Level: scoring.LevelMedium, Total: 2, Positive: 1,
			Issues: []scoring.Issue{issue("q1", "Чи є пандус біля входу?", `"Ні"`, "Фізична доступність")}},
		"stroller": {Score: 100, Level: scoring.LevelHigh, Total: 1, Positive: 1},
	}

	groups := Generate(byCategory, c)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.CategoryID != "wheelchair" {
		t.Errorf("group category = %q", g.CategoryID)
	}
	if g.CategoryName != "Люди на інвалідному кріслі" {
		t.Errorf("group name = %q", g.CategoryName)
	}
	if g.IssueCount != 1 || len(g.Recommendations) != 1 {
		t.Fatalf("issueCount/recs = %d/%d", g.IssueCount, len(g.Recommendations))
	}

	rec := g.Recommendations[0]
	if rec.Priority != PriorityImportant {
		t.Errorf("priority = %q, want important", rec.Priority)
	}
	if rec.Area != "Фізична доступність" {
		t.Errorf("area = %q", rec.Area)
	}
	if rec.CurrentState != "Ні" {
		t.Errorf("currentState = %q", rec.CurrentState)
	}
	if rec.Explanation != "Пандус є ключовим елементом безбар'єрного входу." {
		t.Errorf("explanation = %q", rec.Explanation)
	}
}

func TestGroupOrderingWorstFirst(t *testing.T) {
	c := testCatalog()
	// A 45-scoring category with one issue must come strictly before a
	// 95-scoring one, with Critical vs Recommended tiers.
	byCategory := map[string]scoring.CategoryScore{
		"wheelchair": {Score: 95, Level: scoring.LevelHigh,
			Issues: []scoring.Issue{issue("q1", "Чи є пандус біля входу?", `"Ні"`, "Фізична доступність")}},
		"stroller": {Score: 45, Level: scoring.LevelLow,
			Issues: []scoring.Issue{issue("q2", "Чи облаштований санвузол для людей з інвалідністю?", `"Ні"`, "Фізична доступність")}},
	}

	groups := Generate(byCategory, c)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].CategoryID != "stroller" || groups[1].CategoryID != "wheelchair" {
		t.Errorf("order = %q, %q", groups[0].CategoryID, groups[1].CategoryID)
	}
	if groups[0].Recommendations[0].Priority != PriorityCritical {
		t.Errorf("worst group priority = %q", groups[0].Recommendations[0].Priority)
	}
	if groups[1].Recommendations[0].Priority != PriorityRecommended {
		t.Errorf("best group priority = %q", groups[1].Recommendations[0].Priority)
	}
}

func TestGenerateSkipsMissingQuestions(t *testing.T) {
	c := testCatalog()
	byCategory := map[string]scoring.CategoryScore{
		"wheelchair": {Score: 40, Level: scoring.LevelLow, Issues: []scoring.Issue{
			issue("ghost", "видалене питання", `"Ні"`, "Фізична доступність"),
			issue("q1", "Чи є пандус біля входу?", `"Ні"`, "Фізична доступність"),
		}},
	}

	groups := Generate(byCategory, c)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	// The unknown id is dropped silently; the rest of the batch survives.
	if len(groups[0].Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(groups[0].Recommendations))
	}
	if groups[0].IssueCount != 2 {
		t.Errorf("issueCount = %d, want 2", groups[0].IssueCount)
	}
}

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		score int
		want  Priority
	}{
		{0, PriorityCritical},
		{49, PriorityCritical},
		{50, PriorityImportant},
		{79, PriorityImportant},
		{80, PriorityRecommended},
		{100, PriorityRecommended},
	}
	for _, tt := range tests {
		if got := PriorityFor(tt.score); got != tt.want {
			t.Errorf("PriorityFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestAdviceKeywordRules(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"ramp", "Чи є пандус біля входу?", remediationRules[0].advice},
		{"door", "Чи достатньо широкі дверні прорізи?", remediationRules[1].advice},
		{"toilet", "Чи облаштований санвузол для людей з інвалідністю?", remediationRules[10].advice},
		{"case insensitive", "ЧИ Є ПАНДУС?", remediationRules[0].advice},
		{"first match wins", "Чи є таблички зі шрифтом Брайля?", remediationRules[4].advice},
		{"fallback", "Чи проводите ви інклюзивні заходи?", genericAdvice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adviceFor(tt.question); got != tt.want {
				t.Errorf("adviceFor(%q) = %q, want %q", tt.question, got, tt.want)
			}
		})
	}
}

func TestSummaryTopFiveByPriority(t *testing.T) {
	groups := []CategoryGroup{
		{
			CategoryName: "A", Score: 40,
			Recommendations: []Recommendation{
				{Priority: PriorityCritical, Issue: "a1"},
				{Priority: PriorityCritical, Issue: "a2"},
			},
		},
		{
			CategoryName: "B", Score: 60,
			Recommendations: []Recommendation{
				{Priority: PriorityImportant, Issue: "b1"},
				{Priority: PriorityImportant, Issue: "b2"},
			},
		},
		{
			CategoryName: "C", Score: 90,
			Recommendations: []Recommendation{
				{Priority: PriorityRecommended, Issue: "c1"},
				{Priority: PriorityRecommended, Issue: "c2"},
			},
		},
	}

	summary := Summary(groups)
	if len(summary) != 5 {
		t.Fatalf("expected 5 summary items, got %d", len(summary))
	}

	// Non-decreasing priority rank, ties in discovery order.
	wantIssues := []string{"a1", "a2", "b1", "b2", "c1"}
	for i, item := range summary {
		if item.Issue != wantIssues[i] {
			t.Errorf("summary[%d] = %q, want %q", i, item.Issue, wantIssues[i])
		}
	}
	if summary[0].CategoryName != "A" || summary[4].CategoryName != "C" {
		t.Error("summary items lost their category names")
	}
}

func TestSummaryUnderCap(t *testing.T) {
	groups := []CategoryGroup{
		{CategoryName: "A", Recommendations: []Recommendation{{Priority: PriorityCritical, Issue: "a1"}}},
	}
	summary := Summary(groups)
	if len(summary) != 1 {
		t.Errorf("expected 1 item, got %d", len(summary))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	c := testCatalog()
	byCategory := map[string]scoring.CategoryScore{
		"wheelchair": {Score: 45, Level: scoring.LevelLow,
			Issues: []scoring.Issue{issue("q1", "Чи є пандус біля входу?", `"Ні"`, "Фізична доступність")}},
		"stroller": {Score: 45, Level: scoring.LevelLow,
			Issues: []scoring.Issue{issue("q2", "Чи облаштований санвузол для людей з інвалідністю?", `"Ні"`, "Фізична доступність")}},
	}

	first := Generate(byCategory, c)
	second := Generate(byCategory, c)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated Generate calls differ")
	}
	// Equal scores order by category id.
	if first[0].CategoryID != "stroller" {
		t.Errorf("tie-break order: got %q first", first[0].CategoryID)
	}
}
