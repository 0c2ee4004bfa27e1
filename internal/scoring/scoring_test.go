package scoring

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/akozachenko/accesscheck/internal/model"
)

// testCatalog builds a small catalog covering every answer shape:
// q1 radio tagging two categories, q2 a six-row grid, q3 a radio with a
// conditional follow-up, q4 a checkbox, q5 a radio without triggers and
// q0 an informational question that must never reach any bucket.
func testCatalog() *model.Catalog {
	return &model.Catalog{
		Sections: []model.Section{
			{
				ID: "physical", Title: "Фізична доступність",
				Subsections: []model.Subsection{
					{ID: "entrance", Title: "Вхід", Questions: []model.Question{
						{
							ID: "q0", Text: "Назва центру", Type: model.KindText,
						},
						{
							ID: "q1", Text: "Чи є пандус біля входу?", Type: model.KindRadio,
							Options:                 []string{"Так", "Ні"},
							IsAccessibilityQuestion: true,
							Categories:              []string{"wheelchair", "stroller"},
							RecommendationTrigger:   []string{"Ні"},
						},
						{
							ID: "q2", Text: "Чи доступні зони центру?", Type: model.KindMatrix,
							Rows:                    []string{"Вхід", "Коридор", "Зала", "Кухня", "Санвузол", "Двір"},
							Columns:                 []string{"Так", "Ні"},
							IsAccessibilityQuestion: true,
							Categories:              []string{"wheelchair"},
							RecommendationTrigger:   []string{"Ні"},
						},
					}},
				},
			},
			{
				ID: "information", Title: "Інформаційна доступність",
				Subsections: []model.Subsection{
					{ID: "services", Title: "Послуги", Questions: []model.Question{
						{
							ID: "q3", Text: "Чи доступний сурдоперекладач?", Type: model.KindRadio,
							Options:                 []string{"Так", "Ні"},
							IsAccessibilityQuestion: true,
							Categories:              []string{"hearingImpairment"},
							RecommendationTrigger:   []string{"Ні"},
							ConditionalField:        &model.ConditionalField{Trigger: "Так"},
						},
						{
							ID: "q4", Text: "Які елементи навігації наявні?", Type: model.KindCheckbox,
							Options:                 []string{"Таблички", "Піктограми", "Нічого з переліченого"},
							IsAccessibilityQuestion: true,
							Categories:              []string{"visualImpairment", "hearingImpairment"},
							RecommendationTrigger:   []string{"Нічого з переліченого"},
						},
						{
							ID: "q5", Text: "Скільки входів має будівля?", Type: model.KindRadio,
							Options:                 []string{"Один", "Декілька"},
							IsAccessibilityQuestion: true,
							Categories:              []string{"wheelchair"},
						},
					}},
				},
			},
		},
		UserCategories: map[string]model.UserCategory{
			"wheelchair":        {ID: "wheelchair", Name: "Люди на інвалідному кріслі"},
			"stroller":          {ID: "stroller", Name: "Батьки з дитячим візочком"},
			"hearingImpairment": {ID: "hearingImpairment", Name: "Люди з порушенням слуху"},
			"visualImpairment":  {ID: "visualImpairment", Name: "Люди з порушенням зору"},
		},
	}
}

func answer(t *testing.T, c *model.Catalog, questionID, raw string) model.AnswerValue {
	t.Helper()
	kind := model.QuestionKind("")
	if q := c.FindQuestion(questionID); q != nil {
		kind = q.Type
	}
	return model.DecodeAnswerValue(json.RawMessage(raw), kind)
}

func TestAllUnanswered(t *testing.T) {
	c := testCatalog()
	report := ComputeScores(map[string]model.AnswerValue{}, c)

	if len(report.ByCategory) != 0 {
		t.Errorf("expected empty byCategory, got %d buckets", len(report.ByCategory))
	}
	if len(report.BySection) != 0 {
		t.Errorf("expected empty bySection, got %d buckets", len(report.BySection))
	}
	if report.Overall.Score != 0 {
		t.Errorf("overall = %d, want 0", report.Overall.Score)
	}
	if report.TotalQuestions != 5 {
		t.Errorf("totalQuestions = %d, want 5", report.TotalQuestions)
	}
	if report.AnsweredQuestions != 0 {
		t.Errorf("answeredQuestions = %d, want 0", report.AnsweredQuestions)
	}
}

func TestGridFailureIsAllOrNothing(t *testing.T) {
	c := testCatalog()
	// Three of six rows carry the trigger value: the question counts as one
	// issue for its category, not three.
	answers := map[string]model.AnswerValue{
		"q2": answer(t, c, "q2", `{"Вхід":"Ні","Коридор":"Ні","Зала":"Ні","Кухня":"Так","Санвузол":"Так","Двір":"Так"}`),
	}
	report := ComputeScores(answers, c)

	wc, ok := report.ByCategory["wheelchair"]
	if !ok {
		t.Fatal("wheelchair bucket missing")
	}
	if wc.Total != 1 || wc.Positive != 0 {
		t.Errorf("total/positive = %d/%d, want 1/0", wc.Total, wc.Positive)
	}
	if len(wc.Issues) != 1 {
		t.Fatalf("expected exactly 1 issue, got %d", len(wc.Issues))
	}
	if wc.Issues[0].QuestionID != "q2" {
		t.Errorf("issue question = %q", wc.Issues[0].QuestionID)
	}
	if wc.Score != 0 || wc.Level != LevelLow {
		t.Errorf("score/level = %d/%q", wc.Score, wc.Level)
	}
}

func TestMultiCategoryIssueRecordedOncePerCategory(t *testing.T) {
	c := testCatalog()
	answers := map[string]model.AnswerValue{
		"q1": answer(t, c, "q1", `"Ні"`),
	}
	report := ComputeScores(answers, c)

	for _, cat := range []string{"wheelchair", "stroller"} {
		b, ok := report.ByCategory[cat]
		if !ok {
			t.Fatalf("%s bucket missing", cat)
		}
		if len(b.Issues) != 1 || b.Issues[0].QuestionID != "q1" {
			t.Errorf("%s issues = %+v", cat, b.Issues)
		}
		if b.Positive != 0 {
			t.Errorf("%s positive = %d, want 0", cat, b.Positive)
		}
	}

	// The question contributes once to its section despite tagging two categories.
	sec, ok := report.BySection["physical"]
	if !ok {
		t.Fatal("physical section bucket missing")
	}
	if sec.Total != 1 {
		t.Errorf("section total = %d, want 1", sec.Total)
	}
	if sec.Title != "Фізична доступність" {
		t.Errorf("section title = %q", sec.Title)
	}
}

func TestConditionalChoiceOnlyMainMatched(t *testing.T) {
	c := testCatalog()
	// "Так" is not in the trigger list; the conditional text must be ignored
	// even if it happened to equal a trigger value.
	answers := map[string]model.AnswerValue{
		"q3": answer(t, c, "q3", `{"main":"Так","conditional":"Ні"}`),
	}
	report := ComputeScores(answers, c)

	b := report.ByCategory["hearingImpairment"]
	if b.Positive != 1 || len(b.Issues) != 0 {
		t.Errorf("positive/issues = %d/%d, want 1/0", b.Positive, len(b.Issues))
	}
}

func TestUnansweredExcludedFromDenominators(t *testing.T) {
	c := testCatalog()
	// Only q1 answered; q2 and q5 also tag wheelchair but stay out of the total.
	answers := map[string]model.AnswerValue{
		"q1": answer(t, c, "q1", `"Так"`),
	}
	report := ComputeScores(answers, c)

	wc := report.ByCategory["wheelchair"]
	if wc.Total != 1 {
		t.Errorf("wheelchair total = %d, want 1", wc.Total)
	}
	if wc.Score != 100 {
		t.Errorf("wheelchair score = %d, want 100", wc.Score)
	}
	if _, ok := report.ByCategory["hearingImpairment"]; ok {
		t.Error("hearingImpairment bucket must be absent, not 0%")
	}
	if _, ok := report.BySection["information"]; ok {
		t.Error("information section bucket must be absent")
	}
}

func TestNoTriggerQuestionAlwaysPositive(t *testing.T) {
	c := testCatalog()
	answers := map[string]model.AnswerValue{
		"q5": answer(t, c, "q5", `"Один"`),
	}
	report := ComputeScores(answers, c)

	wc := report.ByCategory["wheelchair"]
	if wc.Positive != 1 || len(wc.Issues) != 0 {
		t.Errorf("no-trigger question flagged as issue: %+v", wc)
	}
}

func TestInformationalQuestionNeverScored(t *testing.T) {
	c := testCatalog()
	answers := map[string]model.AnswerValue{
		"q0": answer(t, c, "q0", `"Центр Мрія"`),
	}
	report := ComputeScores(answers, c)

	if len(report.ByCategory) != 0 || len(report.BySection) != 0 {
		t.Error("informational answer leaked into scoring buckets")
	}
	// It still counts as an answered question for progress reporting.
	if report.AnsweredQuestions != 1 {
		t.Errorf("answeredQuestions = %d, want 1", report.AnsweredQuestions)
	}
}

func TestOverallIsMeanOfCategoryScores(t *testing.T) {
	c := testCatalog()
	answers := map[string]model.AnswerValue{
		// wheelchair: q1 positive, q2 issue, q5 positive -> 67
		// stroller: q1 positive -> 100
		// hearingImpairment: q3 issue, q4 positive -> 50
		// visualImpairment: q4 positive -> 100
		"q1": answer(t, c, "q1", `"Так"`),
		"q2": answer(t, c, "q2", `{"Вхід":"Ні","Коридор":"Так","Зала":"Так","Кухня":"Так","Санвузол":"Так","Двір":"Так"}`),
		"q3": answer(t, c, "q3", `"Ні"`),
		"q4": answer(t, c, "q4", `["Таблички"]`),
		"q5": answer(t, c, "q5", `"Декілька"`),
	}
	report := ComputeScores(answers, c)

	want := map[string]int{
		"wheelchair":        67,
		"stroller":          100,
		"hearingImpairment": 50,
		"visualImpairment":  100,
	}
	for cat, score := range want {
		if got := report.ByCategory[cat].Score; got != score {
			t.Errorf("%s score = %d, want %d", cat, got, score)
		}
	}

	// round((67+100+50+100)/4) = round(79.25) = 79
	if report.Overall.Score != 79 {
		t.Errorf("overall = %d, want 79", report.Overall.Score)
	}
	if report.Overall.Level != LevelMedium {
		t.Errorf("overall level = %q, want medium", report.Overall.Level)
	}

	for cat, b := range report.ByCategory {
		if b.Score < 0 || b.Score > 100 {
			t.Errorf("%s score %d out of bounds", cat, b.Score)
		}
	}
}

func TestScoreLevelThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  Level
	}{
		{0, LevelLow},
		{49, LevelLow},
		{50, LevelMedium},
		{79, LevelMedium},
		{80, LevelHigh},
		{100, LevelHigh},
	}
	for _, tt := range tests {
		if got := ScoreLevel(tt.score); got != tt.want {
			t.Errorf("ScoreLevel(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestIsNegativeAnswer(t *testing.T) {
	triggered := model.Question{RecommendationTrigger: []string{"Ні", "Частково"}}
	noTriggers := model.Question{}

	tests := []struct {
		name string
		raw  string
		kind model.QuestionKind
		q    model.Question
		want bool
	}{
		{"no trigger list never negative", `"Ні"`, model.KindRadio, noTriggers, false},
		{"string match", `"Ні"`, model.KindRadio, triggered, true},
		{"string no match", `"Так"`, model.KindRadio, triggered, false},
		{"multi choice any match", `["Так","Частково"]`, model.KindCheckbox, triggered, true},
		{"multi choice no match", `["Так"]`, model.KindCheckbox, triggered, false},
		{"followup main matched", `{"main":"Ні","conditional":"x"}`, model.KindRadio, triggered, true},
		{"followup conditional ignored", `{"main":"Так","conditional":"Ні"}`, model.KindRadio, triggered, false},
		{"grid any row", `{"Вхід":"Так","Зала":"Ні"}`, model.KindMatrix, triggered, true},
		{"grid clean", `{"Вхід":"Так","Зала":"Так"}`, model.KindMatrix, triggered, false},
		{"garbage shape degrades to non-issue", `42`, model.KindRadio, triggered, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := model.DecodeAnswerValue(json.RawMessage(tt.raw), tt.kind)
			if got := IsNegativeAnswer(a, tt.q); got != tt.want {
				t.Errorf("IsNegativeAnswer = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeScoresDeterministic(t *testing.T) {
	c := testCatalog()
	answers := map[string]model.AnswerValue{
		"q1": answer(t, c, "q1", `"Ні"`),
		"q2": answer(t, c, "q2", `{"Вхід":"Ні","Коридор":"Так","Зала":"Так","Кухня":"Так","Санвузол":"Так","Двір":"Так"}`),
		"q3": answer(t, c, "q3", `{"main":"Так","conditional":"деталі"}`),
		"q4": answer(t, c, "q4", `["Нічого з переліченого"]`),
	}

	first := ComputeScores(answers, c)
	second := ComputeScores(answers, c)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated ComputeScores calls differ")
	}

	b1, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b2, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b1) != string(b2) {
		t.Error("serialized reports differ between runs")
	}
}
