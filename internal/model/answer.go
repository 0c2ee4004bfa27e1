package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// AnswerKind discriminates the closed set of answer value shapes. The shape is
// decided once, at the storage boundary, so the engines never sniff raw JSON.
type AnswerKind string

const (
	// AnswerText is a free-text answer.
	AnswerText AnswerKind = "text"
	// AnswerSingleChoice is one chosen label from the question's options.
	AnswerSingleChoice AnswerKind = "single_choice"
	// AnswerChoiceWithFollowup is a chosen label plus a conditional free-text
	// detail field. Only the chosen label is ever matched against triggers.
	AnswerChoiceWithFollowup AnswerKind = "choice_with_followup"
	// AnswerMultiChoice is a set of chosen labels.
	AnswerMultiChoice AnswerKind = "multi_choice"
	// AnswerGrid maps each row label to the chosen column label.
	AnswerGrid AnswerKind = "grid"
	// AnswerUnknown is any shape the shim does not recognize. It still counts
	// as answered, but can never be flagged as an issue.
	AnswerUnknown AnswerKind = "unknown"
)

// AnswerValue is a decoded answer. Exactly the fields for its Kind are set.
type AnswerValue struct {
	Kind     AnswerKind        `json:"kind"`
	Text     string            `json:"text,omitempty"`
	Followup string            `json:"followup,omitempty"`
	Selected []string          `json:"selected,omitempty"`
	Grid     map[string]string `json:"grid,omitempty"`

	raw json.RawMessage
}

// legacyChoice is the stored shape of a choice with a conditional follow-up.
type legacyChoice struct {
	Main        *string `json:"main"`
	Conditional string  `json:"conditional"`
}

// DecodeAnswerValue maps a stored untyped answer value onto the closed
// variant. The question's kind disambiguates plain strings (free text vs. a
// chosen label) and map-shaped values (only matrix questions produce grids;
// a map stored for any other kind is unrecognized garbage).
// Decoding never fails: unrecognized shapes become AnswerUnknown.
func DecodeAnswerValue(raw json.RawMessage, kind QuestionKind) AnswerValue {
	a := AnswerValue{Kind: AnswerUnknown, raw: append(json.RawMessage(nil), raw...)}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		a.Text = s
		a.Kind = AnswerText
		if kind == KindRadio || kind == KindDropdown {
			a.Kind = AnswerSingleChoice
		}
		return a
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		a.Kind = AnswerMultiChoice
		for _, v := range list {
			if s, ok := v.(string); ok {
				a.Selected = append(a.Selected, s)
			}
		}
		return a
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return a
	}

	var lc legacyChoice
	if err := json.Unmarshal(raw, &lc); err == nil && lc.Main != nil {
		a.Kind = AnswerChoiceWithFollowup
		a.Text = *lc.Main
		a.Followup = lc.Conditional
		return a
	}

	if kind == KindMatrix {
		a.Kind = AnswerGrid
		a.Grid = make(map[string]string, len(obj))
		for row, v := range obj {
			if col, ok := v.(string); ok {
				a.Grid[row] = col
			}
		}
	}
	return a
}

// DecodeAnswers applies DecodeAnswerValue to a stored snapshot. Answers for
// ids the catalog does not know keep their shape-derived kind; the engines
// will never attribute them to a bucket anyway.
func DecodeAnswers(raw map[string]json.RawMessage, catalog *Catalog) map[string]AnswerValue {
	out := make(map[string]AnswerValue, len(raw))
	for id, value := range raw {
		kind := QuestionKind("")
		if q := catalog.FindQuestion(id); q != nil {
			kind = q.Type
		}
		out[id] = DecodeAnswerValue(value, kind)
	}
	return out
}

// MarshalJSON re-emits the legacy stored shape so exported reports carry the
// answer exactly as the UI produced it.
func (a AnswerValue) MarshalJSON() ([]byte, error) {
	if a.raw != nil {
		return a.raw, nil
	}
	switch a.Kind {
	case AnswerText, AnswerSingleChoice:
		return json.Marshal(a.Text)
	case AnswerChoiceWithFollowup:
		return json.Marshal(map[string]string{"main": a.Text, "conditional": a.Followup})
	case AnswerMultiChoice:
		return json.Marshal(a.Selected)
	case AnswerGrid:
		return json.Marshal(a.Grid)
	}
	return []byte("null"), nil
}

// GridComplete reports whether every row of a grid question has an entry.
func (a AnswerValue) GridComplete(q *Question) bool {
	if a.Kind != AnswerGrid || q == nil {
		return false
	}
	for _, row := range q.Rows {
		if _, ok := a.Grid[row]; !ok {
			return false
		}
	}
	return true
}

// Format renders the answer for display in reports and recommendations.
// Grid rows follow the question's row order; rows the question does not
// declare come last, alphabetically.
func (a AnswerValue) Format(q *Question) string {
	switch a.Kind {
	case AnswerText, AnswerSingleChoice:
		return a.Text
	case AnswerChoiceWithFollowup:
		if a.Followup != "" {
			return a.Text + " (" + a.Followup + ")"
		}
		return a.Text
	case AnswerMultiChoice:
		return strings.Join(a.Selected, ", ")
	case AnswerGrid:
		var parts []string
		seen := make(map[string]bool, len(a.Grid))
		if q != nil {
			for _, row := range q.Rows {
				if col, ok := a.Grid[row]; ok {
					parts = append(parts, row+": "+col)
					seen[row] = true
				}
			}
		}
		var rest []string
		for row := range a.Grid {
			if !seen[row] {
				rest = append(rest, row)
			}
		}
		sort.Strings(rest)
		for _, row := range rest {
			parts = append(parts, row+": "+a.Grid[row])
		}
		return strings.Join(parts, "; ")
	}
	return strings.TrimSpace(string(a.raw))
}
