package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleOperator fills in assessments.
	UserRoleOperator UserRole = "operator"
	// UserRoleAdmin reviews submitted assessments and full answer reports.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// QuestionKind is the closed set of answer-shape kinds a question can have.
type QuestionKind string

const (
	KindText     QuestionKind = "text"
	KindTextarea QuestionKind = "textarea"
	KindRadio    QuestionKind = "radio"
	KindCheckbox QuestionKind = "checkbox"
	KindMatrix   QuestionKind = "matrix"
	KindDropdown QuestionKind = "dropdown"
)

// ConditionalField describes a free-text follow-up shown when a specific
// choice label is selected (e.g. choosing "Так" reveals a detail field).
type ConditionalField struct {
	Trigger string `json:"trigger"`
	Field   struct {
		Label string `json:"label"`
		Type  string `json:"type"`
	} `json:"field"`
}

// Question is a single catalog question. Questions flagged as accessibility
// questions contribute to scoring; the rest are informational.
type Question struct {
	ID                      string            `json:"id"`
	Text                    string            `json:"text"`
	Type                    QuestionKind      `json:"type"`
	Options                 []string          `json:"options,omitempty"`
	Rows                    []string          `json:"rows,omitempty"`
	Columns                 []string          `json:"columns,omitempty"`
	Required                bool              `json:"required,omitempty"`
	IsAccessibilityQuestion bool              `json:"isAccessibilityQuestion,omitempty"`
	Categories              []string          `json:"categories,omitempty"`
	RecommendationTrigger   []string          `json:"recommendationTrigger,omitempty"`
	Explanation             string            `json:"explanation,omitempty"`
	ConditionalField        *ConditionalField `json:"conditionalField,omitempty"`
}

// Subsection groups questions within a section. Order drives navigation and
// report layout, not scoring.
type Subsection struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Section is a top-level grouping of subsections.
type Section struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Subsections []Subsection `json:"subsections"`
}

// UserCategory is a group of people a question can affect
// (e.g. wheelchair users). Used purely as a grouping key for scores.
type UserCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Catalog is the full read-only question bank plus the user category table.
// Loaded once at startup and never mutated.
type Catalog struct {
	Sections       []Section               `json:"sections"`
	UserCategories map[string]UserCategory `json:"userCategories"`
}

// FlatQuestion is a question paired with its owning section, produced by
// AccessibilityQuestions in catalog order.
type FlatQuestion struct {
	Question        Question
	SectionID       string
	SectionTitle    string
	SubsectionTitle string
}

// AccessibilityQuestions flattens the catalog tree into the deterministic
// list of accessibility-relevant questions the scoring engine iterates over.
func (c *Catalog) AccessibilityQuestions() []FlatQuestion {
	var out []FlatQuestion
	for _, sec := range c.Sections {
		for _, sub := range sec.Subsections {
			for _, q := range sub.Questions {
				if !q.IsAccessibilityQuestion {
					continue
				}
				out = append(out, FlatQuestion{
					Question:        q,
					SectionID:       sec.ID,
					SectionTitle:    sec.Title,
					SubsectionTitle: sub.Title,
				})
			}
		}
	}
	return out
}

// FindQuestion returns the question with the given id, or nil.
// Question ids are unique within the catalog by construction.
func (c *Catalog) FindQuestion(id string) *Question {
	for si := range c.Sections {
		for bi := range c.Sections[si].Subsections {
			qs := c.Sections[si].Subsections[bi].Questions
			for qi := range qs {
				if qs[qi].ID == id {
					return &qs[qi]
				}
			}
		}
	}
	return nil
}

// QuestionCount returns the total number of questions in the catalog.
func (c *Catalog) QuestionCount() int {
	n := 0
	for _, sec := range c.Sections {
		for _, sub := range sec.Subsections {
			n += len(sub.Questions)
		}
	}
	return n
}

// CategoryName returns the display name for a category id, falling back to
// the id itself when the category table has no entry.
func (c *Catalog) CategoryName(id string) string {
	if uc, ok := c.UserCategories[id]; ok && uc.Name != "" {
		return uc.Name
	}
	return id
}

// SessionStatus represents the status of an assessment session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// AssessmentSession represents one operator's walk through the questionnaire.
type AssessmentSession struct {
	ID          int64         `json:"id"`
	CenterName  string        `json:"center_name"`
	Status      SessionStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// ShareLink is a rendered report document published under a random token.
type ShareLink struct {
	Token       string
	SessionID   int64
	Filename    string
	ContentType string
	Content     []byte
	CreatedAt   time.Time
}

// Config holds runtime parameters set via CLI flags.
type Config struct {
	BaseURL       string // public URL prefix for share links
	AdminEmail    string // destination address for report emails
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
}
