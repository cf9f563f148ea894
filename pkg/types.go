package pkg

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by every store when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// UserRole distinguishes administrators from regular technicians.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleStandard UserRole = "standard"
)

// User is a technician account.  Administrators can manage users and
// prompt templates.
type User struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	Department *string  `json:"department,omitempty"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Client is a row of the clientes table.  The JSON names are the column
// names exposed by the CRUD API.
type Client struct {
	ID          int64   `json:"id"`
	FantasyName string  `json:"nome_fantasia"`
	LegalName   *string `json:"razao_social"`
	TaxID       *string `json:"cnpj"`
}

// VisitStatus is the lifecycle state of a technical visit.
type VisitStatus string

const (
	VisitScheduled  VisitStatus = "scheduled"
	VisitOpen       VisitStatus = "open"
	VisitInProgress VisitStatus = "in_progress"
	VisitCompleted  VisitStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s VisitStatus) Valid() bool {
	switch s {
	case VisitScheduled, VisitOpen, VisitInProgress, VisitCompleted:
		return true
	}
	return false
}

// Visit represents a technical service engagement at a client site.
// ClientName is denormalised from the clientes table at creation time.
type Visit struct {
	ID               string      `json:"id"`
	UserID           int64       `json:"user_id"`
	ClientID         int64       `json:"client_id"`
	ClientName       string      `json:"client_name"`
	ExtraDescription string      `json:"extra_description"`
	StartTime        time.Time   `json:"start_time"`
	CreatedAt        time.Time   `json:"created_at"`
	Status           VisitStatus `json:"status"`
	FinalReportRef   *string     `json:"final_report_ref,omitempty"`
	Technician       *User       `json:"technician,omitempty"`
}

// AnnotationKind tags an annotation with what it records.
type AnnotationKind string

const (
	KindDiagnosis   AnnotationKind = "diagnosis"
	KindAction      AnnotationKind = "action"
	KindTest        AnnotationKind = "test"
	KindObservation AnnotationKind = "observation"
)

// Valid reports whether k is one of the known kinds.
func (k AnnotationKind) Valid() bool {
	switch k {
	case KindDiagnosis, KindAction, KindTest, KindObservation:
		return true
	}
	return false
}

// Annotation is a typed note attached to a visit.  Fragments is the raw
// capture history; Body is the text shown and persisted, either the literal
// consolidation of the fragments (Draft) or its AI rewrite.
type Annotation struct {
	ID        string         `json:"id"`
	VisitID   string         `json:"visit_id"`
	Kind      AnnotationKind `json:"kind"`
	Body      string         `json:"body"`
	Timestamp time.Time      `json:"timestamp"`
	Fragments []string       `json:"fragments"`
	Draft     bool           `json:"draft"`
}

// PromptPlaceholder is replaced by the consolidated fragment text when a
// prompt template is rendered.
const PromptPlaceholder = "[TEXTO_BRUTO_AQUI]"

// Prompt is a named rewrite template.
type Prompt struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Render substitutes the placeholder with the quoted text.  Templates that
// lack the placeholder get the text appended after a blank line.
func (p Prompt) Render(text string) string {
	quoted := `"` + text + `"`
	if !strings.Contains(p.Content, PromptPlaceholder) {
		return p.Content + "\n\n" + quoted
	}
	return strings.Replace(p.Content, PromptPlaceholder, quoted, 1)
}

// Session is the logged-in user of the application.
type Session struct {
	User      User      `json:"user"`
	StartedAt time.Time `json:"started_at"`
}
