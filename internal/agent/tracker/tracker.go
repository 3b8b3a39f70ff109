// Package tracker defines the issue-tracker collaborator contract consumed
// by tool dispatch: the operations, their data shapes, and the per-tenant
// configuration they all take. The tracker itself (REST mapping, auth) is an
// external concern; this package carries the interface, a read-through cache
// decorator, and an in-memory implementation for demo tenants.
package tracker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/inboxagent/server/internal/agent/model"
)

// Config is the opaque per-tenant binding resolved upstream: site, project,
// credential, and acting-user identity.
type Config struct {
	BaseURL    string
	Site       string
	ProjectKey string
	Credential string
	AccountID  string
}

// Ticket is one issue as returned by search.
type Ticket struct {
	Key         string    `json:"key"`
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	IssueType   string    `json:"issue_type"`
	Priority    string    `json:"priority,omitempty"`
	Assignee    string    `json:"assignee,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	Comments    []string  `json:"comments,omitempty"`
	SprintID    int       `json:"sprint_id,omitempty"`
	DueDate     string    `json:"due_date,omitempty"`
	Attachments int       `json:"attachments,omitempty"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// User is one assignable project member.
type User struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Active      bool   `json:"active"`
}

// Workload summarizes one user's open work.
type Workload struct {
	AccountID   string `json:"account_id"`
	OpenTickets int    `json:"open_tickets"`
	InProgress  int    `json:"in_progress"`
}

// Sprint is one sprint in the project's board.
type Sprint struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	StartDate time.Time `json:"start_date,omitempty"`
	EndDate   time.Time `json:"end_date,omitempty"`
}

// SearchQuery narrows a ticket search. Zero values mean "unfiltered";
// LookbackDays of zero falls back to the caller's default window.
type SearchQuery struct {
	LookbackDays int
	Status       string
	Assignee     string
	SprintID     int
	SearchText   string
}

// CreateTicketInput carries everything needed to create one ticket.
// RichDescription, when present, is the tracker's rich-document rendering of
// Description and takes precedence over the plain text.
type CreateTicketInput struct {
	Summary         string
	Description     string
	RichDescription json.RawMessage
	IssueType       string
	Priority        string
	Assignee        string
	Labels          []string
	Components      []string
	SprintID        int
	DueDate         string
	Attachments     []model.NormalizedAttachment
}

// CreatedTicket is the result of a successful creation.
type CreatedTicket struct {
	Key                 string `json:"key"`
	ID                  string `json:"id"`
	Status              string `json:"status"`
	AttachmentsUploaded int    `json:"attachments_uploaded"`
}

// UpdateTicketInput carries the mutations for one existing ticket. Empty
// fields are left untouched.
type UpdateTicketInput struct {
	Summary     string
	Description string
	Status      string
	Assignee    string
	Comment     string
	SprintID    int
	DueDate     string
	Attachments []model.NormalizedAttachment
}

// Client is the set of tracker operations tool dispatch consumes.
// Implementations must be safe for concurrent use across runs.
type Client interface {
	SearchTickets(ctx context.Context, cfg Config, q SearchQuery) ([]Ticket, error)
	CreateTicket(ctx context.Context, cfg Config, in CreateTicketInput) (*CreatedTicket, error)
	UpdateTicket(ctx context.Context, cfg Config, key string, in UpdateTicketInput) error
	GetProjectUsers(ctx context.Context, cfg Config, role string, activeOnly bool) ([]User, error)
	GetUserWorkloads(ctx context.Context, cfg Config, accountIDs []string, includeInProgress bool) (map[string]Workload, error)
	GetSprints(ctx context.Context, cfg Config, state string) ([]Sprint, error)
	GetActiveSprint(ctx context.Context, cfg Config) (*Sprint, error)
}
