package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryClient is an in-memory tracker used for demo tenants and tests.
// Safe for concurrent use; each instance owns its own ticket table.
type MemoryClient struct {
	mu      sync.Mutex
	tickets []Ticket
	users   []User
	sprints []Sprint
	nextID  int
}

// NewMemoryClient seeds a demo project. Ticket numbering starts above the
// seed range so the first created ticket is <project>-101.
func NewMemoryClient() *MemoryClient {
	now := time.Now()
	return &MemoryClient{
		nextID: 100,
		tickets: []Ticket{
			{
				Key: "DEMO-42", ID: "10042", Summary: "Login page styling broken on mobile",
				Status: "In Progress", IssueType: "Bug", Priority: "Medium",
				Assignee: "demo-user-2", SprintID: 2,
				Created: now.Add(-96 * time.Hour), Updated: now.Add(-24 * time.Hour),
			},
			{
				Key: "DEMO-43", ID: "10043", Summary: "Add CSV export to reports",
				Status: "To Do", IssueType: "Story", Priority: "Low",
				Created: now.Add(-72 * time.Hour), Updated: now.Add(-72 * time.Hour),
			},
		},
		users: []User{
			{AccountID: "demo-user-1", DisplayName: "Alex Rivera", Email: "alex@demo.example", Active: true},
			{AccountID: "demo-user-2", DisplayName: "Sam Chen", Email: "sam@demo.example", Active: true},
			{AccountID: "demo-user-3", DisplayName: "Priya Patel", Email: "priya@demo.example", Active: false},
		},
		sprints: []Sprint{
			{ID: 1, Name: "Sprint 7", State: "closed", StartDate: now.Add(-28 * 24 * time.Hour), EndDate: now.Add(-14 * 24 * time.Hour)},
			{ID: 2, Name: "Sprint 8", State: "active", StartDate: now.Add(-14 * 24 * time.Hour), EndDate: now.Add(14 * 24 * time.Hour)},
		},
	}
}

func (m *MemoryClient) SearchTickets(ctx context.Context, cfg Config, q SearchQuery) ([]Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lookback := q.LookbackDays
	if lookback <= 0 {
		lookback = 7
	}
	cutoff := time.Now().AddDate(0, 0, -lookback)

	var out []Ticket
	for _, t := range m.tickets {
		if t.Created.Before(cutoff) {
			continue
		}
		if q.Status != "" && !strings.EqualFold(t.Status, q.Status) {
			continue
		}
		if q.Assignee != "" && t.Assignee != q.Assignee {
			continue
		}
		if q.SprintID != 0 && t.SprintID != q.SprintID {
			continue
		}
		if q.SearchText != "" && !strings.Contains(strings.ToLower(t.Summary), strings.ToLower(q.SearchText)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *MemoryClient) CreateTicket(ctx context.Context, cfg Config, in CreateTicketInput) (*CreatedTicket, error) {
	if strings.TrimSpace(in.Summary) == "" {
		return nil, fmt.Errorf("summary is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	project := cfg.ProjectKey
	if project == "" {
		project = "DEMO"
	}
	now := time.Now()
	ticket := Ticket{
		Key:         fmt.Sprintf("%s-%d", project, m.nextID),
		ID:          fmt.Sprintf("1%04d", m.nextID),
		Summary:     in.Summary,
		Description: in.Description,
		Status:      "To Do",
		IssueType:   in.IssueType,
		Priority:    in.Priority,
		Assignee:    in.Assignee,
		Labels:      in.Labels,
		SprintID:    in.SprintID,
		DueDate:     in.DueDate,
		Attachments: len(in.Attachments),
		Created:     now,
		Updated:     now,
	}
	m.tickets = append(m.tickets, ticket)

	return &CreatedTicket{
		Key:                 ticket.Key,
		ID:                  ticket.ID,
		Status:              ticket.Status,
		AttachmentsUploaded: len(in.Attachments),
	}, nil
}

func (m *MemoryClient) UpdateTicket(ctx context.Context, cfg Config, key string, in UpdateTicketInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.tickets {
		if m.tickets[i].Key != key {
			continue
		}
		if in.Summary != "" {
			m.tickets[i].Summary = in.Summary
		}
		if in.Description != "" {
			m.tickets[i].Description = in.Description
		}
		if in.Status != "" {
			m.tickets[i].Status = in.Status
		}
		if in.Assignee != "" {
			m.tickets[i].Assignee = in.Assignee
		}
		if in.Comment != "" {
			m.tickets[i].Comments = append(m.tickets[i].Comments, in.Comment)
		}
		if in.SprintID != 0 {
			m.tickets[i].SprintID = in.SprintID
		}
		if in.DueDate != "" {
			m.tickets[i].DueDate = in.DueDate
		}
		m.tickets[i].Attachments += len(in.Attachments)
		m.tickets[i].Updated = time.Now()
		return nil
	}
	return fmt.Errorf("ticket not found: %s", key)
}

func (m *MemoryClient) GetProjectUsers(ctx context.Context, cfg Config, role string, activeOnly bool) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []User
	for _, u := range m.users {
		if activeOnly && !u.Active {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *MemoryClient) GetUserWorkloads(ctx context.Context, cfg Config, accountIDs []string, includeInProgress bool) (map[string]Workload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Workload, len(accountIDs))
	for _, id := range accountIDs {
		w := Workload{AccountID: id}
		for _, t := range m.tickets {
			if t.Assignee != id {
				continue
			}
			if t.Status != "Done" {
				w.OpenTickets++
			}
			if includeInProgress && t.Status == "In Progress" {
				w.InProgress++
			}
		}
		out[id] = w
	}
	return out, nil
}

func (m *MemoryClient) GetSprints(ctx context.Context, cfg Config, state string) ([]Sprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Sprint
	for _, s := range m.sprints {
		if state != "" && s.State != state {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *MemoryClient) GetActiveSprint(ctx context.Context, cfg Config) (*Sprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sprints {
		if s.State == "active" {
			sprint := s
			return &sprint, nil
		}
	}
	return nil, nil
}

var _ Client = (*MemoryClient)(nil)
