package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/inboxagent/server/internal/agent/model"
	"github.com/inboxagent/server/internal/agent/tracker"
	logx "github.com/inboxagent/server/pkg/logger"
)

// Result is the uniform envelope every dispatch produces. A failed call
// carries Err and an error Content payload; it is never surfaced as a Go
// error to the caller; failure isolation is this package's contract.
type Result struct {
	Kind           Kind
	Name           string
	Content        string
	Err            string
	Action         string
	Duration       time.Duration
	TicketCreated  string
	TicketModified string
}

// Failed reports whether the invocation produced an error envelope.
func (r Result) Failed() bool {
	return r.Err != ""
}

// DispatcherConfig scopes a Dispatcher to one processing run.
type DispatcherConfig struct {
	// Client is nil when no tracker integration resolved for the tenant;
	// every tracker-dependent tool then short-circuits to an error result.
	Client       *tracker.CachedClient
	Tracker      tracker.Config
	Features     model.FeatureConfig
	LookbackDays int
	MessageID    string
	Attachments  []model.NormalizedAttachment
}

// Dispatcher executes tool calls against the tracker collaborator. One
// instance serves one run and owns that run's normalized attachments.
type Dispatcher struct {
	client       *tracker.CachedClient
	cfg          tracker.Config
	features     model.FeatureConfig
	lookbackDays int
	messageID    string
	attachments  []model.NormalizedAttachment
	now          func() time.Time
	log          zerolog.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 7
	}
	return &Dispatcher{
		client:       cfg.Client,
		cfg:          cfg.Tracker,
		features:     cfg.Features,
		lookbackDays: lookback,
		messageID:    cfg.MessageID,
		attachments:  cfg.Attachments,
		now:          time.Now,
		log:          logx.With("tools"),
	}
}

// Dispatch runs one tool call to completion and always returns an envelope.
// Wall-clock duration is recorded regardless of outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, call schema.ToolCall) Result {
	start := time.Now()
	res := d.run(ctx, call)
	res.Duration = time.Since(start)

	if res.Failed() {
		res.Content = errorContent(res.Err, res.Name)
		if res.Action == "" {
			res.Action = fmt.Sprintf("Error with %s: %s", res.Name, res.Err)
		}
		d.log.Warn().
			Str("tool", res.Name).
			Str("error", res.Err).
			Dur("duration", res.Duration).
			Msg("Tool call failed")
	} else {
		d.log.Debug().
			Str("tool", res.Name).
			Dur("duration", res.Duration).
			Msg("Tool call completed")
	}
	return res
}

func (d *Dispatcher) run(ctx context.Context, call schema.ToolCall) (res Result) {
	res.Name = call.Function.Name

	// Collaborator failures of any shape stay inside the envelope.
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Sprintf("tool panicked: %v", r)
		}
	}()

	kind, ok := ParseKind(res.Name)
	if !ok {
		res.Err = "Unknown tool: " + res.Name
		return res
	}
	res.Kind = kind

	if kind.RequiresTracker() && d.client == nil {
		res.Err = "tracker not available"
		return res
	}
	if !kind.enabled(d.features, d.client != nil) {
		res.Err = "tool not enabled: " + res.Name
		return res
	}

	raw := sanitizeArguments(call.Function.Arguments)

	switch kind {
	case KindCurrentPeriod:
		return d.runCurrentPeriod(res)
	case KindReadTickets:
		return d.runReadTickets(ctx, raw, res)
	case KindCreateTicket:
		return d.runCreateTicket(ctx, raw, res)
	case KindModifyTicket:
		return d.runModifyTicket(ctx, raw, res)
	case KindGetSprints:
		return d.runGetSprints(ctx, raw, res)
	case KindGetActiveSprint:
		return d.runGetActiveSprint(ctx, res)
	case KindGetUserWorkload:
		return d.runGetUserWorkload(ctx, raw, res)
	case KindGetProjectUsers:
		return d.runGetProjectUsers(ctx, raw, res)
	}

	res.Err = "Unknown tool: " + res.Name
	return res
}

func (d *Dispatcher) runCurrentPeriod(res Result) Result {
	now := d.now()
	year, week := now.ISOWeek()
	res.Content = marshalContent(map[string]any{
		"current_date": now.Format("2006-01-02"),
		"current_time": now.Format("15:04:05"),
		"timezone":     now.Location().String(),
		"day_of_week":  now.Weekday().String(),
		"iso_week":     fmt.Sprintf("%d-W%02d", year, week),
	})
	res.Action = "Checked current period"
	return res
}

type readTicketsArgs struct {
	LookbackDays int    `json:"lookback_days"`
	Status       string `json:"status"`
	Assignee     string `json:"assignee"`
	SprintID     int    `json:"sprint_id"`
	SearchText   string `json:"search_text"`
}

func (d *Dispatcher) runReadTickets(ctx context.Context, raw string, res Result) Result {
	var args readTicketsArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		res.Err = "invalid arguments: " + err.Error()
		return res
	}
	if args.LookbackDays <= 0 {
		args.LookbackDays = d.lookbackDays
	}
	if !d.features.SprintSupport {
		args.SprintID = 0
	}

	tickets, err := d.client.SearchTickets(ctx, d.cfg, tracker.SearchQuery{
		LookbackDays: args.LookbackDays,
		Status:       args.Status,
		Assignee:     args.Assignee,
		SprintID:     args.SprintID,
		SearchText:   args.SearchText,
	})
	if err != nil {
		res.Err = err.Error()
		return res
	}

	res.Content = marshalContent(map[string]any{
		"count":   len(tickets),
		"tickets": tickets,
	})
	res.Action = fmt.Sprintf("Searched tickets: %d found in last %d days", len(tickets), args.LookbackDays)
	return res
}

type createTicketArgs struct {
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	IssueType   string   `json:"issue_type"`
	Priority    string   `json:"priority"`
	Assignee    string   `json:"assignee"`
	Labels      []string `json:"labels"`
	Components  []string `json:"components"`
	SprintID    int      `json:"sprint_id"`
	DueDate     string   `json:"due_date"`
}

func (d *Dispatcher) runCreateTicket(ctx context.Context, raw string, res Result) Result {
	var args createTicketArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		res.Err = "invalid arguments: " + err.Error()
		return res
	}
	if strings.TrimSpace(args.Summary) == "" {
		res.Err = "summary is required"
		return res
	}
	if args.IssueType == "" {
		args.IssueType = "Task"
	}
	if !d.features.SprintSupport {
		args.SprintID = 0
		args.DueDate = ""
	}

	// Queue redelivery re-runs the whole email; the fingerprint pins the
	// (message, summary) pair to the ticket it already produced.
	fingerprint := d.fingerprint(args.Summary)
	if existing, ok := d.client.DedupeKey(ctx, d.cfg, fingerprint); ok {
		res.Content = marshalContent(map[string]any{
			"key":          existing,
			"status":       "existing",
			"deduplicated": true,
		})
		res.Action = fmt.Sprintf("Reused existing ticket %s (duplicate delivery)", existing)
		res.TicketCreated = existing
		return res
	}

	created, err := d.client.CreateTicket(ctx, d.cfg, tracker.CreateTicketInput{
		Summary:         args.Summary,
		Description:     args.Description,
		RichDescription: tracker.RenderDescription(args.Description),
		IssueType:       args.IssueType,
		Priority:        args.Priority,
		Assignee:        args.Assignee,
		Labels:          args.Labels,
		Components:      args.Components,
		SprintID:        args.SprintID,
		DueDate:         args.DueDate,
		Attachments:     d.attachments,
	})
	if err != nil {
		res.Err = err.Error()
		return res
	}

	d.client.RememberDedupe(ctx, d.cfg, fingerprint, created.Key)

	res.Content = marshalContent(created)
	res.Action = fmt.Sprintf("Created ticket %s: %s", created.Key, args.Summary)
	res.TicketCreated = created.Key
	return res
}

type modifyTicketArgs struct {
	Key              string `json:"key"`
	Summary          string `json:"summary"`
	Description      string `json:"description"`
	Status           string `json:"status"`
	Assignee         string `json:"assignee"`
	Comment          string `json:"comment"`
	SprintID         int    `json:"sprint_id"`
	DueDate          string `json:"due_date"`
	AttachEmailFiles bool   `json:"attach_email_files"`
}

func (d *Dispatcher) runModifyTicket(ctx context.Context, raw string, res Result) Result {
	var args modifyTicketArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		res.Err = "invalid arguments: " + err.Error()
		return res
	}
	if strings.TrimSpace(args.Key) == "" {
		res.Err = "key is required"
		return res
	}
	if !d.features.SprintSupport {
		args.SprintID = 0
		args.DueDate = ""
	}

	in := tracker.UpdateTicketInput{
		Summary:     args.Summary,
		Description: args.Description,
		Status:      args.Status,
		Assignee:    args.Assignee,
		Comment:     args.Comment,
		SprintID:    args.SprintID,
		DueDate:     args.DueDate,
	}
	if args.AttachEmailFiles {
		in.Attachments = d.attachments
	}

	if err := d.client.UpdateTicket(ctx, d.cfg, args.Key, in); err != nil {
		res.Err = err.Error()
		return res
	}

	var changed []string
	for field, set := range map[string]bool{
		"summary":     args.Summary != "",
		"description": args.Description != "",
		"status":      args.Status != "",
		"assignee":    args.Assignee != "",
		"comment":     args.Comment != "",
		"sprint":      args.SprintID != 0,
		"due date":    args.DueDate != "",
		"attachments": args.AttachEmailFiles,
	} {
		if set {
			changed = append(changed, field)
		}
	}

	res.Content = marshalContent(map[string]any{
		"key":     args.Key,
		"updated": true,
	})
	res.Action = fmt.Sprintf("Updated ticket %s (%s)", args.Key, strings.Join(changed, ", "))
	res.TicketModified = args.Key
	return res
}

type getSprintsArgs struct {
	State string `json:"state"`
}

func (d *Dispatcher) runGetSprints(ctx context.Context, raw string, res Result) Result {
	var args getSprintsArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		res.Err = "invalid arguments: " + err.Error()
		return res
	}

	sprints, err := d.client.GetSprints(ctx, d.cfg, args.State)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	res.Content = marshalContent(map[string]any{
		"count":   len(sprints),
		"sprints": sprints,
	})
	res.Action = fmt.Sprintf("Listed %d sprints", len(sprints))
	return res
}

func (d *Dispatcher) runGetActiveSprint(ctx context.Context, res Result) Result {
	sprint, err := d.client.GetActiveSprint(ctx, d.cfg)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	res.Content = marshalContent(map[string]any{"sprint": sprint})
	if sprint != nil {
		res.Action = fmt.Sprintf("Found active sprint %q", sprint.Name)
	} else {
		res.Action = "No active sprint"
	}
	return res
}

type getUserWorkloadArgs struct {
	AccountIDs        []string `json:"account_ids"`
	IncludeInProgress bool     `json:"include_in_progress"`
}

func (d *Dispatcher) runGetUserWorkload(ctx context.Context, raw string, res Result) Result {
	var args getUserWorkloadArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		res.Err = "invalid arguments: " + err.Error()
		return res
	}
	if len(args.AccountIDs) == 0 {
		res.Err = "account_ids is required"
		return res
	}

	workloads, err := d.client.GetUserWorkloads(ctx, d.cfg, args.AccountIDs, args.IncludeInProgress)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	res.Content = marshalContent(map[string]any{"workloads": workloads})
	res.Action = fmt.Sprintf("Checked workload for %d users", len(args.AccountIDs))
	return res
}

type getProjectUsersArgs struct {
	Role       string `json:"role"`
	ActiveOnly *bool  `json:"active_only"`
}

func (d *Dispatcher) runGetProjectUsers(ctx context.Context, raw string, res Result) Result {
	var args getProjectUsersArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		res.Err = "invalid arguments: " + err.Error()
		return res
	}
	activeOnly := true
	if args.ActiveOnly != nil {
		activeOnly = *args.ActiveOnly
	}

	users, err := d.client.GetProjectUsers(ctx, d.cfg, args.Role, activeOnly)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	res.Content = marshalContent(map[string]any{
		"count": len(users),
		"users": users,
	})
	res.Action = fmt.Sprintf("Listed %d project users", len(users))
	return res
}

func (d *Dispatcher) fingerprint(summary string) string {
	h := sha256.Sum256([]byte(d.messageID + "|" + summary))
	return hex.EncodeToString(h[:8])
}

// sanitizeArguments trims top-level string values before parsing. Non-JSON
// payloads are returned unchanged so the per-tool parse reports the error.
func sanitizeArguments(arguments string) string {
	if strings.TrimSpace(arguments) == "" {
		return "{}"
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			m[k] = strings.TrimSpace(s)
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return arguments
	}
	return string(b)
}

func marshalContent(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to encode result: %v"}`, err)
	}
	return string(b)
}

func errorContent(message, tool string) string {
	return marshalContent(map[string]string{
		"error": message,
		"tool":  tool,
	})
}
