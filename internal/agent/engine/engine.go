// Package engine runs the bounded tool-calling conversation that turns one
// inbound email into tracker actions. Each run is sequential: one model
// invocation per round, then every requested tool in request order, results
// folded back before the next round. The loop terminates when the model
// stops requesting tools, when a round yields no recorded actions, or when
// the round budget is exhausted.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/inboxagent/server/internal/agent/extract"
	"github.com/inboxagent/server/internal/agent/model"
	"github.com/inboxagent/server/internal/agent/prompts"
	"github.com/inboxagent/server/internal/agent/tools"
	"github.com/inboxagent/server/internal/agent/tracker"
	"github.com/inboxagent/server/internal/agent/trace"
	logx "github.com/inboxagent/server/pkg/logger"
)

const defaultMaxRounds = 5

// Config assembles a Processor.
type Config struct {
	Agent    model.AgentConfig
	Features model.FeatureConfig
	Tracker  model.TrackerConfig
	Model    einomodel.ToolCallingChatModel
	Resolver TrackerResolver
}

// Processor is the conversation orchestrator. It holds no per-run state, so
// one instance serves any number of concurrent queue workers.
type Processor struct {
	agent    model.AgentConfig
	features model.FeatureConfig
	tracker  model.TrackerConfig
	model    einomodel.ToolCallingChatModel
	resolver TrackerResolver
}

func New(cfg Config) (*Processor, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	if cfg.Agent.MaxRounds <= 0 {
		cfg.Agent.MaxRounds = defaultMaxRounds
	}
	return &Processor{
		agent:    cfg.Agent,
		features: cfg.Features,
		tracker:  cfg.Tracker,
		model:    cfg.Model,
		resolver: cfg.Resolver,
	}, nil
}

// Process runs one email through the conversation loop. The result is
// always non-nil; a non-nil error means the run itself failed (model
// transport, tool binding) and the queue should redeliver. Tool-level
// failures never surface here; they live inside the result's actions.
func (p *Processor) Process(ctx context.Context, email model.EmailInput) (*model.EmailProcessingResult, error) {
	start := time.Now()
	rec := trace.NewRecorder(email.MessageID)
	defer rec.Flush()

	result := &model.EmailProcessingResult{}

	signals := extract.Signals(email.Subject, email.TextBody, email.From)
	rec.Analysis(signals)

	htmlBody, attachments := extract.NormalizeAttachments(email.HTMLBody, email.Attachments)
	rec.Attachments(attachments)

	client, trackerCfg, trackerAvailable := p.resolveTracker(ctx, email.Tenant, rec)

	roster := p.loadRoster(ctx, client, trackerCfg, trackerAvailable)

	dispatcher := tools.NewDispatcher(tools.DispatcherConfig{
		Client:       client,
		Tracker:      trackerCfg,
		Features:     p.features,
		LookbackDays: p.tracker.LookbackDays,
		MessageID:    email.MessageID,
		Attachments:  attachments,
	})

	catalog := tools.Catalog(p.features, trackerAvailable)
	bound, err := p.model.WithTools(catalog)
	if err != nil {
		return p.fail(rec, result, start, 0, fmt.Errorf("bind tool catalog: %w", err))
	}

	history := []*schema.Message{
		schema.SystemMessage(prompts.RenderSystem(p.features, trackerAvailable, roster)),
		schema.UserMessage(prompts.RenderUserContext(email, extract.RenderHTMLText(htmlBody), attachments, signals)),
	}

	toolCallSeq := 0
	rounds := 0

	for round := 1; ; round++ {
		rounds = round

		out, err := bound.Generate(ctx, history)
		if err != nil {
			return p.fail(rec, result, start, round, fmt.Errorf("model turn %d: %w", round, err))
		}

		if content := strings.TrimSpace(out.Content); content != "" {
			// Provisional summary; a later round's text overwrites it.
			result.Summary = content
			rec.Decision("Model (round %d): %s", round, content)
		}

		if len(out.ToolCalls) == 0 {
			rec.Decision("Conversation completed after %d rounds", round)
			break
		}

		// Some providers omit tool-call IDs; synthesize them so result
		// messages can be tagged to their originating call.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				toolCallSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", toolCallSeq)
			}
		}

		history = append(history, out)

		roundActions := 0
		for _, call := range out.ToolCalls {
			res := dispatcher.Dispatch(ctx, call)
			rec.Tool(round, call.Function.Name, call.Function.Arguments, res.Err, res.Duration)

			if res.Action != "" {
				result.Actions = append(result.Actions, res.Action)
				roundActions++
			}
			if res.TicketCreated != "" {
				result.TicketsCreated = appendUnique(result.TicketsCreated, res.TicketCreated)
			}
			if res.TicketModified != "" {
				result.TicketsModified = appendUnique(result.TicketsModified, res.TicketModified)
			}

			history = append(history, &schema.Message{
				Role:       schema.Tool,
				Content:    res.Content,
				ToolCallID: call.ID,
				ToolName:   call.Function.Name,
			})
		}

		if round >= p.agent.MaxRounds {
			rec.Decision("Max rounds reached (%d); stopping with work done so far", p.agent.MaxRounds)
			logx.Warn().
				Str("message_id", email.MessageID).
				Int("max_rounds", p.agent.MaxRounds).
				Msg("Round budget exhausted")
			break
		}
		if roundActions == 0 {
			rec.Decision("Round %d produced no actions; stopping", round)
			break
		}
	}

	if result.Summary == "" {
		result.Summary = fmt.Sprintf("Processed email %q: %d actions taken", email.Subject, len(result.Actions))
	}

	rec.Finalize(trace.Outcome{
		Rounds:          rounds,
		TicketsCreated:  len(result.TicketsCreated),
		TicketsModified: len(result.TicketsModified),
		TotalActions:    len(result.Actions),
		Duration:        time.Since(start),
	})

	return result, nil
}

// resolveTracker degrades to the tracker-less catalog on any resolution
// problem; missing configuration is never fatal to a run.
func (p *Processor) resolveTracker(ctx context.Context, tenant *model.Tenant, rec *trace.Recorder) (*tracker.CachedClient, tracker.Config, bool) {
	if p.resolver == nil {
		rec.Decision("No tracker resolver configured; running without tracker tools")
		return nil, tracker.Config{}, false
	}

	client, cfg, err := p.resolver.Resolve(ctx, tenant)
	if err != nil {
		if errors.Is(err, ErrNoIntegration) {
			rec.Decision("No tracker integration for this tenant")
		} else {
			logx.Warn().Err(err).Msg("Tracker resolution failed")
			rec.Decision("Tracker resolution failed: %v", err)
		}
		return nil, tracker.Config{}, false
	}
	return client, cfg, client != nil
}

// loadRoster fetches assignable users for the system prompt when smart
// assignment is on. Failure only drops the roster section.
func (p *Processor) loadRoster(ctx context.Context, client *tracker.CachedClient, cfg tracker.Config, available bool) []tracker.User {
	if !available || !p.features.SmartAssignment {
		return nil
	}
	users, err := client.GetProjectUsers(ctx, cfg, "", true)
	if err != nil {
		logx.Warn().Err(err).Msg("Could not load assignable users; omitting roster from prompt")
		return nil
	}
	return users
}

func (p *Processor) fail(rec *trace.Recorder, result *model.EmailProcessingResult, start time.Time, rounds int, err error) (*model.EmailProcessingResult, error) {
	result.Error = err.Error()
	rec.Decision("Run failed: %v", err)
	rec.Finalize(trace.Outcome{
		Rounds:          rounds,
		TicketsCreated:  len(result.TicketsCreated),
		TicketsModified: len(result.TicketsModified),
		TotalActions:    len(result.Actions),
		Duration:        time.Since(start),
		Err:             err.Error(),
	})
	return result, err
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
