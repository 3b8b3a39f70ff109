// Package trace accumulates an append-only record of one processing run:
// what was classified, what the model decided, which tools ran, and how the
// run ended. It is purely observational: it never influences control flow
// and never panics, so a broken recorder cannot break a run.
package trace

import (
	"fmt"
	"strings"
	"time"

	"github.com/inboxagent/server/internal/agent/model"
	logx "github.com/inboxagent/server/pkg/logger"
)

// Decision is one timestamped entry in the decision timeline.
type Decision struct {
	At   time.Time
	Text string
}

// ToolCall is one entry in the tool-call timeline, grouped by round.
type ToolCall struct {
	Round     int
	Name      string
	Arguments string
	Err       string
	Duration  time.Duration
}

// Outcome holds the finalized run counters. Set exactly once.
type Outcome struct {
	Rounds          int
	TicketsCreated  int
	TicketsModified int
	TotalActions    int
	Duration        time.Duration
	Err             string
}

// Recorder owns the trace for a single run.
type Recorder struct {
	start     time.Time
	messageID string

	signals     model.ClassificationSignals
	hasSignals  bool
	attachTotal int
	attachEmbed int
	attachNames []string
	decisions   []Decision
	toolCalls   []ToolCall
	outcome     Outcome
	finalized   bool
	flushed     bool
}

func NewRecorder(messageID string) *Recorder {
	return &Recorder{
		start:     time.Now(),
		messageID: messageID,
	}
}

// Analysis records the classification bucket. First write wins.
func (r *Recorder) Analysis(signals model.ClassificationSignals) {
	if r == nil || r.hasSignals {
		return
	}
	r.signals = signals
	r.hasSignals = true
}

// Attachments records the attachment bucket. First write wins.
func (r *Recorder) Attachments(attachments []model.NormalizedAttachment) {
	if r == nil || r.attachTotal > 0 {
		return
	}
	for _, att := range attachments {
		r.attachTotal++
		if att.Embedded {
			r.attachEmbed++
		}
		r.attachNames = append(r.attachNames, att.Name)
	}
}

// Decision appends one human-readable decision to the timeline.
func (r *Recorder) Decision(format string, args ...any) {
	if r == nil {
		return
	}
	r.decisions = append(r.decisions, Decision{
		At:   time.Now(),
		Text: fmt.Sprintf(format, args...),
	})
}

// Tool appends one tool invocation to the timeline.
func (r *Recorder) Tool(round int, name, arguments, errText string, duration time.Duration) {
	if r == nil {
		return
	}
	r.toolCalls = append(r.toolCalls, ToolCall{
		Round:     round,
		Name:      name,
		Arguments: arguments,
		Err:       errText,
		Duration:  duration,
	})
}

// Finalize sets the outcome counters exactly once; later calls are ignored.
func (r *Recorder) Finalize(out Outcome) {
	if r == nil || r.finalized {
		return
	}
	if out.Duration == 0 {
		out.Duration = time.Since(r.start)
	}
	r.outcome = out
	r.finalized = true
}

// Render builds the human-readable run report.
func (r *Recorder) Render() string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("=== Email Processing Trace ===\n")
	fmt.Fprintf(&b, "Message: %s\n", r.messageID)

	if r.hasSignals {
		fmt.Fprintf(&b, "Classified as: %s\n", r.signals.Type)
		if len(r.signals.PrioritySignals) > 0 {
			fmt.Fprintf(&b, "Priority signals: %s\n", strings.Join(r.signals.PrioritySignals, ", "))
		}
		if len(r.signals.Technologies) > 0 {
			fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(r.signals.Technologies, ", "))
		}
		if len(r.signals.NameMentions) > 0 {
			fmt.Fprintf(&b, "Name mentions: %s\n", strings.Join(r.signals.NameMentions, ", "))
		}
	}

	if r.attachTotal > 0 {
		fmt.Fprintf(&b, "Attachments: %d (%d embedded): %s\n",
			r.attachTotal, r.attachEmbed, strings.Join(r.attachNames, ", "))
	}

	if len(r.decisions) > 0 {
		b.WriteString("Decisions:\n")
		for _, d := range r.decisions {
			fmt.Fprintf(&b, "  [%s] %s\n", d.At.Format("15:04:05.000"), d.Text)
		}
	}

	if len(r.toolCalls) > 0 {
		b.WriteString("Tool calls:\n")
		round := -1
		for _, tc := range r.toolCalls {
			if tc.Round != round {
				round = tc.Round
				fmt.Fprintf(&b, "  Round %d:\n", round)
			}
			status := "ok"
			if tc.Err != "" {
				status = "error: " + tc.Err
			}
			fmt.Fprintf(&b, "    %s (%s) %s\n", tc.Name, tc.Duration.Round(time.Millisecond), status)
		}
	}

	if r.finalized {
		fmt.Fprintf(&b, "Outcome: rounds=%d actions=%d created=%d modified=%d duration=%s",
			r.outcome.Rounds, r.outcome.TotalActions, r.outcome.TicketsCreated,
			r.outcome.TicketsModified, r.outcome.Duration.Round(time.Millisecond))
		if r.outcome.Err != "" {
			fmt.Fprintf(&b, " error=%q", r.outcome.Err)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Flush writes the rendered report to the log exactly once.
func (r *Recorder) Flush() {
	if r == nil || r.flushed {
		return
	}
	r.flushed = true

	logger := logx.With("trace")
	event := logger.Info()
	if r.finalized && r.outcome.Err != "" {
		event = logger.Error()
	}
	event.Str("message_id", r.messageID).Msg(r.Render())
}
