package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/inboxagent/server/internal/agent/model"
)

func TestRecorderRender(t *testing.T) {
	r := NewRecorder("<msg-1@test>")
	r.Analysis(model.ClassificationSignals{
		Type:            model.EmailTypeInfrastructure,
		PrioritySignals: []string{"highest: down"},
		Technologies:    []string{"postgres"},
	})
	r.Attachments([]model.NormalizedAttachment{
		{Name: "screenshot.png", Embedded: true},
		{Name: "log.txt"},
	})
	r.Decision("Model (round %d): searching first", 1)
	r.Tool(1, "read_tickets", "{}", "", 12*time.Millisecond)
	r.Tool(2, "create_ticket", `{"summary":"x"}`, "summary is required", 3*time.Millisecond)
	r.Finalize(Outcome{Rounds: 2, TotalActions: 2, Duration: time.Second})

	out := r.Render()
	assert.Contains(t, out, "Message: <msg-1@test>")
	assert.Contains(t, out, "Classified as: infrastructure")
	assert.Contains(t, out, "Priority signals: highest: down")
	assert.Contains(t, out, "Attachments: 2 (1 embedded): screenshot.png, log.txt")
	assert.Contains(t, out, "Model (round 1): searching first")
	assert.Contains(t, out, "Round 1:")
	assert.Contains(t, out, "Round 2:")
	assert.Contains(t, out, "error: summary is required")
	assert.Contains(t, out, "Outcome: rounds=2 actions=2")
}

func TestRecorderFirstWriteWins(t *testing.T) {
	r := NewRecorder("<msg-2@test>")
	r.Analysis(model.ClassificationSignals{Type: model.EmailTypeBug})
	r.Analysis(model.ClassificationSignals{Type: model.EmailTypeFeature})

	assert.Contains(t, r.Render(), "Classified as: bug")
}

func TestRecorderFinalizeOnce(t *testing.T) {
	r := NewRecorder("<msg-3@test>")
	r.Finalize(Outcome{Rounds: 1, Err: "model turn 1: boom"})
	r.Finalize(Outcome{Rounds: 9})

	out := r.Render()
	assert.Contains(t, out, "rounds=1")
	assert.Contains(t, out, `error="model turn 1: boom"`)
	assert.NotContains(t, out, "rounds=9")
}

func TestRecorderNilSafe(t *testing.T) {
	var r *Recorder
	r.Analysis(model.ClassificationSignals{})
	r.Attachments(nil)
	r.Decision("ignored")
	r.Tool(1, "x", "", "", 0)
	r.Finalize(Outcome{})
	r.Flush()
	assert.Equal(t, "", r.Render())
}

func TestRecorderFlushOnce(t *testing.T) {
	r := NewRecorder("<msg-4@test>")
	r.Finalize(Outcome{Rounds: 1})
	r.Flush()
	r.Flush() // second call is a no-op

	assert.True(t, r.flushed)
}
