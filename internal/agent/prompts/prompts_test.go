package prompts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/inboxagent/server/internal/agent/model"
	"github.com/inboxagent/server/internal/agent/tracker"
)

func TestRenderSystemTrackerWorkflow(t *testing.T) {
	out := RenderSystem(model.FeatureConfig{}, true, nil)

	assert.Contains(t, out, "Search recent tickets with read_tickets before creating anything")
	assert.NotContains(t, out, "No issue tracker integration")
	assert.NotContains(t, out, "{workflow_section}")
	assert.NotContains(t, out, "{roster_section}")
}

func TestRenderSystemWithoutTracker(t *testing.T) {
	out := RenderSystem(model.FeatureConfig{}, false, nil)

	assert.Contains(t, out, "No issue tracker integration is configured")
	assert.NotContains(t, out, "create_ticket")
}

func TestRenderSystemRosterGating(t *testing.T) {
	roster := []tracker.User{
		{AccountID: "u1", DisplayName: "Alex Rivera"},
		{AccountID: "u2", DisplayName: "Sam Chen"},
	}

	// Roster requires both the flag and at least one resolved user.
	out := RenderSystem(model.FeatureConfig{SmartAssignment: true}, true, roster)
	assert.Contains(t, out, "Assignable users:")
	assert.Contains(t, out, "Alex Rivera (account id: u1)")

	out = RenderSystem(model.FeatureConfig{}, true, roster)
	assert.NotContains(t, out, "Assignable users:")

	out = RenderSystem(model.FeatureConfig{SmartAssignment: true}, true, nil)
	assert.NotContains(t, out, "Assignable users:")
}

func TestRenderUserContext(t *testing.T) {
	email := model.EmailInput{
		From:       "Dana Fields <dana@customer.example>",
		Subject:    "Server is down!!",
		TextBody:   "urgent, production outage",
		ReceivedAt: time.Date(2026, 3, 14, 9, 40, 0, 0, time.UTC),
	}
	attachments := []model.NormalizedAttachment{
		{Name: "screenshot.png", ContentType: "image/png", Embedded: true},
		{Name: "trace.log", ContentType: "text/plain"},
	}
	signals := model.ClassificationSignals{
		Type:            model.EmailTypeInfrastructure,
		PrioritySignals: []string{"highest: urgent", "highest: down"},
		SenderDomain:    "customer.example",
	}

	out := RenderUserContext(email, "", attachments, signals)

	assert.Contains(t, out, "From: Dana Fields <dana@customer.example>")
	assert.Contains(t, out, "Subject: Server is down!!")
	assert.Contains(t, out, "Received: 2026-03-14 09:40 UTC")
	assert.Contains(t, out, "urgent, production outage")
	assert.Contains(t, out, "- screenshot.png (image/png, embedded image)")
	assert.Contains(t, out, "- trace.log (text/plain, file)")
	assert.Contains(t, out, "- Detected type: infrastructure")
	assert.Contains(t, out, "- Priority signals: highest: urgent, highest: down")
	assert.Contains(t, out, "- Sender domain: customer.example")
	assert.NotContains(t, out, "HTML body")
}

func TestRenderUserContextHTMLSection(t *testing.T) {
	email := model.EmailInput{
		From:     "lee@customer.example",
		Subject:  "Screenshot attached",
		TextBody: "see attached",
	}

	out := RenderUserContext(email, "See below: [Embedded Image: screenshot.png]", nil, model.ClassificationSignals{Type: model.EmailTypeGeneral})

	assert.Contains(t, out, "HTML body (rendered):")
	assert.Contains(t, out, "[Embedded Image: screenshot.png]")

	// Identical HTML rendering is omitted rather than repeated.
	out = RenderUserContext(email, "see attached", nil, model.ClassificationSignals{Type: model.EmailTypeGeneral})
	assert.NotContains(t, out, "HTML body (rendered):")
}
