package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxagent/server/internal/agent/model"
	"github.com/inboxagent/server/internal/agent/tracker"
)

// scriptedModel plays back a fixed sequence of assistant turns and records
// everything the orchestrator hands it.
type scriptedModel struct {
	turns     []*schema.Message
	turn      int
	catalog   []*schema.ToolInfo
	histories [][]*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	snapshot := make([]*schema.Message, len(in))
	copy(snapshot, in)
	m.histories = append(m.histories, snapshot)

	if m.turn >= len(m.turns) {
		return nil, fmt.Errorf("unexpected model turn %d", m.turn+1)
	}
	out := m.turns[m.turn]
	m.turn++
	return out, nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	m.catalog = tools
	return m, nil
}

func assistantTurn(calls ...schema.ToolCall) *schema.Message {
	return &schema.Message{Role: schema.Assistant, ToolCalls: calls}
}

func finalTurn(content string) *schema.Message {
	return &schema.Message{Role: schema.Assistant, Content: content}
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Function: schema.FunctionCall{Name: name, Arguments: args}}
}

func demoResolver() DemoResolver {
	return DemoResolver{
		Client: tracker.WithCache(tracker.NewMemoryClient(), tracker.NoopCache{}, 0),
		Config: tracker.Config{Site: "demo", ProjectKey: "DEMO"},
	}
}

func newTestProcessor(t *testing.T, m *scriptedModel, agent model.AgentConfig, resolver TrackerResolver) *Processor {
	t.Helper()
	p, err := New(Config{
		Agent:    agent,
		Tracker:  model.TrackerConfig{LookbackDays: 7},
		Model:    m,
		Resolver: resolver,
	})
	require.NoError(t, err)
	return p
}

func sampleEmail() model.EmailInput {
	return model.EmailInput{
		From:      "Dana Fields <dana@customer.example>",
		Subject:   "Server is down!!",
		TextBody:  "urgent, production outage since 09:40 UTC",
		MessageID: "<outage-1@customer.example>",
		Tenant:    &model.Tenant{Demo: true},
	}
}

func TestProcessMultiRoundRun(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn(
			toolCall("c1", "get_current_period", "{}"),
			toolCall("c2", "read_tickets", `{"search_text":"outage"}`),
		),
		assistantTurn(
			toolCall("c3", "create_ticket",
				`{"summary":"Production outage: API down","description":"502 on every request","issue_type":"Incident","priority":"Highest"}`),
		),
		finalTurn("Created DEMO-101 for the production outage."),
	}}
	p := newTestProcessor(t, m, model.AgentConfig{MaxRounds: 5}, demoResolver())

	result, err := p.Process(context.Background(), sampleEmail())
	require.NoError(t, err)

	assert.Equal(t, "Created DEMO-101 for the production outage.", result.Summary)
	assert.Equal(t, []string{"DEMO-101"}, result.TicketsCreated)
	assert.Empty(t, result.TicketsModified)
	assert.Empty(t, result.Error)
	require.Len(t, result.Actions, 3)
	assert.Equal(t, "Checked current period", result.Actions[0])
	assert.Contains(t, result.Actions[1], "Searched tickets")
	assert.Equal(t, "Created ticket DEMO-101: Production outage: API down", result.Actions[2])

	// Three model turns, each seeing the full history so far.
	require.Len(t, m.histories, 3)
	assert.Equal(t, schema.System, m.histories[0][0].Role)
	assert.Equal(t, schema.User, m.histories[0][1].Role)

	// Round-1 results are folded back in call order before round 2.
	second := m.histories[1]
	require.Len(t, second, 5)
	assert.Equal(t, schema.Assistant, second[2].Role)
	assert.Equal(t, "c1", second[3].ToolCallID)
	assert.Equal(t, "get_current_period", second[3].ToolName)
	assert.Equal(t, "c2", second[4].ToolCallID)
}

func TestProcessMaxRoundsTermination(t *testing.T) {
	// Every turn wants more tool work; the budget cuts the run off after two
	// rounds while keeping everything done so far.
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn(toolCall("c1", "create_ticket", `{"summary":"First issue","issue_type":"Bug"}`)),
		assistantTurn(toolCall("c2", "modify_ticket", `{"key":"DEMO-42","status":"Done"}`)),
	}}
	p := newTestProcessor(t, m, model.AgentConfig{MaxRounds: 2}, demoResolver())

	result, err := p.Process(context.Background(), sampleEmail())
	require.NoError(t, err)

	assert.Equal(t, 2, m.turn)
	assert.Equal(t, []string{"DEMO-101"}, result.TicketsCreated)
	assert.Equal(t, []string{"DEMO-42"}, result.TicketsModified)
	assert.Len(t, result.Actions, 2)
	assert.Empty(t, result.Error)
	assert.Contains(t, result.Summary, "2 actions taken")
}

func TestProcessUnknownToolContinues(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn(
			toolCall("c1", "make_coffee", "{}"),
			toolCall("c2", "read_tickets", "{}"),
		),
		finalTurn("Searched recent tickets; nothing to do."),
	}}
	p := newTestProcessor(t, m, model.AgentConfig{MaxRounds: 5}, demoResolver())

	result, err := p.Process(context.Background(), sampleEmail())
	require.NoError(t, err)

	assert.Contains(t, result.Actions, "Error with make_coffee: Unknown tool: make_coffee")
	assert.Empty(t, result.Error)

	// The error envelope goes back to the model as a tool message.
	second := m.histories[1]
	require.Len(t, second, 5)
	assert.Equal(t, schema.Tool, second[3].Role)
	assert.Contains(t, second[3].Content, "Unknown tool: make_coffee")
	assert.Contains(t, second[3].Content, `"tool":"make_coffee"`)
}

func TestProcessSynthesizesToolCallIDs(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn(
			toolCall("", "get_current_period", "{}"),
			toolCall("", "read_tickets", "{}"),
		),
		finalTurn("Done."),
	}}
	p := newTestProcessor(t, m, model.AgentConfig{MaxRounds: 5}, demoResolver())

	_, err := p.Process(context.Background(), sampleEmail())
	require.NoError(t, err)

	second := m.histories[1]
	require.Len(t, second, 5)
	assert.Equal(t, "call_1", second[3].ToolCallID)
	assert.Equal(t, "call_2", second[4].ToolCallID)
}

func TestProcessWithoutTracker(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		finalTurn("No tracker is connected; summarized only."),
	}}
	p := newTestProcessor(t, m, model.AgentConfig{MaxRounds: 5}, DemoResolver{})

	result, err := p.Process(context.Background(), sampleEmail())
	require.NoError(t, err)

	assert.Equal(t, "No tracker is connected; summarized only.", result.Summary)
	assert.Empty(t, result.TicketsCreated)

	// Only the time tool is offered when no integration resolves.
	require.Len(t, m.catalog, 1)
	assert.Equal(t, "get_current_period", m.catalog[0].Name)
}

func TestProcessNonDemoTenantGetsNoTracker(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		finalTurn("Summarized without tracker access."),
	}}
	p := newTestProcessor(t, m, model.AgentConfig{MaxRounds: 5}, demoResolver())

	email := sampleEmail()
	email.Tenant = &model.Tenant{UserID: "u-1"}

	result, err := p.Process(context.Background(), email)
	require.NoError(t, err)

	// The demo binding never leaks to real tenants.
	assert.Empty(t, result.TicketsCreated)
	require.Len(t, m.catalog, 1)
	assert.Equal(t, "get_current_period", m.catalog[0].Name)
}

func TestProcessSummaryFallback(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn(toolCall("c1", "get_current_period", "{}")),
		finalTurn(""),
	}}
	p := newTestProcessor(t, m, model.AgentConfig{MaxRounds: 5}, demoResolver())

	result, err := p.Process(context.Background(), sampleEmail())
	require.NoError(t, err)
	assert.Equal(t, `Processed email "Server is down!!": 1 actions taken`, result.Summary)
}

func TestProcessModelFailure(t *testing.T) {
	m := &scriptedModel{} // no turns scripted, first Generate fails
	p := newTestProcessor(t, m, model.AgentConfig{MaxRounds: 5}, demoResolver())

	result, err := p.Process(context.Background(), sampleEmail())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.Error, "model turn 1")
}

func TestProcessDuplicateTicketKeysCollapse(t *testing.T) {
	m := &scriptedModel{turns: []*schema.Message{
		assistantTurn(
			toolCall("c1", "modify_ticket", `{"key":"DEMO-42","comment":"first"}`),
			toolCall("c2", "modify_ticket", `{"key":"DEMO-42","comment":"second"}`),
		),
		finalTurn("Updated DEMO-42 twice."),
	}}
	p := newTestProcessor(t, m, model.AgentConfig{MaxRounds: 5}, demoResolver())

	result, err := p.Process(context.Background(), sampleEmail())
	require.NoError(t, err)

	assert.Equal(t, []string{"DEMO-42"}, result.TicketsModified)
	assert.Len(t, result.Actions, 2)
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
