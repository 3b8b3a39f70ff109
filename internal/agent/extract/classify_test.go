package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxagent/server/internal/agent/model"
)

func TestDetectType(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		text string
		want model.EmailType
	}{
		{"crash report", "The app keeps crashing when I open settings", model.EmailTypeBug},
		{"feature wording", "It would be nice if you could add dark mode", model.EmailTypeFeature},
		{"support question", "How do I reset my password?", model.EmailTypeSupport},
		{"outage", "Production outage since this morning", model.EmailTypeInfrastructure},
		{"no keywords", "Thanks for the great demo last week", model.EmailTypeGeneral},
		{"case insensitive", "URGENT: SERVER problems", model.EmailTypeInfrastructure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectType(tc.text))
		})
	}
}

func TestDetectTypeOrderWins(t *testing.T) {
	t.Parallel()
	// Bug keywords take precedence over infrastructure keywords when both hit.
	got := DetectType("The server keeps throwing an error on login")
	assert.Equal(t, model.EmailTypeBug, got)
}

func TestPrioritySignals(t *testing.T) {
	t.Parallel()
	hits := PrioritySignals("URGENT: the server is down, this is blocking the team")

	assert.Contains(t, hits, "highest: urgent")
	assert.Contains(t, hits, "highest: down")
	assert.Contains(t, hits, "high: blocking")
}

func TestPrioritySignalsEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, PrioritySignals("just checking in about the roadmap"))
}

func TestTechnologies(t *testing.T) {
	t.Parallel()
	found := Technologies("We run Postgres behind Kubernetes and the React frontend talks to it")

	assert.Contains(t, found, "postgres")
	assert.Contains(t, found, "kubernetes")
	assert.Contains(t, found, "react")
	assert.NotContains(t, found, "redis")
}

func TestNameMentions(t *testing.T) {
	t.Parallel()
	text := "Please assign to Sam Carter. @maria should review, and Sam Carter can deploy."
	names := NameMentions(text)

	assert.Contains(t, names, "maria")
	assert.Contains(t, names, "Sam Carter")

	// Duplicates collapse to a single entry.
	count := 0
	for _, n := range names {
		if n == "Sam Carter" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSenderDomain(t *testing.T) {
	t.Parallel()
	cases := []struct {
		from string
		want string
	}{
		{"alice@example.com", "example.com"},
		{"Alice Smith <alice@Example.COM>", "example.com"},
		{"not-an-address", ""},
		{"trailing@", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SenderDomain(tc.from), "from=%q", tc.from)
	}
}

func TestSignalsDeterministic(t *testing.T) {
	t.Parallel()
	subject := "Urgent: API errors in production"
	body := "Since the deploy the API throws 500s. Postgres looks fine. Ping @sam."
	from := "Dana Fields <dana@customer.example>"

	first := Signals(subject, body, from)
	second := Signals(subject, body, from)

	require.Equal(t, first, second)
	assert.Equal(t, model.EmailTypeBug, first.Type)
	assert.Equal(t, "customer.example", first.SenderDomain)
	assert.Contains(t, first.PrioritySignals, "highest: urgent")
	assert.Contains(t, first.Technologies, "postgres")
	assert.Contains(t, first.NameMentions, "sam")
}
