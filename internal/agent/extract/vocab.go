package extract

import (
	"regexp"

	"github.com/inboxagent/server/internal/agent/model"
)

// Keyword tables live here, outside any orchestration code, so the
// extractor's behavior can be tuned and tested independently.

// typeRule pairs an email type with the keywords that select it.
type typeRule struct {
	Type     model.EmailType
	Keywords []string
}

// typeRules is evaluated in order; the first rule with a keyword hit wins.
var typeRules = []typeRule{
	{
		Type: model.EmailTypeBug,
		Keywords: []string{
			"bug", "error", "crash", "broken", "exception", "fails",
			"failure", "not working", "doesn't work", "stack trace",
			"regression",
		},
	},
	{
		Type: model.EmailTypeFeature,
		Keywords: []string{
			"feature", "enhancement", "improvement", "request",
			"would be nice", "could you add", "suggestion", "proposal",
		},
	},
	{
		Type: model.EmailTypeSupport,
		Keywords: []string{
			"help", "support", "question", "how do i", "how to",
			"assistance", "guidance", "unable to",
		},
	},
	{
		Type: model.EmailTypeInfrastructure,
		Keywords: []string{
			"server", "outage", "down", "downtime", "infrastructure",
			"deployment", "deploy", "dns", "ssl", "certificate",
			"network", "latency", "disk", "memory leak",
		},
	},
}

// priorityTiers maps each tier to its keyword list. Hits are reported as
// "<tier>: <keyword>" and duplicates across tiers are preserved.
var priorityTiers = []struct {
	Tier     string
	Keywords []string
}{
	{
		Tier: "highest",
		Keywords: []string{
			"urgent", "critical", "emergency", "asap", "immediately",
			"down", "outage", "data loss", "security breach",
		},
	},
	{
		Tier: "high",
		Keywords: []string{
			"important", "priority", "blocker", "blocking", "soon",
			"production", "customers affected", "escalate",
		},
	},
	{
		Tier: "low",
		Keywords: []string{
			"minor", "trivial", "whenever", "low priority", "nice to have",
			"no rush", "eventually", "cosmetic",
		},
	},
}

// technologyVocabulary is matched case-insensitively as substrings.
// Entries are long enough to avoid accidental matches inside common words.
var technologyVocabulary = []string{
	"javascript", "typescript", "python", "java", "golang", "ruby", "rust",
	"react", "angular", "vue", "node.js", "nodejs", "django", "rails",
	"spring", "kubernetes", "docker", "terraform", "aws", "azure", "gcp",
	"postgres", "postgresql", "mysql", "mongodb", "redis", "kafka",
	"elasticsearch", "graphql", "rest api", "webhook", "oauth", "sso",
	"android", "ios", "linux", "nginx",
}

// Name-mention pattern families: @handles, capitalized first/last pairs,
// and explicit assignment phrasings.
var (
	handlePattern      = regexp.MustCompile(`@([A-Za-z][A-Za-z0-9_.-]*)`)
	capitalizedPattern = regexp.MustCompile(`\b([A-Z][a-z]+ [A-Z][a-z]+)\b`)
	assignmentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)assign (?:this |it )?to ([A-Za-z]+)`),
		regexp.MustCompile(`(?i)can ([A-Za-z]+) handle`),
		regexp.MustCompile(`(?i)([A-Za-z]+) should look at`),
	}
)
