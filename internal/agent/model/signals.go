package model

// EmailType is the closed set of categories the extractor can assign.
type EmailType string

const (
	EmailTypeBug            EmailType = "bug"
	EmailTypeFeature        EmailType = "feature"
	EmailTypeSupport        EmailType = "support"
	EmailTypeInfrastructure EmailType = "infrastructure"
	EmailTypeGeneral        EmailType = "general"
)

// ClassificationSignals holds the signals derived from subject/body text.
// Recomputed fresh for every run, never cached across emails.
type ClassificationSignals struct {
	Type            EmailType `json:"type"`
	PrioritySignals []string  `json:"priority_signals"`
	Technologies    []string  `json:"technologies"`
	NameMentions    []string  `json:"name_mentions"`
	SenderDomain    string    `json:"sender_domain"`
}
