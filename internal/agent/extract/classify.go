// Package extract derives classification signals from email text and
// normalizes attachments. Everything here is pure and deterministic:
// identical input always yields identical signals, and nothing performs I/O.
package extract

import (
	"strings"

	"github.com/inboxagent/server/internal/agent/model"
)

// Signals computes the full signal set for one email.
func Signals(subject, body, from string) model.ClassificationSignals {
	text := subject + "\n" + body
	return model.ClassificationSignals{
		Type:            DetectType(text),
		PrioritySignals: PrioritySignals(text),
		Technologies:    Technologies(text),
		NameMentions:    NameMentions(text),
		SenderDomain:    SenderDomain(from),
	}
}

// DetectType returns the first matching category in fixed priority order,
// falling back to "general" when no keyword hits.
func DetectType(text string) model.EmailType {
	lower := strings.ToLower(text)
	for _, rule := range typeRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Type
			}
		}
	}
	return model.EmailTypeGeneral
}

// PrioritySignals reports every keyword hit across the three tiers as
// "<tier>: <keyword>". A keyword appearing in multiple tiers yields one
// entry per tier.
func PrioritySignals(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, tier := range priorityTiers {
		for _, kw := range tier.Keywords {
			if strings.Contains(lower, kw) {
				hits = append(hits, tier.Tier+": "+kw)
			}
		}
	}
	return hits
}

// Technologies intersects the text with the fixed technology vocabulary,
// case-insensitively.
func Technologies(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, tech := range technologyVocabulary {
		if strings.Contains(lower, tech) {
			found = append(found, tech)
		}
	}
	return found
}

// NameMentions unions the three pattern families and deduplicates the
// result as a set, preserving first-seen order.
func NameMentions(text string) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		name = strings.Trim(strings.TrimSpace(name), ".-")
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, m := range handlePattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range capitalizedPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, re := range assignmentPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}
	return names
}

// SenderDomain extracts the domain part of the sender address, handling
// both bare addresses and "Name <addr>" forms.
func SenderDomain(from string) string {
	addr := from
	if start := strings.LastIndex(addr, "<"); start >= 0 {
		addr = addr[start+1:]
		if end := strings.Index(addr, ">"); end >= 0 {
			addr = addr[:end]
		}
	}
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(addr[at+1:]))
}
