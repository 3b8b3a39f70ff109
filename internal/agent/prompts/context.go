package prompts

import (
	"fmt"
	"strings"

	"github.com/inboxagent/server/internal/agent/model"
)

// RenderUserContext restates the email and its derived signals as the run's
// user message. The HTML rendering passed in already carries embedded-image
// placeholders from attachment normalization.
func RenderUserContext(email model.EmailInput, htmlText string, attachments []model.NormalizedAttachment, signals model.ClassificationSignals) string {
	var b strings.Builder

	b.WriteString("Process this email:\n\n")
	fmt.Fprintf(&b, "From: %s\n", email.From)
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	if !email.ReceivedAt.IsZero() {
		fmt.Fprintf(&b, "Received: %s\n", email.ReceivedAt.Format("2006-01-02 15:04 MST"))
	}
	b.WriteString("\nBody:\n")
	b.WriteString(strings.TrimSpace(email.TextBody))
	b.WriteString("\n")

	if htmlText != "" && htmlText != strings.TrimSpace(email.TextBody) {
		b.WriteString("\nHTML body (rendered):\n")
		b.WriteString(htmlText)
		b.WriteString("\n")
	}

	writeAttachments(&b, attachments)
	writeSignals(&b, signals)

	return b.String()
}

func writeAttachments(b *strings.Builder, attachments []model.NormalizedAttachment) {
	if len(attachments) == 0 {
		return
	}
	fmt.Fprintf(b, "\nAttachments (%d):\n", len(attachments))
	for _, att := range attachments {
		kind := "file"
		if att.Embedded {
			kind = "embedded image"
		}
		fmt.Fprintf(b, "- %s (%s, %s)\n", att.Name, att.ContentType, kind)
	}
}

func writeSignals(b *strings.Builder, signals model.ClassificationSignals) {
	b.WriteString("\nClassification signals:\n")
	fmt.Fprintf(b, "- Detected type: %s\n", signals.Type)
	if len(signals.PrioritySignals) > 0 {
		fmt.Fprintf(b, "- Priority signals: %s\n", strings.Join(signals.PrioritySignals, ", "))
	}
	if len(signals.Technologies) > 0 {
		fmt.Fprintf(b, "- Technologies mentioned: %s\n", strings.Join(signals.Technologies, ", "))
	}
	if len(signals.NameMentions) > 0 {
		fmt.Fprintf(b, "- People mentioned: %s\n", strings.Join(signals.NameMentions, ", "))
	}
	if signals.SenderDomain != "" {
		fmt.Fprintf(b, "- Sender domain: %s\n", signals.SenderDomain)
	}
}
