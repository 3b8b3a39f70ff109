package extract

import (
	"strings"

	"github.com/inboxagent/server/internal/agent/model"
)

// NormalizeAttachments classifies raw attachments and rewrites HTML-embedded
// image references. An attachment counts as embedded when it carries a
// content-id, its content type starts with "image/", and the HTML body
// references it via "cid:<content-id>" (brackets stripped). Every cid
// occurrence is replaced with a "[Embedded Image: <name>]" placeholder; the
// rewrite is idempotent because processed HTML no longer contains the
// cid reference.
func NormalizeAttachments(htmlBody string, attachments []model.EmailAttachment) (string, []model.NormalizedAttachment) {
	if len(attachments) == 0 {
		return htmlBody, nil
	}

	normalized := make([]model.NormalizedAttachment, 0, len(attachments))
	for _, att := range attachments {
		na := model.NormalizedAttachment{
			Name:        att.Name,
			ContentType: att.ContentType,
			Content:     att.Content,
			ContentID:   att.ContentID,
		}

		cid := strings.Trim(att.ContentID, "<>")
		if cid != "" && strings.HasPrefix(att.ContentType, "image/") {
			ref := "cid:" + cid
			if strings.Contains(htmlBody, ref) {
				htmlBody = strings.ReplaceAll(htmlBody, ref, "[Embedded Image: "+att.Name+"]")
				na.Embedded = true
			}
		}

		normalized = append(normalized, na)
	}

	return htmlBody, normalized
}

// RenderHTMLText produces a text-safe rendering of an HTML body for prompt
// context: tags stripped, entities left alone, whitespace collapsed.
func RenderHTMLText(htmlBody string) string {
	if htmlBody == "" {
		return ""
	}

	var b strings.Builder
	inTag := false
	for _, r := range htmlBody {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
