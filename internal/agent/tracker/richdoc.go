package tracker

import (
	"encoding/json"
	"fmt"
	"strings"

	logx "github.com/inboxagent/server/pkg/logger"
)

// Rich-document (ADF-style) node shapes. Only the subset the agent emits:
// paragraphs, headings, bullet lists, and code blocks.

type docNode struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []docNode      `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
}

type richDocument struct {
	Version int       `json:"version"`
	Type    string    `json:"type"`
	Content []docNode `json:"content"`
}

// RenderDescription converts a markdown description into the tracker's
// rich-document format. Conversion failures fall back to a plain-text
// document with a warning; ticket creation always gets a usable body.
func RenderDescription(markdown string) json.RawMessage {
	doc, err := fromMarkdown(markdown)
	if err != nil {
		logx.Warn().Err(err).Msg("Markdown conversion failed; falling back to plain text document")
		return PlainDocument(stripMarkdown(markdown))
	}
	return doc
}

// PlainDocument wraps text in a single-paragraph rich document.
func PlainDocument(text string) json.RawMessage {
	doc := richDocument{
		Version: 1,
		Type:    "doc",
		Content: []docNode{paragraph(text)},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		// A document of plain strings cannot fail to marshal; keep a literal
		// empty doc as the absolute floor.
		return json.RawMessage(`{"version":1,"type":"doc","content":[]}`)
	}
	return b
}

func fromMarkdown(markdown string) (out json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("markdown conversion panic: %v", r)
		}
	}()

	var nodes []docNode
	lines := strings.Split(markdown, "\n")

	var para []string
	var list []docNode
	var code []string
	inCode := false

	flushPara := func() {
		if len(para) > 0 {
			nodes = append(nodes, paragraph(strings.Join(para, " ")))
			para = nil
		}
	}
	flushList := func() {
		if len(list) > 0 {
			nodes = append(nodes, docNode{Type: "bulletList", Content: list})
			list = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				nodes = append(nodes, docNode{
					Type:    "codeBlock",
					Content: []docNode{{Type: "text", Text: strings.Join(code, "\n")}},
				})
				code = nil
				inCode = false
			} else {
				flushPara()
				flushList()
				inCode = true
			}
			continue
		}
		if inCode {
			code = append(code, line)
			continue
		}

		switch {
		case trimmed == "":
			flushPara()
			flushList()
		case strings.HasPrefix(trimmed, "#"):
			flushPara()
			flushList()
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' {
				level++
			}
			if level > 6 {
				level = 6
			}
			nodes = append(nodes, docNode{
				Type:    "heading",
				Attrs:   map[string]any{"level": level},
				Content: []docNode{{Type: "text", Text: strings.TrimSpace(trimmed[level:])}},
			})
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flushPara()
			list = append(list, docNode{
				Type:    "listItem",
				Content: []docNode{paragraph(strings.TrimSpace(trimmed[2:]))},
			})
		default:
			flushList()
			para = append(para, trimmed)
		}
	}
	if inCode {
		return nil, fmt.Errorf("unterminated code fence")
	}
	flushPara()
	flushList()

	doc := richDocument{Version: 1, Type: "doc", Content: nodes}
	return json.Marshal(doc)
}

func paragraph(text string) docNode {
	if text == "" {
		return docNode{Type: "paragraph"}
	}
	return docNode{
		Type:    "paragraph",
		Content: []docNode{{Type: "text", Text: text}},
	}
}

// stripMarkdown removes the structural markers so the fallback plain-text
// document reads cleanly.
func stripMarkdown(markdown string) string {
	var out []string
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimLeft(trimmed, "#")
		trimmed = strings.TrimPrefix(trimmed, "- ")
		trimmed = strings.TrimPrefix(trimmed, "* ")
		trimmed = strings.Trim(trimmed, "`")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}
