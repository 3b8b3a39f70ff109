package model

import "time"

// Tenant identifies whose tracker configuration applies to a processing run.
// Demo selects the built-in demo project instead of a resolved integration.
type Tenant struct {
	UserID         string `json:"user_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	Demo           bool   `json:"demo,omitempty"`
}

// Header is a single raw email header as delivered by the ingestion queue.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EmailAttachment is a raw attachment as delivered by the ingestion queue.
// Content is base64 encoded. ContentID is present for HTML-embedded parts
// and keeps its angle brackets exactly as found in the MIME headers.
type EmailAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	ContentID   string `json:"content_id,omitempty"`
}

// EmailInput is the unit of work handed to the processor by the job queue.
// It is treated as immutable for the duration of one run.
type EmailInput struct {
	From        string            `json:"from"`
	Subject     string            `json:"subject"`
	TextBody    string            `json:"text_body"`
	HTMLBody    string            `json:"html_body"`
	ReceivedAt  time.Time         `json:"received_at"`
	MessageID   string            `json:"message_id"`
	Headers     []Header          `json:"headers,omitempty"`
	Attachments []EmailAttachment `json:"attachments,omitempty"`
	Tenant      *Tenant           `json:"tenant,omitempty"`
}

// NormalizedAttachment is derived once per run from EmailInput.Attachments.
// Embedded marks image parts whose cid: reference was found in the HTML body.
type NormalizedAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	ContentID   string `json:"content_id,omitempty"`
	Embedded    bool   `json:"embedded"`
}

// EmailProcessingResult is the processor's sole return value.
type EmailProcessingResult struct {
	Summary         string   `json:"summary"`
	Actions         []string `json:"actions"`
	TicketsCreated  []string `json:"tickets_created"`
	TicketsModified []string `json:"tickets_modified"`
	Error           string   `json:"error,omitempty"`
}
