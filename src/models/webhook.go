package models

import (
	"time"
)

// Webhook binds one host event to one destination URL
type Webhook struct {
	Slug          string         `json:"slug"`
	Name          string         `json:"name"`
	Event         string         `json:"event"`
	URL           string         `json:"url"`
	BodyTemplate  string         `json:"body_template,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	LastExecution *LastExecution `json:"last_execution,omitempty"`
}

// LastExecution is the outcome of the most recent delivery attempt.
// Fields not covered by the retention policy are left nil.
type LastExecution struct {
	Timestamp          *time.Time `json:"timestamp,omitempty"`
	ResponseStatusCode *int       `json:"response_status_code,omitempty"`
}

// HasExecuted returns true if at least one delivery was attempted
func (w *Webhook) HasExecuted() bool {
	return w.LastExecution != nil
}

// Clone returns a deep copy of the webhook
func (w *Webhook) Clone() *Webhook {
	if w == nil {
		return nil
	}
	c := *w
	if w.LastExecution != nil {
		le := *w.LastExecution
		if le.Timestamp != nil {
			ts := *le.Timestamp
			le.Timestamp = &ts
		}
		if le.ResponseStatusCode != nil {
			code := *le.ResponseStatusCode
			le.ResponseStatusCode = &code
		}
		c.LastExecution = &le
	}
	return &c
}

// WebhookPatch holds the fields of a partial update. Nil fields are left untouched.
// Slug and CreatedAt are immutable and have no patch field.
type WebhookPatch struct {
	Name          *string        `json:"name,omitempty"`
	Event         *string        `json:"event,omitempty"`
	URL           *string        `json:"url,omitempty"`
	BodyTemplate  *string        `json:"body_template,omitempty"`
	LastExecution *LastExecution `json:"last_execution,omitempty"`
}

// IsEmpty returns true if the patch changes nothing
func (p WebhookPatch) IsEmpty() bool {
	return p.Name == nil && p.Event == nil && p.URL == nil && p.BodyTemplate == nil && p.LastExecution == nil
}
