package provider

import "time"

// Record is the canonical conversation entity produced by normalizing a raw
// provider payload. Records are materialized per response, never persisted,
// and never mutated once returned.
type Record struct {
	ID        string `json:"conversation_id"`
	URL       string `json:"conversation_url"`
	Name      string `json:"conversation_name,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// createdAtFormats are the timestamp layouts the provider has been seen to
// emit, tried in order.
var createdAtFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// CreatedTime parses CreatedAt. Missing or unparsable timestamps collapse to
// the zero time so a single bad record sorts oldest instead of failing a
// whole listing.
func (r Record) CreatedTime() time.Time {
	if r.CreatedAt == "" {
		return time.Time{}
	}
	for _, layout := range createdAtFormats {
		if t, err := time.Parse(layout, r.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}
