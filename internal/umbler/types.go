package umbler

import (
	"strings"
	"time"
)

// Session is a bulk-send session as listed by the provider.
type Session struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	CreatedAtUTC    UTCTime   `json:"createdAtUTC"`
	MessagesSent    int       `json:"messagesSent"`
	TotalScheduled  int       `json:"totalScheduled"`
	TotalFailed     int       `json:"totalFailed"`
	TotalRead       int       `json:"totalRead"`
	TotalProcessing int       `json:"totalProcessing"`
	TotalSent       int       `json:"totalSent"`
	Channel         *Ref      `json:"channel,omitempty"`
	Template        *Template `json:"template,omitempty"`
}

// Sends is the best available count of messages the session sent.
func (s Session) Sends() int {
	switch {
	case s.TotalSent > 0:
		return s.TotalSent
	case s.TotalScheduled > 0:
		return s.TotalScheduled
	default:
		return s.MessagesSent
	}
}

// IsBulk reports whether the session reached minSends on any of its counters.
func (s Session) IsBulk(minSends int) bool {
	return s.TotalScheduled >= minSends || s.MessagesSent >= minSends || s.TotalSent >= minSends
}

// Merge overlays the non-zero fields of detail onto s.
func (s Session) Merge(detail Session) Session {
	out := s
	if detail.Title != "" {
		out.Title = detail.Title
	}
	if !detail.CreatedAtUTC.IsZero() {
		out.CreatedAtUTC = detail.CreatedAtUTC
	}
	mergeInt(&out.MessagesSent, detail.MessagesSent)
	mergeInt(&out.TotalScheduled, detail.TotalScheduled)
	mergeInt(&out.TotalFailed, detail.TotalFailed)
	mergeInt(&out.TotalRead, detail.TotalRead)
	mergeInt(&out.TotalProcessing, detail.TotalProcessing)
	mergeInt(&out.TotalSent, detail.TotalSent)
	if detail.Channel != nil {
		out.Channel = detail.Channel
	}
	if detail.Template != nil {
		out.Template = detail.Template
	}
	return out
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Ref is an id-only reference to another provider object.
type Ref struct {
	ID string `json:"id"`
}

// Template is the message template a session sent.
type Template struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// MessageSent is one delivery record of a session.
type MessageSent struct {
	MessageID   string  `json:"messageId"`
	ChatID      string  `json:"chatId"`
	ContactID   string  `json:"contactId"`
	ContactName string  `json:"contactName"`
	State       string  `json:"state"`
	EventAtUTC  UTCTime `json:"eventAtUTC"`
}

type pageInfo struct {
	TotalItems int `json:"totalItems"`
}

type sessionPage struct {
	Items []Session `json:"items"`
	Page  *pageInfo `json:"page,omitempty"`
}

type messagePage struct {
	Items []MessageSent `json:"items"`
}

// UTCTime parses the provider's timestamps, which come either as RFC 3339
// or without a zone designator (then meaning UTC).
type UTCTime struct {
	time.Time
}

var utcLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *UTCTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range utcLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON implements json.Marshaler.
func (t UTCTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}
