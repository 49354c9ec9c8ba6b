package conversations

import (
	"time"

	"barops_backend/internal/umbler"
)

// Event is a conversation webhook delivered by the messaging provider.
type Event struct {
	Type      string         `json:"Type"`
	EventID   string         `json:"EventId"`
	EventDate umbler.UTCTime `json:"EventDate"`
	Payload   EventPayload   `json:"Payload"`
}

type EventPayload struct {
	Type    string `json:"Type"`
	Content Chat   `json:"Content"`
}

// Chat is the conversation the event is about.
type Chat struct {
	ID           string         `json:"Id"`
	Contact      Contact        `json:"Contact"`
	Channel      Ref            `json:"Channel"`
	Organization Ref            `json:"Organization"`
	CreatedAtUTC umbler.UTCTime `json:"CreatedAtUTC"`
}

type Contact struct {
	ID          string `json:"Id"`
	Name        string `json:"Name"`
	PhoneNumber string `json:"PhoneNumber"`
}

type Ref struct {
	ID string `json:"Id"`
}

// IngestResponse is returned to the provider.
type IngestResponse struct {
	EventID   string `json:"eventId"`
	Duplicate bool   `json:"duplicate"`
}

// Conversation is one row of the conversation directory.
type Conversation struct {
	ID          string
	BarID       int
	ContactID   string
	Phone       string
	Name        string
	ChannelID   string
	LastEventAt time.Time
}
