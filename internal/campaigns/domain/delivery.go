// Package domain holds the campaign reconciliation engine: recipient
// resolution, cross-system matching, the before/after timeline, mode
// selection and funnel metrics. Everything here is pure; data access lives
// in the repository and service packages.
package domain

import (
	"strings"
	"time"

	"barops_backend/platform/phone"
)

// DeliveryState is the closed set of states a sent message can be in.
type DeliveryState string

const (
	StateDelivered DeliveryState = "delivered"
	StateRead      DeliveryState = "read"
	StateFailed    DeliveryState = "failed"
	StateInFlight  DeliveryState = "in_flight"
)

// ParseDeliveryState maps a provider message state onto DeliveryState.
// Unknown states are treated as still in flight.
func ParseDeliveryState(providerState string) DeliveryState {
	switch strings.ToLower(strings.TrimSpace(providerState)) {
	case "read", "played":
		return StateRead
	case "sent", "delivered", "received":
		return StateDelivered
	case "failed", "error", "canceled", "cancelled":
		return StateFailed
	default:
		return StateInFlight
	}
}

// DeliveryRecord is one message of a bulk-send campaign as reported by the
// messaging provider.
type DeliveryRecord struct {
	MessageID   string
	ContactID   string
	ChatID      string
	ContactName string
	State       DeliveryState
	SentAt      time.Time
	ReadAt      *time.Time
}

// ResolutionSource tells how a recipient's phone was obtained.
type ResolutionSource string

const (
	SourceChatID     ResolutionSource = "chat_id"
	SourceDirectory  ResolutionSource = "directory"
	SourceUnresolved ResolutionSource = "unresolved"
)

// Recipient is the subject of one delivery record. A zero Identity means the
// phone could not be resolved; such recipients count in the delivery funnel
// but are never matched.
type Recipient struct {
	Identity    phone.Identity
	RawPhone    string
	DisplayName string
	ContactID   string
	State       DeliveryState
	SentAt      time.Time
	ReadAt      *time.Time
	Source      ResolutionSource
}

func (r Recipient) HasIdentity() bool { return !r.Identity.IsZero() }
func (r Recipient) IsRead() bool      { return r.State == StateRead }
func (r Recipient) IsFailed() bool    { return r.State == StateFailed }
