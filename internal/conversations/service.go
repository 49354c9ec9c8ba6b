package conversations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"barops_backend/internal/scheduler"
	"barops_backend/platform/apperr"
	"barops_backend/platform/logger"
	"barops_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Store is the directory persistence.
type Store interface {
	ResolveBar(ctx context.Context, channelID, organizationID string) (int, error)
	Upsert(ctx context.Context, conv Conversation) error
}

// EventLog de-duplicates webhook deliveries.
type EventLog interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Service ingests provider conversation events into the directory the
// campaign reconciliation falls back to.
type Service struct {
	store  Store
	events EventLog
	queue  scheduler.ConversationEnqueuer
	log    *logger.Logger
	now    func() time.Time
}

func NewService(store Store, events EventLog, queue scheduler.ConversationEnqueuer, log *logger.Logger) *Service {
	return &Service{store: store, events: events, queue: queue, log: log, now: time.Now}
}

// Ingest accepts one webhook event and queues it. Redelivered events are
// acknowledged as duplicates.
func (s *Service) Ingest(ctx context.Context, ev Event) (IngestResponse, error) {
	chat := ev.Payload.Content
	contactID := strings.TrimSpace(chat.Contact.ID)
	if contactID == "" {
		return IngestResponse{}, apperr.Validation("event has no contact")
	}

	eventID := strings.TrimSpace(ev.EventID)
	dedup := eventID != "" && s.events != nil
	if eventID == "" {
		eventID = uuid.NewString()
	}
	log := s.log.WithContext(ctx).With("event_id", eventID)

	if dedup {
		first, err := s.events.FirstSeen(ctx, eventID)
		if err != nil {
			log.Warn("webhook de-duplication unavailable", "error", err)
			dedup = false
		} else if !first {
			return IngestResponse{EventID: eventID, Duplicate: true}, nil
		}
	}

	eventAt := ev.EventDate.Time
	if eventAt.IsZero() {
		eventAt = chat.CreatedAtUTC.Time
	}
	if eventAt.IsZero() {
		eventAt = s.now()
	}

	payload := scheduler.ConversationUpsertPayload{
		EventID:        eventID,
		ChatID:         strings.TrimSpace(chat.ID),
		ContactID:      contactID,
		ContactName:    chat.Contact.Name,
		ContactPhone:   strings.TrimSpace(chat.Contact.PhoneNumber),
		ChannelID:      strings.TrimSpace(chat.Channel.ID),
		OrganizationID: strings.TrimSpace(chat.Organization.ID),
		EventAt:        eventAt.UTC(),
	}
	if err := s.queue.EnqueueConversationUpsert(ctx, payload); err != nil {
		if dedup {
			if forgetErr := s.events.Forget(ctx, eventID); forgetErr != nil {
				log.Warn("failed to release webhook event", "error", forgetErr)
			}
		}
		return IngestResponse{}, apperr.Upstream("failed to queue conversation event", err)
	}

	log.Debug("conversation event queued", "contact_id", contactID)
	return IngestResponse{EventID: eventID}, nil
}

// UpsertConversation writes a queued event to the directory. Events for
// channels no bar is configured for are dropped.
func (s *Service) UpsertConversation(ctx context.Context, p scheduler.ConversationUpsertPayload) error {
	barID, err := s.store.ResolveBar(ctx, p.ChannelID, p.OrganizationID)
	if apperr.Is(err, apperr.KindNotFound) {
		s.log.Info("conversation event for unknown channel dropped", "event_id", p.EventID, "channel_id", p.ChannelID)
		return nil
	}
	if err != nil {
		return err
	}

	id := p.ChatID
	if id == "" {
		id = fmt.Sprintf("%d:%s", barID, p.ContactID)
	}
	eventAt := p.EventAt
	if eventAt.IsZero() {
		eventAt = s.now().UTC()
	}

	return s.store.Upsert(ctx, Conversation{
		ID:          id,
		BarID:       barID,
		ContactID:   p.ContactID,
		Phone:       p.ContactPhone,
		Name:        sanitize.Name(p.ContactName),
		ChannelID:   p.ChannelID,
		LastEventAt: eventAt,
	})
}
