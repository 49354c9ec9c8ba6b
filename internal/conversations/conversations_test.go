package conversations

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"barops_backend/internal/scheduler"
	"barops_backend/platform/apperr"
	"barops_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	payloads []scheduler.ConversationUpsertPayload
	err      error
}

func (q *fakeQueue) EnqueueConversationUpsert(_ context.Context, p scheduler.ConversationUpsertPayload) error {
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, p)
	return nil
}

type fakeStore struct {
	bars     map[string]int
	upserted []Conversation
}

func (s *fakeStore) ResolveBar(_ context.Context, channelID, organizationID string) (int, error) {
	if bar, ok := s.bars[channelID]; ok && channelID != "" {
		return bar, nil
	}
	if bar, ok := s.bars[organizationID]; ok {
		return bar, nil
	}
	return 0, apperr.NotFound("no bar configured for this channel")
}

func (s *fakeStore) Upsert(_ context.Context, conv Conversation) error {
	s.upserted = append(s.upserted, conv)
	return nil
}

func newDeduper(t *testing.T) (*Deduper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewDeduper(rdb, time.Hour), mr
}

const eventJSON = `{
	"Type": "Message",
	"EventId": "evt-1",
	"EventDate": "2026-03-01T20:00:00Z",
	"Payload": {
		"Type": "Chat",
		"Content": {
			"Id": "chat-1",
			"Contact": {"Id": "contact-1", "Name": "Ana <b>Souza</b>", "PhoneNumber": "+55 11 98765-4321"},
			"Channel": {"Id": "channel-1"},
			"Organization": {"Id": "org-1"}
		}
	}
}`

func TestDeduperFirstSeen(t *testing.T) {
	d, mr := newDeduper(t)
	ctx := context.Background()

	first, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, again)

	mr.FastForward(2 * time.Hour)
	expired, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, expired)

	require.NoError(t, d.Forget(ctx, "evt-1"))
	forgotten, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, forgotten)
}

func newWebhookRouter(svc *Service, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/umbler", SecretRequired(secret), NewHandler(svc).HandleEvent)
	return r
}

func post(r http.Handler, secret, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/umbler", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(HeaderWebhookSecret, secret)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookQueuesOnceAndAcksDuplicates(t *testing.T) {
	d, _ := newDeduper(t)
	queue := &fakeQueue{}
	svc := NewService(&fakeStore{}, d, queue, logger.Nop())
	r := newWebhookRouter(svc, "s3cret")

	assert.Equal(t, http.StatusAccepted, post(r, "s3cret", eventJSON).Code)
	assert.Equal(t, http.StatusOK, post(r, "s3cret", eventJSON).Code)

	require.Len(t, queue.payloads, 1)
	p := queue.payloads[0]
	assert.Equal(t, "evt-1", p.EventID)
	assert.Equal(t, "chat-1", p.ChatID)
	assert.Equal(t, "contact-1", p.ContactID)
	assert.Equal(t, "+55 11 98765-4321", p.ContactPhone)
	assert.Equal(t, "channel-1", p.ChannelID)
	assert.Equal(t, time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), p.EventAt)
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	queue := &fakeQueue{}
	r := newWebhookRouter(NewService(&fakeStore{}, nil, queue, logger.Nop()), "s3cret")

	assert.Equal(t, http.StatusUnauthorized, post(r, "wrong", eventJSON).Code)
	assert.Equal(t, http.StatusUnauthorized, post(r, "", eventJSON).Code)
	assert.Empty(t, queue.payloads)
}

func TestWebhookRequiresContact(t *testing.T) {
	r := newWebhookRouter(NewService(&fakeStore{}, nil, &fakeQueue{}, logger.Nop()), "s3cret")

	w := post(r, "s3cret", `{"EventId":"evt-2","Payload":{"Content":{"Id":"chat-2"}}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookReleasesEventWhenQueueFails(t *testing.T) {
	d, _ := newDeduper(t)
	queue := &fakeQueue{err: errors.New("redis down")}
	r := newWebhookRouter(NewService(&fakeStore{}, d, queue, logger.Nop()), "s3cret")

	assert.Equal(t, http.StatusBadGateway, post(r, "s3cret", eventJSON).Code)

	queue.err = nil
	assert.Equal(t, http.StatusAccepted, post(r, "s3cret", eventJSON).Code)
	assert.Len(t, queue.payloads, 1)
}

func TestUpsertConversation(t *testing.T) {
	store := &fakeStore{bars: map[string]int{"channel-1": 3, "org-9": 7}}
	svc := NewService(store, nil, &fakeQueue{}, logger.Nop())
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	require.NoError(t, svc.UpsertConversation(ctx, scheduler.ConversationUpsertPayload{
		ChatID: "chat-1", ContactID: "contact-1", ContactName: "  Ana\t<b>Souza</b> ",
		ContactPhone: "5511987654321", ChannelID: "channel-1", OrganizationID: "org-9", EventAt: at,
	}))
	require.NoError(t, svc.UpsertConversation(ctx, scheduler.ConversationUpsertPayload{
		ContactID: "contact-2", OrganizationID: "org-9", EventAt: at,
	}))
	require.NoError(t, svc.UpsertConversation(ctx, scheduler.ConversationUpsertPayload{
		ContactID: "contact-3", ChannelID: "unknown", EventAt: at,
	}))

	require.Len(t, store.upserted, 2)
	assert.Equal(t, Conversation{
		ID: "chat-1", BarID: 3, ContactID: "contact-1", Phone: "5511987654321",
		Name: "Ana Souza", ChannelID: "channel-1", LastEventAt: at,
	}, store.upserted[0])
	assert.Equal(t, 7, store.upserted[1].BarID)
	assert.Equal(t, "7:contact-2", store.upserted[1].ID)
}
