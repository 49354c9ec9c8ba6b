package conversations

import (
	"context"
	"errors"
	"fmt"

	"barops_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository writes the conversation directory.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ResolveBar finds the bar an event belongs to, by channel first and
// organization second.
func (r *Repository) ResolveBar(ctx context.Context, channelID, organizationID string) (int, error) {
	query := `
		SELECT bar_id
		FROM umbler_config
		WHERE active
		  AND ((channel_id = $1 AND $1 <> '') OR organization_id = $2)
		ORDER BY (channel_id = $1 AND $1 <> '') DESC, bar_id
		LIMIT 1`

	var barID int
	err := r.pool.QueryRow(ctx, query, channelID, organizationID).Scan(&barID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("no bar configured for this channel")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve bar: %w", err)
	}
	return barID, nil
}

// Upsert stores a conversation keyed by (bar, contact). Empty phones and
// names never overwrite known ones, and older events never win.
func (r *Repository) Upsert(ctx context.Context, conv Conversation) error {
	query := `
		INSERT INTO umbler_conversations (id, bar_id, contact_id, contact_phone, contact_name, channel_id, last_event_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)
		ON CONFLICT (bar_id, contact_id) DO UPDATE SET
			contact_phone = COALESCE(EXCLUDED.contact_phone, umbler_conversations.contact_phone),
			contact_name  = COALESCE(EXCLUDED.contact_name, umbler_conversations.contact_name),
			channel_id    = COALESCE(EXCLUDED.channel_id, umbler_conversations.channel_id),
			last_event_at = EXCLUDED.last_event_at,
			updated_at    = now()
		WHERE umbler_conversations.last_event_at IS NULL
		   OR umbler_conversations.last_event_at <= EXCLUDED.last_event_at`

	_, err := r.pool.Exec(ctx, query, conv.ID, conv.BarID, conv.ContactID, conv.Phone, conv.Name, conv.ChannelID, conv.LastEventAt)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}
