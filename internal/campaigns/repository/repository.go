package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barops_backend/platform/apperr"
	"barops_backend/platform/sanitize"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProviderConfig is a bar's messaging provider credentials.
type ProviderConfig struct {
	BarID          int     `db:"bar_id"`
	APIToken       string  `db:"api_token"`
	OrganizationID string  `db:"organization_id"`
	ChannelID      *string `db:"channel_id"`
}

// Reservation is a reservation ledger row.
type Reservation struct {
	ReservationID   string     `db:"reservation_id"`
	CustomerPhone   string     `db:"customer_phone"`
	CustomerName    *string    `db:"customer_name"`
	CustomerEmail   *string    `db:"customer_email"`
	Status          string     `db:"status"`
	ReservationDate string     `db:"reservation_date"`
	ReservationTime *string    `db:"reservation_time"`
	People          int        `db:"people"`
	CreatedAt       *time.Time `db:"created_at"`
}

// Visit is a point-of-sale period row with at least one guest.
type Visit struct {
	Phone        string  `db:"cli_fone"`
	BusinessDate string  `db:"dt_gerencial"`
	Amount       float64 `db:"vr_pagamentos"`
}

// Repository provides read access to the ledgers, the conversation
// directory and provider credentials.
type Repository struct {
	pool *pgxpool.Pool
}

const providerConfigNotFoundMsg = "messaging provider not configured for this bar"

// New creates a new campaigns repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProviderConfig returns the active provider credentials of a bar.
func (r *Repository) GetProviderConfig(ctx context.Context, barID int) (ProviderConfig, error) {
	query := `
		SELECT bar_id, api_token, organization_id, channel_id
		FROM umbler_config
		WHERE bar_id = $1 AND active
		LIMIT 1`

	var cfg ProviderConfig
	err := r.pool.QueryRow(ctx, query, barID).Scan(&cfg.BarID, &cfg.APIToken, &cfg.OrganizationID, &cfg.ChannelID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProviderConfig{}, apperr.NotFound(providerConfigNotFoundMsg)
	}
	if err != nil {
		return ProviderConfig{}, fmt.Errorf("failed to get provider config: %w", err)
	}

	return cfg, nil
}

// PhonesByContactIDs maps contact ids to the phones the conversation
// directory holds for them. Ids without a phone are omitted.
func (r *Repository) PhonesByContactIDs(ctx context.Context, barID int, contactIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(contactIDs))
	if len(contactIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT contact_id, contact_phone
		FROM umbler_conversations
		WHERE bar_id = $1
		  AND contact_id = ANY($2)
		  AND contact_phone IS NOT NULL
		  AND contact_phone <> ''`

	rows, err := r.pool.Query(ctx, query, barID, contactIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation directory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var contactID, phone string
		if err := rows.Scan(&contactID, &phone); err != nil {
			return nil, fmt.Errorf("failed to scan conversation directory row: %w", err)
		}
		out[contactID] = phone
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation directory: %w", err)
	}

	return out, nil
}

// ListReservations returns the reservations of a bar whose event date falls
// in [from, to], skipping rows without a phone. created_at falls back to
// updated_at.
func (r *Repository) ListReservations(ctx context.Context, barID int, from, to string) ([]Reservation, error) {
	query := `
		SELECT reservation_id, customer_phone, customer_name, customer_email, status,
			to_char(reservation_date, 'YYYY-MM-DD'), reservation_time, COALESCE(people, 0),
			COALESCE(created_at, updated_at)
		FROM getin_reservations
		WHERE bar_id = $1
		  AND reservation_date BETWEEN $2::date AND $3::date
		  AND customer_phone IS NOT NULL
		  AND customer_phone <> ''
		ORDER BY reservation_date, reservation_time, reservation_id`

	rows, err := r.pool.Query(ctx, query, barID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	reservations := make([]Reservation, 0)
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(
			&res.ReservationID, &res.CustomerPhone, &res.CustomerName, &res.CustomerEmail, &res.Status,
			&res.ReservationDate, &res.ReservationTime, &res.People, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		res.CustomerName = sanitize.NamePtr(res.CustomerName)
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}

	return reservations, nil
}

// ListVisits returns the point-of-sale periods of a bar with a phone and at
// least one guest in [from, to].
func (r *Repository) ListVisits(ctx context.Context, barID int, from, to string) ([]Visit, error) {
	query := `
		SELECT cli_fone, to_char(dt_gerencial, 'YYYY-MM-DD'), COALESCE(vr_pagamentos, 0)::float8
		FROM contahub_periodo
		WHERE bar_id = $1
		  AND dt_gerencial BETWEEN $2::date AND $3::date
		  AND pessoas > 0
		  AND cli_fone IS NOT NULL
		  AND cli_fone <> ''`

	rows, err := r.pool.Query(ctx, query, barID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	visits := make([]Visit, 0)
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.Phone, &v.BusinessDate, &v.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}

	return visits, nil
}
