package domain

import (
	"context"
	"fmt"
	"regexp"

	"barops_backend/platform/phone"
)

// DefaultDirectoryBatchSize is the number of contact ids sent per directory query.
const DefaultDirectoryBatchSize = 500

// DefaultCoverageRatio is the share of directly resolved phones under which
// the directory fallback runs.
const DefaultCoverageRatio = 0.5

// chatPhonePattern captures the digit run before the platform suffix,
// e.g. "5561998765432@s.whatsapp.net".
var chatPhonePattern = regexp.MustCompile(`^(\d+)@`)

// DirectoryLookup resolves one batch of opaque contact ids to raw phones.
// Ids missing from the result are unknown to the directory.
type DirectoryLookup func(ctx context.Context, contactIDs []string) (map[string]string, error)

// ResolveStats accumulates the counters of a resolution run.
type ResolveStats struct {
	Records       int
	Direct        int
	Backfilled    int
	Unresolved    int
	FallbackUsed  bool
	Batches       int
	FailedBatches int
	BatchErrors   []error
}

// ExtractChatPhone returns the leading digit run of a chat id, or "".
func ExtractChatPhone(chatID string) string {
	m := chatPhonePattern.FindStringSubmatch(chatID)
	if m == nil {
		return ""
	}
	return m[1]
}

// ResolveDirect builds one recipient per record, using the phone embedded
// in the chat id when there is one.
func ResolveDirect(records []DeliveryRecord) ([]Recipient, ResolveStats) {
	recipients := make([]Recipient, 0, len(records))
	stats := ResolveStats{Records: len(records)}

	for _, rec := range records {
		r := Recipient{
			DisplayName: rec.ContactName,
			ContactID:   rec.ContactID,
			State:       rec.State,
			SentAt:      rec.SentAt,
			ReadAt:      rec.ReadAt,
			Source:      SourceUnresolved,
		}
		if raw := ExtractChatPhone(rec.ChatID); raw != "" {
			if id := phone.NewIdentity(raw); !id.IsZero() {
				r.Identity = id
				r.RawPhone = raw
				r.Source = SourceChatID
				stats.Direct++
			}
		}
		recipients = append(recipients, r)
	}

	stats.Unresolved = stats.Records - stats.Direct
	return recipients, stats
}

// NeedsFallback reports whether direct extraction covered less than ratio
// of the records.
func NeedsFallback(stats ResolveStats, ratio float64) bool {
	return float64(stats.Direct) < float64(stats.Records)*ratio
}

// Backfill looks up the contact ids of unresolved recipients in batches and
// returns a new slice with the phones it found applied. A failing batch is
// recorded in the stats and skipped; the remaining batches still run.
func Backfill(ctx context.Context, recipients []Recipient, lookup DirectoryLookup, batchSize int) ([]Recipient, ResolveStats) {
	if batchSize <= 0 {
		batchSize = DefaultDirectoryBatchSize
	}

	out := make([]Recipient, len(recipients))
	copy(out, recipients)
	stats := ResolveStats{Records: len(out), FallbackUsed: true}

	ids := pendingContactIDs(out)
	phones := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		stats.Batches++

		found, err := lookup(ctx, ids[start:end])
		if err != nil {
			stats.FailedBatches++
			stats.BatchErrors = append(stats.BatchErrors, fmt.Errorf("directory batch %d: %w", stats.Batches, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		for id, raw := range found {
			phones[id] = raw
		}
	}

	for i := range out {
		if out[i].HasIdentity() {
			stats.Direct++
			continue
		}
		raw, ok := phones[out[i].ContactID]
		if !ok {
			continue
		}
		if id := phone.NewIdentity(raw); !id.IsZero() {
			out[i].Identity = id
			out[i].RawPhone = raw
			out[i].Source = SourceDirectory
			stats.Backfilled++
		}
	}

	stats.Unresolved = stats.Records - stats.Direct - stats.Backfilled
	return out, stats
}

// pendingContactIDs returns the distinct contact ids of unresolved
// recipients in first-seen order.
func pendingContactIDs(recipients []Recipient) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, r := range recipients {
		if r.HasIdentity() || r.ContactID == "" {
			continue
		}
		if _, ok := seen[r.ContactID]; ok {
			continue
		}
		seen[r.ContactID] = struct{}{}
		ids = append(ids, r.ContactID)
	}
	return ids
}

// Resolver runs direct extraction and, when coverage is too low, the
// directory fallback.
type Resolver struct {
	Lookup        DirectoryLookup
	BatchSize     int
	CoverageRatio float64
}

// Resolve returns one recipient per record plus the run's counters.
func (r Resolver) Resolve(ctx context.Context, records []DeliveryRecord) ([]Recipient, ResolveStats) {
	recipients, stats := ResolveDirect(records)

	ratio := r.CoverageRatio
	if ratio <= 0 {
		ratio = DefaultCoverageRatio
	}
	if r.Lookup == nil || !NeedsFallback(stats, ratio) {
		return recipients, stats
	}

	return Backfill(ctx, recipients, r.Lookup, r.BatchSize)
}
