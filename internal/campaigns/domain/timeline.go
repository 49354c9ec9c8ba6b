package domain

import (
	"math"
	"sort"
	"time"
)

// EntryKind tags a timeline entry.
type EntryKind string

const (
	EntryReservation  EntryKind = "reservation"
	EntryCampaignSent EntryKind = "campaign_sent"
)

// Side places a reservation relative to the campaign send instant.
type Side string

const (
	SideBefore Side = "before"
	SideAfter  Side = "after"
)

// TimelineEntry is either a reservation or the campaign marker.
type TimelineEntry struct {
	At          time.Time
	Kind        EntryKind
	Side        Side
	Reservation *Reservation
	InCampaign  bool
}

// TimelineSummary counts reservations on each side of the send instant.
// GrowthPercent is after/before*100 and nil when there was nothing before.
type TimelineSummary struct {
	Before        int
	After         int
	Undated       int
	BeforePeople  int
	AfterPeople   int
	GrowthPercent *float64
}

// Timeline is the merged chronological sequence around the send instant.
type Timeline struct {
	SentAt  time.Time
	Entries []TimelineEntry
	Summary TimelineSummary
}

// BuildTimeline partitions reservations by creation time around sentAt.
// Reservations without a creation time are only counted as undated.
// outside holds the ids of reservations that matched no recipient.
func BuildTimeline(sentAt time.Time, reservations []Reservation, outside map[string]struct{}) Timeline {
	before := make([]TimelineEntry, 0)
	after := make([]TimelineEntry, 0)
	var summary TimelineSummary

	for i := range reservations {
		res := reservations[i]
		if res.CreatedAt == nil {
			summary.Undated++
			continue
		}
		_, isOutside := outside[res.ID]
		entry := TimelineEntry{
			At:          *res.CreatedAt,
			Kind:        EntryReservation,
			Reservation: &res,
			InCampaign:  !isOutside,
		}
		if res.CreatedAt.Before(sentAt) {
			entry.Side = SideBefore
			before = append(before, entry)
			summary.Before++
			summary.BeforePeople += res.PartySize
		} else {
			entry.Side = SideAfter
			after = append(after, entry)
			summary.After++
			summary.AfterPeople += res.PartySize
		}
	}

	sortEntries(before)
	sortEntries(after)

	entries := make([]TimelineEntry, 0, len(before)+len(after)+1)
	entries = append(entries, before...)
	entries = append(entries, TimelineEntry{At: sentAt, Kind: EntryCampaignSent})
	entries = append(entries, after...)

	if summary.Before > 0 {
		growth := math.Round(float64(summary.After)/float64(summary.Before)*1000) / 10
		summary.GrowthPercent = &growth
	}

	return Timeline{SentAt: sentAt, Entries: entries, Summary: summary}
}

func sortEntries(entries []TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].At.Equal(entries[j].At) {
			return entries[i].At.Before(entries[j].At)
		}
		return entries[i].Reservation.ID < entries[j].Reservation.ID
	})
}
