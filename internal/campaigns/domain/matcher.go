package domain

import (
	"sort"
	"strings"
	"time"

	"barops_backend/platform/phone"
)

// ReservationStatus is the lifecycle status reported by the reservation ledger.
type ReservationStatus string

const (
	StatusSeated        ReservationStatus = "seated"
	StatusNoShow        ReservationStatus = "no-show"
	StatusConfirmed     ReservationStatus = "confirmed"
	StatusPending       ReservationStatus = "pending"
	StatusCanceledUser  ReservationStatus = "canceled-user"
	StatusCanceledAgent ReservationStatus = "canceled-agent"
)

// IsCanceled reports both cancellation flavours.
func (s ReservationStatus) IsCanceled() bool {
	return s == StatusCanceledUser || s == StatusCanceledAgent
}

// Reservation is one row of the reservation ledger. EventDate is YYYY-MM-DD
// and EventTime HH:MM, both in the venue's local time.
type Reservation struct {
	ID            string
	Phone         string
	Status        ReservationStatus
	EventDate     string
	EventTime     string
	PartySize     int
	CustomerName  string
	CustomerEmail string
	CreatedAt     *time.Time
}

// Visit is one point-of-sale check-in.
type Visit struct {
	Phone     string
	VisitDate string
	Amount    float64
}

// VisitAggregate sums the visits indexed under one phone variant.
type VisitAggregate struct {
	Phone      string
	FirstVisit string
	LastVisit  string
	Visits     int
	Amount     float64
}

// supersedes reports whether a should replace b as the reservation kept for
// a shared variant: later event date first, then later event time, later
// creation, and finally the larger id so the outcome never depends on input
// order.
func supersedes(a, b Reservation) bool {
	if a.EventDate != b.EventDate {
		return a.EventDate > b.EventDate
	}
	if a.EventTime != b.EventTime {
		return a.EventTime > b.EventTime
	}
	switch {
	case a.CreatedAt != nil && b.CreatedAt == nil:
		return true
	case a.CreatedAt == nil && b.CreatedAt != nil:
		return false
	case a.CreatedAt != nil && b.CreatedAt != nil && !a.CreatedAt.Equal(*b.CreatedAt):
		return a.CreatedAt.After(*b.CreatedAt)
	}
	return a.ID > b.ID
}

// ReservationIndex maps every phone variant to the reservation kept for it
// and to all reservations that share it.
type ReservationIndex struct {
	reservations []Reservation
	identities   []phone.Identity
	best         map[string]int
	all          map[string][]int
}

// NewReservationIndex indexes reservations under every variant of their phone.
func NewReservationIndex(reservations []Reservation) *ReservationIndex {
	idx := &ReservationIndex{
		reservations: reservations,
		identities:   make([]phone.Identity, len(reservations)),
		best:         make(map[string]int),
		all:          make(map[string][]int),
	}

	for i, res := range reservations {
		id := phone.NewIdentity(res.Phone)
		idx.identities[i] = id
		for _, v := range id.Variants {
			idx.all[v] = append(idx.all[v], i)
			current, ok := idx.best[v]
			if !ok || supersedes(res, reservations[current]) {
				idx.best[v] = i
			}
		}
	}

	return idx
}

// Len returns the number of indexed variant keys.
func (idx *ReservationIndex) Len() int { return len(idx.best) }

// Lookup tries the identity's variants in order and returns the first hit
// with every other reservation sharing one of those variants, most
// preferred first.
func (idx *ReservationIndex) Lookup(id phone.Identity) (int, []int, bool) {
	chosen := -1
	for _, v := range id.Variants {
		if i, ok := idx.best[v]; ok {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		return -1, nil, false
	}

	seen := map[int]struct{}{chosen: {}}
	others := make([]int, 0)
	for _, v := range id.Variants {
		for _, i := range idx.all[v] {
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			others = append(others, i)
		}
	}
	sort.SliceStable(others, func(a, b int) bool {
		return supersedes(idx.reservations[others[a]], idx.reservations[others[b]])
	})

	return chosen, others, true
}

// VisitIndex maps every phone variant to the sum of the visits under it.
type VisitIndex struct {
	byVariant map[string]*VisitAggregate
}

// NewVisitIndex indexes visits under every variant of their phone. Amounts
// of visits sharing a variant accumulate.
func NewVisitIndex(visits []Visit) *VisitIndex {
	idx := &VisitIndex{byVariant: make(map[string]*VisitAggregate)}
	for _, visit := range visits {
		id := phone.NewIdentity(visit.Phone)
		for _, v := range id.Variants {
			agg, ok := idx.byVariant[v]
			if !ok {
				agg = &VisitAggregate{Phone: id.Canonical, FirstVisit: visit.VisitDate, LastVisit: visit.VisitDate}
				idx.byVariant[v] = agg
			}
			agg.Visits++
			agg.Amount += visit.Amount
			if visit.VisitDate != "" && (agg.FirstVisit == "" || visit.VisitDate < agg.FirstVisit) {
				agg.FirstVisit = visit.VisitDate
			}
			if visit.VisitDate > agg.LastVisit {
				agg.LastVisit = visit.VisitDate
			}
		}
	}
	return idx
}

// Len returns the number of indexed variant keys.
func (idx *VisitIndex) Len() int { return len(idx.byVariant) }

// Lookup returns a copy of the first aggregate found across the variants.
func (idx *VisitIndex) Lookup(id phone.Identity) (*VisitAggregate, bool) {
	for _, v := range id.Variants {
		if agg, ok := idx.byVariant[v]; ok {
			out := *agg
			return &out, true
		}
	}
	return nil, false
}

// Match is the outcome for one recipient. Discarded lists the other
// reservations sharing the recipient's phone that lost the tie-break.
type Match struct {
	Recipient   Recipient
	Reservation *Reservation
	Visit       *VisitAggregate
	Discarded   []Reservation
}

// MatchStats counts what the matcher indexed and found.
type MatchStats struct {
	ReservationKeys     int
	VisitKeys           int
	MatchedReservations int
	MatchedVisits       int
	Ambiguous           int
}

// MatchResult holds one Match per recipient, in recipient order, and the
// reservations that never matched a recipient.
type MatchResult struct {
	Matches         []Match
	OutsideCampaign []Reservation
	Stats           MatchStats
}

// Matcher joins recipients with the reservation ledger and, when enabled,
// the visit ledger.
type Matcher struct {
	reservations *ReservationIndex
	visits       *VisitIndex
}

// NewMatcher builds the indexes. A nil visits slice disables visit matching.
func NewMatcher(reservations []Reservation, visits []Visit) *Matcher {
	m := &Matcher{reservations: NewReservationIndex(reservations)}
	if visits != nil {
		m.visits = NewVisitIndex(visits)
	}
	return m
}

// Match joins every recipient. Failed deliveries never reached their
// recipient and are not matched; their reservations stay outside the
// campaign.
func (m *Matcher) Match(recipients []Recipient) MatchResult {
	result := MatchResult{
		Matches: make([]Match, 0, len(recipients)),
		Stats:   MatchStats{ReservationKeys: m.reservations.Len()},
	}
	if m.visits != nil {
		result.Stats.VisitKeys = m.visits.Len()
	}

	audience := make(map[string]struct{})
	for _, r := range recipients {
		match := Match{Recipient: r}
		if !r.HasIdentity() || r.IsFailed() {
			result.Matches = append(result.Matches, match)
			continue
		}
		for _, v := range r.Identity.Variants {
			audience[v] = struct{}{}
		}

		if chosen, others, ok := m.reservations.Lookup(r.Identity); ok {
			res := m.reservations.reservations[chosen]
			match.Reservation = &res
			result.Stats.MatchedReservations++
			if len(others) > 0 {
				result.Stats.Ambiguous++
				match.Discarded = make([]Reservation, 0, len(others))
				for _, i := range others {
					match.Discarded = append(match.Discarded, m.reservations.reservations[i])
				}
			}
		}
		if m.visits != nil {
			if agg, ok := m.visits.Lookup(r.Identity); ok {
				match.Visit = agg
				result.Stats.MatchedVisits++
			}
		}
		result.Matches = append(result.Matches, match)
	}

	result.OutsideCampaign = make([]Reservation, 0)
	for i, res := range m.reservations.reservations {
		if !sharesVariant(m.reservations.identities[i], audience) {
			result.OutsideCampaign = append(result.OutsideCampaign, res)
		}
	}

	return result
}

func sharesVariant(id phone.Identity, audience map[string]struct{}) bool {
	for _, v := range id.Variants {
		if _, ok := audience[v]; ok {
			return true
		}
	}
	return false
}

// NormalizeStatus lowercases a ledger status and folds spelling variants.
func NormalizeStatus(raw string) ReservationStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", "-")
	switch s {
	case "noshow", "no show":
		return StatusNoShow
	case "cancelled-user":
		return StatusCanceledUser
	case "cancelled-agent":
		return StatusCanceledAgent
	}
	return ReservationStatus(s)
}
