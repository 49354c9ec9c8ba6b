package domain

import (
	"sort"
	"time"
)

// Campaign identifies the bulk-send session being analysed.
type Campaign struct {
	ID     string
	Title  string
	SentAt time.Time
}

// EngagedContact is one recipient that booked after receiving the campaign.
type EngagedContact struct {
	Name        string
	Phone       string
	PartySize   int
	EventDate   string
	EventTime   string
	Status      ReservationStatus
	Read        bool
	Attended    bool
	AmountSpent float64
}

// AnalysisInput is everything one reconciliation run needs once the data
// has been fetched.
type AnalysisInput struct {
	Campaign     Campaign
	Mode         Mode
	Recipients   []Recipient
	Reservations []Reservation
	Visits       []Visit
	Totals       ProviderTotals
}

// Analysis is the result of one reconciliation run.
type Analysis struct {
	Campaign            Campaign
	Mode                Mode
	Match               MatchResult
	Timeline            Timeline
	Funnel              FunnelMetrics
	ReadAndReserved     []EngagedContact
	ReceivedAndReserved []EngagedContact
}

// Analyze matches, partitions and aggregates. Visits are ignored outside
// post-event mode.
func Analyze(in AnalysisInput) Analysis {
	visits := in.Visits
	if !in.Mode.IncludesVisits() {
		visits = nil
	} else if visits == nil {
		visits = []Visit{}
	}

	result := NewMatcher(in.Reservations, visits).Match(in.Recipients)

	outside := make(map[string]struct{}, len(result.OutsideCampaign))
	for _, res := range result.OutsideCampaign {
		outside[res.ID] = struct{}{}
	}

	analysis := Analysis{
		Campaign: in.Campaign,
		Mode:     in.Mode,
		Match:    result,
		Timeline: BuildTimeline(in.Campaign.SentAt, in.Reservations, outside),
		Funnel:   Aggregate(result, in.Mode, in.Totals),
	}
	analysis.ReadAndReserved, analysis.ReceivedAndReserved = engagedLists(result, in.Mode)
	return analysis
}

func engagedLists(result MatchResult, mode Mode) (readAndReserved, receivedAndReserved []EngagedContact) {
	readAndReserved = make([]EngagedContact, 0)
	receivedAndReserved = make([]EngagedContact, 0)

	for _, match := range result.Matches {
		res := match.Reservation
		if res == nil {
			continue
		}
		name := res.CustomerName
		if name == "" {
			name = match.Recipient.DisplayName
		}
		contact := EngagedContact{
			Name:      name,
			Phone:     match.Recipient.Identity.Canonical,
			PartySize: res.PartySize,
			EventDate: res.EventDate,
			EventTime: res.EventTime,
			Status:    res.Status,
			Read:      match.Recipient.IsRead(),
		}
		if mode.IncludesVisits() {
			contact.Attended = res.Status == StatusSeated || match.Visit != nil
			if match.Visit != nil {
				contact.AmountSpent = match.Visit.Amount
			}
		}
		if contact.Read {
			readAndReserved = append(readAndReserved, contact)
		} else {
			receivedAndReserved = append(receivedAndReserved, contact)
		}
	}

	byTime := func(list []EngagedContact) {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].EventDate != list[j].EventDate {
				return list[i].EventDate < list[j].EventDate
			}
			return list[i].EventTime < list[j].EventTime
		})
	}
	byTime(readAndReserved)
	byTime(receivedAndReserved)
	return readAndReserved, receivedAndReserved
}
