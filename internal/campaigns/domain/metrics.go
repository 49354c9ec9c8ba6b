package domain

import "math"

// ProviderTotals are the aggregates the messaging provider keeps per
// session. Zero fields are treated as absent.
type ProviderTotals struct {
	Sent   int
	Read   int
	Failed int
}

// StatusBreakdown counts matched reservations by status. Canceled covers
// both cancellation flavours.
type StatusBreakdown struct {
	Confirmed int
	Pending   int
	Canceled  int
	Other     int
}

// Attendance is only computed after the event.
type Attendance struct {
	Attended      int
	Rate          float64
	Seated        int
	NoShow        int
	VisitsMatched int
	Revenue       float64
	AverageSpend  float64
}

// FunnelMetrics is the campaign funnel. Rates are percentages rounded to two
// decimals; an empty denominator yields 0.
type FunnelMetrics struct {
	Records   int
	Sent      int
	Delivered int
	Read      int
	Failed    int
	InFlight  int

	DeliveryRate          float64
	ReadRate              float64
	ReservationRate       float64
	EngagedConversionRate float64

	Reserved                  int
	ReadAndReserved           int
	ReceivedAndReserved       int
	PeopleReadAndReserved     int
	PeopleReceivedAndReserved int

	OutsideCampaign       int
	PeopleOutside         int
	CampaignShareOfBooked float64

	Statuses   StatusBreakdown
	Attendance *Attendance
}

// Aggregate computes the funnel from the match result. Provider totals win
// over counts derived from the delivery records when they are present.
func Aggregate(result MatchResult, mode Mode, totals ProviderTotals) FunnelMetrics {
	var m FunnelMetrics
	m.Records = len(result.Matches)

	var readCount, failedCount int
	for _, match := range result.Matches {
		switch match.Recipient.State {
		case StateRead:
			readCount++
		case StateFailed:
			failedCount++
		case StateInFlight:
			m.InFlight++
		}
	}

	m.Failed = firstPositive(totals.Failed, failedCount)
	m.Sent = firstPositive(totals.Sent, m.Records-m.Failed)
	if m.Sent < 0 {
		m.Sent = 0
	}
	m.Read = firstPositive(totals.Read, readCount)
	m.Delivered = m.Sent

	var attendance Attendance
	for _, match := range result.Matches {
		res := match.Reservation
		if res != nil {
			m.Reserved++
			if match.Recipient.IsRead() {
				m.ReadAndReserved++
				m.PeopleReadAndReserved += res.PartySize
			} else {
				m.ReceivedAndReserved++
				m.PeopleReceivedAndReserved += res.PartySize
			}
			switch {
			case res.Status == StatusConfirmed:
				m.Statuses.Confirmed++
			case res.Status == StatusPending:
				m.Statuses.Pending++
			case res.Status.IsCanceled():
				m.Statuses.Canceled++
			case res.Status == StatusSeated:
				attendance.Seated++
			case res.Status == StatusNoShow:
				attendance.NoShow++
			default:
				m.Statuses.Other++
			}
		}

		if !mode.IncludesVisits() {
			continue
		}
		seated := res != nil && res.Status == StatusSeated
		if match.Visit != nil {
			attendance.VisitsMatched++
			attendance.Revenue += match.Visit.Amount
		}
		if seated || match.Visit != nil {
			attendance.Attended++
		}
	}

	for _, res := range result.OutsideCampaign {
		m.OutsideCampaign++
		m.PeopleOutside += res.PartySize
	}

	m.DeliveryRate = percent(m.Delivered, m.Sent)
	m.ReadRate = percent(m.Read, m.Sent)
	m.ReservationRate = percent(m.Reserved, m.Sent)
	m.EngagedConversionRate = percent(m.ReadAndReserved, m.Read)
	m.CampaignShareOfBooked = percent(m.Reserved, m.Reserved+m.OutsideCampaign)

	if mode.IncludesVisits() {
		attendance.Rate = percent(attendance.Attended, m.Sent)
		attendance.Revenue = round2(attendance.Revenue)
		if attendance.Attended > 0 {
			attendance.AverageSpend = round2(attendance.Revenue / float64(attendance.Attended))
		}
		m.Attendance = &attendance
	} else {
		// Seated and no-show only mean something once the event happened.
		m.Statuses.Other += attendance.Seated + attendance.NoShow
	}

	return m
}

func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func firstPositive(preferred, fallback int) int {
	if preferred > 0 {
		return preferred
	}
	return fallback
}
