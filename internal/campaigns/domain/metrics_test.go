package domain

import (
	"fmt"
	"testing"
	"time"
)

// scenario builds 100 delivered recipients, the first 40 of which read the
// message. Reservations exist for recipients 0-5 (read) and 40-43 (unread);
// 0-2 were seated and 0, 40 and 41 spent a total of 500.00.
func scenario() AnalysisInput {
	sentAt := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	phoneOf := func(i int) string { return fmt.Sprintf("61998%06d", i) }

	records := make([]DeliveryRecord, 0, 100)
	for i := 0; i < 100; i++ {
		state := StateDelivered
		if i < 40 {
			state = StateRead
		}
		records = append(records, DeliveryRecord{
			ContactID: fmt.Sprintf("c%d", i),
			ChatID:    "55" + phoneOf(i) + "@s.whatsapp.net",
			State:     state,
			SentAt:    sentAt,
		})
	}
	recipients, _ := ResolveDirect(records)

	created := sentAt.Add(2 * time.Hour)
	reservations := make([]Reservation, 0)
	for _, i := range []int{0, 1, 2, 3, 4, 5, 40, 41, 42, 43} {
		status := StatusConfirmed
		if i <= 2 {
			status = StatusSeated
		}
		reservations = append(reservations, Reservation{
			ID:        fmt.Sprintf("r%d", i),
			Phone:     phoneOf(i),
			Status:    status,
			EventDate: "2025-03-14",
			EventTime: "20:00",
			PartySize: 2,
			CreatedAt: &created,
		})
	}
	before := sentAt.Add(-24 * time.Hour)
	reservations = append(reservations, Reservation{
		ID: "walk-in", Phone: "11987654321", Status: StatusSeated, EventDate: "2025-03-14", PartySize: 5, CreatedAt: &before,
	})

	visits := []Visit{
		{Phone: phoneOf(0), VisitDate: "2025-03-14", Amount: 200},
		{Phone: phoneOf(40), VisitDate: "2025-03-14", Amount: 150},
		{Phone: phoneOf(41), VisitDate: "2025-03-14", Amount: 150},
	}

	return AnalysisInput{
		Campaign:     Campaign{ID: "s1", Title: "Sexta", SentAt: sentAt},
		Mode:         ModePostEvent,
		Recipients:   recipients,
		Reservations: reservations,
		Visits:       visits,
	}
}

func TestAggregateScenario(t *testing.T) {
	a := Analyze(scenario())
	f := a.Funnel

	if f.Sent != 100 || f.Read != 40 || f.Reserved != 10 || f.ReadAndReserved != 6 {
		t.Fatalf("unexpected counts %+v", f)
	}
	if f.DeliveryRate != 100 {
		t.Fatalf("expected delivery rate 100, got %v", f.DeliveryRate)
	}
	if f.ReadRate != 40 {
		t.Fatalf("expected read rate 40, got %v", f.ReadRate)
	}
	if f.EngagedConversionRate != 15 {
		t.Fatalf("expected engaged conversion 15, got %v", f.EngagedConversionRate)
	}
	if f.ReservationRate != 10 {
		t.Fatalf("expected reservation rate 10, got %v", f.ReservationRate)
	}
	if f.Attendance == nil {
		t.Fatalf("expected attendance in post-event mode")
	}
	if f.Attendance.Attended != 5 || f.Attendance.Rate != 5 {
		t.Fatalf("expected 5 attended at 5%%, got %+v", f.Attendance)
	}
	if f.Attendance.Revenue != 500 || f.Attendance.AverageSpend != 100 {
		t.Fatalf("expected revenue 500 and average 100, got %+v", f.Attendance)
	}
	if f.OutsideCampaign != 1 || f.PeopleOutside != 5 {
		t.Fatalf("expected the walk-in outside the campaign, got %d/%d", f.OutsideCampaign, f.PeopleOutside)
	}
	if f.PeopleReadAndReserved != 12 || f.PeopleReceivedAndReserved != 8 {
		t.Fatalf("unexpected party sizes %d/%d", f.PeopleReadAndReserved, f.PeopleReceivedAndReserved)
	}
	if len(a.ReadAndReserved) != 6 || len(a.ReceivedAndReserved) != 4 {
		t.Fatalf("unexpected engaged lists %d/%d", len(a.ReadAndReserved), len(a.ReceivedAndReserved))
	}
	if a.Timeline.Summary.Before != 1 || a.Timeline.Summary.After != 10 {
		t.Fatalf("unexpected timeline summary %+v", a.Timeline.Summary)
	}
}

func TestAggregatePreEventOmitsAttendance(t *testing.T) {
	in := scenario()
	in.Mode = ModePreEvent

	a := Analyze(in)

	if a.Funnel.Attendance != nil {
		t.Fatalf("expected attendance to be absent before the event")
	}
	if a.Match.Stats.MatchedVisits != 0 {
		t.Fatalf("expected visits to be ignored before the event")
	}
	if a.Funnel.Statuses.Confirmed != 7 || a.Funnel.Statuses.Other != 3 {
		t.Fatalf("unexpected status breakdown %+v", a.Funnel.Statuses)
	}
}

func TestAggregateZeroDenominators(t *testing.T) {
	f := Aggregate(MatchResult{}, ModePostEvent, ProviderTotals{})

	if f.DeliveryRate != 0 || f.ReadRate != 0 || f.ReservationRate != 0 || f.EngagedConversionRate != 0 {
		t.Fatalf("expected zero rates, got %+v", f)
	}
	if f.Attendance == nil || f.Attendance.Rate != 0 || f.Attendance.AverageSpend != 0 {
		t.Fatalf("expected zero attendance, got %+v", f.Attendance)
	}
	if f.CampaignShareOfBooked != 0 {
		t.Fatalf("expected zero campaign share, got %v", f.CampaignShareOfBooked)
	}
}

func TestAggregatePrefersProviderTotals(t *testing.T) {
	result := MatchResult{Matches: []Match{
		{Recipient: Recipient{State: StateRead}},
		{Recipient: Recipient{State: StateFailed}},
	}}

	f := Aggregate(result, ModePreEvent, ProviderTotals{Sent: 250, Read: 100})

	if f.Sent != 250 || f.Read != 100 || f.ReadRate != 40 {
		t.Fatalf("expected provider totals to be used, got %+v", f)
	}
	if f.Failed != 1 {
		t.Fatalf("expected failed count from records, got %d", f.Failed)
	}
}
