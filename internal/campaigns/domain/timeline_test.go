package domain

import (
	"testing"
	"time"
)

func at(hour int) *time.Time {
	t := time.Date(2025, 3, 10, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildTimelineOrdering(t *testing.T) {
	sentAt := *at(12)
	reservations := []Reservation{
		{ID: "late", CreatedAt: at(20), PartySize: 4},
		{ID: "early", CreatedAt: at(8), PartySize: 2},
		{ID: "undated", PartySize: 6},
		{ID: "same-instant", CreatedAt: at(12), PartySize: 3},
		{ID: "mid", CreatedAt: at(10), PartySize: 5},
	}

	tl := BuildTimeline(sentAt, reservations, map[string]struct{}{"mid": {}})

	for i := 1; i < len(tl.Entries); i++ {
		if tl.Entries[i].At.Before(tl.Entries[i-1].At) {
			t.Fatalf("timeline not ordered at %d: %v after %v", i, tl.Entries[i].At, tl.Entries[i-1].At)
		}
	}

	wantKinds := []string{"early", "mid", "", "same-instant", "late"}
	if len(tl.Entries) != len(wantKinds) {
		t.Fatalf("expected %d entries, got %d", len(wantKinds), len(tl.Entries))
	}
	for i, want := range wantKinds {
		entry := tl.Entries[i]
		if want == "" {
			if entry.Kind != EntryCampaignSent {
				t.Fatalf("expected campaign marker at %d, got %+v", i, entry)
			}
			continue
		}
		if entry.Reservation == nil || entry.Reservation.ID != want {
			t.Fatalf("expected %s at %d, got %+v", want, i, entry)
		}
	}

	s := tl.Summary
	if s.Before != 2 || s.After != 2 || s.Undated != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.Before+s.After != len(reservations)-s.Undated {
		t.Fatalf("expected before+after to equal the dated reservations")
	}
	if s.BeforePeople != 7 || s.AfterPeople != 7 {
		t.Fatalf("unexpected party sizes %+v", s)
	}
	if s.GrowthPercent == nil || *s.GrowthPercent != 100 {
		t.Fatalf("expected 100%% growth, got %v", s.GrowthPercent)
	}
	if tl.Entries[1].InCampaign {
		t.Fatalf("expected mid to be flagged outside the campaign")
	}
}

func TestBuildTimelineGrowthNotApplicable(t *testing.T) {
	tl := BuildTimeline(*at(12), []Reservation{{ID: "a", CreatedAt: at(13)}}, nil)

	if tl.Summary.GrowthPercent != nil {
		t.Fatalf("expected growth to be n/a with no prior reservations")
	}
	if len(tl.Entries) != 2 || tl.Entries[0].Kind != EntryCampaignSent {
		t.Fatalf("expected marker followed by one reservation, got %+v", tl.Entries)
	}
}

func TestBuildTimelineGrowthRounding(t *testing.T) {
	reservations := []Reservation{
		{ID: "b1", CreatedAt: at(1)}, {ID: "b2", CreatedAt: at(2)}, {ID: "b3", CreatedAt: at(3)},
		{ID: "a1", CreatedAt: at(13)},
	}

	tl := BuildTimeline(*at(12), reservations, nil)

	if tl.Summary.GrowthPercent == nil || *tl.Summary.GrowthPercent != 33.3 {
		t.Fatalf("expected 33.3, got %v", tl.Summary.GrowthPercent)
	}
}
