package service

import (
	"testing"
	"time"

	"barops_backend/internal/campaigns/domain"
	"barops_backend/internal/umbler"
)

func TestToDeliveryRecordsTimes(t *testing.T) {
	event := sentAt.Add(90 * time.Minute)
	records := toDeliveryRecords([]umbler.MessageSent{
		{ContactID: "read", State: "Read", EventAtUTC: umbler.UTCTime{Time: event}},
		{ContactID: "delivered", State: "Delivered", EventAtUTC: umbler.UTCTime{Time: event}},
		{ContactID: "undated", State: "Sent"},
	}, sentAt)

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	read := records[0]
	if read.State != domain.StateRead || !read.SentAt.Equal(sentAt) || read.ReadAt == nil || !read.ReadAt.Equal(event) {
		t.Fatalf("read record: %+v", read)
	}
	if !records[1].SentAt.Equal(event) || records[1].ReadAt != nil {
		t.Fatalf("delivered record: %+v", records[1])
	}
	if !records[2].SentAt.Equal(sentAt) {
		t.Fatalf("undated record should fall back to the campaign send time: %+v", records[2])
	}
}

func TestToCampaignSummaryReadRate(t *testing.T) {
	summary := toCampaignSummary(umbler.Session{ID: "s1", TotalScheduled: 300, TotalRead: 100}, false)
	if summary.Sent != 300 {
		t.Fatalf("expected sent 300, got %d", summary.Sent)
	}
	if summary.ReadRate != 33.33 {
		t.Fatalf("expected read rate 33.33, got %v", summary.ReadRate)
	}

	empty := toCampaignSummary(umbler.Session{ID: "s2"}, false)
	if empty.ReadRate != 0 {
		t.Fatalf("expected 0 read rate without sends, got %v", empty.ReadRate)
	}
}

func TestFormatPercent(t *testing.T) {
	if got := formatPercent(12.5); got != "12.5%" {
		t.Fatalf("got %q", got)
	}
}
