package service

import (
	"math"
	"strconv"
	"time"

	"barops_backend/internal/campaigns/domain"
	"barops_backend/internal/campaigns/repository"
	"barops_backend/internal/campaigns/transport"
	"barops_backend/internal/umbler"
)

func toDeliveryRecords(messages []umbler.MessageSent, campaignSentAt time.Time) []domain.DeliveryRecord {
	records := make([]domain.DeliveryRecord, 0, len(messages))
	for _, msg := range messages {
		rec := domain.DeliveryRecord{
			MessageID:   msg.MessageID,
			ContactID:   msg.ContactID,
			ChatID:      msg.ChatID,
			ContactName: msg.ContactName,
			State:       domain.ParseDeliveryState(msg.State),
			SentAt:      campaignSentAt,
		}
		// eventAtUTC is the time of the message's latest state change.
		if !msg.EventAtUTC.IsZero() {
			if rec.State == domain.StateRead {
				readAt := msg.EventAtUTC.Time
				rec.ReadAt = &readAt
			} else {
				rec.SentAt = msg.EventAtUTC.Time
			}
		}
		records = append(records, rec)
	}
	return records
}

func toReservations(rows []repository.Reservation) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Reservation{
			ID:            row.ReservationID,
			Phone:         row.CustomerPhone,
			Status:        domain.NormalizeStatus(row.Status),
			EventDate:     row.ReservationDate,
			EventTime:     deref(row.ReservationTime),
			PartySize:     row.People,
			CustomerName:  deref(row.CustomerName),
			CustomerEmail: deref(row.CustomerEmail),
			CreatedAt:     row.CreatedAt,
		})
	}
	return out
}

func toVisits(rows []repository.Visit) []domain.Visit {
	out := make([]domain.Visit, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Visit{Phone: row.Phone, VisitDate: row.BusinessDate, Amount: row.Amount})
	}
	return out
}

func toCampaign(session umbler.Session) transport.CampaignResponse {
	resp := transport.CampaignResponse{
		ID:     session.ID,
		Title:  session.Title,
		SentAt: session.CreatedAtUTC.Time,
	}
	if session.Template != nil {
		resp.Template = session.Template.Label
	}
	return resp
}

func toCampaignSummary(session umbler.Session, detailed bool) transport.CampaignSummaryResponse {
	summary := transport.CampaignSummaryResponse{
		ID:         session.ID,
		Title:      session.Title,
		CreatedAt:  session.CreatedAtUTC.Time,
		Scheduled:  session.TotalScheduled,
		Sent:       session.Sends(),
		Read:       session.TotalRead,
		Failed:     session.TotalFailed,
		Processing: session.TotalProcessing,
		Detailed:   detailed,
	}
	if session.Template != nil {
		summary.Template = session.Template.Label
	}
	if summary.Sent > 0 {
		summary.ReadRate = math.Round(float64(summary.Read)/float64(summary.Sent)*10000) / 100
	}
	return summary
}

func toRecipient(match domain.Match) transport.RecipientResponse {
	r := match.Recipient
	resp := transport.RecipientResponse{
		ContactID: r.ContactID,
		Name:      r.DisplayName,
		Phone:     r.Identity.Canonical,
		PhoneE164: r.Identity.E164(),
		State:     string(r.State),
		Source:    string(r.Source),
		SentAt:    r.SentAt,
		ReadAt:    r.ReadAt,
	}
	if match.Reservation != nil {
		res := toReservation(*match.Reservation)
		resp.Reservation = &res
	}
	if match.Visit != nil {
		resp.Visit = &transport.VisitResponse{
			FirstVisit: match.Visit.FirstVisit,
			LastVisit:  match.Visit.LastVisit,
			Visits:     match.Visit.Visits,
			Amount:     match.Visit.Amount,
		}
	}
	if len(match.Discarded) > 0 {
		resp.DiscardedCandidates = toReservationList(match.Discarded)
	}
	return resp
}

func toReservation(res domain.Reservation) transport.ReservationResponse {
	return transport.ReservationResponse{
		ID:        res.ID,
		Name:      res.CustomerName,
		Phone:     res.Phone,
		Status:    string(res.Status),
		EventDate: res.EventDate,
		EventTime: res.EventTime,
		PartySize: res.PartySize,
		CreatedAt: res.CreatedAt,
	}
}

func toReservationList(list []domain.Reservation) []transport.ReservationResponse {
	out := make([]transport.ReservationResponse, 0, len(list))
	for _, res := range list {
		out = append(out, toReservation(res))
	}
	return out
}

func toFunnel(f domain.FunnelMetrics, visitsDegraded bool) *transport.FunnelResponse {
	resp := &transport.FunnelResponse{
		Records:                   f.Records,
		Sent:                      f.Sent,
		Delivered:                 f.Delivered,
		Read:                      f.Read,
		Failed:                    f.Failed,
		InFlight:                  f.InFlight,
		DeliveryRate:              f.DeliveryRate,
		ReadRate:                  f.ReadRate,
		Reserved:                  f.Reserved,
		ReservationRate:           f.ReservationRate,
		ReadAndReserved:           f.ReadAndReserved,
		EngagedConversionRate:     f.EngagedConversionRate,
		ReceivedAndReserved:       f.ReceivedAndReserved,
		PeopleReadAndReserved:     f.PeopleReadAndReserved,
		PeopleReceivedAndReserved: f.PeopleReceivedAndReserved,
		OutsideCampaign:           f.OutsideCampaign,
		PeopleOutside:             f.PeopleOutside,
		CampaignShareOfBooked:     f.CampaignShareOfBooked,
		Statuses: transport.StatusBreakdownResponse{
			Confirmed: f.Statuses.Confirmed,
			Pending:   f.Statuses.Pending,
			Canceled:  f.Statuses.Canceled,
			Other:     f.Statuses.Other,
		},
	}
	if a := f.Attendance; a != nil {
		seated, noShow := a.Seated, a.NoShow
		resp.Statuses.Seated = &seated
		resp.Statuses.NoShow = &noShow
		resp.Attendance = &transport.AttendanceResponse{
			Attended: a.Attended,
			Rate:     a.Rate,
		}
		if !visitsDegraded {
			matched, revenue, avg := a.VisitsMatched, a.Revenue, a.AverageSpend
			resp.Attendance.VisitsMatched = &matched
			resp.Attendance.Revenue = &revenue
			resp.Attendance.AverageSpend = &avg
		}
	}
	return resp
}

func toTimeline(tl domain.Timeline) *transport.TimelineResponse {
	entries := make([]transport.TimelineEntryResponse, 0, len(tl.Entries))
	for _, e := range tl.Entries {
		entry := transport.TimelineEntryResponse{
			At:         e.At,
			Kind:       string(e.Kind),
			Side:       string(e.Side),
			InCampaign: e.InCampaign,
		}
		if e.Reservation != nil {
			res := toReservation(*e.Reservation)
			entry.Reservation = &res
		}
		entries = append(entries, entry)
	}

	s := tl.Summary
	growth := "n/a"
	if s.GrowthPercent != nil {
		growth = formatPercent(*s.GrowthPercent)
	}
	return &transport.TimelineResponse{
		Entries: entries,
		Summary: transport.TimelineSummaryResponse{
			Before:        s.Before,
			After:         s.After,
			Undated:       s.Undated,
			BeforePeople:  s.BeforePeople,
			AfterPeople:   s.AfterPeople,
			GrowthPercent: s.GrowthPercent,
			Growth:        growth,
		},
	}
}

func toEngaged(list []domain.EngagedContact, mode domain.Mode) []transport.EngagedContactResponse {
	out := make([]transport.EngagedContactResponse, 0, len(list))
	for _, c := range list {
		item := transport.EngagedContactResponse{
			Name:      c.Name,
			Phone:     c.Phone,
			PartySize: c.PartySize,
			EventDate: c.EventDate,
			EventTime: c.EventTime,
			Status:    string(c.Status),
			Read:      c.Read,
		}
		if mode.IncludesVisits() {
			attended := c.Attended
			item.Attended = &attended
			item.AmountSpent = c.AmountSpent
		}
		out = append(out, item)
	}
	return out
}

func buildReport(barID int, session umbler.Session, a domain.Analysis, r *run) transport.ReportResponse {
	recipients := make([]transport.RecipientResponse, 0, len(a.Match.Matches))
	for _, m := range a.Match.Matches {
		recipients = append(recipients, toRecipient(m))
	}

	return transport.ReportResponse{
		BarID:               barID,
		Campaign:            toCampaign(session),
		Mode:                string(a.Mode),
		IncludesVisits:      a.Mode.IncludesVisits(),
		Reconciled:          true,
		Funnel:              toFunnel(a.Funnel, r.visitsDegraded),
		Timeline:            toTimeline(a.Timeline),
		Recipients:          recipients,
		OutsideCampaign:     toReservationList(a.Match.OutsideCampaign),
		ReadAndReserved:     toEngaged(a.ReadAndReserved, a.Mode),
		ReceivedAndReserved: toEngaged(a.ReceivedAndReserved, a.Mode),
		Diagnostics:         r.diagnostics,
		Notes:               r.notes,
	}
}

func buildRecipientsOnly(barID int, campaign domain.Campaign, session umbler.Session, mode domain.Mode, recipients []domain.Recipient, r *run) transport.ReportResponse {
	out := make([]transport.RecipientResponse, 0, len(recipients))
	for _, rec := range recipients {
		out = append(out, toRecipient(domain.Match{Recipient: rec}))
	}
	resp := transport.ReportResponse{
		BarID:          barID,
		Campaign:       toCampaign(session),
		Mode:           string(mode),
		IncludesVisits: mode.IncludesVisits(),
		Recipients:     out,
		Diagnostics:    r.diagnostics,
		Notes:          r.notes,
	}
	resp.Campaign.ID = campaign.ID
	return resp
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
