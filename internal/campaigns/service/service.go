package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barops_backend/internal/campaigns/domain"
	"barops_backend/internal/campaigns/repository"
	"barops_backend/internal/campaigns/transport"
	"barops_backend/internal/umbler"
	"barops_backend/platform/apperr"
	"barops_backend/platform/config"
	"barops_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const (
	defaultListLimit         = 50
	providerNotConfiguredMsg = "messaging provider not configured for this bar"
)

// DeliverySource is the messaging provider.
type DeliverySource interface {
	ListSessions(ctx context.Context, creds umbler.Credentials, take int) ([]umbler.Session, error)
	GetSession(ctx context.Context, creds umbler.Credentials, sessionID string) (umbler.Session, error)
	ListMessagesSent(ctx context.Context, creds umbler.Credentials, sessionID string, skip, take int) ([]umbler.MessageSent, error)
}

// Store is the database side: credentials, conversation directory and ledgers.
type Store interface {
	GetProviderConfig(ctx context.Context, barID int) (repository.ProviderConfig, error)
	PhonesByContactIDs(ctx context.Context, barID int, contactIDs []string) (map[string]string, error)
	ListReservations(ctx context.Context, barID int, from, to string) ([]repository.Reservation, error)
	ListVisits(ctx context.Context, barID int, from, to string) ([]repository.Visit, error)
}

// Service runs campaign reconciliation and listings.
type Service struct {
	source   DeliverySource
	store    Store
	cfg      config.ReconciliationConfig
	fallback umbler.Credentials
	log      *logger.Logger
	now      func() time.Time
}

// New creates a campaigns service. fallback credentials are used for bars
// without a stored provider configuration.
func New(source DeliverySource, store Store, cfg config.ReconciliationConfig, fallback umbler.Credentials, log *logger.Logger) *Service {
	return &Service{
		source:   source,
		store:    store,
		cfg:      cfg,
		fallback: fallback,
		log:      log,
		now:      time.Now,
	}
}

// run carries the notes and counters of one report.
type run struct {
	barID       int
	log         *logger.Logger
	notes       []string
	diagnostics transport.DiagnosticsResponse

	// visitsDegraded is set when the visit ledger could not be read.
	visitsDegraded bool
}

func (r *run) degrade(source string, err error) {
	r.log.UpstreamDegraded(source, err)
	r.notes = append(r.notes, fmt.Sprintf("%s unavailable: data omitted", source))
}

func (r *run) degradeStore(operation, source string, err error) {
	r.log.DatabaseError(operation, err)
	r.degrade(source, err)
}

// Report reconciles one campaign against the bar's ledgers.
func (s *Service) Report(ctx context.Context, campaignID string, req transport.ReportRequest) (transport.ReportResponse, error) {
	barID := s.barID(req.BarID)
	r := &run{barID: barID, log: s.log.WithContext(ctx).WithBarID(barID)}

	creds, err := s.credentials(ctx, barID)
	if err != nil {
		return transport.ReportResponse{}, err
	}

	session, err := s.source.GetSession(ctx, creds, campaignID)
	if errors.Is(err, umbler.ErrSessionNotFound) {
		return transport.ReportResponse{}, apperr.NotFound("campaign not found")
	}
	if err != nil {
		return transport.ReportResponse{}, apperr.Upstream("failed to fetch campaign from messaging provider", err)
	}

	messages, capped, err := s.fetchDeliveryRecords(ctx, creds, campaignID)
	if err != nil {
		return transport.ReportResponse{}, apperr.Upstream("failed to fetch campaign delivery records", err)
	}
	r.diagnostics.DeliveryCapReached = capped
	if capped {
		r.notes = append(r.notes, fmt.Sprintf("delivery records truncated at %d", s.cfg.GetDeliveryHardCap()))
	}

	records := toDeliveryRecords(messages, session.CreatedAtUTC.Time)
	recipients := s.resolve(ctx, r, records)

	explicit, _ := domain.ParseMode(req.Mode)
	loc := s.cfg.GetAnalysisLocation()
	today := s.now().In(loc)
	mode := domain.SelectMode(explicit, req.EventDate, today)

	campaign := domain.Campaign{ID: session.ID, Title: session.Title, SentAt: session.CreatedAtUTC.Time}

	if !req.ShouldReconcile() {
		return buildRecipientsOnly(barID, campaign, session, mode, recipients, r), nil
	}

	window := domain.AnalysisWindow(req.EventDate, campaign.SentAt, today, loc)
	r.diagnostics.Window = &transport.WindowResponse{From: window.From, To: window.To}

	reservations := s.reservations(ctx, r, window)
	var visits []domain.Visit
	if mode.IncludesVisits() {
		visits = s.visits(ctx, r, window)
	}

	analysis := domain.Analyze(domain.AnalysisInput{
		Campaign:     campaign,
		Mode:         mode,
		Recipients:   recipients,
		Reservations: reservations,
		Visits:       visits,
		Totals:       providerTotals(session),
	})

	stats := analysis.Match.Stats
	r.diagnostics.ReservationIndexKeys = stats.ReservationKeys
	r.diagnostics.VisitIndexKeys = stats.VisitKeys
	r.diagnostics.MatchedReservations = stats.MatchedReservations
	r.diagnostics.MatchedVisits = stats.MatchedVisits
	r.diagnostics.AmbiguousMatches = stats.Ambiguous

	r.log.ReconciliationSummary(campaign.ID, len(records), len(records)-r.diagnostics.Unresolved,
		len(reservations), stats.MatchedReservations, string(mode))

	return buildReport(barID, session, analysis, r), nil
}

// fetchDeliveryRecords pages through the session's delivery records until a
// short page or the hard cap. Any page failure fails the whole fetch. The
// result is only reported as capped when records exist past the cap.
func (s *Service) fetchDeliveryRecords(ctx context.Context, creds umbler.Credentials, sessionID string) ([]umbler.MessageSent, bool, error) {
	take := s.cfg.GetDeliveryPageSize()
	hardCap := s.cfg.GetDeliveryHardCap()

	all := make([]umbler.MessageSent, 0, take)
	for skip := 0; skip < hardCap; {
		page, err := s.source.ListMessagesSent(ctx, creds, sessionID, skip, take)
		if err != nil {
			return nil, false, fmt.Errorf("page at offset %d: %w", skip, err)
		}
		all = append(all, page...)
		if len(page) < take {
			return all, false, nil
		}
		skip += len(page)
	}

	if len(all) > hardCap {
		return all[:hardCap], true, nil
	}

	next, err := s.source.ListMessagesSent(ctx, creds, sessionID, hardCap, 1)
	if err != nil {
		return nil, false, fmt.Errorf("page at offset %d: %w", hardCap, err)
	}
	return all, len(next) > 0, nil
}

func (s *Service) resolve(ctx context.Context, r *run, records []domain.DeliveryRecord) []domain.Recipient {
	resolver := domain.Resolver{
		BatchSize:     s.cfg.GetDirectoryBatchSize(),
		CoverageRatio: s.cfg.GetFallbackCoverageRatio(),
		Lookup: func(ctx context.Context, ids []string) (map[string]string, error) {
			return s.store.PhonesByContactIDs(ctx, r.barID, ids)
		},
	}

	recipients, stats := resolver.Resolve(ctx, records)
	for _, batchErr := range stats.BatchErrors {
		r.log.DatabaseError("phones by contact ids", batchErr)
	}
	if stats.FailedBatches > 0 {
		r.notes = append(r.notes, fmt.Sprintf("conversation directory: %d of %d batches failed", stats.FailedBatches, stats.Batches))
	}

	r.diagnostics.Records = stats.Records
	r.diagnostics.PhonesFromChatID = stats.Direct
	r.diagnostics.PhonesFromDirectory = stats.Backfilled
	r.diagnostics.Unresolved = stats.Unresolved
	r.diagnostics.DirectoryFallback = stats.FallbackUsed
	r.diagnostics.DirectoryBatches = stats.Batches
	r.diagnostics.DirectoryBatchFailed = stats.FailedBatches
	return recipients
}

func (s *Service) reservations(ctx context.Context, r *run, window domain.Window) []domain.Reservation {
	rows, err := s.store.ListReservations(ctx, r.barID, window.From, window.To)
	if err != nil {
		r.degradeStore("list reservations", "reservation ledger", err)
		return nil
	}
	r.diagnostics.ReservationsInWindow = len(rows)
	return toReservations(rows)
}

func (s *Service) visits(ctx context.Context, r *run, window domain.Window) []domain.Visit {
	rows, err := s.store.ListVisits(ctx, r.barID, window.From, window.To)
	if err != nil {
		r.degradeStore("list visits", "visit ledger", err)
		r.visitsDegraded = true
		return []domain.Visit{}
	}
	r.diagnostics.VisitsInWindow = len(rows)
	return toVisits(rows)
}

// ListCampaigns lists the bar's real bulk campaigns, newest first, with the
// provider's aggregate counters.
func (s *Service) ListCampaigns(ctx context.Context, req transport.ListCampaignsRequest) (transport.ListCampaignsResponse, error) {
	barID := s.barID(req.BarID)
	log := s.log.WithContext(ctx).WithBarID(barID)

	creds, err := s.credentials(ctx, barID)
	if err != nil {
		return transport.ListCampaignsResponse{}, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	minSends := s.cfg.GetMinBulkSends()
	if req.MinSends != nil {
		minSends = *req.MinSends
	}

	sessions, err := s.source.ListSessions(ctx, creds, limit)
	if err != nil {
		return transport.ListCampaignsResponse{}, apperr.Upstream("failed to list campaigns from messaging provider", err)
	}

	bulk := make([]umbler.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.IsBulk(minSends) {
			bulk = append(bulk, session)
		}
	}

	detailed := make([]bool, len(bulk))
	concurrency := s.cfg.GetListingConcurrency()
	if concurrency <= 0 {
		concurrency = 5
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range bulk {
		i := i
		g.Go(func() error {
			detail, err := s.source.GetSession(gctx, creds, bulk[i].ID)
			if err != nil {
				log.Debug("campaign detail unavailable, using list row", "campaign_id", bulk[i].ID, "error", err)
				return nil
			}
			bulk[i] = bulk[i].Merge(detail)
			detailed[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := transport.ListCampaignsResponse{
		BarID:     barID,
		Campaigns: make([]transport.CampaignSummaryResponse, 0, len(bulk)),
		Fetched:   len(sessions),
		MinSends:  minSends,
	}
	for i, session := range bulk {
		out.Campaigns = append(out.Campaigns, toCampaignSummary(session, detailed[i]))
	}
	return out, nil
}

// DefaultBarID is the bar used when a request names none.
func (s *Service) DefaultBarID() int {
	return s.cfg.GetDefaultBarID()
}

func (s *Service) barID(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.cfg.GetDefaultBarID()
}

func (s *Service) credentials(ctx context.Context, barID int) (umbler.Credentials, error) {
	cfg, err := s.store.GetProviderConfig(ctx, barID)
	if err == nil {
		return umbler.Credentials{APIToken: cfg.APIToken, OrganizationID: cfg.OrganizationID}, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return umbler.Credentials{}, apperr.Wrap(apperr.KindInternal, "failed to load messaging provider configuration", err).WithOp("campaigns.credentials")
	}
	if s.fallback.APIToken != "" && s.fallback.OrganizationID != "" {
		return s.fallback, nil
	}
	return umbler.Credentials{}, apperr.BadRequest(providerNotConfiguredMsg)
}

func providerTotals(session umbler.Session) domain.ProviderTotals {
	sent := session.TotalSent
	if sent == 0 {
		sent = session.TotalScheduled
	}
	return domain.ProviderTotals{Sent: sent, Read: session.TotalRead, Failed: session.TotalFailed}
}
