package transport

import "time"

// ReportRequest is the query of GET /campaigns/:id/report.
type ReportRequest struct {
	BarID     int    `form:"barId" validate:"omitempty,min=1"`
	EventDate string `form:"eventDate" validate:"omitempty,isodate"`
	Mode      string `form:"mode" validate:"omitempty,oneof=pre_event post_event"`
	Reconcile *bool  `form:"reconcile"`
}

// ShouldReconcile defaults to true.
func (r ReportRequest) ShouldReconcile() bool {
	return r.Reconcile == nil || *r.Reconcile
}

// ListCampaignsRequest is the query of GET /campaigns.
type ListCampaignsRequest struct {
	BarID    int  `form:"barId" validate:"omitempty,min=1"`
	Limit    int  `form:"limit" validate:"omitempty,min=1,max=200"`
	MinSends *int `form:"minSends" validate:"omitempty,min=0"`
}

type CampaignResponse struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	SentAt   time.Time `json:"sentAt"`
	Template string    `json:"template,omitempty"`
}

type WindowResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ReservationResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	Phone     string     `json:"phone"`
	Status    string     `json:"status"`
	EventDate string     `json:"eventDate"`
	EventTime string     `json:"eventTime,omitempty"`
	PartySize int        `json:"partySize"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type VisitResponse struct {
	FirstVisit string  `json:"firstVisit"`
	LastVisit  string  `json:"lastVisit"`
	Visits     int     `json:"visits"`
	Amount     float64 `json:"amount"`
}

type RecipientResponse struct {
	ContactID   string               `json:"contactId,omitempty"`
	Name        string               `json:"name,omitempty"`
	Phone       string               `json:"phone,omitempty"`
	PhoneE164   string               `json:"phoneE164,omitempty"`
	State       string               `json:"state"`
	Source      string               `json:"source"`
	SentAt      time.Time            `json:"sentAt"`
	ReadAt      *time.Time           `json:"readAt,omitempty"`
	Reservation *ReservationResponse `json:"reservation,omitempty"`
	Visit       *VisitResponse       `json:"visit,omitempty"`
	// Other reservations on the same phone that lost the tie-break.
	DiscardedCandidates []ReservationResponse `json:"discardedCandidates,omitempty"`
}

type StatusBreakdownResponse struct {
	Confirmed int  `json:"confirmed"`
	Pending   int  `json:"pending"`
	Canceled  int  `json:"canceled"`
	Other     int  `json:"other"`
	Seated    *int `json:"seated,omitempty"`
	NoShow    *int `json:"noShow,omitempty"`
}

// AttendanceResponse leaves the visit-derived fields out when the visit
// ledger could not be read.
type AttendanceResponse struct {
	Attended      int      `json:"attended"`
	Rate          float64  `json:"rate"`
	VisitsMatched *int     `json:"visitsMatched,omitempty"`
	Revenue       *float64 `json:"revenue,omitempty"`
	AverageSpend  *float64 `json:"averageSpend,omitempty"`
}

type FunnelResponse struct {
	Records                   int                     `json:"records"`
	Sent                      int                     `json:"sent"`
	Delivered                 int                     `json:"delivered"`
	Read                      int                     `json:"read"`
	Failed                    int                     `json:"failed"`
	InFlight                  int                     `json:"inFlight"`
	DeliveryRate              float64                 `json:"deliveryRate"`
	ReadRate                  float64                 `json:"readRate"`
	Reserved                  int                     `json:"reserved"`
	ReservationRate           float64                 `json:"reservationRate"`
	ReadAndReserved           int                     `json:"readAndReserved"`
	EngagedConversionRate     float64                 `json:"engagedConversionRate"`
	ReceivedAndReserved       int                     `json:"receivedAndReserved"`
	PeopleReadAndReserved     int                     `json:"peopleReadAndReserved"`
	PeopleReceivedAndReserved int                     `json:"peopleReceivedAndReserved"`
	OutsideCampaign           int                     `json:"outsideCampaign"`
	PeopleOutside             int                     `json:"peopleOutside"`
	CampaignShareOfBooked     float64                 `json:"campaignShareOfBooked"`
	Statuses                  StatusBreakdownResponse `json:"statuses"`
	Attendance                *AttendanceResponse     `json:"attendance,omitempty"`
}

type TimelineEntryResponse struct {
	At          time.Time            `json:"at"`
	Kind        string               `json:"kind"`
	Side        string               `json:"side,omitempty"`
	InCampaign  bool                 `json:"inCampaign,omitempty"`
	Reservation *ReservationResponse `json:"reservation,omitempty"`
}

type TimelineSummaryResponse struct {
	Before        int      `json:"before"`
	After         int      `json:"after"`
	Undated       int      `json:"undated"`
	BeforePeople  int      `json:"beforePeople"`
	AfterPeople   int      `json:"afterPeople"`
	GrowthPercent *float64 `json:"growthPercent"`
	Growth        string   `json:"growth"`
}

type TimelineResponse struct {
	Entries []TimelineEntryResponse `json:"entries"`
	Summary TimelineSummaryResponse `json:"summary"`
}

type EngagedContactResponse struct {
	Name        string  `json:"name,omitempty"`
	Phone       string  `json:"phone"`
	PartySize   int     `json:"partySize"`
	EventDate   string  `json:"eventDate"`
	EventTime   string  `json:"eventTime,omitempty"`
	Status      string  `json:"status"`
	Read        bool    `json:"read"`
	Attended    *bool   `json:"attended,omitempty"`
	AmountSpent float64 `json:"amountSpent,omitempty"`
}

type DiagnosticsResponse struct {
	Records               int             `json:"records"`
	PhonesFromChatID      int             `json:"phonesFromChatId"`
	PhonesFromDirectory   int             `json:"phonesFromDirectory"`
	Unresolved            int             `json:"unresolved"`
	DirectoryFallback     bool            `json:"directoryFallback"`
	DirectoryBatches      int             `json:"directoryBatches"`
	DirectoryBatchFailed  int             `json:"directoryBatchesFailed"`
	DeliveryCapReached    bool            `json:"deliveryCapReached"`
	ReservationsInWindow  int             `json:"reservationsInWindow"`
	VisitsInWindow        int             `json:"visitsInWindow"`
	ReservationIndexKeys  int             `json:"reservationIndexKeys"`
	VisitIndexKeys        int             `json:"visitIndexKeys"`
	MatchedReservations   int             `json:"matchedReservations"`
	MatchedVisits         int             `json:"matchedVisits"`
	AmbiguousMatches      int             `json:"ambiguousMatches"`
	Window                *WindowResponse `json:"window,omitempty"`
}

// ReportResponse is the reconciliation report of one campaign. Post-event
// fields are absent, not zero, when they were not computed.
type ReportResponse struct {
	BarID               int                      `json:"barId"`
	Campaign            CampaignResponse         `json:"campaign"`
	Mode                string                   `json:"mode"`
	IncludesVisits      bool                     `json:"includesVisits"`
	Reconciled          bool                     `json:"reconciled"`
	Funnel              *FunnelResponse          `json:"funnel,omitempty"`
	Timeline            *TimelineResponse        `json:"timeline,omitempty"`
	Recipients          []RecipientResponse      `json:"recipients"`
	OutsideCampaign     []ReservationResponse    `json:"outsideCampaign,omitempty"`
	ReadAndReserved     []EngagedContactResponse `json:"readAndReserved,omitempty"`
	ReceivedAndReserved []EngagedContactResponse `json:"receivedAndReserved,omitempty"`
	Diagnostics         DiagnosticsResponse      `json:"diagnostics"`
	Notes               []string                 `json:"notes,omitempty"`
}

type CampaignSummaryResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"createdAt"`
	Template   string    `json:"template,omitempty"`
	Scheduled  int       `json:"scheduled"`
	Sent       int       `json:"sent"`
	Read       int       `json:"read"`
	Failed     int       `json:"failed"`
	Processing int       `json:"processing"`
	ReadRate   float64   `json:"readRate"`
	Detailed   bool      `json:"detailed"`
}

type ListCampaignsResponse struct {
	BarID     int                       `json:"barId"`
	Campaigns []CampaignSummaryResponse `json:"campaigns"`
	Fetched   int                       `json:"fetched"`
	MinSends  int                       `json:"minSends"`
}
