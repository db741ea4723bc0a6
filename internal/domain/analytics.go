package domain

import "time"

// Period is a calendar-month window, derived from a reference time rather
// than stored. Start is the first instant of the month in UTC.
type Period struct {
	Start time.Time
	Days  int
}

// PeriodFor returns the calendar month containing now shifted back by
// monthsAgo months. Truncation happens in UTC so month bucketing cannot
// drift across timezones.
func PeriodFor(now time.Time, monthsAgo int) Period {
	t := now.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -monthsAgo, 0)
	next := start.AddDate(0, 1, 0)
	return Period{Start: start, Days: int(next.Sub(start).Hours() / 24)}
}

// End returns the first instant of the following month.
func (p Period) End() time.Time {
	return p.Start.AddDate(0, 1, 0)
}

// KPIRecord is the derived metric bundle for one hotel and one period.
// Degraded marks records built from fallback defaults after an aggregate
// query failed, so a genuine zero stays distinguishable from a substitute.
type KPIRecord struct {
	TotalBookings float64 `json:"totalBookings"`
	Revenue       float64 `json:"revenue"`
	OccupancyRate float64 `json:"occupancyRate"`
	AverageRating float64 `json:"averageRating"`
	RevPAR        float64 `json:"revpar"`
	ADR           float64 `json:"adr"`
	GOPPAR        float64 `json:"goppar"`
	Degraded      bool    `json:"degraded,omitempty"`
}

// Trend direction tags for period-over-period comparisons
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// FieldComparison is the change of a single KPI field between two periods
type FieldComparison struct {
	Change float64 `json:"change"`
	Trend  string  `json:"trend"`
}

// KPIComparison pairs a current-period record with per-field changes
// against the previous period. Computed fresh per request, never persisted.
type KPIComparison struct {
	Current     KPIRecord                  `json:"current"`
	Comparisons map[string]FieldComparison `json:"comparisons"`
}

// TrendPoint is one month of a chronological series. Months without
// qualifying bookings still appear with a zero value.
type TrendPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// DistributionSlice is one named share of a whole (room types, booking
// sources, nationalities). Order follows the query layer's ordering.
type DistributionSlice struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// LeadTimeStats reports average booking lead time in days
type LeadTimeStats struct {
	AvgLeadTimeDays float64 `json:"avgLeadTime"`
	TotalBookings   int64   `json:"totalBookings"`
	Degraded        bool    `json:"degraded,omitempty"`
}

// CancellationStats reports the cancellation rate for a period
type CancellationStats struct {
	Rate      float64 `json:"cancellationRate"`
	Total     int64   `json:"totalBookings"`
	Cancelled int64   `json:"cancelledBookings"`
	Degraded  bool    `json:"degraded,omitempty"`
}

// KPIAggregates is the raw aggregate row for one hotel and period as
// returned by the query layer, before derivation.
type KPIAggregates struct {
	TotalBookings      int64
	Revenue            float64
	ADR                float64
	AverageRating      float64
	OccupiedRoomNights int64
}

// MonthValue is a sparse monthly aggregate keyed by first-of-month (UTC)
type MonthValue struct {
	Month time.Time
	Value float64
}

// LeadTimeAggregate is the raw lead-time aggregate for a hotel
type LeadTimeAggregate struct {
	AvgDays       float64
	TotalBookings int64
	NegativeRaw   int64 // bookings whose check-in precedes the booking date
}

// KPISnapshot is a persisted daily KPI reading, written by the snapshot
// worker and read back by the occupancy/ADR trend charts.
type KPISnapshot struct {
	HotelID       int64
	Date          time.Time
	OccupancyRate float64
	ADR           float64
	RevPAR        float64
	Revenue       float64
}

// AnalyticsRepository defines the aggregate-query contract the metric
// derivation layer consumes. Implementations own the SQL; the service owns
// the formulas.
type AnalyticsRepository interface {
	KPIAggregates(hotelID int64, period Period) (*KPIAggregates, error)
	HotelTotalRooms(hotelID int64) (int, error)
	MonthlyRevenue(hotelID int64, since time.Time) ([]MonthValue, error)
	MonthlyBookings(hotelID int64, since time.Time) ([]MonthValue, error)
	RoomTypeDistribution(hotelID int64) ([]DistributionSlice, error)
	BookingSourceDistribution(hotelID int64) ([]DistributionSlice, error)
	GuestNationalityDistribution(hotelID int64) ([]DistributionSlice, error)
	LeadTime(hotelID int64, strict bool) (*LeadTimeAggregate, error)
	CancellationCounts(hotelID int64, period Period) (total, cancelled int64, err error)
}

// SnapshotRepository persists and reads daily KPI snapshots
type SnapshotRepository interface {
	Upsert(snap *KPISnapshot) error
	Recent(hotelID int64, limit int) ([]*KPISnapshot, error)
}
