package service

import (
	"log/slog"
	"math"
	"time"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/observability/metrics"
)

// MetricDefaults holds the configurable fallback constants used by metric
// derivation. The defaults mirror long-standing dashboard behavior: they
// are placeholder figures, not business-calibrated ones, and are kept for
// compatibility.
type MetricDefaults struct {
	GopparMargin            float64 // share of RevPAR treated as gross operating profit
	DefaultLeadTimeDays     float64 // substituted when the average fails the sanity cap
	LeadTimeSanityCapDays   float64 // averages above this are considered bad data
	DefaultCancellationRate float64 // reported when a period has no bookings at all
}

// DefaultMetricDefaults returns the compatibility defaults
func DefaultMetricDefaults() MetricDefaults {
	return MetricDefaults{
		GopparMargin:            0.7,
		DefaultLeadTimeDays:     18.0,
		LeadTimeSanityCapDays:   60.0,
		DefaultCancellationRate: 9.6,
	}
}

// AnalyticsService turns raw aggregate rows into KPI records, comparisons,
// and chart series. It is read-only and stateless; every call recomputes
// from current data.
//
// Aggregate failures degrade to zero-valued or fallback records flagged
// Degraded instead of propagating, so the dashboard renders partially
// rather than not at all.
type AnalyticsService struct {
	repo           domain.AnalyticsRepository
	snapshots      domain.SnapshotRepository
	defaults       MetricDefaults
	strictLeadTime bool
	logger         *slog.Logger
}

// NewAnalyticsService creates a new analytics service. snapshots may be
// nil when snapshot-backed trends are not served.
func NewAnalyticsService(
	repo domain.AnalyticsRepository,
	snapshots domain.SnapshotRepository,
	defaults MetricDefaults,
	strictLeadTime bool,
	logger *slog.Logger,
) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		repo:           repo,
		snapshots:      snapshots,
		defaults:       defaults,
		strictLeadTime: strictLeadTime,
		logger:         logger,
	}
}

// ComputeKPIs derives the KPI record for one hotel and period
func (s *AnalyticsService) ComputeKPIs(hotelID int64, period domain.Period) domain.KPIRecord {
	start := time.Now()
	defer func() { metrics.ObserveKPIComputation(time.Since(start)) }()

	agg, err := s.repo.KPIAggregates(hotelID, period)
	if err != nil {
		s.logger.Error("kpi aggregates unavailable, serving degraded defaults",
			slog.Int64("hotel_id", hotelID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveAggregateFallback("kpis")
		return domain.KPIRecord{Degraded: true}
	}

	totalRooms, err := s.repo.HotelTotalRooms(hotelID)
	if err != nil {
		s.logger.Error("hotel rooms unavailable, serving degraded defaults",
			slog.Int64("hotel_id", hotelID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveAggregateFallback("kpis")
		return domain.KPIRecord{Degraded: true}
	}

	return s.deriveKPIs(agg, totalRooms, period.Days)
}

// deriveKPIs applies the KPI formulas to raw aggregates. Zero denominators
// yield zero, never a division error.
func (s *AnalyticsService) deriveKPIs(agg *domain.KPIAggregates, totalRooms, daysInPeriod int) domain.KPIRecord {
	rec := domain.KPIRecord{
		TotalBookings: float64(agg.TotalBookings),
		Revenue:       agg.Revenue,
		ADR:           agg.ADR,
		AverageRating: agg.AverageRating,
	}

	availableNights := float64(totalRooms * daysInPeriod)
	if availableNights > 0 {
		rec.OccupancyRate = float64(agg.OccupiedRoomNights) / availableNights * 100
	}

	if totalRooms > 0 {
		rec.RevPAR = agg.Revenue / float64(totalRooms)
	}
	rec.GOPPAR = rec.RevPAR * s.defaults.GopparMargin

	return rec
}

// CompareKPIs computes per-field change and trend between two adjacent
// periods. A zero previous value with positive current reports 100% up;
// zero to zero is neutral. This avoids division by zero while still
// signaling growth from nothing.
func (s *AnalyticsService) CompareKPIs(current, previous domain.KPIRecord) domain.KPIComparison {
	fields := map[string][2]float64{
		"totalBookings": {current.TotalBookings, previous.TotalBookings},
		"revenue":       {current.Revenue, previous.Revenue},
		"occupancyRate": {current.OccupancyRate, previous.OccupancyRate},
		"averageRating": {current.AverageRating, previous.AverageRating},
		"revpar":        {current.RevPAR, previous.RevPAR},
		"adr":           {current.ADR, previous.ADR},
		"goppar":        {current.GOPPAR, previous.GOPPAR},
	}

	comparisons := make(map[string]domain.FieldComparison, len(fields))
	for name, pair := range fields {
		comparisons[name] = compareField(pair[0], pair[1])
	}

	return domain.KPIComparison{Current: current, Comparisons: comparisons}
}

func compareField(current, previous float64) domain.FieldComparison {
	if previous == 0 {
		if current > 0 {
			return domain.FieldComparison{Change: 100, Trend: domain.TrendUp}
		}
		return domain.FieldComparison{Change: 0, Trend: domain.TrendNeutral}
	}

	change := round1((current - previous) / previous * 100)
	trend := domain.TrendNeutral
	if change > 0 {
		trend = domain.TrendUp
	} else if change < 0 {
		trend = domain.TrendDown
	}
	return domain.FieldComparison{Change: change, Trend: trend}
}

// KPIsWithComparison computes the current calendar month's KPIs and the
// change against the previous month. now is captured once by the caller so
// both periods share a single reference even across a month boundary.
func (s *AnalyticsService) KPIsWithComparison(hotelID int64, now time.Time) domain.KPIComparison {
	current := s.ComputeKPIs(hotelID, domain.PeriodFor(now, 0))
	previous := s.ComputeKPIs(hotelID, domain.PeriodFor(now, 1))
	return s.CompareKPIs(current, previous)
}

// ComputeLeadTime returns the average booking lead time in days. Averages
// above the sanity cap are discarded in favor of the configured default;
// that guards against bad or synthetic data, not a statistical method.
func (s *AnalyticsService) ComputeLeadTime(hotelID int64) domain.LeadTimeStats {
	agg, err := s.repo.LeadTime(hotelID, s.strictLeadTime)
	if err != nil {
		s.logger.Error("lead time aggregates unavailable, serving degraded defaults",
			slog.Int64("hotel_id", hotelID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveAggregateFallback("lead_time")
		return domain.LeadTimeStats{AvgLeadTimeDays: s.defaults.DefaultLeadTimeDays, Degraded: true}
	}

	if s.strictLeadTime && agg.NegativeRaw > 0 {
		s.logger.Warn("bookings with check-in before booking date excluded from lead time",
			slog.Int64("hotel_id", hotelID),
			slog.Int64("count", agg.NegativeRaw),
		)
		metrics.ObserveLeadTimeIntegrity(agg.NegativeRaw)
	}

	avg := agg.AvgDays
	if avg > s.defaults.LeadTimeSanityCapDays || avg == 0 {
		avg = s.defaults.DefaultLeadTimeDays
	}

	return domain.LeadTimeStats{
		AvgLeadTimeDays: round1(avg),
		TotalBookings:   agg.TotalBookings,
	}
}

// ComputeCancellationRate returns the cancellation rate for bookings made
// within the period. An empty period reports the configured default rate,
// a documented placeholder rather than a derived value.
func (s *AnalyticsService) ComputeCancellationRate(hotelID int64, period domain.Period) domain.CancellationStats {
	total, cancelled, err := s.repo.CancellationCounts(hotelID, period)
	if err != nil {
		s.logger.Error("cancellation aggregates unavailable, serving degraded defaults",
			slog.Int64("hotel_id", hotelID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveAggregateFallback("cancellations")
		return domain.CancellationStats{Rate: s.defaults.DefaultCancellationRate, Degraded: true}
	}

	rate := s.defaults.DefaultCancellationRate
	if total > 0 {
		rate = float64(cancelled) / float64(total) * 100
	}

	return domain.CancellationStats{
		Rate:      round1(rate),
		Total:     total,
		Cancelled: cancelled,
	}
}

// RevenueTrend returns one point per calendar month in the window ending
// at now, oldest first. Months without bookings appear with value 0.
func (s *AnalyticsService) RevenueTrend(hotelID int64, months int, now time.Time) []domain.TrendPoint {
	since := domain.PeriodFor(now, months-1).Start
	values, err := s.repo.MonthlyRevenue(hotelID, since)
	if err != nil {
		s.logger.Error("revenue trend unavailable, serving empty series",
			slog.Int64("hotel_id", hotelID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveAggregateFallback("revenue_trend")
		values = nil
	}
	return fillMonths(values, months, now)
}

// BookingsByMonth returns one point per calendar month in the window
// ending at now, oldest first, gap-filled like RevenueTrend.
func (s *AnalyticsService) BookingsByMonth(hotelID int64, months int, now time.Time) []domain.TrendPoint {
	since := domain.PeriodFor(now, months-1).Start
	values, err := s.repo.MonthlyBookings(hotelID, since)
	if err != nil {
		s.logger.Error("bookings trend unavailable, serving empty series",
			slog.Int64("hotel_id", hotelID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveAggregateFallback("bookings_trend")
		values = nil
	}
	return fillMonths(values, months, now)
}

// fillMonths projects sparse monthly values onto a dense, chronologically
// ascending series of exactly `months` entries. The query layer may omit
// empty months; dropping them would misalign downstream charts.
func fillMonths(values []domain.MonthValue, months int, now time.Time) []domain.TrendPoint {
	byMonth := make(map[time.Time]float64, len(values))
	for _, v := range values {
		byMonth[v.Month] = v.Value
	}

	out := make([]domain.TrendPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		start := domain.PeriodFor(now, i).Start
		out = append(out, domain.TrendPoint{
			Label: start.Format("Jan 2006"),
			Value: byMonth[start],
		})
	}
	return out
}

// RoomTypeDistribution returns room-type booking shares
func (s *AnalyticsService) RoomTypeDistribution(hotelID int64) []domain.DistributionSlice {
	return s.distribution("room_types", func() ([]domain.DistributionSlice, error) {
		return s.repo.RoomTypeDistribution(hotelID)
	})
}

// BookingSourceDistribution returns booking-source shares
func (s *AnalyticsService) BookingSourceDistribution(hotelID int64) []domain.DistributionSlice {
	return s.distribution("booking_sources", func() ([]domain.DistributionSlice, error) {
		return s.repo.BookingSourceDistribution(hotelID)
	})
}

// GuestNationalityDistribution returns guest-nationality shares
func (s *AnalyticsService) GuestNationalityDistribution(hotelID int64) []domain.DistributionSlice {
	return s.distribution("guest_nationalities", func() ([]domain.DistributionSlice, error) {
		return s.repo.GuestNationalityDistribution(hotelID)
	})
}

func (s *AnalyticsService) distribution(name string, query func() ([]domain.DistributionSlice, error)) []domain.DistributionSlice {
	rows, err := query()
	if err != nil {
		s.logger.Error("distribution unavailable, serving empty set",
			slog.String("distribution", name),
			slog.String("error", err.Error()),
		)
		metrics.ObserveAggregateFallback(name)
		return []domain.DistributionSlice{}
	}
	return Distribution(rows)
}

// Distribution fills in each slice's percentage of the total. A zero total
// yields zero percentages. Input order is preserved.
func Distribution(rows []domain.DistributionSlice) []domain.DistributionSlice {
	var sum float64
	for _, row := range rows {
		sum += row.Value
	}

	out := make([]domain.DistributionSlice, len(rows))
	for i, row := range rows {
		pct := 0.0
		if sum > 0 {
			pct = round1(row.Value / sum * 100)
		}
		out[i] = domain.DistributionSlice{Name: row.Name, Value: row.Value, Percentage: pct}
	}
	return out
}

// OccupancyTrend returns recent snapshot occupancy readings, oldest first
func (s *AnalyticsService) OccupancyTrend(hotelID int64, limit int) []domain.TrendPoint {
	return s.snapshotTrend(hotelID, limit, func(snap *domain.KPISnapshot) float64 { return snap.OccupancyRate })
}

// ADRTrend returns recent snapshot ADR readings, oldest first
func (s *AnalyticsService) ADRTrend(hotelID int64, limit int) []domain.TrendPoint {
	return s.snapshotTrend(hotelID, limit, func(snap *domain.KPISnapshot) float64 { return snap.ADR })
}

func (s *AnalyticsService) snapshotTrend(hotelID int64, limit int, value func(*domain.KPISnapshot) float64) []domain.TrendPoint {
	if s.snapshots == nil {
		return []domain.TrendPoint{}
	}
	snaps, err := s.snapshots.Recent(hotelID, limit)
	if err != nil {
		s.logger.Error("snapshot trend unavailable, serving empty series",
			slog.Int64("hotel_id", hotelID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveAggregateFallback("snapshots")
		return []domain.TrendPoint{}
	}

	// Recent returns newest first; charts want chronological order.
	out := make([]domain.TrendPoint, 0, len(snaps))
	for i := len(snaps) - 1; i >= 0; i-- {
		out = append(out, domain.TrendPoint{
			Label: snaps[i].Date.Format("Jan 2"),
			Value: value(snaps[i]),
		})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
