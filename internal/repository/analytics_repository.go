package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/insightforge/internal/domain"
)

// PostgresAnalyticsRepository implements domain.AnalyticsRepository. It
// owns the aggregate SQL; all derivation (occupancy, RevPAR, comparisons)
// lives in the analytics service.
type PostgresAnalyticsRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresAnalyticsRepository creates a new analytics repository
func NewPostgresAnalyticsRepository(db *sql.DB, logger *slog.Logger) *PostgresAnalyticsRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAnalyticsRepository{db: db, logger: logger}
}

// KPIAggregates returns the raw aggregates for one hotel and period.
// Booking-level aggregates bucket by booking_date; occupied room-nights
// count distinct room/night pairs for stays whose check-in falls in the
// period, matching how the nightly availability is reported.
func (r *PostgresAnalyticsRepository) KPIAggregates(hotelID int64, period domain.Period) (*domain.KPIAggregates, error) {
	agg := &domain.KPIAggregates{}

	query := `
		SELECT
			COUNT(*) AS total_bookings,
			COALESCE(SUM(b.total_amount), 0) AS revenue,
			COALESCE(AVG(b.room_rate), 0) AS adr,
			COALESCE(AVG(CASE WHEN r.rating IS NOT NULL THEN r.rating END), 0) AS average_rating
		FROM bookings b
		LEFT JOIN reviews r ON b.id = r.booking_id
		WHERE b.hotel_id = $1
		AND b.status != 'cancelled'
		AND b.booking_date >= $2 AND b.booking_date < $3
	`
	err := r.db.QueryRow(query, hotelID, period.Start, period.End()).Scan(
		&agg.TotalBookings,
		&agg.Revenue,
		&agg.ADR,
		&agg.AverageRating,
	)
	if err != nil {
		r.logger.Error("failed to query kpi aggregates",
			slog.Int64("hotel_id", hotelID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to query kpi aggregates: %w", err)
	}

	occupancyQuery := `
		SELECT COUNT(*) AS occupied_room_nights
		FROM (
			SELECT DISTINCT
				b.room_id,
				generate_series(b.check_in::date, (b.check_out - interval '1 day')::date, '1 day'::interval)::date AS occupied_date
			FROM bookings b
			WHERE b.hotel_id = $1
			AND b.status IN ('confirmed', 'checked_in', 'checked_out')
			AND b.check_in >= $2 AND b.check_in < $3
		) occupied_dates
	`
	err = r.db.QueryRow(occupancyQuery, hotelID, period.Start, period.End()).Scan(&agg.OccupiedRoomNights)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupied room nights: %w", err)
	}

	return agg, nil
}

// HotelTotalRooms returns the hotel's room inventory size
func (r *PostgresAnalyticsRepository) HotelTotalRooms(hotelID int64) (int, error) {
	var totalRooms int
	err := r.db.QueryRow(`SELECT total_rooms FROM hotels WHERE id = $1`, hotelID).Scan(&totalRooms)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("failed to query hotel rooms: %w", err)
	}
	return totalRooms, nil
}

// MonthlyRevenue returns per-month revenue sums since the given time. The
// result is sparse: months with no bookings are absent and the service
// backfills them.
func (r *PostgresAnalyticsRepository) MonthlyRevenue(hotelID int64, since time.Time) ([]domain.MonthValue, error) {
	query := `
		SELECT
			DATE_TRUNC('month', b.booking_date AT TIME ZONE 'UTC') AS month,
			COALESCE(SUM(b.total_amount), 0) AS revenue
		FROM bookings b
		WHERE b.hotel_id = $1
		AND b.status != 'cancelled'
		AND b.booking_date >= $2
		GROUP BY 1
		ORDER BY month ASC
	`
	return r.queryMonthSeries(query, hotelID, since)
}

// MonthlyBookings returns per-month non-cancelled booking counts
func (r *PostgresAnalyticsRepository) MonthlyBookings(hotelID int64, since time.Time) ([]domain.MonthValue, error) {
	query := `
		SELECT
			DATE_TRUNC('month', b.booking_date AT TIME ZONE 'UTC') AS month,
			COUNT(*) AS total_bookings
		FROM bookings b
		WHERE b.hotel_id = $1
		AND b.status != 'cancelled'
		AND b.booking_date >= $2
		GROUP BY 1
		ORDER BY month ASC
	`
	return r.queryMonthSeries(query, hotelID, since)
}

func (r *PostgresAnalyticsRepository) queryMonthSeries(query string, hotelID int64, since time.Time) ([]domain.MonthValue, error) {
	rows, err := r.db.Query(query, hotelID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly series: %w", err)
	}
	defer rows.Close()

	var out []domain.MonthValue
	for rows.Next() {
		var mv domain.MonthValue
		if err := rows.Scan(&mv.Month, &mv.Value); err != nil {
			return nil, fmt.Errorf("failed to scan month row: %w", err)
		}
		mv.Month = mv.Month.UTC()
		out = append(out, mv)
	}
	return out, rows.Err()
}

// RoomTypeDistribution returns booking counts per room type, descending.
// Percentages are filled in by the service.
func (r *PostgresAnalyticsRepository) RoomTypeDistribution(hotelID int64) ([]domain.DistributionSlice, error) {
	query := `
		SELECT rt.name, COUNT(b.id) AS bookings
		FROM room_types rt
		LEFT JOIN bookings b ON rt.id = b.room_type_id AND b.hotel_id = $1
		WHERE rt.hotel_id = $1
		GROUP BY rt.id, rt.name
		ORDER BY bookings DESC
	`
	return r.queryDistribution(query, hotelID)
}

// BookingSourceDistribution returns booking counts per active source,
// descending, omitting sources with no bookings
func (r *PostgresAnalyticsRepository) BookingSourceDistribution(hotelID int64) ([]domain.DistributionSlice, error) {
	query := `
		SELECT bs.name, COUNT(b.id) AS bookings
		FROM booking_sources bs
		LEFT JOIN bookings b ON bs.id = b.source_id AND b.hotel_id = $1
		WHERE bs.is_active = TRUE
		GROUP BY bs.id, bs.name
		HAVING COUNT(b.id) > 0
		ORDER BY COUNT(b.id) DESC
	`
	return r.queryDistribution(query, hotelID)
}

// GuestNationalityDistribution returns distinct guest counts per
// nationality, top ten
func (r *PostgresAnalyticsRepository) GuestNationalityDistribution(hotelID int64) ([]domain.DistributionSlice, error) {
	query := `
		SELECT g.nationality, COUNT(DISTINCT g.id) AS guests
		FROM guests g
		JOIN bookings b ON g.id = b.guest_id
		WHERE b.hotel_id = $1 AND g.nationality IS NOT NULL
		GROUP BY g.nationality
		ORDER BY guests DESC
		LIMIT 10
	`
	return r.queryDistribution(query, hotelID)
}

func (r *PostgresAnalyticsRepository) queryDistribution(query string, hotelID int64) ([]domain.DistributionSlice, error) {
	rows, err := r.db.Query(query, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query distribution: %w", err)
	}
	defer rows.Close()

	var out []domain.DistributionSlice
	for rows.Next() {
		var s domain.DistributionSlice
		if err := rows.Scan(&s.Name, &s.Value); err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LeadTime returns the raw lead-time aggregate over non-cancelled
// bookings. The default query takes the absolute day gap; strict mode
// excludes rows where check-in precedes the booking date and reports how
// many were excluded.
func (r *PostgresAnalyticsRepository) LeadTime(hotelID int64, strict bool) (*domain.LeadTimeAggregate, error) {
	agg := &domain.LeadTimeAggregate{}

	if strict {
		query := `
			SELECT
				COALESCE(AVG(EXTRACT(DAY FROM (check_in - booking_date))) FILTER (WHERE check_in >= booking_date), 0) AS avg_lead_time,
				COUNT(*) FILTER (WHERE check_in >= booking_date) AS total_bookings,
				COUNT(*) FILTER (WHERE check_in < booking_date) AS negative_raw
			FROM bookings
			WHERE hotel_id = $1
			AND status != 'cancelled'
		`
		err := r.db.QueryRow(query, hotelID).Scan(&agg.AvgDays, &agg.TotalBookings, &agg.NegativeRaw)
		if err != nil {
			return nil, fmt.Errorf("failed to query lead time: %w", err)
		}
		return agg, nil
	}

	query := `
		SELECT
			COALESCE(AVG(ABS(EXTRACT(DAY FROM (check_in - booking_date)))), 0) AS avg_lead_time,
			COUNT(*) AS total_bookings
		FROM bookings
		WHERE hotel_id = $1
		AND status != 'cancelled'
	`
	err := r.db.QueryRow(query, hotelID).Scan(&agg.AvgDays, &agg.TotalBookings)
	if err != nil {
		return nil, fmt.Errorf("failed to query lead time: %w", err)
	}
	return agg, nil
}

// CancellationCounts returns total and cancelled booking counts for
// bookings made within the period
func (r *PostgresAnalyticsRepository) CancellationCounts(hotelID int64, period domain.Period) (int64, int64, error) {
	query := `
		SELECT
			COUNT(*) AS total_bookings,
			COUNT(CASE WHEN status = 'cancelled' THEN 1 END) AS cancelled_bookings
		FROM bookings
		WHERE hotel_id = $1
		AND booking_date >= $2 AND booking_date < $3
	`
	var total, cancelled int64
	err := r.db.QueryRow(query, hotelID, period.Start, period.End()).Scan(&total, &cancelled)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query cancellation counts: %w", err)
	}
	return total, cancelled, nil
}
