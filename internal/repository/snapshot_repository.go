package repository

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/yourorg/insightforge/internal/domain"
)

// PostgresSnapshotRepository implements domain.SnapshotRepository. One row
// per hotel per day; the snapshot worker upserts today's reading.
type PostgresSnapshotRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresSnapshotRepository creates a new snapshot repository
func NewPostgresSnapshotRepository(db *sql.DB, logger *slog.Logger) *PostgresSnapshotRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSnapshotRepository{db: db, logger: logger}
}

// Upsert writes or replaces a hotel's snapshot for its date
func (r *PostgresSnapshotRepository) Upsert(snap *domain.KPISnapshot) error {
	query := `
		INSERT INTO kpi_snapshots (hotel_id, date, occupancy_rate, adr, revpar, revenue)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (hotel_id, date) DO UPDATE
		SET occupancy_rate = EXCLUDED.occupancy_rate,
			adr = EXCLUDED.adr,
			revpar = EXCLUDED.revpar,
			revenue = EXCLUDED.revenue
	`
	_, err := r.db.Exec(query, snap.HotelID, snap.Date, snap.OccupancyRate, snap.ADR, snap.RevPAR, snap.Revenue)
	if err != nil {
		return fmt.Errorf("failed to upsert kpi snapshot: %w", err)
	}
	return nil
}

// Recent returns the newest snapshots for a hotel, newest first
func (r *PostgresSnapshotRepository) Recent(hotelID int64, limit int) ([]*domain.KPISnapshot, error) {
	query := `
		SELECT hotel_id, date, COALESCE(occupancy_rate, 0), COALESCE(adr, 0), COALESCE(revpar, 0), COALESCE(revenue, 0)
		FROM kpi_snapshots
		WHERE hotel_id = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, hotelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list kpi snapshots: %w", err)
	}
	defer rows.Close()

	var out []*domain.KPISnapshot
	for rows.Next() {
		s := &domain.KPISnapshot{}
		if err := rows.Scan(&s.HotelID, &s.Date, &s.OccupancyRate, &s.ADR, &s.RevPAR, &s.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan kpi snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
