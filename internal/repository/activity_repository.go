package repository

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/yourorg/insightforge/internal/domain"
)

// PostgresActivityRepository implements domain.ActivityRepository
type PostgresActivityRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresActivityRepository creates a new activity repository
func NewPostgresActivityRepository(db *sql.DB, logger *slog.Logger) *PostgresActivityRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresActivityRepository{db: db, logger: logger}
}

// Append inserts one audit trail row
func (r *PostgresActivityRepository) Append(entry *domain.ActivityEntry) error {
	query := `
		INSERT INTO activity_logs (hotel_id, user_id, activity_type, entity_type, entity_id, description, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(
		query,
		nullableHotel(entry.HotelID),
		entry.UserID,
		entry.ActivityType,
		entry.EntityType,
		entry.EntityID,
		entry.Description,
		entry.IPAddress,
		entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

const activityColumns = `id, COALESCE(hotel_id, 0), user_id, activity_type, entity_type, entity_id, description, COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at`

// ListByHotel returns the newest entries for one hotel
func (r *PostgresActivityRepository) ListByHotel(hotelID int64, limit int) ([]*domain.ActivityEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_logs
		WHERE hotel_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, hotelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	return collectActivity(rows)
}

// ListAll returns the newest entries across all hotels
func (r *PostgresActivityRepository) ListAll(limit int) ([]*domain.ActivityEntry, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	return collectActivity(rows)
}

func collectActivity(rows *sql.Rows) ([]*domain.ActivityEntry, error) {
	var out []*domain.ActivityEntry
	for rows.Next() {
		e := &domain.ActivityEntry{}
		err := rows.Scan(
			&e.ID,
			&e.HotelID,
			&e.UserID,
			&e.ActivityType,
			&e.EntityType,
			&e.EntityID,
			&e.Description,
			&e.IPAddress,
			&e.UserAgent,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
