package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/insightforge/internal/domain"
)

// PostgresHotelRepository implements domain.HotelRepository using PostgreSQL
type PostgresHotelRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresHotelRepository creates a new hotel repository
func NewPostgresHotelRepository(db *sql.DB, logger *slog.Logger) *PostgresHotelRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresHotelRepository{db: db, logger: logger}
}

// Create creates a new hotel
func (r *PostgresHotelRepository) Create(hotel *domain.Hotel) error {
	query := `
		INSERT INTO hotels (name, address, city, country, total_rooms, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(query, hotel.Name, hotel.Address, hotel.City, hotel.Country, hotel.TotalRooms, hotel.IsActive).Scan(
		&hotel.ID,
		&hotel.CreatedAt,
		&hotel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create hotel: %w", err)
	}
	return nil
}

// GetByID retrieves a hotel by ID
func (r *PostgresHotelRepository) GetByID(id int64) (*domain.Hotel, error) {
	h := &domain.Hotel{}
	query := `
		SELECT id, name, address, city, country, total_rooms, created_at, updated_at, is_active
		FROM hotels
		WHERE id = $1
	`
	err := r.db.QueryRow(query, id).Scan(
		&h.ID, &h.Name, &h.Address, &h.City, &h.Country, &h.TotalRooms, &h.CreatedAt, &h.UpdatedAt, &h.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	return h, nil
}

// GetByName retrieves a hotel by name
func (r *PostgresHotelRepository) GetByName(name string) (*domain.Hotel, error) {
	h := &domain.Hotel{}
	query := `
		SELECT id, name, address, city, country, total_rooms, created_at, updated_at, is_active
		FROM hotels
		WHERE name = $1
	`
	err := r.db.QueryRow(query, name).Scan(
		&h.ID, &h.Name, &h.Address, &h.City, &h.Country, &h.TotalRooms, &h.CreatedAt, &h.UpdatedAt, &h.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get hotel by name: %w", err)
	}
	return h, nil
}

// Update updates an existing hotel
func (r *PostgresHotelRepository) Update(hotel *domain.Hotel) error {
	query := `
		UPDATE hotels
		SET name = $1, address = $2, city = $3, country = $4, total_rooms = $5, is_active = $6
		WHERE id = $7
		RETURNING updated_at
	`
	err := r.db.QueryRow(query, hotel.Name, hotel.Address, hotel.City, hotel.Country, hotel.TotalRooms, hotel.IsActive, hotel.ID).Scan(&hotel.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update hotel: %w", err)
	}
	return nil
}

// Delete soft-deletes a hotel (sets is_active=false)
func (r *PostgresHotelRepository) Delete(id int64) error {
	query := `UPDATE hotels SET is_active = false WHERE id = $1`
	res, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete hotel: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all active hotels
func (r *PostgresHotelRepository) List() ([]*domain.Hotel, error) {
	query := `
		SELECT id, name, address, city, country, total_rooms, created_at, updated_at, is_active
		FROM hotels
		WHERE is_active = true
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hotels: %w", err)
	}
	defer rows.Close()

	var out []*domain.Hotel
	for rows.Next() {
		h := &domain.Hotel{}
		if err := rows.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.Country, &h.TotalRooms, &h.CreatedAt, &h.UpdatedAt, &h.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
