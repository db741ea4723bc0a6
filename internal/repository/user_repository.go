package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/insightforge/internal/domain"
)

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserRepository{db: db, logger: logger}
}

const userColumns = `id, hotel_id, name, email, password_hash, role, phone, last_login, created_at, updated_at, is_active`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	user := &domain.User{}
	var hotelID sql.NullInt64
	var phone sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID,
		&hotelID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&phone,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.IsActive,
	)
	if err != nil {
		return nil, err
	}
	if hotelID.Valid {
		user.HotelID = hotelID.Int64
	}
	user.Phone = phone.String
	if lastLogin.Valid {
		user.LastLogin = lastLogin.Time
	}
	return user, nil
}

// nullableHotel maps the domain's "no home hotel" zero value to SQL NULL.
// Platform admins are stored with a NULL hotel_id by construction.
func nullableHotel(hotelID int64) sql.NullInt64 {
	if hotelID == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: hotelID, Valid: true}
}

// Create creates a new user
func (r *PostgresUserRepository) Create(user *domain.User) error {
	query := `
		INSERT INTO users (hotel_id, name, email, password_hash, role, phone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		nullableHotel(user.HotelID),
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID regardless of active flag. Callers that
// authenticate must check IsActive themselves.
func (r *PostgresUserRepository) GetByID(id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get user by id",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves an active user by email
func (r *PostgresUserRepository) GetByEmail(email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active = true`

	user, err := scanUser(r.db.QueryRow(query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// Update updates an existing user
func (r *PostgresUserRepository) Update(user *domain.User) error {
	query := `
		UPDATE users
		SET hotel_id = $1, name = $2, email = $3, password_hash = $4, role = $5, phone = $6, is_active = $7
		WHERE id = $8
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		nullableHotel(user.HotelID),
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.IsActive,
		user.ID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// Delete soft-deletes a user (sets is_active to false)
func (r *PostgresUserRepository) Delete(id int64) error {
	query := `UPDATE users SET is_active = false WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// UpdateLastLogin records when a user last authenticated
func (r *PostgresUserRepository) UpdateLastLogin(id int64, at time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`

	if _, err := r.db.Exec(query, at, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// ListByHotel lists all active users for a hotel
func (r *PostgresUserRepository) ListByHotel(hotelID int64) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE hotel_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, hotelID)
	if err != nil {
		r.logger.Error("failed to list users by hotel",
			slog.Int64("hotel_id", hotelID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListAll lists all active users across hotels
func (r *PostgresUserRepository) ListAll() ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE is_active = true
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
