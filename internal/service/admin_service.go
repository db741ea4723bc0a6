package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/security/audit"
)

// AdminService covers hotel and user administration plus the audit trail
// views. Capability checks happen at the HTTP layer; this service assumes
// the caller is already authorized and scoped.
type AdminService struct {
	hotelRepo    domain.HotelRepository
	userRepo     domain.UserRepository
	activityRepo domain.ActivityRepository
	auditLog     *audit.Logger
	logger       *slog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	hotelRepo domain.HotelRepository,
	userRepo domain.UserRepository,
	activityRepo domain.ActivityRepository,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		hotelRepo:    hotelRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		auditLog:     auditLog,
		logger:       logger,
	}
}

// CreateHotel registers a new hotel property
func (s *AdminService) CreateHotel(ctx context.Context, actorID int64, hotel *domain.Hotel) error {
	if hotel.Name == "" {
		return errors.New("hotel name is required")
	}
	if hotel.TotalRooms < 0 {
		return errors.New("total rooms cannot be negative")
	}

	if existing, err := s.hotelRepo.GetByName(hotel.Name); err == nil && existing != nil {
		return errors.New("a hotel with this name already exists")
	}

	hotel.IsActive = true
	if err := s.hotelRepo.Create(hotel); err != nil {
		s.logger.Error("failed to create hotel", slog.String("error", err.Error()))
		return errors.New("failed to create hotel")
	}

	s.auditLog.LogAction(ctx, hotel.ID, actorID, "hotel_created", "hotel", hotel.ID, "created hotel "+hotel.Name)
	return nil
}

// GetHotel returns one hotel by ID
func (s *AdminService) GetHotel(id int64) (*domain.Hotel, error) {
	return s.hotelRepo.GetByID(id)
}

// ListHotels returns all active hotels
func (s *AdminService) ListHotels() ([]*domain.Hotel, error) {
	return s.hotelRepo.List()
}

// UpdateHotel updates a hotel's details
func (s *AdminService) UpdateHotel(ctx context.Context, actorID int64, hotel *domain.Hotel) error {
	if hotel.TotalRooms < 0 {
		return errors.New("total rooms cannot be negative")
	}
	if err := s.hotelRepo.Update(hotel); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to update hotel",
			slog.Int64("hotel_id", hotel.ID),
			slog.String("error", err.Error()),
		)
		return errors.New("failed to update hotel")
	}
	s.auditLog.LogAction(ctx, hotel.ID, actorID, "hotel_updated", "hotel", hotel.ID, "updated hotel "+hotel.Name)
	return nil
}

// DeleteHotel soft-deletes a hotel; its data stays for reporting
func (s *AdminService) DeleteHotel(ctx context.Context, actorID, hotelID int64) error {
	if err := s.hotelRepo.Delete(hotelID); err != nil {
		return err
	}
	s.auditLog.LogAction(ctx, hotelID, actorID, "hotel_deleted", "hotel", hotelID, "deactivated hotel")
	return nil
}

// GetUser returns one user by ID
func (s *AdminService) GetUser(id int64) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}

// ListUsers returns users visible within the given scope. ScopeAllHotels
// lists everyone.
func (s *AdminService) ListUsers(scopeHotelID int64) ([]*domain.User, error) {
	var (
		users []*domain.User
		err   error
	)
	if scopeHotelID == 0 {
		users, err = s.userRepo.ListAll()
	} else {
		users, err = s.userRepo.ListByHotel(scopeHotelID)
	}
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}

// UpdateUser updates a user's profile fields, role, and active flag.
// Blank name/phone leave the stored values alone, and this path never
// touches the password hash or the home hotel. Hotel-ownership and
// role-grant checks happen at the HTTP layer before this runs.
func (s *AdminService) UpdateUser(ctx context.Context, actorID int64, update *domain.User) error {
	existing, err := s.userRepo.GetByID(update.ID)
	if err != nil {
		return err
	}

	if update.Name != "" {
		existing.Name = update.Name
	}
	if update.Phone != "" {
		existing.Phone = update.Phone
	}
	existing.IsActive = update.IsActive
	if update.Role != "" {
		if !domain.ValidRole(update.Role) {
			return errors.New("invalid role")
		}
		existing.Role = update.Role
	}

	if err := s.userRepo.Update(existing); err != nil {
		s.logger.Error("failed to update user",
			slog.Int64("user_id", update.ID),
			slog.String("error", err.Error()),
		)
		return errors.New("failed to update user")
	}

	s.auditLog.LogAction(ctx, existing.HotelID, actorID, "user_updated", "user", existing.ID, "updated user "+existing.Email)
	return nil
}

// DeleteUser soft-deletes a user account
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID int64) error {
	if actorID == userID {
		return errors.New("cannot delete your own account")
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(userID); err != nil {
		return err
	}
	s.auditLog.LogAction(ctx, user.HotelID, actorID, "user_deleted", "user", userID, "deactivated user "+user.Email)
	return nil
}

// RecentActivity returns the newest audit entries within the scope.
// ScopeAllHotels returns entries across every hotel.
func (s *AdminService) RecentActivity(scopeHotelID int64, limit int) ([]*domain.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if scopeHotelID == 0 {
		return s.activityRepo.ListAll(limit)
	}
	return s.activityRepo.ListByHotel(scopeHotelID, limit)
}

// PlatformStats summarizes the whole installation for platform admins
type PlatformStats struct {
	TotalHotels int `json:"totalHotels"`
	TotalUsers  int `json:"totalUsers"`
	TotalRooms  int `json:"totalRooms"`
}

// Stats computes platform-wide totals
func (s *AdminService) Stats() (*PlatformStats, error) {
	hotels, err := s.hotelRepo.List()
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListAll()
	if err != nil {
		return nil, err
	}

	stats := &PlatformStats{TotalHotels: len(hotels), TotalUsers: len(users)}
	for _, h := range hotels {
		stats.TotalRooms += h.TotalRooms
	}
	return stats, nil
}
