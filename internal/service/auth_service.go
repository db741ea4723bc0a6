package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/security/audit"
	"github.com/yourorg/insightforge/internal/security/auth"
)

// AuthService handles login, token verification, and account management.
// All credential failures surface as domain.ErrInvalidCredential so
// responses never reveal whether an email exists.
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *auth.TokenManager
	revoker  *TokenRevoker
	auditLog *audit.Logger
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo domain.UserRepository,
	tokens *auth.TokenManager,
	revoker *TokenRevoker,
	auditLog *audit.Logger,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		revoker:  revoker,
		auditLog: auditLog,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// LoginResult represents login response
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expires_in"` // seconds
	TokenType string       `json:"token_type"`
	User      *domain.User `json:"user"`
}

// Login authenticates a user and returns a JWT token. Unknown emails,
// wrong passwords, and deactivated accounts all report the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredential
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		s.logger.Info("login attempt with unknown or inactive email", slog.String("email", email))
		return nil, domain.ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		return nil, domain.ErrInvalidCredential
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role), user.HotelID, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		// Login still succeeds; last_login is informational.
		s.logger.Error("failed to update last login",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	} else {
		user.LastLogin = now
	}

	s.auditLog.LogLogin(ctx, user.HotelID, user.ID)
	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("role", string(user.Role)),
	)

	user.PasswordHash = ""
	return &LoginResult{
		Token:     token,
		ExpiresIn: int(s.tokenTTL.Seconds()),
		TokenType: "Bearer",
		User:      user,
	}, nil
}

// Authenticate verifies a token and resolves it to a live principal. A
// valid signature is not enough: the token must not be revoked and the
// account must still exist and be active.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.User, *auth.Claims, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, domain.ErrInvalidCredential
	}

	if s.revoker != nil && s.revoker.IsRevoked(ctx, claims.ID) {
		return nil, nil, domain.ErrInvalidCredential
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, nil, domain.ErrPrincipalNotFound
	}
	if !user.IsActive {
		return nil, nil, domain.ErrPrincipalNotFound
	}

	return user, claims, nil
}

// Logout revokes the presented token for the remainder of its lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revoker == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	s.logger.Info("user logged out", slog.Int64("user_id", claims.UserID))
	return nil
}

// Register creates a new user account. Role and hotel assignment follow
// tenancy rules: platform admins belong to no hotel, and every other role
// except demo must belong to one.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role, hotelID int64, createdBy int64) (*domain.User, error) {
	if email == "" || password == "" || name == "" {
		return nil, errors.New("name, email, and password are required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	if !domain.ValidRole(role) {
		return nil, errors.New("invalid role")
	}
	if role == domain.RolePlatformAdmin && hotelID != 0 {
		return nil, errors.New("platform admins cannot be assigned to a hotel")
	}
	if role != domain.RolePlatformAdmin && role != domain.RoleDemo && hotelID == 0 {
		return nil, errors.New("a hotel is required for this role")
	}

	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		HotelID:      hotelID,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	s.auditLog.LogAction(ctx, hotelID, createdBy, "user_created", "user", user.ID,
		"created user "+user.Email+" with role "+string(role))

	user.PasswordHash = ""
	return user, nil
}

// ChangePassword changes a user's password after verifying the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.New("new password must be at least 8 characters")
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return domain.ErrPrincipalNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return domain.ErrInvalidCredential
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return errors.New("failed to change password")
	}

	user.PasswordHash = string(hash)
	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("failed to update user password", slog.String("error", err.Error()))
		return errors.New("failed to change password")
	}

	s.auditLog.LogAction(ctx, user.HotelID, userID, "password_changed", "user", userID, "changed own password")
	s.logger.Info("user changed password", slog.Int64("user_id", userID))
	return nil
}
