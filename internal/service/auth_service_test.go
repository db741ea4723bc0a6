package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/security/audit"
	"github.com/yourorg/insightforge/internal/security/auth"
)

type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}, nextID: 1}
}

func (f *fakeUserRepo) Create(user *domain.User) error {
	user.ID = f.nextID
	f.nextID++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.IsActive {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) Update(user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) Delete(id int64) error {
	u, ok := f.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsActive = false
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(id int64, at time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastLogin = at
	return nil
}

func (f *fakeUserRepo) ListByHotel(hotelID int64) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range f.users {
		if u.HotelID == hotelID {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListAll() ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range f.users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func newTestAuthService(repo *fakeUserRepo) *AuthService {
	tm := auth.NewTokenManager("test-secret", "insightforge")
	revoker := NewTokenRevoker(nil, nil)
	auditLog := audit.NewLogger(nil, nil)
	return NewAuthService(repo, tm, revoker, auditLog, time.Hour, nil)
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, role domain.Role, hotelID int64) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &domain.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		HotelID:      hotelID,
		IsActive:     true,
	}
	if err := repo.Create(user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "manager@grand.test", "correct-horse", domain.RoleManager, 7)
	svc := newTestAuthService(repo)

	result, err := svc.Login(context.Background(), "manager@grand.test", "correct-horse")
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected a token")
	}
	if result.User.PasswordHash != "" {
		t.Fatalf("password hash leaked in login result")
	}

	stored, _ := repo.GetByID(result.User.ID)
	if stored.LastLogin.IsZero() {
		t.Fatalf("expected last login to be updated")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newFakeUserRepo()
	u := seedUser(t, repo, "manager@grand.test", "correct-horse", domain.RoleManager, 7)
	svc := newTestAuthService(repo)

	_, wrongPassword := svc.Login(context.Background(), "manager@grand.test", "battery-staple")
	_, unknownEmail := svc.Login(context.Background(), "nobody@grand.test", "battery-staple")

	repo.users[u.ID].IsActive = false
	_, inactive := svc.Login(context.Background(), "manager@grand.test", "correct-horse")

	for _, err := range []error{wrongPassword, unknownEmail, inactive} {
		if !errors.Is(err, domain.ErrInvalidCredential) {
			t.Fatalf("expected ErrInvalidCredential for every failure mode, got %v", err)
		}
	}
}

func TestAuthenticateRoundTrip(t *testing.T) {
	repo := newFakeUserRepo()
	seeded := seedUser(t, repo, "admin@grand.test", "correct-horse", domain.RoleHotelAdmin, 7)
	svc := newTestAuthService(repo)

	result, err := svc.Login(context.Background(), "admin@grand.test", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	user, claims, err := svc.Authenticate(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("expected token to authenticate, got %v", err)
	}
	if user.ID != seeded.ID || claims.HotelID != 7 || claims.Role != string(domain.RoleHotelAdmin) {
		t.Fatalf("unexpected principal: user=%d claims=%+v", user.ID, claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti on the token")
	}
}

func TestAuthenticateGarbageToken(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	if _, _, err := svc.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestAuthenticateDeactivatedPrincipal(t *testing.T) {
	repo := newFakeUserRepo()
	u := seedUser(t, repo, "staff@grand.test", "correct-horse", domain.RoleStaff, 7)
	svc := newTestAuthService(repo)

	result, err := svc.Login(context.Background(), "staff@grand.test", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Deactivation after issuance must invalidate the still-unexpired token.
	repo.users[u.ID].IsActive = false
	if _, _, err := svc.Authenticate(context.Background(), result.Token); !errors.Is(err, domain.ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "admin@grand.test", "correct-horse", domain.RoleHotelAdmin, 7)
	svc := newTestAuthService(repo)

	result, err := svc.Login(context.Background(), "admin@grand.test", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	_, claims, err := svc.Authenticate(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, _, err := svc.Authenticate(context.Background(), result.Token); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestRegisterTenancyRules(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Root", "root@platform.test", "longenough", domain.RolePlatformAdmin, 3, 1); err == nil {
		t.Fatalf("expected platform admin with a hotel to be rejected")
	}
	if _, err := svc.Register(ctx, "Pat", "pat@grand.test", "longenough", domain.RoleManager, 0, 1); err == nil {
		t.Fatalf("expected manager without a hotel to be rejected")
	}
	if _, err := svc.Register(ctx, "Eve", "eve@grand.test", "longenough", "superuser", 3, 1); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
	if _, err := svc.Register(ctx, "Sam", "sam@grand.test", "short", domain.RoleStaff, 3, 1); err == nil {
		t.Fatalf("expected short password to be rejected")
	}

	user, err := svc.Register(ctx, "Sam", "sam@grand.test", "longenough", domain.RoleStaff, 3, 1)
	if err != nil {
		t.Fatalf("expected staff registration to succeed, got %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatalf("password hash leaked in register result")
	}

	if _, err := svc.Register(ctx, "Sam Again", "sam@grand.test", "longenough", domain.RoleStaff, 3, 1); err == nil {
		t.Fatalf("expected duplicate email to be rejected")
	}

	if _, err := svc.Register(ctx, "Demo", "demo@platform.test", "longenough", domain.RoleDemo, 0, 1); err != nil {
		t.Fatalf("expected demo without a hotel to be allowed, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newFakeUserRepo()
	u := seedUser(t, repo, "manager@grand.test", "correct-horse", domain.RoleManager, 7)
	svc := newTestAuthService(repo)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, u.ID, "wrong-old", "new-password-1"); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for wrong old password, got %v", err)
	}

	if err := svc.ChangePassword(ctx, u.ID, "correct-horse", "new-password-1"); err != nil {
		t.Fatalf("expected password change to succeed, got %v", err)
	}

	if _, err := svc.Login(ctx, "manager@grand.test", "new-password-1"); err != nil {
		t.Fatalf("expected login with new password, got %v", err)
	}
	if _, err := svc.Login(ctx, "manager@grand.test", "correct-horse"); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
}
