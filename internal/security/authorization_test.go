package security

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/security/audit"
)

type fakeActivityRepo struct {
	entries []*domain.ActivityEntry
	err     error
}

func (f *fakeActivityRepo) Append(entry *domain.ActivityEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeActivityRepo) ListByHotel(hotelID int64, limit int) ([]*domain.ActivityEntry, error) {
	return f.entries, nil
}

func (f *fakeActivityRepo) ListAll(limit int) ([]*domain.ActivityEntry, error) {
	return f.entries, nil
}

func newTestAuthorizer(activities *fakeActivityRepo) *Authorizer {
	return NewAuthorizer(audit.NewLogger(nil, activities), nil)
}

func TestRoleCapabilityMatrix(t *testing.T) {
	cases := []struct {
		role domain.Role
		cap  Capability
		want bool
	}{
		{domain.RolePlatformAdmin, CapManageUsers, true},
		{domain.RolePlatformAdmin, CapViewAnalytics, true},
		{domain.RolePlatformAdmin, CapManageBookings, true},
		{domain.RolePlatformAdmin, CapWriteAccess, true},
		{domain.RolePlatformAdmin, CapManagePlatform, true},

		{domain.RoleHotelAdmin, CapManageUsers, true},
		{domain.RoleHotelAdmin, CapViewAnalytics, true},
		{domain.RoleHotelAdmin, CapManageBookings, true},
		{domain.RoleHotelAdmin, CapWriteAccess, true},
		{domain.RoleHotelAdmin, CapManagePlatform, false},

		{domain.RoleManager, CapManageUsers, false},
		{domain.RoleManager, CapViewAnalytics, true},
		{domain.RoleManager, CapManageBookings, false},
		{domain.RoleManager, CapWriteAccess, true},
		{domain.RoleManager, CapManagePlatform, false},

		{domain.RoleStaff, CapManageUsers, false},
		{domain.RoleStaff, CapViewAnalytics, false},
		{domain.RoleStaff, CapManageBookings, false},
		{domain.RoleStaff, CapWriteAccess, false},
		{domain.RoleStaff, CapManagePlatform, false},

		{domain.RoleDemo, CapManageUsers, false},
		{domain.RoleDemo, CapViewAnalytics, false},
		{domain.RoleDemo, CapManageBookings, false},
		{domain.RoleDemo, CapWriteAccess, false},
		{domain.RoleDemo, CapManagePlatform, false},
	}

	for _, tc := range cases {
		if got := HasCapability(tc.role, tc.cap); got != tc.want {
			t.Errorf("HasCapability(%s, %s) = %v, want %v", tc.role, tc.cap, got, tc.want)
		}
	}
}

func TestUnknownRoleHasNoCapabilities(t *testing.T) {
	for _, cap := range []Capability{CapManageUsers, CapViewAnalytics, CapManageBookings, CapWriteAccess, CapManagePlatform} {
		if HasCapability("superuser", cap) {
			t.Fatalf("unknown role should never have %s", cap)
		}
	}
}

func TestAuthorizeDeniedWritesAudit(t *testing.T) {
	activities := &fakeActivityRepo{}
	a := newTestAuthorizer(activities)
	staff := &domain.User{ID: 4, HotelID: 7, Role: domain.RoleStaff}

	err := a.Authorize(context.Background(), staff, CapViewAnalytics)
	if !errors.Is(err, domain.ErrCapabilityDenied) {
		t.Fatalf("expected ErrCapabilityDenied, got %v", err)
	}
	if len(activities.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(activities.entries))
	}
	if activities.entries[0].ActivityType != "access_denied" {
		t.Fatalf("expected access_denied entry, got %s", activities.entries[0].ActivityType)
	}
}

func TestAuthorizeAllowedWritesNoAudit(t *testing.T) {
	activities := &fakeActivityRepo{}
	a := newTestAuthorizer(activities)
	manager := &domain.User{ID: 2, HotelID: 7, Role: domain.RoleManager}

	if err := a.Authorize(context.Background(), manager, CapViewAnalytics); err != nil {
		t.Fatalf("expected manager to view analytics, got %v", err)
	}
	if len(activities.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(activities.entries))
	}
}

func TestAuthorizeSurvivesAuditFailure(t *testing.T) {
	activities := &fakeActivityRepo{err: errors.New("db down")}
	a := newTestAuthorizer(activities)
	staff := &domain.User{ID: 4, HotelID: 7, Role: domain.RoleStaff}

	// The denial must still come back even when the audit write fails.
	err := a.Authorize(context.Background(), staff, CapManageUsers)
	if !errors.Is(err, domain.ErrCapabilityDenied) {
		t.Fatalf("expected ErrCapabilityDenied, got %v", err)
	}
}

func TestResolveScopePlatformAdminPassthrough(t *testing.T) {
	a := newTestAuthorizer(&fakeActivityRepo{})
	admin := &domain.User{ID: 1, Role: domain.RolePlatformAdmin}

	scope, err := a.ResolveScope(context.Background(), admin, 42)
	if err != nil || scope != 42 {
		t.Fatalf("expected scope 42, got %d (%v)", scope, err)
	}

	scope, err = a.ResolveScope(context.Background(), admin, 0)
	if err != nil || scope != ScopeAllHotels {
		t.Fatalf("expected all-hotels scope, got %d (%v)", scope, err)
	}
}

func TestResolveScopeDefaultsToHomeHotel(t *testing.T) {
	a := newTestAuthorizer(&fakeActivityRepo{})
	manager := &domain.User{ID: 2, HotelID: 7, Role: domain.RoleManager}

	scope, err := a.ResolveScope(context.Background(), manager, 0)
	if err != nil || scope != 7 {
		t.Fatalf("expected home hotel 7, got %d (%v)", scope, err)
	}

	scope, err = a.ResolveScope(context.Background(), manager, 7)
	if err != nil || scope != 7 {
		t.Fatalf("expected explicit home hotel 7, got %d (%v)", scope, err)
	}
}

func TestResolveScopeCrossHotelDenied(t *testing.T) {
	activities := &fakeActivityRepo{}
	a := newTestAuthorizer(activities)
	staff := &domain.User{ID: 4, HotelID: 7, Role: domain.RoleStaff}

	_, err := a.ResolveScope(context.Background(), staff, 9)
	if !errors.Is(err, domain.ErrScopeDenied) {
		t.Fatalf("expected ErrScopeDenied, got %v", err)
	}

	if len(activities.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(activities.entries))
	}
	entry := activities.entries[0]
	if entry.UserID != 4 || entry.EntityID != 9 {
		t.Fatalf("expected audit entry for user 4 hotel 9, got user %d entity %d", entry.UserID, entry.EntityID)
	}
	if !strings.Contains(entry.Description, "hotel 9") {
		t.Fatalf("expected description to reference hotel 9, got %q", entry.Description)
	}
}

func TestResolveScopeNoHomeHotelDenied(t *testing.T) {
	a := newTestAuthorizer(&fakeActivityRepo{})
	orphan := &domain.User{ID: 5, HotelID: 0, Role: domain.RoleManager}

	if _, err := a.ResolveScope(context.Background(), orphan, 0); !errors.Is(err, domain.ErrScopeDenied) {
		t.Fatalf("expected ErrScopeDenied for principal without home hotel, got %v", err)
	}
	if _, err := a.ResolveScope(context.Background(), orphan, 3); !errors.Is(err, domain.ErrScopeDenied) {
		t.Fatalf("expected ErrScopeDenied for explicit request too, got %v", err)
	}
}
