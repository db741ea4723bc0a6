package security

import (
	"context"
	"log/slog"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/observability/metrics"
	"github.com/yourorg/insightforge/internal/security/audit"
)

// Capability represents an action a role may perform
type Capability string

const (
	CapManageUsers    Capability = "manage-users"
	CapViewAnalytics  Capability = "view-analytics"
	CapManageBookings Capability = "manage-bookings"
	CapWriteAccess    Capability = "write-access"
	CapManagePlatform Capability = "manage-platform"
)

// ScopeAllHotels is the hotel scope granted to platform admins when no
// specific hotel is requested. Hotel IDs are positive, so 0 is free.
const ScopeAllHotels int64 = 0

// RoleCapabilities maps roles to their capabilities. Every permission
// decision in the service routes through this table; roles outside it get
// nothing (closed-world deny-by-default).
var RoleCapabilities = map[domain.Role][]Capability{
	domain.RolePlatformAdmin: {
		CapManageUsers,
		CapViewAnalytics,
		CapManageBookings,
		CapWriteAccess,
		CapManagePlatform,
	},
	domain.RoleHotelAdmin: {
		CapManageUsers,
		CapViewAnalytics,
		CapManageBookings,
		CapWriteAccess,
	},
	domain.RoleManager: {
		CapViewAnalytics,
		CapWriteAccess,
	},
	domain.RoleStaff: {},
	domain.RoleDemo:  {},
}

// Authorizer decides whether an operation is permitted and resolves the
// effective hotel scope of a request. Denials are audit-logged; the audit
// append itself is best-effort and can never fail the decision.
type Authorizer struct {
	auditLog *audit.Logger
	logger   *slog.Logger
}

// NewAuthorizer creates a new authorizer
func NewAuthorizer(auditLog *audit.Logger, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{auditLog: auditLog, logger: logger}
}

// HasCapability reports whether a role carries a capability. Pure function
// of (role, capability); unknown roles always get false.
func HasCapability(role domain.Role, cap Capability) bool {
	caps, exists := RoleCapabilities[role]
	if !exists {
		return false
	}
	for _, c := range caps {
		if c == cap {
			return true
		}
	}
	return false
}

// Authorize checks a principal's capability and audit-logs a denial.
func (a *Authorizer) Authorize(ctx context.Context, user *domain.User, cap Capability) error {
	if HasCapability(user.Role, cap) {
		return nil
	}
	a.logger.Warn("capability denied",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.String("capability", string(cap)),
	)
	a.auditLog.LogDenied(ctx, user.HotelID, user.ID, "missing capability "+string(cap))
	metrics.ObserveAuthDenial("capability")
	return domain.ErrCapabilityDenied
}

// ResolveScope returns the effective hotel scope for a request.
//
// Platform admins pass any requested hotel through (ScopeAllHotels when
// none was given). Everyone else is pinned to their home hotel: an absent
// request defaults to it, a mismatch is denied before any data access, and
// a non-admin with no home hotel is malformed state and always denied.
func (a *Authorizer) ResolveScope(ctx context.Context, user *domain.User, requestedHotelID int64) (int64, error) {
	if user.Role == domain.RolePlatformAdmin {
		return requestedHotelID, nil
	}

	if user.HotelID == 0 {
		a.auditLog.LogDenied(ctx, 0, user.ID, "principal has no home hotel")
		metrics.ObserveAuthDenial("scope")
		return 0, domain.ErrScopeDenied
	}

	if requestedHotelID == 0 {
		return user.HotelID, nil
	}

	if requestedHotelID != user.HotelID {
		a.logger.Warn("hotel scope denied",
			slog.Int64("user_id", user.ID),
			slog.Int64("home_hotel", user.HotelID),
			slog.Int64("requested_hotel", requestedHotelID),
		)
		a.auditLog.LogDeniedHotel(ctx, user.HotelID, user.ID, requestedHotelID)
		metrics.ObserveAuthDenial("scope")
		return 0, domain.ErrScopeDenied
	}

	return user.HotelID, nil
}
