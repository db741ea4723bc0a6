package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/security"
	"github.com/yourorg/insightforge/internal/security/audit"
	"github.com/yourorg/insightforge/internal/security/middleware"
	"github.com/yourorg/insightforge/internal/service"
)

type stubAnalyticsRepo struct{}

func (stubAnalyticsRepo) KPIAggregates(int64, domain.Period) (*domain.KPIAggregates, error) {
	return &domain.KPIAggregates{TotalBookings: 20, Revenue: 31000, ADR: 150, OccupiedRoomNights: 155}, nil
}

func (stubAnalyticsRepo) HotelTotalRooms(int64) (int, error) { return 10, nil }

func (stubAnalyticsRepo) MonthlyRevenue(int64, time.Time) ([]domain.MonthValue, error) {
	return nil, nil
}

func (stubAnalyticsRepo) MonthlyBookings(int64, time.Time) ([]domain.MonthValue, error) {
	return nil, nil
}

func (stubAnalyticsRepo) RoomTypeDistribution(int64) ([]domain.DistributionSlice, error) {
	return nil, nil
}

func (stubAnalyticsRepo) BookingSourceDistribution(int64) ([]domain.DistributionSlice, error) {
	return nil, nil
}

func (stubAnalyticsRepo) GuestNationalityDistribution(int64) ([]domain.DistributionSlice, error) {
	return nil, nil
}

func (stubAnalyticsRepo) LeadTime(int64, bool) (*domain.LeadTimeAggregate, error) {
	return &domain.LeadTimeAggregate{AvgDays: 10, TotalBookings: 3}, nil
}

func (stubAnalyticsRepo) CancellationCounts(int64, domain.Period) (int64, int64, error) {
	return 50, 5, nil
}

func newTestDashboard() *DashboardHandler {
	analytics := service.NewAnalyticsService(stubAnalyticsRepo{}, nil, service.DefaultMetricDefaults(), false, nil)
	authorizer := security.NewAuthorizer(audit.NewLogger(nil, nil), nil)
	return NewDashboardHandler(analytics, authorizer, nil)
}

func dashboardRequest(target string, user *domain.User) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if user != nil {
		ctx := context.WithValue(req.Context(), middleware.PrincipalContextKey{}, user)
		req = req.WithContext(ctx)
	}
	return req
}

func TestKPIsRequiresPrincipal(t *testing.T) {
	h := newTestDashboard()
	rec := httptest.NewRecorder()

	h.KPIs(rec, dashboardRequest("/api/dashboard/kpis", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestKPIsDeniesStaff(t *testing.T) {
	h := newTestDashboard()
	rec := httptest.NewRecorder()

	staff := &domain.User{ID: 4, HotelID: 7, Role: domain.RoleStaff}
	h.KPIs(rec, dashboardRequest("/api/dashboard/kpis", staff))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff, got %d", rec.Code)
	}
}

func TestKPIsDeniesCrossHotel(t *testing.T) {
	h := newTestDashboard()
	rec := httptest.NewRecorder()

	manager := &domain.User{ID: 2, HotelID: 7, Role: domain.RoleManager}
	h.KPIs(rec, dashboardRequest("/api/dashboard/kpis?hotel_id=9", manager))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-hotel request, got %d", rec.Code)
	}
}

func TestKPIsServesHomeHotel(t *testing.T) {
	h := newTestDashboard()
	rec := httptest.NewRecorder()

	manager := &domain.User{ID: 2, HotelID: 7, Role: domain.RoleManager}
	h.KPIs(rec, dashboardRequest("/api/dashboard/kpis", manager))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var record domain.KPIRecord
	if err := json.NewDecoder(rec.Body).Decode(&record); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if record.TotalBookings != 20 {
		t.Fatalf("unexpected kpis: %+v", record)
	}
	if record.Degraded {
		t.Fatalf("record should not be degraded: %+v", record)
	}
}

func TestKPIsWithComparisonsIncludesAllFields(t *testing.T) {
	h := newTestDashboard()
	rec := httptest.NewRecorder()

	manager := &domain.User{ID: 2, HotelID: 7, Role: domain.RoleManager}
	h.KPIsWithComparisons(rec, dashboardRequest("/api/dashboard/kpis-with-comparisons", manager))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var cmp domain.KPIComparison
	if err := json.NewDecoder(rec.Body).Decode(&cmp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if cmp.Current.TotalBookings != 20 {
		t.Fatalf("unexpected kpis: %+v", cmp.Current)
	}
	if len(cmp.Comparisons) != 7 {
		t.Fatalf("expected 7 field comparisons, got %d", len(cmp.Comparisons))
	}
}

func TestKPIsPlatformAdminNeedsExplicitHotel(t *testing.T) {
	h := newTestDashboard()
	rec := httptest.NewRecorder()

	admin := &domain.User{ID: 1, Role: domain.RolePlatformAdmin}
	h.KPIs(rec, dashboardRequest("/api/dashboard/kpis", admin))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without hotel_id, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.KPIs(rec, dashboardRequest("/api/dashboard/kpis?hotel_id=3", admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with explicit hotel, got %d", rec.Code)
	}
}

func TestLeadTimeEndpoint(t *testing.T) {
	h := newTestDashboard()
	rec := httptest.NewRecorder()

	manager := &domain.User{ID: 2, HotelID: 7, Role: domain.RoleManager}
	h.LeadTime(rec, dashboardRequest("/api/dashboard/lead-time-analytics", manager))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats domain.LeadTimeStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.AvgLeadTimeDays != 10 {
		t.Fatalf("unexpected lead time: %+v", stats)
	}
}
