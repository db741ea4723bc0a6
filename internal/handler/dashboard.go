package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/security"
	"github.com/yourorg/insightforge/internal/security/middleware"
	"github.com/yourorg/insightforge/internal/service"
)

// DashboardHandler serves the analytics endpoints. Every endpoint requires
// the view-analytics capability and resolves the hotel scope before
// touching data; the reference time is captured once per request so all
// derived periods agree even across a month boundary.
type DashboardHandler struct {
	analytics  *service.AnalyticsService
	authorizer *security.Authorizer
	logger     *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(analytics *service.AnalyticsService, authorizer *security.Authorizer, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		analytics:  analytics,
		authorizer: authorizer,
		logger:     logger,
	}
}

// resolveHotel authorizes the request and pins it to one hotel. Platform
// admins must name a hotel explicitly; everyone else defaults to home.
// Returns 0 after writing an error response.
func (h *DashboardHandler) resolveHotel(w http.ResponseWriter, r *http.Request) int64 {
	user := middleware.GetPrincipalFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return 0
	}

	if err := h.authorizer.Authorize(r.Context(), user, security.CapViewAnalytics); err != nil {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return 0
	}

	var requested int64
	if raw := r.URL.Query().Get("hotel_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid hotel_id"})
			return 0
		}
		requested = id
	}

	hotelID, err := h.authorizer.ResolveScope(r.Context(), user, requested)
	if err != nil {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return 0
	}
	if hotelID == security.ScopeAllHotels {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "hotel_id is required"})
		return 0
	}

	return hotelID
}

// intQuery reads a positive integer query parameter with bounds
func intQuery(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > max {
		return def
	}
	return v
}

// KPIs handles GET /api/dashboard/kpis
func (h *DashboardHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}

	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, h.analytics.ComputeKPIs(hotelID, domain.PeriodFor(now, 0)))
}

// KPIsWithComparisons handles GET /api/dashboard/kpis-with-comparisons
func (h *DashboardHandler) KPIsWithComparisons(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}

	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, h.analytics.KPIsWithComparison(hotelID, now))
}

// RevenueTrend handles GET /api/dashboard/revenue-trends
func (h *DashboardHandler) RevenueTrend(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}

	months := intQuery(r, "months", 6, 24)
	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, h.analytics.RevenueTrend(hotelID, months, now))
}

// BookingsByMonth handles GET /api/dashboard/bookings-by-month
func (h *DashboardHandler) BookingsByMonth(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}

	months := intQuery(r, "months", 6, 24)
	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, h.analytics.BookingsByMonth(hotelID, months, now))
}

// RoomTypes handles GET /api/dashboard/room-type-distribution
func (h *DashboardHandler) RoomTypes(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}
	writeJSON(w, http.StatusOK, h.analytics.RoomTypeDistribution(hotelID))
}

// BookingSources handles GET /api/dashboard/booking-sources
func (h *DashboardHandler) BookingSources(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}
	writeJSON(w, http.StatusOK, h.analytics.BookingSourceDistribution(hotelID))
}

// Nationalities handles GET /api/dashboard/guest-nationalities
func (h *DashboardHandler) Nationalities(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}
	writeJSON(w, http.StatusOK, h.analytics.GuestNationalityDistribution(hotelID))
}

// LeadTime handles GET /api/dashboard/lead-time-analytics
func (h *DashboardHandler) LeadTime(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}
	writeJSON(w, http.StatusOK, h.analytics.ComputeLeadTime(hotelID))
}

// CancellationRate handles GET /api/dashboard/cancellation-analytics
func (h *DashboardHandler) CancellationRate(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}

	now := time.Now().UTC()
	stats := h.analytics.ComputeCancellationRate(hotelID, domain.PeriodFor(now, 0))
	writeJSON(w, http.StatusOK, stats)
}

// OccupancyTrend handles GET /api/dashboard/occupancy-trends
func (h *DashboardHandler) OccupancyTrend(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}

	limit := intQuery(r, "limit", 30, 90)
	writeJSON(w, http.StatusOK, h.analytics.OccupancyTrend(hotelID, limit))
}

// ADRTrend handles GET /api/dashboard/adr-trends
func (h *DashboardHandler) ADRTrend(w http.ResponseWriter, r *http.Request) {
	hotelID := h.resolveHotel(w, r)
	if hotelID == 0 {
		return
	}

	limit := intQuery(r, "limit", 30, 90)
	writeJSON(w, http.StatusOK, h.analytics.ADRTrend(hotelID, limit))
}
