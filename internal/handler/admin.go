package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/security"
	"github.com/yourorg/insightforge/internal/security/middleware"
	"github.com/yourorg/insightforge/internal/service"
)

// AdminHandler serves hotel administration, user management, and the
// audit trail
type AdminHandler struct {
	admin      *service.AdminService
	authorizer *security.Authorizer
	logger     *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin *service.AdminService, authorizer *security.Authorizer, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		admin:      admin,
		authorizer: authorizer,
		logger:     logger,
	}
}

// require authorizes the principal for a capability, writing the error
// response itself. Returns nil after responding.
func (h *AdminHandler) require(w http.ResponseWriter, r *http.Request, cap security.Capability) *domain.User {
	user := middleware.GetPrincipalFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil
	}
	if err := h.authorizer.Authorize(r.Context(), user, cap); err != nil {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return nil
	}
	return user
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// HotelRequest represents hotel create/update payload
type HotelRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	TotalRooms int    `json:"totalRooms"`
	IsActive   *bool  `json:"isActive"`
}

// CreateHotel handles POST /api/admin/hotels
func (h *AdminHandler) CreateHotel(w http.ResponseWriter, r *http.Request) {
	user := h.require(w, r, security.CapManagePlatform)
	if user == nil {
		return
	}

	var req HotelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	hotel := &domain.Hotel{
		Name:       req.Name,
		Address:    req.Address,
		City:       req.City,
		Country:    req.Country,
		TotalRooms: req.TotalRooms,
	}
	if err := h.admin.CreateHotel(r.Context(), user.ID, hotel); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, hotel)
}

// ListHotels handles GET /api/admin/hotels
func (h *AdminHandler) ListHotels(w http.ResponseWriter, r *http.Request) {
	if h.require(w, r, security.CapManagePlatform) == nil {
		return
	}

	hotels, err := h.admin.ListHotels()
	if err != nil {
		h.logger.Error("failed to list hotels", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list hotels"})
		return
	}
	writeJSON(w, http.StatusOK, hotels)
}

// GetHotel handles GET /api/admin/hotels/{id}
func (h *AdminHandler) GetHotel(w http.ResponseWriter, r *http.Request) {
	if h.require(w, r, security.CapManagePlatform) == nil {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid hotel id"})
		return
	}

	hotel, err := h.admin.GetHotel(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "hotel not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to get hotel"})
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

// UpdateHotel handles PUT /api/admin/hotels/{id}
func (h *AdminHandler) UpdateHotel(w http.ResponseWriter, r *http.Request) {
	user := h.require(w, r, security.CapManagePlatform)
	if user == nil {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid hotel id"})
		return
	}

	var req HotelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	hotel, err := h.admin.GetHotel(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "hotel not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to get hotel"})
		return
	}

	if req.Name != "" {
		hotel.Name = req.Name
	}
	hotel.Address = req.Address
	hotel.City = req.City
	hotel.Country = req.Country
	if req.TotalRooms > 0 {
		hotel.TotalRooms = req.TotalRooms
	}
	if req.IsActive != nil {
		hotel.IsActive = *req.IsActive
	}

	if err := h.admin.UpdateHotel(r.Context(), user.ID, hotel); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

// DeleteHotel handles DELETE /api/admin/hotels/{id}
func (h *AdminHandler) DeleteHotel(w http.ResponseWriter, r *http.Request) {
	user := h.require(w, r, security.CapManagePlatform)
	if user == nil {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid hotel id"})
		return
	}

	if err := h.admin.DeleteHotel(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "hotel not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to delete hotel"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "hotel deactivated"})
}

// ListUsers handles GET /api/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	user := h.require(w, r, security.CapManageUsers)
	if user == nil {
		return
	}

	var requested int64
	if raw := r.URL.Query().Get("hotel_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid hotel_id"})
			return
		}
		requested = id
	}

	scope, err := h.authorizer.ResolveScope(r.Context(), user, requested)
	if err != nil {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return
	}

	users, err := h.admin.ListUsers(scope)
	if err != nil {
		h.logger.Error("failed to list users", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list users"})
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// requireUserScope loads the target user and pins the mutation to the
// actor's hotel scope. Accounts with no home hotel belong to the platform
// and can only be touched by platform admins. Returns nil after responding.
func (h *AdminHandler) requireUserScope(w http.ResponseWriter, r *http.Request, actor *domain.User, targetID int64) *domain.User {
	target, err := h.admin.GetUser(targetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return nil
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to get user"})
		return nil
	}

	if target.HotelID == 0 {
		if err := h.authorizer.Authorize(r.Context(), actor, security.CapManagePlatform); err != nil {
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
			return nil
		}
		return target
	}

	if _, err := h.authorizer.ResolveScope(r.Context(), actor, target.HotelID); err != nil {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return nil
	}
	return target
}

// UpdateUserRequest represents user update payload
type UpdateUserRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	IsActive *bool  `json:"isActive"`
}

// UpdateUser handles PUT /api/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := h.require(w, r, security.CapManageUsers)
	if actor == nil {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	if h.requireUserScope(w, r, actor, id) == nil {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	// Granting platform-admin is itself a platform operation.
	if domain.Role(req.Role) == domain.RolePlatformAdmin {
		if err := h.authorizer.Authorize(r.Context(), actor, security.CapManagePlatform); err != nil {
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
			return
		}
	}

	update := &domain.User{
		ID:       id,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
		IsActive: true,
	}
	if req.IsActive != nil {
		update.IsActive = *req.IsActive
	}

	if err := h.admin.UpdateUser(r.Context(), actor.ID, update); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user updated"})
}

// DeleteUser handles DELETE /api/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := h.require(w, r, security.CapManageUsers)
	if actor == nil {
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	if h.requireUserScope(w, r, actor, id) == nil {
		return
	}

	if err := h.admin.DeleteUser(r.Context(), actor.ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deactivated"})
}

// Activity handles GET /api/dashboard/recent-activity, scoped to the
// caller's hotel
func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	user := h.require(w, r, security.CapViewAnalytics)
	if user == nil {
		return
	}

	scope, err := h.authorizer.ResolveScope(r.Context(), user, 0)
	if err != nil {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return
	}

	limit := intQuery(r, "limit", 50, 200)
	entries, err := h.admin.RecentActivity(scope, limit)
	if err != nil {
		h.logger.Error("failed to list activity", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list activity"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ActivityLogs handles GET /api/admin/activity-logs, the platform-wide
// audit trail
func (h *AdminHandler) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	if h.require(w, r, security.CapManagePlatform) == nil {
		return
	}

	limit := intQuery(r, "limit", 50, 200)
	entries, err := h.admin.RecentActivity(security.ScopeAllHotels, limit)
	if err != nil {
		h.logger.Error("failed to list activity", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list activity"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.require(w, r, security.CapManagePlatform) == nil {
		return
	}

	stats, err := h.admin.Stats()
	if err != nil {
		h.logger.Error("failed to compute platform stats", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to compute stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
