package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/insightforge/internal/domain"
)

// Logger records audit events as structured log lines and, when an
// activity repository is wired, as activity_logs rows. Writes are
// fire-and-forget: a failed append is logged and swallowed so it can never
// block the operation being audited.
type Logger struct {
	logger     *slog.Logger
	activities domain.ActivityRepository
}

// NewLogger creates a new audit logger. activities may be nil.
func NewLogger(logger *slog.Logger, activities domain.ActivityRepository) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger, activities: activities}
}

// LogAction records an audit event
func (al *Logger) LogAction(ctx context.Context, hotelID, userID int64, activityType, entityType string, entityID int64, description string) {
	requestID := ""
	if reqID := ctx.Value("request_id"); reqID != nil {
		if s, ok := reqID.(string); ok {
			requestID = s
		}
	}

	al.logger.Info("audit",
		slog.String("activity", activityType),
		slog.String("entity", entityType),
		slog.Int64("entity_id", entityID),
		slog.Int64("hotel_id", hotelID),
		slog.Int64("user_id", userID),
		slog.String("description", description),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)

	if al.activities == nil {
		return
	}
	err := al.activities.Append(&domain.ActivityEntry{
		HotelID:      hotelID,
		UserID:       userID,
		ActivityType: activityType,
		EntityType:   entityType,
		EntityID:     entityID,
		Description:  description,
	})
	if err != nil {
		al.logger.Warn("audit append failed",
			slog.String("activity", activityType),
			slog.String("error", err.Error()),
		)
	}
}

// LogDenied records a denied access attempt
func (al *Logger) LogDenied(ctx context.Context, hotelID, userID int64, reason string) {
	al.LogAction(ctx, hotelID, userID, "access_denied", "api", 0, reason)
}

// LogDeniedHotel records an attempt to reach another hotel's data
func (al *Logger) LogDeniedHotel(ctx context.Context, hotelID, userID, requestedHotelID int64) {
	al.LogAction(ctx, hotelID, userID, "access_denied", "hotel", requestedHotelID,
		fmt.Sprintf("attempted to access hotel %d data without permission", requestedHotelID))
}

// LogLogin records a successful login
func (al *Logger) LogLogin(ctx context.Context, hotelID, userID int64) {
	al.LogAction(ctx, hotelID, userID, "user_login", "user", userID, "user logged in")
}
