package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/observability/metrics"
	"github.com/yourorg/insightforge/internal/service"
)

// SnapshotWorker periodically records each active hotel's month-to-date
// KPIs into the snapshot table. The snapshots feed the occupancy and ADR
// trend charts, which need historical readings that cannot be recomputed
// from live data after the month rolls over.
type SnapshotWorker struct {
	hotels    domain.HotelRepository
	analytics *service.AnalyticsService
	snapshots domain.SnapshotRepository
	interval  time.Duration
	logger    *slog.Logger
}

// NewSnapshotWorker creates a new snapshot worker
func NewSnapshotWorker(
	hotels domain.HotelRepository,
	analytics *service.AnalyticsService,
	snapshots domain.SnapshotRepository,
	interval time.Duration,
	logger *slog.Logger,
) *SnapshotWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &SnapshotWorker{
		hotels:    hotels,
		analytics: analytics,
		snapshots: snapshots,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs the worker loop until the context is cancelled. One pass runs
// immediately so a fresh deployment has data before the first tick.
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.logger.Info("snapshot worker started",
		slog.Duration("interval", w.interval),
	)

	w.runOnce()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("snapshot worker stopped")
			return
		case <-ticker.C:
			w.runOnce()
		}
	}
}

func (w *SnapshotWorker) runOnce() {
	hotels, err := w.hotels.List()
	if err != nil {
		w.logger.Error("snapshot pass failed to list hotels",
			slog.String("error", err.Error()),
		)
		metrics.ObserveSnapshotRun("error")
		return
	}

	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)
	written := 0

	for _, hotel := range hotels {
		rec := w.analytics.ComputeKPIs(hotel.ID, domain.PeriodFor(now, 0))
		if rec.Degraded {
			// A degraded record is a query failure, not a real reading.
			w.logger.Warn("skipping snapshot for degraded kpis",
				slog.Int64("hotel_id", hotel.ID),
			)
			continue
		}

		snap := &domain.KPISnapshot{
			HotelID:       hotel.ID,
			Date:          today,
			OccupancyRate: rec.OccupancyRate,
			ADR:           rec.ADR,
			RevPAR:        rec.RevPAR,
			Revenue:       rec.Revenue,
		}
		if err := w.snapshots.Upsert(snap); err != nil {
			w.logger.Error("failed to write kpi snapshot",
				slog.Int64("hotel_id", hotel.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		written++
	}

	metrics.ObserveSnapshotRun("success")
	w.logger.Info("snapshot pass complete",
		slog.Int("hotels", len(hotels)),
		slog.Int("written", written),
	)
}
