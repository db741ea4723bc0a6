package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/service"
)

type stubHotelRepo struct {
	hotels []*domain.Hotel
}

func (s *stubHotelRepo) Create(*domain.Hotel) error                  { return nil }
func (s *stubHotelRepo) GetByID(int64) (*domain.Hotel, error)        { return nil, domain.ErrNotFound }
func (s *stubHotelRepo) GetByName(string) (*domain.Hotel, error)     { return nil, domain.ErrNotFound }
func (s *stubHotelRepo) Update(*domain.Hotel) error                  { return nil }
func (s *stubHotelRepo) Delete(int64) error                          { return nil }
func (s *stubHotelRepo) List() ([]*domain.Hotel, error)              { return s.hotels, nil }

type stubAnalyticsRepo struct {
	failHotel int64
}

func (s *stubAnalyticsRepo) KPIAggregates(hotelID int64, period domain.Period) (*domain.KPIAggregates, error) {
	if hotelID == s.failHotel {
		return nil, errors.New("aggregate failure")
	}
	return &domain.KPIAggregates{TotalBookings: 10, Revenue: 5000, ADR: 100, OccupiedRoomNights: 60}, nil
}

func (s *stubAnalyticsRepo) HotelTotalRooms(hotelID int64) (int, error) { return 10, nil }

func (s *stubAnalyticsRepo) MonthlyRevenue(int64, time.Time) ([]domain.MonthValue, error) {
	return nil, nil
}

func (s *stubAnalyticsRepo) MonthlyBookings(int64, time.Time) ([]domain.MonthValue, error) {
	return nil, nil
}

func (s *stubAnalyticsRepo) RoomTypeDistribution(int64) ([]domain.DistributionSlice, error) {
	return nil, nil
}

func (s *stubAnalyticsRepo) BookingSourceDistribution(int64) ([]domain.DistributionSlice, error) {
	return nil, nil
}

func (s *stubAnalyticsRepo) GuestNationalityDistribution(int64) ([]domain.DistributionSlice, error) {
	return nil, nil
}

func (s *stubAnalyticsRepo) LeadTime(int64, bool) (*domain.LeadTimeAggregate, error) {
	return &domain.LeadTimeAggregate{}, nil
}

func (s *stubAnalyticsRepo) CancellationCounts(int64, domain.Period) (int64, int64, error) {
	return 0, 0, nil
}

type recordingSnapshotRepo struct {
	mu    sync.Mutex
	snaps []*domain.KPISnapshot
}

func (r *recordingSnapshotRepo) Upsert(snap *domain.KPISnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return nil
}

func (r *recordingSnapshotRepo) Recent(int64, int) ([]*domain.KPISnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps, nil
}

func (r *recordingSnapshotRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestSnapshotWorkerWritesPerHotel(t *testing.T) {
	hotels := &stubHotelRepo{hotels: []*domain.Hotel{
		{ID: 1, TotalRooms: 10, IsActive: true},
		{ID: 2, TotalRooms: 20, IsActive: true},
	}}
	snaps := &recordingSnapshotRepo{}
	analytics := service.NewAnalyticsService(&stubAnalyticsRepo{}, snaps, service.DefaultMetricDefaults(), false, nil)

	w := NewSnapshotWorker(hotels, analytics, snaps, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for snaps.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected 2 snapshots, got %d", snaps.count())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	for _, snap := range snaps.snaps {
		if snap.Revenue != 5000 {
			t.Fatalf("unexpected snapshot revenue: %+v", snap)
		}
		if !snap.Date.Equal(snap.Date.Truncate(24 * time.Hour)) {
			t.Fatalf("expected date truncated to day, got %v", snap.Date)
		}
	}
}

func TestSnapshotWorkerSkipsDegradedHotels(t *testing.T) {
	hotels := &stubHotelRepo{hotels: []*domain.Hotel{
		{ID: 1, TotalRooms: 10, IsActive: true},
		{ID: 2, TotalRooms: 20, IsActive: true},
	}}
	snaps := &recordingSnapshotRepo{}
	analytics := service.NewAnalyticsService(&stubAnalyticsRepo{failHotel: 2}, snaps, service.DefaultMetricDefaults(), false, nil)

	w := NewSnapshotWorker(hotels, analytics, snaps, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for snaps.count() < 1 {
		select {
		case <-deadline:
			t.Fatalf("expected 1 snapshot, got %d", snaps.count())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if snaps.count() != 1 {
		t.Fatalf("expected degraded hotel to be skipped, got %d snapshots", snaps.count())
	}
	if snaps.snaps[0].HotelID != 1 {
		t.Fatalf("expected snapshot for hotel 1, got %d", snaps.snaps[0].HotelID)
	}
}
