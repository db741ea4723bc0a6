package domain

import (
	"testing"
	"time"
)

func TestPeriodForTruncatesToMonthStart(t *testing.T) {
	now := time.Date(2026, time.March, 15, 13, 45, 0, 0, time.UTC)
	p := PeriodFor(now, 0)

	want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !p.Start.Equal(want) {
		t.Fatalf("expected start %v, got %v", want, p.Start)
	}
	if p.Days != 31 {
		t.Fatalf("expected 31 days in March, got %d", p.Days)
	}
}

func TestPeriodForPreviousMonth(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 1, 0, time.UTC)
	p := PeriodFor(now, 1)

	want := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !p.Start.Equal(want) {
		t.Fatalf("expected start %v, got %v", want, p.Start)
	}
	if p.Days != 28 {
		t.Fatalf("expected 28 days in February 2026, got %d", p.Days)
	}
}

func TestPeriodForUsesUTC(t *testing.T) {
	// 23:30 on Jan 31 in UTC-5 is already February in UTC.
	loc := time.FixedZone("EST", -5*3600)
	now := time.Date(2026, time.January, 31, 23, 30, 0, 0, loc)
	p := PeriodFor(now, 0)

	want := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !p.Start.Equal(want) {
		t.Fatalf("expected start %v, got %v", want, p.Start)
	}
}

func TestPeriodEnd(t *testing.T) {
	p := PeriodFor(time.Date(2026, time.December, 20, 0, 0, 0, 0, time.UTC), 0)
	want := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !p.End().Equal(want) {
		t.Fatalf("expected end %v, got %v", want, p.End())
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RolePlatformAdmin, RoleHotelAdmin, RoleManager, RoleStaff, RoleDemo} {
		if !ValidRole(r) {
			t.Fatalf("expected %q to be valid", r)
		}
	}
	if ValidRole("superuser") {
		t.Fatalf("expected unknown role to be invalid")
	}
}
