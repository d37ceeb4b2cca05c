package services

import (
	"testing"
	"time"

	"stayops-http-service/models"
)

func testTaskBooking(t *testing.T, days int) *models.TaskBooking {
	t.Helper()
	checkin := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		ID:       501,
		CheckIn:  checkin.Unix(),
		CheckOut: checkin.AddDate(0, 0, days).Unix(),
		Days:     days,
	}
	tb, err := models.NewTaskBooking(booking, nil)
	if err != nil {
		t.Fatalf("NewTaskBooking: %v", err)
	}
	return tb
}

func TestCheckoutScheduleDates(t *testing.T) {
	tb := testTaskBooking(t, 4)
	schedule := GetScheduleType(ScheduleTypeCheckout, tb, models.AreaSettings{})

	dates := schedule.Dates()
	if len(dates) != 1 {
		t.Fatalf("checkout dates = %d, want 1", len(dates))
	}
	want := time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)
	if !dates[0].Equal(want) {
		t.Errorf("checkout date = %v, want %v", dates[0], want)
	}
}

func TestCheckinScheduleDates(t *testing.T) {
	tb := testTaskBooking(t, 4)
	schedule := GetScheduleType(ScheduleTypeCheckin, tb, models.AreaSettings{})

	dates := schedule.Dates()
	want := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if len(dates) != 1 || !dates[0].Equal(want) {
		t.Errorf("checkin dates = %v, want [%v]", dates, want)
	}
}

func TestDailyScheduleExcludesBoundaryDays(t *testing.T) {
	tb := testTaskBooking(t, 4)
	schedule := GetScheduleType(ScheduleTypeDaily, tb, models.AreaSettings{DailyInterval: 1})

	dates := schedule.Dates()
	if len(dates) != 3 {
		t.Fatalf("daily dates = %d, want 3 (strictly between checkin and checkout)", len(dates))
	}
	first := time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC)
	last := time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC)
	if !dates[0].Equal(first) || !dates[2].Equal(last) {
		t.Errorf("daily dates = %v", dates)
	}
}

func TestDailyScheduleInterval(t *testing.T) {
	tb := testTaskBooking(t, 7)
	schedule := GetScheduleType(ScheduleTypeDaily, tb, models.AreaSettings{DailyInterval: 3})

	dates := schedule.Dates()
	if len(dates) != 2 {
		t.Fatalf("daily dates with interval 3 = %d, want 2", len(dates))
	}
}

func TestDailyScheduleShortStay(t *testing.T) {
	tb := testTaskBooking(t, 1)
	schedule := GetScheduleType(ScheduleTypeDaily, tb, models.AreaSettings{DailyInterval: 1})

	if dates := schedule.Dates(); len(dates) != 0 {
		t.Errorf("one-night stay daily dates = %v, want none", dates)
	}
}

func TestGetScheduleTypeUnknown(t *testing.T) {
	tb := testTaskBooking(t, 2)
	if schedule := GetScheduleType("lawn-mowing", tb, models.AreaSettings{}); schedule != nil {
		t.Error("unknown key must return nil")
	}
}

func TestResolveSchedulesOrderingAndSkip(t *testing.T) {
	tb := testTaskBooking(t, 4)
	schedules := ResolveSchedules(
		[]string{ScheduleTypeTurnover, "bogus", ScheduleTypeCheckin, ScheduleTypeCheckout},
		tb, models.AreaSettings{},
	)

	if len(schedules) != 3 {
		t.Fatalf("resolved %d schedules, want 3 (unknown skipped)", len(schedules))
	}
	wantOrder := []string{ScheduleTypeCheckin, ScheduleTypeCheckout, ScheduleTypeTurnover}
	for i, s := range schedules {
		if s.Type() != wantOrder[i] {
			t.Errorf("schedule[%d] = %s, want %s", i, s.Type(), wantOrder[i])
		}
	}
}

func TestRegisterScheduleType(t *testing.T) {
	RegisterScheduleType("midstay-inspection", func(b *models.TaskBooking, s models.AreaSettings) TaskSchedule {
		return &checkinSchedule{booking: b}
	})

	tb := testTaskBooking(t, 3)
	if schedule := GetScheduleType("midstay-inspection", tb, models.AreaSettings{}); schedule == nil {
		t.Error("registered type must resolve")
	}
}
