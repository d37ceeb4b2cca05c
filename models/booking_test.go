package models

import (
	"testing"
	"time"
)

func mustTaskBooking(t *testing.T, booking *Booking, previous *BookingSnapshot) *TaskBooking {
	t.Helper()
	tb, err := NewTaskBooking(booking, previous)
	if err != nil {
		t.Fatalf("NewTaskBooking: %v", err)
	}
	return tb
}

func sampleBooking() *Booking {
	checkin := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	return &Booking{
		ID:       501,
		Status:   BookingStatusConfirmed,
		CheckIn:  checkin.Unix(),
		CheckOut: checkin.AddDate(0, 0, 4).Unix(),
		Days:     4,
		Rooms: []BookingRoom{
			{BookingID: 501, ListingID: 7, RoomIndex: 0},
			{BookingID: 501, ListingID: 9, RoomIndex: 1},
		},
	}
}

func TestNewTaskBookingRequiresID(t *testing.T) {
	if _, err := NewTaskBooking(&Booking{}, nil); err == nil {
		t.Fatal("expected error for booking without ID")
	}
	if _, err := NewTaskBooking(nil, nil); err == nil {
		t.Fatal("expected error for nil booking")
	}
}

func TestNewTaskBookingDerivesDays(t *testing.T) {
	booking := sampleBooking()
	booking.Days = 0

	tb := mustTaskBooking(t, booking, nil)
	if tb.Days != 4 {
		t.Errorf("derived days = %d, want 4", tb.Days)
	}
}

func TestDetectAlterationsNoPrevious(t *testing.T) {
	tb := mustTaskBooking(t, sampleBooking(), nil)
	if tb.DetectAlterations() {
		t.Error("booking without previous snapshot must not report alterations")
	}
}

func TestDetectAlterationsUnchanged(t *testing.T) {
	booking := sampleBooking()
	tb := mustTaskBooking(t, booking, nil)
	snapshot := tb.Snapshot()

	tb2 := mustTaskBooking(t, booking, &snapshot)
	if tb2.DetectAlterations() {
		t.Error("identical snapshot must not report alterations")
	}
}

func TestDetectAlterationsDateChange(t *testing.T) {
	booking := sampleBooking()
	tb := mustTaskBooking(t, booking, nil)
	snapshot := tb.Snapshot()

	booking.CheckOut += 86400
	booking.Days++
	tb2 := mustTaskBooking(t, booking, &snapshot)
	if !tb2.DetectAlterations() {
		t.Error("checkout change must report an alteration")
	}
}

func TestDetectAlterationsRoomSetChange(t *testing.T) {
	booking := sampleBooking()
	tb := mustTaskBooking(t, booking, nil)
	snapshot := tb.Snapshot()

	booking.Rooms = []BookingRoom{
		{BookingID: 501, ListingID: 7, RoomIndex: 0},
		{BookingID: 501, ListingID: 11, RoomIndex: 1},
	}
	tb2 := mustTaskBooking(t, booking, &snapshot)
	if !tb2.DetectAlterations() {
		t.Error("swapped listing must report an alteration")
	}
}

func TestDetectAlterationsRoomOrderIrrelevant(t *testing.T) {
	booking := sampleBooking()
	tb := mustTaskBooking(t, booking, nil)
	snapshot := tb.Snapshot()

	booking.Rooms = []BookingRoom{
		{BookingID: 501, ListingID: 9, RoomIndex: 0},
		{BookingID: 501, ListingID: 7, RoomIndex: 1},
	}
	tb2 := mustTaskBooking(t, booking, &snapshot)
	if tb2.DetectAlterations() {
		t.Error("room reordering alone must not report an alteration")
	}
}

func TestDetectAlterationsRoomCountChange(t *testing.T) {
	booking := sampleBooking()
	tb := mustTaskBooking(t, booking, nil)
	snapshot := tb.Snapshot()

	booking.Rooms = booking.Rooms[:1]
	tb2 := mustTaskBooking(t, booking, &snapshot)
	if !tb2.DetectAlterations() {
		t.Error("dropped room must report an alteration")
	}
}
