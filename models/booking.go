package models

import (
	"errors"
	"sort"
	"time"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking represents a persisted reservation record
type Booking struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Status    BookingStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CheckIn   int64         `gorm:"not null" json:"checkin"`  // epoch seconds
	CheckOut  int64         `gorm:"not null" json:"checkout"` // epoch seconds
	Days      int           `json:"days"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	Rooms []BookingRoom `gorm:"foreignKey:BookingID" json:"rooms,omitempty"`
}

// BookingRoom binds one listing occurrence to a booking. RoomIndex
// disambiguates multiple units of the same listing within one booking.
type BookingRoom struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	BookingID uint `gorm:"index;not null" json:"booking_id"`
	ListingID uint `gorm:"index;not null" json:"listing_id"`
	RoomIndex int  `json:"room_index"`
}

// BookingSnapshot captures the alteration-relevant fields of a booking
// state for structural comparison.
type BookingSnapshot struct {
	CheckIn  int64
	CheckOut int64
	Days     int
	RoomIDs  []uint
}

// TaskBooking is the ephemeral projection of a reservation handed to the
// scheduling engine. It carries the prior state snapshot for alteration
// detection and a mutable cursor used while iterating rooms.
type TaskBooking struct {
	ID               uint
	CheckIn          time.Time
	CheckOut         time.Time
	Days             int
	Rooms            []BookingRoom
	Previous         *BookingSnapshot
	CurrentRoomIndex int
}

// NewTaskBooking builds the scheduling projection of a booking.
// A booking without an ID is rejected.
func NewTaskBooking(booking *Booking, previous *BookingSnapshot) (*TaskBooking, error) {
	if booking == nil || booking.ID == 0 {
		return nil, errors.New("task booking requires a booking with a valid ID")
	}
	days := booking.Days
	if days <= 0 {
		days = int(time.Unix(booking.CheckOut, 0).UTC().Sub(time.Unix(booking.CheckIn, 0).UTC()).Hours() / 24)
	}
	return &TaskBooking{
		ID:       booking.ID,
		CheckIn:  time.Unix(booking.CheckIn, 0).UTC(),
		CheckOut: time.Unix(booking.CheckOut, 0).UTC(),
		Days:     days,
		Rooms:    booking.Rooms,
		Previous: previous,
	}, nil
}

// Snapshot captures the current state in the same shape used for the
// previous-state comparison.
func (b *TaskBooking) Snapshot() BookingSnapshot {
	ids := make([]uint, 0, len(b.Rooms))
	for _, r := range b.Rooms {
		ids = append(ids, r.ListingID)
	}
	return BookingSnapshot{
		CheckIn:  b.CheckIn.Unix(),
		CheckOut: b.CheckOut.Unix(),
		Days:     b.Days,
		RoomIDs:  ids,
	}
}

// DetectAlterations reports whether the booking structurally differs from
// its previous snapshot: check-in, check-out, total days, room count or the
// multiset of room listing IDs. Room ordering is irrelevant.
func (b *TaskBooking) DetectAlterations() bool {
	if b.Previous == nil {
		return false
	}
	current := b.Snapshot()
	prev := *b.Previous

	if current.CheckIn != prev.CheckIn || current.CheckOut != prev.CheckOut {
		return true
	}
	if current.Days != prev.Days {
		return true
	}
	if len(current.RoomIDs) != len(prev.RoomIDs) {
		return true
	}

	a := append([]uint(nil), current.RoomIDs...)
	p := append([]uint(nil), prev.RoomIDs...)
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
	sort.Slice(p, func(i, j int) bool { return p[i] < p[j] })
	for i := range a {
		if a[i] != p[i] {
			return true
		}
	}
	return false
}
