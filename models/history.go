package models

import (
	"encoding/json"
	"time"
)

// Booking-history event codes written by the scheduling and door-access cores
const (
	HistoryEventNewTasks       = "NT"
	HistoryEventModifiedTasks  = "MT"
	HistoryEventCancelledTasks = "CT"
	HistoryEventNewDoorAccess  = "ND"
	HistoryEventModDoorAccess  = "MD"
	HistoryEventFirstAccess    = "FA"
)

// BookingHistory is one audit entry attached to a booking
type BookingHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookingID uint      `gorm:"index;not null" json:"booking_id"`
	EventCode string    `gorm:"type:varchar(5);index;not null" json:"event_code"`
	Descr     string    `gorm:"type:varchar(255)" json:"descr"`
	ExtraData string    `gorm:"type:json" json:"extra_data"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName maps BookingHistory onto the booking_history table
func (BookingHistory) TableName() string {
	return "booking_history"
}

// TaskEventData is the extra payload of NT/MT/CT entries
type TaskEventData struct {
	TaskIDs []uint `json:"task_ids"`
}

// DoorAccessEventData is the extra payload of ND/MD entries. Passcode is the
// literal code on creation; Props carries structured capability output on
// modification.
type DoorAccessEventData struct {
	Provider  string            `json:"provider"`
	ProfileID uint              `json:"profile"`
	DeviceID  string            `json:"device"`
	Passcode  string            `json:"passcode,omitempty"`
	Name      string            `json:"name,omitempty"`
	Props     map[string]string `json:"props,omitempty"`
}

// SetExtraData encodes any payload into the extra-data column
func (h *BookingHistory) SetExtraData(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.ExtraData = string(raw)
	return nil
}

// GetDoorAccessData decodes an ND/MD payload
func (h *BookingHistory) GetDoorAccessData() (*DoorAccessEventData, error) {
	var data DoorAccessEventData
	if err := json.Unmarshal([]byte(h.ExtraData), &data); err != nil {
		return nil, err
	}
	return &data, nil
}
