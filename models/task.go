package models

import (
	"time"
)

// TaskStatusCancelled is the terminal status applied when a booking is
// cancelled. Other statuses come from the owning area's configured groups.
const TaskStatusCancelled = "cancelled"

// Task represents one persisted operational task generated by the
// scheduling engine for a booking room.
type Task struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	AreaID     uint   `gorm:"index;not null" json:"area_id"`
	StatusEnum string `gorm:"type:varchar(30);not null" json:"status_enum"`
	Scheduler  string `gorm:"type:varchar(50)" json:"scheduler"`
	Title      string `gorm:"type:varchar(200)" json:"title"`
	BookingID  uint   `gorm:"index" json:"booking_id"`
	ListingID  uint   `gorm:"index" json:"listing_id"`
	RoomIndex  *int   `json:"room_index,omitempty"`

	DueOn      time.Time  `gorm:"column:dueon;index" json:"dueon"` // UTC
	CreatedOn  time.Time  `gorm:"column:createdon" json:"createdon"`
	BeganOn    *time.Time `gorm:"column:beganon" json:"beganon,omitempty"`
	FinishedOn *time.Time `gorm:"column:finishedon" json:"finishedon,omitempty"`
	ModifiedOn *time.Time `gorm:"column:modifiedon" json:"modifiedon,omitempty"`

	Assignees []Operator `gorm:"many2many:task_assignees;" json:"assignees,omitempty"`
}

// TableName maps Task onto the tasks table
func (Task) TableName() string {
	return "tasks"
}

// DurationMinutes returns finished minus began when both are set, else the
// owning area's default duration.
func (t *Task) DurationMinutes(areaDefaultMinutes int) int {
	if t.BeganOn != nil && t.FinishedOn != nil {
		return int(t.FinishedOn.Sub(*t.BeganOn).Minutes())
	}
	return areaDefaultMinutes
}

// DueDate returns the UTC calendar day the task is due on
func (t *Task) DueDate() time.Time {
	d := t.DueOn.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
