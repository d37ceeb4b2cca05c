package models

import (
	"encoding/json"
	"time"
)

// WorkDay is one weekly work-hour rule. Weekday follows time.Weekday
// numbering (Sunday = 0).
type WorkDay struct {
	Weekday int     `json:"weekday"`
	Hours   float64 `json:"hours"`
}

// WorkDayException overrides the weekly template for a date range.
// Ranges are inclusive; the most recently added matching exception wins.
type WorkDayException struct {
	FromDate string  `json:"from_date"` // YYYY-MM-DD
	ToDate   string  `json:"to_date"`   // YYYY-MM-DD
	Hours    float64 `json:"hours"`
}

// Operator represents a human operator tasks can be assigned to
type Operator struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Name               string    `gorm:"type:varchar(100);not null" json:"name"`
	Email              string    `gorm:"type:varchar(100)" json:"email"`
	Phone              string    `gorm:"type:varchar(30)" json:"phone"`
	Permissions        string    `gorm:"type:json" json:"permissions"`
	WorkDaysWeek       string    `gorm:"type:json" json:"work_days_week"`
	WorkDaysExceptions string    `gorm:"type:json" json:"work_days_exceptions"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// GetWorkDaysWeek decodes the weekly work-hour template
func (o *Operator) GetWorkDaysWeek() []WorkDay {
	var days []WorkDay
	if o.WorkDaysWeek != "" {
		_ = json.Unmarshal([]byte(o.WorkDaysWeek), &days)
	}
	return days
}

// GetWorkDaysExceptions decodes the date-specific overrides in insertion order
func (o *Operator) GetWorkDaysExceptions() []WorkDayException {
	var exceptions []WorkDayException
	if o.WorkDaysExceptions != "" {
		_ = json.Unmarshal([]byte(o.WorkDaysExceptions), &exceptions)
	}
	return exceptions
}

// HoursForDate resolves the work hours for a date. Resolution order:
// matching exception range scanned backward (last registered wins), then
// the weekly template, then 0 (day off).
func (o *Operator) HoursForDate(date time.Time) float64 {
	day := date.Format("2006-01-02")

	exceptions := o.GetWorkDaysExceptions()
	for i := len(exceptions) - 1; i >= 0; i-- {
		e := exceptions[i]
		if day >= e.FromDate && day <= e.ToDate {
			return e.Hours
		}
	}

	weekday := int(date.Weekday())
	for _, w := range o.GetWorkDaysWeek() {
		if w.Weekday == weekday {
			return w.Hours
		}
	}

	return 0
}

// AvailableMinutesForDate returns the schedulable minutes for a date
func (o *Operator) AvailableMinutesForDate(date time.Time) int {
	return int(o.HoursForDate(date) * 60)
}
