package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"stayops-http-service/models"
)

// Built-in scheduling type keys
const (
	ScheduleTypeCheckout = "checkout"
	ScheduleTypeCheckin  = "checkin"
	ScheduleTypeDaily    = "daily"
	ScheduleTypeTurnover = "turnover"
)

// TaskSchedule produces concrete due-dates for a booking. Ordering drives
// deterministic multi-schedule sequencing (ascending).
type TaskSchedule interface {
	Type() string
	Ordering() int
	Description() string
	Dates() []time.Time
}

// ScheduleFactory builds a schedule instance bound to a booking
type ScheduleFactory func(booking *models.TaskBooking, settings models.AreaSettings) TaskSchedule

var (
	scheduleRegistry     map[string]ScheduleFactory
	scheduleRegistryOnce sync.Once
	scheduleRegistryMu   sync.RWMutex
)

// initScheduleRegistry populates the built-in scheduling types once per
// process. Additional types register through RegisterScheduleType.
func initScheduleRegistry() {
	scheduleRegistryOnce.Do(func() {
		scheduleRegistry = map[string]ScheduleFactory{
			ScheduleTypeCheckout: func(b *models.TaskBooking, s models.AreaSettings) TaskSchedule {
				return &checkoutSchedule{booking: b}
			},
			ScheduleTypeCheckin: func(b *models.TaskBooking, s models.AreaSettings) TaskSchedule {
				return &checkinSchedule{booking: b}
			},
			ScheduleTypeDaily: func(b *models.TaskBooking, s models.AreaSettings) TaskSchedule {
				return &dailySchedule{booking: b, interval: s.DailyInterval}
			},
			ScheduleTypeTurnover: func(b *models.TaskBooking, s models.AreaSettings) TaskSchedule {
				return &turnoverSchedule{booking: b}
			},
		}
	})
}

// RegisterScheduleType registers an additional scheduling type. Existing
// keys are overwritten, which lets deployments replace built-ins.
func RegisterScheduleType(key string, factory ScheduleFactory) {
	initScheduleRegistry()
	scheduleRegistryMu.Lock()
	defer scheduleRegistryMu.Unlock()
	scheduleRegistry[key] = factory
}

// GetScheduleType returns a schedule instance bound to the booking, or nil
// when the key is unregistered. Callers treat nil as "skip this schedule".
func GetScheduleType(key string, booking *models.TaskBooking, settings models.AreaSettings) TaskSchedule {
	initScheduleRegistry()
	scheduleRegistryMu.RLock()
	factory, ok := scheduleRegistry[key]
	scheduleRegistryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory(booking, settings)
}

// ResolveSchedules maps the configured keys to schedule instances, dropping
// unknown keys and ordering the result by each schedule's Ordering value.
func ResolveSchedules(keys []string, booking *models.TaskBooking, settings models.AreaSettings) []TaskSchedule {
	schedules := make([]TaskSchedule, 0, len(keys))
	for _, key := range keys {
		if schedule := GetScheduleType(key, booking, settings); schedule != nil {
			schedules = append(schedules, schedule)
		}
	}
	sort.SliceStable(schedules, func(i, j int) bool {
		return schedules[i].Ordering() < schedules[j].Ordering()
	})
	return schedules
}

// dayOf truncates a time to its UTC calendar day
func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// checkoutSchedule is due on the day of checkout
type checkoutSchedule struct {
	booking *models.TaskBooking
}

func (s *checkoutSchedule) Type() string  { return ScheduleTypeCheckout }
func (s *checkoutSchedule) Ordering() int { return 10 }

func (s *checkoutSchedule) Description() string {
	return fmt.Sprintf("On checkout day (%s)", dayOf(s.booking.CheckOut).Format("2006-01-02"))
}

func (s *checkoutSchedule) Dates() []time.Time {
	return []time.Time{dayOf(s.booking.CheckOut)}
}

// checkinSchedule is due on the day of arrival
type checkinSchedule struct {
	booking *models.TaskBooking
}

func (s *checkinSchedule) Type() string  { return ScheduleTypeCheckin }
func (s *checkinSchedule) Ordering() int { return 5 }

func (s *checkinSchedule) Description() string {
	return fmt.Sprintf("On check-in day (%s)", dayOf(s.booking.CheckIn).Format("2006-01-02"))
}

func (s *checkinSchedule) Dates() []time.Time {
	return []time.Time{dayOf(s.booking.CheckIn)}
}

// dailySchedule is due every N days during the stay, excluding the
// check-in and checkout days themselves
type dailySchedule struct {
	booking  *models.TaskBooking
	interval int
}

func (s *dailySchedule) Type() string  { return ScheduleTypeDaily }
func (s *dailySchedule) Ordering() int { return 20 }

func (s *dailySchedule) Description() string {
	return fmt.Sprintf("Every %d day(s) during the stay", s.effectiveInterval())
}

func (s *dailySchedule) effectiveInterval() int {
	if s.interval <= 0 {
		return 1
	}
	return s.interval
}

func (s *dailySchedule) Dates() []time.Time {
	interval := s.effectiveInterval()
	start := dayOf(s.booking.CheckIn)
	end := dayOf(s.booking.CheckOut)

	var dates []time.Time
	for d := start.AddDate(0, 0, interval); d.Before(end); d = d.AddDate(0, 0, interval) {
		dates = append(dates, d)
	}
	return dates
}

// turnoverSchedule is due on checkout day, sequenced after the plain
// checkout schedule so turnover tasks sort behind departure cleaning
type turnoverSchedule struct {
	booking *models.TaskBooking
}

func (s *turnoverSchedule) Type() string  { return ScheduleTypeTurnover }
func (s *turnoverSchedule) Ordering() int { return 30 }

func (s *turnoverSchedule) Description() string {
	return fmt.Sprintf("Turnover on checkout day (%s)", dayOf(s.booking.CheckOut).Format("2006-01-02"))
}

func (s *turnoverSchedule) Dates() []time.Time {
	return []time.Time{dayOf(s.booking.CheckOut)}
}
