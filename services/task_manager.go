package services

import (
	"fmt"

	"stayops-http-service/config"
	"stayops-http-service/models"

	"gorm.io/gorm"
)

// InterfaceTaskManagerService defines the facade fanning booking lifecycle
// events out across every configured area
type InterfaceTaskManagerService interface {
	ProcessBookingConfirmation(booking *models.Booking) bool
	ProcessBookingModification(booking *models.Booking, previous *models.BookingSnapshot) bool
	ProcessBookingCancellation(booking *models.Booking) bool
	GetErrors() []error
}

// TaskManagerService iterates every area per lifecycle event, isolating
// per-area failures so one broken area never blocks the others, and writes
// one audit-history entry per non-empty collector pool.
type TaskManagerService struct {
	DB      *gorm.DB
	Config  *config.Config
	areas   InterfaceAreaService
	history InterfaceHistoryService
	deps    *DriverDeps

	errs []error
}

// NewTaskManagerService creates a new task manager facade
func NewTaskManagerService(db *gorm.DB, cfg *config.Config, areas InterfaceAreaService, history InterfaceHistoryService, deps *DriverDeps) InterfaceTaskManagerService {
	return &TaskManagerService{
		DB:      db,
		Config:  cfg,
		areas:   areas,
		history: history,
		deps:    deps,
	}
}

// lifecycle identifies which driver method a run invokes
type lifecycle int

const (
	lifecycleConfirmation lifecycle = iota
	lifecycleModification
	lifecycleCancellation
)

// ProcessBookingConfirmation schedules tasks for a confirmed booking.
// Returns true iff no area reported an error.
func (s *TaskManagerService) ProcessBookingConfirmation(booking *models.Booking) bool {
	return s.process(booking, nil, lifecycleConfirmation)
}

// ProcessBookingModification reconciles tasks after a booking alteration
func (s *TaskManagerService) ProcessBookingModification(booking *models.Booking, previous *models.BookingSnapshot) bool {
	return s.process(booking, previous, lifecycleModification)
}

// ProcessBookingCancellation retracts tasks for a cancelled booking
func (s *TaskManagerService) ProcessBookingCancellation(booking *models.Booking) bool {
	return s.process(booking, nil, lifecycleCancellation)
}

// GetErrors returns the errors collected during the last run
func (s *TaskManagerService) GetErrors() []error {
	return s.errs
}

func (s *TaskManagerService) process(booking *models.Booking, previous *models.BookingSnapshot, event lifecycle) bool {
	s.errs = nil

	taskBooking, err := models.NewTaskBooking(booking, previous)
	if err != nil {
		s.errs = append(s.errs, err)
		return false
	}

	areas, err := s.areas.GetAllAreas()
	if err != nil {
		s.errs = append(s.errs, err)
		return false
	}

	for i := range areas {
		area := &areas[i]
		if err := s.processArea(area, taskBooking, event); err != nil {
			// Per-area isolation: record and keep going
			s.errs = append(s.errs, fmt.Errorf("area %d (%s): %w", area.ID, area.Name, err))
		}
	}

	return len(s.errs) == 0
}

// processArea runs one area's driver for the event and flushes its
// collector into audit history. A panicking driver is converted into an
// error so it cannot take the remaining areas down with it.
func (s *TaskManagerService) processArea(area *models.Area, booking *models.TaskBooking, event lifecycle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("driver panic: %v", r)
		}
	}()

	driver, err := GetTaskDriver(area, s.deps)
	if err != nil {
		return err
	}

	switch event {
	case lifecycleConfirmation:
		err = driver.ScheduleBookingConfirmation(booking)
	case lifecycleModification:
		err = driver.ScheduleBookingAlteration(booking)
	case lifecycleCancellation:
		err = driver.ScheduleBookingCancellation(booking)
	}
	if err != nil {
		return err
	}

	return s.flushCollector(booking.ID, driver.Collector(), event)
}

// flushCollector writes one history entry per non-empty event pool
func (s *TaskManagerService) flushCollector(bookingID uint, collector *TaskCollector, event lifecycle) error {
	if created := collector.GetCreated(); len(created) > 0 {
		if err := s.history.WriteTaskEvent(bookingID, models.HistoryEventNewTasks, created); err != nil {
			return err
		}
	}
	// Modified entries only make sense on modification runs; on plain
	// confirmation the created pool already tells the whole story
	if event == lifecycleModification {
		if modified := collector.GetModified(); len(modified) > 0 {
			if err := s.history.WriteTaskEvent(bookingID, models.HistoryEventModifiedTasks, modified); err != nil {
				return err
			}
		}
	}
	if cancelled := collector.GetCancelled(); len(cancelled) > 0 {
		if err := s.history.WriteTaskEvent(bookingID, models.HistoryEventCancelledTasks, cancelled); err != nil {
			return err
		}
	}
	return nil
}
