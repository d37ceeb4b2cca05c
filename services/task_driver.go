package services

import (
	"fmt"
	"sync"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"
)

// Built-in area driver keys
const (
	DriverKeyCleaning    = "cleaning"
	DriverKeyMaintenance = "maintenance"
)

// TaskDriver implements an area's task-generation behavior for booking
// lifecycle events. The base driver no-ops every method, so concrete
// drivers opt into the events they care about.
type TaskDriver interface {
	ScheduleBookingConfirmation(booking *models.TaskBooking) error
	ScheduleBookingAlteration(booking *models.TaskBooking) error
	ScheduleBookingCancellation(booking *models.TaskBooking) error
	Collector() *TaskCollector
}

// DriverDeps carries the collaborators a driver needs
type DriverDeps struct {
	Config     *config.Config
	Tasks      InterfaceTaskService
	Assignment InterfaceAssignmentService
	Notifier   InterfaceNotificationService
}

// DriverFactory builds a driver bound to an area
type DriverFactory func(area *models.Area, deps *DriverDeps) TaskDriver

// TaskMutator lets external collaborators adjust a task payload right
// before persistence
type TaskMutator func(task *models.Task, booking *models.TaskBooking)

var (
	driverRegistry     map[string]DriverFactory
	driverRegistryOnce sync.Once
	driverRegistryMu   sync.RWMutex

	taskMutators   []TaskMutator
	taskMutatorsMu sync.RWMutex
)

func initDriverRegistry() {
	driverRegistryOnce.Do(func() {
		driverRegistry = map[string]DriverFactory{
			DriverKeyCleaning: func(area *models.Area, deps *DriverDeps) TaskDriver {
				return &cleaningDriver{engine: newDriverEngine(area, deps)}
			},
			DriverKeyMaintenance: func(area *models.Area, deps *DriverDeps) TaskDriver {
				return &maintenanceDriver{engine: newDriverEngine(area, deps)}
			},
		}
	})
}

// RegisterTaskDriver registers an additional area driver
func RegisterTaskDriver(key string, factory DriverFactory) {
	initDriverRegistry()
	driverRegistryMu.Lock()
	defer driverRegistryMu.Unlock()
	driverRegistry[key] = factory
}

// GetTaskDriver instantiates the driver configured for an area
func GetTaskDriver(area *models.Area, deps *DriverDeps) (TaskDriver, error) {
	initDriverRegistry()
	driverRegistryMu.RLock()
	factory, ok := driverRegistry[area.InstanceOf]
	driverRegistryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown area driver %q", area.InstanceOf)
	}
	return factory(area, deps), nil
}

// RegisterTaskMutator adds a pre-persistence task mutation hook
func RegisterTaskMutator(m TaskMutator) {
	taskMutatorsMu.Lock()
	defer taskMutatorsMu.Unlock()
	taskMutators = append(taskMutators, m)
}

func applyTaskMutators(task *models.Task, booking *models.TaskBooking) {
	taskMutatorsMu.RLock()
	defer taskMutatorsMu.RUnlock()
	for _, m := range taskMutators {
		m(task, booking)
	}
}

// BaseTaskDriver no-ops every lifecycle event
type BaseTaskDriver struct {
	collector *TaskCollector
}

// NewBaseTaskDriver creates the no-op base driver
func NewBaseTaskDriver() *BaseTaskDriver {
	return &BaseTaskDriver{collector: NewTaskCollector()}
}

func (d *BaseTaskDriver) ScheduleBookingConfirmation(*models.TaskBooking) error { return nil }
func (d *BaseTaskDriver) ScheduleBookingAlteration(*models.TaskBooking) error   { return nil }
func (d *BaseTaskDriver) ScheduleBookingCancellation(*models.TaskBooking) error { return nil }
func (d *BaseTaskDriver) Collector() *TaskCollector                             { return d.collector }

// driverEngine is the reusable scheduling core shared by concrete drivers
type driverEngine struct {
	area      *models.Area
	deps      *DriverDeps
	collector *TaskCollector
}

func newDriverEngine(area *models.Area, deps *DriverDeps) *driverEngine {
	return &driverEngine{
		area:      area,
		deps:      deps,
		collector: NewTaskCollector(),
	}
}

// createTasksOptions tunes one confirmation run
type createTasksOptions struct {
	titlePrefix  string
	markModified bool
}

// createBookingConfirmationTasks creates one task per eligible room per
// schedule due-date. Repeated events for the same area+booking pair are
// absorbed by the duplicate guard. Returns the number of tasks created.
func (e *driverEngine) createBookingConfirmationTasks(booking *models.TaskBooking, opts createTasksOptions) (int, error) {
	// Duplicate guard: a prior run for this area+booking wins
	existing, err := e.deps.Tasks.GetTasksByAreaAndBooking(e.area.ID, booking.ID)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	settings := e.area.GetSettings()
	keys := settings.SchedulingTypes
	if len(keys) == 0 {
		keys = []string{ScheduleTypeCheckout}
	}
	schedules := ResolveSchedules(keys, booking, settings)

	created := 0
	for i := range booking.Rooms {
		booking.CurrentRoomIndex = i
		room := booking.Rooms[i]
		if !e.area.IsListingEligible(room.ListingID) {
			continue
		}

		for _, schedule := range schedules {
			for _, dueOn := range schedule.Dates() {
				roomIndex := room.RoomIndex
				task := &models.Task{
					AreaID:     e.area.ID,
					StatusEnum: e.area.DefaultStatusEnum(),
					Scheduler:  schedule.Type(),
					Title:      fmt.Sprintf("%s for booking #%d", opts.titlePrefix, booking.ID),
					BookingID:  booking.ID,
					ListingID:  room.ListingID,
					RoomIndex:  &roomIndex,
					DueOn:      dueOn,
					CreatedOn:  time.Now().UTC(),
				}

				warnAdmin := false
				var assigneeIDs []uint
				if settings.AutoAssign {
					operator, err := e.deps.Assignment.GetAvailableOperator(dueOn, e.area)
					if err != nil {
						return created, err
					}
					if operator != nil {
						assigneeIDs = []uint{operator.ID}
					} else {
						// Never drop a task for lack of an assignee
						warnAdmin = true
					}
				}

				applyTaskMutators(task, booking)

				if err := e.deps.Tasks.CreateTask(task, assigneeIDs); err != nil {
					return created, err
				}
				created++
				e.collector.AddCreated(task.ID)
				if opts.markModified {
					e.collector.AddModified(task.ID)
				}

				if warnAdmin && e.deps.Notifier != nil {
					// Best effort: a failed notification never rolls back the task
					e.deps.Notifier.NotifyAdminWarning(fmt.Sprintf(
						"no operator available for task %d (area %s, due %s)",
						task.ID, e.area.Name, dueOn.Format("2006-01-02")))
				}
			}
		}
	}
	return created, nil
}

// cancelBookingTasks cancels every task of this area+booking pair
func (e *driverEngine) cancelBookingTasks(booking *models.TaskBooking, markModified bool) error {
	ids, err := e.deps.Tasks.CancelTasksForBooking(e.area.ID, booking.ID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		e.collector.AddCancelled(id)
		if markModified {
			e.collector.AddModified(id)
		}
	}
	return nil
}

// reconcileAlteration retracts and regenerates tasks when the booking
// structurally changed. Without prior tasks it behaves like confirmation.
func (e *driverEngine) reconcileAlteration(booking *models.TaskBooking, titlePrefix string) error {
	existing, err := e.deps.Tasks.GetTasksByAreaAndBooking(e.area.ID, booking.ID)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		_, err := e.createBookingConfirmationTasks(booking, createTasksOptions{titlePrefix: titlePrefix})
		return err
	}
	if !booking.DetectAlterations() {
		return nil
	}

	if err := e.cancelBookingTasks(booking, true); err != nil {
		return err
	}
	_, err = e.createBookingConfirmationTasks(booking, createTasksOptions{titlePrefix: titlePrefix, markModified: true})
	return err
}

// cleaningDriver schedules cleaning tasks on every lifecycle event
type cleaningDriver struct {
	engine *driverEngine
}

func (d *cleaningDriver) ScheduleBookingConfirmation(booking *models.TaskBooking) error {
	d.engine.collector.Reset()
	_, err := d.engine.createBookingConfirmationTasks(booking, createTasksOptions{titlePrefix: "Cleaning"})
	return err
}

func (d *cleaningDriver) ScheduleBookingAlteration(booking *models.TaskBooking) error {
	d.engine.collector.Reset()
	return d.engine.reconcileAlteration(booking, "Cleaning")
}

func (d *cleaningDriver) ScheduleBookingCancellation(booking *models.TaskBooking) error {
	d.engine.collector.Reset()
	return d.engine.cancelBookingTasks(booking, false)
}

func (d *cleaningDriver) Collector() *TaskCollector {
	return d.engine.collector
}

// maintenanceDriver only reacts to confirmations; altering or cancelling a
// booking leaves inspection tasks in place for manual review
type maintenanceDriver struct {
	BaseTaskDriver
	engine *driverEngine
}

func (d *maintenanceDriver) ScheduleBookingConfirmation(booking *models.TaskBooking) error {
	d.engine.collector.Reset()
	_, err := d.engine.createBookingConfirmationTasks(booking, createTasksOptions{titlePrefix: "Maintenance check"})
	return err
}

func (d *maintenanceDriver) Collector() *TaskCollector {
	return d.engine.collector
}
