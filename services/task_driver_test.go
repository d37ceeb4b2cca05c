package services

import (
	"errors"
	"testing"
	"time"

	"stayops-http-service/models"
)

// fakeTaskStore is an in-memory InterfaceTaskService. Cancellation marks
// the row cancelled and keeps it, mirroring the persistent service.
type fakeTaskStore struct {
	tasks     []models.Task
	assignees map[uint][]uint // task ID -> operator IDs
	nextID    uint
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{assignees: map[uint][]uint{}}
}

func (s *fakeTaskStore) GetTaskByID(id uint) (*models.Task, error) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return &s.tasks[i], nil
		}
	}
	return nil, errors.New("task not found")
}

func (s *fakeTaskStore) GetTasks(query models.PaginationQuery, areaID, bookingID uint) ([]models.Task, models.PaginationResult, error) {
	return s.tasks, models.PaginationResult{}, nil
}

func (s *fakeTaskStore) GetTasksByAreaAndBooking(areaID, bookingID uint) ([]models.Task, error) {
	var out []models.Task
	for _, t := range s.tasks {
		if t.AreaID == areaID && t.BookingID == bookingID && t.StatusEnum != models.TaskStatusCancelled {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) CreateTask(task *models.Task, assigneeIDs []uint) error {
	s.nextID++
	task.ID = s.nextID
	s.tasks = append(s.tasks, *task)
	if len(assigneeIDs) > 0 {
		s.assignees[task.ID] = assigneeIDs
	}
	return nil
}

func (s *fakeTaskStore) UpdateTaskStatus(id uint, statusEnum string) (*models.Task, error) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].StatusEnum = statusEnum
			return &s.tasks[i], nil
		}
	}
	return nil, errors.New("task not found")
}

func (s *fakeTaskStore) ReplaceTaskAssignees(id uint, operatorIDs []uint) (*models.Task, error) {
	s.assignees[id] = operatorIDs
	return s.GetTaskByID(id)
}

func (s *fakeTaskStore) CancelTasksForBooking(areaID, bookingID uint) ([]uint, error) {
	var ids []uint
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.AreaID != areaID || t.BookingID != bookingID || t.StatusEnum == models.TaskStatusCancelled {
			continue
		}
		t.StatusEnum = models.TaskStatusCancelled
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (s *fakeTaskStore) CountSameDayTasks(operatorIDs []uint, day time.Time) (map[uint]map[uint]int, error) {
	return map[uint]map[uint]int{}, nil
}

func (s *fakeTaskStore) CountWindowTasks(operatorIDs []uint, from, to time.Time) (map[uint]int, error) {
	return map[uint]int{}, nil
}

func (s *fakeTaskStore) activeTasks(areaID, bookingID uint) []models.Task {
	out, _ := s.GetTasksByAreaAndBooking(areaID, bookingID)
	return out
}

// fakeAssigner is a canned InterfaceAssignmentService
type fakeAssigner struct {
	operator *models.Operator
}

func (a *fakeAssigner) GetAvailableOperator(date time.Time, area *models.Area) (*models.Operator, error) {
	return a.operator, nil
}

// fakeNotifier records admin warnings
type fakeNotifier struct {
	warnings []string
}

func (n *fakeNotifier) Connect() error { return nil }
func (n *fakeNotifier) Disconnect()    {}
func (n *fakeNotifier) NotifyAdminWarning(message string) {
	n.warnings = append(n.warnings, message)
}
func (n *fakeNotifier) NotifyFirstAccess(bookingID uint, listingID uint, deviceID string) {}

func driverTestArea(t *testing.T, settings models.AreaSettings) *models.Area {
	t.Helper()
	area := &models.Area{ID: 11, Name: "Housekeeping", InstanceOf: DriverKeyCleaning, Display: true}
	if err := area.SetSettings(settings); err != nil {
		t.Fatalf("SetSettings: %v", err)
	}
	return area
}

func driverTestDeps(store *fakeTaskStore, assigner *fakeAssigner, notifier *fakeNotifier) *DriverDeps {
	return &DriverDeps{
		Tasks:      store,
		Assignment: assigner,
		Notifier:   notifier,
	}
}

func driverTestBooking(rooms ...uint) *models.TaskBooking {
	checkin := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	booking := &models.TaskBooking{
		ID:       501,
		CheckIn:  checkin,
		CheckOut: checkin.AddDate(0, 0, 4),
		Days:     4,
	}
	for i, listingID := range rooms {
		booking.Rooms = append(booking.Rooms, models.BookingRoom{ListingID: listingID, RoomIndex: i})
	}
	return booking
}

func snapshotOf(booking *models.TaskBooking) *models.BookingSnapshot {
	snapshot := booking.Snapshot()
	return &snapshot
}

func TestConfirmationCreatesTasksPerEligibleRoom(t *testing.T) {
	store := newFakeTaskStore()
	area := driverTestArea(t, models.AreaSettings{ListingIDs: []uint{7}})
	driver, err := GetTaskDriver(area, driverTestDeps(store, &fakeAssigner{}, &fakeNotifier{}))
	if err != nil {
		t.Fatalf("GetTaskDriver: %v", err)
	}

	if err := driver.ScheduleBookingConfirmation(driverTestBooking(7, 9)); err != nil {
		t.Fatalf("confirmation: %v", err)
	}

	active := store.activeTasks(area.ID, 501)
	if len(active) != 1 {
		t.Fatalf("active tasks = %d, want 1 (listing 9 is not eligible)", len(active))
	}
	if active[0].ListingID != 7 || active[0].Scheduler != ScheduleTypeCheckout {
		t.Errorf("unexpected task %+v", active[0])
	}
	if got := driver.Collector().GetCreated(); len(got) != 1 {
		t.Errorf("collector created = %v, want one entry", got)
	}
}

func TestConfirmationIsIdempotent(t *testing.T) {
	store := newFakeTaskStore()
	area := driverTestArea(t, models.AreaSettings{})
	driver, err := GetTaskDriver(area, driverTestDeps(store, &fakeAssigner{}, &fakeNotifier{}))
	if err != nil {
		t.Fatalf("GetTaskDriver: %v", err)
	}

	booking := driverTestBooking(7)
	if err := driver.ScheduleBookingConfirmation(booking); err != nil {
		t.Fatalf("first confirmation: %v", err)
	}
	if err := driver.ScheduleBookingConfirmation(booking); err != nil {
		t.Fatalf("second confirmation: %v", err)
	}

	if got := len(store.tasks); got != 1 {
		t.Errorf("total tasks after repeated confirmation = %d, want 1", got)
	}
	if got := driver.Collector().GetCreated(); len(got) != 0 {
		t.Errorf("second run created = %v, want none", got)
	}
}

func TestAlterationRegeneratesTasks(t *testing.T) {
	store := newFakeTaskStore()
	area := driverTestArea(t, models.AreaSettings{})
	driver, err := GetTaskDriver(area, driverTestDeps(store, &fakeAssigner{}, &fakeNotifier{}))
	if err != nil {
		t.Fatalf("GetTaskDriver: %v", err)
	}

	booking := driverTestBooking(7)
	if err := driver.ScheduleBookingConfirmation(booking); err != nil {
		t.Fatalf("confirmation: %v", err)
	}
	originalDue := store.tasks[0].DueOn

	booking.Previous = snapshotOf(booking)
	booking.CheckOut = booking.CheckOut.AddDate(0, 0, 1)

	if err := driver.ScheduleBookingAlteration(booking); err != nil {
		t.Fatalf("alteration: %v", err)
	}

	active := store.activeTasks(area.ID, 501)
	if len(active) != 1 {
		t.Fatalf("active tasks after alteration = %d, want 1 (total rows %d)", len(active), len(store.tasks))
	}
	if !active[0].DueOn.After(originalDue) {
		t.Errorf("regenerated task due %v, want later than %v", active[0].DueOn, originalDue)
	}
	if got := len(store.tasks); got != 2 {
		t.Errorf("total rows = %d, want 2 (cancelled row kept)", got)
	}

	collector := driver.Collector()
	if got := collector.GetCancelled(); len(got) != 1 {
		t.Errorf("collector cancelled = %v, want the original task", got)
	}
	if got := collector.GetCreated(); len(got) != 1 {
		t.Errorf("collector created = %v, want the replacement task", got)
	}
	if got := collector.GetModified(); len(got) != 2 {
		t.Errorf("collector modified = %v, want both tasks", got)
	}
}

func TestAlterationWithoutStructuralChange(t *testing.T) {
	store := newFakeTaskStore()
	area := driverTestArea(t, models.AreaSettings{})
	driver, err := GetTaskDriver(area, driverTestDeps(store, &fakeAssigner{}, &fakeNotifier{}))
	if err != nil {
		t.Fatalf("GetTaskDriver: %v", err)
	}

	booking := driverTestBooking(7)
	if err := driver.ScheduleBookingConfirmation(booking); err != nil {
		t.Fatalf("confirmation: %v", err)
	}

	booking.Previous = snapshotOf(booking)
	if err := driver.ScheduleBookingAlteration(booking); err != nil {
		t.Fatalf("alteration: %v", err)
	}

	if got := len(store.tasks); got != 1 {
		t.Errorf("total rows = %d, want the original task untouched", got)
	}
	if store.tasks[0].StatusEnum == models.TaskStatusCancelled {
		t.Error("an unchanged booking must not cancel its tasks")
	}
}

func TestAlterationAfterFullCancellation(t *testing.T) {
	store := newFakeTaskStore()
	area := driverTestArea(t, models.AreaSettings{})
	driver, err := GetTaskDriver(area, driverTestDeps(store, &fakeAssigner{}, &fakeNotifier{}))
	if err != nil {
		t.Fatalf("GetTaskDriver: %v", err)
	}

	booking := driverTestBooking(7)
	if err := driver.ScheduleBookingConfirmation(booking); err != nil {
		t.Fatalf("confirmation: %v", err)
	}
	if err := driver.ScheduleBookingCancellation(booking); err != nil {
		t.Fatalf("cancellation: %v", err)
	}
	if len(store.activeTasks(area.ID, 501)) != 0 {
		t.Fatal("cancellation must leave no active tasks")
	}

	// Re-confirming after a cancellation regenerates from scratch
	if err := driver.ScheduleBookingConfirmation(booking); err != nil {
		t.Fatalf("re-confirmation: %v", err)
	}
	if got := len(store.activeTasks(area.ID, 501)); got != 1 {
		t.Errorf("active tasks after re-confirmation = %d, want 1", got)
	}
}

func TestAutoAssignAttachesOperator(t *testing.T) {
	store := newFakeTaskStore()
	area := driverTestArea(t, models.AreaSettings{AutoAssign: true})
	assigner := &fakeAssigner{operator: &models.Operator{ID: 3, Name: "Dana"}}
	driver, err := GetTaskDriver(area, driverTestDeps(store, assigner, &fakeNotifier{}))
	if err != nil {
		t.Fatalf("GetTaskDriver: %v", err)
	}

	if err := driver.ScheduleBookingConfirmation(driverTestBooking(7)); err != nil {
		t.Fatalf("confirmation: %v", err)
	}
	if got := store.assignees[store.tasks[0].ID]; len(got) != 1 || got[0] != 3 {
		t.Errorf("assignees = %v, want [3]", got)
	}
}

func TestAutoAssignWithoutOperatorStillCreates(t *testing.T) {
	store := newFakeTaskStore()
	notifier := &fakeNotifier{}
	area := driverTestArea(t, models.AreaSettings{AutoAssign: true})
	driver, err := GetTaskDriver(area, driverTestDeps(store, &fakeAssigner{}, notifier))
	if err != nil {
		t.Fatalf("GetTaskDriver: %v", err)
	}

	if err := driver.ScheduleBookingConfirmation(driverTestBooking(7)); err != nil {
		t.Fatalf("confirmation: %v", err)
	}
	if got := len(store.activeTasks(area.ID, 501)); got != 1 {
		t.Fatalf("active tasks = %d, want 1 (never drop a task for lack of an assignee)", got)
	}
	if len(store.assignees) != 0 {
		t.Error("no operator was available, nothing should be assigned")
	}
	if len(notifier.warnings) != 1 {
		t.Errorf("admin warnings = %v, want one", notifier.warnings)
	}
}

func TestGetTaskDriverUnknownKey(t *testing.T) {
	area := &models.Area{ID: 12, Name: "Broken", InstanceOf: "bogus"}
	if _, err := GetTaskDriver(area, driverTestDeps(newFakeTaskStore(), &fakeAssigner{}, &fakeNotifier{})); err == nil {
		t.Fatal("an unknown driver key must be rejected")
	}
}
