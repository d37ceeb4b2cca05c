package services

import (
	"errors"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"

	"gorm.io/gorm"
)

// InterfaceTaskService defines the task registry interface
type InterfaceTaskService interface {
	GetTaskByID(id uint) (*models.Task, error)
	GetTasks(query models.PaginationQuery, areaID, bookingID uint) ([]models.Task, models.PaginationResult, error)
	GetTasksByAreaAndBooking(areaID, bookingID uint) ([]models.Task, error)
	CreateTask(task *models.Task, assigneeIDs []uint) error
	UpdateTaskStatus(id uint, statusEnum string) (*models.Task, error)
	ReplaceTaskAssignees(id uint, operatorIDs []uint) (*models.Task, error)
	CancelTasksForBooking(areaID, bookingID uint) ([]uint, error)
	CountSameDayTasks(operatorIDs []uint, day time.Time) (map[uint]map[uint]int, error)
	CountWindowTasks(operatorIDs []uint, from, to time.Time) (map[uint]int, error)
}

// TaskService provides typed access to persisted tasks
type TaskService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewTaskService creates a new task service
func NewTaskService(db *gorm.DB, cfg *config.Config) InterfaceTaskService {
	return &TaskService{
		DB:     db,
		Config: cfg,
	}
}

// GetTaskByID fetches a task with its assignees
func (s *TaskService) GetTaskByID(id uint) (*models.Task, error) {
	var task models.Task
	if err := s.DB.Preload("Assignees").First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("task not found")
		}
		return nil, err
	}
	return &task, nil
}

// GetTasks returns a filtered, paginated task list
func (s *TaskService) GetTasks(query models.PaginationQuery, areaID, bookingID uint) ([]models.Task, models.PaginationResult, error) {
	db := s.DB.Model(&models.Task{})
	if areaID > 0 {
		db = db.Where("area_id = ?", areaID)
	}
	if bookingID > 0 {
		db = db.Where("booking_id = ?", bookingID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	if query.PageNum <= 0 {
		query.PageNum = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}
	order := "dueon ASC"
	if query.Desc {
		order = "dueon DESC"
	}

	var tasks []models.Task
	if err := db.Preload("Assignees").
		Order(order).
		Offset((query.PageNum - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&tasks).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	return tasks, models.NewPaginationResult(int(total), query.PageNum, query.PageSize), nil
}

// GetTasksByAreaAndBooking returns the active tasks of an area+booking
// pair. This is the duplicate-creation guard query: cancelled rows stay in
// the table but must not block regeneration after an alteration.
func (s *TaskService) GetTasksByAreaAndBooking(areaID, bookingID uint) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.DB.
		Where("area_id = ? AND booking_id = ? AND status_enum <> ?", areaID, bookingID, models.TaskStatusCancelled).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask persists a task and attaches its assignees
func (s *TaskService) CreateTask(task *models.Task, assigneeIDs []uint) error {
	if task.CreatedOn.IsZero() {
		task.CreatedOn = time.Now().UTC()
	}
	if err := s.DB.Create(task).Error; err != nil {
		return err
	}
	if len(assigneeIDs) == 0 {
		return nil
	}

	var operators []models.Operator
	if err := s.DB.Where("id IN ?", assigneeIDs).Find(&operators).Error; err != nil {
		return err
	}
	return s.DB.Model(task).Association("Assignees").Append(&operators)
}

// UpdateTaskStatus moves a task to a new status, stamping began/finished
// timestamps on first entry into a working or terminal state
func (s *TaskService) UpdateTaskStatus(id uint, statusEnum string) (*models.Task, error) {
	task, err := s.GetTaskByID(id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status_enum": statusEnum,
		"modifiedon":  now,
	}
	if task.BeganOn == nil && statusEnum != task.StatusEnum {
		updates["beganon"] = now
	}
	if statusEnum == "done" && task.FinishedOn == nil {
		updates["finishedon"] = now
	}

	if err := s.DB.Model(task).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetTaskByID(id)
}

// ReplaceTaskAssignees swaps the task's assignee set for the given operators
func (s *TaskService) ReplaceTaskAssignees(id uint, operatorIDs []uint) (*models.Task, error) {
	task, err := s.GetTaskByID(id)
	if err != nil {
		return nil, err
	}

	var operators []models.Operator
	if len(operatorIDs) > 0 {
		if err := s.DB.Where("id IN ?", operatorIDs).Find(&operators).Error; err != nil {
			return nil, err
		}
		if len(operators) != len(operatorIDs) {
			return nil, errors.New("unknown operator in assignee list")
		}
	}

	if err := s.DB.Model(task).Association("Assignees").Replace(&operators); err != nil {
		return nil, err
	}
	if err := s.DB.Model(task).Update("modifiedon", time.Now().UTC()).Error; err != nil {
		return nil, err
	}
	return s.GetTaskByID(id)
}

// CancelTasksForBooking marks every task of an area+booking pair cancelled
// and returns the affected IDs. No tasks is a no-op, not an error.
func (s *TaskService) CancelTasksForBooking(areaID, bookingID uint) ([]uint, error) {
	tasks, err := s.GetTasksByAreaAndBooking(areaID, bookingID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		if t.StatusEnum == models.TaskStatusCancelled {
			continue
		}
		ids = append(ids, t.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	if err := s.DB.Model(&models.Task{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status_enum": models.TaskStatusCancelled, "modifiedon": now}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// sameDayRow is the grouped result of the same-day load query
type sameDayRow struct {
	OperatorID uint
	AreaID     uint
	Count      int
}

// CountSameDayTasks counts non-cancelled tasks due within the UTC calendar
// day, grouped by (operator, area)
func (s *TaskService) CountSameDayTasks(operatorIDs []uint, day time.Time) (map[uint]map[uint]int, error) {
	result := make(map[uint]map[uint]int)
	if len(operatorIDs) == 0 {
		return result, nil
	}

	dayStart := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var rows []sameDayRow
	if err := s.DB.Model(&models.Task{}).
		Select("task_assignees.operator_id AS operator_id, tasks.area_id AS area_id, COUNT(*) AS count").
		Joins("JOIN task_assignees ON task_assignees.task_id = tasks.id").
		Where("task_assignees.operator_id IN ?", operatorIDs).
		Where("tasks.dueon >= ? AND tasks.dueon < ?", dayStart, dayEnd).
		Where("tasks.status_enum <> ?", models.TaskStatusCancelled).
		Group("task_assignees.operator_id, tasks.area_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, r := range rows {
		if result[r.OperatorID] == nil {
			result[r.OperatorID] = make(map[uint]int)
		}
		result[r.OperatorID][r.AreaID] = r.Count
	}
	return result, nil
}

// windowRow is the grouped result of the load-history window query
type windowRow struct {
	OperatorID uint
	Count      int
}

// CountWindowTasks counts non-cancelled task assignments per operator with
// due dates inside [from, to)
func (s *TaskService) CountWindowTasks(operatorIDs []uint, from, to time.Time) (map[uint]int, error) {
	result := make(map[uint]int)
	if len(operatorIDs) == 0 {
		return result, nil
	}

	var rows []windowRow
	if err := s.DB.Model(&models.Task{}).
		Select("task_assignees.operator_id AS operator_id, COUNT(*) AS count").
		Joins("JOIN task_assignees ON task_assignees.task_id = tasks.id").
		Where("task_assignees.operator_id IN ?", operatorIDs).
		Where("tasks.dueon >= ? AND tasks.dueon < ?", from, to).
		Where("tasks.status_enum <> ?", models.TaskStatusCancelled).
		Group("task_assignees.operator_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, r := range rows {
		result[r.OperatorID] = r.Count
	}
	return result, nil
}
