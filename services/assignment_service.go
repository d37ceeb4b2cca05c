package services

import (
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"

	"gorm.io/gorm"
)

// InterfaceAssignmentService defines the operator selection interface
type InterfaceAssignmentService interface {
	GetAvailableOperator(date time.Time, area *models.Area) (*models.Operator, error)
}

// AssignmentService picks the best available operator for a task under
// day-level capacity constraints, balancing load across a rolling window
type AssignmentService struct {
	DB              *gorm.DB
	Config          *config.Config
	taskService     InterfaceTaskService
	operatorService InterfaceOperatorService
	areaService     InterfaceAreaService
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db *gorm.DB, cfg *config.Config, tasks InterfaceTaskService, operators InterfaceOperatorService, areas InterfaceAreaService) InterfaceAssignmentService {
	return &AssignmentService{
		DB:              db,
		Config:          cfg,
		taskService:     tasks,
		operatorService: operators,
		areaService:     areas,
	}
}

// operatorCandidate tracks one operator's remaining capacity during ranking
type operatorCandidate struct {
	OperatorID       uint
	RemainingMinutes int
}

// GetAvailableOperator returns the least-loaded eligible operator with
// enough same-day capacity for one more task of the target area, or nil
// when every eligible operator is off or fully booked.
func (s *AssignmentService) GetAvailableOperator(date time.Time, area *models.Area) (*models.Operator, error) {
	settings := area.GetSettings()
	if len(settings.OperatorIDs) == 0 {
		return nil, nil
	}

	operators, err := s.operatorService.GetOperatorsByIDs(settings.OperatorIDs)
	if err != nil {
		return nil, err
	}

	// Phase 1: availability filter. Operators with zero minutes are off.
	byID := make(map[uint]*models.Operator, len(operators))
	candidates := make([]operatorCandidate, 0, len(operators))
	for i := range operators {
		op := &operators[i]
		minutes := op.AvailableMinutesForDate(date)
		if minutes <= 0 {
			continue
		}
		byID[op.ID] = op
		candidates = append(candidates, operatorCandidate{OperatorID: op.ID, RemainingMinutes: minutes})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Subtract the load already scheduled on the same UTC day. Tasks in
	// other areas consume that area's own default duration.
	ids := make([]uint, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.OperatorID)
	}
	sameDay, err := s.taskService.CountSameDayTasks(ids, date)
	if err != nil {
		return nil, err
	}
	durations, err := s.areaDurations()
	if err != nil {
		return nil, err
	}

	candidates = subtractSameDayLoad(candidates, sameDay, durations)

	// Phase 2: headroom filter against the target area's own duration
	candidates = filterByHeadroom(candidates, settings.TaskDurationMinutes)

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		// Short-circuit: no history query needed
		return byID[candidates[0].OperatorID], nil
	}

	// Tie-break by historical load across the rolling window: one week
	// before the target day through two weeks after it, inclusive.
	remaining := make([]uint, 0, len(candidates))
	for _, c := range candidates {
		remaining = append(remaining, c.OperatorID)
	}
	day := date.UTC()
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -7)
	to := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 15)
	windowCounts, err := s.taskService.CountWindowTasks(remaining, from, to)
	if err != nil {
		return nil, err
	}

	return byID[pickLeastLoaded(remaining, windowCounts)], nil
}

// areaDurations maps every area ID to its default task duration
func (s *AssignmentService) areaDurations() (map[uint]int, error) {
	areas, err := s.areaService.GetAllAreas()
	if err != nil {
		return nil, err
	}
	durations := make(map[uint]int, len(areas))
	for i := range areas {
		durations[areas[i].ID] = areas[i].GetSettings().TaskDurationMinutes
	}
	return durations, nil
}

// subtractSameDayLoad deducts count * area-duration from each candidate's
// remaining minutes for every (operator, area) group of same-day tasks
func subtractSameDayLoad(candidates []operatorCandidate, sameDay map[uint]map[uint]int, durations map[uint]int) []operatorCandidate {
	out := make([]operatorCandidate, 0, len(candidates))
	for _, c := range candidates {
		for areaID, count := range sameDay[c.OperatorID] {
			duration, ok := durations[areaID]
			if !ok {
				duration = 60
			}
			c.RemainingMinutes -= count * duration
		}
		out = append(out, c)
	}
	return out
}

// filterByHeadroom keeps the candidates whose remaining minutes stay
// non-negative after taking on one task of the target duration
func filterByHeadroom(candidates []operatorCandidate, targetDuration int) []operatorCandidate {
	out := make([]operatorCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.RemainingMinutes-targetDuration >= 0 {
			out = append(out, c)
		}
	}
	return out
}

// pickLeastLoaded returns the candidate with the fewest window assignments.
// Ties keep the earlier candidate so the result stays deterministic.
func pickLeastLoaded(candidates []uint, counts map[uint]int) uint {
	best := candidates[0]
	bestCount := counts[best]
	for _, id := range candidates[1:] {
		if counts[id] < bestCount {
			best = id
			bestCount = counts[id]
		}
	}
	return best
}
