package services

// TaskCollector accumulates the task IDs touched during one driver run,
// split into three disjoint append-only pools. It backs the audit-history
// entries written by the task manager.
type TaskCollector struct {
	created   []uint
	modified  []uint
	cancelled []uint
}

// NewTaskCollector creates an empty collector
func NewTaskCollector() *TaskCollector {
	return &TaskCollector{}
}

// Reset clears every pool. Called at the start of each driver invocation.
func (c *TaskCollector) Reset() {
	c.created = nil
	c.modified = nil
	c.cancelled = nil
}

// AddCreated records a newly created task
func (c *TaskCollector) AddCreated(taskID uint) {
	c.created = append(c.created, taskID)
}

// AddModified records a modified task
func (c *TaskCollector) AddModified(taskID uint) {
	c.modified = append(c.modified, taskID)
}

// AddCancelled records a cancelled task
func (c *TaskCollector) AddCancelled(taskID uint) {
	c.cancelled = append(c.cancelled, taskID)
}

// GetCreated returns the created pool
func (c *TaskCollector) GetCreated() []uint {
	return c.created
}

// GetModified returns the modified pool. When nothing was explicitly marked
// modified it falls back to the union of every pool, since creation and
// cancellation both imply a change worth reporting.
func (c *TaskCollector) GetModified() []uint {
	if len(c.modified) > 0 {
		return c.modified
	}
	union := make([]uint, 0, len(c.created)+len(c.cancelled))
	union = append(union, c.created...)
	union = append(union, c.cancelled...)
	return union
}

// GetCancelled returns the cancelled pool
func (c *TaskCollector) GetCancelled() []uint {
	return c.cancelled
}
