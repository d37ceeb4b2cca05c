package controllers

import (
	"net/http"
	"strconv"

	"stayops-http-service/internal/error/code"
	"stayops-http-service/internal/error/response"
	"stayops-http-service/models"
	"stayops-http-service/services"
	"stayops-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceTaskController defines the task controller interface
type InterfaceTaskController interface {
	GetTasks()
	GetTask()
	UpdateTaskStatus()
	UpdateTaskAssignees()
}

// TaskController handles task query and status-transition requests
type TaskController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewTaskController creates a new task controller
func NewTaskController(ctx *gin.Context, container *container.ServiceContainer) *TaskController {
	return &TaskController{
		Ctx:       ctx,
		Container: container,
	}
}

// UpdateTaskStatusRequest carries a task status transition
type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required" example:"done"`
}

// UpdateTaskAssigneesRequest carries the replacement operator set
type UpdateTaskAssigneesRequest struct {
	OperatorIDs []uint `json:"operator_ids"`
}

// HandleTaskFunc returns a Gin handler for task requests
func HandleTaskFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewTaskController(ctx, container)

		switch method {
		case "getTasks":
			controller.GetTasks()
		case "getTask":
			controller.GetTask()
		case "updateTaskStatus":
			controller.UpdateTaskStatus()
		case "updateTaskAssignees":
			controller.UpdateTaskAssignees()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "Invalid method",
				"data":    nil,
			})
		}
	}
}

// GetTasks lists tasks with pagination and optional filters
// @Summary      List Tasks
// @Tags         Task
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        area_id query int false "Filter by area"
// @Param        booking_id query int false "Filter by booking"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tasks [get]
func (c *TaskController) GetTasks() {
	var query models.PaginationQuery
	if err := c.Ctx.ShouldBindQuery(&query); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	areaID, _ := strconv.ParseUint(c.Ctx.Query("area_id"), 10, 32)
	bookingID, _ := strconv.ParseUint(c.Ctx.Query("booking_id"), 10, 32)

	taskService := c.Container.GetService("task").(services.InterfaceTaskService)
	tasks, pagination, err := taskService.GetTasks(query, uint(areaID), uint(bookingID))
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}
	response.Success(c.Ctx, gin.H{
		"tasks":      tasks,
		"pagination": pagination,
	})
}

// GetTask returns a single task with its assignees
// @Summary      Get Task
// @Tags         Task
// @Produce      json
// @Param        id path int true "Task ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tasks/{id} [get]
func (c *TaskController) GetTask() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid task ID")
		return
	}

	taskService := c.Container.GetService("task").(services.InterfaceTaskService)
	task, err := taskService.GetTaskByID(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrTaskNotFound, nil)
		return
	}
	response.Success(c.Ctx, task)
}

// UpdateTaskStatus transitions a task to a new status
// @Summary      Update Task Status
// @Description  Transition a task between its area's allowed statuses,
// @Description  stamping the begin and finish timestamps as it moves
// @Tags         Task
// @Accept       json
// @Produce      json
// @Param        id path int true "Task ID"
// @Param        request body UpdateTaskStatusRequest true "Target status"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tasks/{id}/status [put]
func (c *TaskController) UpdateTaskStatus() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid task ID")
		return
	}

	var req UpdateTaskStatusRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	taskService := c.Container.GetService("task").(services.InterfaceTaskService)
	task, err := taskService.UpdateTaskStatus(uint(id), req.Status)
	if err != nil {
		response.Fail(c.Ctx, code.ErrTaskNotFound, err.Error())
		return
	}
	response.Success(c.Ctx, task)
}

// UpdateTaskAssignees replaces a task's assignee set
// @Summary      Update Task Assignees
// @Tags         Task
// @Accept       json
// @Produce      json
// @Param        id path int true "Task ID"
// @Param        request body UpdateTaskAssigneesRequest true "Operator IDs"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tasks/{id}/assignees [put]
func (c *TaskController) UpdateTaskAssignees() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid task ID")
		return
	}

	var req UpdateTaskAssigneesRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	taskService := c.Container.GetService("task").(services.InterfaceTaskService)
	task, err := taskService.ReplaceTaskAssignees(uint(id), req.OperatorIDs)
	if err != nil {
		response.Fail(c.Ctx, code.ErrTaskNotFound, err.Error())
		return
	}
	response.Success(c.Ctx, task)
}
