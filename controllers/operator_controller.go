package controllers

import (
	"net/http"
	"strconv"
	"time"

	"stayops-http-service/internal/error/code"
	"stayops-http-service/internal/error/response"
	"stayops-http-service/models"
	"stayops-http-service/services"
	"stayops-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceOperatorController defines the operator controller interface
type InterfaceOperatorController interface {
	GetOperators()
	GetOperator()
	CreateOperator()
	UpdateOperator()
	DeleteOperator()
	GetAvailability()
}

// OperatorController handles operator management requests
type OperatorController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewOperatorController creates a new operator controller
func NewOperatorController(ctx *gin.Context, container *container.ServiceContainer) *OperatorController {
	return &OperatorController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleOperatorFunc returns a Gin handler for operator requests
func HandleOperatorFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewOperatorController(ctx, container)

		switch method {
		case "getOperators":
			controller.GetOperators()
		case "getOperator":
			controller.GetOperator()
		case "createOperator":
			controller.CreateOperator()
		case "updateOperator":
			controller.UpdateOperator()
		case "deleteOperator":
			controller.DeleteOperator()
		case "getAvailability":
			controller.GetAvailability()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "Invalid method",
				"data":    nil,
			})
		}
	}
}

// GetOperators lists all operators
// @Summary      List Operators
// @Tags         Operator
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /operators [get]
func (c *OperatorController) GetOperators() {
	operatorService := c.Container.GetService("operator").(services.InterfaceOperatorService)
	operators, err := operatorService.GetAllOperators()
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}
	response.Success(c.Ctx, operators)
}

// GetOperator returns a single operator
// @Summary      Get Operator
// @Tags         Operator
// @Produce      json
// @Param        id path int true "Operator ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /operators/{id} [get]
func (c *OperatorController) GetOperator() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid operator ID")
		return
	}

	operatorService := c.Container.GetService("operator").(services.InterfaceOperatorService)
	operator, err := operatorService.GetOperatorByID(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrUserNotFound, nil)
		return
	}
	response.Success(c.Ctx, operator)
}

// CreateOperator creates a new operator
// @Summary      Create Operator
// @Tags         Operator
// @Accept       json
// @Produce      json
// @Param        request body models.Operator true "Operator definition"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /operators [post]
func (c *OperatorController) CreateOperator() {
	var operator models.Operator
	if err := c.Ctx.ShouldBindJSON(&operator); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	operatorService := c.Container.GetService("operator").(services.InterfaceOperatorService)
	if err := operatorService.CreateOperator(&operator); err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}
	response.Success(c.Ctx, operator)
}

// UpdateOperator updates an existing operator
// @Summary      Update Operator
// @Tags         Operator
// @Accept       json
// @Produce      json
// @Param        id path int true "Operator ID"
// @Param        request body map[string]interface{} true "Fields to update"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /operators/{id} [put]
func (c *OperatorController) UpdateOperator() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid operator ID")
		return
	}

	var updates map[string]interface{}
	if err := c.Ctx.ShouldBindJSON(&updates); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	operatorService := c.Container.GetService("operator").(services.InterfaceOperatorService)
	operator, err := operatorService.UpdateOperator(uint(id), updates)
	if err != nil {
		response.Fail(c.Ctx, code.ErrUserNotFound, err.Error())
		return
	}
	response.Success(c.Ctx, operator)
}

// DeleteOperator removes an operator
// @Summary      Delete Operator
// @Tags         Operator
// @Produce      json
// @Param        id path int true "Operator ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /operators/{id} [delete]
func (c *OperatorController) DeleteOperator() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid operator ID")
		return
	}

	operatorService := c.Container.GetService("operator").(services.InterfaceOperatorService)
	if err := operatorService.DeleteOperator(uint(id)); err != nil {
		response.Fail(c.Ctx, code.ErrUserNotFound, err.Error())
		return
	}
	response.Success(c.Ctx, gin.H{"deleted": id})
}

// GetAvailability returns the operator's workable minutes for a date
// @Summary      Operator Availability
// @Description  Return the minutes an operator can work on a given date,
// @Description  with per-date exceptions overriding the weekly template
// @Tags         Operator
// @Produce      json
// @Param        id path int true "Operator ID"
// @Param        date query string true "Date (YYYY-MM-DD)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /operators/{id}/availability [get]
func (c *OperatorController) GetAvailability() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid operator ID")
		return
	}

	date, err := time.Parse("2006-01-02", c.Ctx.Query("date"))
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "date must be YYYY-MM-DD")
		return
	}

	operatorService := c.Container.GetService("operator").(services.InterfaceOperatorService)
	operator, err := operatorService.GetOperatorByID(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrUserNotFound, nil)
		return
	}

	minutes := operatorService.AvailableMinutesForDate(operator, date)
	response.Success(c.Ctx, gin.H{
		"operator_id": operator.ID,
		"date":        c.Ctx.Query("date"),
		"minutes":     minutes,
	})
}
