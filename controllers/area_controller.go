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

// InterfaceAreaController defines the area controller interface
type InterfaceAreaController interface {
	GetAreas()
	GetArea()
	CreateArea()
	UpdateArea()
	DeleteArea()
}

// AreaController handles operational-area configuration requests
type AreaController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAreaController creates a new area controller
func NewAreaController(ctx *gin.Context, container *container.ServiceContainer) *AreaController {
	return &AreaController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleAreaFunc returns a Gin handler for area requests
func HandleAreaFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAreaController(ctx, container)

		switch method {
		case "getAreas":
			controller.GetAreas()
		case "getArea":
			controller.GetArea()
		case "createArea":
			controller.CreateArea()
		case "updateArea":
			controller.UpdateArea()
		case "deleteArea":
			controller.DeleteArea()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "Invalid method",
				"data":    nil,
			})
		}
	}
}

// GetAreas lists all configured areas
// @Summary      List Areas
// @Description  Return every configured operational area
// @Tags         Area
// @Produce      json
// @Param        displayed query bool false "Only areas displayed in task views"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /areas [get]
func (c *AreaController) GetAreas() {
	areaService := c.Container.GetService("area").(services.InterfaceAreaService)

	var (
		areas []models.Area
		err   error
	)
	if c.Ctx.Query("displayed") == "true" {
		areas, err = areaService.GetDisplayedAreas()
	} else {
		areas, err = areaService.GetAllAreas()
	}
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}
	response.Success(c.Ctx, areas)
}

// GetArea returns a single area
// @Summary      Get Area
// @Tags         Area
// @Produce      json
// @Param        id path int true "Area ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /areas/{id} [get]
func (c *AreaController) GetArea() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid area ID")
		return
	}

	areaService := c.Container.GetService("area").(services.InterfaceAreaService)
	area, err := areaService.GetAreaByID(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrAreaNotFound, nil)
		return
	}
	response.Success(c.Ctx, area)
}

// CreateArea creates a new area
// @Summary      Create Area
// @Tags         Area
// @Accept       json
// @Produce      json
// @Param        request body models.Area true "Area definition"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /areas [post]
func (c *AreaController) CreateArea() {
	var area models.Area
	if err := c.Ctx.ShouldBindJSON(&area); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	// Unknown driver keys would make every lifecycle run fail for this
	// area, so reject them up front
	if _, err := services.GetTaskDriver(&area, &services.DriverDeps{}); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrAreaDriverUnknown, err.Error(), nil)
		return
	}

	areaService := c.Container.GetService("area").(services.InterfaceAreaService)
	if err := areaService.CreateArea(&area); err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}
	response.Success(c.Ctx, area)
}

// UpdateArea updates an existing area
// @Summary      Update Area
// @Tags         Area
// @Accept       json
// @Produce      json
// @Param        id path int true "Area ID"
// @Param        request body map[string]interface{} true "Fields to update"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /areas/{id} [put]
func (c *AreaController) UpdateArea() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid area ID")
		return
	}

	var updates map[string]interface{}
	if err := c.Ctx.ShouldBindJSON(&updates); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	areaService := c.Container.GetService("area").(services.InterfaceAreaService)
	area, err := areaService.UpdateArea(uint(id), updates)
	if err != nil {
		response.Fail(c.Ctx, code.ErrAreaNotFound, err.Error())
		return
	}
	response.Success(c.Ctx, area)
}

// DeleteArea removes an area
// @Summary      Delete Area
// @Tags         Area
// @Produce      json
// @Param        id path int true "Area ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /areas/{id} [delete]
func (c *AreaController) DeleteArea() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid area ID")
		return
	}

	areaService := c.Container.GetService("area").(services.InterfaceAreaService)
	if err := areaService.DeleteArea(uint(id)); err != nil {
		response.Fail(c.Ctx, code.ErrAreaNotFound, err.Error())
		return
	}
	response.Success(c.Ctx, gin.H{"deleted": id})
}
