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

// ListingController handles rentable-unit records and their lock bindings
type ListingController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewListingController creates a new listing controller
func NewListingController(ctx *gin.Context, container *container.ServiceContainer) *ListingController {
	return &ListingController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleListingFunc returns a Gin handler for listing requests
func HandleListingFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewListingController(ctx, container)

		switch method {
		case "getListings":
			controller.GetListings()
		case "createListing":
			controller.CreateListing()
		case "updateListing":
			controller.UpdateListing()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "Invalid method",
				"data":    nil,
			})
		}
	}
}

// GetListings lists all listings
// @Summary      List Listings
// @Tags         Listing
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /listings [get]
func (c *ListingController) GetListings() {
	var listings []models.Listing
	if err := c.Container.GetDB().Find(&listings).Error; err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}
	response.Success(c.Ctx, listings)
}

// CreateListing creates a listing, optionally bound to a lock device
// @Summary      Create Listing
// @Tags         Listing
// @Accept       json
// @Produce      json
// @Param        request body models.Listing true "Listing definition"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /listings [post]
func (c *ListingController) CreateListing() {
	var listing models.Listing
	if err := c.Ctx.ShouldBindJSON(&listing); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	if err := c.Container.GetDB().Create(&listing).Error; err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}

	// Cache the name for webhook handlers and notifications
	redisService := c.Container.GetService("redis").(services.InterfaceRedisService)
	_ = redisService.CacheListingName(listing.ID, listing.Name)

	response.Success(c.Ctx, listing)
}

// UpdateListing updates a listing, e.g. to change its lock binding
// @Summary      Update Listing
// @Tags         Listing
// @Accept       json
// @Produce      json
// @Param        id path int true "Listing ID"
// @Param        request body map[string]interface{} true "Fields to update"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /listings/{id} [put]
func (c *ListingController) UpdateListing() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid listing ID")
		return
	}

	var updates map[string]interface{}
	if err := c.Ctx.ShouldBindJSON(&updates); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	db := c.Container.GetDB()
	var listing models.Listing
	if err := db.First(&listing, uint(id)).Error; err != nil {
		response.Fail(c.Ctx, code.ErrRecordNotFound, nil)
		return
	}
	if err := db.Model(&listing).Updates(updates).Error; err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}

	redisService := c.Container.GetService("redis").(services.InterfaceRedisService)
	_ = redisService.CacheListingName(listing.ID, listing.Name)

	response.Success(c.Ctx, listing)
}
