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

// InterfaceBookingController defines the booking controller interface
type InterfaceBookingController interface {
	GetBookings()
	GetBooking()
	CreateBooking()
	ConfirmBooking()
	AlterBooking()
	CancelBooking()
	GetBookingHistory()
}

// BookingController handles booking lifecycle requests. Confirmation,
// alteration and cancellation each run the task-scheduling fan-out across
// all areas and the door-access fan-out across the booking's lock-bound
// listings.
type BookingController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewBookingController creates a new booking controller
func NewBookingController(ctx *gin.Context, container *container.ServiceContainer) *BookingController {
	return &BookingController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateBookingRequest carries a new reservation
type CreateBookingRequest struct {
	CheckIn  int64  `json:"checkin" binding:"required" example:"1755244800"`
	CheckOut int64  `json:"checkout" binding:"required" example:"1755590400"`
	Days     int    `json:"days" example:"4"`
	Rooms    []uint `json:"rooms" binding:"required"` // listing IDs, one per room
}

// AlterBookingRequest carries a reservation change
type AlterBookingRequest struct {
	CheckIn  *int64 `json:"checkin" example:"1755331200"`
	CheckOut *int64 `json:"checkout" example:"1755676800"`
	Days     *int   `json:"days" example:"4"`
	Rooms    []uint `json:"rooms"` // full replacement set of listing IDs; nil keeps current rooms
}

// doorAccessOutcome reports one listing's door-access result in the
// lifecycle response
type doorAccessOutcome struct {
	ListingID uint   `json:"listing_id"`
	DeviceID  string `json:"device_id"`
	Provider  string `json:"provider"`
	Status    string `json:"status"`
	Passcode  string `json:"passcode,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleBookingFunc returns a Gin handler for booking requests
func HandleBookingFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewBookingController(ctx, container)

		switch method {
		case "getBookings":
			controller.GetBookings()
		case "getBooking":
			controller.GetBooking()
		case "createBooking":
			controller.CreateBooking()
		case "confirmBooking":
			controller.ConfirmBooking()
		case "alterBooking":
			controller.AlterBooking()
		case "cancelBooking":
			controller.CancelBooking()
		case "getBookingHistory":
			controller.GetBookingHistory()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "Invalid method",
				"data":    nil,
			})
		}
	}
}

// GetBookings lists bookings with pagination
// @Summary      List Bookings
// @Tags         Booking
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /bookings [get]
func (c *BookingController) GetBookings() {
	var query models.PaginationQuery
	if err := c.Ctx.ShouldBindQuery(&query); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	bookingService := c.Container.GetService("booking").(services.InterfaceBookingService)
	bookings, pagination, err := bookingService.GetBookings(query)
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}
	response.Success(c.Ctx, gin.H{
		"bookings":   bookings,
		"pagination": pagination,
	})
}

// GetBooking returns a single booking with its rooms
// @Summary      Get Booking
// @Tags         Booking
// @Produce      json
// @Param        id path int true "Booking ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id} [get]
func (c *BookingController) GetBooking() {
	booking, ok := c.loadBooking()
	if !ok {
		return
	}
	response.Success(c.Ctx, booking)
}

// CreateBooking persists a new pending reservation. No tasks or passcodes
// are produced until the booking is confirmed.
// @Summary      Create Booking
// @Tags         Booking
// @Accept       json
// @Produce      json
// @Param        request body CreateBookingRequest true "Reservation"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /bookings [post]
func (c *BookingController) CreateBooking() {
	var req CreateBookingRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}
	if req.CheckOut <= req.CheckIn {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "checkout must be after checkin", nil)
		return
	}

	booking := models.Booking{
		Status:   models.BookingStatusPending,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Days:     req.Days,
	}
	for i, listingID := range req.Rooms {
		booking.Rooms = append(booking.Rooms, models.BookingRoom{
			ListingID: listingID,
			RoomIndex: i,
		})
	}

	bookingService := c.Container.GetService("booking").(services.InterfaceBookingService)
	if err := bookingService.CreateBooking(&booking); err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}
	response.Success(c.Ctx, booking)
}

// ConfirmBooking confirms a booking: every area generates its tasks and
// every lock-bound listing gets a stay-scoped passcode
// @Summary      Confirm Booking
// @Description  Mark the booking confirmed, generate tasks across all
// @Description  areas and issue door-access passcodes for its listings
// @Tags         Booking
// @Produce      json
// @Param        id path int true "Booking ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id}/confirm [post]
func (c *BookingController) ConfirmBooking() {
	booking, ok := c.loadBooking()
	if !ok {
		return
	}

	bookingService := c.Container.GetService("booking").(services.InterfaceBookingService)
	if err := bookingService.SetStatus(booking.ID, models.BookingStatusConfirmed); err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}

	taskManager := c.Container.GetService("task_manager").(services.InterfaceTaskManagerService)
	scheduled := taskManager.ProcessBookingConfirmation(booking)

	access := c.fanOutDoorAccess(booking, "create")

	response.Success(c.Ctx, gin.H{
		"booking_id":  booking.ID,
		"scheduled":   scheduled,
		"task_errors": errorsToStrings(taskManager.GetErrors()),
		"door_access": access,
	})
}

// AlterBooking applies a reservation change and reconciles downstream
// state: structurally altered bookings get their tasks cancelled and
// recreated, and each listing's passcodes are replaced
// @Summary      Alter Booking
// @Tags         Booking
// @Accept       json
// @Produce      json
// @Param        id path int true "Booking ID"
// @Param        request body AlterBookingRequest true "Changed fields"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id}/alter [post]
func (c *BookingController) AlterBooking() {
	booking, ok := c.loadBooking()
	if !ok {
		return
	}

	var req AlterBookingRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.CheckIn != nil {
		updates["check_in"] = *req.CheckIn
	}
	if req.CheckOut != nil {
		updates["check_out"] = *req.CheckOut
	}
	if req.Days != nil {
		updates["days"] = *req.Days
	}

	var rooms []models.BookingRoom
	if req.Rooms != nil {
		for i, listingID := range req.Rooms {
			rooms = append(rooms, models.BookingRoom{
				BookingID: booking.ID,
				ListingID: listingID,
				RoomIndex: i,
			})
		}
	}

	bookingService := c.Container.GetService("booking").(services.InterfaceBookingService)
	updated, previous, err := bookingService.UpdateBooking(booking.ID, updates, rooms)
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}

	taskManager := c.Container.GetService("task_manager").(services.InterfaceTaskManagerService)
	scheduled := taskManager.ProcessBookingModification(updated, previous)

	access := c.fanOutDoorAccess(updated, "modify")

	response.Success(c.Ctx, gin.H{
		"booking_id":  updated.ID,
		"scheduled":   scheduled,
		"task_errors": errorsToStrings(taskManager.GetErrors()),
		"door_access": access,
	})
}

// CancelBooking cancels a booking: open tasks are cancelled and issued
// passcodes are revoked. Listings with nothing to revoke are reported as
// a no-op, not an error.
// @Summary      Cancel Booking
// @Tags         Booking
// @Produce      json
// @Param        id path int true "Booking ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id}/cancel [post]
func (c *BookingController) CancelBooking() {
	booking, ok := c.loadBooking()
	if !ok {
		return
	}

	bookingService := c.Container.GetService("booking").(services.InterfaceBookingService)
	if err := bookingService.SetStatus(booking.ID, models.BookingStatusCancelled); err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}

	taskManager := c.Container.GetService("task_manager").(services.InterfaceTaskManagerService)
	cancelled := taskManager.ProcessBookingCancellation(booking)

	access := c.fanOutDoorAccess(booking, "cancel")

	response.Success(c.Ctx, gin.H{
		"booking_id":  booking.ID,
		"cancelled":   cancelled,
		"task_errors": errorsToStrings(taskManager.GetErrors()),
		"door_access": access,
	})
}

// GetBookingHistory returns the booking's audit-history entries
// @Summary      Booking History
// @Tags         Booking
// @Produce      json
// @Param        id path int true "Booking ID"
// @Param        event query string false "Filter by event code (NT, MT, CT, ND, MD, FA)"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id}/history [get]
func (c *BookingController) GetBookingHistory() {
	booking, ok := c.loadBooking()
	if !ok {
		return
	}

	historyService := c.Container.GetService("history").(services.InterfaceHistoryService)

	var (
		entries []models.BookingHistory
		err     error
	)
	if eventCode := c.Ctx.Query("event"); eventCode != "" {
		entries, err = historyService.GetBookingEventsByCode(booking.ID, eventCode)
	} else {
		entries, err = historyService.GetBookingHistory(booking.ID)
	}
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}
	response.Success(c.Ctx, entries)
}

// loadBooking resolves the :id path parameter to a booking, writing the
// error response itself when that fails
func (c *BookingController) loadBooking() (*models.Booking, bool) {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid booking ID")
		return nil, false
	}

	bookingService := c.Container.GetService("booking").(services.InterfaceBookingService)
	booking, err := bookingService.GetBookingByID(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrBookingNotFound, nil)
		return nil, false
	}
	return booking, true
}

// fanOutDoorAccess runs the requested door-access operation against every
// lock-bound listing of the booking. Listings without a lock binding are
// skipped; per-listing vendor failures are reported without aborting the
// remaining listings.
func (c *BookingController) fanOutDoorAccess(booking *models.Booking, operation string) []doorAccessOutcome {
	db := c.Container.GetDB()
	profileService := c.Container.GetService("lock_profile").(services.InterfaceLockProfileService)
	accessService := c.Container.GetService("lock_access").(services.InterfaceLockAccessService)

	var outcomes []doorAccessOutcome
	seen := map[uint]bool{}
	for _, room := range booking.Rooms {
		if seen[room.ListingID] {
			continue
		}
		seen[room.ListingID] = true

		var listing models.Listing
		if err := db.First(&listing, room.ListingID).Error; err != nil {
			continue
		}
		if listing.LockProfileID == 0 || listing.LockDeviceID == "" {
			continue
		}

		provider, err := profileService.GetProvider(listing.LockProfileID)
		if err != nil {
			outcomes = append(outcomes, doorAccessOutcome{
				ListingID: listing.ID,
				DeviceID:  listing.LockDeviceID,
				Status:    "error",
				Error:     err.Error(),
			})
			continue
		}

		settings := c.doorAccessSettings(listing.ID)

		var result *services.CapabilityResult
		switch operation {
		case "create":
			result, err = accessService.CreateBookingDoorAccess(provider, listing.LockDeviceID, booking, listing.ID, settings)
		case "modify":
			result, err = accessService.ModifyBookingDoorAccess(provider, listing.LockDeviceID, booking, listing.ID, settings)
		case "cancel":
			result, err = accessService.CancelBookingDoorAccess(provider, listing.LockDeviceID, booking, listing.ID)
		}

		outcome := doorAccessOutcome{
			ListingID: listing.ID,
			DeviceID:  listing.LockDeviceID,
			Provider:  provider.ProviderKey(),
			Status:    "ok",
		}
		switch {
		case err != nil:
			outcome.Status = "error"
			outcome.Error = err.Error()
		case result == nil:
			// cancel with nothing issued
			outcome.Status = "noop"
		default:
			outcome.Passcode = result.Passcode
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// doorAccessSettings resolves the passcode-quantity mode for a listing
// from the first displayed area the listing is eligible for
func (c *BookingController) doorAccessSettings(listingID uint) models.AreaSettings {
	areaService := c.Container.GetService("area").(services.InterfaceAreaService)
	areas, err := areaService.GetDisplayedAreas()
	if err == nil {
		for i := range areas {
			settings := areas[i].GetSettings()
			if settings.PassQuant > 0 && areas[i].IsListingEligible(listingID) {
				return settings
			}
		}
	}
	return models.AreaSettings{PassQuant: services.PassQuantPerDevice}
}

// errorsToStrings renders scheduling errors for the response body
func errorsToStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
