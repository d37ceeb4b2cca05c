package controllers

import (
	"encoding/json"
	"io"
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

// webhookDedupeTTL keeps processed event IDs long enough to absorb vendor
// redelivery bursts
const webhookDedupeTTL = 24 * time.Hour

// InterfaceWebhookController defines the webhook controller interface
type InterfaceWebhookController interface {
	HandleNukiWebhook()
	HandleUTecWebhook()
	CheckTTLockFirstAccess()
}

// WebhookController ingests vendor event deliveries. Authenticity failures
// and malformed payloads are rejected; events that need no action still
// return 200 so vendors stop retrying them.
type WebhookController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewWebhookController creates a new webhook controller
func NewWebhookController(ctx *gin.Context, container *container.ServiceContainer) *WebhookController {
	return &WebhookController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleWebhookFunc returns a Gin handler for webhook requests
func HandleWebhookFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewWebhookController(ctx, container)

		switch method {
		case "nuki":
			controller.HandleNukiWebhook()
		case "utec":
			controller.HandleUTecWebhook()
		case "ttlockFirstAccess":
			controller.CheckTTLockFirstAccess()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "Invalid method",
				"data":    nil,
			})
		}
	}
}

// nukiWebhookEvent is the subset of the Nuki delivery we act on
type nukiWebhookEvent struct {
	SmartlockID  int64  `json:"smartlockId"`
	SmartlockLog *struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Action  int    `json:"action"`
		Trigger int    `json:"trigger"`
		Date    string `json:"date"`
	} `json:"smartlockLog"`
}

// HandleNukiWebhook processes a Nuki event delivery. The HMAC signature
// over the raw body is validated before the payload is parsed; keypad
// unlock entries named after a booking passcode are recorded as first
// access.
// @Summary      Nuki Webhook
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        profile_id path int true "Lock profile ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /webhooks/nuki/{profile_id} [post]
func (c *WebhookController) HandleNukiWebhook() {
	provider, ok := c.loadProvider(models.LockProviderNuki)
	if !ok {
		return
	}
	nuki, ok := provider.(*services.NukiService)
	if !ok {
		response.Fail(c.Ctx, code.ErrLockConfiguration, "profile is not a nuki integration")
		return
	}

	body, err := io.ReadAll(c.Ctx.Request.Body)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "unreadable body")
		return
	}

	if !nuki.ValidateWebhookSignature(body, c.Ctx.GetHeader("X-Nuki-Signature-Sha256")) {
		response.Fail(c.Ctx, code.ErrWebhookSignature, nil)
		return
	}

	var event nukiWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.Fail(c.Ctx, code.ErrBind, "malformed payload")
		return
	}

	// Deliveries without a log entry carry nothing actionable
	if event.SmartlockLog == nil || event.SmartlockLog.Name == "" {
		response.Success(c.Ctx, gin.H{"handled": false})
		return
	}

	if !c.markProcessed(models.LockProviderNuki, event.SmartlockLog.ID) {
		response.Success(c.Ctx, gin.H{"handled": false, "duplicate": true})
		return
	}

	deviceID := strconv.FormatInt(event.SmartlockID, 10)
	handled := c.recordFirstAccess(nuki, event.SmartlockLog.Name, deviceID)
	response.Success(c.Ctx, gin.H{"handled": handled})
}

// utecWebhookEvent is the subset of the U-Tec delivery we act on
type utecWebhookEvent struct {
	Header struct {
		Namespace string `json:"namespace"`
		Name      string `json:"name"`
		MessageID string `json:"messageId"`
	} `json:"header"`
	Payload struct {
		DeviceID string `json:"deviceId"`
		User     string `json:"user"`
		Event    string `json:"event"`
	} `json:"payload"`
}

// HandleUTecWebhook processes a U-Tec event delivery, authenticated by the
// shared token issued at webhook registration
// @Summary      U-Tec Webhook
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        profile_id path int true "Lock profile ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /webhooks/utec/{profile_id} [post]
func (c *WebhookController) HandleUTecWebhook() {
	provider, ok := c.loadProvider(models.LockProviderUTec)
	if !ok {
		return
	}
	utec, ok := provider.(*services.UTecService)
	if !ok {
		response.Fail(c.Ctx, code.ErrLockConfiguration, "profile is not a utec integration")
		return
	}

	if !utec.ValidateWebhookToken(c.Ctx.GetHeader("X-Webhook-Token")) {
		response.Fail(c.Ctx, code.ErrWebhookSignature, nil)
		return
	}

	var event utecWebhookEvent
	if err := c.Ctx.ShouldBindJSON(&event); err != nil {
		response.Fail(c.Ctx, code.ErrBind, "malformed payload")
		return
	}

	if !c.markProcessed(models.LockProviderUTec, event.Header.MessageID) {
		response.Success(c.Ctx, gin.H{"handled": false, "duplicate": true})
		return
	}

	// Only keypad entries attributed to a booking passcode user matter
	if event.Payload.User == "" {
		response.Success(c.Ctx, gin.H{"handled": false})
		return
	}

	handled := c.recordFirstAccess(utec, event.Payload.User, event.Payload.DeviceID)
	response.Success(c.Ctx, gin.H{"handled": handled})
}

// CheckTTLockFirstAccess polls a TTLock device's unlock records for the
// booking's first keypad entry. TTLock has no push webhooks, so first
// access is pull-based.
// @Summary      TTLock First Access Check
// @Tags         Webhook
// @Produce      json
// @Param        profile_id path int true "Lock profile ID"
// @Param        booking_id query int true "Booking ID"
// @Param        listing_id query int true "Listing ID"
// @Param        device_id query string true "Lock device ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /webhooks/ttlock/{profile_id}/first-access [get]
func (c *WebhookController) CheckTTLockFirstAccess() {
	provider, ok := c.loadProvider(models.LockProviderTTLock)
	if !ok {
		return
	}
	ttlock, ok := provider.(*services.TTLockService)
	if !ok {
		response.Fail(c.Ctx, code.ErrLockConfiguration, "profile is not a ttlock integration")
		return
	}

	bookingID, err := strconv.ParseUint(c.Ctx.Query("booking_id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid booking_id")
		return
	}
	listingID, err := strconv.ParseUint(c.Ctx.Query("listing_id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid listing_id")
		return
	}
	deviceID := c.Ctx.Query("device_id")
	if deviceID == "" {
		response.Fail(c.Ctx, code.ErrBind, "device_id is required")
		return
	}

	historyService := c.Container.GetService("history").(services.InterfaceHistoryService)

	// First access is recorded once per booking
	if seen, err := historyService.HasEvent(uint(bookingID), models.HistoryEventFirstAccess); err == nil && seen {
		response.Success(c.Ctx, gin.H{"first_access": true, "already_recorded": true})
		return
	}

	bookingService := c.Container.GetService("booking").(services.InterfaceBookingService)
	booking, err := bookingService.GetBookingByID(uint(bookingID))
	if err != nil {
		response.Fail(c.Ctx, code.ErrBookingNotFound, nil)
		return
	}

	name := services.BookingPasscodeName(uint(bookingID), uint(listingID))
	passcode := c.issuedPasscode(uint(bookingID), deviceID)

	from := time.Unix(booking.CheckIn, 0).UTC()
	to := time.Unix(booking.CheckOut, 0).UTC()
	accessed, err := ttlock.DetectFirstAccess(deviceID, from, to, name, passcode)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrLockVendor, err.Error(), nil)
		return
	}

	if accessed {
		c.writeFirstAccess(uint(bookingID), uint(listingID), models.LockProviderTTLock, ttlock.ProfileID(), deviceID)
	}
	response.Success(c.Ctx, gin.H{"first_access": accessed})
}

// loadProvider resolves the :profile_id parameter and checks the profile
// belongs to the expected vendor
func (c *WebhookController) loadProvider(expectedProvider string) (services.LockProvider, bool) {
	id, err := strconv.ParseUint(c.Ctx.Param("profile_id"), 10, 32)
	if err != nil {
		response.Fail(c.Ctx, code.ErrBind, "invalid profile ID")
		return nil, false
	}

	profileService := c.Container.GetService("lock_profile").(services.InterfaceLockProfileService)
	provider, err := profileService.GetProvider(uint(id))
	if err != nil {
		response.Fail(c.Ctx, code.ErrLockProfileNotFound, err.Error())
		return nil, false
	}
	if provider.ProviderKey() != expectedProvider {
		response.Fail(c.Ctx, code.ErrLockConfiguration, "profile provider mismatch")
		return nil, false
	}
	return provider, true
}

// markProcessed dedupes redelivered events via Redis. With no event ID or
// no Redis the event passes through.
func (c *WebhookController) markProcessed(provider, eventID string) bool {
	if eventID == "" {
		return true
	}
	redisService := c.Container.GetService("redis").(services.InterfaceRedisService)
	first, err := redisService.MarkWebhookProcessed(provider, eventID, webhookDedupeTTL)
	if err != nil {
		return true
	}
	return first
}

// recordFirstAccess attributes a vendor log entry named after a booking
// passcode to its booking and writes the FA history entry once
func (c *WebhookController) recordFirstAccess(provider services.LockProvider, name, deviceID string) bool {
	bookingID, listingID, ok := services.ParseBookingPasscodeName(name)
	if !ok {
		return false
	}

	historyService := c.Container.GetService("history").(services.InterfaceHistoryService)
	if seen, err := historyService.HasEvent(bookingID, models.HistoryEventFirstAccess); err == nil && seen {
		return false
	}

	c.writeFirstAccess(bookingID, listingID, provider.ProviderKey(), provider.ProfileID(), deviceID)
	return true
}

// issuedPasscode returns the most recently issued passcode value for a
// booking on a device, read back from the ND history trail
func (c *WebhookController) issuedPasscode(bookingID uint, deviceID string) string {
	historyService := c.Container.GetService("history").(services.InterfaceHistoryService)
	entries, err := historyService.GetBookingEventsByCode(bookingID, models.HistoryEventNewDoorAccess)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		data, err := entry.GetDoorAccessData()
		if err != nil {
			continue
		}
		if data.DeviceID == deviceID && data.Passcode != "" {
			return data.Passcode
		}
	}
	return ""
}

// writeFirstAccess persists the FA entry and pushes the best-effort MQTT
// notification
func (c *WebhookController) writeFirstAccess(bookingID, listingID uint, provider string, profileID uint, deviceID string) {
	historyService := c.Container.GetService("history").(services.InterfaceHistoryService)
	_ = historyService.WriteDoorAccessEvent(bookingID, models.HistoryEventFirstAccess, models.DoorAccessEventData{
		Provider:  provider,
		ProfileID: profileID,
		DeviceID:  deviceID,
		Name:      services.BookingPasscodeName(bookingID, listingID),
	})

	notifier := c.Container.GetService("notification").(services.InterfaceNotificationService)
	notifier.NotifyFirstAccess(bookingID, listingID, deviceID)
}
