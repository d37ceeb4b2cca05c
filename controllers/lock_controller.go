package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"stayops-http-service/internal/error/code"
	"stayops-http-service/internal/error/response"
	"stayops-http-service/models"
	"stayops-http-service/services"
	"stayops-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// InterfaceLockController defines the lock controller interface
type InterfaceLockController interface {
	CreateProfile()
	GetDevices()
	InvokeCapability()
	RegisterWebhook()
}

// LockController handles smart-lock integration requests: vendor profile
// management, device discovery and capability invocation
type LockController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewLockController creates a new lock controller
func NewLockController(ctx *gin.Context, container *container.ServiceContainer) *LockController {
	return &LockController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateProfileRequest carries a new vendor integration profile
type CreateProfileRequest struct {
	Provider     string `json:"provider" binding:"required" example:"nuki"`
	Name         string `json:"name" binding:"required" example:"Main account"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	PasswordMD5  string `json:"password_md5"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiryTS     int64  `json:"expiry_ts"`
}

// InvokeCapabilityRequest carries a capability invocation
type InvokeCapabilityRequest struct {
	Capability string                 `json:"capability" binding:"required" example:"createCustomPasscode"`
	DeviceID   string                 `json:"device_id" binding:"required" example:"545636389"`
	Options    map[string]interface{} `json:"options"`
}

// RegisterWebhookRequest carries the callback URL for event delivery
type RegisterWebhookRequest struct {
	CallbackURL string `json:"callback_url" binding:"required" example:"https://ops.example.com/api/webhooks/utec"`
}

// HandleLockFunc returns a Gin handler for lock requests
func HandleLockFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewLockController(ctx, container)

		switch method {
		case "createProfile":
			controller.CreateProfile()
		case "getDevices":
			controller.GetDevices()
		case "invokeCapability":
			controller.InvokeCapability()
		case "registerWebhook":
			controller.RegisterWebhook()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "Invalid method",
				"data":    nil,
			})
		}
	}
}

// CreateProfile registers a vendor integration profile
// @Summary      Create Lock Profile
// @Tags         Lock
// @Accept       json
// @Produce      json
// @Param        request body CreateProfileRequest true "Integration profile"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /locks/profiles [post]
func (c *LockController) CreateProfile() {
	var req CreateProfileRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	switch req.Provider {
	case models.LockProviderNuki, models.LockProviderTTLock, models.LockProviderUTec:
	default:
		response.FailWithMessage(c.Ctx, code.ErrLockConfiguration, "unknown provider: "+req.Provider, nil)
		return
	}

	profile := models.LockProfile{
		Provider:     req.Provider,
		Name:         req.Name,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Username:     req.Username,
		PasswordMD5:  req.PasswordMD5,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiryTS:     req.ExpiryTS,
	}

	profileService := c.Container.GetService("lock_profile").(services.InterfaceLockProfileService)
	if err := profileService.CreateProfile(&profile); err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, err.Error())
		return
	}

	// Never echo credentials back
	profile.ClientSecret = ""
	profile.PasswordMD5 = ""
	profile.AccessToken = ""
	profile.RefreshToken = ""
	response.Success(c.Ctx, profile)
}

// GetDevices lists the devices reachable through a profile
// @Summary      List Lock Devices
// @Tags         Lock
// @Produce      json
// @Param        id path int true "Profile ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /locks/profiles/{id}/devices [get]
func (c *LockController) GetDevices() {
	provider, ok := c.loadProvider()
	if !ok {
		return
	}

	devices, err := provider.FetchDevices()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrLockVendor, err.Error(), nil)
		return
	}
	response.Success(c.Ctx, devices)
}

// InvokeCapability runs one named capability against a device
// @Summary      Invoke Lock Capability
// @Description  Run a vendor-neutral capability (unlockDevice, lockDevice,
// @Description  listPasscodes, createCustomPasscode, updatePasscode,
// @Description  deletePasscode, showActivityLogs, checkStatus) on a device
// @Tags         Lock
// @Accept       json
// @Produce      json
// @Param        id path int true "Profile ID"
// @Param        request body InvokeCapabilityRequest true "Capability invocation"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /locks/profiles/{id}/invoke [post]
func (c *LockController) InvokeCapability() {
	provider, ok := c.loadProvider()
	if !ok {
		return
	}

	var req InvokeCapabilityRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}
	opts := services.CapabilityOptions(req.Options)
	if opts == nil {
		opts = services.CapabilityOptions{}
	}

	var (
		result *services.CapabilityResult
		err    error
	)
	switch req.Capability {
	case services.CapUnlockDevice:
		result, err = provider.UnlockDevice(req.DeviceID, opts)
	case services.CapLockDevice:
		result, err = provider.LockDevice(req.DeviceID, opts)
	case services.CapListPasscodes:
		var records []services.PasscodeRecord
		records, err = provider.ListPasscodes(req.DeviceID, opts)
		if err == nil {
			response.Success(c.Ctx, records)
			return
		}
	case services.CapCreateCustomPasscode:
		result, err = provider.CreateCustomPasscode(req.DeviceID, opts)
	case services.CapUpdatePasscode:
		result, err = provider.UpdatePasscode(req.DeviceID, opts)
	case services.CapDeletePasscode:
		result, err = provider.DeletePasscode(req.DeviceID, opts)
	case services.CapShowActivityLogs:
		result, err = provider.ShowActivityLogs(req.DeviceID, opts)
	case services.CapCheckStatus:
		result, err = provider.CheckStatus(req.DeviceID, opts)
	default:
		response.FailWithMessage(c.Ctx, code.ErrLockCapabilityUnknown, "unknown capability: "+req.Capability, nil)
		return
	}

	if err != nil {
		var retryable *services.RetryableCapabilityError
		if errors.As(err, &retryable) {
			response.FailWithMessage(c.Ctx, code.ErrLockVendor, retryable.Error(), gin.H{
				"retryable":  true,
				"capability": retryable.Capability,
				"device_id":  retryable.DeviceID,
			})
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrLockVendor, err.Error(), nil)
		return
	}
	response.Success(c.Ctx, result)
}

// RegisterWebhook configures vendor event delivery for a profile. Only
// providers with a registration API support this; the others get their
// webhook configured on the vendor portal.
// @Summary      Register Lock Webhook
// @Tags         Lock
// @Accept       json
// @Produce      json
// @Param        id path int true "Profile ID"
// @Param        request body RegisterWebhookRequest true "Callback URL"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /locks/profiles/{id}/webhook [post]
func (c *LockController) RegisterWebhook() {
	provider, ok := c.loadProvider()
	if !ok {
		return
	}

	var req RegisterWebhookRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(c.Ctx, code.ErrBind, err.Error())
		return
	}

	utec, ok := provider.(*services.UTecService)
	if !ok {
		response.FailWithMessage(c.Ctx, code.ErrLockConfiguration,
			"webhook registration is only supported for the utec provider", nil)
		return
	}

	token, err := utec.RegisterWebhook(req.CallbackURL)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrLockVendor, err.Error(), nil)
		return
	}
	response.Success(c.Ctx, gin.H{"webhook_token": token})
}

// loadProvider resolves the :id path parameter to a provider adapter,
// writing the error response itself when that fails
func (c *LockController) loadProvider() (services.LockProvider, bool) {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
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
	return provider, true
}
