package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"
)

// nukiKeypadAuthType is the Nuki authorization type of keypad codes
const nukiKeypadAuthType = 13

// NukiService is the Nuki Web API adapter (JSON body, Bearer auth,
// OAuth2 authorization-code + refresh-token lifecycle)
type NukiService struct {
	Config   *config.Config
	profile  *models.LockProfile
	profiles InterfaceLockProfileService
	client   *http.Client
}

// NewNukiService creates a Nuki adapter bound to an integration profile
func NewNukiService(cfg *config.Config, profile *models.LockProfile, profiles InterfaceLockProfileService) *NukiService {
	return &NukiService{
		Config:   cfg,
		profile:  profile,
		profiles: profiles,
		client:   &http.Client{Timeout: cfg.LockHTTPTimeout},
	}
}

// ProviderKey identifies the vendor
func (s *NukiService) ProviderKey() string { return models.LockProviderNuki }

// ProfileID identifies the integration profile
func (s *NukiService) ProfileID() uint { return s.profile.ID }

// ensureToken refreshes the cached access token when expired
func (s *NukiService) ensureToken() error {
	if !s.profile.TokenExpired(time.Now()) {
		return nil
	}
	if s.profile.ClientID == "" || s.profile.ClientSecret == "" {
		return fmt.Errorf("nuki profile %d is missing OAuth client credentials", s.profile.ID)
	}
	if s.profile.RefreshToken == "" {
		return fmt.Errorf("nuki profile %d has no refresh token, re-authorization required", s.profile.ID)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", s.profile.ClientID)
	form.Set("client_secret", s.profile.ClientSecret)
	form.Set("refresh_token", s.profile.RefreshToken)

	resp, err := s.client.Post(s.Config.NukiAPIBaseURL+"/oauth/token",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("nuki token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("nuki token refresh returned status %d: %s", resp.StatusCode, string(body))
	}

	var token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("nuki token refresh decode failed: %w", err)
	}

	s.profile.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.profile.RefreshToken = token.RefreshToken
	}
	s.profile.ExpiryTS = time.Now().Unix() + token.ExpiresIn
	return s.profiles.SaveTokens(s.profile)
}

// apiRequest performs one authenticated JSON call against the Nuki API
func (s *NukiService) apiRequest(method, path string, body interface{}) ([]byte, error) {
	if err := s.ensureToken(); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.Config.NukiAPIBaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.profile.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nuki request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nuki response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("nuki API returned status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

// nukiSmartlock is the raw device record
type nukiSmartlock struct {
	SmartlockID int64  `json:"smartlockId"`
	Name        string `json:"name"`
	Type        int    `json:"type"`
	State       struct {
		State         int  `json:"state"`
		BatteryCharge *int `json:"batteryCharge"`
	} `json:"state"`
	Config struct {
		Name string `json:"name"`
	} `json:"config"`
}

// FetchDevices lists the account's smartlocks
func (s *NukiService) FetchDevices() ([]LockDevice, error) {
	raw, err := s.apiRequest(http.MethodGet, "/smartlock", nil)
	if err != nil {
		return nil, err
	}

	var locks []nukiSmartlock
	if err := json.Unmarshal(raw, &locks); err != nil {
		return nil, fmt.Errorf("nuki device list decode failed: %w", err)
	}

	devices := make([]LockDevice, 0, len(locks))
	for _, l := range locks {
		var battery *float64
		if l.State.BatteryCharge != nil {
			b := float64(*l.State.BatteryCharge)
			battery = &b
		}
		devices = append(devices, LockDevice{
			ID:           fmt.Sprintf("%d", l.SmartlockID),
			Name:         l.Name,
			Model:        nukiDeviceModel(l.Type),
			BatteryLevel: battery,
			Capabilities: []string{
				CapUnlockDevice, CapLockDevice, CapListPasscodes,
				CapCreateCustomPasscode, CapUpdatePasscode, CapDeletePasscode,
				CapShowActivityLogs, CapCheckStatus,
			},
			Payload: map[string]interface{}{
				"state": nukiLockState(l.State.State),
			},
		})
	}
	return devices, nil
}

// UnlockDevice sends the unlock action
func (s *NukiService) UnlockDevice(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	if _, err := s.apiRequest(http.MethodPost, "/smartlock/"+deviceID+"/action/unlock", nil); err != nil {
		return nil, err
	}
	return &CapabilityResult{Output: "Device unlocked"}, nil
}

// LockDevice sends the lock action
func (s *NukiService) LockDevice(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	if _, err := s.apiRequest(http.MethodPost, "/smartlock/"+deviceID+"/action/lock", nil); err != nil {
		return nil, err
	}
	return &CapabilityResult{Output: "Device locked"}, nil
}

// nukiAuth is the raw keypad authorization record
type nukiAuth struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             int    `json:"type"`
	Code             int    `json:"code,omitempty"`
	AllowedFromDate  string `json:"allowedFromDate,omitempty"`
	AllowedUntilDate string `json:"allowedUntilDate,omitempty"`
}

// ListPasscodes returns the device's keypad authorizations, optionally
// filtered by exact name (client-side, the API has no name filter)
func (s *NukiService) ListPasscodes(deviceID string, opts CapabilityOptions) ([]PasscodeRecord, error) {
	raw, err := s.apiRequest(http.MethodGet, "/smartlock/"+deviceID+"/auth", nil)
	if err != nil {
		return nil, err
	}

	var auths []nukiAuth
	if err := json.Unmarshal(raw, &auths); err != nil {
		return nil, fmt.Errorf("nuki auth list decode failed: %w", err)
	}

	records := make([]PasscodeRecord, 0, len(auths))
	for _, a := range auths {
		if a.Type != nukiKeypadAuthType {
			continue
		}
		record := PasscodeRecord{
			ID:   a.ID,
			Name: a.Name,
			Type: "keypad",
		}
		if a.Code > 0 {
			record.Value = fmt.Sprintf("%d", a.Code)
		}
		if t, err := time.Parse(time.RFC3339, a.AllowedFromDate); err == nil {
			record.StartDate = t
		}
		if t, err := time.Parse(time.RFC3339, a.AllowedUntilDate); err == nil {
			record.EndDate = t
		}
		records = append(records, record)
	}

	return filterPasscodesByName(records, opts.String("search")), nil
}

// CreateCustomPasscode creates a keypad code. Vendor failures surface as a
// retryable error carrying the device, capability and original options.
func (s *NukiService) CreateCustomPasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	value := opts.String("pwdvalue")
	if value == "" {
		value = GenerateSixDigitPasscode()
	}

	var code int
	if _, err := fmt.Sscanf(value, "%d", &code); err != nil {
		return nil, fmt.Errorf("nuki passcode must be numeric: %w", err)
	}

	payload := map[string]interface{}{
		"name": opts.String("pwdname"),
		"type": nukiKeypadAuthType,
		"code": code,
	}
	if start := opts.Time("startdate"); !start.IsZero() {
		payload["allowedFromDate"] = start.Format(time.RFC3339)
	}
	if end := opts.Time("enddate"); !end.IsZero() {
		payload["allowedUntilDate"] = end.Format(time.RFC3339)
	}

	if _, err := s.apiRequest(http.MethodPut, "/smartlock/"+deviceID+"/auth", payload); err != nil {
		return nil, &RetryableCapabilityError{
			Capability: CapCreateCustomPasscode,
			DeviceID:   deviceID,
			Options:    opts,
			Err:        err,
		}
	}

	// Creation is asynchronous on the Nuki side: the authorization ID only
	// becomes visible on a later list call, so the name is the lookup key
	return &CapabilityResult{
		Output:   fmt.Sprintf("Keypad code %q requested", opts.String("pwdname")),
		Props:    map[string]string{"name": opts.String("pwdname")},
		Passcode: value,
	}, nil
}

// UpdatePasscode updates an existing keypad authorization
func (s *NukiService) UpdatePasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	authID := opts.String("pwdid")
	if authID == "" {
		return nil, fmt.Errorf("nuki updatePasscode requires pwdid")
	}

	payload := map[string]interface{}{}
	if name := opts.String("pwdname"); name != "" {
		payload["name"] = name
	}
	if value := opts.String("pwdvalue"); value != "" {
		var code int
		if _, err := fmt.Sscanf(value, "%d", &code); err != nil {
			return nil, fmt.Errorf("nuki passcode must be numeric: %w", err)
		}
		payload["code"] = code
	}
	if start := opts.Time("startdate"); !start.IsZero() {
		payload["allowedFromDate"] = start.Format(time.RFC3339)
	}
	if end := opts.Time("enddate"); !end.IsZero() {
		payload["allowedUntilDate"] = end.Format(time.RFC3339)
	}

	if _, err := s.apiRequest(http.MethodPost, "/smartlock/"+deviceID+"/auth/"+authID, payload); err != nil {
		return nil, &RetryableCapabilityError{
			Capability: CapUpdatePasscode,
			DeviceID:   deviceID,
			Options:    opts,
			Err:        err,
		}
	}
	return &CapabilityResult{Output: "Keypad code updated"}, nil
}

// DeletePasscode removes a keypad authorization
func (s *NukiService) DeletePasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	authID := opts.String("pwdid")
	if authID == "" {
		return nil, fmt.Errorf("nuki deletePasscode requires pwdid")
	}
	if _, err := s.apiRequest(http.MethodDelete, "/smartlock/"+deviceID+"/auth/"+authID, nil); err != nil {
		return nil, err
	}
	return &CapabilityResult{Output: "Keypad code deleted"}, nil
}

// nukiLogEntry is one raw activity log record
type nukiLogEntry struct {
	ID      string `json:"id"`
	Action  int    `json:"action"`
	Trigger int    `json:"trigger"`
	State   int    `json:"state"`
	Name    string `json:"name"`
	Date    string `json:"date"`
}

// ShowActivityLogs drains the device activity log, translating the vendor
// code tables to human labels. Pagination is offset-based and bounded.
func (s *NukiService) ShowActivityLogs(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	const pageSize = 50

	var lines []string
	for page := 0; page < maxPasscodePages; page++ {
		path := fmt.Sprintf("/smartlock/%s/log?limit=%d&offset=%d", deviceID, pageSize, page*pageSize)
		raw, err := s.apiRequest(http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		var entries []nukiLogEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("nuki log decode failed: %w", err)
		}
		for _, e := range entries {
			lines = append(lines, fmt.Sprintf("%s %s by %s (%s)",
				e.Date, nukiLogAction(e.Action), e.Name, nukiLogTrigger(e.Trigger)))
		}
		if len(entries) < pageSize {
			break
		}
	}

	return &CapabilityResult{
		Output: strings.Join(lines, "\n"),
		Props:  map[string]string{"entries": fmt.Sprintf("%d", len(lines))},
	}, nil
}

// CheckStatus reads the current lock state
func (s *NukiService) CheckStatus(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	raw, err := s.apiRequest(http.MethodGet, "/smartlock/"+deviceID, nil)
	if err != nil {
		return nil, err
	}

	var lock nukiSmartlock
	if err := json.Unmarshal(raw, &lock); err != nil {
		return nil, fmt.Errorf("nuki status decode failed: %w", err)
	}

	state := nukiLockState(lock.State.State)
	props := map[string]string{"state": state}
	if lock.State.BatteryCharge != nil {
		props["battery"] = fmt.Sprintf("%d%%", *lock.State.BatteryCharge)
	}
	return &CapabilityResult{
		Output: fmt.Sprintf("%s is %s", lock.Name, state),
		Props:  props,
	}, nil
}

// ValidateWebhookSignature checks the X-Nuki-Signature-Sha256 header: an
// HMAC-SHA256 of the raw request body keyed with the client secret,
// compared in constant time
func (s *NukiService) ValidateWebhookSignature(body []byte, signature string) bool {
	if s.profile.ClientSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.profile.ClientSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// nukiLogAction translates the vendor action code table
func nukiLogAction(action int) string {
	switch action {
	case 1:
		return "unlock"
	case 2:
		return "lock"
	case 3:
		return "unlatch"
	case 4:
		return "lock'n'go"
	case 5:
		return "lock'n'go with unlatch"
	case 208:
		return "door warning ajar"
	case 209:
		return "door warning status mismatch"
	case 224:
		return "doorbell recognition"
	case 240:
		return "door opened"
	case 241:
		return "door closed"
	case 242:
		return "door sensor jammed"
	case 243:
		return "firmware update"
	case 252:
		return "initialization"
	case 253:
		return "calibration"
	case 254:
		return "log enabled"
	case 255:
		return "log disabled"
	}
	return fmt.Sprintf("action %d", action)
}

// nukiLogTrigger translates the vendor trigger code table
func nukiLogTrigger(trigger int) string {
	switch trigger {
	case 0:
		return "system"
	case 1:
		return "manual"
	case 2:
		return "button"
	case 3:
		return "automatic"
	case 4:
		return "web"
	case 5:
		return "app"
	case 6:
		return "auto lock"
	case 7:
		return "accessory"
	case 255:
		return "keypad"
	}
	return fmt.Sprintf("trigger %d", trigger)
}

// nukiLockState translates the vendor state code table
func nukiLockState(state int) string {
	switch state {
	case 0:
		return "uncalibrated"
	case 1:
		return "locked"
	case 2:
		return "unlocking"
	case 3:
		return "unlocked"
	case 4:
		return "locking"
	case 5:
		return "unlatched"
	case 6:
		return "unlocked (lock'n'go)"
	case 7:
		return "unlatching"
	case 254:
		return "motor blocked"
	case 255:
		return "undefined"
	}
	return fmt.Sprintf("state %d", state)
}

// nukiDeviceModel translates the smartlock type code
func nukiDeviceModel(deviceType int) string {
	switch deviceType {
	case 0:
		return "Smart Lock"
	case 1:
		return "Box"
	case 2:
		return "Opener"
	case 3:
		return "Smart Door"
	case 4:
		return "Smart Lock 3.0"
	}
	return fmt.Sprintf("type %d", deviceType)
}
