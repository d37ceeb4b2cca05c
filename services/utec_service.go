package services

import (
	"bytes"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayops-http-service/config"
	"stayops-http-service/models"
)

// U-Tec envelope namespaces and operation names
const (
	utecNSDevice    = "Uhome.Device"
	utecNSUser      = "Uhome.User"
	utecNSConfigure = "Uhome.Configure"

	utecPayloadVersion = "1"
)

// UTecService is the U home open API adapter. Every call posts one
// envelope {header{namespace, name, messageId, payloadVersion}, payload}
// to the /action endpoint.
type UTecService struct {
	Config   *config.Config
	profile  *models.LockProfile
	profiles InterfaceLockProfileService
	client   *http.Client
}

// NewUTecService creates a U-Tec adapter bound to an integration profile
func NewUTecService(cfg *config.Config, profile *models.LockProfile, profiles InterfaceLockProfileService) *UTecService {
	return &UTecService{
		Config:   cfg,
		profile:  profile,
		profiles: profiles,
		client:   &http.Client{Timeout: cfg.LockHTTPTimeout},
	}
}

// ProviderKey identifies the vendor
func (s *UTecService) ProviderKey() string { return models.LockProviderUTec }

// ProfileID identifies the integration profile
func (s *UTecService) ProfileID() uint { return s.profile.ID }

// ensureToken refreshes the OAuth2 access token when expired
func (s *UTecService) ensureToken() error {
	if !s.profile.TokenExpired(time.Now()) {
		return nil
	}
	if s.profile.ClientID == "" || s.profile.ClientSecret == "" || s.profile.RefreshToken == "" {
		return fmt.Errorf("utec profile %d is missing OAuth credentials", s.profile.ID)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.profile.RefreshToken)
	form.Set("client_id", s.profile.ClientID)
	form.Set("client_secret", s.profile.ClientSecret)

	resp, err := s.client.Post(s.Config.UTecAPIBaseURL+"/oauth/token",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("utec token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("utec token refresh returned status %d: %s", resp.StatusCode, string(body))
	}

	var token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("utec token decode failed: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("utec token refresh returned no access token")
	}

	s.profile.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.profile.RefreshToken = token.RefreshToken
	}
	s.profile.ExpiryTS = time.Now().Unix() + token.ExpiresIn
	return s.profiles.SaveTokens(s.profile)
}

// utecEnvelope is the request and response wire format
type utecEnvelope struct {
	Header  utecHeader      `json:"header"`
	Payload json.RawMessage `json:"payload"`
}

type utecHeader struct {
	Namespace      string `json:"namespace"`
	Name           string `json:"name"`
	MessageID      string `json:"messageId"`
	PayloadVersion string `json:"payloadVersion"`
}

// apiRequest posts one envelope and returns the response payload. Every
// envelope carries a fresh uuid messageId.
func (s *UTecService) apiRequest(namespace, name string, payload interface{}) (json.RawMessage, error) {
	if err := s.ensureToken(); err != nil {
		return nil, err
	}

	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("utec payload encode failed: %w", err)
	}
	envelope := utecEnvelope{
		Header: utecHeader{
			Namespace:      namespace,
			Name:           name,
			MessageID:      uuid.New().String(),
			PayloadVersion: utecPayloadVersion,
		},
		Payload: rawPayload,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("utec envelope encode failed: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.Config.UTecAPIBaseURL+"/action", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.profile.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("utec request %s/%s failed: %w", namespace, name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("utec response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("utec API %s/%s returned status %d: %s",
			namespace, name, resp.StatusCode, string(respBody))
	}

	var reply utecEnvelope
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return nil, fmt.Errorf("utec response decode failed: %w", err)
	}

	// Error replies come back as an Error name with a payload message
	if reply.Header.Name == "Error" {
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(reply.Payload, &e)
		return nil, fmt.Errorf("utec API error %s: %s", e.Code, e.Message)
	}
	return reply.Payload, nil
}

// utecDevice is the raw discovery record
type utecDevice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	DeviceInfo struct {
		Manufacturer string `json:"manufacturer"`
		Model        string `json:"model"`
	} `json:"deviceInfo"`
}

// FetchDevices runs device discovery and keeps the lock category
func (s *UTecService) FetchDevices() ([]LockDevice, error) {
	payload, err := s.apiRequest(utecNSDevice, "Discovery", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	var discovered struct {
		Devices []utecDevice `json:"devices"`
	}
	if err := json.Unmarshal(payload, &discovered); err != nil {
		return nil, fmt.Errorf("utec discovery decode failed: %w", err)
	}

	var devices []LockDevice
	for _, d := range discovered.Devices {
		if d.Category != "" && !strings.EqualFold(d.Category, "smartlock") && !strings.EqualFold(d.Category, "lock") {
			continue
		}
		devices = append(devices, LockDevice{
			ID:    d.ID,
			Name:  d.Name,
			Model: d.DeviceInfo.Model,
			Capabilities: []string{
				CapUnlockDevice, CapLockDevice, CapListPasscodes,
				CapCreateCustomPasscode, CapUpdatePasscode, CapDeletePasscode,
				CapShowActivityLogs, CapCheckStatus,
			},
		})
	}
	return devices, nil
}

// sendLockCommand issues a st.lock capability command
func (s *UTecService) sendLockCommand(deviceID, value string) error {
	_, err := s.apiRequest(utecNSDevice, "Command", map[string]interface{}{
		"devices": []map[string]interface{}{{
			"id": deviceID,
			"command": map[string]string{
				"capability": "st.lock",
				"name":       "lock",
				"value":      value,
			},
		}},
	})
	return err
}

// UnlockDevice unlocks the lock
func (s *UTecService) UnlockDevice(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	if err := s.sendLockCommand(deviceID, "unlocked"); err != nil {
		return nil, err
	}
	return &CapabilityResult{Output: "Device unlocked"}, nil
}

// LockDevice locks the lock
func (s *UTecService) LockDevice(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	if err := s.sendLockCommand(deviceID, "locked"); err != nil {
		return nil, err
	}
	return &CapabilityResult{Output: "Device locked"}, nil
}

// utecLockUser is the raw lock-user record carrying the keypad code
type utecLockUser struct {
	UserID    int64  `json:"userId"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	StartDate int64  `json:"startDate"`
	EndDate   int64  `json:"endDate"`
}

// ListPasscodes lists the device's lock users. The vendor returns the
// full list in one reply, so only the exact-name filter applies.
func (s *UTecService) ListPasscodes(deviceID string, opts CapabilityOptions) ([]PasscodeRecord, error) {
	payload, err := s.apiRequest(utecNSUser, "List", map[string]interface{}{
		"id": deviceID,
	})
	if err != nil {
		return nil, err
	}

	var list struct {
		Users []utecLockUser `json:"users"`
	}
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, fmt.Errorf("utec user list decode failed: %w", err)
	}

	records := make([]PasscodeRecord, 0, len(list.Users))
	for _, u := range list.Users {
		records = append(records, PasscodeRecord{
			ID:        strconv.FormatInt(u.UserID, 10),
			Name:      u.Name,
			Value:     u.Password,
			StartDate: time.Unix(u.StartDate, 0).UTC(),
			EndDate:   time.Unix(u.EndDate, 0).UTC(),
			Type:      "keypad",
		})
	}
	return filterPasscodesByName(records, opts.String("search")), nil
}

// CreateCustomPasscode adds a lock user with a keypad code valid for the
// stay window. Failures surface as a retryable error with replay context.
func (s *UTecService) CreateCustomPasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	value := opts.String("pwdvalue")
	if value == "" {
		value = GenerateSixDigitPasscode()
	}

	user := map[string]interface{}{
		"id":       deviceID,
		"name":     opts.String("pwdname"),
		"password": value,
	}
	if start := opts.Time("startdate"); !start.IsZero() {
		user["startDate"] = start.Unix()
	}
	if end := opts.Time("enddate"); !end.IsZero() {
		user["endDate"] = end.Unix()
	}

	payload, err := s.apiRequest(utecNSUser, "Add", user)
	if err != nil {
		return nil, &RetryableCapabilityError{
			Capability: CapCreateCustomPasscode,
			DeviceID:   deviceID,
			Options:    opts,
			Err:        err,
		}
	}

	var created struct {
		UserID int64 `json:"userId"`
	}
	_ = json.Unmarshal(payload, &created)

	props := map[string]string{"name": opts.String("pwdname")}
	if created.UserID > 0 {
		props["pwdid"] = strconv.FormatInt(created.UserID, 10)
	}
	return &CapabilityResult{
		Output:   fmt.Sprintf("Lock user %q created", opts.String("pwdname")),
		Props:    props,
		Passcode: value,
	}, nil
}

// UpdatePasscode changes an existing lock user
func (s *UTecService) UpdatePasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	userID := opts.Int64("pwdid")
	if userID == 0 {
		if parsed, err := strconv.ParseInt(opts.String("pwdid"), 10, 64); err == nil {
			userID = parsed
		}
	}
	if userID == 0 {
		return nil, fmt.Errorf("utec updatePasscode requires pwdid")
	}

	user := map[string]interface{}{
		"id":     deviceID,
		"userId": userID,
	}
	if name := opts.String("pwdname"); name != "" {
		user["name"] = name
	}
	if value := opts.String("pwdvalue"); value != "" {
		user["password"] = value
	}
	if start := opts.Time("startdate"); !start.IsZero() {
		user["startDate"] = start.Unix()
	}
	if end := opts.Time("enddate"); !end.IsZero() {
		user["endDate"] = end.Unix()
	}

	if _, err := s.apiRequest(utecNSUser, "Update", user); err != nil {
		return nil, &RetryableCapabilityError{
			Capability: CapUpdatePasscode,
			DeviceID:   deviceID,
			Options:    opts,
			Err:        err,
		}
	}
	return &CapabilityResult{Output: "Lock user updated"}, nil
}

// DeletePasscode removes a lock user
func (s *UTecService) DeletePasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	userID := opts.Int64("pwdid")
	if userID == 0 {
		if parsed, err := strconv.ParseInt(opts.String("pwdid"), 10, 64); err == nil {
			userID = parsed
		}
	}
	if userID == 0 {
		return nil, fmt.Errorf("utec deletePasscode requires pwdid")
	}

	if _, err := s.apiRequest(utecNSUser, "Delete", map[string]interface{}{
		"id":     deviceID,
		"userId": userID,
	}); err != nil {
		return nil, err
	}
	return &CapabilityResult{Output: "Lock user deleted"}, nil
}

// ShowActivityLogs queries the device log
func (s *UTecService) ShowActivityLogs(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	payload, err := s.apiRequest(utecNSDevice, "Log", map[string]interface{}{
		"id": deviceID,
	})
	if err != nil {
		return nil, err
	}

	var logs struct {
		Records []struct {
			Time  int64  `json:"time"`
			Event string `json:"event"`
			User  string `json:"user"`
		} `json:"records"`
	}
	if err := json.Unmarshal(payload, &logs); err != nil {
		return nil, fmt.Errorf("utec log decode failed: %w", err)
	}

	lines := make([]string, 0, len(logs.Records))
	for _, r := range logs.Records {
		lines = append(lines, fmt.Sprintf("%s %s by %s",
			time.Unix(r.Time, 0).UTC().Format(time.RFC3339), r.Event, r.User))
	}
	return &CapabilityResult{
		Output: strings.Join(lines, "\n"),
		Props:  map[string]string{"entries": fmt.Sprintf("%d", len(lines))},
	}, nil
}

// CheckStatus queries the st.lock state
func (s *UTecService) CheckStatus(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	payload, err := s.apiRequest(utecNSDevice, "Query", map[string]interface{}{
		"devices": []map[string]string{{"id": deviceID}},
	})
	if err != nil {
		return nil, err
	}

	var queried struct {
		Devices []struct {
			ID     string `json:"id"`
			States []struct {
				Capability string `json:"capability"`
				Name       string `json:"name"`
				Value      string `json:"value"`
			} `json:"states"`
		} `json:"devices"`
	}
	if err := json.Unmarshal(payload, &queried); err != nil {
		return nil, fmt.Errorf("utec query decode failed: %w", err)
	}

	state := "unknown"
	for _, d := range queried.Devices {
		if d.ID != deviceID {
			continue
		}
		for _, st := range d.States {
			if st.Capability == "st.lock" {
				state = st.Value
			}
		}
	}
	return &CapabilityResult{
		Output: "Lock is " + state,
		Props:  map[string]string{"state": state},
	}, nil
}

// RegisterWebhook configures event delivery to our callback URL with a
// self-generated shared token. The token is persisted on the profile and
// later checked on every inbound webhook.
func (s *UTecService) RegisterWebhook(callbackURL string) (string, error) {
	token := uuid.New().String()
	if _, err := s.apiRequest(utecNSConfigure, "Set", map[string]interface{}{
		"webhook": map[string]string{
			"url":   callbackURL,
			"token": token,
		},
	}); err != nil {
		return "", err
	}

	s.profile.WebhookToken = token
	if err := s.profiles.SaveTokens(s.profile); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateWebhookToken checks the shared token carried by an inbound
// webhook against the one registered for this profile, in constant time
func (s *UTecService) ValidateWebhookToken(token string) bool {
	if s.profile.WebhookToken == "" {
		return false
	}
	return hmac.Equal([]byte(token), []byte(s.profile.WebhookToken))
}
