package services

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"
)

// TTLock record types that count as a passcode-based entry
const (
	ttlockRecordKeyboardPwd = 4
	ttlockPasscodePageSize  = 100
)

// TTLockService is the TTLock cloud API adapter (form-encoded body with
// clientId/accessToken/date epoch-millis parameters on every call)
type TTLockService struct {
	Config   *config.Config
	profile  *models.LockProfile
	profiles InterfaceLockProfileService
	client   *http.Client
}

// NewTTLockService creates a TTLock adapter bound to an integration profile
func NewTTLockService(cfg *config.Config, profile *models.LockProfile, profiles InterfaceLockProfileService) *TTLockService {
	return &TTLockService{
		Config:   cfg,
		profile:  profile,
		profiles: profiles,
		client:   &http.Client{Timeout: cfg.LockHTTPTimeout},
	}
}

// ProviderKey identifies the vendor
func (s *TTLockService) ProviderKey() string { return models.LockProviderTTLock }

// ProfileID identifies the integration profile
func (s *TTLockService) ProfileID() uint { return s.profile.ID }

// MD5Hash hashes the account password the way the TTLock grant expects
func MD5Hash(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}

// ensureToken acquires or refreshes the access token. With no token cached
// yet a fresh username/password credential exchange is forced.
func (s *TTLockService) ensureToken() error {
	if !s.profile.TokenExpired(time.Now()) {
		return nil
	}
	if s.profile.ClientID == "" || s.profile.ClientSecret == "" {
		return fmt.Errorf("ttlock profile %d is missing client credentials", s.profile.ID)
	}

	form := url.Values{}
	form.Set("clientId", s.profile.ClientID)
	form.Set("clientSecret", s.profile.ClientSecret)

	if s.profile.AccessToken == "" || s.profile.RefreshToken == "" {
		// No token yet: password grant with the MD5-hashed credential
		if s.profile.Username == "" || s.profile.PasswordMD5 == "" {
			return fmt.Errorf("ttlock profile %d is missing account credentials", s.profile.ID)
		}
		form.Set("grant_type", "password")
		form.Set("username", s.profile.Username)
		form.Set("password", s.profile.PasswordMD5)
	} else {
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", s.profile.RefreshToken)
	}

	resp, err := s.client.Post(s.Config.TTLockAPIBaseURL+"/oauth2/token",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("ttlock token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	var token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
		ErrCode      int    `json:"errcode"`
		ErrMsg       string `json:"errmsg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("ttlock token decode failed: %w", err)
	}
	if token.ErrCode != 0 {
		return fmt.Errorf("ttlock token exchange error %d: %s", token.ErrCode, token.ErrMsg)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("ttlock token exchange returned no access token")
	}

	s.profile.AccessToken = token.AccessToken
	s.profile.RefreshToken = token.RefreshToken
	s.profile.ExpiryTS = time.Now().Unix() + token.ExpiresIn
	return s.profiles.SaveTokens(s.profile)
}

// apiRequest performs one authenticated form-encoded call. Every endpoint
// takes clientId, accessToken and date (epoch millis) alongside the
// call-specific parameters, and reports vendor errors via errcode.
func (s *TTLockService) apiRequest(path string, params url.Values) ([]byte, error) {
	if err := s.ensureToken(); err != nil {
		return nil, err
	}

	params.Set("clientId", s.profile.ClientID)
	params.Set("accessToken", s.profile.AccessToken)
	params.Set("date", strconv.FormatInt(time.Now().UnixMilli(), 10))

	resp, err := s.client.Post(s.Config.TTLockAPIBaseURL+path,
		"application/x-www-form-urlencoded", strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ttlock request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ttlock response read failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ttlock API returned status %d: %s", resp.StatusCode, string(body))
	}

	// Vendor-level errors ride on HTTP 200
	var vendorErr struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.Unmarshal(body, &vendorErr); err == nil && vendorErr.ErrCode != 0 {
		return nil, fmt.Errorf("ttlock API error %d: %s", vendorErr.ErrCode, vendorErr.ErrMsg)
	}
	return body, nil
}

// ttlockLock is the raw lock record
type ttlockLock struct {
	LockID           int64  `json:"lockId"`
	LockName         string `json:"lockName"`
	LockAlias        string `json:"lockAlias"`
	LockMAC          string `json:"lockMac"`
	ElectricQuantity int    `json:"electricQuantity"`
}

// FetchDevices drains the account's lock list
func (s *TTLockService) FetchDevices() ([]LockDevice, error) {
	var devices []LockDevice
	for page := 1; page <= maxPasscodePages; page++ {
		params := url.Values{}
		params.Set("pageNo", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(ttlockPasscodePageSize))

		raw, err := s.apiRequest("/v3/lock/list", params)
		if err != nil {
			return nil, err
		}

		var list struct {
			List  []ttlockLock `json:"list"`
			Pages int          `json:"pages"`
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("ttlock lock list decode failed: %w", err)
		}

		for _, l := range list.List {
			name := l.LockAlias
			if name == "" {
				name = l.LockName
			}
			battery := float64(l.ElectricQuantity)
			devices = append(devices, LockDevice{
				ID:           strconv.FormatInt(l.LockID, 10),
				Name:         name,
				Description:  l.LockMAC,
				BatteryLevel: &battery,
				Capabilities: []string{
					CapUnlockDevice, CapLockDevice, CapListPasscodes,
					CapCreateCustomPasscode, CapUpdatePasscode, CapDeletePasscode,
					CapShowActivityLogs, CapCheckStatus,
				},
			})
		}
		if page >= list.Pages || len(list.List) == 0 {
			break
		}
	}
	return devices, nil
}

// UnlockDevice unlocks via the lock's gateway
func (s *TTLockService) UnlockDevice(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	params := url.Values{}
	params.Set("lockId", deviceID)
	if _, err := s.apiRequest("/v3/lock/unlock", params); err != nil {
		return nil, err
	}
	return &CapabilityResult{Output: "Device unlocked"}, nil
}

// LockDevice locks via the lock's gateway
func (s *TTLockService) LockDevice(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	params := url.Values{}
	params.Set("lockId", deviceID)
	if _, err := s.apiRequest("/v3/lock/lock", params); err != nil {
		return nil, err
	}
	return &CapabilityResult{Output: "Device locked"}, nil
}

// ttlockKeyboardPwd is the raw keyboard password record
type ttlockKeyboardPwd struct {
	KeyboardPwdID   int64  `json:"keyboardPwdId"`
	KeyboardPwd     string `json:"keyboardPwd"`
	KeyboardPwdName string `json:"keyboardPwdName"`
	StartDate       int64  `json:"startDate"`
	EndDate         int64  `json:"endDate"`
	KeyboardPwdType int    `json:"keyboardPwdType"`
}

// ListPasscodes drains the device's keyboard passwords, pageNo-paginated
// and bounded, then applies the exact-name filter client-side
func (s *TTLockService) ListPasscodes(deviceID string, opts CapabilityOptions) ([]PasscodeRecord, error) {
	var records []PasscodeRecord
	for page := 1; page <= maxPasscodePages; page++ {
		params := url.Values{}
		params.Set("lockId", deviceID)
		params.Set("pageNo", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(ttlockPasscodePageSize))

		raw, err := s.apiRequest("/v3/lock/listKeyboardPwd", params)
		if err != nil {
			return nil, err
		}

		var list struct {
			List  []ttlockKeyboardPwd `json:"list"`
			Pages int                 `json:"pages"`
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("ttlock passcode list decode failed: %w", err)
		}

		for _, k := range list.List {
			records = append(records, PasscodeRecord{
				ID:        strconv.FormatInt(k.KeyboardPwdID, 10),
				Name:      k.KeyboardPwdName,
				Value:     k.KeyboardPwd,
				StartDate: time.UnixMilli(k.StartDate).UTC(),
				EndDate:   time.UnixMilli(k.EndDate).UTC(),
				Type:      "keyboard",
			})
		}
		if page >= list.Pages || len(list.List) == 0 {
			break
		}
	}

	return filterPasscodesByName(records, opts.String("search")), nil
}

// CreateCustomPasscode adds a keyboard password for the stay window.
// Vendor failures surface as a retryable error carrying replay context.
func (s *TTLockService) CreateCustomPasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	value := opts.String("pwdvalue")
	if value == "" {
		value = GenerateEightDigitPasscode()
	}

	params := url.Values{}
	params.Set("lockId", deviceID)
	params.Set("keyboardPwd", value)
	params.Set("keyboardPwdName", opts.String("pwdname"))
	params.Set("addType", "2") // via gateway
	if start := opts.Time("startdate"); !start.IsZero() {
		params.Set("startDate", strconv.FormatInt(start.UnixMilli(), 10))
	}
	if end := opts.Time("enddate"); !end.IsZero() {
		params.Set("endDate", strconv.FormatInt(end.UnixMilli(), 10))
	}

	raw, err := s.apiRequest("/v3/keyboardPwd/add", params)
	if err != nil {
		return nil, &RetryableCapabilityError{
			Capability: CapCreateCustomPasscode,
			DeviceID:   deviceID,
			Options:    opts,
			Err:        err,
		}
	}

	var created struct {
		KeyboardPwdID int64 `json:"keyboardPwdId"`
	}
	_ = json.Unmarshal(raw, &created)

	props := map[string]string{"name": opts.String("pwdname")}
	if created.KeyboardPwdID > 0 {
		props["pwdid"] = strconv.FormatInt(created.KeyboardPwdID, 10)
	}
	return &CapabilityResult{
		Output:   fmt.Sprintf("Keyboard password %q created", opts.String("pwdname")),
		Props:    props,
		Passcode: value,
	}, nil
}

// UpdatePasscode changes an existing keyboard password
func (s *TTLockService) UpdatePasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	pwdID := opts.String("pwdid")
	if pwdID == "" {
		pwdID = strconv.FormatInt(opts.Int64("pwdid"), 10)
	}
	if pwdID == "" || pwdID == "0" {
		return nil, fmt.Errorf("ttlock updatePasscode requires pwdid")
	}

	params := url.Values{}
	params.Set("lockId", deviceID)
	params.Set("keyboardPwdId", pwdID)
	params.Set("changeType", "2")
	if value := opts.String("pwdvalue"); value != "" {
		params.Set("newKeyboardPwd", value)
	}
	if start := opts.Time("startdate"); !start.IsZero() {
		params.Set("startDate", strconv.FormatInt(start.UnixMilli(), 10))
	}
	if end := opts.Time("enddate"); !end.IsZero() {
		params.Set("endDate", strconv.FormatInt(end.UnixMilli(), 10))
	}

	if _, err := s.apiRequest("/v3/keyboardPwd/change", params); err != nil {
		return nil, &RetryableCapabilityError{
			Capability: CapUpdatePasscode,
			DeviceID:   deviceID,
			Options:    opts,
			Err:        err,
		}
	}
	return &CapabilityResult{Output: "Keyboard password changed"}, nil
}

// DeletePasscode removes a keyboard password
func (s *TTLockService) DeletePasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	pwdID := opts.String("pwdid")
	if pwdID == "" {
		pwdID = strconv.FormatInt(opts.Int64("pwdid"), 10)
	}
	if pwdID == "" || pwdID == "0" {
		return nil, fmt.Errorf("ttlock deletePasscode requires pwdid")
	}

	params := url.Values{}
	params.Set("lockId", deviceID)
	params.Set("keyboardPwdId", pwdID)
	params.Set("deleteType", "2")
	if _, err := s.apiRequest("/v3/keyboardPwd/delete", params); err != nil {
		return nil, err
	}
	return &CapabilityResult{Output: "Keyboard password deleted"}, nil
}

// ttlockRecord is one raw unlock record
type ttlockRecord struct {
	RecordID    int64  `json:"recordId"`
	RecordType  int    `json:"recordType"`
	Success     int    `json:"success"`
	Username    string `json:"username"`
	KeyboardPwd string `json:"keyboardPwd"`
	LockDate    int64  `json:"lockDate"`
}

// fetchRecords drains the unlock records inside a time window
func (s *TTLockService) fetchRecords(deviceID string, from, to time.Time) ([]ttlockRecord, error) {
	var records []ttlockRecord
	for page := 1; page <= maxPasscodePages; page++ {
		params := url.Values{}
		params.Set("lockId", deviceID)
		params.Set("pageNo", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(ttlockPasscodePageSize))
		if !from.IsZero() {
			params.Set("startDate", strconv.FormatInt(from.UnixMilli(), 10))
		}
		if !to.IsZero() {
			params.Set("endDate", strconv.FormatInt(to.UnixMilli(), 10))
		}

		raw, err := s.apiRequest("/v3/lockRecord/list", params)
		if err != nil {
			return nil, err
		}

		var list struct {
			List  []ttlockRecord `json:"list"`
			Pages int            `json:"pages"`
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("ttlock record list decode failed: %w", err)
		}
		records = append(records, list.List...)
		if page >= list.Pages || len(list.List) == 0 {
			break
		}
	}
	return records, nil
}

// ShowActivityLogs renders the device's unlock records with the vendor
// record-type table translated to human labels
func (s *TTLockService) ShowActivityLogs(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	records, err := s.fetchRecords(deviceID, opts.Time("startdate"), opts.Time("enddate"))
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		outcome := "ok"
		if r.Success != 1 {
			outcome = "failed"
		}
		lines = append(lines, fmt.Sprintf("%s %s by %s (%s)",
			time.UnixMilli(r.LockDate).UTC().Format(time.RFC3339),
			ttlockRecordType(r.RecordType), r.Username, outcome))
	}
	return &CapabilityResult{
		Output: strings.Join(lines, "\n"),
		Props:  map[string]string{"entries": fmt.Sprintf("%d", len(lines))},
	}, nil
}

// CheckStatus queries the lock's open state
func (s *TTLockService) CheckStatus(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	params := url.Values{}
	params.Set("lockId", deviceID)
	raw, err := s.apiRequest("/v3/lock/queryOpenState", params)
	if err != nil {
		return nil, err
	}

	var state struct {
		State int `json:"state"`
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("ttlock state decode failed: %w", err)
	}

	label := ttlockOpenState(state.State)
	return &CapabilityResult{
		Output: "Lock is " + label,
		Props:  map[string]string{"state": label},
	}, nil
}

// DetectFirstAccess scans the stay window's unlock records for the first
// successful keyboard-password entry matching the booking's deterministic
// name or a previously recorded passcode value
func (s *TTLockService) DetectFirstAccess(deviceID string, from, to time.Time, name, passcode string) (bool, error) {
	records, err := s.fetchRecords(deviceID, from, to)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.RecordType != ttlockRecordKeyboardPwd || r.Success != 1 {
			continue
		}
		if (name != "" && r.Username == name) || (passcode != "" && r.KeyboardPwd == passcode) {
			return true, nil
		}
	}
	return false, nil
}

// ttlockRecordType translates the vendor record-type table
func ttlockRecordType(recordType int) string {
	switch recordType {
	case 1:
		return "app unlock"
	case 4:
		return "passcode unlock"
	case 7:
		return "IC card unlock"
	case 8:
		return "fingerprint unlock"
	case 9:
		return "wristband unlock"
	case 10:
		return "auto lock"
	case 11:
		return "gateway unlock"
	case 12:
		return "remote unlock"
	case 29:
		return "app lock"
	case 30:
		return "passcode lock"
	case 46:
		return "remote lock"
	}
	return fmt.Sprintf("record type %d", recordType)
}

// ttlockOpenState translates the vendor open-state table
func ttlockOpenState(state int) string {
	switch state {
	case 0:
		return "locked"
	case 1:
		return "unlocked"
	}
	return "unknown"
}
