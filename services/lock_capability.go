package services

import (
	"fmt"
	"strings"
	"time"

	"stayops-http-service/utils"
)

// Capability names shared by every vendor adapter
const (
	CapUnlockDevice         = "unlockDevice"
	CapLockDevice           = "lockDevice"
	CapListPasscodes        = "listPasscodes"
	CapCreateCustomPasscode = "createCustomPasscode"
	CapUpdatePasscode       = "updatePasscode"
	CapDeletePasscode       = "deletePasscode"
	CapShowActivityLogs     = "showActivityLogs"
	CapCheckStatus          = "checkStatus"
)

// Pagination safety valve: vendor passcode lists are drained fully but
// never past this many pages
const maxPasscodePages = 20

// LockDevice is the vendor-neutral device representation
type LockDevice struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	Model        string                 `json:"model,omitempty"`
	BatteryLevel *float64               `json:"battery_level,omitempty"`
	Capabilities []string               `json:"capabilities"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// CapabilityOptions carries the loosely-typed per-capability arguments.
// Keys follow the vendor-neutral names: pwdvalue, pwdname, startdate,
// enddate, pwdid, search, type, listing_id.
type CapabilityOptions map[string]interface{}

// String reads a string option
func (o CapabilityOptions) String(key string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Int64 reads a numeric option, tolerating JSON float decoding
func (o CapabilityOptions) Int64(key string) int64 {
	switch v := o[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Time reads an epoch-seconds option
func (o CapabilityOptions) Time(key string) time.Time {
	ts := o.Int64(key)
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// CapabilityResult is the uniform outcome of a capability invocation:
// human-readable output plus structured properties for chaining. Passcode
// carries the literal code on passcode creation.
type CapabilityResult struct {
	Output   string            `json:"output"`
	Props    map[string]string `json:"props,omitempty"`
	Passcode string            `json:"passcode,omitempty"`
}

// PasscodeRecord is the vendor-neutral view of a passcode / lock user.
// ID is vendor-issued: numeric for TTLock and U-Tec, opaque for Nuki.
type PasscodeRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Value     string    `json:"value,omitempty"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Type      string    `json:"type,omitempty"`
}

// LockProvider is the common capability contract every vendor adapter
// implements
type LockProvider interface {
	ProviderKey() string
	ProfileID() uint
	FetchDevices() ([]LockDevice, error)
	UnlockDevice(deviceID string, opts CapabilityOptions) (*CapabilityResult, error)
	LockDevice(deviceID string, opts CapabilityOptions) (*CapabilityResult, error)
	ListPasscodes(deviceID string, opts CapabilityOptions) ([]PasscodeRecord, error)
	CreateCustomPasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error)
	UpdatePasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error)
	DeletePasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error)
	ShowActivityLogs(deviceID string, opts CapabilityOptions) (*CapabilityResult, error)
	CheckStatus(deviceID string, opts CapabilityOptions) (*CapabilityResult, error)
}

// RetryableCapabilityError wraps a vendor failure during passcode creation
// or update with enough context for blind replay: the target device, the
// failed capability and the original options.
type RetryableCapabilityError struct {
	Capability string
	DeviceID   string
	Options    CapabilityOptions
	Err        error
}

func (e *RetryableCapabilityError) Error() string {
	return fmt.Sprintf("retryable %s failure on device %s: %v", e.Capability, e.DeviceID, e.Err)
}

func (e *RetryableCapabilityError) Unwrap() error {
	return e.Err
}

// BookingPasscodeName builds the deterministic passcode name for a
// booking-listing pair. The name is the sole reconciliation key, since
// vendor-issued IDs are not available synchronously.
func BookingPasscodeName(bookingID, listingID uint) string {
	return fmt.Sprintf("bid:%d-%d", bookingID, listingID)
}

// ParseBookingPasscodeName inverts BookingPasscodeName. Webhook handlers
// use it to attribute vendor events back to a booking-listing pair.
func ParseBookingPasscodeName(name string) (bookingID, listingID uint, ok bool) {
	n, err := fmt.Sscanf(name, "bid:%d-%d", &bookingID, &listingID)
	if err != nil || n != 2 {
		return 0, 0, false
	}
	return bookingID, listingID, true
}

// GenerateSixDigitPasscode produces a 6-digit code from digits 1-9 that
// never starts with "12" (Nuki and U-Tec keypad rules)
func GenerateSixDigitPasscode() string {
	for {
		var b strings.Builder
		for i := 0; i < 6; i++ {
			b.WriteByte(byte('0' + utils.RandomDigit(1, 9)))
		}
		code := b.String()
		if !strings.HasPrefix(code, "12") {
			return code
		}
	}
}

// GenerateEightDigitPasscode produces an 8-digit code from digits 0-9 with
// a non-zero leading digit (TTLock keyboard password rules)
func GenerateEightDigitPasscode() string {
	var b strings.Builder
	b.WriteByte(byte('0' + utils.RandomDigit(1, 9)))
	for i := 1; i < 8; i++ {
		b.WriteByte(byte('0' + utils.RandomDigit(0, 9)))
	}
	return b.String()
}

// filterPasscodesByName applies the exact-name search filter client-side,
// since no vendor supports it server-side
func filterPasscodesByName(records []PasscodeRecord, name string) []PasscodeRecord {
	if name == "" {
		return records
	}
	out := make([]PasscodeRecord, 0, len(records))
	for _, r := range records {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}
