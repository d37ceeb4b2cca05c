package services

import (
	"fmt"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"
)

// Passcode quantity modes (area setting "passquant")
const (
	PassQuantPerDevice  = 1 // fresh passcode per device
	PassQuantPerBooking = 2 // one shared passcode value across the booking's devices
)

// InterfaceLockAccessService defines the vendor-agnostic booking-passcode
// reconciliation. All three operations are idempotent under at-least-once
// event delivery: lookup runs against the deterministic passcode name, and
// "nothing to clean up" is a non-error steady state.
type InterfaceLockAccessService interface {
	CreateBookingDoorAccess(provider LockProvider, deviceID string, booking *models.Booking, listingID uint, settings models.AreaSettings) (*CapabilityResult, error)
	ModifyBookingDoorAccess(provider LockProvider, deviceID string, booking *models.Booking, listingID uint, settings models.AreaSettings) (*CapabilityResult, error)
	CancelBookingDoorAccess(provider LockProvider, deviceID string, booking *models.Booking, listingID uint) (*CapabilityResult, error)
}

// LockAccessService implements the shared booking-integration algorithm
// once, parameterized over the vendor capability contract
type LockAccessService struct {
	Config  *config.Config
	history InterfaceHistoryService
}

// NewLockAccessService creates a new lock access service
func NewLockAccessService(cfg *config.Config, history InterfaceHistoryService) InterfaceLockAccessService {
	return &LockAccessService{
		Config:  cfg,
		history: history,
	}
}

// CreateBookingDoorAccess establishes a time-boxed passcode named after the
// (booking, listing) pair. In per-booking mode a previously issued value is
// reused so every device of the stay opens with the same code.
func (s *LockAccessService) CreateBookingDoorAccess(provider LockProvider, deviceID string, booking *models.Booking, listingID uint, settings models.AreaSettings) (*CapabilityResult, error) {
	name := BookingPasscodeName(booking.ID, listingID)

	value := ""
	if settings.PassQuant == PassQuantPerBooking {
		if buffered, err := s.bufferedPasscodeValue(booking.ID); err == nil && buffered != "" {
			value = buffered
		}
	}

	opts := CapabilityOptions{
		"pwdname":    name,
		"startdate":  booking.CheckIn,
		"enddate":    booking.CheckOut,
		"listing_id": int64(listingID),
	}
	if value != "" {
		opts["pwdvalue"] = value
	}

	result, err := provider.CreateCustomPasscode(deviceID, opts)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		_ = s.history.WriteDoorAccessEvent(booking.ID, models.HistoryEventNewDoorAccess, models.DoorAccessEventData{
			Provider:  provider.ProviderKey(),
			ProfileID: provider.ProfileID(),
			DeviceID:  deviceID,
			Passcode:  result.Passcode,
			Name:      name,
		})
	}
	return result, nil
}

// ModifyBookingDoorAccess tears down every previously issued passcode of
// this provider+profile+device and establishes the new state. Prior codes
// that already vanished on the vendor side are skipped silently; with no
// prior passcode at all the call degrades to plain creation.
func (s *LockAccessService) ModifyBookingDoorAccess(provider LockProvider, deviceID string, booking *models.Booking, listingID uint, settings models.AreaSettings) (*CapabilityResult, error) {
	names, err := s.previousPasscodeNames(provider, deviceID, booking.ID)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		// Best-effort cleanup: not-found and already-deleted are expected
		records, err := provider.ListPasscodes(deviceID, CapabilityOptions{"search": name})
		if err != nil {
			continue
		}
		for _, record := range records {
			_, _ = provider.DeletePasscode(deviceID, CapabilityOptions{"pwdid": record.ID})
		}
	}

	result, err := s.CreateBookingDoorAccess(provider, deviceID, booking, listingID, settings)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		props := map[string]string{"replaced": fmt.Sprintf("%d", len(names))}
		_ = s.history.WriteDoorAccessEvent(booking.ID, models.HistoryEventModDoorAccess, models.DoorAccessEventData{
			Provider:  provider.ProviderKey(),
			ProfileID: provider.ProfileID(),
			DeviceID:  deviceID,
			Name:      BookingPasscodeName(booking.ID, listingID),
			Props:     props,
		})
	}
	return result, nil
}

// CancelBookingDoorAccess removes the booking's passcode from the device.
// A missing passcode returns (nil, nil): nothing to cancel is not an error.
func (s *LockAccessService) CancelBookingDoorAccess(provider LockProvider, deviceID string, booking *models.Booking, listingID uint) (*CapabilityResult, error) {
	names, err := s.previousPasscodeNames(provider, deviceID, booking.ID)
	if err != nil {
		return nil, err
	}
	// The deterministic name is always a candidate even without history
	names = appendUniqueName(names, BookingPasscodeName(booking.ID, listingID))

	deleted := 0
	for _, name := range names {
		records, err := provider.ListPasscodes(deviceID, CapabilityOptions{"search": name})
		if err != nil {
			continue
		}
		for _, record := range records {
			if _, err := provider.DeletePasscode(deviceID, CapabilityOptions{"pwdid": record.ID}); err == nil {
				deleted++
			}
		}
	}
	if deleted == 0 {
		return nil, nil
	}

	return &CapabilityResult{
		Output: fmt.Sprintf("removed %d passcode(s) for booking %d", deleted, booking.ID),
		Props:  map[string]string{"deleted": fmt.Sprintf("%d", deleted)},
	}, nil
}

// previousPasscodeNames scans the booking history newest-first for passcode
// creations matching this exact provider, profile and device, deduplicated
func (s *LockAccessService) previousPasscodeNames(provider LockProvider, deviceID string, bookingID uint) ([]string, error) {
	if s.history == nil {
		return nil, nil
	}
	entries, err := s.history.GetBookingEventsByCode(bookingID, models.HistoryEventNewDoorAccess)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		data, err := entry.GetDoorAccessData()
		if err != nil {
			continue
		}
		if data.Provider != provider.ProviderKey() || data.ProfileID != provider.ProfileID() || data.DeviceID != deviceID {
			continue
		}
		if data.Name == "" {
			continue
		}
		names = appendUniqueName(names, data.Name)
	}
	return names, nil
}

// bufferedPasscodeValue returns the most recently issued passcode value of
// the booking, regardless of device
func (s *LockAccessService) bufferedPasscodeValue(bookingID uint) (string, error) {
	if s.history == nil {
		return "", nil
	}
	entries, err := s.history.GetBookingEventsByCode(bookingID, models.HistoryEventNewDoorAccess)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		data, err := entry.GetDoorAccessData()
		if err != nil {
			continue
		}
		if data.Passcode != "" {
			return data.Passcode, nil
		}
	}
	return "", nil
}

func appendUniqueName(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

// StayWindow returns the booking's stay interval in UTC
func StayWindow(booking *models.Booking) (time.Time, time.Time) {
	return time.Unix(booking.CheckIn, 0).UTC(), time.Unix(booking.CheckOut, 0).UTC()
}
