package services

import (
	"fmt"
	"testing"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"
)

// fakeHistory is an in-memory InterfaceHistoryService
type fakeHistory struct {
	entries []models.BookingHistory
	nextID  uint
}

func (h *fakeHistory) WriteTaskEvent(bookingID uint, eventCode string, taskIDs []uint) error {
	entry := models.BookingHistory{BookingID: bookingID, EventCode: eventCode}
	_ = entry.SetExtraData(models.TaskEventData{TaskIDs: taskIDs})
	h.append(entry)
	return nil
}

func (h *fakeHistory) WriteDoorAccessEvent(bookingID uint, eventCode string, data models.DoorAccessEventData) error {
	entry := models.BookingHistory{BookingID: bookingID, EventCode: eventCode}
	_ = entry.SetExtraData(data)
	h.append(entry)
	return nil
}

func (h *fakeHistory) append(entry models.BookingHistory) {
	h.nextID++
	entry.ID = h.nextID
	h.entries = append(h.entries, entry)
}

// GetBookingHistory returns entries newest-first, as the real store does
func (h *fakeHistory) GetBookingHistory(bookingID uint) ([]models.BookingHistory, error) {
	var out []models.BookingHistory
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].BookingID == bookingID {
			out = append(out, h.entries[i])
		}
	}
	return out, nil
}

func (h *fakeHistory) GetBookingEventsByCode(bookingID uint, eventCode string) ([]models.BookingHistory, error) {
	var out []models.BookingHistory
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].BookingID == bookingID && h.entries[i].EventCode == eventCode {
			out = append(out, h.entries[i])
		}
	}
	return out, nil
}

func (h *fakeHistory) HasEvent(bookingID uint, eventCode string) (bool, error) {
	entries, _ := h.GetBookingEventsByCode(bookingID, eventCode)
	return len(entries) > 0, nil
}

// fakeProvider is an in-memory LockProvider with per-device passcode stores
type fakeProvider struct {
	profileID uint
	passcodes map[string][]PasscodeRecord // deviceID -> records
	nextID    int
	created   int
	deleted   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{profileID: 1, passcodes: map[string][]PasscodeRecord{}}
}

func (p *fakeProvider) ProviderKey() string { return "fake" }
func (p *fakeProvider) ProfileID() uint     { return p.profileID }

func (p *fakeProvider) FetchDevices() ([]LockDevice, error) { return nil, nil }

func (p *fakeProvider) UnlockDevice(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	return &CapabilityResult{Output: "unlocked"}, nil
}

func (p *fakeProvider) LockDevice(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	return &CapabilityResult{Output: "locked"}, nil
}

func (p *fakeProvider) ListPasscodes(deviceID string, opts CapabilityOptions) ([]PasscodeRecord, error) {
	return filterPasscodesByName(p.passcodes[deviceID], opts.String("search")), nil
}

func (p *fakeProvider) CreateCustomPasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	value := opts.String("pwdvalue")
	if value == "" {
		p.created++
		value = fmt.Sprintf("90000%d", p.created)
	}
	p.nextID++
	p.passcodes[deviceID] = append(p.passcodes[deviceID], PasscodeRecord{
		ID:    fmt.Sprintf("%d", p.nextID),
		Name:  opts.String("pwdname"),
		Value: value,
	})
	return &CapabilityResult{Output: "created", Passcode: value}, nil
}

func (p *fakeProvider) UpdatePasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	return &CapabilityResult{Output: "updated"}, nil
}

func (p *fakeProvider) DeletePasscode(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	id := opts.String("pwdid")
	records := p.passcodes[deviceID]
	for i, r := range records {
		if r.ID == id {
			p.passcodes[deviceID] = append(records[:i], records[i+1:]...)
			p.deleted++
			return &CapabilityResult{Output: "deleted"}, nil
		}
	}
	return nil, fmt.Errorf("passcode %s not found", id)
}

func (p *fakeProvider) ShowActivityLogs(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	return &CapabilityResult{Output: ""}, nil
}

func (p *fakeProvider) CheckStatus(deviceID string, opts CapabilityOptions) (*CapabilityResult, error) {
	return &CapabilityResult{Output: "Lock is locked"}, nil
}

func accessBooking() *models.Booking {
	checkin := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	return &models.Booking{
		ID:       501,
		CheckIn:  checkin.Unix(),
		CheckOut: checkin.AddDate(0, 0, 4).Unix(),
	}
}

func newAccessService(history InterfaceHistoryService) InterfaceLockAccessService {
	return NewLockAccessService(&config.Config{LockHTTPTimeout: 30 * time.Second}, history)
}

func TestCreateBookingDoorAccessPerDevice(t *testing.T) {
	history := &fakeHistory{}
	provider := newFakeProvider()
	access := newAccessService(history)
	booking := accessBooking()

	first, err := access.CreateBookingDoorAccess(provider, "dev-1", booking, 7, models.AreaSettings{PassQuant: PassQuantPerDevice})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := access.CreateBookingDoorAccess(provider, "dev-2", booking, 9, models.AreaSettings{PassQuant: PassQuantPerDevice})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.Passcode == "" || second.Passcode == "" {
		t.Fatal("both creations must issue a passcode")
	}
	if first.Passcode == second.Passcode {
		t.Error("per-device mode must issue distinct values")
	}

	records, _ := provider.ListPasscodes("dev-1", CapabilityOptions{"search": "bid:501-7"})
	if len(records) != 1 {
		t.Errorf("device 1 passcodes named bid:501-7 = %d, want 1", len(records))
	}

	if seen, _ := history.HasEvent(501, models.HistoryEventNewDoorAccess); !seen {
		t.Error("creation must write an ND history entry")
	}
}

func TestCreateBookingDoorAccessPerBookingReusesValue(t *testing.T) {
	history := &fakeHistory{}
	provider := newFakeProvider()
	access := newAccessService(history)
	booking := accessBooking()

	first, err := access.CreateBookingDoorAccess(provider, "dev-1", booking, 7, models.AreaSettings{PassQuant: PassQuantPerBooking})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := access.CreateBookingDoorAccess(provider, "dev-2", booking, 9, models.AreaSettings{PassQuant: PassQuantPerBooking})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.Passcode != second.Passcode {
		t.Errorf("per-booking mode must reuse the buffered value: %q vs %q", first.Passcode, second.Passcode)
	}
}

func TestModifyBookingDoorAccessReplacesPrior(t *testing.T) {
	history := &fakeHistory{}
	provider := newFakeProvider()
	access := newAccessService(history)
	booking := accessBooking()

	if _, err := access.CreateBookingDoorAccess(provider, "dev-1", booking, 7, models.AreaSettings{PassQuant: PassQuantPerDevice}); err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := access.ModifyBookingDoorAccess(provider, "dev-1", booking, 7, models.AreaSettings{PassQuant: PassQuantPerDevice})
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if result.Passcode == "" {
		t.Error("modify must issue a replacement passcode")
	}
	if provider.deleted != 1 {
		t.Errorf("deleted = %d, want 1 (the prior passcode)", provider.deleted)
	}

	records, _ := provider.ListPasscodes("dev-1", CapabilityOptions{"search": "bid:501-7"})
	if len(records) != 1 {
		t.Errorf("passcodes after modify = %d, want exactly 1", len(records))
	}

	if seen, _ := history.HasEvent(501, models.HistoryEventModDoorAccess); !seen {
		t.Error("modification must write an MD history entry")
	}
}

func TestModifyBookingDoorAccessWithoutPriorDegradesToCreate(t *testing.T) {
	history := &fakeHistory{}
	provider := newFakeProvider()
	access := newAccessService(history)
	booking := accessBooking()

	result, err := access.ModifyBookingDoorAccess(provider, "dev-1", booking, 7, models.AreaSettings{PassQuant: PassQuantPerDevice})
	if err != nil {
		t.Fatalf("modify without prior: %v", err)
	}
	if result == nil || result.Passcode == "" {
		t.Error("modify without prior state must create a fresh passcode")
	}
}

func TestCancelBookingDoorAccess(t *testing.T) {
	history := &fakeHistory{}
	provider := newFakeProvider()
	access := newAccessService(history)
	booking := accessBooking()

	if _, err := access.CreateBookingDoorAccess(provider, "dev-1", booking, 7, models.AreaSettings{PassQuant: PassQuantPerDevice}); err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := access.CancelBookingDoorAccess(provider, "dev-1", booking, 7)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result == nil {
		t.Fatal("cancel with an issued passcode must report the deletion")
	}
	if len(provider.passcodes["dev-1"]) != 0 {
		t.Error("cancel must remove the passcode from the device")
	}
}

func TestCancelBookingDoorAccessNothingToCancel(t *testing.T) {
	access := newAccessService(&fakeHistory{})
	provider := newFakeProvider()

	result, err := access.CancelBookingDoorAccess(provider, "dev-1", accessBooking(), 7)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result != nil {
		t.Error("nothing to cancel must return a nil result, not an error")
	}
}
