package services

import (
	"stayops-http-service/config"
	"stayops-http-service/models"

	"gorm.io/gorm"
)

// InterfaceHistoryService defines the booking-history audit interface
type InterfaceHistoryService interface {
	WriteTaskEvent(bookingID uint, eventCode string, taskIDs []uint) error
	WriteDoorAccessEvent(bookingID uint, eventCode string, data models.DoorAccessEventData) error
	GetBookingHistory(bookingID uint) ([]models.BookingHistory, error)
	GetBookingEventsByCode(bookingID uint, eventCode string) ([]models.BookingHistory, error)
	HasEvent(bookingID uint, eventCode string) (bool, error)
}

// HistoryService writes and reads booking audit-history entries
type HistoryService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewHistoryService creates a new history service
func NewHistoryService(db *gorm.DB, cfg *config.Config) InterfaceHistoryService {
	return &HistoryService{
		DB:     db,
		Config: cfg,
	}
}

// WriteTaskEvent records an NT/MT/CT entry carrying the affected task IDs
func (s *HistoryService) WriteTaskEvent(bookingID uint, eventCode string, taskIDs []uint) error {
	entry := &models.BookingHistory{
		BookingID: bookingID,
		EventCode: eventCode,
		Descr:     taskEventDescription(eventCode),
	}
	if err := entry.SetExtraData(models.TaskEventData{TaskIDs: taskIDs}); err != nil {
		return err
	}
	return s.DB.Create(entry).Error
}

// WriteDoorAccessEvent records an ND/MD/FA entry
func (s *HistoryService) WriteDoorAccessEvent(bookingID uint, eventCode string, data models.DoorAccessEventData) error {
	entry := &models.BookingHistory{
		BookingID: bookingID,
		EventCode: eventCode,
		Descr:     doorEventDescription(eventCode),
	}
	if err := entry.SetExtraData(data); err != nil {
		return err
	}
	return s.DB.Create(entry).Error
}

// GetBookingHistory returns every history entry of a booking, newest first
func (s *HistoryService) GetBookingHistory(bookingID uint) ([]models.BookingHistory, error) {
	var entries []models.BookingHistory
	if err := s.DB.Where("booking_id = ?", bookingID).
		Order("id DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// GetBookingEventsByCode returns a booking's entries for one event code,
// newest first
func (s *HistoryService) GetBookingEventsByCode(bookingID uint, eventCode string) ([]models.BookingHistory, error) {
	var entries []models.BookingHistory
	if err := s.DB.Where("booking_id = ? AND event_code = ?", bookingID, eventCode).
		Order("id DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// HasEvent reports whether a booking already carries an event of this code
func (s *HistoryService) HasEvent(bookingID uint, eventCode string) (bool, error) {
	var count int64
	if err := s.DB.Model(&models.BookingHistory{}).
		Where("booking_id = ? AND event_code = ?", bookingID, eventCode).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func taskEventDescription(eventCode string) string {
	switch eventCode {
	case models.HistoryEventNewTasks:
		return "New tasks created"
	case models.HistoryEventModifiedTasks:
		return "Tasks modified"
	case models.HistoryEventCancelledTasks:
		return "Tasks cancelled"
	}
	return "Task event"
}

func doorEventDescription(eventCode string) string {
	switch eventCode {
	case models.HistoryEventNewDoorAccess:
		return "Door access code created"
	case models.HistoryEventModDoorAccess:
		return "Door access code modified"
	case models.HistoryEventFirstAccess:
		return "First guest access detected"
	}
	return "Door access event"
}
