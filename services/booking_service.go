package services

import (
	"errors"

	"stayops-http-service/config"
	"stayops-http-service/models"

	"gorm.io/gorm"
)

// InterfaceBookingService defines the booking registry interface
type InterfaceBookingService interface {
	GetBookingByID(id uint) (*models.Booking, error)
	GetBookings(query models.PaginationQuery) ([]models.Booking, models.PaginationResult, error)
	CreateBooking(booking *models.Booking) error
	UpdateBooking(id uint, updates map[string]interface{}, rooms []models.BookingRoom) (*models.Booking, *models.BookingSnapshot, error)
	SetStatus(id uint, status models.BookingStatus) error
}

// BookingService provides typed access to persisted bookings
type BookingService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewBookingService creates a new booking service
func NewBookingService(db *gorm.DB, cfg *config.Config) InterfaceBookingService {
	return &BookingService{
		DB:     db,
		Config: cfg,
	}
}

// GetBookingByID fetches a booking with its rooms
func (s *BookingService) GetBookingByID(id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.DB.Preload("Rooms").First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("booking not found")
		}
		return nil, err
	}
	return &booking, nil
}

// GetBookings returns a paginated booking list
func (s *BookingService) GetBookings(query models.PaginationQuery) ([]models.Booking, models.PaginationResult, error) {
	var total int64
	if err := s.DB.Model(&models.Booking{}).Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	if query.PageNum <= 0 {
		query.PageNum = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}
	order := "checkin ASC"
	if query.Desc {
		order = "checkin DESC"
	}

	var bookings []models.Booking
	if err := s.DB.Preload("Rooms").
		Order(order).
		Offset((query.PageNum - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&bookings).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	return bookings, models.NewPaginationResult(int(total), query.PageNum, query.PageSize), nil
}

// CreateBooking persists a booking with its rooms
func (s *BookingService) CreateBooking(booking *models.Booking) error {
	return s.DB.Create(booking).Error
}

// UpdateBooking applies stay/room changes and returns the updated booking
// together with the prior state snapshot for alteration detection
func (s *BookingService) UpdateBooking(id uint, updates map[string]interface{}, rooms []models.BookingRoom) (*models.Booking, *models.BookingSnapshot, error) {
	booking, err := s.GetBookingByID(id)
	if err != nil {
		return nil, nil, err
	}

	prevIDs := make([]uint, 0, len(booking.Rooms))
	for _, r := range booking.Rooms {
		prevIDs = append(prevIDs, r.ListingID)
	}
	previous := &models.BookingSnapshot{
		CheckIn:  booking.CheckIn,
		CheckOut: booking.CheckOut,
		Days:     booking.Days,
		RoomIDs:  prevIDs,
	}

	if len(updates) > 0 {
		if err := s.DB.Model(booking).Updates(updates).Error; err != nil {
			return nil, nil, err
		}
	}
	if rooms != nil {
		if err := s.DB.Where("booking_id = ?", id).Delete(&models.BookingRoom{}).Error; err != nil {
			return nil, nil, err
		}
		for i := range rooms {
			rooms[i].ID = 0
			rooms[i].BookingID = id
		}
		if len(rooms) > 0 {
			if err := s.DB.Create(&rooms).Error; err != nil {
				return nil, nil, err
			}
		}
	}

	updated, err := s.GetBookingByID(id)
	if err != nil {
		return nil, nil, err
	}
	return updated, previous, nil
}

// SetStatus moves a booking to a lifecycle status
func (s *BookingService) SetStatus(id uint, status models.BookingStatus) error {
	return s.DB.Model(&models.Booking{}).Where("id = ?", id).Update("status", status).Error
}
