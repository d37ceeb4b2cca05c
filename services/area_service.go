package services

import (
	"errors"

	"stayops-http-service/config"
	"stayops-http-service/models"

	"gorm.io/gorm"
)

// InterfaceAreaService defines the area registry interface
type InterfaceAreaService interface {
	GetAllAreas() ([]models.Area, error)
	GetDisplayedAreas() ([]models.Area, error)
	GetAreaByID(id uint) (*models.Area, error)
	CreateArea(area *models.Area) error
	UpdateArea(id uint, updates map[string]interface{}) (*models.Area, error)
	DeleteArea(id uint) error
}

// AreaService provides typed access to the configured operational areas
type AreaService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewAreaService creates a new area service
func NewAreaService(db *gorm.DB, cfg *config.Config) InterfaceAreaService {
	return &AreaService{
		DB:     db,
		Config: cfg,
	}
}

// GetAllAreas returns every configured area
func (s *AreaService) GetAllAreas() ([]models.Area, error) {
	var areas []models.Area
	if err := s.DB.Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

// GetDisplayedAreas returns the areas flagged for display
func (s *AreaService) GetDisplayedAreas() ([]models.Area, error) {
	var areas []models.Area
	if err := s.DB.Where("display = ?", true).Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

// GetAreaByID fetches an area by ID
func (s *AreaService) GetAreaByID(id uint) (*models.Area, error) {
	var area models.Area
	if err := s.DB.First(&area, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("area not found")
		}
		return nil, err
	}
	return &area, nil
}

// CreateArea creates a new area. Settings always materialize to a map.
func (s *AreaService) CreateArea(area *models.Area) error {
	if area.Settings == "" {
		if err := area.SetSettings(models.AreaSettings{}); err != nil {
			return err
		}
	}
	return s.DB.Create(area).Error
}

// UpdateArea updates area fields
func (s *AreaService) UpdateArea(id uint, updates map[string]interface{}) (*models.Area, error) {
	area, err := s.GetAreaByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.DB.Model(area).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetAreaByID(id)
}

// DeleteArea deletes an area
func (s *AreaService) DeleteArea(id uint) error {
	area, err := s.GetAreaByID(id)
	if err != nil {
		return err
	}
	return s.DB.Delete(area).Error
}
