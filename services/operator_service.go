package services

import (
	"errors"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"

	"gorm.io/gorm"
)

// InterfaceOperatorService defines the operator registry interface
type InterfaceOperatorService interface {
	GetAllOperators() ([]models.Operator, error)
	GetOperatorByID(id uint) (*models.Operator, error)
	GetOperatorsByIDs(ids []uint) ([]models.Operator, error)
	CreateOperator(operator *models.Operator) error
	UpdateOperator(id uint, updates map[string]interface{}) (*models.Operator, error)
	DeleteOperator(id uint) error
	AvailableMinutesForDate(operator *models.Operator, date time.Time) int
}

// OperatorService provides operator records and the availability model
type OperatorService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewOperatorService creates a new operator service
func NewOperatorService(db *gorm.DB, cfg *config.Config) InterfaceOperatorService {
	return &OperatorService{
		DB:     db,
		Config: cfg,
	}
}

// GetAllOperators returns all operators
func (s *OperatorService) GetAllOperators() ([]models.Operator, error) {
	var operators []models.Operator
	if err := s.DB.Find(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}

// GetOperatorByID fetches an operator by ID
func (s *OperatorService) GetOperatorByID(id uint) (*models.Operator, error) {
	var operator models.Operator
	if err := s.DB.First(&operator, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("operator not found")
		}
		return nil, err
	}
	return &operator, nil
}

// GetOperatorsByIDs fetches the operators matching the given IDs
func (s *OperatorService) GetOperatorsByIDs(ids []uint) ([]models.Operator, error) {
	var operators []models.Operator
	if len(ids) == 0 {
		return operators, nil
	}
	if err := s.DB.Where("id IN ?", ids).Find(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}

// CreateOperator creates a new operator
func (s *OperatorService) CreateOperator(operator *models.Operator) error {
	return s.DB.Create(operator).Error
}

// UpdateOperator updates operator fields
func (s *OperatorService) UpdateOperator(id uint, updates map[string]interface{}) (*models.Operator, error) {
	operator, err := s.GetOperatorByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.DB.Model(operator).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetOperatorByID(id)
}

// DeleteOperator deletes an operator
func (s *OperatorService) DeleteOperator(id uint) error {
	operator, err := s.GetOperatorByID(id)
	if err != nil {
		return err
	}
	return s.DB.Delete(operator).Error
}

// AvailableMinutesForDate resolves the schedulable minutes of an operator
// for a calendar date via the weekly template and exception overrides
func (s *OperatorService) AvailableMinutesForDate(operator *models.Operator, date time.Time) int {
	return operator.AvailableMinutesForDate(date)
}
