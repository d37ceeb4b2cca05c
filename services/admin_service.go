package services

import (
	"errors"

	"stayops-http-service/config"
	"stayops-http-service/models"
	"stayops-http-service/utils"

	"gorm.io/gorm"
)

// InterfaceAdminService defines the admin service interface
type InterfaceAdminService interface {
	Authenticate(username, password string) (*models.Admin, error)
	GetAdminByID(id uint) (*models.Admin, error)
	EnsureDefaultAdmin() error
}

// AdminService provides administrator account handling
type AdminService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewAdminService creates a new admin service
func NewAdminService(db *gorm.DB, cfg *config.Config) InterfaceAdminService {
	return &AdminService{
		DB:     db,
		Config: cfg,
	}
}

// Authenticate checks admin credentials
func (s *AdminService) Authenticate(username, password string) (*models.Admin, error) {
	var admin models.Admin
	if err := s.DB.Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("admin not found")
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(password, admin.Password) {
		return nil, errors.New("incorrect password")
	}

	return &admin, nil
}

// GetAdminByID fetches an admin by ID
func (s *AdminService) GetAdminByID(id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := s.DB.First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("admin not found")
		}
		return nil, err
	}
	return &admin, nil
}

// EnsureDefaultAdmin seeds the default admin account when none exists
func (s *AdminService) EnsureDefaultAdmin() error {
	var count int64
	if err := s.DB.Model(&models.Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword(s.Config.DefaultAdminPassword)
	if err != nil {
		return err
	}

	admin := &models.Admin{
		Username: "admin",
		Password: hashed,
		Email:    "admin@localhost",
	}
	return s.DB.Create(admin).Error
}
