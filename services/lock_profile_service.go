package services

import (
	"errors"
	"fmt"

	"stayops-http-service/config"
	"stayops-http-service/models"

	"gorm.io/gorm"
)

// InterfaceLockProfileService defines the lock integration registry
type InterfaceLockProfileService interface {
	GetProfileByID(id uint) (*models.LockProfile, error)
	GetProfilesByProvider(provider string) ([]models.LockProfile, error)
	CreateProfile(profile *models.LockProfile) error
	SaveTokens(profile *models.LockProfile) error
	GetProvider(profileID uint) (LockProvider, error)
}

// LockProfileService manages vendor integration profiles and instantiates
// the matching provider adapters
type LockProfileService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewLockProfileService creates a new lock profile service
func NewLockProfileService(db *gorm.DB, cfg *config.Config) InterfaceLockProfileService {
	return &LockProfileService{
		DB:     db,
		Config: cfg,
	}
}

// GetProfileByID fetches an integration profile
func (s *LockProfileService) GetProfileByID(id uint) (*models.LockProfile, error) {
	var profile models.LockProfile
	if err := s.DB.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("lock profile not found")
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfilesByProvider returns every profile of one vendor
func (s *LockProfileService) GetProfilesByProvider(provider string) ([]models.LockProfile, error) {
	var profiles []models.LockProfile
	if err := s.DB.Where("provider = ?", provider).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// CreateProfile persists a new integration profile
func (s *LockProfileService) CreateProfile(profile *models.LockProfile) error {
	return s.DB.Create(profile).Error
}

// SaveTokens persists the refreshed token state of a profile
func (s *LockProfileService) SaveTokens(profile *models.LockProfile) error {
	return s.DB.Model(profile).Updates(map[string]interface{}{
		"access_token":  profile.AccessToken,
		"refresh_token": profile.RefreshToken,
		"expiry_ts":     profile.ExpiryTS,
		"webhook_token": profile.WebhookToken,
	}).Error
}

// GetProvider loads a profile and instantiates its vendor adapter
func (s *LockProfileService) GetProvider(profileID uint) (LockProvider, error) {
	profile, err := s.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}

	switch profile.Provider {
	case models.LockProviderNuki:
		return NewNukiService(s.Config, profile, s), nil
	case models.LockProviderTTLock:
		return NewTTLockService(s.Config, profile, s), nil
	case models.LockProviderUTec:
		return NewUTecService(s.Config, profile, s), nil
	}
	return nil, fmt.Errorf("unknown lock provider %q", profile.Provider)
}
