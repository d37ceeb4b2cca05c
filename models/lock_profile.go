package models

import (
	"time"
)

// LockProvider keys identifying the vendor adapters
const (
	LockProviderNuki   = "nuki"
	LockProviderTTLock = "ttlock"
	LockProviderUTec   = "utec"
)

// LockProfile is one configured vendor integration: credentials plus the
// cached token state the adapters refresh in place.
type LockProfile struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Provider string `gorm:"type:varchar(20);index;not null" json:"provider"`
	Name     string `gorm:"type:varchar(100)" json:"name"`

	// OAuth2 client credentials (Nuki, U-Tec) or API client pair (TTLock)
	ClientID     string `gorm:"type:varchar(120)" json:"client_id"`
	ClientSecret string `gorm:"type:varchar(120)" json:"-"`

	// TTLock credential grant
	Username    string `gorm:"type:varchar(120)" json:"username,omitempty"`
	PasswordMD5 string `gorm:"type:varchar(64)" json:"-"`

	// Cached token state
	AccessToken  string `gorm:"type:varchar(2048)" json:"-"`
	RefreshToken string `gorm:"type:varchar(2048)" json:"-"`
	ExpiryTS     int64  `json:"expiry_ts"` // epoch seconds; 0 = no token yet

	// Webhook authenticity: Nuki shares the client secret, U-Tec uses a
	// self-generated token pushed via Uhome.Configure/Set.
	WebhookToken string `gorm:"type:varchar(120)" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName maps LockProfile onto the lock_profiles table
func (LockProfile) TableName() string {
	return "lock_profiles"
}

// TokenExpired reports whether the cached access token needs a refresh.
// A small skew keeps tokens from expiring mid-request.
func (p *LockProfile) TokenExpired(now time.Time) bool {
	if p.AccessToken == "" {
		return true
	}
	return p.ExpiryTS-30 <= now.Unix()
}
