package models

// Listing represents a rentable unit tasks and door-access codes target.
// LockDeviceID binds the listing to a vendor smart-lock device; empty means
// no lock integration for this listing.
type Listing struct {
	BaseModel
	Name          string `gorm:"type:varchar(100);not null" json:"name"`
	LockProfileID uint   `gorm:"index" json:"lock_profile_id"`
	LockDeviceID  string `gorm:"type:varchar(60)" json:"lock_device_id"`
}

// TableName maps Listing onto the listings table
func (Listing) TableName() string {
	return "listings"
}
