package models

import (
	"encoding/json"
	"sort"
	"time"
)

// AreaSettings holds the per-area scheduling configuration stored as JSON.
// Zero values mean "no restriction": an empty ListingIDs set makes every
// listing eligible, an empty OperatorIDs set disables auto-assignment.
type AreaSettings struct {
	TaskDurationMinutes int      `json:"task_duration_minutes"`
	OperatorIDs         []uint   `json:"operator_ids"`
	ListingIDs          []uint   `json:"listing_ids"`
	Private             bool     `json:"private"`
	AutoAssign          bool     `json:"auto_assign"`
	SchedulingTypes     []string `json:"scheduling_types"`
	DailyInterval       int      `json:"daily_interval"` // every N days for the "daily" scheduling type
	PassQuant           int      `json:"passquant"`      // 1 = fresh passcode per device, 2 = one shared passcode per booking
}

// AreaStatus is one allowed task status inside an ordered status group.
type AreaStatus struct {
	Enum     string `json:"enum"`
	Name     string `json:"name"`
	Ordering int    `json:"ordering"`
}

// AreaStatusGroup is an ordered group of allowed statuses.
type AreaStatusGroup struct {
	Name     string       `json:"name"`
	Ordering int          `json:"ordering"`
	Statuses []AreaStatus `json:"statuses"`
}

// Area represents an operational zone (project) grouping eligible listings,
// eligible operators and default scheduling behavior.
type Area struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	InstanceOf  string    `gorm:"type:varchar(50);not null" json:"instanceof"` // driver key
	Settings    string    `gorm:"type:json" json:"settings"`
	Tags        string    `gorm:"type:json" json:"tags"`
	StatusEnums string    `gorm:"type:json" json:"status_enums"`
	Icon        string    `gorm:"type:varchar(50)" json:"icon"`
	Display     bool      `gorm:"default:true" json:"display"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName maps Area onto the tm_areas table
func (Area) TableName() string {
	return "tm_areas"
}

// GetSettings decodes the settings JSON. It always returns a usable value,
// even when the stored column is empty or malformed.
func (a *Area) GetSettings() AreaSettings {
	var s AreaSettings
	if a.Settings != "" {
		_ = json.Unmarshal([]byte(a.Settings), &s)
	}
	if s.TaskDurationMinutes <= 0 {
		s.TaskDurationMinutes = 60
	}
	if s.DailyInterval <= 0 {
		s.DailyInterval = 1
	}
	return s
}

// SetSettings encodes and stores the settings JSON
func (a *Area) SetSettings(s AreaSettings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	a.Settings = string(raw)
	return nil
}

// GetTags decodes the tag ID set
func (a *Area) GetTags() []uint {
	var tags []uint
	if a.Tags != "" {
		_ = json.Unmarshal([]byte(a.Tags), &tags)
	}
	return tags
}

// GetStatusGroups decodes the allowed status groups, sorted by group ordering
// with each group's statuses sorted by status ordering.
func (a *Area) GetStatusGroups() []AreaStatusGroup {
	var groups []AreaStatusGroup
	if a.StatusEnums != "" {
		_ = json.Unmarshal([]byte(a.StatusEnums), &groups)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Ordering < groups[j].Ordering
	})
	for g := range groups {
		statuses := groups[g].Statuses
		sort.SliceStable(statuses, func(i, j int) bool {
			return statuses[i].Ordering < statuses[j].Ordering
		})
	}
	return groups
}

// DefaultStatusEnum returns the first status of the first status group.
// Falls back to "todo" when the area has no groups configured.
func (a *Area) DefaultStatusEnum() string {
	groups := a.GetStatusGroups()
	for _, g := range groups {
		if len(g.Statuses) > 0 {
			return g.Statuses[0].Enum
		}
	}
	return "todo"
}

// IsListingEligible reports whether tasks may be created for the listing.
// An empty eligible set means every listing is eligible.
func (a *Area) IsListingEligible(listingID uint) bool {
	ids := a.GetSettings().ListingIDs
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if id == listingID {
			return true
		}
	}
	return false
}
