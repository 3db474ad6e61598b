package models

import (
	"time"

	"gorm.io/datatypes"
)

// PlaceDetail caches the listing fields fetched for a Google place.
type PlaceDetail struct {
	PlaceID string `gorm:"type:varchar(255);primaryKey"` // Google place identifier.

	Name    string `gorm:"type:varchar(255);not null;default:''"` // Business name.
	Phone   string `gorm:"type:varchar(64);not null;default:''"`  // Formatted phone number.
	Address string `gorm:"type:text;not null;default:''"`         // Formatted address.
	Website string `gorm:"type:text;not null;default:''"`         // Website URL.

	Raw       datatypes.JSON // Upstream detail result.
	FetchedAt time.Time      `gorm:"not null;index"`          // Upstream fetch time.
	CreatedAt time.Time      `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime"` // Update timestamp.
}

// TableName overrides the default table name.
func (PlaceDetail) TableName() string {
	return "place_details"
}
