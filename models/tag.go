package models

import "time"

// Tag ist ein frei vergebenes Schlagwort an einem Asset.
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AssetID uint   `json:"asset_id" gorm:"index;not null"`
	Name    string `json:"name" gorm:"index;not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Tag) TableName() string {
	return "tags"
}
