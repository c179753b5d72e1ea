package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is an immutable catalog entry. The engine only reads items; catalog
// management owns creation and edits.
type Item struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Category    string          `gorm:"column:category;not null" json:"category"`
	Subcategory *string         `gorm:"column:subcategory" json:"subcategory,omitempty"`
	Rarity      *string         `gorm:"column:rarity" json:"rarity,omitempty"`
	Metadata    json.RawMessage `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
