package models

import "time"

// DefaultCategoryName groups recordings that were never filed anywhere.
const DefaultCategoryName = "Recordings"

type Recording struct {
	ID         uint      `gorm:"column:id;primaryKey" json:"id"`
	Name       string    `gorm:"column:name;type:text;not null" json:"name"`
	Category   string    `gorm:"column:category;type:text;not null;default:Recordings" json:"category"`
	CategoryID *uint     `gorm:"column:category_id;index" json:"category_id,omitempty"`
	DurationMS int64     `gorm:"column:duration;not null;default:0" json:"duration"`
	Notes      string    `gorm:"column:notes;type:text;not null;default:''" json:"notes"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime" json:"created_at"`
}

func (Recording) TableName() string { return "recordings" }

// RecordingWithFlags is the detail API shape.
type RecordingWithFlags struct {
	Recording
	Flags []Flag `json:"flags"`
}
