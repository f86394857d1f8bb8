package models

// FlagColors is the fixed marker palette. Stored flags default to red; the
// review surface renders unknown values as green.
var FlagColors = []string{"red", "green", "blue", "purple", "orange"}

// ValidFlagColor reports whether name is in the palette.
func ValidFlagColor(name string) bool {
	for _, c := range FlagColors {
		if c == name {
			return true
		}
	}
	return false
}

type Flag struct {
	ID          uint   `gorm:"column:id;primaryKey" json:"id"`
	RecordingID uint   `gorm:"column:recording_id;not null;index" json:"recording_id"`
	TimestampMS int64  `gorm:"column:timestamp;not null" json:"timestamp"`
	Color       string `gorm:"column:color;type:varchar(20);not null;default:red" json:"color"`
	Description string `gorm:"column:description;type:text;not null;default:''" json:"description"`
}

func (Flag) TableName() string { return "flags" }
