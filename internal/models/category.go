package models

type Category struct {
	ID    uint   `gorm:"column:id;primaryKey" json:"id"`
	Name  string `gorm:"column:name;type:text;not null;uniqueIndex" json:"name"`
	Color string `gorm:"column:color;type:varchar(20);not null;default:gray" json:"color"`
}

func (Category) TableName() string { return "categories" }
