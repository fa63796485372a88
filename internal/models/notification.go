package models

import "gorm.io/datatypes"

// Notification rows are written by the platform for later display.
// Delivery channels (email, push) are out of scope here.
type Notification struct {
	BaseModel
	UserID  string `gorm:"not null;index"`
	Type    string `gorm:"not null"`
	Title   string `gorm:"not null"`
	Message string
	IsRead  bool `gorm:"default:false"`
	Data    datatypes.JSON
}
