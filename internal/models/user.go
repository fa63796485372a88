package models

type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FullName     string     `gorm:"not null"`
	Role         UserRole   `gorm:"not null;default:'client'"`
	Status       UserStatus `gorm:"not null;default:'pending'"`
	IsVerified   bool       `gorm:"default:false"`
}
