package models

type Enrollment struct {
	BaseModel
	CourseID string           `gorm:"not null;index;uniqueIndex:idx_enrollment_course_client"`
	ClientID string           `gorm:"not null;index;uniqueIndex:idx_enrollment_course_client"`
	Status   EnrollmentStatus `gorm:"not null;default:'active'"`

	// Relations
	Course Course `gorm:"foreignKey:CourseID"`
}
