package models

// Course content is a strict three-level tree below a course:
// course -> modules -> lessons -> sections, each level ordered by
// sort_order among its siblings only.

type Course struct {
	BaseModel
	CoachID     string `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Description string
	IsPublished bool `gorm:"default:false"`

	Modules []CourseModule `gorm:"foreignKey:CourseID"`
}

type CourseModule struct {
	BaseModel
	CourseID  string `gorm:"not null;index"`
	Title     string `gorm:"not null"`
	SortOrder int    `gorm:"not null"`

	Lessons []Lesson `gorm:"foreignKey:ModuleID"`
}

type Lesson struct {
	BaseModel
	ModuleID  string `gorm:"not null;index"`
	Title     string `gorm:"not null"`
	Content   string
	SortOrder int `gorm:"not null"`

	Sections []Section `gorm:"foreignKey:LessonID"`
}

type Section struct {
	BaseModel
	LessonID  string `gorm:"not null;index"`
	Title     string `gorm:"not null"`
	Body      string
	SortOrder int `gorm:"not null"`
}
