package dto

import "time"

type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	IsPublished *bool   `json:"is_published"`
}

type CreateModuleRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type CreateLessonRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"max=50000"`
}

type CreateSectionRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
	Body  string `json:"body" validate:"max=50000"`
}

type UpdateTitledItemRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content" validate:"omitempty,max=50000"`
	Body    *string `json:"body" validate:"omitempty,max=50000"`
}

// ReorderItemRequest swaps a module, lesson or section with the sibling
// currently holding the requested sort order. Pointer so that order 0
// survives the required check.
type ReorderItemRequest struct {
	SortOrder *int `json:"sort_order" validate:"required,gte=0"`
}

type SectionResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	SortOrder int    `json:"sort_order"`
}

type LessonResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	SortOrder int               `json:"sort_order"`
	Sections  []SectionResponse `json:"sections"`
}

type ModuleResponse struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	SortOrder int              `json:"sort_order"`
	Lessons   []LessonResponse `json:"lessons"`
}

type CourseResponse struct {
	ID          string           `json:"id"`
	CoachID     string           `json:"coach_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	IsPublished bool             `json:"is_published"`
	CreatedAt   time.Time        `json:"created_at"`
	Modules     []ModuleResponse `json:"modules,omitempty"`
}

type CourseListResponse struct {
	Courses  []CourseResponse `json:"courses"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
