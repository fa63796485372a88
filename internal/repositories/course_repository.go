package repositories

import (
	"errors"
	"time"

	"coachhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrModuleNotFound  = errors.New("course module not found")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrSectionNotFound = errors.New("section not found")
	ErrOrderOutOfRange = errors.New("no sibling holds the requested sort order")
)

type CourseRepository interface {
	// Course operations
	CreateCourse(course *models.Course) error
	FindCourseByID(id string) (*models.Course, error)
	FindCourseWithTree(id string) (*models.Course, error)
	ListCoursesByCoach(coachID string, page, pageSize int) ([]models.Course, int64, error)
	ListPublishedCourses(page, pageSize int) ([]models.Course, int64, error)
	UpdateCourse(course *models.Course) error
	DeleteCourse(id string) error

	// Module operations
	CreateModule(module *models.CourseModule) error
	FindModuleByID(id string) (*models.CourseModule, error)
	UpdateModule(module *models.CourseModule) error
	DeleteModule(id string) error
	ReorderModule(id string, targetOrder int) error

	// Lesson operations
	CreateLesson(lesson *models.Lesson) error
	FindLessonByID(id string) (*models.Lesson, error)
	UpdateLesson(lesson *models.Lesson) error
	DeleteLesson(id string) error
	ReorderLesson(id string, targetOrder int) error

	// Section operations
	CreateSection(section *models.Section) error
	FindSectionByID(id string) (*models.Section, error)
	UpdateSection(section *models.Section) error
	DeleteSection(id string) error
	ReorderSection(id string, targetOrder int) error
}

type CourseRepositoryImpl struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &CourseRepositoryImpl{db: db}
}

// Course operations

func (r *CourseRepositoryImpl) CreateCourse(course *models.Course) error {
	return r.db.Create(course).Error
}

func (r *CourseRepositoryImpl) FindCourseByID(id string) (*models.Course, error) {
	var course models.Course
	err := r.db.First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// FindCourseWithTree loads the course with its full content tree, each
// level ordered by sort_order.
func (r *CourseRepositoryImpl) FindCourseWithTree(id string) (*models.Course, error) {
	var course models.Course
	err := r.db.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Modules.Lessons.Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepositoryImpl) ListCoursesByCoach(coachID string, page, pageSize int) ([]models.Course, int64, error) {
	var courses []models.Course
	var total int64

	query := r.db.Model(&models.Course{}).Where("coach_id = ?", coachID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepositoryImpl) ListPublishedCourses(page, pageSize int) ([]models.Course, int64, error) {
	var courses []models.Course
	var total int64

	query := r.db.Model(&models.Course{}).Where("is_published = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepositoryImpl) UpdateCourse(course *models.Course) error {
	result := r.db.Model(course).Updates(map[string]interface{}{
		"title":        course.Title,
		"description":  course.Description,
		"is_published": course.IsPublished,
		"updated_at":   time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}

// DeleteCourse removes the course and its whole content tree.
func (r *CourseRepositoryImpl) DeleteCourse(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var moduleIDs []string
		if err := tx.Model(&models.CourseModule{}).Where("course_id = ?", id).
			Pluck("id", &moduleIDs).Error; err != nil {
			return err
		}

		if len(moduleIDs) > 0 {
			var lessonIDs []string
			if err := tx.Model(&models.Lesson{}).Where("module_id IN ?", moduleIDs).
				Pluck("id", &lessonIDs).Error; err != nil {
				return err
			}
			if len(lessonIDs) > 0 {
				if err := tx.Where("lesson_id IN ?", lessonIDs).Delete(&models.Section{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", lessonIDs).Delete(&models.Lesson{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", moduleIDs).Delete(&models.CourseModule{}).Error; err != nil {
				return err
			}
		}

		result := tx.Where("id = ?", id).Delete(&models.Course{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCourseNotFound
		}
		return nil
	})
}

// Module operations

func (r *CourseRepositoryImpl) CreateModule(module *models.CourseModule) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxOrder int
		if err := tx.Model(&models.CourseModule{}).
			Where("course_id = ?", module.CourseID).
			Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder).Error; err != nil {
			return err
		}
		module.SortOrder = maxOrder + 1
		return tx.Create(module).Error
	})
}

func (r *CourseRepositoryImpl) FindModuleByID(id string) (*models.CourseModule, error) {
	var module models.CourseModule
	err := r.db.First(&module, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	return &module, nil
}

func (r *CourseRepositoryImpl) UpdateModule(module *models.CourseModule) error {
	result := r.db.Model(module).Updates(map[string]interface{}{
		"title":      module.Title,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrModuleNotFound
	}
	return nil
}

func (r *CourseRepositoryImpl) DeleteModule(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var lessonIDs []string
		if err := tx.Model(&models.Lesson{}).Where("module_id = ?", id).
			Pluck("id", &lessonIDs).Error; err != nil {
			return err
		}
		if len(lessonIDs) > 0 {
			if err := tx.Where("lesson_id IN ?", lessonIDs).Delete(&models.Section{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", lessonIDs).Delete(&models.Lesson{}).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&models.CourseModule{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrModuleNotFound
		}
		return nil
	})
}

func (r *CourseRepositoryImpl) ReorderModule(id string, targetOrder int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var module models.CourseModule
		if err := tx.First(&module, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrModuleNotFound
			}
			return err
		}
		return swapWithSibling(tx, &models.CourseModule{}, "course_id", module.CourseID, module.ID, module.SortOrder, targetOrder)
	})
}

// Lesson operations

func (r *CourseRepositoryImpl) CreateLesson(lesson *models.Lesson) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxOrder int
		if err := tx.Model(&models.Lesson{}).
			Where("module_id = ?", lesson.ModuleID).
			Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder).Error; err != nil {
			return err
		}
		lesson.SortOrder = maxOrder + 1
		return tx.Create(lesson).Error
	})
}

func (r *CourseRepositoryImpl) FindLessonByID(id string) (*models.Lesson, error) {
	var lesson models.Lesson
	err := r.db.First(&lesson, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

func (r *CourseRepositoryImpl) UpdateLesson(lesson *models.Lesson) error {
	result := r.db.Model(lesson).Updates(map[string]interface{}{
		"title":      lesson.Title,
		"content":    lesson.Content,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLessonNotFound
	}
	return nil
}

func (r *CourseRepositoryImpl) DeleteLesson(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&models.Section{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Lesson{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLessonNotFound
		}
		return nil
	})
}

func (r *CourseRepositoryImpl) ReorderLesson(id string, targetOrder int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.First(&lesson, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLessonNotFound
			}
			return err
		}
		return swapWithSibling(tx, &models.Lesson{}, "module_id", lesson.ModuleID, lesson.ID, lesson.SortOrder, targetOrder)
	})
}

// Section operations

func (r *CourseRepositoryImpl) CreateSection(section *models.Section) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxOrder int
		if err := tx.Model(&models.Section{}).
			Where("lesson_id = ?", section.LessonID).
			Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder).Error; err != nil {
			return err
		}
		section.SortOrder = maxOrder + 1
		return tx.Create(section).Error
	})
}

func (r *CourseRepositoryImpl) FindSectionByID(id string) (*models.Section, error) {
	var section models.Section
	err := r.db.First(&section, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	return &section, nil
}

func (r *CourseRepositoryImpl) UpdateSection(section *models.Section) error {
	result := r.db.Model(section).Updates(map[string]interface{}{
		"title":      section.Title,
		"body":       section.Body,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSectionNotFound
	}
	return nil
}

func (r *CourseRepositoryImpl) DeleteSection(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Section{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSectionNotFound
	}
	return nil
}

func (r *CourseRepositoryImpl) ReorderSection(id string, targetOrder int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var section models.Section
		if err := tx.First(&section, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSectionNotFound
			}
			return err
		}
		return swapWithSibling(tx, &models.Section{}, "lesson_id", section.LessonID, section.ID, section.SortOrder, targetOrder)
	})
}

// swapWithSibling exchanges sort orders with the sibling currently
// holding targetOrder. Reordering is always a pairwise swap, so sibling
// orders stay a dense permutation.
func swapWithSibling(tx *gorm.DB, model interface{}, parentCol, parentID, itemID string, order, targetOrder int) error {
	if targetOrder == order {
		return nil
	}

	var sibling struct {
		ID        string
		SortOrder int
	}
	err := tx.Model(model).
		Where(parentCol+" = ? AND sort_order = ? AND id <> ?", parentID, targetOrder, itemID).
		Select("id", "sort_order").Limit(1).Scan(&sibling).Error
	if err != nil {
		return err
	}
	if sibling.ID == "" {
		return ErrOrderOutOfRange
	}

	if err := tx.Model(model).Where("id = ?", itemID).
		Update("sort_order", targetOrder).Error; err != nil {
		return err
	}
	return tx.Model(model).Where("id = ?", sibling.ID).
		Update("sort_order", order).Error
}
