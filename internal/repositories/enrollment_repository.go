package repositories

import (
	"errors"
	"time"

	"coachhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("client is already enrolled in this course")
)

type EnrollmentRepository interface {
	Create(enrollment *models.Enrollment) error
	FindByID(id string) (*models.Enrollment, error)
	FindByCourseAndClient(courseID, clientID string) (*models.Enrollment, error)
	ListByClient(clientID string, page, pageSize int) ([]models.Enrollment, int64, error)
	ListByCourse(courseID string, page, pageSize int) ([]models.Enrollment, int64, error)
	UpdateStatus(id string, status models.EnrollmentStatus) error
	CountByCourse(courseID string) (int64, error)
}

type EnrollmentRepositoryImpl struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &EnrollmentRepositoryImpl{db: db}
}

func (r *EnrollmentRepositoryImpl) Create(enrollment *models.Enrollment) error {
	err := r.db.Create(enrollment).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyEnrolled
	}
	return err
}

func (r *EnrollmentRepositoryImpl) FindByID(id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.Preload("Course").First(&enrollment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepositoryImpl) FindByCourseAndClient(courseID, clientID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.Where("course_id = ? AND client_id = ?", courseID, clientID).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepositoryImpl) ListByClient(clientID string, page, pageSize int) ([]models.Enrollment, int64, error) {
	var enrollments []models.Enrollment
	var total int64

	query := r.db.Model(&models.Enrollment{}).Where("client_id = ?", clientID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Preload("Course").
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&enrollments).Error
	return enrollments, total, err
}

func (r *EnrollmentRepositoryImpl) ListByCourse(courseID string, page, pageSize int) ([]models.Enrollment, int64, error) {
	var enrollments []models.Enrollment
	var total int64

	query := r.db.Model(&models.Enrollment{}).Where("course_id = ?", courseID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&enrollments).Error
	return enrollments, total, err
}

func (r *EnrollmentRepositoryImpl) UpdateStatus(id string, status models.EnrollmentStatus) error {
	result := r.db.Model(&models.Enrollment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

func (r *EnrollmentRepositoryImpl) CountByCourse(courseID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}
