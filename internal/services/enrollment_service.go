package services

import (
	"coachhub_backend/internal/apperrors"
	"coachhub_backend/internal/dto"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/repositories"
)

type EnrollmentService interface {
	Enroll(clientID string, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error)
	ListMyEnrollments(clientID string, page, pageSize int) ([]dto.EnrollmentResponse, int64, error)
	ListCourseEnrollments(coachID, courseID string, page, pageSize int) ([]dto.EnrollmentResponse, int64, error)
	UpdateStatus(clientID, enrollmentID string, req *dto.UpdateEnrollmentRequest) error
}

type enrollmentService struct {
	enrollmentRepo repositories.EnrollmentRepository
	courseRepo     repositories.CourseRepository
}

func NewEnrollmentService(
	enrollmentRepo repositories.EnrollmentRepository,
	courseRepo repositories.CourseRepository,
) EnrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
	}
}

func (s *enrollmentService) Enroll(clientID string, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error) {
	course, err := s.courseRepo.FindCourseByID(req.CourseID)
	if err != nil {
		if err == repositories.ErrCourseNotFound {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, apperrors.PersistenceError(err)
	}
	if !course.IsPublished {
		return nil, apperrors.ErrCourseNotPublished
	}

	if _, err := s.enrollmentRepo.FindByCourseAndClient(req.CourseID, clientID); err == nil {
		return nil, apperrors.ErrAlreadyEnrolled
	} else if err != repositories.ErrEnrollmentNotFound {
		return nil, apperrors.PersistenceError(err)
	}

	enrollment := &models.Enrollment{
		CourseID: req.CourseID,
		ClientID: clientID,
		Status:   models.EnrollmentStatusActive,
	}
	if err := s.enrollmentRepo.Create(enrollment); err != nil {
		if err == repositories.ErrAlreadyEnrolled {
			return nil, apperrors.ErrAlreadyEnrolled
		}
		return nil, apperrors.PersistenceError(err)
	}

	enrollment.Course = *course
	resp := toEnrollmentResponse(enrollment)
	return &resp, nil
}

func (s *enrollmentService) ListMyEnrollments(clientID string, page, pageSize int) ([]dto.EnrollmentResponse, int64, error) {
	enrollments, total, err := s.enrollmentRepo.ListByClient(clientID, page, pageSize)
	if err != nil {
		return nil, 0, apperrors.PersistenceError(err)
	}

	result := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		result = append(result, toEnrollmentResponse(&enrollments[i]))
	}
	return result, total, nil
}

func (s *enrollmentService) ListCourseEnrollments(coachID, courseID string, page, pageSize int) ([]dto.EnrollmentResponse, int64, error) {
	course, err := s.courseRepo.FindCourseByID(courseID)
	if err != nil {
		if err == repositories.ErrCourseNotFound {
			return nil, 0, apperrors.ErrCourseNotFound
		}
		return nil, 0, apperrors.PersistenceError(err)
	}
	if course.CoachID != coachID {
		return nil, 0, apperrors.ErrNotCourseOwner
	}

	enrollments, total, err := s.enrollmentRepo.ListByCourse(courseID, page, pageSize)
	if err != nil {
		return nil, 0, apperrors.PersistenceError(err)
	}

	result := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		result = append(result, toEnrollmentResponse(&enrollments[i]))
	}
	return result, total, nil
}

func (s *enrollmentService) UpdateStatus(clientID, enrollmentID string, req *dto.UpdateEnrollmentRequest) error {
	enrollment, err := s.enrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if err == repositories.ErrEnrollmentNotFound {
			return apperrors.ErrEnrollmentNotFound
		}
		return apperrors.PersistenceError(err)
	}
	if enrollment.ClientID != clientID {
		return apperrors.NewForbiddenError("Enrollment belongs to another client")
	}

	if err := s.enrollmentRepo.UpdateStatus(enrollmentID, models.EnrollmentStatus(req.Status)); err != nil {
		return apperrors.PersistenceError(err)
	}
	return nil
}

func toEnrollmentResponse(e *models.Enrollment) dto.EnrollmentResponse {
	return dto.EnrollmentResponse{
		ID:         e.ID,
		CourseID:   e.CourseID,
		ClientID:   e.ClientID,
		Status:     string(e.Status),
		EnrolledAt: e.CreatedAt,
		Course:     *toCourseResponse(&e.Course, false),
	}
}
