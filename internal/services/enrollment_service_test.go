package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coachhub_backend/internal/apperrors"
	"coachhub_backend/internal/dto"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/repositories"
)

type fakeEnrollmentRepo struct {
	enrollments map[string]*models.Enrollment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: make(map[string]*models.Enrollment)}
}

func (f *fakeEnrollmentRepo) Create(enrollment *models.Enrollment) error {
	for _, e := range f.enrollments {
		if e.CourseID == enrollment.CourseID && e.ClientID == enrollment.ClientID {
			return repositories.ErrAlreadyEnrolled
		}
	}
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	f.enrollments[enrollment.ID] = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) FindByID(id string) (*models.Enrollment, error) {
	enrollment, ok := f.enrollments[id]
	if !ok {
		return nil, repositories.ErrEnrollmentNotFound
	}
	cp := *enrollment
	return &cp, nil
}

func (f *fakeEnrollmentRepo) FindByCourseAndClient(courseID, clientID string) (*models.Enrollment, error) {
	for _, e := range f.enrollments {
		if e.CourseID == courseID && e.ClientID == clientID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repositories.ErrEnrollmentNotFound
}

func (f *fakeEnrollmentRepo) ListByClient(clientID string, page, pageSize int) ([]models.Enrollment, int64, error) {
	var out []models.Enrollment
	for _, e := range f.enrollments {
		if e.ClientID == clientID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeEnrollmentRepo) ListByCourse(courseID string, page, pageSize int) ([]models.Enrollment, int64, error) {
	var out []models.Enrollment
	for _, e := range f.enrollments {
		if e.CourseID == courseID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeEnrollmentRepo) UpdateStatus(id string, status models.EnrollmentStatus) error {
	enrollment, ok := f.enrollments[id]
	if !ok {
		return repositories.ErrEnrollmentNotFound
	}
	enrollment.Status = status
	return nil
}

func (f *fakeEnrollmentRepo) CountByCourse(courseID string) (int64, error) {
	var count int64
	for _, e := range f.enrollments {
		if e.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func newEnrollmentFixture(t *testing.T) (EnrollmentService, *fakeEnrollmentRepo, *fakeCourseRepo) {
	t.Helper()
	enrollmentRepo := newFakeEnrollmentRepo()
	courseRepo := newFakeCourseRepo()
	return NewEnrollmentService(enrollmentRepo, courseRepo), enrollmentRepo, courseRepo
}

func TestEnroll_PublishedCourse(t *testing.T) {
	svc, _, courseRepo := newEnrollmentFixture(t)
	course := seedCourse(t, courseRepo, "coach-1", true)

	resp, err := svc.Enroll("client-1", &dto.EnrollRequest{CourseID: course.ID})

	require.NoError(t, err)
	assert.Equal(t, course.ID, resp.CourseID)
	assert.Equal(t, "client-1", resp.ClientID)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, course.Title, resp.Course.Title)
}

func TestEnroll_UnpublishedCourseRejected(t *testing.T) {
	svc, _, courseRepo := newEnrollmentFixture(t)
	course := seedCourse(t, courseRepo, "coach-1", false)

	_, err := svc.Enroll("client-1", &dto.EnrollRequest{CourseID: course.ID})

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeCourseNotPublished, appErr.Code)
}

func TestEnroll_Twice(t *testing.T) {
	svc, _, courseRepo := newEnrollmentFixture(t)
	course := seedCourse(t, courseRepo, "coach-1", true)

	_, err := svc.Enroll("client-1", &dto.EnrollRequest{CourseID: course.ID})
	require.NoError(t, err)

	_, err = svc.Enroll("client-1", &dto.EnrollRequest{CourseID: course.ID})
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeAlreadyEnrolled, appErr.Code)
}

func TestListCourseEnrollments_OwnerOnly(t *testing.T) {
	svc, _, courseRepo := newEnrollmentFixture(t)
	course := seedCourse(t, courseRepo, "coach-1", true)

	_, err := svc.Enroll("client-1", &dto.EnrollRequest{CourseID: course.ID})
	require.NoError(t, err)

	enrollments, total, err := svc.ListCourseEnrollments("coach-1", course.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, enrollments, 1)

	_, _, err = svc.ListCourseEnrollments("coach-2", course.ID, 1, 20)
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeNotCourseOwner, appErr.Code)
}

func TestUpdateEnrollmentStatus_ClientOwnership(t *testing.T) {
	svc, enrollmentRepo, courseRepo := newEnrollmentFixture(t)
	course := seedCourse(t, courseRepo, "coach-1", true)

	resp, err := svc.Enroll("client-1", &dto.EnrollRequest{CourseID: course.ID})
	require.NoError(t, err)

	err = svc.UpdateStatus("client-2", resp.ID, &dto.UpdateEnrollmentRequest{Status: "dropped"})
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, 403, appErr.HTTPCode)

	require.NoError(t, svc.UpdateStatus("client-1", resp.ID, &dto.UpdateEnrollmentRequest{Status: "completed"}))
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollmentRepo.enrollments[resp.ID].Status)
}
