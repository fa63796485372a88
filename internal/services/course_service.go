package services

import (
	"coachhub_backend/internal/apperrors"
	"coachhub_backend/internal/dto"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/repositories"
)

type CourseService interface {
	// Course operations
	CreateCourse(coachID string, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	GetCourse(courseID string) (*dto.CourseResponse, error)
	ListMyCourses(coachID string, page, pageSize int) (*dto.CourseListResponse, error)
	ListPublishedCourses(page, pageSize int) (*dto.CourseListResponse, error)
	UpdateCourse(coachID, courseID string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	DeleteCourse(coachID, courseID string) error

	// Content tree operations
	AddModule(coachID, courseID string, req *dto.CreateModuleRequest) (*dto.ModuleResponse, error)
	UpdateModule(coachID, moduleID string, req *dto.UpdateTitledItemRequest) error
	DeleteModule(coachID, moduleID string) error
	ReorderModule(coachID, moduleID string, targetOrder int) error

	AddLesson(coachID, moduleID string, req *dto.CreateLessonRequest) (*dto.LessonResponse, error)
	UpdateLesson(coachID, lessonID string, req *dto.UpdateTitledItemRequest) error
	DeleteLesson(coachID, lessonID string) error
	ReorderLesson(coachID, lessonID string, targetOrder int) error

	AddSection(coachID, lessonID string, req *dto.CreateSectionRequest) (*dto.SectionResponse, error)
	UpdateSection(coachID, sectionID string, req *dto.UpdateTitledItemRequest) error
	DeleteSection(coachID, sectionID string) error
	ReorderSection(coachID, sectionID string, targetOrder int) error
}

type courseService struct {
	courseRepo      repositories.CourseRepository
	subscriptionSvc SubscriptionService
}

func NewCourseService(courseRepo repositories.CourseRepository, subscriptionSvc SubscriptionService) CourseService {
	return &courseService{
		courseRepo:      courseRepo,
		subscriptionSvc: subscriptionSvc,
	}
}

// Course operations

func (s *courseService) CreateCourse(coachID string, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	course := &models.Course{
		CoachID:     coachID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.courseRepo.CreateCourse(course); err != nil {
		return nil, apperrors.PersistenceError(err)
	}
	return toCourseResponse(course, false), nil
}

func (s *courseService) GetCourse(courseID string) (*dto.CourseResponse, error) {
	course, err := s.courseRepo.FindCourseWithTree(courseID)
	if err != nil {
		if err == repositories.ErrCourseNotFound {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, apperrors.PersistenceError(err)
	}
	return toCourseResponse(course, true), nil
}

func (s *courseService) ListMyCourses(coachID string, page, pageSize int) (*dto.CourseListResponse, error) {
	courses, total, err := s.courseRepo.ListCoursesByCoach(coachID, page, pageSize)
	if err != nil {
		return nil, apperrors.PersistenceError(err)
	}
	return toCourseListResponse(courses, total, page, pageSize), nil
}

func (s *courseService) ListPublishedCourses(page, pageSize int) (*dto.CourseListResponse, error) {
	courses, total, err := s.courseRepo.ListPublishedCourses(page, pageSize)
	if err != nil {
		return nil, apperrors.PersistenceError(err)
	}
	return toCourseListResponse(courses, total, page, pageSize), nil
}

func (s *courseService) UpdateCourse(coachID, courseID string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.getOwnedCourse(coachID, courseID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.IsPublished != nil && *req.IsPublished && !course.IsPublished {
		// Publishing is the paid action. A coach whose subscription has
		// lapsed keeps existing published courses but cannot publish more.
		active, err := s.subscriptionSvc.HasActiveSubscription(coachID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, apperrors.NewForbiddenError("An active subscription is required to publish courses")
		}
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}

	if err := s.courseRepo.UpdateCourse(course); err != nil {
		return nil, apperrors.PersistenceError(err)
	}
	return toCourseResponse(course, false), nil
}

func (s *courseService) DeleteCourse(coachID, courseID string) error {
	if _, err := s.getOwnedCourse(coachID, courseID); err != nil {
		return err
	}
	if err := s.courseRepo.DeleteCourse(courseID); err != nil {
		return apperrors.PersistenceError(err)
	}
	return nil
}

// Module operations

func (s *courseService) AddModule(coachID, courseID string, req *dto.CreateModuleRequest) (*dto.ModuleResponse, error) {
	if _, err := s.getOwnedCourse(coachID, courseID); err != nil {
		return nil, err
	}

	module := &models.CourseModule{CourseID: courseID, Title: req.Title}
	if err := s.courseRepo.CreateModule(module); err != nil {
		return nil, apperrors.PersistenceError(err)
	}
	return &dto.ModuleResponse{
		ID:        module.ID,
		Title:     module.Title,
		SortOrder: module.SortOrder,
		Lessons:   []dto.LessonResponse{},
	}, nil
}

func (s *courseService) UpdateModule(coachID, moduleID string, req *dto.UpdateTitledItemRequest) error {
	module, err := s.getOwnedModule(coachID, moduleID)
	if err != nil {
		return err
	}
	if req.Title != nil {
		module.Title = *req.Title
	}
	if err := s.courseRepo.UpdateModule(module); err != nil {
		return apperrors.PersistenceError(err)
	}
	return nil
}

func (s *courseService) DeleteModule(coachID, moduleID string) error {
	if _, err := s.getOwnedModule(coachID, moduleID); err != nil {
		return err
	}
	if err := s.courseRepo.DeleteModule(moduleID); err != nil {
		return apperrors.PersistenceError(err)
	}
	return nil
}

func (s *courseService) ReorderModule(coachID, moduleID string, targetOrder int) error {
	if _, err := s.getOwnedModule(coachID, moduleID); err != nil {
		return err
	}
	return s.mapReorderError(s.courseRepo.ReorderModule(moduleID, targetOrder))
}

// Lesson operations

func (s *courseService) AddLesson(coachID, moduleID string, req *dto.CreateLessonRequest) (*dto.LessonResponse, error) {
	if _, err := s.getOwnedModule(coachID, moduleID); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{ModuleID: moduleID, Title: req.Title, Content: req.Content}
	if err := s.courseRepo.CreateLesson(lesson); err != nil {
		return nil, apperrors.PersistenceError(err)
	}
	return &dto.LessonResponse{
		ID:        lesson.ID,
		Title:     lesson.Title,
		Content:   lesson.Content,
		SortOrder: lesson.SortOrder,
		Sections:  []dto.SectionResponse{},
	}, nil
}

func (s *courseService) UpdateLesson(coachID, lessonID string, req *dto.UpdateTitledItemRequest) error {
	lesson, err := s.getOwnedLesson(coachID, lessonID)
	if err != nil {
		return err
	}
	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if err := s.courseRepo.UpdateLesson(lesson); err != nil {
		return apperrors.PersistenceError(err)
	}
	return nil
}

func (s *courseService) DeleteLesson(coachID, lessonID string) error {
	if _, err := s.getOwnedLesson(coachID, lessonID); err != nil {
		return err
	}
	if err := s.courseRepo.DeleteLesson(lessonID); err != nil {
		return apperrors.PersistenceError(err)
	}
	return nil
}

func (s *courseService) ReorderLesson(coachID, lessonID string, targetOrder int) error {
	if _, err := s.getOwnedLesson(coachID, lessonID); err != nil {
		return err
	}
	return s.mapReorderError(s.courseRepo.ReorderLesson(lessonID, targetOrder))
}

// Section operations

func (s *courseService) AddSection(coachID, lessonID string, req *dto.CreateSectionRequest) (*dto.SectionResponse, error) {
	if _, err := s.getOwnedLesson(coachID, lessonID); err != nil {
		return nil, err
	}

	section := &models.Section{LessonID: lessonID, Title: req.Title, Body: req.Body}
	if err := s.courseRepo.CreateSection(section); err != nil {
		return nil, apperrors.PersistenceError(err)
	}
	return &dto.SectionResponse{
		ID:        section.ID,
		Title:     section.Title,
		Body:      section.Body,
		SortOrder: section.SortOrder,
	}, nil
}

func (s *courseService) UpdateSection(coachID, sectionID string, req *dto.UpdateTitledItemRequest) error {
	section, err := s.getOwnedSection(coachID, sectionID)
	if err != nil {
		return err
	}
	if req.Title != nil {
		section.Title = *req.Title
	}
	if req.Body != nil {
		section.Body = *req.Body
	}
	if err := s.courseRepo.UpdateSection(section); err != nil {
		return apperrors.PersistenceError(err)
	}
	return nil
}

func (s *courseService) DeleteSection(coachID, sectionID string) error {
	if _, err := s.getOwnedSection(coachID, sectionID); err != nil {
		return err
	}
	if err := s.courseRepo.DeleteSection(sectionID); err != nil {
		return apperrors.PersistenceError(err)
	}
	return nil
}

func (s *courseService) ReorderSection(coachID, sectionID string, targetOrder int) error {
	if _, err := s.getOwnedSection(coachID, sectionID); err != nil {
		return err
	}
	return s.mapReorderError(s.courseRepo.ReorderSection(sectionID, targetOrder))
}

// Ownership helpers walk up the content tree to the owning coach.

func (s *courseService) getOwnedCourse(coachID, courseID string) (*models.Course, error) {
	course, err := s.courseRepo.FindCourseByID(courseID)
	if err != nil {
		if err == repositories.ErrCourseNotFound {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, apperrors.PersistenceError(err)
	}
	if course.CoachID != coachID {
		return nil, apperrors.ErrNotCourseOwner
	}
	return course, nil
}

func (s *courseService) getOwnedModule(coachID, moduleID string) (*models.CourseModule, error) {
	module, err := s.courseRepo.FindModuleByID(moduleID)
	if err != nil {
		if err == repositories.ErrModuleNotFound {
			return nil, apperrors.ErrCourseNotFound.WithDetails("module not found")
		}
		return nil, apperrors.PersistenceError(err)
	}
	if _, err := s.getOwnedCourse(coachID, module.CourseID); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *courseService) getOwnedLesson(coachID, lessonID string) (*models.Lesson, error) {
	lesson, err := s.courseRepo.FindLessonByID(lessonID)
	if err != nil {
		if err == repositories.ErrLessonNotFound {
			return nil, apperrors.ErrCourseNotFound.WithDetails("lesson not found")
		}
		return nil, apperrors.PersistenceError(err)
	}
	if _, err := s.getOwnedModule(coachID, lesson.ModuleID); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *courseService) getOwnedSection(coachID, sectionID string) (*models.Section, error) {
	section, err := s.courseRepo.FindSectionByID(sectionID)
	if err != nil {
		if err == repositories.ErrSectionNotFound {
			return nil, apperrors.ErrCourseNotFound.WithDetails("section not found")
		}
		return nil, apperrors.PersistenceError(err)
	}
	if _, err := s.getOwnedLesson(coachID, section.LessonID); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *courseService) mapReorderError(err error) error {
	if err == nil {
		return nil
	}
	if err == repositories.ErrOrderOutOfRange {
		return apperrors.NewBadRequestError("No sibling holds the requested sort order")
	}
	return apperrors.PersistenceError(err)
}

// Response mapping

func toCourseResponse(course *models.Course, withTree bool) *dto.CourseResponse {
	resp := &dto.CourseResponse{
		ID:          course.ID,
		CoachID:     course.CoachID,
		Title:       course.Title,
		Description: course.Description,
		IsPublished: course.IsPublished,
		CreatedAt:   course.CreatedAt,
	}
	if !withTree {
		return resp
	}

	for _, m := range course.Modules {
		moduleResp := dto.ModuleResponse{
			ID:        m.ID,
			Title:     m.Title,
			SortOrder: m.SortOrder,
			Lessons:   []dto.LessonResponse{},
		}
		for _, l := range m.Lessons {
			lessonResp := dto.LessonResponse{
				ID:        l.ID,
				Title:     l.Title,
				Content:   l.Content,
				SortOrder: l.SortOrder,
				Sections:  []dto.SectionResponse{},
			}
			for _, sec := range l.Sections {
				lessonResp.Sections = append(lessonResp.Sections, dto.SectionResponse{
					ID:        sec.ID,
					Title:     sec.Title,
					Body:      sec.Body,
					SortOrder: sec.SortOrder,
				})
			}
			moduleResp.Lessons = append(moduleResp.Lessons, lessonResp)
		}
		resp.Modules = append(resp.Modules, moduleResp)
	}
	return resp
}

func toCourseListResponse(courses []models.Course, total int64, page, pageSize int) *dto.CourseListResponse {
	resp := &dto.CourseListResponse{
		Courses:  make([]dto.CourseResponse, 0, len(courses)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range courses {
		resp.Courses = append(resp.Courses, *toCourseResponse(&courses[i], false))
	}
	return resp
}
