package handlers

import (
	"net/http"

	"coachhub_backend/internal/dto"
	"coachhub_backend/internal/middleware"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type EnrollmentHandler struct {
	*BaseHandler
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(base *BaseHandler, enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{BaseHandler: base, enrollmentService: enrollmentService}
}

func (h *EnrollmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	enrollments := rg.Group("/enrollments")
	enrollments.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleClient))
	{
		enrollments.POST("", h.Enroll)
		enrollments.GET("", h.ListMine)
		enrollments.PUT("/:id", h.UpdateStatus)
	}

	coach := rg.Group("/coach/course-enrollments")
	coach.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleCoach))
	{
		coach.GET("/:courseId", h.ListForCourse)
	}
}

func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	clientID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.EnrollRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.enrollmentService.Enroll(clientID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	clientID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	page, pageSize := ParsePagination(c)

	enrollments, total, err := h.enrollmentService.ListMyEnrollments(clientID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enrollments": enrollments,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
	})
}

func (h *EnrollmentHandler) ListForCourse(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	page, pageSize := ParsePagination(c)

	enrollments, total, err := h.enrollmentService.ListCourseEnrollments(coachID, c.Param("courseId"), page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enrollments": enrollments,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
	})
}

func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	clientID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateEnrollmentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.enrollmentService.UpdateStatus(clientID, c.Param("id"), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
