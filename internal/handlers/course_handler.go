package handlers

import (
	"net/http"

	"coachhub_backend/internal/dto"
	"coachhub_backend/internal/middleware"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	*BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(base *BaseHandler, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{BaseHandler: base, courseService: courseService}
}

func (h *CourseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	// Public catalog
	courses := rg.Group("/courses")
	{
		courses.GET("", h.ListPublished)
		courses.GET("/:id", h.GetCourse)
	}

	// Coach content management. Each tree level gets its own prefix so
	// static and param segments never share a position.
	coach := rg.Group("/coach")
	coach.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleCoach))
	{
		coach.GET("/courses", h.ListMine)
		coach.POST("/courses", h.CreateCourse)
		coach.PUT("/courses/:id", h.UpdateCourse)
		coach.DELETE("/courses/:id", h.DeleteCourse)
		coach.POST("/courses/:id/modules", h.AddModule)

		coach.PUT("/modules/:id", h.UpdateModule)
		coach.DELETE("/modules/:id", h.DeleteModule)
		coach.POST("/modules/:id/reorder", h.ReorderModule)
		coach.POST("/modules/:id/lessons", h.AddLesson)

		coach.PUT("/lessons/:id", h.UpdateLesson)
		coach.DELETE("/lessons/:id", h.DeleteLesson)
		coach.POST("/lessons/:id/reorder", h.ReorderLesson)
		coach.POST("/lessons/:id/sections", h.AddSection)

		coach.PUT("/sections/:id", h.UpdateSection)
		coach.DELETE("/sections/:id", h.DeleteSection)
		coach.POST("/sections/:id/reorder", h.ReorderSection)
	}
}

// Course operations

func (h *CourseHandler) ListPublished(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	resp, err := h.courseService.ListPublishedCourses(page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	resp, err := h.courseService.GetCourse(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CourseHandler) ListMine(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	page, pageSize := ParsePagination(c)

	resp, err := h.courseService.ListMyCourses(coachID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCourseRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.courseService.CreateCourse(coachID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.courseService.UpdateCourse(coachID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.courseService.DeleteCourse(coachID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Module operations

func (h *CourseHandler) AddModule(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateModuleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.courseService.AddModule(coachID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CourseHandler) UpdateModule(c *gin.Context) {
	h.updateItem(c, func(coachID string, req *dto.UpdateTitledItemRequest) error {
		return h.courseService.UpdateModule(coachID, c.Param("id"), req)
	})
}

func (h *CourseHandler) DeleteModule(c *gin.Context) {
	h.deleteItem(c, func(coachID string) error {
		return h.courseService.DeleteModule(coachID, c.Param("id"))
	})
}

func (h *CourseHandler) ReorderModule(c *gin.Context) {
	h.reorderItem(c, func(coachID string, targetOrder int) error {
		return h.courseService.ReorderModule(coachID, c.Param("id"), targetOrder)
	})
}

// Lesson operations

func (h *CourseHandler) AddLesson(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateLessonRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.courseService.AddLesson(coachID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CourseHandler) UpdateLesson(c *gin.Context) {
	h.updateItem(c, func(coachID string, req *dto.UpdateTitledItemRequest) error {
		return h.courseService.UpdateLesson(coachID, c.Param("id"), req)
	})
}

func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	h.deleteItem(c, func(coachID string) error {
		return h.courseService.DeleteLesson(coachID, c.Param("id"))
	})
}

func (h *CourseHandler) ReorderLesson(c *gin.Context) {
	h.reorderItem(c, func(coachID string, targetOrder int) error {
		return h.courseService.ReorderLesson(coachID, c.Param("id"), targetOrder)
	})
}

// Section operations

func (h *CourseHandler) AddSection(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSectionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.courseService.AddSection(coachID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CourseHandler) UpdateSection(c *gin.Context) {
	h.updateItem(c, func(coachID string, req *dto.UpdateTitledItemRequest) error {
		return h.courseService.UpdateSection(coachID, c.Param("id"), req)
	})
}

func (h *CourseHandler) DeleteSection(c *gin.Context) {
	h.deleteItem(c, func(coachID string) error {
		return h.courseService.DeleteSection(coachID, c.Param("id"))
	})
}

func (h *CourseHandler) ReorderSection(c *gin.Context) {
	h.reorderItem(c, func(coachID string, targetOrder int) error {
		return h.courseService.ReorderSection(coachID, c.Param("id"), targetOrder)
	})
}

// Shared plumbing for the three tree levels.

func (h *CourseHandler) updateItem(c *gin.Context, update func(coachID string, req *dto.UpdateTitledItemRequest) error) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTitledItemRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := update(coachID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CourseHandler) deleteItem(c *gin.Context, del func(coachID string) error) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := del(coachID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CourseHandler) reorderItem(c *gin.Context, reorder func(coachID string, targetOrder int) error) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ReorderItemRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := reorder(coachID, *req.SortOrder); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
