package handlers

import (
	"net/http"

	"coachhub_backend/internal/dto"
	"coachhub_backend/internal/logger"
	"coachhub_backend/internal/middleware"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{BaseHandler: base, subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/pricing", h.GetPricing)

	sub := rg.Group("/subscription")
	sub.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleCoach))
	{
		sub.GET("", h.GetMySubscription)
		sub.GET("/billing", h.GetBillingHistory)
	}

	admin := rg.Group("/admin/subscriptions")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleAdmin))
	{
		admin.GET("/stats", h.GetStats)
	}
}

// RegisterFunctionRoutes mounts the endpoints the web client calls
// directly: checkout creation and the gateway callback.
func (h *SubscriptionHandler) RegisterFunctionRoutes(rg *gin.RouterGroup) {
	rg.POST("/create-subscription", middleware.AuthMiddleware(), h.CreateSubscription)
	rg.POST("/payment-webhook", h.PaymentWebhook)
}

// CreateSubscription starts a hosted checkout for the authenticated coach.
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.subscriptionService.CreateSubscription(c.Request.Context(), coachID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PaymentWebhook receives server-to-server callbacks from the gateway.
// No auth: the payload is only a hint and everything is re-verified
// against the gateway before any state changes.
func (h *SubscriptionHandler) PaymentWebhook(c *gin.Context) {
	var payload dto.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		logger.CtxWithError(c.Request.Context(), "unreadable webhook payload", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid webhook payload"})
		return
	}

	if err := h.subscriptionService.HandleGatewayCallback(c.Request.Context(), &payload); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Webhook processed"})
}

func (h *SubscriptionHandler) GetPricing(c *gin.Context) {
	c.JSON(http.StatusOK, h.subscriptionService.GetPricing())
}

func (h *SubscriptionHandler) GetMySubscription(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.subscriptionService.GetMySubscription(coachID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) GetBillingHistory(c *gin.Context) {
	coachID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	page, pageSize := ParsePagination(c)

	records, total, err := h.subscriptionService.GetBillingHistory(coachID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"billing_history": records,
		"total":           total,
		"page":            page,
		"page_size":       pageSize,
	})
}

func (h *SubscriptionHandler) GetStats(c *gin.Context) {
	resp, err := h.subscriptionService.GetStats()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
