package apperrors

import (
	"net/http"

	"coachhub_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the wire shape for every failed request:
// {"success":false,"error":"...","code":"...","details":{...}}
// Clients surface "error" verbatim.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    ErrorCode   `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// HandleError writes an AppError as a JSON response.
func HandleError(c *gin.Context, err *AppError) {
	if err.HTTPCode >= http.StatusInternalServerError {
		logger.CtxWithError(c.Request.Context(), "server error", err, "path", c.Request.URL.Path)
	}

	c.JSON(err.HTTPCode, ErrorResponse{
		Success: false,
		Error:   err.Message,
		Code:    err.Code,
		Details: err.Details,
	})
}

// HandleAnyError converts unknown errors into an internal AppError first.
func HandleAnyError(c *gin.Context, err error) {
	var appErr *AppError
	if As(err, &appErr) {
		HandleError(c, appErr)
		return
	}
	HandleError(c, InternalError(err))
}
