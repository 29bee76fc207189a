// Package response HTTP JSON 回應的統一格式
package response

import "github.com/gin-gonic/gin"

type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Details []string `json:"details,omitempty"`
}

func SuccessResponse(message string, data any) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(message string, err string, details ...string) Response {
	return Response{
		Success: false,
		Message: message,
		Error:   err,
		Details: details,
	}
}

// WriteSuccess 寫入成功回應
func WriteSuccess(c *gin.Context, code int, message string, data any) {
	c.JSON(code, SuccessResponse(message, data))
}

// WriteError 寫入錯誤回應並中止後續 handler
func WriteError(c *gin.Context, code int, message string, err string, details ...string) {
	c.AbortWithStatusJSON(code, ErrorResponse(message, err, details...))
}
