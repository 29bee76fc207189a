package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/pkg/auth"
	"github.com/JoeShih716/go-sim-trader/pkg/response"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxPrincipal    = "principal"
)

// RequestID 沿用呼叫端的 X-Request-ID，沒有就產生一個
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// Logger 每個請求一行 zap log
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", requestID(c)),
		}
		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

// Recovery panic 時記錄並回傳 500
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("request_id", requestID(c)),
			zap.Stack("stack"),
		)
		response.WriteError(c, http.StatusInternalServerError, "internal error", "Internal Server Error")
	})
}

// Authenticate 驗證 "Authorization: Bearer <token>" 並把 Principal 放進 context
func Authenticate(tokens *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.WriteError(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		id, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			response.WriteError(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		c.Set(ctxPrincipal, domain.Principal{AccountID: id.AccountID, Role: domain.Role(id.Role)})
		c.Next()
	}
}

func principal(c *gin.Context) domain.Principal {
	p, _ := c.MustGet(ctxPrincipal).(domain.Principal)
	return p
}
