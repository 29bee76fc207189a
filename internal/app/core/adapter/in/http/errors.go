package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/pkg/auth"
	"github.com/JoeShih716/go-sim-trader/pkg/price"
	"github.com/JoeShih716/go-sim-trader/pkg/response"
)

// statusOf 將 domain 錯誤對應到 HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrInvalidPassword),
		errors.Is(err, domain.ErrInvalidMessage),
		errors.Is(err, domain.ErrInvalidWallet),
		errors.Is(err, domain.ErrInvalidNFT),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientAsset),
		errors.Is(err, domain.ErrNotWithdrawal):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBadCredential),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, price.ErrNoPrice),
		errors.Is(err, domain.ErrPriceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail 寫入錯誤回應，5xx 不回傳內部訊息
func (h *Handler) fail(c *gin.Context, message string, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		h.log.Error(message,
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		response.WriteError(c, code, message, http.StatusText(code))
		return
	}
	response.WriteError(c, code, message, err.Error())
}
