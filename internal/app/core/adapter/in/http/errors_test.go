package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/pkg/price"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidAmount, http.StatusBadRequest},
		{domain.ErrInsufficientFunds, http.StatusBadRequest},
		{domain.ErrBadCredential, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrAccountNotFound, http.StatusNotFound},
		{domain.ErrUsernameTaken, http.StatusConflict},
		{domain.ErrPriceUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("feed: %w", price.ErrNoPrice), http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{domain.StorageError(errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}
