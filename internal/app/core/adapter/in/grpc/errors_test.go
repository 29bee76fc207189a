package grpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/pkg/price"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{domain.ErrInvalidAmount, codes.InvalidArgument},
		{domain.ErrInsufficientAsset, codes.FailedPrecondition},
		{domain.ErrActivityNotFound, codes.NotFound},
		{domain.ErrForbidden, codes.PermissionDenied},
		{domain.ErrPriceUnavailable, codes.Unavailable},
		{price.ErrNoPrice, codes.Unavailable},
		{domain.StorageError(errors.New("disk full")), codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(toStatus(tt.err)), tt.err.Error())
	}

	// 儲存層細節不外流
	st := status.Convert(toStatus(domain.StorageError(errors.New("disk full"))))
	assert.Equal(t, domain.ErrStorage.Error(), st.Message())
}
