package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/pkg/auth"
	"github.com/JoeShih716/go-sim-trader/pkg/price"
)

// toStatus 將 domain 錯誤轉成 gRPC status，儲存層錯誤不回傳細節
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrInvalidPassword),
		errors.Is(err, domain.ErrInvalidMessage),
		errors.Is(err, domain.ErrInvalidWallet),
		errors.Is(err, domain.ErrInvalidNFT):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientAsset),
		errors.Is(err, domain.ErrNotWithdrawal):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, domain.ErrUsernameTaken):
		code = codes.AlreadyExists
	case errors.Is(err, domain.ErrBadCredential),
		errors.Is(err, auth.ErrInvalidToken):
		code = codes.Unauthenticated
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, price.ErrNoPrice),
		errors.Is(err, domain.ErrPriceUnavailable):
		code = codes.Unavailable
	case errors.Is(err, domain.ErrStorage):
		return status.Error(codes.Unavailable, domain.ErrStorage.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
