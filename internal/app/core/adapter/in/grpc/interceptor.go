package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/pkg/auth"
	pb "github.com/JoeShih716/go-sim-trader/proto"
)

type principalKey struct{}

// publicMethods 不需要 token 的方法
var publicMethods = map[string]bool{
	pb.FullMethod("Register"): true,
	pb.FullMethod("Login"):    true,
	pb.FullMethod("ListNFTs"): true,
	pb.FullMethod("GetPrice"): true,
}

// principalFrom 取出已驗證的呼叫者
func principalFrom(ctx context.Context) (domain.Principal, error) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	if !ok {
		return domain.Principal{}, status.Error(codes.Unauthenticated, "missing credentials")
	}
	return p, nil
}

// AuthInterceptor 驗證 metadata "authorization: Bearer <token>"
//
// 只處理 TraderService 的非公開方法，health / reflection 直接放行。
func AuthInterceptor(tokens *auth.Issuer) grpc.UnaryServerInterceptor {
	prefix := "/" + pb.ServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) || publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization metadata")
		}
		scheme, token, ok := strings.Cut(values[0], " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return nil, status.Error(codes.Unauthenticated, "invalid authorization metadata")
		}
		id, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			return nil, toStatus(err)
		}
		p := domain.Principal{AccountID: id.AccountID, Role: domain.Role(id.Role)}
		return handler(context.WithValue(ctx, principalKey{}, p), req)
	}
}

// LoggingInterceptor 每個請求一行 log，附 request id
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		requestID := uuid.NewString()
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 && v[0] != "" {
				requestID = v[0]
			}
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs("x-request-id", requestID))

		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestID),
		}
		switch code {
		case codes.OK:
			log.Info("grpc request", fields...)
		case codes.Internal, codes.Unavailable, codes.Unknown:
			log.Error("grpc request", append(fields, zap.Error(err))...)
		default:
			log.Warn("grpc request", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}
