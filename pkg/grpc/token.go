package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// TokenSource 回傳目前要帶的 token，空字串代表不帶
type TokenSource func(ctx context.Context) string

// BearerToken 在 metadata 加上 "authorization: Bearer <token>"
func BearerToken(source TokenSource) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if token := source(ctx); token != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

type tokenKey struct{}

// WithToken 把 token 放進 context，搭配 ContextToken 使用
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// ContextToken 從 context 取出 WithToken 放入的 token
func ContextToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
