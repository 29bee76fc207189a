package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

// startHealthServer 啟動 bufconn health server，回傳 dialer 與最後收到的 authorization
func startHealthServer(t *testing.T) (grpc.DialOption, *[]string) {
	t.Helper()
	var seen []string
	lis := bufconn.Listen(1 << 16)
	srv := grpc.NewServer(grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		seen = md.Get("authorization")
		return handler(ctx, req)
	}))
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
	return dialer, &seen
}

func TestPoolReusesConnection(t *testing.T) {
	dialer, _ := startHealthServer(t)
	pool := NewPool()

	a, err := pool.GetConnection("passthrough:///bufnet", dialer)
	require.NoError(t, err)
	b, err := pool.GetConnection("passthrough:///bufnet", dialer)
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, pool.Close())

	c, err := pool.GetConnection("passthrough:///bufnet", dialer)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	require.NoError(t, pool.Close())
}

func TestPoolBearerToken(t *testing.T) {
	dialer, seen := startHealthServer(t)
	pool := NewPool(WithInterceptor(BearerToken(ContextToken)))
	t.Cleanup(func() { pool.Close() })

	conn, err := pool.GetConnection("passthrough:///bufnet", dialer)
	require.NoError(t, err)
	client := healthpb.NewHealthClient(conn)

	_, err = client.Check(WithToken(context.Background(), "abc"), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer abc"}, *seen)

	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Empty(t, *seen)
}
