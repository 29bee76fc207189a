package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	"github.com/JoeShih716/go-sim-trader/pkg/auth"
	"github.com/JoeShih716/go-sim-trader/pkg/price"
	pb "github.com/JoeShih716/go-sim-trader/proto"
)

type testEnv struct {
	client *pb.TraderServiceClient
	core   *usecase.Core
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := memory.NewMutexStore(nil)
	require.NoError(t, err)
	feed := price.NewFeed(price.StaticSource{Price: decimal.NewFromInt(100)}, price.NewMemoryCache(), time.Minute, zap.NewNop())
	core := usecase.NewCore(store, feed, usecase.Options{
		StartingCash: decimal.NewFromInt(1000),
		BcryptCost:   bcrypt.MinCost,
	}, zap.NewNop())
	tokens, err := auth.NewIssuer("test-secret", time.Hour, "test")
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(zap.NewNop()),
		AuthInterceptor(tokens),
	))
	pb.RegisterTraderServiceServer(srv, NewGrpcServer(core, tokens, "BTC", zap.NewNop()))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testEnv{client: pb.NewTraderServiceClient(conn), core: core}
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func assertCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, status.Code(err), err.Error())
}

func TestRegisterBuySell(t *testing.T) {
	env := newTestEnv(t)

	reply, err := env.client.Register(context.Background(), &pb.Credentials{Username: "alice", Password: "pw1234"})
	require.NoError(t, err)
	require.NotEmpty(t, reply.Token)
	assert.True(t, decimal.NewFromInt(1000).Equal(reply.Account.Cash))
	ctx := withToken(reply.Token)

	// 沒帶價格時用報價 100
	buy, err := env.client.Buy(ctx, &pb.TradeRequest{AssetAmount: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(800).Equal(buy.Account.Cash))
	assert.True(t, decimal.NewFromInt(2).Equal(buy.Account.Asset))
	assert.Equal(t, "trade", buy.Activity.Kind)
	assert.Equal(t, "buy", buy.Activity.Direction)

	sell, err := env.client.Sell(ctx, &pb.TradeRequest{AssetAmount: decimal.NewFromInt(1), UnitPrice: decPtr(decimal.NewFromInt(150))})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(950).Equal(sell.Account.Cash))

	// 明確給 0 不會退回報價
	_, err = env.client.Buy(ctx, &pb.TradeRequest{AssetAmount: decimal.NewFromInt(1), UnitPrice: decPtr(decimal.Zero)})
	assertCode(t, err, codes.InvalidArgument)
	_, err = env.client.Sell(ctx, &pb.TradeRequest{AssetAmount: decimal.NewFromInt(1), UnitPrice: decPtr(decimal.NewFromInt(-5))})
	assertCode(t, err, codes.InvalidArgument)

	_, err = env.client.Sell(ctx, &pb.TradeRequest{AssetAmount: decimal.NewFromInt(5)})
	assertCode(t, err, codes.FailedPrecondition)

	_, err = env.client.Buy(ctx, &pb.TradeRequest{AssetAmount: decimal.NewFromInt(-1)})
	assertCode(t, err, codes.InvalidArgument)

	list, err := env.client.ListActivity(ctx, &pb.ListActivityRequest{Kind: "trade"})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "sell", list.Items[0].Direction)

	_, err = env.client.ListActivity(ctx, &pb.ListActivityRequest{Kind: "bogus"})
	assertCode(t, err, codes.InvalidArgument)

	pf, err := env.client.GetPortfolio(ctx, &pb.PortfolioRequest{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, pf.Activity, 1)
	assert.True(t, decimal.NewFromInt(1050).Equal(pf.Valuation))
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.GetAccount(context.Background(), &pb.Empty{})
	assertCode(t, err, codes.Unauthenticated)

	_, err = env.client.GetAccount(withToken("garbage"), &pb.Empty{})
	assertCode(t, err, codes.Unauthenticated)

	// 公開方法不需要 token
	nfts, err := env.client.ListNFTs(context.Background(), &pb.Empty{})
	require.NoError(t, err)
	assert.Empty(t, nfts.Items)

	p, err := env.client.GetPrice(context.Background(), &pb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "BTC", p.Symbol)
	assert.True(t, decimal.NewFromInt(100).Equal(p.UnitPrice))

	_, err = env.client.Login(context.Background(), &pb.Credentials{Username: "nobody", Password: "pw1234"})
	assertCode(t, err, codes.NotFound)
}

func TestWithdrawAndAdminFlow(t *testing.T) {
	env := newTestEnv(t)
	bg := context.Background()

	_, _, err := env.core.Auth.EnsureAdmin(bg, "root", "rootpw")
	require.NoError(t, err)
	admin, err := env.client.Login(bg, &pb.Credentials{Username: "root", Password: "rootpw"})
	require.NoError(t, err)
	adminCtx := withToken(admin.Token)

	user, err := env.client.Register(bg, &pb.Credentials{Username: "bob", Password: "pw1234"})
	require.NoError(t, err)
	userCtx := withToken(user.Token)

	w, err := env.client.Withdraw(userCtx, &pb.WithdrawRequest{Amount: decimal.NewFromInt(300), Wallet: "0xabc"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(700).Equal(w.Account.Cash))
	assert.Equal(t, "pending", w.Activity.Status)

	// 一般使用者不能呼叫管理功能
	_, err = env.client.AdminApproveWithdrawal(userCtx, &pb.ApproveRequest{WithdrawalID: w.Activity.ID})
	assertCode(t, err, codes.PermissionDenied)

	approved, err := env.client.AdminApproveWithdrawal(adminCtx, &pb.ApproveRequest{WithdrawalID: w.Activity.ID})
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	adj, err := env.client.AdminAdjust(adminCtx, &pb.AdjustRequest{
		AccountID:  user.Account.ID,
		CashDelta:  decimal.NewFromInt(-700),
		AssetDelta: decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	assert.True(t, adj.Account.Cash.IsZero())
	assert.Equal(t, admin.Account.ID, adj.Activity.OperatorID)

	_, err = env.client.AdminAdjust(adminCtx, &pb.AdjustRequest{AccountID: user.Account.ID, CashDelta: decimal.NewFromInt(-1)})
	assertCode(t, err, codes.FailedPrecondition)

	all, err := env.client.AdminListActivity(adminCtx, &pb.ListActivityRequest{AccountID: user.Account.ID})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, "bob", all.Items[0].Username)

	_, err = env.client.PostMessage(userCtx, &pb.PostMessageRequest{Text: "where is my money"})
	require.NoError(t, err)
	_, err = env.client.AdminReply(adminCtx, &pb.PostMessageRequest{AccountID: user.Account.ID, Text: "sent"})
	require.NoError(t, err)
	msgs, err := env.client.ListMessages(userCtx, &pb.ListMessagesRequest{})
	require.NoError(t, err)
	require.Len(t, msgs.Items, 2)
	assert.Equal(t, "admin", msgs.Items[1].Sender)

	nft, err := env.client.AdminCreateNFT(adminCtx, &pb.CreateNFTRequest{Name: "Ape", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	_, err = env.client.AdminDeleteNFT(adminCtx, &pb.DeleteNFTRequest{ID: "not-a-uuid"})
	assertCode(t, err, codes.InvalidArgument)
	_, err = env.client.AdminDeleteNFT(adminCtx, &pb.DeleteNFTRequest{ID: nft.ID})
	require.NoError(t, err)

	_, err = env.client.AdminDeleteAccount(adminCtx, &pb.DeleteAccountRequest{AccountID: user.Account.ID})
	require.NoError(t, err)
	_, err = env.client.GetAccount(userCtx, &pb.Empty{})
	assertCode(t, err, codes.NotFound)
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.client.Register(context.Background(), &pb.Credentials{Username: "carol", Password: "pw1234"})
	require.NoError(t, err)
	_, err = env.client.Register(context.Background(), &pb.Credentials{Username: "CAROL", Password: "pw1234"})
	assertCode(t, err, codes.AlreadyExists)

	_, err = env.client.Login(context.Background(), &pb.Credentials{Username: "carol", Password: "wrong"})
	assertCode(t, err, codes.Unauthenticated)
}
