package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
)

type fixedPrice struct {
	price decimal.Decimal
	err   error
}

func (f fixedPrice) Current(ctx context.Context) (decimal.Decimal, error) {
	return f.price, f.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCore(t *testing.T, prices usecase.PriceFeed) *usecase.Core {
	t.Helper()
	store, err := memory.NewMutexStore(nil)
	require.NoError(t, err)
	return usecase.NewCore(store, prices, usecase.Options{
		StartingCash: dec("1000"),
		BcryptCost:   bcrypt.MinCost,
	}, zap.NewNop())
}

func register(t *testing.T, core *usecase.Core, username string) *domain.Account {
	t.Helper()
	acc, err := core.Auth.Register(context.Background(), username, "secret")
	require.NoError(t, err)
	return acc
}

func adminPrincipal(t *testing.T, core *usecase.Core) domain.Principal {
	t.Helper()
	acc, created, err := core.Auth.EnsureAdmin(context.Background(), "operator", "operator-pw")
	require.NoError(t, err)
	require.True(t, created)
	return domain.Principal{AccountID: acc.ID, Role: acc.Role}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	core := newCore(t, nil)

	acc := register(t, core, "  Alice ")
	assert.Equal(t, "Alice", acc.Username)
	assert.True(t, dec("1000").Equal(acc.Cash))
	assert.True(t, acc.Asset.IsZero())
	assert.Equal(t, domain.RoleUser, acc.Role)

	_, err := core.Auth.Register(ctx, "alice", "secret")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	_, err = core.Auth.Register(ctx, "ab", "secret")
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	_, err = core.Auth.Register(ctx, "bobby", "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	got, err := core.Auth.Login(ctx, "ALICE", "secret")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	_, err = core.Auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrBadCredential)

	_, err = core.Auth.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRenameAccount(t *testing.T) {
	ctx := context.Background()
	core := newCore(t, nil)
	alice := register(t, core, "alice")
	register(t, core, "bob")

	p := domain.Principal{AccountID: alice.ID, Role: domain.RoleUser}
	_, err := core.Auth.RenameAccount(ctx, p, "BOB")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	renamed, err := core.Auth.RenameAccount(ctx, p, "alicia")
	require.NoError(t, err)
	assert.Equal(t, "alicia", renamed.Username)

	_, err = core.Auth.Login(ctx, "alicia", "secret")
	assert.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	core := newCore(t, nil)

	acc, created, err := core.Auth.EnsureAdmin(ctx, "operator", "pw-123")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, acc.IsAdmin())
	assert.True(t, acc.Cash.IsZero())

	again, created, err := core.Auth.EnsureAdmin(ctx, "operator", "pw-123")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, acc.ID, again.ID)

	register(t, core, "mallory")
	_, _, err = core.Auth.EnsureAdmin(ctx, "mallory", "pw-123")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestBuySellWithdraw(t *testing.T) {
	ctx := context.Background()
	core := newCore(t, fixedPrice{price: dec("100")})
	acc := register(t, core, "trader")

	// 現金剛好等於成本可以買
	after, act, err := core.Ledger.Buy(ctx, acc.ID, dec("10"), dec("100"))
	require.NoError(t, err)
	assert.True(t, after.Cash.IsZero())
	assert.True(t, dec("10").Equal(after.Asset))
	assert.Equal(t, domain.KindTrade, act.Kind)
	assert.Equal(t, domain.TradeBuy, act.Trade.Direction)
	assert.NotZero(t, act.ID)

	_, _, err = core.Ledger.Buy(ctx, acc.ID, dec("0.00000001"), dec("1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	after, _, err = core.Ledger.Sell(ctx, acc.ID, dec("4"), dec("125"))
	require.NoError(t, err)
	assert.True(t, dec("500").Equal(after.Cash))
	assert.True(t, dec("6").Equal(after.Asset))

	_, _, err = core.Ledger.Sell(ctx, acc.ID, dec("6.1"), dec("1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientAsset)

	after, w, err := core.Ledger.RequestWithdrawal(ctx, acc.ID, dec("200"), "bc1qxyz")
	require.NoError(t, err)
	assert.True(t, dec("300").Equal(after.Cash))
	assert.Equal(t, domain.WithdrawalPending, w.Withdrawal.Status)

	_, _, err = core.Ledger.RequestWithdrawal(ctx, acc.ID, dec("10"), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidWallet)

	_, _, err = core.Ledger.Buy(ctx, 9999, dec("1"), dec("1"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	acts, err := core.Ledger.ListActivity(ctx, acc.ID, "", 0)
	require.NoError(t, err)
	require.Len(t, acts, 3)
	assert.Equal(t, domain.KindWithdrawal, acts[0].Kind)
	assert.Greater(t, acts[0].ID, acts[1].ID)

	trades, err := core.Ledger.ListActivity(ctx, acc.ID, domain.KindTrade, 1)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, domain.TradeSell, trades[0].Trade.Direction)
}

func TestPortfolio(t *testing.T) {
	ctx := context.Background()
	core := newCore(t, fixedPrice{price: dec("250")})
	acc := register(t, core, "holder")
	_, _, err := core.Ledger.Buy(ctx, acc.ID, dec("2"), dec("100"))
	require.NoError(t, err)

	pf, err := core.Ledger.GetPortfolio(ctx, acc.ID, 10)
	require.NoError(t, err)
	assert.True(t, dec("250").Equal(pf.UnitPrice))
	// 800 + 2 * 250
	assert.True(t, dec("1300").Equal(pf.Valuation))
	assert.Len(t, pf.Activity, 1)

	// 報價失敗時只計現金
	down := newCore(t, fixedPrice{err: errors.New("feed down")})
	acc = register(t, down, "holder")
	pf, err = down.Ledger.GetPortfolio(ctx, acc.ID, 0)
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(pf.Valuation))
}

func TestQuoteWithoutFeed(t *testing.T) {
	core := newCore(t, nil)
	_, err := core.Ledger.Quote(context.Background())
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
	assert.NotErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestAdminRequiresAdminRole(t *testing.T) {
	ctx := context.Background()
	core := newCore(t, nil)
	user := register(t, core, "plain")

	// token 上宣稱 admin 但帳戶本身不是
	forged := domain.Principal{AccountID: user.ID, Role: domain.RoleAdmin}
	_, err := core.Admin.ListAccounts(ctx, forged)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = core.Admin.ListAccounts(ctx, domain.Principal{AccountID: user.ID, Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = core.Admin.Adjust(ctx, forged, user.ID, dec("1"), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := core.Ledger.GetAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(got.Cash))
}

func TestAdminOperations(t *testing.T) {
	ctx := context.Background()
	core := newCore(t, nil)
	admin := adminPrincipal(t, core)
	user := register(t, core, "customer")

	acc, act, err := core.Admin.Adjust(ctx, admin, user.ID, dec("-1000"), dec("0.5"))
	require.NoError(t, err)
	assert.True(t, acc.Cash.IsZero())
	assert.Equal(t, domain.KindTopUp, act.Kind)
	assert.Equal(t, admin.AccountID, act.TopUp.OperatorID)

	_, _, err = core.Admin.Adjust(ctx, admin, user.ID, dec("-0.01"), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, _, err = core.Admin.Adjust(ctx, admin, user.ID, dec("100"), decimal.Zero)
	require.NoError(t, err)
	_, w, err := core.Ledger.RequestWithdrawal(ctx, user.ID, dec("40"), "wallet-1")
	require.NoError(t, err)

	approved, err := core.Admin.ApproveWithdrawal(ctx, admin, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalApproved, approved.Withdrawal.Status)
	require.NotNil(t, approved.Withdrawal.ApprovedAt)

	// 重複核准不動帳、時間不變
	again, err := core.Admin.ApproveWithdrawal(ctx, admin, w.ID)
	require.NoError(t, err)
	assert.Equal(t, *approved.Withdrawal.ApprovedAt, *again.Withdrawal.ApprovedAt)
	got, err := core.Ledger.GetAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, dec("60").Equal(got.Cash))

	_, err = core.Admin.ApproveWithdrawal(ctx, admin, act.ID)
	assert.ErrorIs(t, err, domain.ErrNotWithdrawal)
	_, err = core.Admin.ApproveWithdrawal(ctx, admin, 12345)
	assert.ErrorIs(t, err, domain.ErrActivityNotFound)

	views, err := core.Admin.ListActivity(ctx, admin, domain.ActivityFilter{Kind: domain.KindTopUp})
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, "customer", v.Username)
	}

	accounts, err := core.Admin.ListAccounts(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	assert.ErrorIs(t, core.Admin.DeleteAccount(ctx, admin, admin.AccountID), domain.ErrForbidden)
	require.NoError(t, core.Admin.DeleteAccount(ctx, admin, user.ID))
	assert.ErrorIs(t, core.Admin.DeleteAccount(ctx, admin, user.ID), domain.ErrAccountNotFound)

	views, err = core.Admin.ListActivity(ctx, admin, domain.ActivityFilter{})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestSupportConversation(t *testing.T) {
	ctx := context.Background()
	core := newCore(t, nil)
	admin := adminPrincipal(t, core)
	user := register(t, core, "asker")

	first, err := core.Support.Post(ctx, user.ID, domain.SenderUser, "  is this thing on?  ")
	require.NoError(t, err)
	assert.Equal(t, "is this thing on?", first.Text)

	_, err = core.Support.Post(ctx, user.ID, domain.SenderUser, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	_, err = core.Admin.Reply(ctx, admin, user.ID, "yes")
	require.NoError(t, err)
	_, err = core.Admin.Reply(ctx, admin, 777, "hello?")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	all, err := core.Support.List(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.SenderUser, all[0].Sender)
	assert.Equal(t, domain.SenderAdmin, all[1].Sender)

	newer, err := core.Admin.ListMessages(ctx, admin, user.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, newer, 1)
	assert.Equal(t, "yes", newer[0].Text)
}

func TestNFTCatalog(t *testing.T) {
	ctx := context.Background()
	core := newCore(t, nil)
	admin := adminPrincipal(t, core)
	user := register(t, core, "collector")

	_, err := core.Admin.CreateNFT(ctx, domain.Principal{AccountID: user.ID, Role: domain.RoleUser}, "x", "", dec("1"))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = core.Admin.CreateNFT(ctx, admin, " ", "", dec("1"))
	assert.ErrorIs(t, err, domain.ErrInvalidNFT)

	nft, err := core.Admin.CreateNFT(ctx, admin, "Genesis", "https://img/1.png", dec("3.5"))
	require.NoError(t, err)

	list, err := core.Ledger.ListNFTs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, nft.ID, list[0].ID)

	require.NoError(t, core.Admin.DeleteNFT(ctx, admin, nft.ID))
	assert.ErrorIs(t, core.Admin.DeleteNFT(ctx, admin, nft.ID), domain.ErrNFTNotFound)
}

// TestConcurrentTradesConserveValue 同價格下反覆買賣，總價值不變且餘額不為負
func TestConcurrentTradesConserveValue(t *testing.T) {
	ctx := context.Background()
	core := newCore(t, nil)
	acc := register(t, core, "busy")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, _ = core.Ledger.Buy(ctx, acc.ID, dec("1"), dec("30"))
		}()
		go func() {
			defer wg.Done()
			_, _, _ = core.Ledger.Sell(ctx, acc.ID, dec("1"), dec("30"))
		}()
	}
	wg.Wait()

	got, err := core.Ledger.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.False(t, got.Cash.IsNegative())
	assert.False(t, got.Asset.IsNegative())
	assert.True(t, dec("1000").Equal(got.Cash.Add(got.Asset.Mul(dec("30")))))
}
