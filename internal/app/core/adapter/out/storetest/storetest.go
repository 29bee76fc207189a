// Package storetest 所有 usecase.Store 實作共用的行為測試
//
// 每個實作在自己的 _test.go 裡呼叫 Run 並提供建立空 Store 的 factory。
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
)

// Factory 回傳一個全新的空 Store
type Factory func(t *testing.T) usecase.Store

var dec = decimal.RequireFromString

// Run 執行完整的 Store 行為測試
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s usecase.Store)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"UsernameUnique", testUsernameUnique},
		{"Rename", testRename},
		{"MutatePersistsActivity", testMutatePersistsActivity},
		{"MutateErrorPersistsNothing", testMutateErrorPersistsNothing},
		{"ListActivityOrderAndFilter", testListActivityOrderAndFilter},
		{"ApproveWithdrawal", testApproveWithdrawal},
		{"DeleteAccountCascades", testDeleteAccountCascades},
		{"SupportMessages", testSupportMessages},
		{"Catalog", testCatalog},
		{"ConcurrentBuys", testConcurrentBuys},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

// CreateAccount 建立測試帳戶
func CreateAccount(t *testing.T, s usecase.Store, username string, cash string) *domain.Account {
	t.Helper()
	acc := domain.NewAccount(username, "hash", dec(cash), domain.RoleUser)
	require.NoError(t, s.CreateAccount(context.Background(), acc))
	require.NotZero(t, acc.ID)
	return acc
}

func buy(amount, price string) usecase.MutateFunc {
	return func(a *domain.Account) (*domain.Activity, error) {
		return a.Buy(dec(amount), dec(price))
	}
}

func withdraw(amount string) usecase.MutateFunc {
	return func(a *domain.Account) (*domain.Activity, error) {
		return a.Withdraw(dec(amount), "wallet-1")
	}
}

func testCreateAndGet(t *testing.T, s usecase.Store) {
	ctx := context.Background()
	a := CreateAccount(t, s, "Alice", "100.5")
	b := CreateAccount(t, s, "bob", "0")
	assert.Greater(t, b.ID, a.ID)

	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Username)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, dec("100.5").Equal(got.Cash))
	assert.True(t, got.Asset.IsZero())
	assert.Equal(t, domain.RoleUser, got.Role)

	got, err = s.GetAccountByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = s.GetAccount(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	_, err = s.GetAccountByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
}

func testUsernameUnique(t *testing.T, s usecase.Store) {
	CreateAccount(t, s, "carol", "0")
	dup := domain.NewAccount("CAROL", "x", decimal.Zero, domain.RoleUser)
	err := s.CreateAccount(context.Background(), dup)
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func testRename(t *testing.T, s usecase.Store) {
	ctx := context.Background()
	a := CreateAccount(t, s, "dave", "0")
	CreateAccount(t, s, "erin", "0")

	got, err := s.RenameAccount(ctx, a.ID, "David")
	require.NoError(t, err)
	assert.Equal(t, "David", got.Username)

	// 只改大小寫也允許
	_, err = s.RenameAccount(ctx, a.ID, "DAVID")
	require.NoError(t, err)

	_, err = s.RenameAccount(ctx, a.ID, "Erin")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	_, err = s.GetAccountByUsername(ctx, "dave")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = s.RenameAccount(ctx, 9999, "zed")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func testMutatePersistsActivity(t *testing.T, s usecase.Store) {
	ctx := context.Background()
	a := CreateAccount(t, s, "frank", "1000")

	acc, act, err := s.Mutate(ctx, a.ID, buy("2", "100"))
	require.NoError(t, err)
	assert.True(t, dec("800").Equal(acc.Cash))
	assert.True(t, dec("2").Equal(acc.Asset))
	require.NotNil(t, act)
	assert.NotZero(t, act.ID)
	assert.Equal(t, a.ID, act.AccountID)
	require.NotNil(t, act.Trade)
	assert.Equal(t, domain.TradeBuy, act.Trade.Direction)

	stored, err := s.GetActivity(ctx, act.ID)
	require.NoError(t, err)
	assert.Equal(t, act.RefID, stored.RefID)
	assert.True(t, dec("100").Equal(stored.Trade.UnitPrice))

	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, dec("800").Equal(got.Cash))

	_, _, err = s.Mutate(ctx, 9999, buy("1", "1"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func testMutateErrorPersistsNothing(t *testing.T, s usecase.Store) {
	ctx := context.Background()
	a := CreateAccount(t, s, "grace", "10")

	_, _, err := s.Mutate(ctx, a.ID, buy("1", "10.00000001"))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	boom := errors.New("boom")
	_, _, err = s.Mutate(ctx, a.ID, func(acc *domain.Account) (*domain.Activity, error) {
		acc.Cash = decimal.Zero
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(got.Cash))

	acts, err := s.ListActivity(ctx, domain.ActivityFilter{AccountID: a.ID})
	require.NoError(t, err)
	assert.Empty(t, acts)
}

func testListActivityOrderAndFilter(t *testing.T, s usecase.Store) {
	ctx := context.Background()
	a := CreateAccount(t, s, "heidi", "1000")
	b := CreateAccount(t, s, "ivan", "1000")

	_, first, err := s.Mutate(ctx, a.ID, buy("1", "10"))
	require.NoError(t, err)
	_, _, err = s.Mutate(ctx, b.ID, buy("1", "10"))
	require.NoError(t, err)
	_, last, err := s.Mutate(ctx, a.ID, withdraw("5"))
	require.NoError(t, err)
	assert.Greater(t, last.ID, first.ID)

	all, err := s.ListActivity(ctx, domain.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].ID, all[i].ID, "newest first")
	}

	own, err := s.ListActivity(ctx, domain.ActivityFilter{AccountID: a.ID})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, last.ID, own[0].ID)
	assert.Equal(t, first.ID, own[1].ID)

	withdrawals, err := s.ListActivity(ctx, domain.ActivityFilter{Kind: domain.KindWithdrawal})
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)
	assert.Equal(t, "wallet-1", withdrawals[0].Withdrawal.Wallet)
	assert.Equal(t, domain.WithdrawalPending, withdrawals[0].Withdrawal.Status)

	limited, err := s.ListActivity(ctx, domain.ActivityFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, last.ID, limited[0].ID)
}

func testApproveWithdrawal(t *testing.T, s usecase.Store) {
	ctx := context.Background()
	a := CreateAccount(t, s, "judy", "100")

	_, w, err := s.Mutate(ctx, a.ID, withdraw("40"))
	require.NoError(t, err)
	_, trade, err := s.Mutate(ctx, a.ID, buy("1", "1"))
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	approved, err := s.ApproveWithdrawal(ctx, w.ID, now)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalApproved, approved.Withdrawal.Status)
	require.NotNil(t, approved.Withdrawal.ApprovedAt)

	// 再次核准不改變任何東西
	again, err := s.ApproveWithdrawal(ctx, w.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalApproved, again.Withdrawal.Status)
	assert.True(t, approved.Withdrawal.ApprovedAt.Equal(*again.Withdrawal.ApprovedAt))

	// 核准不動帳: 100 - 40 - 1
	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, dec("59").Equal(got.Cash))

	_, err = s.ApproveWithdrawal(ctx, trade.ID, now)
	assert.ErrorIs(t, err, domain.ErrNotWithdrawal)
	_, err = s.ApproveWithdrawal(ctx, 9999, now)
	assert.ErrorIs(t, err, domain.ErrActivityNotFound)
}

func testDeleteAccountCascades(t *testing.T, s usecase.Store) {
	ctx := context.Background()
	a := CreateAccount(t, s, "kate", "100")
	b := CreateAccount(t, s, "liam", "100")

	_, act, err := s.Mutate(ctx, a.ID, buy("1", "1"))
	require.NoError(t, err)
	_, _, err = s.Mutate(ctx, b.ID, buy("1", "1"))
	require.NoError(t, err)
	msg, err := domain.NewSupportMessage(a.ID, domain.SenderUser, "hi")
	require.NoError(t, err)
	require.NoError(t, s.AppendMessage(ctx, msg))

	require.NoError(t, s.DeleteAccount(ctx, a.ID))

	_, err = s.GetAccount(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	_, err = s.GetActivity(ctx, act.ID)
	assert.ErrorIs(t, err, domain.ErrActivityNotFound)
	_, err = s.ListMessages(ctx, a.ID, 0)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	// 名稱釋放，可重新註冊
	CreateAccount(t, s, "kate", "0")

	rest, err := s.ListActivity(ctx, domain.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, b.ID, rest[0].AccountID)

	assert.ErrorIs(t, s.DeleteAccount(ctx, a.ID), domain.ErrAccountNotFound)
}

func testSupportMessages(t *testing.T, s usecase.Store) {
	ctx := context.Background()
	a := CreateAccount(t, s, "mallory", "0")
	b := CreateAccount(t, s, "niaj", "0")

	post := func(accountID int64, sender domain.Sender, text string) *domain.SupportMessage {
		msg, err := domain.NewSupportMessage(accountID, sender, text)
		require.NoError(t, err)
		require.NoError(t, s.AppendMessage(ctx, msg))
		require.NotZero(t, msg.ID)
		return msg
	}
	m1 := post(a.ID, domain.SenderUser, "help")
	post(b.ID, domain.SenderUser, "other thread")
	m2 := post(a.ID, domain.SenderAdmin, "on it")

	thread, err := s.ListMessages(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, m1.ID, thread[0].ID)
	assert.Equal(t, domain.SenderAdmin, thread[1].Sender)

	after, err := s.ListMessages(ctx, a.ID, m1.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, m2.ID, after[0].ID)
	assert.Equal(t, "on it", after[0].Text)

	orphan, err := domain.NewSupportMessage(9999, domain.SenderUser, "hello?")
	require.NoError(t, err)
	assert.ErrorIs(t, s.AppendMessage(ctx, orphan), domain.ErrAccountNotFound)
}

func testCatalog(t *testing.T, s usecase.Store) {
	ctx := context.Background()
	admin := CreateAccount(t, s, "olivia", "0")

	n1, err := domain.NewNFT("Ape #1", "https://img/1.png", dec("1.5"), admin.ID)
	require.NoError(t, err)
	require.NoError(t, s.CreateNFT(ctx, n1))
	n2, err := domain.NewNFT("Ape #2", "", dec("2"), admin.ID)
	require.NoError(t, err)
	n2.CreatedAt = n1.CreatedAt.Add(time.Second)
	require.NoError(t, s.CreateNFT(ctx, n2))

	list, err := s.ListNFTs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, n1.ID, list[0].ID)
	assert.True(t, dec("1.5").Equal(list[0].Price))

	require.NoError(t, s.DeleteNFT(ctx, n1.ID))
	assert.ErrorIs(t, s.DeleteNFT(ctx, n1.ID), domain.ErrNFTNotFound)
	assert.ErrorIs(t, s.DeleteNFT(ctx, uuid.New()), domain.ErrNotFound)

	list, err = s.ListNFTs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ape #2", list[0].Name)
}

// testConcurrentBuys 20 個並行買單只有 10 個付得起，餘額不可為負
func testConcurrentBuys(t *testing.T, s usecase.Store) {
	ctx := context.Background()
	a := CreateAccount(t, s, "peggy", "1000")

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		refused int
		other   []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.Mutate(ctx, a.ID, buy("1", "100"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientFunds):
				refused++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, refused)

	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.IsZero(), "cash %s", got.Cash)
	assert.True(t, dec("10").Equal(got.Asset), "asset %s", got.Asset)

	acts, err := s.ListActivity(ctx, domain.ActivityFilter{AccountID: a.ID})
	require.NoError(t, err)
	assert.Len(t, acts, 10)
}
