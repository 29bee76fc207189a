package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/adapter/out/storetest"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	"github.com/JoeShih716/go-sim-trader/pkg/wal"
)

func openWAL(t *testing.T, path string) *wal.WAL {
	t.Helper()
	w, err := wal.Open(path, wal.WithoutSync())
	require.NoError(t, err)
	return w
}

func newMutex(t *testing.T, w *wal.WAL) *MutexStore {
	t.Helper()
	s, err := NewMutexStore(w)
	require.NoError(t, err)
	return s
}

func newLMAX(t *testing.T, w *wal.WAL) *LMAXStore {
	t.Helper()
	s, err := NewLMAXStore(w, 0)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return s
}

func TestMutexStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) usecase.Store {
		return newMutex(t, nil)
	})
}

func TestLMAXStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) usecase.Store {
		return newLMAX(t, nil)
	})
}

func TestMutexStoreWithWAL(t *testing.T) {
	storetest.Run(t, func(t *testing.T) usecase.Store {
		w := openWAL(t, filepath.Join(t.TempDir(), "wal.log"))
		t.Cleanup(func() { w.Close() })
		return newMutex(t, w)
	})
}

// TestRecoverFromWAL 重啟後 (換引擎也一樣) 狀態與 ID 序列都要接得上
func TestRecoverFromWAL(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wal.log")

	w := openWAL(t, path)
	first := newMutex(t, w)
	alice := storetest.CreateAccount(t, first, "alice", "1000")
	bob := storetest.CreateAccount(t, first, "bob", "10")

	_, buyAct, err := first.Mutate(ctx, alice.ID, func(a *domain.Account) (*domain.Activity, error) {
		return a.Buy(decimal.NewFromInt(2), decimal.NewFromInt(100))
	})
	require.NoError(t, err)
	_, wAct, err := first.Mutate(ctx, alice.ID, func(a *domain.Account) (*domain.Activity, error) {
		return a.Withdraw(decimal.NewFromInt(50), "0xabc")
	})
	require.NoError(t, err)
	_, err = first.ApproveWithdrawal(ctx, wAct.ID, time.Now().UTC())
	require.NoError(t, err)
	_, err = first.RenameAccount(ctx, alice.ID, "Alicia")
	require.NoError(t, err)
	msg, err := domain.NewSupportMessage(alice.ID, domain.SenderUser, "hello")
	require.NoError(t, err)
	require.NoError(t, first.AppendMessage(ctx, msg))
	require.NoError(t, first.DeleteAccount(ctx, bob.ID))
	require.NoError(t, w.Close())

	second := newLMAX(t, openWAL(t, path))

	got, err := second.GetAccount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.Username)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, decimal.NewFromInt(750).Equal(got.Cash))
	assert.True(t, decimal.NewFromInt(2).Equal(got.Asset))

	_, err = second.GetAccount(ctx, bob.ID)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	approved, err := second.GetActivity(ctx, wAct.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalApproved, approved.Withdrawal.Status)

	msgs, err := second.ListMessages(ctx, alice.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	// ID 不會重複使用
	carol := storetest.CreateAccount(t, second, "carol", "0")
	assert.Greater(t, carol.ID, bob.ID)
	_, next, err := second.Mutate(ctx, alice.ID, func(a *domain.Account) (*domain.Activity, error) {
		return a.Sell(decimal.NewFromInt(1), decimal.NewFromInt(100))
	})
	require.NoError(t, err)
	assert.Greater(t, next.ID, wAct.ID)
	assert.Greater(t, wAct.ID, buyAct.ID)
}

func TestLMAXStoreStopped(t *testing.T) {
	s, err := NewLMAXStore(nil, 1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	acc := storetest.CreateAccount(t, s, "quentin", "1")
	cancel()
	<-s.Done()

	_, _, err = s.Mutate(context.Background(), acc.ID, func(a *domain.Account) (*domain.Activity, error) {
		return a.Buy(decimal.NewFromInt(1), decimal.NewFromInt(1))
	})
	assert.ErrorIs(t, err, ErrEngineStopped)

	// 讀取仍可使用
	got, err := s.GetAccount(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1).Equal(got.Cash))
}

func TestMutexStoreCanceledContext(t *testing.T) {
	s := newMutex(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	acc := domain.NewAccount("rupert", "hash", decimal.Zero, domain.RoleUser)
	assert.ErrorIs(t, s.CreateAccount(ctx, acc), context.Canceled)
}

// TestWALFailureLeavesStateUnchanged WAL 寫入失敗時記憶體狀態不能先被套用
func TestWALFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	w := openWAL(t, filepath.Join(t.TempDir(), "wal.log"))
	s := newMutex(t, w)
	acc := storetest.CreateAccount(t, s, "wendy", "1000")
	require.NoError(t, w.Close())

	_, _, err := s.Mutate(ctx, acc.ID, func(a *domain.Account) (*domain.Activity, error) {
		return a.Buy(decimal.NewFromInt(2), decimal.NewFromInt(100))
	})
	require.ErrorIs(t, err, domain.ErrStorage)

	got, err := s.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(got.Cash))
	assert.True(t, got.Asset.IsZero())
	acts, err := s.ListActivity(ctx, domain.ActivityFilter{AccountID: acc.ID})
	require.NoError(t, err)
	assert.Empty(t, acts)

	// 之後的寫入同樣失敗，狀態維持不變
	_, err = s.RenameAccount(ctx, acc.ID, "wendell")
	require.ErrorIs(t, err, domain.ErrStorage)
	got, err = s.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "wendy", got.Username)
}
