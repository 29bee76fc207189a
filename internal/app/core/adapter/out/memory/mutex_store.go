package memory

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	"github.com/JoeShih716/go-sim-trader/pkg/wal"
)

// MutexStore 使用 Mutex 實現的儲存
//
// 結構:
//
//	base: 共用 state 與 RWMutex (全域寫入在 commit 時短暫持有)
//	accountLocks: 每個帳戶一把鎖，同一帳戶的 Mutate / Delete 依序執行
//
// 不同帳戶的 Mutate 可以並行執行 fn，只有寫 WAL + 套用時才互斥。
type MutexStore struct {
	*base
	accountLocks sync.Map // map[int64]*sync.Mutex
}

// NewMutexStore 建立 MutexStore 並從 WAL 恢復資料
//
// 參數:
//
//	w: Write-Ahead Log 實例，nil 代表不落地 (測試用)
//
// 回傳:
//
//	*MutexStore: MutexStore 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewMutexStore(w *wal.WAL) (*MutexStore, error) {
	b, err := newBase(w)
	if err != nil {
		return nil, err
	}
	m := &MutexStore{base: b}
	b.write = m.write
	return m, nil
}

func (m *MutexStore) write(ctx context.Context, fn writeFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.st)
}

func (m *MutexStore) lockAccount(id int64) func() {
	v, _ := m.accountLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Mutate 取得帳戶鎖 -> RLock 讀副本 -> 執行 fn (不持有全域鎖) -> 寫鎖 commit
func (m *MutexStore) Mutate(ctx context.Context, id int64, fn usecase.MutateFunc) (*domain.Account, *domain.Activity, error) {
	unlock := m.lockAccount(id)
	defer unlock()

	acc, err := m.GetAccount(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	act, err := fn(acc)
	if err != nil {
		return nil, nil, err
	}

	var (
		out    *domain.Account
		outAct *domain.Activity
	)
	err = m.write(ctx, func(st *state) error {
		var err error
		out, outAct, err = m.commitMutationLocked(st, acc, act)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return out, outAct, nil
}

// DeleteAccount 需等同帳戶進行中的 Mutate 結束
func (m *MutexStore) DeleteAccount(ctx context.Context, id int64) error {
	unlock := m.lockAccount(id)
	defer unlock()
	if err := m.base.DeleteAccount(ctx, id); err != nil {
		return err
	}
	m.accountLocks.Delete(id)
	return nil
}

var _ usecase.Store = (*MutexStore)(nil)
