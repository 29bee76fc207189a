package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	"github.com/JoeShih716/go-sim-trader/pkg/wal"
)

// ErrEngineStopped LMAX 引擎已停止，無法再接受寫入
var ErrEngineStopped = domain.StorageError(errors.New("memory engine stopped"))

// writeFunc 在持有寫鎖 (或單一寫入者) 的情況下執行
type writeFunc func(st *state) error

// base MutexStore 與 LMAXStore 共用的部分: state、WAL 與所有讀取
//
// 讀取一律持有 RLock 並回傳副本；寫入交給各引擎的 write 決定如何序列化。
type base struct {
	mu  sync.RWMutex
	st  *state
	wal *wal.WAL
	// write 由引擎注入
	write func(ctx context.Context, fn writeFunc) error
}

// newBase 建立 state 並從 WAL 恢復 (w 為 nil 時為純記憶體模式)
func newBase(w *wal.WAL) (*base, error) {
	b := &base{st: newState(), wal: w}
	if w != nil {
		if err := w.Replay(b.st.replay); err != nil {
			return nil, domain.StorageError(err)
		}
	}
	return b, nil
}

// commitLocked 先寫 WAL 再套用到記憶體，WAL 失敗時 state 不變
//
// 呼叫端必須持有 b.mu 寫鎖
func (b *base) commitLocked(ev *event) error {
	ev.Seq = b.st.seq + 1
	if b.wal != nil {
		if err := b.wal.Append(ev); err != nil {
			return domain.StorageError(err)
		}
	}
	b.st.apply(ev)
	return nil
}

// --- 讀取 ---

func (b *base) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.st.account(id)
}

func (b *base) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.st.accountByUsername(username)
}

func (b *base) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.st.listAccounts(), nil
}

func (b *base) GetActivity(ctx context.Context, id int64) (*domain.Activity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.st.activity(id)
}

func (b *base) ListActivity(ctx context.Context, filter domain.ActivityFilter) ([]*domain.Activity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.st.listActivity(filter), nil
}

func (b *base) ListMessages(ctx context.Context, accountID, afterID int64) ([]*domain.SupportMessage, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.st.accounts[accountID]; !ok {
		return nil, domain.ErrAccountNotFound
	}
	return b.st.listMessages(accountID, afterID), nil
}

func (b *base) ListNFTs(ctx context.Context) ([]*domain.NFT, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.st.listNFTs(), nil
}

// --- 寫入 ---

// CreateAccount 分配 ID 並回填到 acc
func (b *base) CreateAccount(ctx context.Context, acc *domain.Account) error {
	return b.write(ctx, func(st *state) error {
		ev, err := st.planCreateAccount(acc)
		if err != nil {
			return err
		}
		if err := b.commitLocked(ev); err != nil {
			return err
		}
		acc.ID = ev.Account.ID
		return nil
	})
}

func (b *base) RenameAccount(ctx context.Context, id int64, username string) (*domain.Account, error) {
	var out *domain.Account
	err := b.write(ctx, func(st *state) error {
		ev, err := st.planRename(id, username)
		if err != nil {
			return err
		}
		if err := b.commitLocked(ev); err != nil {
			return err
		}
		out, err = st.account(id)
		return err
	})
	return out, err
}

// mutateLocked 讀取副本、執行 fn、寫回，全部在同一次寫入內完成
func (b *base) mutateLocked(st *state, id int64, fn usecase.MutateFunc) (*domain.Account, *domain.Activity, error) {
	acc, err := st.account(id)
	if err != nil {
		return nil, nil, err
	}
	act, err := fn(acc)
	if err != nil {
		return nil, nil, err
	}
	return b.commitMutationLocked(st, acc, act)
}

func (b *base) commitMutationLocked(st *state, acc *domain.Account, act *domain.Activity) (*domain.Account, *domain.Activity, error) {
	ev, err := st.planMutation(acc, act)
	if err != nil {
		return nil, nil, err
	}
	if err := b.commitLocked(ev); err != nil {
		return nil, nil, err
	}
	out, err := st.account(acc.ID)
	if err != nil {
		return nil, nil, err
	}
	if ev.Activity == nil {
		return out, nil, nil
	}
	return out, ev.Activity.Clone(), nil
}

// Mutate 預設實作: 整個 read-modify-write 都在 write 內
func (b *base) Mutate(ctx context.Context, id int64, fn usecase.MutateFunc) (*domain.Account, *domain.Activity, error) {
	var (
		acc *domain.Account
		act *domain.Activity
	)
	err := b.write(ctx, func(st *state) error {
		var err error
		acc, act, err = b.mutateLocked(st, id, fn)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return acc, act, nil
}

func (b *base) DeleteAccount(ctx context.Context, id int64) error {
	return b.write(ctx, func(st *state) error {
		ev, err := st.planDeleteAccount(id)
		if err != nil {
			return err
		}
		return b.commitLocked(ev)
	})
}

func (b *base) ApproveWithdrawal(ctx context.Context, id int64, now time.Time) (*domain.Activity, error) {
	var out *domain.Activity
	err := b.write(ctx, func(st *state) error {
		ev, act, err := st.planApprove(id, now)
		if err != nil {
			return err
		}
		out = act
		if ev == nil {
			return nil
		}
		return b.commitLocked(ev)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AppendMessage 分配 ID 並回填到 msg
func (b *base) AppendMessage(ctx context.Context, msg *domain.SupportMessage) error {
	return b.write(ctx, func(st *state) error {
		ev, err := st.planMessage(msg)
		if err != nil {
			return err
		}
		if err := b.commitLocked(ev); err != nil {
			return err
		}
		msg.ID = ev.Message.ID
		return nil
	})
}

func (b *base) CreateNFT(ctx context.Context, nft *domain.NFT) error {
	return b.write(ctx, func(st *state) error {
		ev, err := st.planCreateNFT(nft)
		if err != nil {
			return err
		}
		return b.commitLocked(ev)
	})
}

func (b *base) DeleteNFT(ctx context.Context, id uuid.UUID) error {
	return b.write(ctx, func(st *state) error {
		ev, err := st.planDeleteNFT(id)
		if err != nil {
			return err
		}
		return b.commitLocked(ev)
	})
}
