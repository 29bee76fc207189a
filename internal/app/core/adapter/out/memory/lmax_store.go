package memory

import (
	"context"
	"sync"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	"github.com/JoeShih716/go-sim-trader/pkg/wal"
)

// writeRequest 寫入請求包裝 channel，讓呼叫端可以等待結果
type writeRequest struct {
	fn     writeFunc
	result chan error
}

// LMAXStore 單一寫入者 (Single Writer) 的儲存
//
// 所有寫入經由輸送帶交給同一個 goroutine 依序執行，不需要帳戶鎖；
// 讀取仍透過 RWMutex 讀 state 副本。
type LMAXStore struct {
	*base
	// 輸送帶 負責接收寫入
	requests chan *writeRequest
	// Pool 減少 GC 壓力
	requestPool sync.Pool
	// done 引擎停止 (drain 完成) 後關閉
	done      chan struct{}
	startOnce sync.Once
}

// NewLMAXStore 建立一個新的 LMAXStore 實例，需呼叫 Start 才會開始處理寫入
//
// 參數:
//
//	w: Write-Ahead Log 實例，nil 代表不落地
//	buffer: 輸送帶長度，<= 0 時使用 1000
//
// 回傳:
//
//	*LMAXStore: LMAXStore 實例
//	error: WAL 恢復錯誤
func NewLMAXStore(w *wal.WAL, buffer int) (*LMAXStore, error) {
	if buffer <= 0 {
		buffer = 1000
	}
	b, err := newBase(w)
	if err != nil {
		return nil, err
	}
	l := &LMAXStore{
		base:     b,
		requests: make(chan *writeRequest, buffer),
		done:     make(chan struct{}),
		requestPool: sync.Pool{
			New: func() any {
				return &writeRequest{result: make(chan error, 1)}
			},
		},
	}
	b.write = l.submit
	return l, nil
}

// Start 啟動核心引擎 (非同步)，ctx 取消後會把輸送帶上剩下的請求處理完再停止
func (l *LMAXStore) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		go l.run(ctx)
	})
}

// Done 引擎完全停止後關閉
func (l *LMAXStore) Done() <-chan struct{} {
	return l.done
}

// submit Submit(等待) -> Channel -> Run Loop -> WAL -> State -> Result Channel -> Submit(收到結果)
func (l *LMAXStore) submit(ctx context.Context, fn writeFunc) error {
	req := l.requestPool.Get().(*writeRequest)
	req.fn = fn

	select {
	case l.requests <- req:
	case <-ctx.Done():
		req.fn = nil
		l.requestPool.Put(req)
		return ctx.Err()
	case <-l.done:
		req.fn = nil
		l.requestPool.Put(req)
		return ErrEngineStopped
	}

	// 已進入輸送帶就必須等結果，否則回收的 req 可能被寫入兩次
	select {
	case err := <-req.result:
		req.fn = nil
		l.requestPool.Put(req)
		return err
	case <-l.done:
		// drain 處理過的請求結果會在 done 關閉前送出
		select {
		case err := <-req.result:
			return err
		default:
			// 停止後才放進輸送帶，沒有人會處理；不放回 Pool
			return ErrEngineStopped
		}
	}
}

func (l *LMAXStore) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的請求處理完
			l.drain()
			return
		case req := <-l.requests:
			l.process(req)
		}
	}
}

func (l *LMAXStore) drain() {
	for {
		select {
		case req := <-l.requests:
			l.process(req)
		default:
			return
		}
	}
}

// process 單一寫入者仍需持有寫鎖，讀取端才不會看到寫到一半的 state
func (l *LMAXStore) process(req *writeRequest) {
	l.mu.Lock()
	err := req.fn(l.st)
	l.mu.Unlock()
	req.result <- err
}

var _ usecase.Store = (*LMAXStore)(nil)
