package wal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// 自己定義常用的權限常量
const (
	// rw-r--r-- (擁有者讀寫，其他人唯讀) - 適用於大多數檔案
	FileModeReadOnly fs.FileMode = 0644

	// rwxr-xr-x (擁有者全開，其他人可讀可執行) - 適用於目錄
	FileModeExecutable fs.FileMode = 0755

	// rw------- (只有擁有者可讀寫) - WAL 內含密碼雜湊，預設使用這個
	FileModePrivate fs.FileMode = 0600
)

// WAL 是 JSON Lines 格式的 Write-Ahead Log
//
// 每次 Append 寫入一行並 fsync，重啟時以 Replay 依序讀回。
type WAL struct {
	file *os.File
	mu   sync.Mutex
	// noSync 測試用，略過 fsync
	noSync bool
}

// Option WAL 設定
type Option func(*WAL)

// WithoutSync 不做 fsync，只建議在測試使用
func WithoutSync() Option {
	return func(w *WAL) {
		w.noSync = true
	}
}

// Open 開啟或建立一個 WAL 檔案 (目錄不存在時一併建立)
// O_RDWR讀寫模式
// O_APPEND 每次寫入時自動跳到文件末尾
// O_CREATE 如果文件不存在則建立
func Open(path string, opts ...Option) (*WAL, error) {
	if err := os.MkdirAll(filepath.Dir(path), FileModeExecutable); err != nil {
		return nil, fmt.Errorf("wal: create dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModePrivate)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}
	w := &WAL{file: file}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Append 寫入一筆資料並刷入硬碟
func (w *WAL) Append(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wal: encode: %w", err)
	}
	b = append(b, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	// 一次 Write 寫完整一行，避免半行
	if _, err := w.file.Write(b); err != nil {
		return fmt.Errorf("wal: write: %w", err)
	}
	if w.noSync {
		return nil
	}
	return w.file.Sync()
}

// Replay 由頭讀取所有資料
//
// callback 接收每一筆的原始 JSON，回傳 error 會中止讀取。
// 檔尾若有不完整的一行 (寫到一半當機)，會被截斷後視為正常結束。
func (w *WAL) Replay(callback func(raw json.RawMessage) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// 確保從頭讀取
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(w.file)
	var good int64
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return w.file.Truncate(good)
			}
			return fmt.Errorf("wal: decode at offset %d: %w", good, err)
		}
		good = decoder.InputOffset()
		if err := callback(raw); err != nil {
			return err
		}
	}
}

// Close 關閉檔案
func (w *WAL) Close() error {
	return w.file.Close()
}
