package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/config"
	"github.com/JoeShih716/go-sim-trader/pkg/wal"
)

func TestCleanupRunsInReverse(t *testing.T) {
	var order []int
	var release cleanup
	for i := 1; i <= 3; i++ {
		i := i
		release.add(func() { order = append(order, i) })
	}
	release.run()
	assert.Equal(t, []int{3, 2, 1}, order)
}

// TestRunReleasesOnStartupFailure 啟動中途失敗時 run 回傳錯誤，WAL 與 LMAX 引擎都已收尾
func TestRunReleasesOnStartupFailure(t *testing.T) {
	dir := t.TempDir()
	walPath := filepath.Join(dir, "wal.log")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
app:
  grpc_addr: "127.0.0.1:-1"
store:
  driver: memory
  engine: lmax
  wal_path: `+walPath+`
auth:
  jwt_secret: test-secret
  bcrypt_cost: 4
admin:
  username: operator
  password: operator-pw
price:
  source: static
  static_price: "100"
`), 0600))
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	err = run(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")

	// 管理員已寫入 WAL，重新開啟後可以恢復
	w, err := wal.Open(walPath)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	store, err := memory.NewMutexStore(w)
	require.NoError(t, err)
	admin, err := store.GetAccountByUsername(context.Background(), "operator")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}
