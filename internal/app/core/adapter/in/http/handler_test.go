package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	"github.com/JoeShih716/go-sim-trader/pkg/auth"
	"github.com/JoeShih716/go-sim-trader/pkg/price"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details []string        `json:"details"`
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	core   *usecase.Core
}

func newTestAPI(t *testing.T) *testAPI {
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
	return &testAPI{
		t:      t,
		router: NewRouter(NewHandler(core, tokens, "BTC", zap.NewNop()), gin.TestMode),
		core:   core,
	}
}

func (a *testAPI) do(method, path, token string, body any) (int, apiResponse) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

// register 註冊並回傳 token 與帳戶 ID
func (a *testAPI) register(username string) (string, int64) {
	a.t.Helper()
	code, resp := a.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": username, "password": "pw1234"})
	require.Equal(a.t, http.StatusCreated, code, resp.Error)
	var out struct {
		Token   string `json:"token"`
		Account struct {
			ID int64 `json:"id"`
		} `json:"account"`
	}
	require.NoError(a.t, json.Unmarshal(resp.Data, &out))
	return out.Token, out.Account.ID
}

func (a *testAPI) adminToken() string {
	a.t.Helper()
	_, _, err := a.core.Auth.EnsureAdmin(context.Background(), "root", "rootpw")
	require.NoError(a.t, err)
	code, resp := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "root", "password": "rootpw"})
	require.Equal(a.t, http.StatusOK, code)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(resp.Data, &out))
	return out.Token
}

type ledgerData struct {
	Account struct {
		Cash  decimal.Decimal `json:"cash"`
		Asset decimal.Decimal `json:"asset"`
	} `json:"account"`
	Activity struct {
		ID         int64 `json:"id"`
		Kind       string
		Withdrawal *struct {
			Status string `json:"status"`
		} `json:"withdrawal"`
	} `json:"activity"`
}

func TestHealthAndPrice(t *testing.T) {
	api := newTestAPI(t)

	code, resp := api.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	code, resp = api.do(http.MethodGet, "/api/price", "", nil)
	require.Equal(t, http.StatusOK, code)
	var p priceResponse
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	assert.Equal(t, "BTC", p.Symbol)
	assert.True(t, decimal.NewFromInt(100).Equal(p.UnitPrice))
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice")

	code, resp := api.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "Alice", "password": "pw1234"})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)

	code, _ = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Details, "Password is required")
}

func TestTradeFlow(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("bob")

	code, resp := api.do(http.MethodPost, "/api/trades/buy", token, gin.H{"asset_amount": "3"})
	require.Equal(t, http.StatusOK, code, resp.Error)
	var out ledgerData
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.True(t, decimal.NewFromInt(700).Equal(out.Account.Cash))
	assert.True(t, decimal.NewFromInt(3).Equal(out.Account.Asset))

	code, resp = api.do(http.MethodPost, "/api/trades/buy", token, gin.H{"asset_amount": "1", "unit_price": "701"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "insufficient funds", resp.Error)

	// 明確給 0 價格要被拒絕，不能改用報價
	code, resp = api.do(http.MethodPost, "/api/trades/buy", token, gin.H{"asset_amount": "1", "unit_price": "0"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "amount must be positive", resp.Error)
	code, _ = api.do(http.MethodPost, "/api/trades/sell", token, gin.H{"asset_amount": "1", "unit_price": "-1"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(http.MethodPost, "/api/trades/sell", token, gin.H{"asset_amount": "0"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Details, "AssetAmount must be greater than 0")

	code, _ = api.do(http.MethodPost, "/api/trades/sell", token, gin.H{"asset_amount": "1", "unit_price": "200"})
	assert.Equal(t, http.StatusOK, code)

	code, resp = api.do(http.MethodGet, "/api/activity?kind=trade&limit=1", token, nil)
	require.Equal(t, http.StatusOK, code)
	var acts []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &acts))
	require.Len(t, acts, 1)
	assert.Equal(t, "sell", acts[0]["trade"].(map[string]any)["direction"])

	code, _ = api.do(http.MethodGet, "/api/activity?kind=nope", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(http.MethodGet, "/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, code)
	var pf struct {
		Valuation decimal.Decimal `json:"valuation"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &pf))
	// 900 現金 + 2 * 100
	assert.True(t, decimal.NewFromInt(1100).Equal(pf.Valuation))
}

func TestUnauthorized(t *testing.T) {
	api := newTestAPI(t)

	code, _ := api.do(http.MethodGet, "/api/account", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodGet, "/api/account", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token, _ := api.register("carol")
	code, _ = api.do(http.MethodGet, "/api/admin/accounts", token, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestWithdrawApproveAndAdmin(t *testing.T) {
	api := newTestAPI(t)
	admin := api.adminToken()
	token, id := api.register("dave")

	code, resp := api.do(http.MethodPost, "/api/withdrawals", token, gin.H{"amount": "250", "wallet": "0xdead"})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	var w ledgerData
	require.NoError(t, json.Unmarshal(resp.Data, &w))
	assert.True(t, decimal.NewFromInt(750).Equal(w.Account.Cash))
	require.NotNil(t, w.Activity.Withdrawal)
	assert.Equal(t, "pending", w.Activity.Withdrawal.Status)

	code, _ = api.do(http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%d/approve", w.Activity.ID), token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	for i := 0; i < 2; i++ {
		code, resp = api.do(http.MethodPost, fmt.Sprintf("/api/admin/withdrawals/%d/approve", w.Activity.ID), admin, nil)
		require.Equal(t, http.StatusOK, code, resp.Error)
	}

	code, resp = api.do(http.MethodPost, fmt.Sprintf("/api/admin/accounts/%d/adjust", id), admin, gin.H{"cash_delta": "-750", "asset_delta": "0.5"})
	require.Equal(t, http.StatusOK, code, resp.Error)
	var adj ledgerData
	require.NoError(t, json.Unmarshal(resp.Data, &adj))
	assert.True(t, adj.Account.Cash.IsZero())

	code, _ = api.do(http.MethodPost, "/api/admin/accounts/abc/adjust", admin, gin.H{"cash_delta": "1"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(http.MethodGet, fmt.Sprintf("/api/admin/activity?account_id=%d", id), admin, nil)
	require.Equal(t, http.StatusOK, code)
	var views []struct {
		Kind     string `json:"kind"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &views))
	require.Len(t, views, 2)
	assert.Equal(t, "topup", views[0].Kind)
	assert.Equal(t, "dave", views[0].Username)

	code, _ = api.do(http.MethodDelete, fmt.Sprintf("/api/admin/accounts/%d", id), admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/account", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSupportAndCatalog(t *testing.T) {
	api := newTestAPI(t)
	admin := api.adminToken()
	token, id := api.register("erin")

	code, _ := api.do(http.MethodPost, "/api/support/messages", token, gin.H{"text": "help"})
	require.Equal(t, http.StatusCreated, code)
	code, _ = api.do(http.MethodPost, fmt.Sprintf("/api/admin/accounts/%d/messages", id), admin, gin.H{"text": "on it"})
	require.Equal(t, http.StatusCreated, code)

	code, resp := api.do(http.MethodGet, "/api/support/messages?after_id=1", token, nil)
	require.Equal(t, http.StatusOK, code)
	var msgs []struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "admin", msgs[0].Sender)

	code, resp = api.do(http.MethodPost, "/api/admin/nfts", admin, gin.H{"name": "Punk", "image_url": "https://example.com/p.png", "price": "12.5"})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	var nft struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &nft))

	code, resp = api.do(http.MethodGet, "/api/nfts", "", nil)
	require.Equal(t, http.StatusOK, code)
	var nfts []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &nfts))
	assert.Len(t, nfts, 1)

	code, _ = api.do(http.MethodDelete, "/api/admin/nfts/"+nft.ID, admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodDelete, "/api/admin/nfts/"+nft.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
