package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	"github.com/JoeShih716/go-sim-trader/pkg/auth"
	"github.com/JoeShih716/go-sim-trader/pkg/response"
	"github.com/JoeShih716/go-sim-trader/pkg/validation"
)

// Handler REST API，與 gRPC 服務共用同一組 usecase
type Handler struct {
	core     *usecase.Core
	tokens   *auth.Issuer
	symbol   string
	log      *zap.Logger
	validate *validator.Validate
}

func NewHandler(core *usecase.Core, tokens *auth.Issuer, symbol string, log *zap.Logger) *Handler {
	return &Handler{
		core:     core,
		tokens:   tokens,
		symbol:   symbol,
		log:      log.Named("http"),
		validate: validation.New(),
	}
}

// bind 解析 JSON body 並驗證，失敗時已寫入回應
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.WriteError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		response.WriteError(c, http.StatusBadRequest, "validation error", "invalid fields", validation.FormatValidationError(err)...)
		return false
	}
	return true
}

// queryInt 讀取非負整數 query，缺少時回傳 0
func queryInt(c *gin.Context, key string) (int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		response.WriteError(c, http.StatusBadRequest, "invalid query", key+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

func paramID(c *gin.Context, key string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil || v <= 0 {
		response.WriteError(c, http.StatusBadRequest, "invalid path", key+" must be a positive integer")
		return 0, false
	}
	return v, true
}

func queryKind(c *gin.Context) (domain.ActivityKind, bool) {
	kind, err := domain.ParseActivityKind(c.Query("kind"))
	if err != nil {
		response.WriteError(c, http.StatusBadRequest, "invalid query", err.Error())
		return "", false
	}
	return kind, true
}

// --- public ---

func (h *Handler) Health(c *gin.Context) {
	response.WriteSuccess(c, http.StatusOK, "ok", gin.H{"status": "up"})
}

func (h *Handler) Price(c *gin.Context) {
	p, err := h.core.Ledger.Quote(c.Request.Context())
	if err != nil {
		h.fail(c, "price unavailable", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "current price", priceResponse{Symbol: h.symbol, UnitPrice: p})
}

func (h *Handler) authenticated(c *gin.Context, code int, message string, acc *domain.Account) {
	token, exp, err := h.tokens.Issue(auth.Identity{AccountID: acc.ID, Role: string(acc.Role)})
	if err != nil {
		h.fail(c, "issue token failed", err)
		return
	}
	response.WriteSuccess(c, code, message, authResponse{Token: token, ExpiresAt: exp, Account: acc})
}

func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if !h.bind(c, &req) {
		return
	}
	acc, err := h.core.Auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, "register failed", err)
		return
	}
	h.authenticated(c, http.StatusCreated, "registered", acc)
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if !h.bind(c, &req) {
		return
	}
	acc, err := h.core.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, "login failed", err)
		return
	}
	h.authenticated(c, http.StatusOK, "logged in", acc)
}

func (h *Handler) ListNFTs(c *gin.Context) {
	nfts, err := h.core.Ledger.ListNFTs(c.Request.Context())
	if err != nil {
		h.fail(c, "list nfts failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "nfts", nfts)
}

// --- user ---

func (h *Handler) GetAccount(c *gin.Context) {
	acc, err := h.core.Ledger.GetAccount(c.Request.Context(), principal(c).AccountID)
	if err != nil {
		h.fail(c, "get account failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "account", acc)
}

func (h *Handler) Rename(c *gin.Context) {
	var req renameRequest
	if !h.bind(c, &req) {
		return
	}
	acc, err := h.core.Auth.RenameAccount(c.Request.Context(), principal(c), req.Username)
	if err != nil {
		h.fail(c, "rename failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "renamed", acc)
}

func (h *Handler) Portfolio(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	pf, err := h.core.Ledger.GetPortfolio(c.Request.Context(), principal(c).AccountID, int(limit))
	if err != nil {
		h.fail(c, "get portfolio failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "portfolio", pf)
}

type tradeFunc func(ctx context.Context, accountID int64, assetAmount, unitPrice decimal.Decimal) (*domain.Account, *domain.Activity, error)

func (h *Handler) trade(c *gin.Context, message string, fn tradeFunc) {
	var req tradeRequest
	if !h.bind(c, &req) {
		return
	}
	var price decimal.Decimal
	if req.UnitPrice != nil {
		price = *req.UnitPrice
	} else {
		var err error
		if price, err = h.core.Ledger.Quote(c.Request.Context()); err != nil {
			h.fail(c, "price unavailable", err)
			return
		}
	}
	acc, act, err := fn(c.Request.Context(), principal(c).AccountID, req.AssetAmount, price)
	if err != nil {
		h.fail(c, message+" failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, message, gin.H{"account": acc, "activity": act})
}

func (h *Handler) Buy(c *gin.Context) {
	h.trade(c, "buy", h.core.Ledger.Buy)
}

func (h *Handler) Sell(c *gin.Context) {
	h.trade(c, "sell", h.core.Ledger.Sell)
}

func (h *Handler) Withdraw(c *gin.Context) {
	var req withdrawRequest
	if !h.bind(c, &req) {
		return
	}
	acc, act, err := h.core.Ledger.RequestWithdrawal(c.Request.Context(), principal(c).AccountID, req.Amount, req.Wallet)
	if err != nil {
		h.fail(c, "withdraw failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusCreated, "withdrawal requested", gin.H{"account": acc, "activity": act})
}

func (h *Handler) ListActivity(c *gin.Context) {
	kind, ok := queryKind(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	acts, err := h.core.Ledger.ListActivity(c.Request.Context(), principal(c).AccountID, kind, int(limit))
	if err != nil {
		h.fail(c, "list activity failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "activity", acts)
}

func (h *Handler) PostMessage(c *gin.Context) {
	var req messageRequest
	if !h.bind(c, &req) {
		return
	}
	msg, err := h.core.Support.Post(c.Request.Context(), principal(c).AccountID, domain.SenderUser, req.Text)
	if err != nil {
		h.fail(c, "post message failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusCreated, "message posted", msg)
}

func (h *Handler) ListMessages(c *gin.Context) {
	afterID, ok := queryInt(c, "after_id")
	if !ok {
		return
	}
	msgs, err := h.core.Support.List(c.Request.Context(), principal(c).AccountID, afterID)
	if err != nil {
		h.fail(c, "list messages failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "messages", msgs)
}

// --- admin ---

func (h *Handler) AdminListAccounts(c *gin.Context) {
	accounts, err := h.core.Admin.ListAccounts(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, "list accounts failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "accounts", accounts)
}

func (h *Handler) AdminListActivity(c *gin.Context) {
	kind, ok := queryKind(c)
	if !ok {
		return
	}
	accountID, ok := queryInt(c, "account_id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	views, err := h.core.Admin.ListActivity(c.Request.Context(), principal(c), domain.ActivityFilter{
		AccountID: accountID,
		Kind:      kind,
		Limit:     int(limit),
	})
	if err != nil {
		h.fail(c, "list activity failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "activity", views)
}

func (h *Handler) AdminAdjust(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req adjustRequest
	if !h.bind(c, &req) {
		return
	}
	acc, act, err := h.core.Admin.Adjust(c.Request.Context(), principal(c), id, req.CashDelta, req.AssetDelta)
	if err != nil {
		h.fail(c, "adjust failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "adjusted", gin.H{"account": acc, "activity": act})
}

func (h *Handler) AdminDeleteAccount(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.core.Admin.DeleteAccount(c.Request.Context(), principal(c), id); err != nil {
		h.fail(c, "delete account failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "account deleted", nil)
}

func (h *Handler) AdminApproveWithdrawal(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	act, err := h.core.Admin.ApproveWithdrawal(c.Request.Context(), principal(c), id)
	if err != nil {
		h.fail(c, "approve failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "withdrawal approved", act)
}

func (h *Handler) AdminCreateNFT(c *gin.Context) {
	var req createNFTRequest
	if !h.bind(c, &req) {
		return
	}
	nft, err := h.core.Admin.CreateNFT(c.Request.Context(), principal(c), req.Name, req.ImageURL, req.Price)
	if err != nil {
		h.fail(c, "create nft failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusCreated, "nft created", nft)
}

func (h *Handler) AdminDeleteNFT(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.WriteError(c, http.StatusBadRequest, "invalid path", "id must be a uuid")
		return
	}
	if err := h.core.Admin.DeleteNFT(c.Request.Context(), principal(c), id); err != nil {
		h.fail(c, "delete nft failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "nft deleted", nil)
}

func (h *Handler) AdminReply(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req messageRequest
	if !h.bind(c, &req) {
		return
	}
	msg, err := h.core.Admin.Reply(c.Request.Context(), principal(c), id, req.Text)
	if err != nil {
		h.fail(c, "reply failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusCreated, "reply posted", msg)
}

func (h *Handler) AdminListMessages(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	afterID, ok := queryInt(c, "after_id")
	if !ok {
		return
	}
	msgs, err := h.core.Admin.ListMessages(c.Request.Context(), principal(c), id, afterID)
	if err != nil {
		h.fail(c, "list messages failed", err)
		return
	}
	response.WriteSuccess(c, http.StatusOK, "messages", msgs)
}
