package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter 建立 gin engine 並掛上所有路由
//
// 參數:
//
//	h: handler
//	mode: gin.ReleaseMode / gin.DebugMode / gin.TestMode
//
// 回傳:
//
//	*gin.Engine: 可直接交給 http.Server
func NewRouter(h *Handler, mode string) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(RequestID(), Logger(h.log), Recovery(h.log))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/price", h.Price)
		api.GET("/nfts", h.ListNFTs)
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
	}

	user := api.Group("", Authenticate(h.tokens))
	{
		user.GET("/account", h.GetAccount)
		user.PATCH("/account", h.Rename)
		user.GET("/portfolio", h.Portfolio)
		user.GET("/activity", h.ListActivity)
		user.POST("/trades/buy", h.Buy)
		user.POST("/trades/sell", h.Sell)
		user.POST("/withdrawals", h.Withdraw)
		user.GET("/support/messages", h.ListMessages)
		user.POST("/support/messages", h.PostMessage)
	}

	// 角色由 AdminService 再次確認，這裡只負責驗證 token
	admin := api.Group("/admin", Authenticate(h.tokens))
	{
		admin.GET("/accounts", h.AdminListAccounts)
		admin.DELETE("/accounts/:id", h.AdminDeleteAccount)
		admin.POST("/accounts/:id/adjust", h.AdminAdjust)
		admin.GET("/accounts/:id/messages", h.AdminListMessages)
		admin.POST("/accounts/:id/messages", h.AdminReply)
		admin.GET("/activity", h.AdminListActivity)
		admin.POST("/withdrawals/:id/approve", h.AdminApproveWithdrawal)
		admin.POST("/nfts", h.AdminCreateNFT)
		admin.DELETE("/nfts/:id", h.AdminDeleteNFT)
	}

	return r
}
