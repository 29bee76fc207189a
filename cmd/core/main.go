package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-sim-trader/internal/app/core/adapter/in/grpc"
	http_adapter "github.com/JoeShih716/go-sim-trader/internal/app/core/adapter/in/http"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	"github.com/JoeShih716/go-sim-trader/internal/config"
	"github.com/JoeShih716/go-sim-trader/internal/seed"
	"github.com/JoeShih716/go-sim-trader/pkg/auth"
	"github.com/JoeShih716/go-sim-trader/pkg/logger"
	pb "github.com/JoeShih716/go-sim-trader/proto"
)

func main() {
	// 1. 載入設定
	path := os.Getenv("TRADER_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	zl, err := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Name: cfg.App.Name})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, zl)
	stop()
	if err != nil {
		zl.Error("server exited with error", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
	zl.Info("server exited")
	_ = zl.Sync()
}

// run 建立所有元件並啟動 gRPC / HTTP server，直到 ctx 結束或任一 server 失敗
//
// 不論成功或失敗，回傳前都會依相反順序釋放已建立的資源 (WAL、LMAX 引擎、DB 連線)。
func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	var release cleanup
	defer release.run()

	// 3. 儲存層
	store, err := openStore(ctx, cfg, zl, &release)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	zl.Info("store ready", zap.String("driver", string(cfg.Store.Driver)), zap.String("engine", string(cfg.Store.Engine)))

	// 4. 報價
	feed, err := newPriceFeed(ctx, cfg, zl, &release)
	if err != nil {
		return fmt.Errorf("init price feed: %w", err)
	}

	// 5. UseCase
	core := usecase.NewCore(store, feed, usecase.Options{
		StartingCash: cfg.Ledger.StartingCash,
		BcryptCost:   cfg.Auth.BcryptCost,
	}, zl)

	tokens, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("init token issuer: %w", err)
	}

	// 6. 管理員與示範資料
	if err := bootstrap(ctx, cfg, core, zl); err != nil {
		return err
	}

	// 7. gRPC Server
	lis, err := net.Listen("tcp", cfg.App.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.App.GRPCAddr, err)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpc_adapter.LoggingInterceptor(zl.Named("grpc")),
		grpc_adapter.AuthInterceptor(tokens),
	))
	pb.RegisterTraderServiceServer(grpcServer, grpc_adapter.NewGrpcServer(core, tokens, cfg.Ledger.AssetSymbol, zl))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer) // 方便 grpcurl 測試

	serveErr := make(chan error, 2)
	go func() {
		zl.Info("starting grpc server", zap.String("addr", cfg.App.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			serveErr <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	// 8. HTTP Server
	mode := gin.ReleaseMode
	if cfg.App.Env == "development" {
		mode = gin.DebugMode
	}
	httpServer := &http.Server{
		Addr:    cfg.App.HTTPAddr,
		Handler: http_adapter.NewRouter(http_adapter.NewHandler(core, tokens, cfg.Ledger.AssetSymbol, zl), mode),
	}
	go func() {
		zl.Info("starting http server", zap.String("addr", cfg.App.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Graceful Shutdown
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}
	zl.Info("shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	return runErr
}

// bootstrap 建立管理員帳號，並視設定建立示範帳號
//
// 沒有設定管理員密碼時不建立，也因此無法 seed。
func bootstrap(ctx context.Context, cfg *config.Config, core *usecase.Core, log *zap.Logger) error {
	if cfg.Admin.Password == "" {
		log.Warn("admin password not configured (TRADER_ADMIN_PASSWORD), skipping admin bootstrap")
		return nil
	}
	admin, created, err := core.Auth.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("ensure admin %q: %w", cfg.Admin.Username, err)
	}
	if created {
		log.Info("admin account created", zap.String("username", admin.Username))
	}

	if !cfg.Seed.Enabled {
		return nil
	}
	if cfg.Seed.Password == "" {
		log.Warn("seed enabled but seed.password is empty, skipping")
		return nil
	}
	principal := domain.Principal{AccountID: admin.ID, Role: admin.Role}
	n, err := seed.Run(ctx, core, principal, cfg.Seed.Password, seed.DefaultAccounts, log)
	if err != nil {
		return fmt.Errorf("seed demo accounts: %w", err)
	}
	log.Info("demo accounts seeded", zap.Int("created", n))
	return nil
}
