package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	rpc "github.com/JoeShih716/go-sim-trader/pkg/grpc"
	pb "github.com/JoeShih716/go-sim-trader/proto"
)

// 壓測: 註冊一個新帳號，併發送出買賣單，最後確認餘額沒有變成負數
// 且價值守恆 (固定價格下 cash + asset*price 不變)。
func main() {
	target := flag.String("target", "localhost:50051", "grpc server address")
	total := flag.Int("n", 10000, "total requests")
	concurrency := flag.Int("c", 200, "concurrent requests")
	flag.Parse()

	pool := rpc.NewPool(rpc.WithInterceptor(rpc.BearerToken(rpc.ContextToken)))
	defer pool.Close()
	conn, err := pool.GetConnection(*target)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	c := pb.NewTraderServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	// 1. 建立測試帳號
	username := "probe-" + uuid.NewString()[:8]
	reply, err := c.Register(ctx, &pb.Credentials{Username: username, Password: "probe-pass"})
	if err != nil {
		log.Fatalf("register failed: %v", err)
	}
	ctx = rpc.WithToken(ctx, reply.Token)
	start := reply.Account
	log.Printf("registered %s (id=%d) cash=%s", username, start.ID, start.Cash)

	// 固定價格，每筆 1 單位
	price := decimal.NewFromInt(100)
	amount := decimal.NewFromInt(1)

	var (
		wg       sync.WaitGroup
		ok       atomic.Int64
		rejected atomic.Int64
		failed   atomic.Int64
	)
	sem := make(chan struct{}, *concurrency)
	startTime := time.Now()

	for i := 0; i < *total; i++ {
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			req := &pb.TradeRequest{AssetAmount: amount, UnitPrice: &price}
			var err error
			if idx%2 == 0 {
				_, err = c.Buy(ctx, req)
			} else {
				_, err = c.Sell(ctx, req)
			}
			switch status.Code(err) {
			case codes.OK:
				ok.Add(1)
			case codes.FailedPrecondition:
				// 餘額不足是預期內的拒絕
				rejected.Add(1)
			default:
				failed.Add(1)
				if failed.Load()%1000 == 1 {
					log.Printf("request %d failed: %v", idx, err)
				}
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	// 2. 檢查結果
	final, err := c.GetAccount(ctx, &pb.Empty{})
	if err != nil {
		log.Fatalf("get account failed: %v", err)
	}
	before := start.Cash.Add(start.Asset.Mul(price))
	after := final.Cash.Add(final.Asset.Mul(price))

	fmt.Printf("Completed %d requests in %v (ok=%d rejected=%d failed=%d)\n",
		*total, elapsed, ok.Load(), rejected.Load(), failed.Load())
	fmt.Printf("TPS: %.2f\n", float64(*total)/elapsed.Seconds())
	fmt.Printf("Final cash=%s asset=%s\n", final.Cash, final.Asset)

	if final.Cash.IsNegative() || final.Asset.IsNegative() {
		log.Fatalf("negative balance detected")
	}
	if !before.Equal(after) {
		log.Fatalf("value not conserved: before=%s after=%s", before, after)
	}
	fmt.Println("Balances consistent")
}
