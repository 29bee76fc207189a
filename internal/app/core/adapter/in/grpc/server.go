package grpc

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	"github.com/JoeShih716/go-sim-trader/pkg/auth"
	pb "github.com/JoeShih716/go-sim-trader/proto"
)

// GrpcServer TraderService 的 gRPC 實作
//
// 身分一律取自 AuthInterceptor 放進 context 的 Principal，
// 使用者相關方法只會作用在呼叫者自己的帳戶上。
type GrpcServer struct {
	pb.UnimplementedTraderServiceServer
	core   *usecase.Core
	tokens *auth.Issuer
	symbol string
	log    *zap.Logger
}

// NewGrpcServer 建立 gRPC 服務
//
// 參數:
//
//	core: 用例集合
//	tokens: 簽發 / 驗證 JWT
//	symbol: 報價回傳的資產代號
//	log: 日誌
func NewGrpcServer(core *usecase.Core, tokens *auth.Issuer, symbol string, log *zap.Logger) *GrpcServer {
	return &GrpcServer{
		core:   core,
		tokens: tokens,
		symbol: symbol,
		log:    log.Named("grpc"),
	}
}

func (s *GrpcServer) authReply(acc *domain.Account) (*pb.AuthReply, error) {
	token, exp, err := s.tokens.Issue(auth.Identity{AccountID: acc.ID, Role: string(acc.Role)})
	if err != nil {
		s.log.Error("issue token failed", zap.Int64("account_id", acc.ID), zap.Error(err))
		return nil, status.Error(codes.Internal, "issue token failed")
	}
	return &pb.AuthReply{Token: token, ExpiresAt: exp, Account: toPBAccount(acc)}, nil
}

func (s *GrpcServer) Register(ctx context.Context, req *pb.Credentials) (*pb.AuthReply, error) {
	acc, err := s.core.Auth.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.authReply(acc)
}

func (s *GrpcServer) Login(ctx context.Context, req *pb.Credentials) (*pb.AuthReply, error) {
	acc, err := s.core.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.authReply(acc)
}

func (s *GrpcServer) GetAccount(ctx context.Context, _ *pb.Empty) (*pb.Account, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	acc, err := s.core.Ledger.GetAccount(ctx, p.AccountID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toPBAccount(acc), nil
}

func (s *GrpcServer) Rename(ctx context.Context, req *pb.RenameRequest) (*pb.Account, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	acc, err := s.core.Auth.RenameAccount(ctx, p, req.Username)
	if err != nil {
		return nil, toStatus(err)
	}
	return toPBAccount(acc), nil
}

// unitPrice 請求沒帶價格時改用目前報價，帶了就原樣交給 ledger 驗證
func (s *GrpcServer) unitPrice(ctx context.Context, requested *decimal.Decimal) (decimal.Decimal, error) {
	if requested != nil {
		return *requested, nil
	}
	return s.core.Ledger.Quote(ctx)
}

func ledgerReply(acc *domain.Account, act *domain.Activity) *pb.LedgerReply {
	return &pb.LedgerReply{Account: toPBAccount(acc), Activity: toPBActivity(act)}
}

func (s *GrpcServer) Buy(ctx context.Context, req *pb.TradeRequest) (*pb.LedgerReply, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	price, err := s.unitPrice(ctx, req.UnitPrice)
	if err != nil {
		return nil, toStatus(err)
	}
	acc, act, err := s.core.Ledger.Buy(ctx, p.AccountID, req.AssetAmount, price)
	if err != nil {
		return nil, toStatus(err)
	}
	return ledgerReply(acc, act), nil
}

func (s *GrpcServer) Sell(ctx context.Context, req *pb.TradeRequest) (*pb.LedgerReply, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	price, err := s.unitPrice(ctx, req.UnitPrice)
	if err != nil {
		return nil, toStatus(err)
	}
	acc, act, err := s.core.Ledger.Sell(ctx, p.AccountID, req.AssetAmount, price)
	if err != nil {
		return nil, toStatus(err)
	}
	return ledgerReply(acc, act), nil
}

func (s *GrpcServer) Withdraw(ctx context.Context, req *pb.WithdrawRequest) (*pb.LedgerReply, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	acc, act, err := s.core.Ledger.RequestWithdrawal(ctx, p.AccountID, req.Amount, req.Wallet)
	if err != nil {
		return nil, toStatus(err)
	}
	return ledgerReply(acc, act), nil
}

func (s *GrpcServer) ListActivity(ctx context.Context, req *pb.ListActivityRequest) (*pb.ActivityList, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := domain.ParseActivityKind(req.Kind)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	acts, err := s.core.Ledger.ListActivity(ctx, p.AccountID, kind, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.ActivityList{Items: toPBActivities(acts)}, nil
}

func (s *GrpcServer) GetPortfolio(ctx context.Context, req *pb.PortfolioRequest) (*pb.Portfolio, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	pf, err := s.core.Ledger.GetPortfolio(ctx, p.AccountID, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.Portfolio{
		Account:   toPBAccount(pf.Account),
		Activity:  toPBActivities(pf.Activity),
		UnitPrice: pf.UnitPrice,
		Valuation: pf.Valuation,
	}, nil
}

func (s *GrpcServer) GetPrice(ctx context.Context, _ *pb.Empty) (*pb.PriceReply, error) {
	price, err := s.core.Ledger.Quote(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.PriceReply{Symbol: s.symbol, UnitPrice: price}, nil
}

func (s *GrpcServer) PostMessage(ctx context.Context, req *pb.PostMessageRequest) (*pb.Message, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := s.core.Support.Post(ctx, p.AccountID, domain.SenderUser, req.Text)
	if err != nil {
		return nil, toStatus(err)
	}
	return toPBMessage(msg), nil
}

func (s *GrpcServer) ListMessages(ctx context.Context, req *pb.ListMessagesRequest) (*pb.MessageList, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := s.core.Support.List(ctx, p.AccountID, req.AfterID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.MessageList{Items: toPBMessages(msgs)}, nil
}

func (s *GrpcServer) ListNFTs(ctx context.Context, _ *pb.Empty) (*pb.NFTList, error) {
	nfts, err := s.core.Ledger.ListNFTs(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]*pb.NFT, 0, len(nfts))
	for _, n := range nfts {
		out = append(out, toPBNFT(n))
	}
	return &pb.NFTList{Items: out}, nil
}

// --- admin ---

func (s *GrpcServer) AdminListAccounts(ctx context.Context, _ *pb.Empty) (*pb.AccountList, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.core.Admin.ListAccounts(ctx, p)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]*pb.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toPBAccount(a))
	}
	return &pb.AccountList{Items: out}, nil
}

func (s *GrpcServer) AdminListActivity(ctx context.Context, req *pb.ListActivityRequest) (*pb.ActivityList, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := domain.ParseActivityKind(req.Kind)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	views, err := s.core.Admin.ListActivity(ctx, p, domain.ActivityFilter{
		AccountID: req.AccountID,
		Kind:      kind,
		Limit:     req.Limit,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.ActivityList{Items: toPBActivityViews(views)}, nil
}

func (s *GrpcServer) AdminAdjust(ctx context.Context, req *pb.AdjustRequest) (*pb.LedgerReply, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	acc, act, err := s.core.Admin.Adjust(ctx, p, req.AccountID, req.CashDelta, req.AssetDelta)
	if err != nil {
		return nil, toStatus(err)
	}
	return ledgerReply(acc, act), nil
}

func (s *GrpcServer) AdminApproveWithdrawal(ctx context.Context, req *pb.ApproveRequest) (*pb.Activity, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	act, err := s.core.Admin.ApproveWithdrawal(ctx, p, req.WithdrawalID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toPBActivity(act), nil
}

func (s *GrpcServer) AdminDeleteAccount(ctx context.Context, req *pb.DeleteAccountRequest) (*pb.Empty, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.core.Admin.DeleteAccount(ctx, p, req.AccountID); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func (s *GrpcServer) AdminCreateNFT(ctx context.Context, req *pb.CreateNFTRequest) (*pb.NFT, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	nft, err := s.core.Admin.CreateNFT(ctx, p, req.Name, req.ImageURL, req.Price)
	if err != nil {
		return nil, toStatus(err)
	}
	return toPBNFT(nft), nil
}

func (s *GrpcServer) AdminDeleteNFT(ctx context.Context, req *pb.DeleteNFTRequest) (*pb.Empty, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid nft id: "+err.Error())
	}
	if err := s.core.Admin.DeleteNFT(ctx, p, id); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func (s *GrpcServer) AdminReply(ctx context.Context, req *pb.PostMessageRequest) (*pb.Message, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := s.core.Admin.Reply(ctx, p, req.AccountID, req.Text)
	if err != nil {
		return nil, toStatus(err)
	}
	return toPBMessage(msg), nil
}

func (s *GrpcServer) AdminListMessages(ctx context.Context, req *pb.ListMessagesRequest) (*pb.MessageList, error) {
	p, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := s.core.Admin.ListMessages(ctx, p, req.AccountID, req.AfterID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.MessageList{Items: toPBMessages(msgs)}, nil
}

var _ pb.TraderServiceServer = (*GrpcServer)(nil)

