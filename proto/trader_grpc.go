package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName gRPC 服務全名
const ServiceName = "simtrader.v1.TraderService"

// FullMethod 組出 "/simtrader.v1.TraderService/Method"
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// TraderServiceServer 伺服器端需實作的方法
type TraderServiceServer interface {
	Register(context.Context, *Credentials) (*AuthReply, error)
	Login(context.Context, *Credentials) (*AuthReply, error)
	GetAccount(context.Context, *Empty) (*Account, error)
	Rename(context.Context, *RenameRequest) (*Account, error)
	Buy(context.Context, *TradeRequest) (*LedgerReply, error)
	Sell(context.Context, *TradeRequest) (*LedgerReply, error)
	Withdraw(context.Context, *WithdrawRequest) (*LedgerReply, error)
	ListActivity(context.Context, *ListActivityRequest) (*ActivityList, error)
	GetPortfolio(context.Context, *PortfolioRequest) (*Portfolio, error)
	GetPrice(context.Context, *Empty) (*PriceReply, error)
	PostMessage(context.Context, *PostMessageRequest) (*Message, error)
	ListMessages(context.Context, *ListMessagesRequest) (*MessageList, error)
	ListNFTs(context.Context, *Empty) (*NFTList, error)

	AdminListAccounts(context.Context, *Empty) (*AccountList, error)
	AdminListActivity(context.Context, *ListActivityRequest) (*ActivityList, error)
	AdminAdjust(context.Context, *AdjustRequest) (*LedgerReply, error)
	AdminApproveWithdrawal(context.Context, *ApproveRequest) (*Activity, error)
	AdminDeleteAccount(context.Context, *DeleteAccountRequest) (*Empty, error)
	AdminCreateNFT(context.Context, *CreateNFTRequest) (*NFT, error)
	AdminDeleteNFT(context.Context, *DeleteNFTRequest) (*Empty, error)
	AdminReply(context.Context, *PostMessageRequest) (*Message, error)
	AdminListMessages(context.Context, *ListMessagesRequest) (*MessageList, error)
}

// UnimplementedTraderServiceServer 內嵌後未實作的方法回傳 codes.Unimplemented
type UnimplementedTraderServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedTraderServiceServer) Register(context.Context, *Credentials) (*AuthReply, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedTraderServiceServer) Login(context.Context, *Credentials) (*AuthReply, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedTraderServiceServer) GetAccount(context.Context, *Empty) (*Account, error) {
	return nil, unimplemented("GetAccount")
}
func (UnimplementedTraderServiceServer) Rename(context.Context, *RenameRequest) (*Account, error) {
	return nil, unimplemented("Rename")
}
func (UnimplementedTraderServiceServer) Buy(context.Context, *TradeRequest) (*LedgerReply, error) {
	return nil, unimplemented("Buy")
}
func (UnimplementedTraderServiceServer) Sell(context.Context, *TradeRequest) (*LedgerReply, error) {
	return nil, unimplemented("Sell")
}
func (UnimplementedTraderServiceServer) Withdraw(context.Context, *WithdrawRequest) (*LedgerReply, error) {
	return nil, unimplemented("Withdraw")
}
func (UnimplementedTraderServiceServer) ListActivity(context.Context, *ListActivityRequest) (*ActivityList, error) {
	return nil, unimplemented("ListActivity")
}
func (UnimplementedTraderServiceServer) GetPortfolio(context.Context, *PortfolioRequest) (*Portfolio, error) {
	return nil, unimplemented("GetPortfolio")
}
func (UnimplementedTraderServiceServer) GetPrice(context.Context, *Empty) (*PriceReply, error) {
	return nil, unimplemented("GetPrice")
}
func (UnimplementedTraderServiceServer) PostMessage(context.Context, *PostMessageRequest) (*Message, error) {
	return nil, unimplemented("PostMessage")
}
func (UnimplementedTraderServiceServer) ListMessages(context.Context, *ListMessagesRequest) (*MessageList, error) {
	return nil, unimplemented("ListMessages")
}
func (UnimplementedTraderServiceServer) ListNFTs(context.Context, *Empty) (*NFTList, error) {
	return nil, unimplemented("ListNFTs")
}
func (UnimplementedTraderServiceServer) AdminListAccounts(context.Context, *Empty) (*AccountList, error) {
	return nil, unimplemented("AdminListAccounts")
}
func (UnimplementedTraderServiceServer) AdminListActivity(context.Context, *ListActivityRequest) (*ActivityList, error) {
	return nil, unimplemented("AdminListActivity")
}
func (UnimplementedTraderServiceServer) AdminAdjust(context.Context, *AdjustRequest) (*LedgerReply, error) {
	return nil, unimplemented("AdminAdjust")
}
func (UnimplementedTraderServiceServer) AdminApproveWithdrawal(context.Context, *ApproveRequest) (*Activity, error) {
	return nil, unimplemented("AdminApproveWithdrawal")
}
func (UnimplementedTraderServiceServer) AdminDeleteAccount(context.Context, *DeleteAccountRequest) (*Empty, error) {
	return nil, unimplemented("AdminDeleteAccount")
}
func (UnimplementedTraderServiceServer) AdminCreateNFT(context.Context, *CreateNFTRequest) (*NFT, error) {
	return nil, unimplemented("AdminCreateNFT")
}
func (UnimplementedTraderServiceServer) AdminDeleteNFT(context.Context, *DeleteNFTRequest) (*Empty, error) {
	return nil, unimplemented("AdminDeleteNFT")
}
func (UnimplementedTraderServiceServer) AdminReply(context.Context, *PostMessageRequest) (*Message, error) {
	return nil, unimplemented("AdminReply")
}
func (UnimplementedTraderServiceServer) AdminListMessages(context.Context, *ListMessagesRequest) (*MessageList, error) {
	return nil, unimplemented("AdminListMessages")
}

// unary 產生單一方法的 MethodDesc
func unary[Req, Resp any](method string, call func(TraderServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TraderServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TraderServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// TraderServiceDesc 服務描述，等同 protoc 產生的 _ServiceDesc
var TraderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TraderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", TraderServiceServer.Register),
		unary("Login", TraderServiceServer.Login),
		unary("GetAccount", TraderServiceServer.GetAccount),
		unary("Rename", TraderServiceServer.Rename),
		unary("Buy", TraderServiceServer.Buy),
		unary("Sell", TraderServiceServer.Sell),
		unary("Withdraw", TraderServiceServer.Withdraw),
		unary("ListActivity", TraderServiceServer.ListActivity),
		unary("GetPortfolio", TraderServiceServer.GetPortfolio),
		unary("GetPrice", TraderServiceServer.GetPrice),
		unary("PostMessage", TraderServiceServer.PostMessage),
		unary("ListMessages", TraderServiceServer.ListMessages),
		unary("ListNFTs", TraderServiceServer.ListNFTs),
		unary("AdminListAccounts", TraderServiceServer.AdminListAccounts),
		unary("AdminListActivity", TraderServiceServer.AdminListActivity),
		unary("AdminAdjust", TraderServiceServer.AdminAdjust),
		unary("AdminApproveWithdrawal", TraderServiceServer.AdminApproveWithdrawal),
		unary("AdminDeleteAccount", TraderServiceServer.AdminDeleteAccount),
		unary("AdminCreateNFT", TraderServiceServer.AdminCreateNFT),
		unary("AdminDeleteNFT", TraderServiceServer.AdminDeleteNFT),
		unary("AdminReply", TraderServiceServer.AdminReply),
		unary("AdminListMessages", TraderServiceServer.AdminListMessages),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "simtrader/v1/trader.json",
}

// RegisterTraderServiceServer 註冊服務
func RegisterTraderServiceServer(s grpc.ServiceRegistrar, srv TraderServiceServer) {
	s.RegisterService(&TraderServiceDesc, srv)
}

// TraderServiceClient 客戶端，所有呼叫都使用 JSON codec
type TraderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTraderServiceClient(cc grpc.ClientConnInterface) *TraderServiceClient {
	return &TraderServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *TraderServiceClient, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TraderServiceClient) Register(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*AuthReply, error) {
	return invoke[AuthReply](ctx, c, "Register", in, opts)
}
func (c *TraderServiceClient) Login(ctx context.Context, in *Credentials, opts ...grpc.CallOption) (*AuthReply, error) {
	return invoke[AuthReply](ctx, c, "Login", in, opts)
}
func (c *TraderServiceClient) GetAccount(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Account, error) {
	return invoke[Account](ctx, c, "GetAccount", in, opts)
}
func (c *TraderServiceClient) Rename(ctx context.Context, in *RenameRequest, opts ...grpc.CallOption) (*Account, error) {
	return invoke[Account](ctx, c, "Rename", in, opts)
}
func (c *TraderServiceClient) Buy(ctx context.Context, in *TradeRequest, opts ...grpc.CallOption) (*LedgerReply, error) {
	return invoke[LedgerReply](ctx, c, "Buy", in, opts)
}
func (c *TraderServiceClient) Sell(ctx context.Context, in *TradeRequest, opts ...grpc.CallOption) (*LedgerReply, error) {
	return invoke[LedgerReply](ctx, c, "Sell", in, opts)
}
func (c *TraderServiceClient) Withdraw(ctx context.Context, in *WithdrawRequest, opts ...grpc.CallOption) (*LedgerReply, error) {
	return invoke[LedgerReply](ctx, c, "Withdraw", in, opts)
}
func (c *TraderServiceClient) ListActivity(ctx context.Context, in *ListActivityRequest, opts ...grpc.CallOption) (*ActivityList, error) {
	return invoke[ActivityList](ctx, c, "ListActivity", in, opts)
}
func (c *TraderServiceClient) GetPortfolio(ctx context.Context, in *PortfolioRequest, opts ...grpc.CallOption) (*Portfolio, error) {
	return invoke[Portfolio](ctx, c, "GetPortfolio", in, opts)
}
func (c *TraderServiceClient) GetPrice(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PriceReply, error) {
	return invoke[PriceReply](ctx, c, "GetPrice", in, opts)
}
func (c *TraderServiceClient) PostMessage(ctx context.Context, in *PostMessageRequest, opts ...grpc.CallOption) (*Message, error) {
	return invoke[Message](ctx, c, "PostMessage", in, opts)
}
func (c *TraderServiceClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*MessageList, error) {
	return invoke[MessageList](ctx, c, "ListMessages", in, opts)
}
func (c *TraderServiceClient) ListNFTs(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*NFTList, error) {
	return invoke[NFTList](ctx, c, "ListNFTs", in, opts)
}
func (c *TraderServiceClient) AdminListAccounts(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*AccountList, error) {
	return invoke[AccountList](ctx, c, "AdminListAccounts", in, opts)
}
func (c *TraderServiceClient) AdminListActivity(ctx context.Context, in *ListActivityRequest, opts ...grpc.CallOption) (*ActivityList, error) {
	return invoke[ActivityList](ctx, c, "AdminListActivity", in, opts)
}
func (c *TraderServiceClient) AdminAdjust(ctx context.Context, in *AdjustRequest, opts ...grpc.CallOption) (*LedgerReply, error) {
	return invoke[LedgerReply](ctx, c, "AdminAdjust", in, opts)
}
func (c *TraderServiceClient) AdminApproveWithdrawal(ctx context.Context, in *ApproveRequest, opts ...grpc.CallOption) (*Activity, error) {
	return invoke[Activity](ctx, c, "AdminApproveWithdrawal", in, opts)
}
func (c *TraderServiceClient) AdminDeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "AdminDeleteAccount", in, opts)
}
func (c *TraderServiceClient) AdminCreateNFT(ctx context.Context, in *CreateNFTRequest, opts ...grpc.CallOption) (*NFT, error) {
	return invoke[NFT](ctx, c, "AdminCreateNFT", in, opts)
}
func (c *TraderServiceClient) AdminDeleteNFT(ctx context.Context, in *DeleteNFTRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "AdminDeleteNFT", in, opts)
}
func (c *TraderServiceClient) AdminReply(ctx context.Context, in *PostMessageRequest, opts ...grpc.CallOption) (*Message, error) {
	return invoke[Message](ctx, c, "AdminReply", in, opts)
}
func (c *TraderServiceClient) AdminListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*MessageList, error) {
	return invoke[MessageList](ctx, c, "AdminListMessages", in, opts)
}
