package grpc

import (
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
	pb "github.com/JoeShih716/go-sim-trader/proto"
)

func toPBAccount(a *domain.Account) *pb.Account {
	if a == nil {
		return nil
	}
	return &pb.Account{
		ID:        a.ID,
		Username:  a.Username,
		Cash:      a.Cash,
		Asset:     a.Asset,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
	}
}

func decPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func toPBActivity(a *domain.Activity) *pb.Activity {
	if a == nil {
		return nil
	}
	out := &pb.Activity{
		ID:        a.ID,
		RefID:     a.RefID.String(),
		AccountID: a.AccountID,
		Kind:      string(a.Kind),
		CreatedAt: a.CreatedAt,
	}
	if t := a.Trade; t != nil {
		out.Direction = string(t.Direction)
		out.AssetAmount = decPtr(t.AssetAmount)
		out.UnitPrice = decPtr(t.UnitPrice)
	}
	if w := a.Withdrawal; w != nil {
		out.Amount = decPtr(w.Amount)
		out.Wallet = w.Wallet
		out.Status = string(w.Status)
		out.ApprovedAt = w.ApprovedAt
	}
	if t := a.TopUp; t != nil {
		out.CashDelta = decPtr(t.CashDelta)
		out.AssetDelta = decPtr(t.AssetDelta)
		out.OperatorID = t.OperatorID
	}
	return out
}

func toPBActivities(acts []*domain.Activity) []*pb.Activity {
	out := make([]*pb.Activity, 0, len(acts))
	for _, a := range acts {
		out = append(out, toPBActivity(a))
	}
	return out
}

func toPBActivityViews(views []usecase.ActivityView) []*pb.Activity {
	out := make([]*pb.Activity, 0, len(views))
	for _, v := range views {
		a := toPBActivity(v.Activity)
		a.Username = v.Username
		out = append(out, a)
	}
	return out
}

func toPBMessage(m *domain.SupportMessage) *pb.Message {
	return &pb.Message{
		ID:        m.ID,
		AccountID: m.AccountID,
		Sender:    string(m.Sender),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func toPBMessages(msgs []*domain.SupportMessage) []*pb.Message {
	out := make([]*pb.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toPBMessage(m))
	}
	return out
}

func toPBNFT(n *domain.NFT) *pb.NFT {
	return &pb.NFT{
		ID:        n.ID.String(),
		Name:      n.Name,
		ImageURL:  n.ImageURL,
		Price:     n.Price,
		CreatedAt: n.CreatedAt,
	}
}
