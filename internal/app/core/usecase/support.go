package usecase

import (
	"context"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
)

// SupportService 每個帳戶一條對話，只能追加
type SupportService struct {
	log SupportLog
}

func NewSupportService(log SupportLog) *SupportService {
	return &SupportService{log: log}
}

// Post 追加一則訊息
func (s *SupportService) Post(ctx context.Context, accountID int64, sender domain.Sender, text string) (*domain.SupportMessage, error) {
	msg, err := domain.NewSupportMessage(accountID, sender, text)
	if err != nil {
		return nil, err
	}
	if err := s.log.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// List afterID 為 0 時回傳全部，否則只回傳之後的訊息 (給前端輪詢用)
func (s *SupportService) List(ctx context.Context, accountID, afterID int64) ([]*domain.SupportMessage, error) {
	return s.log.ListMessages(ctx, accountID, afterID)
}
