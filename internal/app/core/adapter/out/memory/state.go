package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
)

// eventType WAL 事件種類
type eventType string

const (
	// 帳戶新增或更新，可附帶一筆活動紀錄 (同一行寫入，重放時一起生效)
	evAccountPut eventType = "account_put"
	// 帳戶刪除 (連同活動與訊息)
	evAccountDeleted eventType = "account_deleted"
	// 活動紀錄更新 (提款核准)
	evActivityPut eventType = "activity_put"
	evMessagePut  eventType = "message_put"
	evNFTPut      eventType = "nft_put"
	evNFTDeleted  eventType = "nft_deleted"
)

// accountRecord WAL 內的帳戶格式，domain.Account 的 JSON 不含密碼雜湊
type accountRecord struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"password_hash"`
	Cash         decimal.Decimal `json:"cash"`
	Asset        decimal.Decimal `json:"asset"`
	Role         domain.Role     `json:"role"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toRecord(a *domain.Account) *accountRecord {
	return &accountRecord{
		ID:           a.ID,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		Cash:         a.Cash,
		Asset:        a.Asset,
		Role:         a.Role,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (r *accountRecord) toDomain() *domain.Account {
	return &domain.Account{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Cash:         r.Cash,
		Asset:        r.Asset,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// event 一次寫入的完整內容，ID 都在寫 WAL 之前分配好，重放結果才會一致
type event struct {
	Seq      uint64                 `json:"seq"`
	Type     eventType              `json:"type"`
	Account  *accountRecord         `json:"account,omitempty"`
	Activity *domain.Activity       `json:"activity,omitempty"`
	Message  *domain.SupportMessage `json:"message,omitempty"`
	NFT      *domain.NFT            `json:"nft,omitempty"`
	// DeletedID 被刪除的帳戶 ID
	DeletedID int64 `json:"deleted_id,omitempty"`
	// DeletedNFT 被刪除的 NFT ID
	DeletedNFT uuid.UUID `json:"deleted_nft,omitempty"`
}

// state 記憶體內的完整資料，本身不做任何鎖，由引擎 (Mutex / LMAX) 保護
//
// 所有修改都經由 apply(event)，即時寫入與 WAL 重放走同一條路。
type state struct {
	seq            uint64
	nextAccountID  int64
	nextActivityID int64
	nextMessageID  int64

	accounts  map[int64]*domain.Account
	usernames map[string]int64
	// activities 依 ID 遞增
	activities []*domain.Activity
	activityIx map[int64]*domain.Activity
	messages   map[int64][]*domain.SupportMessage
	nfts       map[uuid.UUID]*domain.NFT
}

func newState() *state {
	return &state{
		accounts:   make(map[int64]*domain.Account),
		usernames:  make(map[string]int64),
		activityIx: make(map[int64]*domain.Activity),
		messages:   make(map[int64][]*domain.SupportMessage),
		nfts:       make(map[uuid.UUID]*domain.NFT),
	}
}

// replay 套用一筆 WAL 原始資料
func (s *state) replay(raw json.RawMessage) error {
	var ev event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	if ev.Seq <= s.seq {
		return fmt.Errorf("wal out of order: seq %d after %d", ev.Seq, s.seq)
	}
	s.apply(&ev)
	return nil
}

// apply 套用事件，呼叫前必須已驗證過 (plan*)
func (s *state) apply(ev *event) {
	s.seq = ev.Seq
	switch ev.Type {
	case evAccountPut:
		acc := ev.Account.toDomain()
		if old, ok := s.accounts[acc.ID]; ok {
			delete(s.usernames, domain.UsernameKey(old.Username))
		}
		s.accounts[acc.ID] = acc
		s.usernames[domain.UsernameKey(acc.Username)] = acc.ID
		s.nextAccountID = max(s.nextAccountID, acc.ID)
		if ev.Activity != nil {
			act := ev.Activity.Clone()
			s.activities = append(s.activities, act)
			s.activityIx[act.ID] = act
			s.nextActivityID = max(s.nextActivityID, act.ID)
		}
	case evAccountDeleted:
		if acc, ok := s.accounts[ev.DeletedID]; ok {
			delete(s.usernames, domain.UsernameKey(acc.Username))
			delete(s.accounts, ev.DeletedID)
		}
		kept := s.activities[:0]
		for _, act := range s.activities {
			if act.AccountID == ev.DeletedID {
				delete(s.activityIx, act.ID)
				continue
			}
			kept = append(kept, act)
		}
		s.activities = kept
		delete(s.messages, ev.DeletedID)
	case evActivityPut:
		if cur, ok := s.activityIx[ev.Activity.ID]; ok {
			*cur = *ev.Activity.Clone()
		}
	case evMessagePut:
		msg := *ev.Message
		s.messages[msg.AccountID] = append(s.messages[msg.AccountID], &msg)
		s.nextMessageID = max(s.nextMessageID, msg.ID)
	case evNFTPut:
		nft := *ev.NFT
		s.nfts[nft.ID] = &nft
	case evNFTDeleted:
		delete(s.nfts, ev.DeletedNFT)
	}
}

// --- 讀取 (回傳副本) ---

func (s *state) account(id int64) (*domain.Account, error) {
	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return acc.Clone(), nil
}

func (s *state) accountByUsername(username string) (*domain.Account, error) {
	id, ok := s.usernames[domain.UsernameKey(username)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.account(id)
}

func (s *state) listAccounts() []*domain.Account {
	out := make([]*domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) activity(id int64) (*domain.Activity, error) {
	act, ok := s.activityIx[id]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	return act.Clone(), nil
}

func (s *state) listActivity(f domain.ActivityFilter) []*domain.Activity {
	out := make([]*domain.Activity, 0)
	for i := len(s.activities) - 1; i >= 0; i-- {
		act := s.activities[i]
		if !f.Match(act) {
			continue
		}
		out = append(out, act.Clone())
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

func (s *state) listMessages(accountID, afterID int64) []*domain.SupportMessage {
	out := make([]*domain.SupportMessage, 0)
	for _, m := range s.messages[accountID] {
		if m.ID > afterID {
			c := *m
			out = append(out, &c)
		}
	}
	return out
}

func (s *state) listNFTs() []*domain.NFT {
	out := make([]*domain.NFT, 0, len(s.nfts))
	for _, n := range s.nfts {
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// --- 寫入計畫: 驗證並組出事件，不修改 state ---

func (s *state) planCreateAccount(acc *domain.Account) (*event, error) {
	if _, taken := s.usernames[domain.UsernameKey(acc.Username)]; taken {
		return nil, domain.ErrUsernameTaken
	}
	rec := toRecord(acc)
	rec.ID = s.nextAccountID + 1
	return &event{Type: evAccountPut, Account: rec}, nil
}

func (s *state) planRename(id int64, username string) (*event, error) {
	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if owner, taken := s.usernames[domain.UsernameKey(username)]; taken && owner != id {
		return nil, domain.ErrUsernameTaken
	}
	rec := toRecord(acc)
	rec.Username = username
	rec.UpdatedAt = time.Now().UTC()
	return &event{Type: evAccountPut, Account: rec}, nil
}

// planMutation 只把餘額欄位寫回目前的帳戶，其餘欄位 (名稱等) 以 state 為準
func (s *state) planMutation(next *domain.Account, act *domain.Activity) (*event, error) {
	cur, ok := s.accounts[next.ID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	rec := toRecord(cur)
	rec.Cash = next.Cash
	rec.Asset = next.Asset
	rec.UpdatedAt = time.Now().UTC()
	ev := &event{Type: evAccountPut, Account: rec}
	if act != nil {
		act = act.Clone()
		act.ID = s.nextActivityID + 1
		act.AccountID = next.ID
		ev.Activity = act
	}
	return ev, nil
}

func (s *state) planDeleteAccount(id int64) (*event, error) {
	if _, ok := s.accounts[id]; !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &event{Type: evAccountDeleted, DeletedID: id}, nil
}

// planApprove 已核准時回傳 nil 事件 (不寫 WAL)
func (s *state) planApprove(id int64, now time.Time) (*event, *domain.Activity, error) {
	cur, ok := s.activityIx[id]
	if !ok {
		return nil, nil, domain.ErrActivityNotFound
	}
	act := cur.Clone()
	changed, err := act.Approve(now)
	if err != nil {
		return nil, nil, err
	}
	if !changed {
		return nil, act, nil
	}
	return &event{Type: evActivityPut, Activity: act}, act, nil
}

func (s *state) planMessage(msg *domain.SupportMessage) (*event, error) {
	if _, ok := s.accounts[msg.AccountID]; !ok {
		return nil, domain.ErrAccountNotFound
	}
	m := *msg
	m.ID = s.nextMessageID + 1
	return &event{Type: evMessagePut, Message: &m}, nil
}

func (s *state) planCreateNFT(nft *domain.NFT) (*event, error) {
	if _, exists := s.nfts[nft.ID]; exists {
		return nil, fmt.Errorf("nft %s already exists", nft.ID)
	}
	n := *nft
	return &event{Type: evNFTPut, NFT: &n}, nil
}

func (s *state) planDeleteNFT(id uuid.UUID) (*event, error) {
	if _, ok := s.nfts[id]; !ok {
		return nil, domain.ErrNFTNotFound
	}
	return &event{Type: evNFTDeleted, DeletedNFT: id}, nil
}
