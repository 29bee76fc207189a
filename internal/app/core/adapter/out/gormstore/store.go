// Package gormstore 以關聯式資料庫 (MySQL / PostgreSQL / SQLite) 實作 usecase.Store
//
// 單一帳戶的 read-modify-write 一律在 gorm Transaction 內以
// SELECT ... FOR UPDATE 鎖住該列，再寫回餘額並新增活動紀錄。
package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-sim-trader/internal/app/core/domain"
	"github.com/JoeShih716/go-sim-trader/internal/app/core/usecase"
)

type Store struct {
	db *gorm.DB
}

// New 建立 Store，db 建議開啟 gorm.Config.TranslateError 讓唯一索引衝突轉成 gorm.ErrDuplicatedKey
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate 建立或更新資料表
func (s *Store) AutoMigrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&sqlAccount{},
		&sqlActivity{},
		&sqlMessage{},
		&sqlNFT{},
	)
	return domain.StorageError(err)
}

// dbError 將 gorm 錯誤轉成 domain 錯誤
func dbError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrUsernameTaken
	default:
		return domain.StorageError(err)
	}
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: clause.LockingStrengthUpdate}
}

// lockAccount 悲觀鎖取得帳戶
func lockAccount(tx *gorm.DB, id int64) (*sqlAccount, error) {
	var m sqlAccount
	err := tx.Clauses(forUpdate()).Where("id = ?", id).Take(&m).Error
	if err != nil {
		return nil, dbError(err, domain.ErrAccountNotFound)
	}
	return &m, nil
}

// usernameTaken 檢查名稱是否已被其他帳戶使用 (exceptID 為自己)
func usernameTaken(tx *gorm.DB, username string, exceptID int64) error {
	var count int64
	err := tx.Model(&sqlAccount{}).
		Where("username_key = ? AND id <> ?", domain.UsernameKey(username), exceptID).
		Count(&count).Error
	if err != nil {
		return domain.StorageError(err)
	}
	if count > 0 {
		return domain.ErrUsernameTaken
	}
	return nil
}

// --- AccountStore ---

func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := usernameTaken(tx, acc.Username, 0); err != nil {
			return err
		}
		m := fromAccount(acc)
		m.ID = 0
		if err := tx.Create(m).Error; err != nil {
			return dbError(err, domain.ErrAccountNotFound)
		}
		acc.ID = m.ID
		return nil
	})
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	var m sqlAccount
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, dbError(err, domain.ErrAccountNotFound)
	}
	return m.toDomain(), nil
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var m sqlAccount
	err := s.db.WithContext(ctx).Where("username_key = ?", domain.UsernameKey(username)).Take(&m).Error
	if err != nil {
		return nil, dbError(err, domain.ErrAccountNotFound)
	}
	return m.toDomain(), nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	var rows []sqlAccount
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, domain.StorageError(err)
	}
	out := make([]*domain.Account, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *Store) RenameAccount(ctx context.Context, id int64, username string) (*domain.Account, error) {
	var out *domain.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := lockAccount(tx, id)
		if err != nil {
			return err
		}
		if err := usernameTaken(tx, username, id); err != nil {
			return err
		}
		m.Username = username
		m.UsernameKey = domain.UsernameKey(username)
		m.UpdatedAt = time.Now().UTC()
		err = tx.Model(&sqlAccount{}).Where("id = ?", id).Updates(map[string]any{
			"username":     m.Username,
			"username_key": m.UsernameKey,
			"updated_at":   m.UpdatedAt,
		}).Error
		if err != nil {
			return dbError(err, domain.ErrAccountNotFound)
		}
		out = m.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Mutate 鎖定帳戶 -> 執行 fn -> 寫回餘額 -> 新增活動紀錄，全部在同一個交易內
func (s *Store) Mutate(ctx context.Context, id int64, fn usecase.MutateFunc) (*domain.Account, *domain.Activity, error) {
	var (
		out *domain.Account
		act *domain.Activity
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := lockAccount(tx, id)
		if err != nil {
			return err
		}
		acc := m.toDomain()
		a, err := fn(acc)
		if err != nil {
			return err
		}

		acc.UpdatedAt = time.Now().UTC()
		err = tx.Model(&sqlAccount{}).Where("id = ?", id).Updates(map[string]any{
			"cash":       acc.Cash,
			"asset":      acc.Asset,
			"updated_at": acc.UpdatedAt,
		}).Error
		if err != nil {
			return domain.StorageError(err)
		}

		if a != nil {
			a.AccountID = id
			row := fromActivity(a)
			row.ID = 0
			if err := tx.Create(row).Error; err != nil {
				return domain.StorageError(err)
			}
			a.ID = row.ID
			act = a
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, act, nil
}

// DeleteAccount 刪除帳戶以及所屬的活動紀錄與客服訊息
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockAccount(tx, id); err != nil {
			return err
		}
		if err := tx.Where("account_id = ?", id).Delete(&sqlActivity{}).Error; err != nil {
			return domain.StorageError(err)
		}
		if err := tx.Where("account_id = ?", id).Delete(&sqlMessage{}).Error; err != nil {
			return domain.StorageError(err)
		}
		if err := tx.Where("id = ?", id).Delete(&sqlAccount{}).Error; err != nil {
			return domain.StorageError(err)
		}
		return nil
	})
}

// --- ActivityLog ---

func (s *Store) GetActivity(ctx context.Context, id int64) (*domain.Activity, error) {
	var m sqlActivity
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, dbError(err, domain.ErrActivityNotFound)
	}
	return m.toDomain(), nil
}

func (s *Store) ListActivity(ctx context.Context, filter domain.ActivityFilter) ([]*domain.Activity, error) {
	q := s.db.WithContext(ctx).Model(&sqlActivity{})
	if filter.AccountID != 0 {
		q = q.Where("account_id = ?", filter.AccountID)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", string(filter.Kind))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rows []sqlActivity
	if err := q.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, domain.StorageError(err)
	}
	out := make([]*domain.Activity, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// ApproveWithdrawal 鎖定該筆紀錄後轉為 approved，已核准時不寫入
func (s *Store) ApproveWithdrawal(ctx context.Context, id int64, now time.Time) (*domain.Activity, error) {
	var out *domain.Activity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m sqlActivity
		if err := tx.Clauses(forUpdate()).Where("id = ?", id).Take(&m).Error; err != nil {
			return dbError(err, domain.ErrActivityNotFound)
		}
		act := m.toDomain()
		changed, err := act.Approve(now)
		if err != nil {
			return err
		}
		out = act
		if !changed {
			return nil
		}
		err = tx.Model(&sqlActivity{}).Where("id = ?", id).Updates(map[string]any{
			"status":      string(act.Withdrawal.Status),
			"approved_at": now,
		}).Error
		return domain.StorageError(err)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --- SupportLog ---

func (s *Store) AppendMessage(ctx context.Context, msg *domain.SupportMessage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 共享鎖，避免與 DeleteAccount 交錯
		var acc sqlAccount
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
			Select("id").Where("id = ?", msg.AccountID).Take(&acc).Error
		if err != nil {
			return dbError(err, domain.ErrAccountNotFound)
		}
		row := &sqlMessage{
			AccountID: msg.AccountID,
			Sender:    string(msg.Sender),
			Text:      msg.Text,
			CreatedAt: msg.CreatedAt,
		}
		if err := tx.Create(row).Error; err != nil {
			return domain.StorageError(err)
		}
		msg.ID = row.ID
		return nil
	})
}

func (s *Store) ListMessages(ctx context.Context, accountID, afterID int64) ([]*domain.SupportMessage, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&sqlAccount{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return nil, domain.StorageError(err)
	}
	if count == 0 {
		return nil, domain.ErrAccountNotFound
	}
	var rows []sqlMessage
	err := db.Where("account_id = ? AND id > ?", accountID, afterID).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, domain.StorageError(err)
	}
	out := make([]*domain.SupportMessage, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// --- Catalog ---

func (s *Store) CreateNFT(ctx context.Context, nft *domain.NFT) error {
	row := &sqlNFT{
		ID:        nft.ID.String(),
		Name:      nft.Name,
		ImageURL:  nft.ImageURL,
		Price:     nft.Price,
		CreatedBy: nft.CreatedBy,
		CreatedAt: nft.CreatedAt,
	}
	return domain.StorageError(s.db.WithContext(ctx).Create(row).Error)
}

func (s *Store) ListNFTs(ctx context.Context) ([]*domain.NFT, error) {
	var rows []sqlNFT
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, domain.StorageError(err)
	}
	out := make([]*domain.NFT, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *Store) DeleteNFT(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&sqlNFT{})
	if res.Error != nil {
		return domain.StorageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNFTNotFound
	}
	return nil
}

var _ usecase.Store = (*Store)(nil)
