package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount 金額或價格必須為正數
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds 現金餘額不足
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientAsset 資產餘額不足
	ErrInsufficientAsset = errors.New("insufficient asset")

	// ErrNotFound 所有 "找不到" 類錯誤的共同根
	ErrNotFound = errors.New("not found")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)

	// ErrActivityNotFound 找不到活動紀錄
	ErrActivityNotFound = fmt.Errorf("%w: activity", ErrNotFound)

	// ErrNFTNotFound 找不到 NFT
	ErrNFTNotFound = fmt.Errorf("%w: nft", ErrNotFound)

	// ErrForbidden 呼叫者沒有權限，或目標帳戶不可操作 (如刪除管理員)
	ErrForbidden = errors.New("forbidden")

	// ErrUsernameTaken 使用者名稱已被使用
	ErrUsernameTaken = errors.New("username already taken")

	// ErrBadCredential 密碼錯誤
	ErrBadCredential = errors.New("bad credential")

	// ErrInvalidUsername 使用者名稱格式錯誤
	ErrInvalidUsername = errors.New("username must be 3-32 characters")

	// ErrInvalidPassword 密碼太短
	ErrInvalidPassword = errors.New("password must be at least 4 characters")

	// ErrInvalidMessage 客服訊息不可為空
	ErrInvalidMessage = errors.New("message text must not be empty")

	// ErrInvalidWallet 提款目標錢包不可為空
	ErrInvalidWallet = errors.New("destination wallet must not be empty")

	// ErrInvalidNFT NFT 名稱不可為空
	ErrInvalidNFT = errors.New("nft name must not be empty")

	// ErrNotWithdrawal 指定的活動紀錄不是提款
	ErrNotWithdrawal = errors.New("activity is not a withdrawal")

	// ErrPriceUnavailable 沒有可用的報價來源
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrStorage 儲存層錯誤 (連線中斷、寫入失敗)
	ErrStorage = errors.New("storage error")
)

// StorageError 把底層錯誤包成 ErrStorage，保留原始訊息
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
