// Package auth 簽發與驗證 HS256 JWT，內容只有帳戶 ID 與角色
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken token 格式錯誤、簽章不符或已過期
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrEmptySecret 未設定簽章金鑰
	ErrEmptySecret = errors.New("jwt secret must not be empty")
)

// Identity token 內容
type Identity struct {
	AccountID int64
	Role      string
}

// Claims JWT payload
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer 簽發與驗證 token
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewIssuer ttl <= 0 時預設 24 小時
func NewIssuer(secret string, ttl time.Duration, issuer string) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Issue 簽發 token
//
// 回傳:
//
//	string: 簽好的 token
//	time.Time: 到期時間
//	error: 簽章失敗
func (i *Issuer) Issue(id Identity) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.AccountID, 10),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify 驗證 token 並取出身分，任何失敗都回傳 ErrInvalidToken
func (i *Issuer) Verify(token string) (Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	},
		jwt.WithTimeFunc(i.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{AccountID: id, Role: claims.Role}, nil
}
