package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/storefront/internal/model"
)

// SessionTTL はセッショントークンの有効期間。
const SessionTTL = 24 * time.Hour

// SessionClaims は検証済みセッショントークンの内容。
// Roleは発行時点のスナップショットで、有効期限まで更新されない。
type SessionClaims struct {
	UserID string
	Role   model.Role
}

type sessionJWTClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService はHS256署名のセッショントークンを発行・検証する。
// 状態を持たないため、ログアウトはクライアント側でトークンを破棄するのみ。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption はTokenServiceの生成オプション。
type TokenOption func(*TokenService)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService はTokenServiceを生成する。
func NewTokenService(secret string, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret: []byte(secret),
		ttl:    SessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue はユーザーIDとロールを含むトークンを発行し、有効期限とともに返す。
func (s *TokenService) Issue(userID string, role model.Role) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionJWTClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate はトークンの署名と有効期限を検証する。
// 空文字列はMISSING_TOKEN、期限切れはEXPIRED_TOKEN、それ以外の不備はINVALID_TOKENとなる。
func (s *TokenService) Validate(raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, model.NewMissingTokenError()
	}

	var c sessionJWTClaims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.NewExpiredTokenError(err)
		}
		return nil, model.NewInvalidTokenError(err)
	}

	role, ok := model.ParseRole(c.Role)
	if !ok {
		return nil, model.NewInvalidTokenError(fmt.Errorf("unknown role %q", c.Role))
	}
	if c.UserID == "" {
		return nil, model.NewInvalidTokenError(errors.New("token has no userId"))
	}

	return &SessionClaims{UserID: c.UserID, Role: role}, nil
}

// BearerToken はAuthorizationヘッダー値からBearerトークンを取り出す。
// 形式が一致しない場合は空文字列を返す。
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
