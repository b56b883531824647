// Package auth はIDトークン検証、セッショントークン、ロールによるアクセス制御を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// LoginResult はログイン成功時に返す内容。
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// ProfileSanitizer はIdPから受け取ったプロフィール値を保存前に無害化する。
type ProfileSanitizer interface {
	DisplayName(raw string) string
	PictureURL(raw string) string
}

type passthroughProfile struct{}

func (passthroughProfile) DisplayName(raw string) string { return raw }
func (passthroughProfile) PictureURL(raw string) string { return raw }

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	verifier IdentityVerifier
	tokens   *TokenService
	userRepo repository.UserRepository
	profile  ProfileSanitizer
	now      func() time.Time
}

// ServiceOption はServiceの任意設定。
type ServiceOption func(*Service)

// WithProfileSanitizer は新規ユーザー作成時に使うProfileSanitizerを設定する。
func WithProfileSanitizer(p ProfileSanitizer) ServiceOption {
	return func(s *Service) { s.profile = p }
}

// NewService はServiceを生成する。
func NewService(verifier IdentityVerifier, tokens *TokenService, userRepo repository.UserRepository, opts ...ServiceOption) *Service {
	s := &Service{
		verifier: verifier,
		tokens:   tokens,
		userRepo: userRepo,
		profile:  passthroughProfile{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GoogleLogin はGoogleのIDトークンでログインし、セッショントークンを発行する。
// 未登録のemailの場合は未承認のcustomerとしてユーザーを作成する。
// 未承認ユーザーにはトークンを発行せずPENDING_APPROVALを返す。
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (*LoginResult, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.findOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	if !user.IsApproved {
		slog.Info("login rejected: pending approval", "user_id", user.ID)
		return nil, model.NewPendingApprovalError()
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "user_id", user.ID, "role", string(user.Role))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// findOrCreate はemailでユーザーを検索し、存在しなければ作成する。
// 同時ログインで作成が競合した場合は先に作成されたユーザーを読み直す。
func (s *Service) findOrCreate(ctx context.Context, identity *IdentityClaims) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user != nil {
		return user, nil
	}

	name := s.profile.DisplayName(identity.Name)
	if name == "" {
		name, _, _ = strings.Cut(identity.Email, "@")
	}

	user = model.NewUser(identity.Email, name, identity.Subject, s.profile.PictureURL(identity.Picture), s.now().UTC())
	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, model.ErrDuplicateEmail) {
		existing, findErr := s.userRepo.FindByEmail(ctx, identity.Email)
		if findErr != nil {
			return nil, fmt.Errorf("failed to re-read user after duplicate: %w", findErr)
		}
		if existing == nil {
			return nil, fmt.Errorf("user vanished after duplicate email: %w", err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created on first login", "user_id", user.ID)
	return user, nil
}

// CurrentUser はセッションの主体であるユーザーを返す。
// ユーザーが存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// ValidateSession はBearerトークンを検証する。
func (s *Service) ValidateSession(token string) (*SessionClaims, error) {
	return s.tokens.Validate(token)
}
