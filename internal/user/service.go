// Package user はユーザー管理（管理者操作とプロフィール更新）のドメインロジックを提供する。
package user

import (
	"context"
	"log/slog"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service はユーザー管理のサービス層。
// 永続化層の失敗はPERSISTENCE_ERRORとして原因のメッセージをそのまま返す。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// ListUsers は全ユーザーを返す。
func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx, nil)
	if err != nil {
		return nil, model.NewPersistenceError(err)
	}
	return users, nil
}

// ListRiders はriderロールのユーザーを返す。
func (s *Service) ListRiders(ctx context.Context) ([]*model.User, error) {
	role := model.RoleRider
	users, err := s.userRepo.List(ctx, &role)
	if err != nil {
		return nil, model.NewPersistenceError(err)
	}
	return users, nil
}

// UpdateRole はユーザーのロールを変更する。
// 対象ユーザーの存在確認をロールの検証より先に行う。
func (s *Service) UpdateRole(ctx context.Context, id, role string) (*model.User, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	r, ok := model.ParseRole(role)
	if !ok {
		return nil, model.NewInvalidRoleError()
	}

	updated, err := s.userRepo.UpdateRole(ctx, id, r)
	if err != nil {
		return nil, model.NewPersistenceError(err)
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("user role updated",
		slog.String("user_id", id),
		slog.String("role", string(r)),
	)
	return updated, nil
}

// UpdateApproval はユーザーの承認フラグを変更する。
// 変更は次回ログインから反映され、発行済みトークンには影響しない。
func (s *Service) UpdateApproval(ctx context.Context, id string, approved bool) (*model.User, error) {
	updated, err := s.userRepo.UpdateApproval(ctx, id, approved)
	if err != nil {
		return nil, model.NewPersistenceError(err)
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("user approval updated",
		slog.String("user_id", id),
		slog.Bool("is_approved", approved),
	)
	return updated, nil
}

// Dashboard は管理ダッシュボードの集計値を返す。
func (s *Service) Dashboard(ctx context.Context) (*model.UserCounts, error) {
	counts, err := s.userRepo.Counts(ctx)
	if err != nil {
		return nil, model.NewPersistenceError(err)
	}
	return counts, nil
}

// UpdateProfile は本人のプロフィールを更新する。
// phoneNumberが空の場合は何も変更せず現在の値を返す。
func (s *Service) UpdateProfile(ctx context.Context, userID, phoneNumber string) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	if phoneNumber == "" {
		user, err = s.userRepo.FindByID(ctx, userID)
	} else {
		user, err = s.userRepo.UpdatePhoneNumber(ctx, userID, phoneNumber)
	}
	if err != nil {
		return nil, model.NewPersistenceError(err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

func (s *Service) ensureExists(ctx context.Context, id string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return model.NewPersistenceError(err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}
	return nil
}
