// Package repository はデータ永続化のインターフェースと実装を提供する。
// PostgreSQL（lib/pq）とMongoDB（mongo-driver）の2系統の実装を持つ。
package repository

import (
	"context"

	"github.com/hitoshi/storefront/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	// IDの形式が不正な場合も見つからないものとして扱う。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はemailでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番したIDをuser.IDに設定する。
	// emailが重複する場合はmodel.ErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// List はユーザー一覧を作成日時の昇順で返す。roleがnilの場合は全件を返す。
	List(ctx context.Context, role *model.Role) ([]*model.User, error)

	// UpdateRole はロールを更新し、更新後のユーザーを返す。存在しない場合はnilを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error)

	// UpdateApproval は承認フラグを更新し、更新後のユーザーを返す。存在しない場合はnilを返す。
	UpdateApproval(ctx context.Context, id string, approved bool) (*model.User, error)

	// UpdatePhoneNumber は電話番号を更新し、更新後のユーザーを返す。存在しない場合はnilを返す。
	UpdatePhoneNumber(ctx context.Context, id string, phoneNumber string) (*model.User, error)

	// Counts は管理ダッシュボード用の集計値を返す。
	Counts(ctx context.Context) (*model.UserCounts, error)
}

// OrderRepository は注文データの永続化インターフェース。
type OrderRepository interface {
	// ListByRider はriderに割り当てられた注文を作成日時の降順で返す。
	// 各注文には注文者の概要と明細が設定される。
	ListByRider(ctx context.Context, riderID string) ([]*model.Order, error)

	// CountByRiderAndStatus はriderに割り当てられた指定ステータスの注文数を返す。
	CountByRiderAndStatus(ctx context.Context, riderID string, status model.OrderStatus) (int64, error)
}
