// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーのアクセス区分を表す。
// customer, admin, rider の3値のみを取る閉じた列挙型。
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleRider    Role = "rider"
)

// DefaultRole は新規ユーザーに割り当てるロール。
const DefaultRole = RoleCustomer

// Valid はロールが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleRider:
		return true
	default:
		return false
	}
}

// ParseRole は文字列をRoleに変換する。未定義の値の場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// User はサービス利用ユーザーを表す。
// emailは一意であり、同一emailのユーザーは高々1件しか存在しない。
type User struct {
	ID             string
	Email          string
	Name           string
	GoogleID       *string // 外部IdPのsubject。クライアントには返さない
	ProfilePicture string
	Role           Role
	IsApproved     bool
	PhoneNumber    *string // rider向けの任意項目
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser は初回ログイン時に作成するユーザーを生成する。
// ロールはcustomer、承認フラグはfalseで初期化される。
func NewUser(email, name, googleID, picture string, now time.Time) *User {
	u := &User{
		Email:          email,
		Name:           name,
		ProfilePicture: picture,
		Role:           DefaultRole,
		IsApproved:     false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if googleID != "" {
		u.GoogleID = &googleID
	}
	return u
}

// UserCounts は管理ダッシュボード用のユーザー集計値。
type UserCounts struct {
	Customers        int64
	Riders           int64
	PendingApprovals int64
}
