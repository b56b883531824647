package auth

import "github.com/hitoshi/storefront/internal/model"

// Authorize はセッションのロールがrequiredと一致するかを判定する。
// ロールの階層は持たないため、adminであってもriderのリソースにはアクセスできない。
func Authorize(session *SessionClaims, required model.Role) error {
	if session == nil || session.Role != required {
		return model.NewForbiddenError(required)
	}
	return nil
}
