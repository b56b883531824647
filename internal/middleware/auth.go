// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストに検証済みセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionValidator はBearerトークンの検証に必要なインターフェース。
type SessionValidator interface {
	Validate(token string) (*auth.SessionClaims, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// ユーザーIDとロールをリクエストコンテキストに注入するミドルウェアを返す。
// トークンがない場合・不正な場合・期限切れの場合は401を返す。
// ユーザーの存在確認は行わない。
func NewAuthMiddleware(validator SessionValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get("Authorization"))

			session, err := validator.Validate(token)
			if err != nil {
				writeAuthError(w, r, err)
				return
			}

			annotateRequest(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), session)))
		})
	}
}

// RequireRole はセッションのロールがroleと一致しない場合に403を返すミドルウェアを返す。
// NewAuthMiddlewareの後に配置する。
func RequireRole(role model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if err := auth.Authorize(session, role); err != nil {
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) {
					apiErr = model.NewForbiddenError(role)
				}
				actual, _ := RoleFromContext(r.Context())
				slog.Warn("access denied",
					slog.String("path", r.URL.Path),
					slog.String("required_role", string(role)),
					slog.String("session_role", string(actual)),
				)
				WriteErrorResponse(w, http.StatusForbidden, apiErr)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.NewInvalidTokenError(err)
	}
	if apiErr.Err != nil {
		slog.Debug("session validation failed",
			slog.String("path", r.URL.Path),
			slog.String("code", apiErr.Code),
			slog.String("error", apiErr.Err.Error()),
		)
	}
	WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
}

// SessionFromContext はリクエストコンテキストから検証済みセッションを取得する。
// 認証ミドルウェアを通過していない場合はnilを返す。
func SessionFromContext(ctx context.Context) *auth.SessionClaims {
	session, _ := ctx.Value(sessionContextKey).(*auth.SessionClaims)
	return session
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	session := SessionFromContext(ctx)
	if session == nil || session.UserID == "" {
		return "", errors.New("user ID not found in context")
	}
	return session.UserID, nil
}

// RoleFromContext はリクエストコンテキストからロールを取得する。
// セッションがない場合はokがfalseになる。
func RoleFromContext(ctx context.Context) (model.Role, bool) {
	session := SessionFromContext(ctx)
	if session == nil {
		return "", false
	}
	return session.Role, true
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, session *auth.SessionClaims) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
