package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// loginFailedMessage はログイン処理の予期しない失敗時にクライアントへ返すメッセージ。
const loginFailedMessage = "Authentication failed"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GoogleLogin(ctx context.Context, idToken string) (*auth.LoginResult, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// LoginRecorder はログイン結果の記録インターフェース。
type LoginRecorder interface {
	RecordLogin(outcome string)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	logins  LoginRecorder
}

// NewAuthHandler はAuthHandlerを生成する。loginsがnilの場合は記録しない。
func NewAuthHandler(service AuthServiceInterface, logins LoginRecorder) *AuthHandler {
	if logins == nil {
		logins = metrics.NopCollector{}
	}
	return &AuthHandler{service: service, logins: logins}
}

type googleLoginRequest struct {
	Token string `json:"token"`
}

type googleLoginResponse struct {
	Token string              `json:"token"`
	User  userSummaryResponse `json:"user"`
}

// GoogleLogin はGoogleのIDトークンでログインし、セッショントークンを返す。
// POST /auth/google-login
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err, loginFailedMessage)
		return
	}

	res, err := h.service.GoogleLogin(r.Context(), req.Token)
	if err != nil {
		h.logins.RecordLogin(loginOutcome(err))
		handleServiceError(w, err, loginFailedMessage)
		return
	}

	h.logins.RecordLogin(metrics.LoginSuccess)
	writeJSON(w, http.StatusOK, googleLoginResponse{
		Token: res.Token,
		User:  toUserSummary(res.User),
	})
}

func loginOutcome(err error) string {
	switch {
	case model.IsCode(err, model.ErrCodeInvalidIdentityToken):
		return metrics.LoginInvalidToken
	case model.IsCode(err, model.ErrCodePendingApproval):
		return metrics.LoginPendingApproval
	default:
		return metrics.LoginError
	}
}

// Me はセッションの主体であるユーザーの概要を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewMissingTokenError(), "")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, toUserSummary(user))
}
