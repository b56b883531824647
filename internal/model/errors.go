package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// Messageはそのままクライアントに返される。
type APIError struct {
	Code    string // エラーコード
	Message string // エラーメッセージ
	Err     error  // 原因。ログ用でクライアントには返さない
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因のエラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// 定義済みエラーコード
const (
	ErrCodeInvalidIdentityToken = "INVALID_IDENTITY_TOKEN"
	ErrCodeMissingToken         = "MISSING_TOKEN"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeExpiredToken         = "EXPIRED_TOKEN"
	ErrCodePendingApproval      = "PENDING_APPROVAL"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeInvalidRole          = "INVALID_ROLE"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodePersistence          = "PERSISTENCE_ERROR"
	ErrCodeInternal             = "INTERNAL_ERROR"
	ErrCodeRateLimited          = "RATE_LIMIT_EXCEEDED"
)

// ErrDuplicateEmail はemailの一意制約違反を表す。リポジトリ層が返す。
var ErrDuplicateEmail = errors.New("user with this email already exists")

// NewInvalidIdentityTokenError は外部IDトークンの検証失敗エラーを生成する。
func NewInvalidIdentityTokenError(cause error) *APIError {
	return &APIError{Code: ErrCodeInvalidIdentityToken, Message: "Invalid token", Err: cause}
}

// NewMissingTokenError はBearerトークン未指定エラーを生成する。
func NewMissingTokenError() *APIError {
	return &APIError{Code: ErrCodeMissingToken, Message: "No token provided"}
}

// NewInvalidTokenError はセッショントークンの検証失敗エラーを生成する。
func NewInvalidTokenError(cause error) *APIError {
	return &APIError{Code: ErrCodeInvalidToken, Message: "Invalid token", Err: cause}
}

// NewExpiredTokenError はセッショントークンの期限切れエラーを生成する。
func NewExpiredTokenError(cause error) *APIError {
	return &APIError{Code: ErrCodeExpiredToken, Message: "Token expired", Err: cause}
}

// NewPendingApprovalError は未承認ユーザーのログイン拒否エラーを生成する。
func NewPendingApprovalError() *APIError {
	return &APIError{Code: ErrCodePendingApproval, Message: "Your account is pending approval"}
}

// NewForbiddenError はロール不一致エラーを生成する。
func NewForbiddenError(required Role) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: fmt.Sprintf("Access denied: %s role required", required),
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{Code: ErrCodeUserNotFound, Message: "User not found"}
}

// NewInvalidRoleError はロールが列挙値に含まれない場合のエラーを生成する。
func NewInvalidRoleError() *APIError {
	return &APIError{Code: ErrCodeInvalidRole, Message: "Invalid role"}
}

// NewValidationError は入力値の形式エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{Code: ErrCodeValidation, Message: message}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError(cause error) *APIError {
	return &APIError{Code: ErrCodeInvalidRequest, Message: "Invalid request body", Err: cause}
}

// NewPersistenceError は永続化層の失敗を表すエラーを生成する。
// 原因のメッセージをそのままクライアントに返す。
func NewPersistenceError(cause error) *APIError {
	msg := "persistence error"
	if cause != nil {
		msg = cause.Error()
	}
	return &APIError{Code: ErrCodePersistence, Message: msg, Err: cause}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{Code: ErrCodeRateLimited, Message: "Too many requests. Please try again later."}
}

// IsCode はerrがAPIErrorで指定コードを持つかを返す。
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
