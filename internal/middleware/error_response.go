package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
)

// InternalErrorMessage はハンドルされなかったエラーに対してクライアントへ返すメッセージ。
const InternalErrorMessage = "Something went wrong!"

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// messageは常に含まれる。
type ErrorResponseBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、クライアントにはmessageのみを返す。
func WriteInternalServerError(w http.ResponseWriter, message string) {
	if message == "" {
		message = InternalErrorMessage
	}
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:    model.ErrCodeInternal,
		Message: message,
	})
}
