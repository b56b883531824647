package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/model"
)

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	ListRiders(ctx context.Context) ([]*model.User, error)
	UpdateRole(ctx context.Context, id, role string) (*model.User, error)
	UpdateApproval(ctx context.Context, id string, approved bool) (*model.User, error)
	Dashboard(ctx context.Context) (*model.UserCounts, error)
}

// AdminHandler は管理者向けのHTTPハンドラー。
// ルーティングでadminロールを要求すること。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// ListUsers は全ユーザーを返す。
// GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponses(users))
}

// ListRiders はriderロールのユーザーを返す。
// GET /admin/riders
func (h *AdminHandler) ListRiders(w http.ResponseWriter, r *http.Request) {
	riders, err := h.service.ListRiders(r.Context())
	if err != nil {
		handleServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponses(riders))
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRole はユーザーのロールを変更する。
// PATCH /admin/users/{id}/role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err, "")
		return
	}

	user, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		handleServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateApproval はユーザーの承認フラグを変更する。
// isApprovedが未指定またはboolでない場合は400を返す。
// PATCH /admin/users/{id}/approval
func (h *AdminHandler) UpdateApproval(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		handleServiceError(w, err, "")
		return
	}

	approved, err := parseStrictBool(body, "isApproved")
	if err != nil {
		handleServiceError(w, err, "")
		return
	}

	user, err := h.service.UpdateApproval(r.Context(), chi.URLParam(r, "id"), approved)
	if err != nil {
		handleServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// parseStrictBool はbodyのkeyがJSONのtrue/falseであることを確認して返す。
// nullや文字列の"true"は受け付けない。
func parseStrictBool(body map[string]json.RawMessage, key string) (bool, error) {
	raw, ok := body[key]
	if !ok {
		return false, model.NewValidationError(key + " is required")
	}
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, model.NewValidationError(key + " must be a boolean")
	}
}

type dashboardResponse struct {
	TotalUsers       int64 `json:"totalUsers"`
	TotalRiders      int64 `json:"totalRiders"`
	PendingApprovals int64 `json:"pendingApprovals"`
}

// Dashboard は管理ダッシュボードの集計値を返す。
// totalUsersはcustomerロールのユーザー数。
// GET /admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Dashboard(r.Context())
	if err != nil {
		handleServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		TotalUsers:       counts.Customers,
		TotalRiders:      counts.Riders,
		PendingApprovals: counts.PendingApprovals,
	})
}
