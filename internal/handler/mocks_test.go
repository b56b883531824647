package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	googleLoginFn func(ctx context.Context, idToken string) (*auth.LoginResult, error)
	currentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) GoogleLogin(ctx context.Context, idToken string) (*auth.LoginResult, error) {
	if m.googleLoginFn != nil {
		return m.googleLoginFn(ctx, idToken)
	}
	return nil, nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return nil, model.NewUserNotFoundError()
}

type mockAdminService struct {
	listUsersFn      func(ctx context.Context) ([]*model.User, error)
	listRidersFn     func(ctx context.Context) ([]*model.User, error)
	updateRoleFn     func(ctx context.Context, id, role string) (*model.User, error)
	updateApprovalFn func(ctx context.Context, id string, approved bool) (*model.User, error)
	dashboardFn      func(ctx context.Context) (*model.UserCounts, error)
}

func (m *mockAdminService) ListUsers(ctx context.Context) ([]*model.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return []*model.User{}, nil
}

func (m *mockAdminService) ListRiders(ctx context.Context) ([]*model.User, error) {
	if m.listRidersFn != nil {
		return m.listRidersFn(ctx)
	}
	return []*model.User{}, nil
}

func (m *mockAdminService) UpdateRole(ctx context.Context, id, role string) (*model.User, error) {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(ctx, id, role)
	}
	return nil, nil
}

func (m *mockAdminService) UpdateApproval(ctx context.Context, id string, approved bool) (*model.User, error) {
	if m.updateApprovalFn != nil {
		return m.updateApprovalFn(ctx, id, approved)
	}
	return nil, nil
}

func (m *mockAdminService) Dashboard(ctx context.Context) (*model.UserCounts, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx)
	}
	return &model.UserCounts{}, nil
}

type mockRiderService struct {
	myOrdersFn   func(ctx context.Context, riderID string) ([]*model.Order, error)
	statisticsFn func(ctx context.Context, riderID string) (*model.DeliveryStats, error)
}

func (m *mockRiderService) MyOrders(ctx context.Context, riderID string) ([]*model.Order, error) {
	if m.myOrdersFn != nil {
		return m.myOrdersFn(ctx, riderID)
	}
	return []*model.Order{}, nil
}

func (m *mockRiderService) Statistics(ctx context.Context, riderID string) (*model.DeliveryStats, error) {
	if m.statisticsFn != nil {
		return m.statisticsFn(ctx, riderID)
	}
	return &model.DeliveryStats{}, nil
}

type mockProfileService struct {
	updateProfileFn func(ctx context.Context, userID, phoneNumber string) (*model.User, error)
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, userID, phoneNumber string) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, phoneNumber)
	}
	return nil, model.NewUserNotFoundError()
}

type mockLoginRecorder struct {
	outcomes []string
}

func (m *mockLoginRecorder) RecordLogin(outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

// --- compile-time interface checks ---
var (
	_ AuthServiceInterface    = (*mockAuthService)(nil)
	_ AdminServiceInterface   = (*mockAdminService)(nil)
	_ RiderServiceInterface   = (*mockRiderService)(nil)
	_ ProfileServiceInterface = (*mockProfileService)(nil)
	_ LoginRecorder           = (*mockLoginRecorder)(nil)
)

// withSession はリクエストに認証済みセッションを注入する。
func withSession(r *http.Request, userID string, role model.Role) *http.Request {
	return r.WithContext(middleware.ContextWithSession(r.Context(), &auth.SessionClaims{UserID: userID, Role: role}))
}

// decodeErrorBody はエラーレスポンスをデコードする。
func decodeErrorBody(t *testing.T, resp *http.Response) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}
