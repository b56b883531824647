package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// RiderServiceInterface は配達員ハンドラーが必要とする注文サービスのインターフェース。
type RiderServiceInterface interface {
	MyOrders(ctx context.Context, riderID string) ([]*model.Order, error)
	Statistics(ctx context.Context, riderID string) (*model.DeliveryStats, error)
}

// ProfileServiceInterface はプロフィール更新に必要なサービスインターフェース。
type ProfileServiceInterface interface {
	UpdateProfile(ctx context.Context, userID, phoneNumber string) (*model.User, error)
}

// RiderHandler は配達員向けのHTTPハンドラー。
// ルーティングでriderロールを要求すること。
type RiderHandler struct {
	orders  RiderServiceInterface
	profile ProfileServiceInterface
}

// NewRiderHandler はRiderHandlerを生成する。
func NewRiderHandler(orders RiderServiceInterface, profile ProfileServiceInterface) *RiderHandler {
	return &RiderHandler{orders: orders, profile: profile}
}

type orderItemResponse struct {
	ProductID string  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type orderOwnerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	User            *orderOwnerResponse `json:"user,omitempty"`
	RiderID         *string             `json:"riderId,omitempty"`
	Status          string              `json:"status"`
	Items           []orderItemResponse `json:"items"`
	TotalAmount     float64             `json:"totalAmount"`
	ShippingAddress string              `json:"shippingAddress"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func toOrderResponse(o *model.Order) orderResponse {
	res := orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		RiderID:         o.RiderID,
		Status:          string(o.Status),
		Items:           make([]orderItemResponse, 0, len(o.Items)),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.Owner != nil {
		res.User = &orderOwnerResponse{ID: o.Owner.ID, Name: o.Owner.Name, Email: o.Owner.Email}
	}
	for _, it := range o.Items {
		res.Items = append(res.Items, orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return res
}

// MyOrders は自分に割り当てられた注文を新しい順に返す。
// GET /rider/my-orders
func (h *RiderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	riderID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewMissingTokenError(), "")
		return
	}

	orders, err := h.orders.MyOrders(r.Context(), riderID)
	if err != nil {
		handleServiceError(w, err, "")
		return
	}

	res := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, res)
}

type statisticsResponse struct {
	TotalDelivered    int64 `json:"totalDelivered"`
	TotalUndelivered  int64 `json:"totalUndelivered"`
	PendingDeliveries int64 `json:"pendingDeliveries"`
}

// Statistics は自分の配達統計を返す。
// GET /rider/statistics
func (h *RiderHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	riderID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewMissingTokenError(), "")
		return
	}

	stats, err := h.orders.Statistics(r.Context(), riderID)
	if err != nil {
		handleServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, statisticsResponse{
		TotalDelivered:    stats.Delivered,
		TotalUndelivered:  stats.Undelivered,
		PendingDeliveries: stats.Pending,
	})
}

type updateProfileRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type profileResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	Role        string  `json:"role"`
}

// UpdateProfile は自分の電話番号を更新する。
// phoneNumberが未指定または空の場合は変更せず現在の値を返す。
// PATCH /rider/profile
func (h *RiderHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewMissingTokenError(), "")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		handleServiceError(w, err, "")
		return
	}

	user, err := h.profile.UpdateProfile(r.Context(), userID, req.PhoneNumber)
	if err != nil {
		handleServiceError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        string(user.Role),
	})
}
