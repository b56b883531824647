package model

import "time"

// OrderStatus は注文の配送状態を表す。
type OrderStatus string

const (
	OrderStatusPending     OrderStatus = "pending"
	OrderStatusProcessing  OrderStatus = "processing"
	OrderStatusShipped     OrderStatus = "shipped"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusUndelivered OrderStatus = "undelivered"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

// OrderItem は注文明細を表す。商品名と価格は注文時点のスナップショット。
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     float64
}

// OrderOwner は注文者の概要。rider向け一覧で注文に埋め込む。
type OrderOwner struct {
	ID    string
	Name  string
	Email string
}

// Order は注文を表す。
// 1人のriderに複数の注文が割り当てられ、1人のユーザーが複数の注文を持つ。
type Order struct {
	ID              string
	UserID          string
	RiderID         *string
	Status          OrderStatus
	Items           []OrderItem
	TotalAmount     float64
	ShippingAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Owner は一覧取得時のみ設定される。
	Owner *OrderOwner
}

// DeliveryStats はriderの配送統計。
type DeliveryStats struct {
	Delivered   int64
	Undelivered int64
	Pending     int64 // shipped状態の件数
}
