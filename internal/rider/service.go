// Package rider は配達員向けの注文参照と配達統計を提供する。
package rider

import (
	"context"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service は配達員向けのサービス層。
type Service struct {
	orderRepo repository.OrderRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(orderRepo repository.OrderRepository) *Service {
	return &Service{orderRepo: orderRepo}
}

// MyOrders はriderに割り当てられた注文を新しい順に返す。
func (s *Service) MyOrders(ctx context.Context, riderID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByRider(ctx, riderID)
	if err != nil {
		return nil, model.NewPersistenceError(err)
	}
	return orders, nil
}

// Statistics はriderの配達統計を返す。
// 配達待ちはshippedステータスの注文数とする。
func (s *Service) Statistics(ctx context.Context, riderID string) (*model.DeliveryStats, error) {
	stats := &model.DeliveryStats{}
	targets := []struct {
		status model.OrderStatus
		dst    *int64
	}{
		{model.OrderStatusDelivered, &stats.Delivered},
		{model.OrderStatusUndelivered, &stats.Undelivered},
		{model.OrderStatusShipped, &stats.Pending},
	}

	for _, t := range targets {
		n, err := s.orderRepo.CountByRiderAndStatus(ctx, riderID, t.status)
		if err != nil {
			return nil, model.NewPersistenceError(err)
		}
		*t.dst = n
	}

	return stats, nil
}
