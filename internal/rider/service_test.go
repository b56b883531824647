package rider

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

type mockOrderRepo struct {
	listByRiderFn func(ctx context.Context, riderID string) ([]*model.Order, error)
	countFn       func(ctx context.Context, riderID string, status model.OrderStatus) (int64, error)
}

func (m *mockOrderRepo) ListByRider(ctx context.Context, riderID string) ([]*model.Order, error) {
	if m.listByRiderFn != nil {
		return m.listByRiderFn(ctx, riderID)
	}
	return []*model.Order{}, nil
}

func (m *mockOrderRepo) CountByRiderAndStatus(ctx context.Context, riderID string, status model.OrderStatus) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, riderID, status)
	}
	return 0, nil
}

var _ repository.OrderRepository = (*mockOrderRepo)(nil)

func TestStatistics_CountsByStatus(t *testing.T) {
	counts := map[model.OrderStatus]int64{
		model.OrderStatusDelivered:   3,
		model.OrderStatusUndelivered: 1,
		model.OrderStatusShipped:     2,
		model.OrderStatusPending:     7,
	}
	repo := &mockOrderRepo{
		countFn: func(_ context.Context, riderID string, status model.OrderStatus) (int64, error) {
			if riderID != "rider-1" {
				t.Errorf("riderID = %q, want rider-1", riderID)
			}
			return counts[status], nil
		},
	}

	stats, err := NewService(repo).Statistics(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Delivered != 3 || stats.Undelivered != 1 || stats.Pending != 2 {
		t.Errorf("stats = %+v, want {3 1 2}", stats)
	}
}

func TestStatistics_PersistenceError(t *testing.T) {
	repo := &mockOrderRepo{
		countFn: func(_ context.Context, _ string, _ model.OrderStatus) (int64, error) {
			return 0, errors.New("timeout")
		},
	}

	_, err := NewService(repo).Statistics(context.Background(), "rider-1")
	if !model.IsCode(err, model.ErrCodePersistence) {
		t.Fatalf("expected PERSISTENCE_ERROR, got %v", err)
	}
}

func TestMyOrders_ReturnsRepositoryOrder(t *testing.T) {
	repo := &mockOrderRepo{
		listByRiderFn: func(_ context.Context, _ string) ([]*model.Order, error) {
			return []*model.Order{{ID: "new"}, {ID: "old"}}, nil
		},
	}

	orders, err := NewService(repo).MyOrders(context.Background(), "rider-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 || orders[0].ID != "new" {
		t.Errorf("orders = %+v", orders)
	}
}
