package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/storefront/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// seededOrder はテストデータ投入用の注文。
type seededOrder struct {
	status  model.OrderStatus
	age     time.Duration
	items   int
	byRider bool
}

var orderFixtures = []seededOrder{
	{status: model.OrderStatusShipped, age: 3 * time.Hour, items: 2, byRider: true},
	{status: model.OrderStatusDelivered, age: 2 * time.Hour, items: 1, byRider: true},
	{status: model.OrderStatusDelivered, age: 1 * time.Hour, items: 1, byRider: true},
	{status: model.OrderStatusUndelivered, age: 30 * time.Minute, items: 0, byRider: true},
	{status: model.OrderStatusShipped, age: 10 * time.Minute, items: 1, byRider: false},
}

func orderRepoContract(t *testing.T, repo OrderRepository, riderID, otherRiderID string) {
	ctx := context.Background()

	t.Run("ListByRider 新しい順", func(t *testing.T) {
		orders, err := repo.ListByRider(ctx, riderID)
		if err != nil {
			t.Fatalf("ListByRider failed: %v", err)
		}
		if len(orders) != 4 {
			t.Fatalf("len = %d, want 4", len(orders))
		}
		for i := 1; i < len(orders); i++ {
			if orders[i-1].CreatedAt.Before(orders[i].CreatedAt) {
				t.Errorf("orders not in descending order at %d", i)
			}
		}
		first := orders[len(orders)-1]
		if first.Status != model.OrderStatusShipped || len(first.Items) != 2 {
			t.Errorf("oldest order = %+v", first)
		}
		if first.Owner == nil || first.Owner.Email != "owner@example.com" {
			t.Errorf("owner = %+v", first.Owner)
		}
		if orders[0].Items == nil {
			t.Error("Items should be an empty slice, not nil")
		}
	})

	t.Run("ListByRider 割り当てなし", func(t *testing.T) {
		orders, err := repo.ListByRider(ctx, otherRiderID)
		if err != nil {
			t.Fatalf("ListByRider failed: %v", err)
		}
		if len(orders) != 1 {
			t.Errorf("len = %d, want 1", len(orders))
		}
	})

	t.Run("ListByRider 不正なID", func(t *testing.T) {
		orders, err := repo.ListByRider(ctx, "bogus")
		if err != nil || len(orders) != 0 {
			t.Errorf("ListByRider(bogus) = (%v, %v)", orders, err)
		}
	})

	t.Run("CountByRiderAndStatus", func(t *testing.T) {
		want := map[model.OrderStatus]int64{
			model.OrderStatusDelivered:   2,
			model.OrderStatusUndelivered: 1,
			model.OrderStatusShipped:     1,
			model.OrderStatusPending:     0,
		}
		for status, n := range want {
			got, err := repo.CountByRiderAndStatus(ctx, riderID, status)
			if err != nil {
				t.Fatalf("CountByRiderAndStatus(%s) failed: %v", status, err)
			}
			if got != n {
				t.Errorf("CountByRiderAndStatus(%s) = %d, want %d", status, got, n)
			}
		}
	})
}

func TestPostgresOrderRepo(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	users := NewPostgresUserRepo(db)

	owner := newTestUser("owner@example.com", model.RoleCustomer, true, 0)
	rider := newTestUser("rider@example.com", model.RoleRider, true, 0)
	other := newTestUser("other@example.com", model.RoleRider, true, 0)
	for _, u := range []*model.User{owner, rider, other} {
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("Create user failed: %v", err)
		}
	}

	now := time.Now().UTC()
	for _, f := range orderFixtures {
		riderID := rider.ID
		if !f.byRider {
			riderID = other.ID
		}
		orderID := uuid.New().String()
		created := now.Add(-f.age)
		if _, err := db.ExecContext(ctx,
			`INSERT INTO orders (id, user_id, rider_id, status, total_amount, shipping_address, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
			orderID, owner.ID, riderID, string(f.status), 10.5, "1-2-3 Shibuya", created,
		); err != nil {
			t.Fatalf("insert order failed: %v", err)
		}
		for i := 0; i < f.items; i++ {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO order_items (order_id, position, product_id, name, quantity, price)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				orderID, i, "p-1", "Tea", 1, 5.25,
			); err != nil {
				t.Fatalf("insert order item failed: %v", err)
			}
		}
	}

	orderRepoContract(t, NewPostgresOrderRepo(db), rider.ID, other.ID)
}

func TestMongoOrderRepo(t *testing.T) {
	db := setupMongo(t)
	ctx := context.Background()
	users := NewMongoUserRepo(db)

	owner := newTestUser("owner@example.com", model.RoleCustomer, true, 0)
	rider := newTestUser("rider@example.com", model.RoleRider, true, 0)
	other := newTestUser("other@example.com", model.RoleRider, true, 0)
	for _, u := range []*model.User{owner, rider, other} {
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("Create user failed: %v", err)
		}
	}

	oid := func(hex string) primitive.ObjectID {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			t.Fatalf("invalid object id %q: %v", hex, err)
		}
		return id
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(orderFixtures))
	for _, f := range orderFixtures {
		riderID := oid(rider.ID)
		if !f.byRider {
			riderID = oid(other.ID)
		}
		items := make([]mongoOrderItem, 0, f.items)
		for i := 0; i < f.items; i++ {
			items = append(items, mongoOrderItem{Product: primitive.NewObjectID(), Name: "Tea", Quantity: 1, Price: 5.25})
		}
		created := now.Add(-f.age)
		docs = append(docs, mongoOrder{
			ID:              primitive.NewObjectID(),
			User:            oid(owner.ID),
			Rider:           &riderID,
			Status:          string(f.status),
			Items:           items,
			TotalAmount:     10.5,
			ShippingAddress: "1-2-3 Shibuya",
			CreatedAt:       created,
			UpdatedAt:       created,
		})
	}
	if _, err := db.Collection(OrdersCollection).InsertMany(ctx, docs); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	orderRepoContract(t, NewMongoOrderRepo(db), rider.ID, other.ID)
}
