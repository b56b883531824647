package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/lib/pq"
)

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

// ListByRider はriderに割り当てられた注文を作成日時の降順で返す。
// 注文者の概要はusersとのJOINで、明細はorder_itemsから一括で取得する。
func (r *PostgresOrderRepo) ListByRider(ctx context.Context, riderID string) ([]*model.Order, error) {
	if _, err := uuid.Parse(riderID); err != nil {
		return []*model.Order{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT o.id, o.user_id, o.rider_id, o.status, o.total_amount, o.shipping_address,
		        o.created_at, o.updated_at, u.name, u.email
		 FROM orders o
		 JOIN users u ON u.id = o.user_id
		 WHERE o.rider_id = $1
		 ORDER BY o.created_at DESC`,
		riderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by rider: %w", err)
	}
	defer rows.Close()

	orders := make([]*model.Order, 0)
	byID := make(map[string]*model.Order)
	ids := make([]string, 0)

	for rows.Next() {
		var (
			o          model.Order
			rider      sql.NullString
			status     string
			ownerName  string
			ownerEmail string
		)
		if err := rows.Scan(
			&o.ID, &o.UserID, &rider, &status, &o.TotalAmount, &o.ShippingAddress,
			&o.CreatedAt, &o.UpdatedAt, &ownerName, &ownerEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Status = model.OrderStatus(status)
		if rider.Valid {
			o.RiderID = &rider.String
		}
		o.Owner = &model.OrderOwner{ID: o.UserID, Name: ownerName, Email: ownerEmail}
		o.Items = make([]model.OrderItem, 0)

		orders = append(orders, &o)
		byID[o.ID] = &o
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	if err := r.attachItems(ctx, ids, byID); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems は注文IDの集合に対応する明細を取得し、各注文に設定する。
func (r *PostgresOrderRepo) attachItems(ctx context.Context, ids []string, byID map[string]*model.Order) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, product_id, name, quantity, price
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, position`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			item    model.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate order items: %w", err)
	}

	return nil
}

// CountByRiderAndStatus はriderに割り当てられた指定ステータスの注文数を返す。
func (r *PostgresOrderRepo) CountByRiderAndStatus(ctx context.Context, riderID string, status model.OrderStatus) (int64, error) {
	if _, err := uuid.Parse(riderID); err != nil {
		return 0, nil
	}

	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE rider_id = $1 AND status = $2`,
		riderID, string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

// compile-time interface check
var _ OrderRepository = (*PostgresOrderRepo)(nil)
