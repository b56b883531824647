package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/storefront/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// OrdersCollection は注文を格納するコレクション名。
const OrdersCollection = "orders"

type mongoOrderItem struct {
	Product  primitive.ObjectID `bson:"product"`
	Name     string             `bson:"name"`
	Quantity int                `bson:"quantity"`
	Price    float64            `bson:"price"`
}

// mongoOrder はordersコレクションのドキュメント表現。
// ownerは$lookupで結合した注文者。
type mongoOrder struct {
	ID              primitive.ObjectID  `bson:"_id"`
	User            primitive.ObjectID  `bson:"user"`
	Rider           *primitive.ObjectID `bson:"rider,omitempty"`
	Status          string              `bson:"status"`
	Items           []mongoOrderItem    `bson:"items"`
	TotalAmount     float64             `bson:"totalAmount"`
	ShippingAddress string              `bson:"shippingAddress"`
	CreatedAt       time.Time           `bson:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt"`
	Owner           *mongoUser          `bson:"owner,omitempty"`
}

func (d *mongoOrder) toModel() *model.Order {
	o := &model.Order{
		ID:              d.ID.Hex(),
		UserID:          d.User.Hex(),
		Status:          model.OrderStatus(d.Status),
		Items:           make([]model.OrderItem, 0, len(d.Items)),
		TotalAmount:     d.TotalAmount,
		ShippingAddress: d.ShippingAddress,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Rider != nil {
		rider := d.Rider.Hex()
		o.RiderID = &rider
	}
	for _, it := range d.Items {
		item := model.OrderItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price}
		if !it.Product.IsZero() {
			item.ProductID = it.Product.Hex()
		}
		o.Items = append(o.Items, item)
	}
	if d.Owner != nil {
		o.Owner = &model.OrderOwner{ID: d.Owner.ID.Hex(), Name: d.Owner.Name, Email: d.Owner.Email}
	}
	return o
}

// MongoOrderRepo はMongoDBを使用した注文リポジトリ。
type MongoOrderRepo struct {
	coll *mongo.Collection
}

// NewMongoOrderRepo はMongoOrderRepoを生成する。
func NewMongoOrderRepo(db *mongo.Database) *MongoOrderRepo {
	return &MongoOrderRepo{coll: db.Collection(OrdersCollection)}
}

// ListByRider はriderに割り当てられた注文を作成日時の降順で返す。
// 注文者はusersコレクションから$lookupで結合する。
func (r *MongoOrderRepo) ListByRider(ctx context.Context, riderID string) ([]*model.Order, error) {
	oid, err := primitive.ObjectIDFromHex(riderID)
	if err != nil {
		return []*model.Order{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"rider": oid}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         UsersCollection,
			"localField":   "user",
			"foreignField": "_id",
			"as":           "owner",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$owner", "preserveNullAndEmptyArrays": true}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by rider: %w", err)
	}
	defer cur.Close(ctx)

	orders := make([]*model.Order, 0)
	for cur.Next(ctx) {
		var doc mongoOrder
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// CountByRiderAndStatus はriderに割り当てられた指定ステータスの注文数を返す。
func (r *MongoOrderRepo) CountByRiderAndStatus(ctx context.Context, riderID string, status model.OrderStatus) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(riderID)
	if err != nil {
		return 0, nil
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{"rider": oid, "status": string(status)})
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

// compile-time interface check
var _ OrderRepository = (*MongoOrderRepo)(nil)
