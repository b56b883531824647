package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/storefront/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UsersCollection はユーザーを格納するコレクション名。
const UsersCollection = "users"

// mongoUser はusersコレクションのドキュメント表現。
type mongoUser struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	Name           string             `bson:"name"`
	GoogleID       *string            `bson:"googleId,omitempty"`
	ProfilePicture string             `bson:"profilePicture,omitempty"`
	Role           string             `bson:"role"`
	IsApproved     bool               `bson:"isApproved"`
	PhoneNumber    *string            `bson:"phoneNumber,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d *mongoUser) toModel() *model.User {
	return &model.User{
		ID:             d.ID.Hex(),
		Email:          d.Email,
		Name:           d.Name,
		GoogleID:       d.GoogleID,
		ProfilePicture: d.ProfilePicture,
		Role:           model.Role(d.Role),
		IsApproved:     d.IsApproved,
		PhoneNumber:    d.PhoneNumber,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo はMongoUserRepoを生成する。
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection(UsersCollection)}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail はemailでユーザーを検索する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc mongoUser
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toModel(), nil
}

// Create はユーザーを作成する。
// emailのユニークインデックスに違反した場合はmodel.ErrDuplicateEmailを返す。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) error {
	doc := mongoUser{
		ID:             primitive.NewObjectID(),
		Email:          user.Email,
		Name:           user.Name,
		GoogleID:       user.GoogleID,
		ProfilePicture: user.ProfilePicture,
		Role:           string(user.Role),
		IsApproved:     user.IsApproved,
		PhoneNumber:    user.PhoneNumber,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = doc.ID.Hex()
	return nil
}

// List はユーザー一覧を作成日時の昇順で返す。roleがnilの場合は全件を返す。
func (r *MongoUserRepo) List(ctx context.Context, role *model.Role) ([]*model.User, error) {
	filter := bson.M{}
	if role != nil {
		filter["role"] = string(*role)
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cur.Close(ctx)

	users := make([]*model.User, 0)
	for cur.Next(ctx) {
		var doc mongoUser
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// UpdateRole はロールを更新し、更新後のユーザーを返す。存在しない場合はnilを返す。
func (r *MongoUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	return r.setField(ctx, id, "role", string(role))
}

// UpdateApproval は承認フラグを更新し、更新後のユーザーを返す。存在しない場合はnilを返す。
func (r *MongoUserRepo) UpdateApproval(ctx context.Context, id string, approved bool) (*model.User, error) {
	return r.setField(ctx, id, "isApproved", approved)
}

// UpdatePhoneNumber は電話番号を更新し、更新後のユーザーを返す。存在しない場合はnilを返す。
func (r *MongoUserRepo) UpdatePhoneNumber(ctx context.Context, id string, phoneNumber string) (*model.User, error) {
	return r.setField(ctx, id, "phoneNumber", phoneNumber)
}

func (r *MongoUserRepo) setField(ctx context.Context, id, field string, value any) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	update := bson.M{"$set": bson.M{field: value, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoUser
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", field, err)
	}

	return doc.toModel(), nil
}

// Counts は管理ダッシュボード用の集計値を返す。
func (r *MongoUserRepo) Counts(ctx context.Context) (*model.UserCounts, error) {
	customers, err := r.coll.CountDocuments(ctx, bson.M{"role": string(model.RoleCustomer)})
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	riders, err := r.coll.CountDocuments(ctx, bson.M{"role": string(model.RoleRider)})
	if err != nil {
		return nil, fmt.Errorf("failed to count riders: %w", err)
	}
	pending, err := r.coll.CountDocuments(ctx, bson.M{"isApproved": false})
	if err != nil {
		return nil, fmt.Errorf("failed to count pending approvals: %w", err)
	}

	return &model.UserCounts{
		Customers:        customers,
		Riders:           riders,
		PendingApprovals: pending,
	}, nil
}

// compile-time interface check
var _ UserRepository = (*MongoUserRepo)(nil)
