package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore はMongoDBのクライアントと利用するデータベースを保持する。
type MongoStore struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectMongo はMongoDBに接続し、timeout以内に疎通を確認する。
func ConnectMongo(ctx context.Context, uri, dbName string, timeout time.Duration) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{Client: client, Database: client.Database(dbName)}, nil
}

// PingContext はプライマリへの疎通を確認する。
// handler.HealthCheckerを満たす。
func (s *MongoStore) PingContext(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

// Close はクライアントを切断する。
func (s *MongoStore) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes はアプリケーションが前提とするインデックスを作成する。
// 既に存在するインデックスの作成は何もしない。
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.Database.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_email_unique"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetName("users_role"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = s.Database.Collection("orders").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "rider", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("orders_rider_created"),
		},
		{
			Keys:    bson.D{{Key: "rider", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("orders_rider_status"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}

	return nil
}
