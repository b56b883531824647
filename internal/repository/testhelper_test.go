package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/hitoshi/storefront/internal/database"
	"github.com/hitoshi/storefront/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

// setupPostgres はTEST_DATABASE_URLのDBを最新スキーマに揃え、データを空にして返す。
// 未設定または接続できない場合はスキップする。
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL が未設定のためスキップ")
	}

	db, err := database.OpenAndPing(context.Background(), url, 3*time.Second)
	if err != nil {
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(url); err != nil {
		t.Fatalf("マイグレーションに失敗: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE order_items, orders, users CASCADE`); err != nil {
		t.Fatalf("クリーンアップに失敗: %v", err)
	}
	return db
}

// setupMongo はTEST_MONGODB_URIの一時データベースを返す。テスト終了時に削除する。
func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI が未設定のためスキップ")
	}

	ctx := context.Background()
	store, err := database.ConnectMongo(ctx, uri, "storefront_repo_test", 3*time.Second)
	if err != nil {
		t.Skipf("テスト用MongoDBに接続できません（スキップ）: %v", err)
	}
	if err := store.Database.Drop(ctx); err != nil {
		t.Fatalf("データベースの削除に失敗: %v", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("インデックス作成に失敗: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Database.Drop(context.Background())
		_ = store.Close(context.Background())
	})
	return store.Database
}

// newTestUser は作成日時をずらしたユーザーを生成する。
func newTestUser(email string, role model.Role, approved bool, offset time.Duration) *model.User {
	u := model.NewUser(email, email, "sub-"+email, "", time.Now().UTC().Add(offset).Truncate(time.Millisecond))
	u.Role = role
	u.IsApproved = approved
	return u
}
