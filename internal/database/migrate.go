// Package database はPostgreSQL・MongoDBへの接続とマイグレーション管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// users / orders / order_items の3テーブルを作成するSQL。
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUnsupportedMigrationURL はPostgreSQL以外の接続URLが渡された場合に返す。
// MongoDBはスキーマを持たず、serve起動時のEnsureIndexesでインデックスのみを作成する。
var ErrUnsupportedMigrationURL = errors.New("migrations support postgres URLs only")

// NewMigrator はストアフロントのスキーマ用migrateインスタンスを生成する。
// databaseURLはpostgres://またはpostgresql://で始まる必要がある。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	u, err := url.Parse(databaseURL)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return nil, ErrUnsupportedMigrationURL
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// RunMigrations は未適用のマイグレーションをすべて適用する。
// すでに最新の場合はエラーなしで返る。
func RunMigrations(databaseURL string) error {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationVersion は適用済みのスキーマバージョンを返す。
// 一度も適用されていない場合はversion=0, dirty=falseを返す。
func MigrationVersion(databaseURL string) (version uint, dirty bool, err error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}

	return version, dirty, nil
}
