package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/lib/pq"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pgUniqueViolation = "23505"

const userColumns = `id, email, name, google_id, profile_picture, role, is_approved, phone_number, created_at, updated_at`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByEmail はemailでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成する。
// emailの一意制約に違反した場合はmodel.ErrDuplicateEmailを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Email, user.Name, user.GoogleID, user.ProfilePicture,
		string(user.Role), user.IsApproved, user.PhoneNumber, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// List はユーザー一覧を作成日時の昇順で返す。roleがnilの場合は全件を返す。
func (r *PostgresUserRepo) List(ctx context.Context, role *model.Role) ([]*model.User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if role != nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at ASC`,
			string(*role),
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+userColumns+` FROM users ORDER BY created_at ASC`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// UpdateRole はロールを更新し、更新後のユーザーを返す。存在しない場合はnilを返す。
func (r *PostgresUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	return r.updateReturning(ctx, "role", id, string(role))
}

// UpdateApproval は承認フラグを更新し、更新後のユーザーを返す。存在しない場合はnilを返す。
func (r *PostgresUserRepo) UpdateApproval(ctx context.Context, id string, approved bool) (*model.User, error) {
	return r.updateReturning(ctx, "is_approved", id, approved)
}

// UpdatePhoneNumber は電話番号を更新し、更新後のユーザーを返す。存在しない場合はnilを返す。
func (r *PostgresUserRepo) UpdatePhoneNumber(ctx context.Context, id string, phoneNumber string) (*model.User, error) {
	return r.updateReturning(ctx, "phone_number", id, phoneNumber)
}

// updateReturning は単一カラムを更新し、更新後の行を返す。
// columnは呼び出し元で固定された値のみを受け付ける。
func (r *PostgresUserRepo) updateReturning(ctx context.Context, column, id string, value any) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET `+column+` = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, value,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", column, err)
	}

	return user, nil
}

// Counts は管理ダッシュボード用の集計値を返す。
func (r *PostgresUserRepo) Counts(ctx context.Context) (*model.UserCounts, error) {
	counts := &model.UserCounts{}
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE role = 'customer'),
			COUNT(*) FILTER (WHERE role = 'rider'),
			COUNT(*) FILTER (WHERE NOT is_approved)
		 FROM users`,
	).Scan(&counts.Customers, &counts.Riders, &counts.PendingApprovals)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	return counts, nil
}

// scanUser は1行分のユーザーを読み取る。
func scanUser(row rowScanner) (*model.User, error) {
	var (
		u        model.User
		role     string
		googleID sql.NullString
		phone    sql.NullString
	)
	if err := row.Scan(
		&u.ID, &u.Email, &u.Name, &googleID, &u.ProfilePicture,
		&role, &u.IsApproved, &phone, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	u.Role = model.Role(role)
	if googleID.Valid {
		u.GoogleID = &googleID.String
	}
	if phone.Valid {
		u.PhoneNumber = &phone.String
	}

	return &u, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
