package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/hr-records-api/internal/core/auth"
	pgdb "github.com/ogurasousui/hr-records-api/internal/platform/db/postgres"
)

// AuthRepository は PostgreSQL を利用したユーザーとトークンの永続化の実装です。
type AuthRepository struct {
	pool pgdb.Queryer
}

// NewAuthRepository は AuthRepository を生成します。
func NewAuthRepository(pool pgdb.Queryer) *AuthRepository {
	return &AuthRepository{pool: pool}
}

// CreateUser はユーザーを新規作成します。
func (r *AuthRepository) CreateUser(ctx context.Context, u *auth.User) (*auth.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO auth_users (username, password_hash, is_active, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, username, password_hash, is_active, created_at
    `, u.Username, u.PasswordHash, u.IsActive, u.CreatedAt)

	created, err := scanUser(row)
	if err != nil {
		return nil, translateAuthPgError(err)
	}
	return created, nil
}

// FindUserByUsername はユーザー名でユーザーを取得します。
func (r *AuthRepository) FindUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, username, password_hash, is_active, created_at
          FROM auth_users
         WHERE username = $1
         LIMIT 1
    `, username)

	return scanUser(row)
}

// FindTokenByUserID はユーザーに発行済みのトークンを取得します。
func (r *AuthRepository) FindTokenByUserID(ctx context.Context, userID int64) (*auth.Token, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT key, user_id, created_at
          FROM auth_tokens
         WHERE user_id = $1
         LIMIT 1
    `, userID)

	return scanToken(row)
}

// CreateToken はトークンを保存します。同一ユーザーに対して既に発行済みの場合はその値を返します。
func (r *AuthRepository) CreateToken(ctx context.Context, t *auth.Token) (*auth.Token, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO auth_tokens (key, user_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE
           SET user_id = EXCLUDED.user_id
        RETURNING key, user_id, created_at
    `, t.Key, t.UserID, t.CreatedAt)

	return scanToken(row)
}

// FindPrincipalByToken は有効なユーザーに紐づくトークンを解決します。
func (r *AuthRepository) FindPrincipalByToken(ctx context.Context, key string) (*auth.Principal, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT u.id, u.username
          FROM auth_tokens t
          JOIN auth_users u ON u.id = t.user_id
         WHERE t.key = $1
           AND u.is_active
         LIMIT 1
    `, key)

	var p auth.Principal
	if err := row.Scan(&p.UserID, &p.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrTokenNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func scanToken(row pgx.Row) (*auth.Token, error) {
	var t auth.Token
	if err := row.Scan(&t.Key, &t.UserID, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

func translateAuthPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return auth.ErrUsernameTaken
	}
	return err
}
