package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/hr-records-api/internal/core/auth"
)

func TestTranslateAuthPgError(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: uniqueViolationCode}
	if !errors.Is(translateAuthPgError(pgErr), auth.ErrUsernameTaken) {
		t.Fatal("expected username taken mapping")
	}

	other := errors.New("random")
	if translateAuthPgError(other) != other {
		t.Fatal("unexpected translation for generic error")
	}
}

func TestAuthRepository_CreateToken_ReturnsExistingKey(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewAuthRepository(mock)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (user_id) DO UPDATE`)).
		WithArgs("new-key", int64(1), now).
		WillReturnRows(pgxmock.NewRows([]string{"key", "user_id", "created_at"}).AddRow("existing-key", int64(1), now))

	token, err := repo.CreateToken(context.Background(), &auth.Token{Key: "new-key", UserID: 1, CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateToken returned error: %v", err)
	}
	if token.Key != "existing-key" {
		t.Fatalf("expected existing key, got %s", token.Key)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuthRepository_FindPrincipalByToken(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewAuthRepository(mock)

	query := regexp.QuoteMeta(`JOIN auth_users u ON u.id = t.user_id WHERE t.key = $1 AND u.is_active`)
	mock.ExpectQuery(query).
		WithArgs("abc").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).AddRow(int64(3), "admin"))
	mock.ExpectQuery(query).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}))

	p, err := repo.FindPrincipalByToken(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FindPrincipalByToken returned error: %v", err)
	}
	if p.UserID != 3 || p.Username != "admin" {
		t.Fatalf("unexpected principal %+v", p)
	}

	if _, err := repo.FindPrincipalByToken(context.Background(), "missing"); !errors.Is(err, auth.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuthRepository_FindUserByUsername_NotFound(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewAuthRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM auth_users WHERE username = $1`)).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "password_hash", "is_active", "created_at"}))

	if _, err := repo.FindUserByUsername(context.Background(), "ghost"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
