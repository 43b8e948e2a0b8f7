package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/ogurasousui/hr-records-api/internal/core/rules"
)

const (
	tokenBytes       = 20
	maxUsernameRunes = 150
	minPasswordRunes = 8
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// UseCase は認証ユースケースの公開インターフェースです。
type UseCase interface {
	Login(ctx context.Context, in LoginInput) (*Token, error)
	Validate(ctx context.Context, key string) (*Principal, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)
}

// Service はログインとトークン検証を扱います。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
	cost  int
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx, cost: bcrypt.DefaultCost}
}

// LoginInput はログイン時の入力です。
type LoginInput struct {
	Username *string
	Password *string
}

// CreateUserInput はユーザー作成時の入力です。
type CreateUserInput struct {
	Username string
	Password string
}

// Login は資格情報を検証し、ユーザーのトークンを返します。トークンが未発行の場合は発行します。
func (s *Service) Login(ctx context.Context, in LoginInput) (*Token, error) {
	if err := (validation.Errors{
		"username": validation.Validate(in.Username, validation.NotNil.Error(rules.MsgRequired), validation.Required.Error(rules.MsgBlank)),
		"password": validation.Validate(in.Password, validation.NotNil.Error(rules.MsgRequired), validation.Required.Error(rules.MsgBlank)),
	}).Filter(); err != nil {
		return nil, err
	}

	var token *Token
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		user, err := s.repo.FindUserByUsername(txCtx, *in.Username)
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		if !user.IsActive {
			return ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*in.Password)); err != nil {
			return ErrInvalidCredentials
		}

		token, err = s.repo.FindTokenByUserID(txCtx, user.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTokenNotFound) {
			return err
		}

		key, err := generateKey()
		if err != nil {
			return err
		}
		token, err = s.repo.CreateToken(txCtx, &Token{Key: key, UserID: user.ID, CreatedAt: s.clock.Now()})
		return err
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Validate はトークンを検証し、認証主体を返します。
func (s *Service) Validate(ctx context.Context, key string) (*Principal, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrInvalidToken
	}

	var principal *Principal
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		principal, err = s.repo.FindPrincipalByToken(txCtx, key)
		return err
	})
	if errors.Is(err, ErrTokenNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return principal, nil
}

// CreateUser はパスワードを bcrypt でハッシュ化してユーザーを作成します。
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	if err := (validation.Errors{
		"username": validation.Validate(username,
			validation.Required.Error(rules.MsgBlank),
			validation.RuneLength(0, maxUsernameRunes).Error(fmt.Sprintf("Ensure this field has no more than %d characters.", maxUsernameRunes))),
		"password": validation.Validate(in.Password,
			validation.Required.Error(rules.MsgBlank),
			validation.RuneLength(minPasswordRunes, 0).Error(fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordRunes))),
	}).Filter(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	var created *User
	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.CreateUser(txCtx, &User{
			Username:     username,
			PasswordHash: string(hash),
			IsActive:     true,
			CreatedAt:    s.clock.Now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func generateKey() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
