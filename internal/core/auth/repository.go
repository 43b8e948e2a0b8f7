package auth

import "context"

// Repository はユーザーとトークンの永続化の抽象です。
type Repository interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	FindTokenByUserID(ctx context.Context, userID int64) (*Token, error)
	CreateToken(ctx context.Context, token *Token) (*Token, error)
	// FindPrincipalByToken は有効なユーザーに紐づくトークンのみを解決します。
	FindPrincipalByToken(ctx context.Context, key string) (*Principal, error)
}
