package auth

import "time"

// User は API を利用するアカウントです。
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Token はユーザーに 1 つだけ発行される不透明なアクセストークンです。
type Token struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}

// Principal は認証済みリクエストの主体です。
type Principal struct {
	UserID   int64
	Username string
}
