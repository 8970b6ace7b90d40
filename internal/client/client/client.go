package client

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
)

// AuthResult is what a successful login or account creation yields.
type AuthResult struct {
	Token string
	User  models.User
}

type Client interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	CreateAccount(ctx context.Context, email, password string) (*AuthResult, error)
	CheckAuth(ctx context.Context, token string) (*models.User, error)
	Ping(ctx context.Context) error
	Close() error
}

// HealthChecker reports whether the Auth API is reachable.
type HealthChecker interface {
	Check(ctx context.Context) error
	Close() error
}
