package repositories

import (
	"context"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// UserReader defines the lookups needed to authenticate finance officers.
type UserReader interface {
	// FindUserByUsername retrieves an active user by username.
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindUserByID retrieves a user by ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// UserRepositoryFacade combines the user repository interfaces.
type UserRepositoryFacade interface {
	UserReader
}
