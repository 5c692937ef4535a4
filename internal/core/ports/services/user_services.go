package services

import (
	"context"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// UserSvcFacade authenticates finance officers for the API surface.
type UserSvcFacade interface {
	// Authenticate verifies the username/password pair against the stored
	// bcrypt hash and returns the matching active user.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}
