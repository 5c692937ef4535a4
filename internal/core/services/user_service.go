package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
	"github.com/kasapahq/vendorpay/internal/middleware"
	"github.com/kasapahq/vendorpay/internal/utils"
)

// userService authenticates finance officers. User provisioning lives outside
// this core; only the credential check happens here.
type userService struct {
	userRepo portsrepo.UserRepositoryFacade
}

// NewUserService creates a new UserService.
func NewUserService(userRepo portsrepo.UserRepositoryFacade) portssvc.UserSvcFacade {
	return &userService{userRepo: userRepo}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

// Authenticate verifies the username/password pair against the stored bcrypt
// hash. A missing user and a wrong password are indistinguishable to the
// caller.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Login attempt for unknown username", slog.String("username", username))
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrValidation)
		}
		return nil, fmt.Errorf("failed to look up user %q: %w", username, err)
	}

	if !user.IsActive {
		logger.Warn("Login attempt for inactive user", slog.String("user_id", user.UserID))
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrValidation)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("Login attempt with wrong password", slog.String("user_id", user.UserID))
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrValidation)
	}

	return user, nil
}
