package repo

import (
	"context"

	"github.com/Chang9601/blog-auth-service/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uint64, error)

	// GetActiveUserByEmail and GetActiveUserByID skip soft-deleted users.
	GetActiveUserByEmail(ctx context.Context, email string) (model.User, error)

	GetActiveUserByID(ctx context.Context, id uint64) (model.User, error)

	UpdateUser(ctx context.Context, u model.User) error

	// SetRefreshToken unconditionally overwrites the stored refresh token
	// (login path; the previous token, if any, stops being accepted).
	SetRefreshToken(ctx context.Context, id uint64, token string) error

	// RotateRefreshToken swaps old for new only if old is still the stored
	// token. Returns false when the row was not updated, which means a
	// concurrent rotation won the race.
	RotateRefreshToken(ctx context.Context, id uint64, oldToken, newToken string) (bool, error)

	ClearRefreshToken(ctx context.Context, id uint64) error
}
