package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	customErrors "github.com/Chang9601/blog-auth-service/internal/domain/auth/errors"
	"github.com/Chang9601/blog-auth-service/internal/domain/auth/model"
)

type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// CreateUser expects the *gorm.DB to be opened with TranslateError so a
// unique violation surfaces as gorm.ErrDuplicatedKey regardless of driver;
// the pgconn check covers raw postgres errors that bypass translation.
func (p *PostgresUserRepo) CreateUser(ctx context.Context, user model.User) (uint64, error) {
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, customErrors.ErrAlreadyExists
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, customErrors.ErrAlreadyExists
		}
		return 0, customErrors.WrapInternal(err, "CreateUser")
	}
	return user.ID, nil
}

func (p *PostgresUserRepo) GetActiveUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("email = ? AND active", email).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrUserNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetActiveUserByEmail")
	}
	return u, nil
}

func (p *PostgresUserRepo) GetActiveUserByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("id = ? AND active", id).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrUserNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetActiveUserByID")
	}
	return u, nil
}

func (p *PostgresUserRepo) UpdateUser(ctx context.Context, user model.User) error {
	res := p.db.WithContext(ctx).Save(&user)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "UpdateUser")
	}
	return nil
}

func (p *PostgresUserRepo) SetRefreshToken(ctx context.Context, id uint64, token string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("current_refresh_token", token)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "SetRefreshToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken is the compare-and-swap closing the reissue race: the
// update only lands if oldToken is still the stored token.
func (p *PostgresUserRepo) RotateRefreshToken(ctx context.Context, id uint64, oldToken, newToken string) (bool, error) {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND current_refresh_token = ?", id, oldToken).
		Update("current_refresh_token", newToken)
	if err := res.Error; err != nil {
		return false, customErrors.WrapInternal(err, "RotateRefreshToken")
	}
	return res.RowsAffected == 1, nil
}

func (p *PostgresUserRepo) ClearRefreshToken(ctx context.Context, id uint64) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("current_refresh_token", nil)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "ClearRefreshToken")
	}
	return nil
}
