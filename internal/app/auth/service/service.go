package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Chang9601/blog-auth-service/internal/adapters/transport/http/dto"
	"github.com/Chang9601/blog-auth-service/internal/app/auth/token"
	customErrors "github.com/Chang9601/blog-auth-service/internal/domain/auth/errors"
	"github.com/Chang9601/blog-auth-service/internal/domain/auth/model"
	"github.com/Chang9601/blog-auth-service/internal/domain/auth/repo"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Service interface {
	Register(ctx context.Context, in dto.RegisterDTO) (model.TokenPair, error)
	Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (model.User, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
}

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	codec     *token.Codec
	issuer    *token.Issuer
	pepper    string
	v         *validator.Validate
	log       *zap.Logger
}

func New(
	ur repo.UserRepo,
	tr repo.TokenRepo,
	codec *token.Codec,
	issuer *token.Issuer,
	pepper string,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	return &authService{
		userRepo: ur, tokenRepo: tr, codec: codec, issuer: issuer,
		pepper: pepper, v: v, log: log,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	passwordHash, err := argon2id.CreateHash(in.Password+a.pepper, argonParams)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
		Active:       true,
	}
	id, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.TokenPair{}, customErrors.ErrAlreadyExists
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}

	return a.issueAndStore(ctx, id, user.Email)
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetActiveUserByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, customErrors.ErrUserNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := argon2id.ComparePasswordAndHash(in.Password+a.pepper, user.PasswordHash)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	return a.issueAndStore(ctx, user.ID, user.Email)
}

// Authenticate resolves an access token to its active user. A revoked or
// unverifiable token and a token whose subject no longer resolves are
// reported as distinct failures so the per-request flow can branch.
func (a *authService) Authenticate(ctx context.Context, accessToken string) (model.User, error) {
	if !a.codec.Verify(accessToken) {
		return model.User{}, customErrors.ErrInvalidToken
	}

	revoked, err := a.tokenRepo.IsAccessRevoked(ctx, digest(accessToken))
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "Authenticate")
	}
	if revoked {
		return model.User{}, customErrors.ErrInvalidToken
	}

	subject, err := a.codec.ParseSubject(accessToken)
	if err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetActiveUserByEmail(ctx, subject)
	switch {
	case errors.Is(err, customErrors.ErrUserNotFound):
		return model.User{}, customErrors.ErrUserNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "Authenticate")
	}
	return user, nil
}

// Refresh rotates a refresh token. The check order is load-bearing:
// signature/expiry first, then subject resolution, then the stored-token
// comparison, and only then issuance. A presented token that verifies but
// does not match the stored one is a reuse signal; the stored token is
// cleared so every holder has to re-authenticate.
func (a *authService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if a.codec.Check(refreshToken) != token.StatusValid {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	subject, err := a.codec.ParseSubject(refreshToken)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetActiveUserByEmail(ctx, subject)
	switch {
	case errors.Is(err, customErrors.ErrUserNotFound):
		return model.TokenPair{}, customErrors.ErrUserNotFound
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	if user.CurrentRefreshToken == nil || *user.CurrentRefreshToken != refreshToken {
		return model.TokenPair{}, a.revokeOnReuse(ctx, user.ID)
	}

	pair, err := a.issuer.Issue(user.Email)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	swapped, err := a.userRepo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}
	if !swapped {
		// A concurrent rotation won between the read and the swap. Same
		// signal as reuse: one of the two presenters holds a stale token.
		return model.TokenPair{}, a.revokeOnReuse(ctx, user.ID)
	}

	pair.UserID = user.ID
	return pair, nil
}

func (a *authService) revokeOnReuse(ctx context.Context, userID uint64) error {
	if err := a.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		return customErrors.WrapInternal(err, "revoke on reuse")
	}
	a.log.Warn("refresh token reuse detected, refresh capability revoked",
		zap.Uint64("user_id", userID),
	)
	return customErrors.ErrRefreshTokenMismatch
}

// Logout clears the stored refresh token and deny-lists the access token
// until its natural expiry. An already-expired access token is not an
// error.
func (a *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if !a.codec.Verify(refreshToken) {
		return customErrors.ErrInvalidToken
	}

	subject, err := a.codec.ParseSubject(refreshToken)
	if err != nil {
		return customErrors.ErrInvalidToken
	}

	user, err := a.userRepo.GetActiveUserByEmail(ctx, subject)
	switch {
	case errors.Is(err, customErrors.ErrUserNotFound):
		return customErrors.ErrUserNotFound
	case err != nil:
		return customErrors.WrapInternal(err, "Logout")
	}

	if err := a.userRepo.ClearRefreshToken(ctx, user.ID); err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}

	if accessToken != "" && a.codec.Verify(accessToken) {
		exp, err := a.codec.ParseExpiry(accessToken)
		if err == nil {
			if err := a.tokenRepo.RevokeAccess(ctx, digest(accessToken), exp); err != nil {
				return customErrors.WrapInternal(err, "Logout")
			}
		}
	}
	return nil
}

func (a *authService) issueAndStore(ctx context.Context, userID uint64, email string) (model.TokenPair, error) {
	pair, err := a.issuer.Issue(email)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Issue")
	}
	if err := a.userRepo.SetRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "StoreRefresh")
	}
	pair.UserID = userID
	return pair, nil
}

// digest keys the deny list; raw tokens never reach the store.
func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
