package token

import (
	"errors"
	"time"

	"github.com/Chang9601/blog-auth-service/internal/domain/auth/model"
)

// Issuer mints an access/refresh pair for a subject. Issuance is pure:
// persisting the refresh token is the caller's responsibility.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(codec *Codec, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &Issuer{codec: codec, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

func (i *Issuer) Issue(subject string) (model.TokenPair, error) {
	at, err := i.codec.Encode(subject, i.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}
	rt, err := i.codec.Encode(subject, i.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    i.accessTTL,
		RefreshTTL:   i.refreshTTL,
	}, nil
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }
