package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Chang9601/blog-auth-service/internal/domain/auth/model"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// CookieWriter carries opaque token strings in and out of requests. It has
// no knowledge of token structure.
type CookieWriter struct {
	Domain string
	Secure bool
}

// SetTokenPair writes both token cookies with max-age matching each
// token's lifetime. The refresh cookie gets SameSite=Strict; the access
// cookie stays at Lax so top-level navigations carry it.
func (w CookieWriter) SetTokenPair(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		AccessTokenCookie,
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		"/",
		w.Domain,
		w.Secure,
		true, // httpOnly
	)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		RefreshTokenCookie,
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		"/",
		w.Domain,
		w.Secure,
		true,
	)
}

func (w CookieWriter) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", w.Domain, w.Secure, true)
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", w.Domain, w.Secure, true)
}
