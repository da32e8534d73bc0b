package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httptransport "github.com/Chang9601/blog-auth-service/internal/adapters/transport/http"
	"github.com/Chang9601/blog-auth-service/internal/app/auth/service"
	"github.com/Chang9601/blog-auth-service/internal/app/auth/token"
	authErrors "github.com/Chang9601/blog-auth-service/internal/domain/auth/errors"
)

// SessionAuthenticator establishes the request's principal from the token
// cookies without requiring an explicit login call.
//
// Expired access token + valid refresh token triggers a silent rotation
// that SHORT-CIRCUITS the request: the client gets fresh cookies and a
// synthetic login-success body instead of the resource it asked for, and
// is expected to retry. Every other branch is read-only and at worst
// leaves the request anonymous; authentication failures never abort the
// pipeline.
func SessionAuthenticator(
	svc service.Service,
	codec *token.Codec,
	cookies httptransport.CookieWriter,
	log *zap.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, err := c.Cookie(httptransport.AccessTokenCookie)
		if err != nil || access == "" {
			c.Next()
			return
		}

		switch codec.Check(access) {
		case token.StatusValid:
			user, err := svc.Authenticate(c.Request.Context(), access)
			if err != nil {
				// Account deleted or token revoked after issuance:
				// degrade to anonymous instead of erroring.
				log.Debug("access token did not resolve to a principal",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				c.Next()
				return
			}
			c.Set(httptransport.PrincipalKey, user)
			c.Next()

		case token.StatusExpired:
			refresh, err := c.Cookie(httptransport.RefreshTokenCookie)
			if err != nil || refresh == "" || !codec.Verify(refresh) {
				c.Next()
				return
			}

			pair, err := svc.Refresh(c.Request.Context(), refresh)
			if err != nil {
				if authErrors.IsRefreshTokenMismatch(err) {
					// Reuse signal: the server already revoked the stored
					// token, so the cookies are dead weight.
					cookies.Clear(c)
				}
				log.Debug("silent reissue failed",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				c.Next()
				return
			}

			user, err := svc.Authenticate(c.Request.Context(), pair.AccessToken)
			if err != nil {
				c.Next()
				return
			}

			cookies.SetTokenPair(c, pair)
			log.Info("access token silently reissued", zap.Uint64("user_id", user.ID))
			c.AbortWithStatusJSON(http.StatusOK, httptransport.Envelope{
				Metadata: httptransport.Metadata{Code: http.StatusOK, Message: "token refreshed"},
				Data:     httptransport.Summary(user),
				Details:  []string{"retry the original request with the new cookies"},
			})

		default:
			c.Next()
		}
	}
}
