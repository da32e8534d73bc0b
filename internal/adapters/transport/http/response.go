package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authErrors "github.com/Chang9601/blog-auth-service/internal/domain/auth/errors"
)

// Envelope is the wire shape of every response body.
type Envelope struct {
	Metadata Metadata `json:"metadata"`
	Data     any      `json:"data"`
	Details  []string `json:"details"`
}

type Metadata struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, message string, data any, details ...string) {
	if details == nil {
		details = []string{}
	}
	c.JSON(status, Envelope{
		Metadata: Metadata{Code: status, Message: message},
		Data:     data,
		Details:  details,
	})
}

// HandleError maps the error taxonomy onto HTTP statuses. A refresh token
// mismatch additionally drops both token cookies: the stored token was
// revoked server-side and the client must log in again.
func (h *Handler) HandleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		respond(c, http.StatusBadRequest, "invalid argument", nil, err.Error())
	case authErrors.IsInvalidCredentials(err):
		respond(c, http.StatusUnauthorized, "invalid credentials", nil)
	case authErrors.IsRefreshTokenMismatch(err):
		h.cookies.Clear(c)
		respond(c, http.StatusUnauthorized, "refresh token mismatch, please log in again", nil)
	case authErrors.IsInvalidToken(err):
		respond(c, http.StatusUnauthorized, "invalid token", nil)
	case authErrors.IsUserNotFound(err):
		respond(c, http.StatusNotFound, "user not found", nil)
	case authErrors.IsAlreadyExists(err):
		respond(c, http.StatusConflict, "email already registered", nil)
	default:
		respond(c, http.StatusInternalServerError, "internal server error", nil)
	}
}
