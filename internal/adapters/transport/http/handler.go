package http

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Chang9601/blog-auth-service/internal/adapters/transport/http/dto"
	"github.com/Chang9601/blog-auth-service/internal/app/auth/service"
	"github.com/Chang9601/blog-auth-service/internal/domain/auth/model"
)

// PrincipalKey is the gin context key under which the session
// authenticator stores the resolved user.
const PrincipalKey = "auth.principal"

// PrincipalFrom returns the authenticated user for the request, if any.
func PrincipalFrom(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}

func Summary(u model.User) dto.UserSummary {
	return dto.UserSummary{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}

type Handler struct {
	svc     service.Service
	cookies CookieWriter
	log     *zap.Logger
}

func NewHandler(svc service.Service, cookies CookieWriter, log *zap.Logger) *Handler {
	return &Handler{svc: svc, cookies: cookies, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.POST("/refresh", h.Refresh)
	r.GET("/me", h.Me)
	r.GET("/health", h.Health)
}

func (h *Handler) Signup(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		respond(c, http.StatusBadRequest, "malformed request body", nil, err.Error())
		return
	}
	h.log.Info("/signup", zap.String("user", emailDigest(body.Email)))

	pair, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.issued(c, http.StatusCreated, pair)
}

func (h *Handler) Login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		respond(c, http.StatusBadRequest, "malformed request body", nil, err.Error())
		return
	}
	h.log.Info("/login", zap.String("user", emailDigest(body.Email)))

	pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.issued(c, http.StatusOK, pair)
}

func (h *Handler) Logout(c *gin.Context) {
	refresh, err := c.Cookie(RefreshTokenCookie)
	if err != nil || refresh == "" {
		respond(c, http.StatusUnauthorized, "no refresh token", nil)
		return
	}
	access, _ := c.Cookie(AccessTokenCookie)

	if err := h.svc.Logout(c.Request.Context(), access, refresh); err != nil {
		h.HandleError(c, err)
		return
	}
	h.cookies.Clear(c)
	respond(c, http.StatusOK, "logged out", nil)
}

// Refresh is the explicit rotation endpoint. The session authenticator
// performs the same rotation implicitly when an expired access token
// arrives with a valid refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(RefreshTokenCookie)
	if err != nil || refresh == "" {
		respond(c, http.StatusUnauthorized, "no refresh token", nil)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.issued(c, http.StatusOK, pair)
}

func (h *Handler) Me(c *gin.Context) {
	user, ok := PrincipalFrom(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	respond(c, http.StatusOK, "ok", Summary(user))
}

func (h *Handler) Health(c *gin.Context) {
	respond(c, http.StatusOK, "ok", gin.H{"time": time.Now().Unix()})
}

func (h *Handler) issued(c *gin.Context, status int, pair model.TokenPair) {
	h.cookies.SetTokenPair(c, pair)
	respond(c, status, "authenticated", gin.H{
		"userId":    pair.UserID,
		"expiresIn": int(pair.AccessTTL.Seconds()),
	})
}

// emailDigest keeps addresses out of the logs.
func emailDigest(email string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(email)))
}
