package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/Chang9601/blog-auth-service/internal/adapters/transport/http"
	appsvc "github.com/Chang9601/blog-auth-service/internal/app/auth/service"
	"github.com/Chang9601/blog-auth-service/internal/app/auth/token"
	authErrors "github.com/Chang9601/blog-auth-service/internal/domain/auth/errors"
	"github.com/Chang9601/blog-auth-service/internal/domain/auth/model"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type userRepoStub struct {
	users  map[uint64]model.User
	nextID uint64
}

func (u *userRepoStub) CreateUser(_ context.Context, m model.User) (uint64, error) {
	for _, v := range u.users {
		if v.Email == m.Email {
			return 0, authErrors.ErrAlreadyExists
		}
	}
	m.ID = u.nextID
	u.nextID++
	u.users[m.ID] = m
	return m.ID, nil
}

func (u *userRepoStub) GetActiveUserByEmail(_ context.Context, email string) (model.User, error) {
	for _, v := range u.users {
		if v.Email == email && v.Active {
			return v, nil
		}
	}
	return model.User{}, authErrors.ErrUserNotFound
}

func (u *userRepoStub) GetActiveUserByID(_ context.Context, id uint64) (model.User, error) {
	v, ok := u.users[id]
	if !ok || !v.Active {
		return model.User{}, authErrors.ErrUserNotFound
	}
	return v, nil
}

func (u *userRepoStub) UpdateUser(_ context.Context, m model.User) error {
	u.users[m.ID] = m
	return nil
}

func (u *userRepoStub) SetRefreshToken(_ context.Context, id uint64, tok string) error {
	v := u.users[id]
	v.CurrentRefreshToken = &tok
	u.users[id] = v
	return nil
}

func (u *userRepoStub) RotateRefreshToken(_ context.Context, id uint64, oldToken, newToken string) (bool, error) {
	v, ok := u.users[id]
	if !ok || v.CurrentRefreshToken == nil || *v.CurrentRefreshToken != oldToken {
		return false, nil
	}
	v.CurrentRefreshToken = &newToken
	u.users[id] = v
	return true, nil
}

func (u *userRepoStub) ClearRefreshToken(_ context.Context, id uint64) error {
	v := u.users[id]
	v.CurrentRefreshToken = nil
	u.users[id] = v
	return nil
}

type tokenRepoStub struct{ revoked map[string]bool }

func (t *tokenRepoStub) RevokeAccess(_ context.Context, digest string, _ time.Time) error {
	t.revoked[digest] = true
	return nil
}

func (t *tokenRepoStub) IsAccessRevoked(_ context.Context, digest string) (bool, error) {
	return t.revoked[digest], nil
}

/* ─────────────────────────────── fixtures ────────────────────────────── */

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"), nil)
	require.NoError(t, err)
	issuer, err := token.NewIssuer(codec, time.Hour, 30*24*time.Hour)
	require.NoError(t, err)

	v := validator.New()
	require.NoError(t, appsvc.RegisterValidations(v))

	users := &userRepoStub{users: map[uint64]model.User{}, nextID: 1}
	deny := &tokenRepoStub{revoked: map[string]bool{}}
	svc := appsvc.New(users, deny, codec, issuer, "pepper", v, zap.NewNop())

	handler := httptransport.NewHandler(svc, httptransport.CookieWriter{}, zap.NewNop())
	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func cookieByName(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type envelope struct {
	Metadata struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"metadata"`
	Data    json.RawMessage `json:"data"`
	Details []string        `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func signup(t *testing.T, router *gin.Engine, email string) *httptest.ResponseRecorder {
	t.Helper()
	w := do(t, router, http.MethodPost, "/signup", `{"email":"`+email+`","password":"Password1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	return w
}

/* ──────────────────────────────── tests ──────────────────────────────── */

func TestSignup_SetsCookiesAndEnvelope(t *testing.T) {
	router := newRouter(t)
	w := signup(t, router, "alice@example.com")

	e := decode(t, w)
	require.Equal(t, http.StatusCreated, e.Metadata.Code)
	require.Equal(t, "authenticated", e.Metadata.Message)
	require.NotNil(t, e.Details)

	access := cookieByName(t, w, httptransport.AccessTokenCookie)
	refresh := cookieByName(t, w, httptransport.RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	require.True(t, access.HttpOnly)
	require.True(t, refresh.HttpOnly)
	require.Equal(t, 3600, access.MaxAge)
	require.Equal(t, 2592000, refresh.MaxAge)
}

func TestSignup_WeakPassword(t *testing.T) {
	router := newRouter(t)
	w := do(t, router, http.MethodPost, "/signup", `{"email":"a@b.com","password":"weak"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	e := decode(t, w)
	require.Equal(t, "invalid argument", e.Metadata.Message)
	require.NotEmpty(t, e.Details)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	router := newRouter(t)
	signup(t, router, "alice@example.com")
	w := do(t, router, http.MethodPost, "/signup", `{"email":"alice@example.com","password":"Password1"}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	router := newRouter(t)
	signup(t, router, "alice@example.com")

	w := do(t, router, http.MethodPost, "/login", `{"email":"alice@example.com","password":"WrongPass1"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "invalid credentials", decode(t, w).Metadata.Message)
}

func TestRefreshEndpoint_RotatesAndRejectsReplay(t *testing.T) {
	router := newRouter(t)
	w := signup(t, router, "alice@example.com")
	r1 := cookieByName(t, w, httptransport.RefreshTokenCookie)

	w2 := do(t, router, http.MethodPost, "/refresh", "", r1)
	require.Equal(t, http.StatusOK, w2.Code)
	r2 := cookieByName(t, w2, httptransport.RefreshTokenCookie)
	require.NotNil(t, r2)
	require.NotEqual(t, r1.Value, r2.Value)

	// Replaying the rotated-past cookie is the reuse signal: 401 and the
	// cookies are dropped.
	w3 := do(t, router, http.MethodPost, "/refresh", "", r1)
	require.Equal(t, http.StatusUnauthorized, w3.Code)
	require.Contains(t, decode(t, w3).Metadata.Message, "mismatch")
	cleared := cookieByName(t, w3, httptransport.RefreshTokenCookie)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)

	// The revocation took the fresh token down with it.
	w4 := do(t, router, http.MethodPost, "/refresh", "", r2)
	require.Equal(t, http.StatusUnauthorized, w4.Code)
}

func TestRefreshEndpoint_NoCookie(t *testing.T) {
	router := newRouter(t)
	w := do(t, router, http.MethodPost, "/refresh", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_ClearsSession(t *testing.T) {
	router := newRouter(t)
	w := signup(t, router, "alice@example.com")
	access := cookieByName(t, w, httptransport.AccessTokenCookie)
	refresh := cookieByName(t, w, httptransport.RefreshTokenCookie)

	w2 := do(t, router, http.MethodPost, "/logout", "", access, refresh)
	require.Equal(t, http.StatusOK, w2.Code)

	// The refresh token is gone server-side.
	w3 := do(t, router, http.MethodPost, "/refresh", "", refresh)
	require.Equal(t, http.StatusUnauthorized, w3.Code)
}

func TestMe_Unauthenticated(t *testing.T) {
	router := newRouter(t)
	w := do(t, router, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	router := newRouter(t)
	w := do(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
}
