package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"homerent/internal/models"

	"github.com/casbin/casbin"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

// tokens are minted by the identity provider; tests sign their own
func issueToken(key []byte, id models.Identity, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID: id.UserID,
		Role:   string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

type fakeUsers struct {
	users map[string]*models.User
	calls int
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.calls++
	if email == "broken@example.com" {
		return nil, errors.New("db down")
	}
	return f.users[email], nil
}

type fakeCache struct {
	entries map[string]models.Identity
}

func (f *fakeCache) GetIdentity(_ context.Context, email, hash string) (models.Identity, error) {
	id, ok := f.entries[email+":"+hash]
	if !ok {
		return models.Identity{}, errors.New("miss")
	}
	return id, nil
}

func (f *fakeCache) PutIdentity(_ context.Context, email, hash string, id models.Identity) error {
	f.entries[email+":"+hash] = id
	return nil
}

func newUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*models.User{
		"alice@example.com": {ID: 100, Email: "alice@example.com", PasswordHash: hashPassword("secret"), Role: models.RoleCustomer, IsActive: true},
		"root@example.com":  {ID: 1, Email: "root@example.com", PasswordHash: hashPassword("root"), Role: models.RoleAdmin, IsActive: true},
		"gone@example.com":  {ID: 7, Email: "gone@example.com", PasswordHash: hashPassword("secret"), Role: models.RoleCustomer, IsActive: false},
	}}
}

func newEnforcer(t *testing.T) *casbin.Enforcer {
	t.Helper()
	e, err := casbin.NewEnforcerSafe("../../config/rbac_model.conf", "../../config/policy.csv")
	require.NoError(t, err)
	return e
}

func newRouter(cfg AuthConfig, enforcer *casbin.Enforcer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(), Authenticate(cfg))
	if enforcer != nil {
		r.Use(Authorize(enforcer))
	}
	echo := func(c *gin.Context) {
		id, ok := IdentityFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "role": id.Role, "authenticated": ok})
	}
	r.GET("/api/accommodations", echo)
	r.POST("/api/accommodations", echo)
	r.GET("/api/bookings/search", echo)
	r.GET("/api/bookings/:id", echo)
	r.PATCH("/api/bookings/:id/status", echo)
	r.GET("/api/users/me", echo)
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, method, path string, auth func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != nil {
		auth(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func basic(email, password string) func(*http.Request) {
	return func(req *http.Request) { req.SetBasicAuth(email, password) }
}

func bearer(token string) func(*http.Request) {
	return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }
}

func TestBasicAuthentication(t *testing.T) {
	users := newUsers()
	cache := &fakeCache{entries: map[string]models.Identity{}}
	r := newRouter(AuthConfig{Users: users, Cache: cache}, nil)

	w := do(r, http.MethodGet, "/api/users/me", basic("alice@example.com", "secret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":100,"role":"CUSTOMER","authenticated":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// второй запрос обслуживается из кеша
	w = do(r, http.MethodGet, "/api/users/me", basic("alice@example.com", "secret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, users.calls)

	for name, auth := range map[string]func(*http.Request){
		"wrong password":        basic("alice@example.com", "nope"),
		"unknown user":          basic("bob@example.com", "secret"),
		"inactive user":         basic("gone@example.com", "secret"),
		"lookup failure":        basic("broken@example.com", "secret"),
		"unknown scheme":        func(req *http.Request) { req.Header.Set("Authorization", "Digest abc") },
		"bearer without secret": bearer("abc"),
	} {
		t.Run(name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/api/users/me", auth)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestBearerAuthentication(t *testing.T) {
	r := newRouter(AuthConfig{Users: newUsers(), JWTSecret: secret}, nil)
	now := time.Now()

	token, err := issueToken(secret, models.Identity{UserID: 1, Role: models.RoleAdmin}, time.Hour, now)
	require.NoError(t, err)
	w := do(r, http.MethodGet, "/api/users/me", bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":1,"role":"ADMIN","authenticated":true}`, w.Body.String())

	expired, err := issueToken(secret, models.Identity{UserID: 1, Role: models.RoleAdmin}, time.Hour, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/users/me", bearer(expired)).Code)

	forged, err := issueToken([]byte("other"), models.Identity{UserID: 1, Role: models.RoleAdmin}, time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/users/me", bearer(forged)).Code)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           5,
		Role:             "ROOT",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/users/me", bearer(badRole)).Code)
}

func TestAuthorizePolicy(t *testing.T) {
	r := newRouter(AuthConfig{Users: newUsers()}, newEnforcer(t))
	customer := basic("alice@example.com", "secret")
	admin := basic("root@example.com", "root")

	tests := []struct {
		name   string
		method string
		path   string
		auth   func(*http.Request)
		want   int
	}{
		{"anonymous browses accommodations", http.MethodGet, "/api/accommodations", nil, http.StatusOK},
		{"anonymous cannot read bookings", http.MethodGet, "/api/bookings/5", nil, http.StatusUnauthorized},
		{"customer reads booking", http.MethodGet, "/api/bookings/5", customer, http.StatusOK},
		{"customer inherits anonymous rules", http.MethodGet, "/api/accommodations", customer, http.StatusOK},
		{"customer cannot create accommodation", http.MethodPost, "/api/accommodations", customer, http.StatusForbidden},
		{"customer cannot change status", http.MethodPatch, "/api/bookings/5/status", customer, http.StatusForbidden},
		{"customer cannot search bookings", http.MethodGet, "/api/bookings/search", customer, http.StatusForbidden},
		{"admin searches bookings", http.MethodGet, "/api/bookings/search?user_id=100", admin, http.StatusOK},
		{"admin creates accommodation", http.MethodPost, "/api/accommodations", admin, http.StatusOK},
		{"admin changes status", http.MethodPatch, "/api/bookings/5/status", admin, http.StatusOK},
		{"admin inherits customer rules", http.MethodGet, "/api/users/me", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(r, tt.method, tt.path, tt.auth).Code)
		})
	}
}

func TestRecoveryReturns500(t *testing.T) {
	r := newRouter(AuthConfig{Users: newUsers()}, nil)
	w := do(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := newRouter(AuthConfig{Users: newUsers()}, nil)
	w := do(r, http.MethodGet, "/api/accommodations", func(req *http.Request) {
		req.Header.Set("X-Request-ID", "req-42")
	})
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}
