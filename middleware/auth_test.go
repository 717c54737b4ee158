package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/services"
)

type accountMap map[string]models.Account

func (m accountMap) Get(_ context.Context, id string) (*models.Account, error) {
	a, ok := m[id]
	if !ok {
		return nil, services.ErrAccountNotFound
	}
	return &a, nil
}

func newRouter(tokens *Tokens, accounts AccountGetter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(tokens, accounts), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": SessionFrom(c).UserID})
	})
	r.GET("/admin", AuthRequired(tokens, accounts), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func call(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	token, expires, err := tokens.Issue(models.Account{ID: "u1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	session, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)
	assert.True(t, session.IsAdmin())

	_, err = NewTokens("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	token, _, err := tokens.Issue(models.Account{ID: "u1", Role: models.RoleUser})
	require.NoError(t, err)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}, Role: models.RoleAdmin}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Hour).Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthRequired(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	accounts := accountMap{
		"u1":   {ID: "u1", Role: models.RoleUser, Status: models.AccountActive},
		"off":  {ID: "off", Role: models.RoleUser, Status: models.AccountInactive},
		"boss": {ID: "boss", Role: models.RoleAdmin, Status: models.AccountActive},
	}
	r := newRouter(tokens, accounts)

	bearer := func(a models.Account) string {
		tok, _, err := tokens.Issue(a)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	tests := []struct {
		name string
		path string
		auth string
		want int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Token abc", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc", http.StatusUnauthorized},
		{"valid user", "/me", bearer(accounts["u1"]), http.StatusOK},
		{"deleted account", "/me", bearer(models.Account{ID: "ghost", Role: models.RoleUser}), http.StatusUnauthorized},
		{"inactive account", "/me", bearer(accounts["off"]), http.StatusUnauthorized},
		{"role changed since login", "/me", bearer(models.Account{ID: "u1", Role: models.RoleAdmin}), http.StatusUnauthorized},
		{"user on admin route", "/admin", bearer(accounts["u1"]), http.StatusForbidden},
		{"admin on admin route", "/admin", bearer(accounts["boss"]), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(r, tt.path, tt.auth)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSessionFromEmptyContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, services.Session{}, SessionFrom(c))
}
