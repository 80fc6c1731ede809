package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/campusfeedback/internal/entity"
	accessService "anoa.com/campusfeedback/internal/modules/access/service"
	"anoa.com/campusfeedback/internal/testutil"
	"anoa.com/campusfeedback/pkg/clock"
	"anoa.com/campusfeedback/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newRouter(t *testing.T) (*gin.Engine, *testutil.Store, token.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewMock(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	store := testutil.NewStore(clk)
	tokens := token.NewJWTService("middleware-secret", time.Hour, clk)
	auth := NewAuthMiddleware(accessService.NewGate(tokens, store.Users(), store.Revocations(), clk))

	r := gin.New()
	r.GET("/private", auth.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID, "jti": CurrentPrincipal(c).TokenID})
	})
	r.GET("/admin", auth.RequireAuth(), auth.RequireRole(entity.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/public", auth.OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"anonymous": CurrentUser(c) == nil})
	})
	return r, store, tokens
}

func issue(t *testing.T, tokens token.Service, u *entity.User) string {
	t.Helper()
	raw, _, err := tokens.Issue(u.ID, u.Email, string(u.Role), string(u.ApprovalStatus))
	require.NoError(t, err)
	return raw
}

func do(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	return env
}

func TestRequireAuth(t *testing.T) {
	r, store, tokens := newRouter(t)
	live := store.AddUser(entity.User{Email: "s@campus.edu", Role: entity.RoleStudent})
	banned := store.AddUser(entity.User{Email: "b@campus.edu", Role: entity.RoleStudent, IsBanned: true})

	w := do(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "NO_TOKEN", decodeError(t, w).Error.Code)

	w = do(r, "/private", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, w).Error.Code)

	w = do(r, "/private", issue(t, tokens, banned))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCOUNT_BANNED", decodeError(t, w).Error.Code)

	w = do(r, "/private", issue(t, tokens, live))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), live.ID.String())
}

func TestSuspendedResponseCarriesExpiry(t *testing.T) {
	r, store, tokens := newRouter(t)
	end := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	u := store.AddUser(entity.User{Email: "s@campus.edu", Role: entity.RoleStudent, IsSuspended: true, SuspensionEndDate: &end})

	w := do(r, "/private", issue(t, tokens, u))
	assert.Equal(t, http.StatusForbidden, w.Code)
	env := decodeError(t, w)
	assert.Equal(t, "ACCOUNT_SUSPENDED", env.Error.Code)
	assert.Equal(t, "2026-05-04T08:00:00Z", env.Error.Details["suspended_until"])
}

func TestRequireRole(t *testing.T) {
	r, store, tokens := newRouter(t)
	admin := store.AddUser(entity.User{Email: "a@campus.edu", Role: entity.RoleAdmin})
	faculty := store.AddUser(entity.User{Email: "f@campus.edu", Role: entity.RoleFaculty, ApprovalStatus: entity.ApprovalApproved})

	assert.Equal(t, http.StatusNoContent, do(r, "/admin", issue(t, tokens, admin)).Code)

	w := do(r, "/admin", issue(t, tokens, faculty))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, w).Error.Code)
}

func TestOptionalAuthDegradesToAnonymous(t *testing.T) {
	r, store, tokens := newRouter(t)
	live := store.AddUser(entity.User{Email: "s@campus.edu", Role: entity.RoleStudent})
	pending := store.AddUser(entity.User{Email: "p@campus.edu", Role: entity.RoleFaculty, ApprovalStatus: entity.ApprovalPending})

	for _, bearer := range []string{"", "garbage", issue(t, tokens, pending)} {
		w := do(r, "/public", bearer)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
	}

	w := do(r, "/public", issue(t, tokens, live))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"anonymous":false}`, w.Body.String())
}
