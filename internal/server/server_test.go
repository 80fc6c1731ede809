package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/campusfeedback/internal/config"
	"anoa.com/campusfeedback/internal/testutil"
	"anoa.com/campusfeedback/pkg/clock"
	"anoa.com/campusfeedback/pkg/credential"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixedHandles struct{ handle string }

func (f fixedHandles) Next() string { return f.handle }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

type harness struct {
	t   *testing.T
	srv *Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewMock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	store := testutil.NewStore(clk)
	cfg := &config.Config{
		AppEnv:                "development",
		JWTSecret:             "server-test-secret",
		JWTTTL:                time.Hour,
		DefaultSuspensionDays: 7,
		MaxSuspensionDays:     365,
		FrontendURL:           "http://localhost:3000",
	}
	repos := Repositories{
		Users:         store.Users(),
		Feedback:      store.Feedback(),
		Likes:         store.Likes(),
		Comments:      store.Comments(),
		Flags:         store.Flags(),
		Notifications: store.Notifications(),
		Categories:    store.Categories(),
		Revocations:   store.Revocations(),
	}
	srv := NewServer(cfg, repos, Options{
		Clock:       clk,
		Hasher:      credential.NewBcryptHasher(bcrypt.MinCost),
		Handles:     fixedHandles{handle: "AS_24680"},
		SkipLogging: []string{"/health"},
	})
	return &harness{t: t, srv: srv}
}

func (h *harness) do(method, path, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)

	var env envelope
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (h *harness) register(email, name, role string) string {
	h.t.Helper()
	w, env := h.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": email, "password": "campus2026", "name": name, "role": role,
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())

	var auth struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &auth))
	return auth.AccessToken
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w, env := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestStudentPostIsPseudonymousEndToEnd(t *testing.T) {
	h := newHarness(t)
	bearer := h.register("jane@campus.edu", "Jane Doe", "student")

	w, env := h.do(http.MethodPost, "/api/feedback", bearer, gin.H{
		"content": "The library closes too early", "category": "facility",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"author_display":"AS_24680"`)

	w, env = h.do(http.MethodGet, "/api/feedback", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := string(env.Data)
	assert.Contains(t, body, "AS_24680")
	assert.NotContains(t, body, "Jane")
	assert.NotContains(t, body, "jane@campus.edu")
}

func TestFlagRouteRequiresStaff(t *testing.T) {
	h := newHarness(t)
	student := h.register("s@campus.edu", "Sam", "student")

	_, env := h.do(http.MethodPost, "/api/feedback", student, gin.H{"content": "Too many quizzes"})
	var post struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &post))

	w, env := h.do(http.MethodPost, "/api/feedback/"+post.ID+"/flag", student, gin.H{"reason": "spam"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestPendingFacultyCannotAct(t *testing.T) {
	h := newHarness(t)
	bearer := h.register("prof@campus.edu", "Prof Reyes", "faculty")

	w, env := h.do(http.MethodGet, "/api/auth/me", bearer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PENDING_APPROVAL", env.Error.Code)
}

func TestAdminRoutesRejectStudents(t *testing.T) {
	h := newHarness(t)
	student := h.register("s@campus.edu", "Sam", "student")

	w, env := h.do(http.MethodGet, "/api/admin/flags", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	w, env = h.do(http.MethodGet, "/api/admin/flags", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "NO_TOKEN", env.Error.Code)
}

func TestGoogleRoutesOnlyWhenConfigured(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google", nil)
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	h := newHarness(t)
	bearer := h.register("s@campus.edu", "Sam", "student")

	w, _ := h.do(http.MethodPost, "/api/auth/logout", bearer, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := h.do(http.MethodGet, "/api/auth/me", bearer, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
}

func TestSeededAdminSeesPendingFaculty(t *testing.T) {
	h := newHarness(t)
	_ = h.register("prof@campus.edu", "Prof Reyes", "faculty")

	created, err := h.srv.AuthService().EnsureAdmin(context.Background(), "admin@campus.edu", "rootpass99", "Admin")
	require.NoError(t, err)
	require.True(t, created)

	w, env := h.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "admin@campus.edu", "password": "rootpass99"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))

	w, env = h.do(http.MethodGet, "/api/admin/faculty/pending", auth.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "prof@campus.edu")
}
