package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/appauth/internal/dbx"
	"github.com/dmitrijs2005/appauth/internal/server/auth"
	"github.com/dmitrijs2005/appauth/internal/server/config"
	"github.com/dmitrijs2005/appauth/internal/server/models"
	"github.com/dmitrijs2005/appauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/appauth/internal/server/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	db      *sql.DB
	handler http.Handler
	cfg     *config.Config
}

// newStack wires a real sqlite database, repositories, service and server.
func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()

	db, dialect, err := dbx.Open(ctx, "sqlite::memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := repomanager.New(dialect, nopLogger())
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(ctx, db))

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseURL = "sqlite::memory:"
	cfg.JWTSecret = string(testSecret)

	svc := services.NewAuthService(db, m, cfg,
		services.WithHasher(auth.NewArgon2Hasher(auth.WithArgon2Memory(64), auth.WithArgon2Time(1))))
	s := New(cfg.HTTPAddr, nopLogger(), svc, svc.TokenCodec(), Options{})
	return &stack{db: db, handler: s.Handler(), cfg: cfg}
}

func (st *stack) createApp(t *testing.T, name string) models.Application {
	t.Helper()
	rec := do(t, st.handler, http.MethodPost, "/api/auth/applications/"+name, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var app models.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &app))
	return app
}

func (st *stack) createUser(t *testing.T, appID, username, password string) map[string]any {
	t.Helper()
	rec := do(t, st.handler, http.MethodPost, "/api/auth/users/"+appID,
		map[string]string{"username": username, "email": username[:1] + "@x", "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (st *stack) login(t *testing.T, body map[string]string) string {
	t.Helper()
	rec := do(t, st.handler, http.MethodGet, "/api/auth/login", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Status string `json:"status"`
		Token  string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "success", out.Status)
	return out.Token
}

func decodeList[T any](t *testing.T, raw []byte) []T {
	t.Helper()
	var inner string
	require.NoError(t, json.Unmarshal(raw, &inner))
	var out []T
	require.NoError(t, json.Unmarshal([]byte(inner), &out))
	return out
}

func TestE2E_RegisterAndListApplications(t *testing.T) {
	st := newStack(t)

	app := st.createApp(t, "acme")
	_, err := uuid.Parse(app.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", app.AppName)

	rec := do(t, st.handler, http.MethodGet, "/api/auth/applications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeList[models.Application](t, rec.Body.Bytes()), app)
}

func TestE2E_SameNameGetsDistinctIDs(t *testing.T) {
	st := newStack(t)

	first := st.createApp(t, "acme")
	second := st.createApp(t, "acme")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestE2E_ApplicationNameBounds(t *testing.T) {
	st := newStack(t)

	rec := do(t, st.handler, http.MethodPost, "/api/auth/applications/%20", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"app_name":" "`)

	rec = do(t, st.handler, http.MethodPost, "/api/auth/applications/"+strings.Repeat("a", 256), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"status":"fail","message":"validation error: app_name: must be at most 255 characters"}`, rec.Body.String())
}

func TestE2E_InsertUserHidesPassword(t *testing.T) {
	st := newStack(t)
	app := st.createApp(t, "acme")

	user := st.createUser(t, app.ID, "alice", "s3cret")
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "application_id")
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "a@x", user["email"])

	createdAt, ok := user["created_at"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, createdAt)
	assert.NoError(t, err)

	var stored string
	require.NoError(t, st.db.QueryRow(`SELECT password FROM users WHERE username = ?`, "alice").Scan(&stored))
	assert.NotEqual(t, "s3cret", stored)
	assert.True(t, strings.HasPrefix(stored, "$argon2id$"))
}

func TestE2E_InsertUserErrors(t *testing.T) {
	st := newStack(t)
	app := st.createApp(t, "acme")
	st.createUser(t, app.ID, "alice", "s3cret")

	rec := do(t, st.handler, http.MethodPost, "/api/auth/users/"+app.ID,
		map[string]string{"username": "alice", "email": "a@x", "password": "other"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, st.handler, http.MethodPost, "/api/auth/users/"+uuid.NewString(),
		map[string]string{"username": "bob", "email": "b@x", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, st.handler, http.MethodPost, "/api/auth/users/"+app.ID,
		map[string]string{"username": "carol", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestE2E_LoginThenListUsers(t *testing.T) {
	st := newStack(t)
	app := st.createApp(t, "acme")
	alice := st.createUser(t, app.ID, "alice", "s3cret")

	token := st.login(t, map[string]string{"username": "alice", "password": "s3cret"})

	claims, err := auth.Decode(token, testSecret, time.Now())
	require.NoError(t, err)
	assert.Equal(t, alice["id"], claims.Sub)
	assert.Equal(t, int64(3600), claims.Exp-claims.Iat)
	assert.LessOrEqual(t, claims.Iat, time.Now().Unix()+1)

	rec := do(t, st.handler, http.MethodGet, "/api/auth/users/"+app.ID, nil, withBearer(token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	users := decodeList[models.FilteredUser](t, rec.Body.Bytes())
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	rec = do(t, st.handler, http.MethodGet, "/api/auth/me", nil, withCookie(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestE2E_LoginScopedByApplication(t *testing.T) {
	st := newStack(t)
	acme := st.createApp(t, "acme")
	globex := st.createApp(t, "globex")
	st.createUser(t, acme.ID, "alice", "acme-pw")
	st.createUser(t, globex.ID, "alice", "globex-pw")

	st.login(t, map[string]string{"application_id": globex.ID, "username": "alice", "password": "globex-pw"})

	rec := do(t, st.handler, http.MethodPost, "/api/auth/login",
		map[string]string{"application_id": acme.ID, "username": "alice", "password": "globex-pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// an unscoped lookup of a username shared by two tenants is refused
	rec = do(t, st.handler, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "alice", "password": "acme-pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestE2E_WrongPassword(t *testing.T) {
	st := newStack(t)
	app := st.createApp(t, "acme")
	st.createUser(t, app.ID, "alice", "s3cret")

	for _, body := range []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "nobody", "password": "s3cret"},
	} {
		rec := do(t, st.handler, http.MethodGet, "/api/auth/login", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"status":"fail","message":"Invalid username or password"}`, rec.Body.String())
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestE2E_ExpiredTokenRejected(t *testing.T) {
	st := newStack(t)
	app := st.createApp(t, "acme")
	alice := st.createUser(t, app.ID, "alice", "s3cret")

	now := time.Now().Unix()
	token, err := auth.Encode(auth.TokenClaims{Sub: alice["id"].(string), Iat: now, Exp: now - 1}, testSecret)
	require.NoError(t, err)

	for _, path := range []string{"/api/auth/users/" + app.ID, "/api/auth/me"} {
		rec := do(t, st.handler, http.MethodGet, path, nil, withBearer(token))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"status":"fail","message":"You are not logged in, please provide token"}`, rec.Body.String())
	}
}

func TestE2E_ProtectedRouteWithoutToken(t *testing.T) {
	st := newStack(t)
	app := st.createApp(t, "acme")

	rec := do(t, st.handler, http.MethodGet, "/api/auth/users/"+app.ID, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
