package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Gin_postgres_redis_library/auth"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"
	"Gin_postgres_redis_library/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeUsers struct {
	users map[string]*models.User
	seen  []string
}

func (f *fakeUsers) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) TouchUserSeen(ctx context.Context, userID string) error {
	f.seen = append(f.seen, userID)
	return nil
}

type authEnv struct {
	router *gin.Engine
	tokens *auth.TokenService
	sess   *session.AppSessionStore
	users  *fakeUsers
	rdb    *redis.Client
}

func newAuthEnv(t *testing.T, cfg Config) *authEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &authEnv{
		tokens: auth.NewTokenService("0123456789abcdef0123456789abcdef", "library-api", time.Hour),
		sess:   session.NewAppSessionStore(rdb, time.Hour),
		users: &fakeUsers{users: map[string]*models.User{
			"u-1": {ID: "u-1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
			"u-2": {ID: "u-2", Email: "root@example.com", FirstName: "Root", LastName: "User", IsAdmin: true},
		}},
		rdb: rdb,
	}

	r := gin.New()
	authMW := AuthRequired(env.tokens, env.sess, env.users, cfg)
	r.GET("/me", authMW, func(c *gin.Context) {
		c.JSON(http.StatusOK, H{
			"userID":  c.GetString(CtxUserID),
			"name":    c.GetString(CtxUserName),
			"isAdmin": c.GetBool(CtxIsAdmin),
		})
	})
	r.GET("/admin", authMW, AdminOnly(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	env.router = r
	return env
}

func (e *authEnv) login(t *testing.T, uid string) string {
	t.Helper()
	u := e.users.users[uid]
	tok, err := e.tokens.Issue(u.ID, u.Email, u.FullName())
	require.NoError(t, err)
	require.NoError(t, e.sess.Create(context.Background(), tok.ID, u.ID))
	return tok.Token
}

func (e *authEnv) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	env := newAuthEnv(t, Config{})
	tok := env.login(t, "u-1")

	w := env.get("/me", tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		UserID  string `json:"userID"`
		Name    string `json:"name"`
		IsAdmin bool   `json:"isAdmin"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "u-1", out.UserID)
	assert.Equal(t, "Ada Lovelace", out.Name)
	assert.False(t, out.IsAdmin)

	assert.Equal(t, http.StatusUnauthorized, env.get("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.get("/me", "not.a.jwt").Code)
}

func TestAuthRequiredRejectsRevokedSession(t *testing.T) {
	env := newAuthEnv(t, Config{})
	tok := env.login(t, "u-1")
	claims, err := env.tokens.Parse(tok)
	require.NoError(t, err)

	require.NoError(t, env.sess.Delete(context.Background(), claims.ID))
	assert.Equal(t, http.StatusUnauthorized, env.get("/me", tok).Code)
}

func TestAuthRequiredRejectsSessionOfAnotherUser(t *testing.T) {
	env := newAuthEnv(t, Config{})
	u := env.users.users["u-1"]
	tok, err := env.tokens.Issue(u.ID, u.Email, u.FullName())
	require.NoError(t, err)
	// session registered under a different user
	require.NoError(t, env.sess.Create(context.Background(), tok.ID, "u-2"))

	assert.Equal(t, http.StatusUnauthorized, env.get("/me", tok.Token).Code)
}

func TestAuthRequiredDropsSessionOfDeletedUser(t *testing.T) {
	env := newAuthEnv(t, Config{})
	tok := env.login(t, "u-1")
	claims, err := env.tokens.Parse(tok)
	require.NoError(t, err)

	delete(env.users.users, "u-1")
	assert.Equal(t, http.StatusUnauthorized, env.get("/me", tok).Code)

	_, err = env.sess.Get(context.Background(), claims.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestAdminOnly(t *testing.T) {
	env := newAuthEnv(t, Config{AdminEmails: []string{"ada@example.com"}})

	assert.Equal(t, http.StatusNoContent, env.get("/admin", env.login(t, "u-2")).Code, "flagged admin")
	assert.Equal(t, http.StatusNoContent, env.get("/admin", env.login(t, "u-1")).Code, "configured email")

	plain := newAuthEnv(t, Config{})
	assert.Equal(t, http.StatusForbidden, plain.get("/admin", plain.login(t, "u-1")).Code)
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	tok, ok = bearerToken("bearer   abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, ok := bearerToken(h)
		assert.False(t, ok, h)
	}
}

func TestTouchLastSeen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	users := &fakeUsers{}

	r := gin.New()
	r.GET("/x",
		func(c *gin.Context) {
			if uid := c.Query("uid"); uid != "" {
				c.Set(CtxUserID, uid)
			}
		},
		TouchLastSeen(users, session.NewThrottle(rdb, "lib:lastseen:", time.Minute)),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)
	hit := func(q string) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x"+q, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	hit("?uid=u-1")
	hit("?uid=u-1")
	hit("?uid=u-2")
	hit("")
	assert.Equal(t, []string{"u-1", "u-2"}, users.seen)

	mr.FastForward(2 * time.Minute)
	hit("?uid=u-1")
	assert.Equal(t, []string{"u-1", "u-2", "u-1"}, users.seen)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/missing", line["path"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "books")
	t.Setenv("ADMIN_EMAILS", " Root@Example.com, ,ops@example.com")
	t.Setenv("TOKEN_TTL_SECONDS", "120")
	t.Setenv("LAST_SEEN_THROTTLE_SECONDS", "nope")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "")

	cfg := loadConfig()
	assert.Contains(t, cfg.DatabaseURL, "host=db.internal")
	assert.Contains(t, cfg.DatabaseURL, "dbname=books")
	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.Equal(t, 2*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.LastSeenThrottle)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "3001", cfg.Port)

	assert.True(t, cfg.IsAdminEmail("ROOT@example.com"))
	assert.False(t, cfg.IsAdminEmail("someone@example.com"))

	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")
	assert.Equal(t, "postgres://u:p@h/db", loadConfig().DatabaseURL)
}

type fakePromoter struct {
	emails []string
	admins int64
}

func (f *fakePromoter) PromoteAdmins(ctx context.Context, emails []string) (int64, error) {
	f.emails = emails
	return int64(len(emails)), nil
}

func (f *fakePromoter) CountAdmins(ctx context.Context) (int64, error) { return f.admins, nil }

func TestBootstrapAdmins(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := &fakePromoter{}
	BootstrapAdmins(context.Background(), Config{AdminEmails: []string{"root@example.com"}}, p, logger)
	assert.Equal(t, []string{"root@example.com"}, p.emails)
	assert.Contains(t, buf.String(), "promoted=1")

	buf.Reset()
	BootstrapAdmins(context.Background(), Config{}, &fakePromoter{}, logger)
	assert.Contains(t, buf.String(), "no admin configured")
}
