package app

import (
	"Gin_postgres_redis_library/auth"
	"Gin_postgres_redis_library/models"
	"Gin_postgres_redis_library/session"
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthRequired.
const (
	CtxUserID    = "userID"
	CtxEmail     = "email"
	CtxUserName  = "userName"
	CtxIsAdmin   = "isAdmin"
	CtxSessionID = "sessionID"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type SessionLookup interface {
	Get(ctx context.Context, id string) (*session.AppSession, error)
	Delete(ctx context.Context, id string) error
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthRequired accepts "Authorization: Bearer <jwt>". The token must verify
// and its jti must still have a live session in Redis.
func AuthRequired(tokens TokenParser, sess SessionLookup, users UserFinder, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid token"})
			return
		}
		ctx := c.Request.Context()
		as, err := sess.Get(ctx, claims.ID)
		if err != nil || as.UserID != claims.Subject {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		// 这里确认用户仍存在，并把 isAdmin 放进 Context（只查一次）
		u, err := users.FindUserByID(ctx, claims.Subject)
		if err != nil {
			_ = sess.Delete(ctx, claims.ID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}

		c.Set(CtxUserID, u.ID)
		c.Set(CtxEmail, u.Email)
		c.Set(CtxUserName, u.FullName())
		c.Set(CtxIsAdmin, u.IsAdmin || cfg.IsAdminEmail(u.Email))
		c.Set(CtxSessionID, claims.ID)

		c.Next()
	}
}

// AdminOnly must run after AuthRequired.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(CtxUserID); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if !c.GetBool(CtxIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUserID is the borrower id the access layer hands to the services.
func CurrentUserID(c *gin.Context) (string, bool) {
	uid := c.GetString(CtxUserID)
	return uid, uid != ""
}

func bearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
