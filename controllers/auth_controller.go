// controllers/auth_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/auth"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AccountStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	TouchUserLogin(ctx context.Context, userID, ip, ua string) error
}

type SessionStore interface {
	Create(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id string) error
}

type AuthController struct {
	users  AccountStore
	sess   SessionStore
	tokens *auth.TokenService
}

func NewAuthController(users AccountStore, sess SessionStore, tokens *auth.TokenService) *AuthController {
	return &AuthController{users: users, sess: sess, tokens: tokens}
}

type registerReq struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResp struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
}

// POST /api/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
	}
	if err := ac.users.CreateUser(c.Request.Context(), u); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, app.H{"error": "email already registered"})
			return
		}
		writeError(c, err)
		return
	}
	ac.issueSession(c, u)
}

// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := ac.users.FindUserByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		writeError(c, err)
		return
	}
	// 邮箱不存在和密码错误返回同一个错误
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid credentials"})
		return
	}
	ac.issueSession(c, u)
}

// GET /api/auth/profile
func (ac *AuthController) Profile(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}
	u, err := ac.users.FindUserByID(c.Request.Context(), uid)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u, "isAdmin": c.GetBool(app.CtxIsAdmin)})
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if sid := c.GetString(app.CtxSessionID); sid != "" {
		if err := ac.sess.Delete(c.Request.Context(), sid); err != nil {
			writeError(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// 登录成功：签发 token + 创建会话 + 触发登录快照
func (ac *AuthController) issueSession(c *gin.Context, u *models.User) {
	ctx := c.Request.Context()
	tok, err := ac.tokens.Issue(u.ID, u.Email, u.FullName())
	if err != nil {
		writeError(c, err)
		return
	}
	if err := ac.sess.Create(ctx, tok.ID, u.ID); err != nil {
		writeError(c, err)
		return
	}
	_ = ac.users.TouchUserLogin(ctx, u.ID, c.ClientIP(), c.Request.UserAgent()) // 不阻塞

	c.JSON(http.StatusOK, tokenResp{
		Token:      tok.Token,
		Expiration: tok.ExpiresAt.UTC(),
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.FullName(),
	})
}
