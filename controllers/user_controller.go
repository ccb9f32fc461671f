package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserStore interface {
	ListUsers(ctx context.Context, q string, page, size int) (db.ListUsersResult, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	DeleteUserByID(ctx context.Context, id string) error
	SetUserAdmin(ctx context.Context, userID string, isAdmin bool) error
}

type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

type UserController struct {
	repo    UserStore
	appSess SessionRevoker
	cfg     app.Config
}

func GetUserController(repo UserStore, appSess SessionRevoker, cfg app.Config) *UserController {
	return &UserController{repo: repo, appSess: appSess, cfg: cfg}
}

// GET /api/users?q=alice&page=1&size=20
func (uc *UserController) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.repo.ListUsers(c.Request.Context(), q, page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := uuidParam(c)
	if !ok {
		return
	}
	user, err := uc.repo.FindUserByID(c.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": user})
}

// PUT /api/users/:id/admin  {"isAdmin": true}
func (uc *UserController) SetAdmin(c *gin.Context) {
	id, ok := uuidParam(c)
	if !ok {
		return
	}
	var in struct {
		IsAdmin *bool `json:"isAdmin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if uid, _ := app.CurrentUserID(c); uid == id && !*in.IsAdmin {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot demote yourself"})
		return
	}
	err := uc.repo.SetUserAdmin(c.Request.Context(), id, *in.IsAdmin)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/users/:id
func (uc *UserController) DeleteUser(c *gin.Context) {
	id, ok := uuidParam(c)
	if !ok {
		return
	}

	// 不允许删除自己，避免锁死
	if uid, _ := app.CurrentUserID(c); uid == id {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot delete yourself"})
		return
	}

	target, err := uc.repo.FindUserByID(c.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if uc.cfg.IsAdminEmail(target.Email) {
		c.JSON(http.StatusForbidden, app.H{"error": "cannot delete an admin"})
		return
	}

	// 借阅记录还引用该用户时删不掉
	if err := uc.repo.DeleteUserByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrReferenced) {
			c.JSON(http.StatusBadRequest, app.H{"error": "user has loans"})
			return
		}
		writeError(c, err)
		return
	}
	// 撤销该用户的所有登录会话
	_ = uc.appSess.RevokeAllForUser(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}

func uuidParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid uuid"})
		return "", false
	}
	return id, true
}
