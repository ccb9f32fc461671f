// controllers/srv.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/auth"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/services"
	"Gin_postgres_redis_library/session"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Repo    *db.Repo
	AppSess *session.AppSessionStore
	Tokens  *auth.TokenService
	Cfg     app.Config
	Loans   *services.LoanService
	Catalog *services.CatalogService
}

func GetSrv(a *app.App) *Srv {
	repo := db.NewRepo(a.DB)
	store := services.NewRepoStore(repo)
	return &Srv{
		Repo:    repo,
		AppSess: a.AppSessions(),
		Tokens:  a.Tokens,
		Cfg:     a.Config,
		Loans:   services.NewLoanService(store, services.WithLogger(a.Logger)),
		Catalog: services.NewCatalogService(store),
	}
}

// --- helpers ---

// writeError is the one place business errors become HTTP statuses.
func writeError(c *gin.Context, err error) {
	var se *services.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case services.KindNotFound:
			c.JSON(http.StatusNotFound, app.H{"error": se.Error()})
			return
		case services.KindInvalidOperation:
			c.JSON(http.StatusBadRequest, app.H{"error": se.Error()})
			return
		}
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
}

// uintParam reads a positive numeric path parameter, answering 400 itself
// when it is not one.
func uintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(n), true
}

func mustUserID(c *gin.Context) (string, bool) {
	uid, ok := app.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
	}
	return uid, ok
}
