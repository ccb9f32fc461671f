package controllers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const otherUser = "0b7a3c2e-5f7e-4b8e-9d55-3c1d2f000002"

type mockUsers struct{ mock.Mock }

func (m *mockUsers) ListUsers(ctx context.Context, q string, page, size int) (db.ListUsersResult, error) {
	args := m.Called(ctx, q, page, size)
	return args.Get(0).(db.ListUsersResult), args.Error(1)
}

func (m *mockUsers) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUsers) DeleteUserByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUsers) SetUserAdmin(ctx context.Context, userID string, isAdmin bool) error {
	return m.Called(ctx, userID, isAdmin).Error(0)
}

func (m *mockUsers) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func userRouter(m *mockUsers, cfg app.Config) *gin.Engine {
	r := gin.New()
	uc := GetUserController(m, m, cfg)
	g := r.Group("/api/users", asUser(testUser))
	g.GET("", uc.ListUsers)
	g.GET("/:id", uc.GetUser)
	g.PUT("/:id/admin", uc.SetAdmin)
	g.DELETE("/:id", uc.DeleteUser)
	return r
}

func TestListUsersHandler(t *testing.T) {
	m := &mockUsers{}
	m.On("ListUsers", mock.Anything, "ada", 2, 10).
		Return(db.ListUsersResult{Users: []models.User{{ID: otherUser}}, Total: 11}, nil)

	w := do(userRouter(m, app.Config{}), http.MethodGet, "/api/users?q=ada&page=2&size=10", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":11`)
}

func TestDeleteUserHandler(t *testing.T) {
	t.Run("self", func(t *testing.T) {
		m := &mockUsers{}
		w := do(userRouter(m, app.Config{}), http.MethodDelete, "/api/users/"+testUser, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("configured admin", func(t *testing.T) {
		m := &mockUsers{}
		m.On("FindUserByID", mock.Anything, otherUser).Return(&models.User{ID: otherUser, Email: "boss@example.com"}, nil)
		w := do(userRouter(m, app.Config{AdminEmails: []string{"boss@example.com"}}), http.MethodDelete, "/api/users/"+otherUser, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		m.AssertNotCalled(t, "DeleteUserByID", mock.Anything, mock.Anything)
	})

	t.Run("has loans", func(t *testing.T) {
		m := &mockUsers{}
		m.On("FindUserByID", mock.Anything, otherUser).Return(&models.User{ID: otherUser, Email: "x@example.com"}, nil)
		m.On("DeleteUserByID", mock.Anything, otherUser).Return(fmt.Errorf("%w: fk", db.ErrReferenced))
		w := do(userRouter(m, app.Config{}), http.MethodDelete, "/api/users/"+otherUser, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "user has loans", errorBody(t, w))
		m.AssertNotCalled(t, "RevokeAllForUser", mock.Anything, mock.Anything)
	})

	t.Run("deletes and revokes sessions", func(t *testing.T) {
		m := &mockUsers{}
		m.On("FindUserByID", mock.Anything, otherUser).Return(&models.User{ID: otherUser, Email: "x@example.com"}, nil)
		m.On("DeleteUserByID", mock.Anything, otherUser).Return(nil)
		m.On("RevokeAllForUser", mock.Anything, otherUser).Return(nil)
		w := do(userRouter(m, app.Config{}), http.MethodDelete, "/api/users/"+otherUser, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		m.AssertExpectations(t)
	})

	t.Run("bad id", func(t *testing.T) {
		w := do(userRouter(&mockUsers{}, app.Config{}), http.MethodDelete, "/api/users/42", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSetAdminHandler(t *testing.T) {
	m := &mockUsers{}
	m.On("SetUserAdmin", mock.Anything, otherUser, true).Return(nil)
	m.On("SetUserAdmin", mock.Anything, testUser, true).Return(db.ErrNotFound)
	r := userRouter(m, app.Config{})

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodPut, "/api/users/"+otherUser+"/admin", `{"isAdmin":true}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/api/users/"+testUser+"/admin", `{"isAdmin":true}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/users/"+testUser+"/admin", `{"isAdmin":false}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/users/"+otherUser+"/admin", `{}`).Code)
}
