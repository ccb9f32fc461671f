// controllers/catalog_controller.go
package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/models"
	"Gin_postgres_redis_library/services"

	"github.com/gin-gonic/gin"
)

type CatalogAPI interface {
	ListAuthors(ctx context.Context) ([]services.AuthorView, error)
	GetAuthor(ctx context.Context, id uint) (*services.AuthorView, error)
	CreateAuthor(ctx context.Context, in services.AuthorInput) (*services.AuthorView, error)
	UpdateAuthor(ctx context.Context, id uint, in services.AuthorInput) error
	DeleteAuthor(ctx context.Context, id uint) error

	ListCategories(ctx context.Context) ([]services.CategoryView, error)
	GetCategory(ctx context.Context, id uint) (*services.CategoryView, error)
	CreateCategory(ctx context.Context, in services.CategoryInput) (*services.CategoryView, error)
	UpdateCategory(ctx context.Context, id uint, in services.CategoryInput) error
	DeleteCategory(ctx context.Context, id uint) error

	ListBooks(ctx context.Context, f models.BookFilter) ([]services.BookView, error)
	GetBook(ctx context.Context, id uint) (*services.BookView, error)
	CreateBook(ctx context.Context, in services.BookInput) (*services.BookView, error)
	UpdateBook(ctx context.Context, id uint, in services.BookInput) error
	DeleteBook(ctx context.Context, id uint) error
}

type CatalogController struct{ catalog CatalogAPI }

func NewCatalogController(catalog CatalogAPI) *CatalogController {
	return &CatalogController{catalog: catalog}
}

type authorReq struct {
	FirstName   string     `json:"firstName" binding:"required,max=100"`
	LastName    string     `json:"lastName" binding:"required,max=100"`
	BirthDate   *time.Time `json:"birthDate"`
	Nationality string     `json:"nationality" binding:"max=50"`
}

func (r authorReq) input() services.AuthorInput {
	return services.AuthorInput{FirstName: r.FirstName, LastName: r.LastName, BirthDate: r.BirthDate, Nationality: r.Nationality}
}

type categoryReq struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

func (r categoryReq) input() services.CategoryInput {
	return services.CategoryInput{Name: r.Name, Description: r.Description}
}

type bookReq struct {
	Title           string `json:"title" binding:"required,max=200"`
	ISBN            string `json:"isbn" binding:"required,max=20"`
	PublicationYear int    `json:"publicationYear" binding:"min=1000,max=3000"`
	Pages           int    `json:"pages" binding:"min=1,max=10000"`
	Description     string `json:"description" binding:"max=1000"`
	CategoryID      uint   `json:"categoryId" binding:"required"`
	AuthorIDs       []uint `json:"authorIds" binding:"required"`
}

func (r bookReq) input() services.BookInput {
	return services.BookInput{
		Title:           r.Title,
		ISBN:            r.ISBN,
		PublicationYear: r.PublicationYear,
		Pages:           r.Pages,
		Description:     r.Description,
		CategoryID:      r.CategoryID,
		AuthorIDs:       r.AuthorIDs,
	}
}

// ---------- authors ----------

func (cc *CatalogController) ListAuthors(c *gin.Context) {
	as, err := cc.catalog.ListAuthors(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": as})
}

func (cc *CatalogController) GetAuthor(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	a, err := cc.catalog.GetAuthor(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (cc *CatalogController) CreateAuthor(c *gin.Context) {
	var req authorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := cc.catalog.CreateAuthor(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/authors/%d", a.ID))
	c.JSON(http.StatusCreated, a)
}

func (cc *CatalogController) UpdateAuthor(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req authorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := cc.catalog.UpdateAuthor(c.Request.Context(), id, req.input()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (cc *CatalogController) DeleteAuthor(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := cc.catalog.DeleteAuthor(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- categories ----------

func (cc *CatalogController) ListCategories(c *gin.Context) {
	cs, err := cc.catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": cs})
}

func (cc *CatalogController) GetCategory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	cat, err := cc.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (cc *CatalogController) CreateCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := cc.catalog.CreateCategory(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/categories/%d", cat.ID))
	c.JSON(http.StatusCreated, cat)
}

func (cc *CatalogController) UpdateCategory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := cc.catalog.UpdateCategory(c.Request.Context(), id, req.input()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (cc *CatalogController) DeleteCategory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := cc.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- books ----------

// GET /api/books?title=&categoryId=&available=
func (cc *CatalogController) ListBooks(c *gin.Context) {
	f := models.BookFilter{Title: c.Query("title")}
	if v := c.Query("categoryId"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "invalid categoryId"})
			return
		}
		id := uint(n)
		f.CategoryID = &id
	}
	if v := c.Query("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "invalid available"})
			return
		}
		f.Available = &b
	}

	bs, err := cc.catalog.ListBooks(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": bs})
}

func (cc *CatalogController) GetBook(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	b, err := cc.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (cc *CatalogController) CreateBook(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := cc.catalog.CreateBook(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/books/%d", b.ID))
	c.JSON(http.StatusCreated, b)
}

func (cc *CatalogController) UpdateBook(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := cc.catalog.UpdateBook(c.Request.Context(), id, req.input()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (cc *CatalogController) DeleteBook(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := cc.catalog.DeleteBook(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
