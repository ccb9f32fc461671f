// controllers/loan_controller.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/models"
	"Gin_postgres_redis_library/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgReturnFailed = "could not process the return"

type LoanAPI interface {
	CreateLoan(ctx context.Context, borrowerID string, in services.CreateLoanInput) (*services.LoanView, error)
	ReturnLoan(ctx context.Context, loanID uint, borrowerID string, notes *string) (bool, error)
	GetLoan(ctx context.Context, id uint) (*services.LoanView, error)
	ListLoans(ctx context.Context, f models.LoanFilter) ([]services.LoanView, error)
	LoanEvents(ctx context.Context, loanID uint) ([]models.LoanEvent, error)
}

type LoanController struct{ loans LoanAPI }

func NewLoanController(loans LoanAPI) *LoanController { return &LoanController{loans: loans} }

type createLoanReq struct {
	BookID             uint      `json:"bookId" binding:"required"`
	ExpectedReturnDate time.Time `json:"expectedReturnDate" binding:"required"`
	Notes              string    `json:"notes" binding:"max=500"`
}

type returnLoanReq struct {
	Notes *string `json:"notes" binding:"omitempty,max=500"`
}

// POST /api/loans
func (lc *LoanController) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req createLoanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	loan, err := lc.loans.CreateLoan(c.Request.Context(), userID, services.CreateLoanInput{
		BookID:             req.BookID,
		ExpectedReturnDate: req.ExpectedReturnDate,
		Notes:              req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/loans/%d", loan.ID))
	c.JSON(http.StatusCreated, loan)
}

// PUT /api/loans/:id/return
func (lc *LoanController) Return(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	// 空 body 也可以
	var req returnLoanReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	returned, err := lc.loans.ReturnLoan(c.Request.Context(), id, userID, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	if !returned {
		c.JSON(http.StatusBadRequest, app.H{"error": msgReturnFailed})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/loans?userId=&status=&overdue=
func (lc *LoanController) List(c *gin.Context) {
	f, ok := loanFilter(c)
	if !ok {
		return
	}
	if v := c.Query("userId"); v != "" {
		if _, err := uuid.Parse(v); err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "invalid userId"})
			return
		}
		f.BorrowerID = v
	}
	lc.list(c, f)
}

// GET /api/loans/mine?status=
func (lc *LoanController) Mine(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	f, ok := loanFilter(c)
	if !ok {
		return
	}
	f.BorrowerID = userID
	lc.list(c, f)
}

func (lc *LoanController) list(c *gin.Context, f models.LoanFilter) {
	ls, err := lc.loans.ListLoans(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": ls})
}

// GET /api/loans/:id
func (lc *LoanController) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	loan, err := lc.loans.GetLoan(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loan)
}

// GET /api/loans/:id/events
func (lc *LoanController) Events(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	es, err := lc.loans.LoanEvents(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": es})
}

func loanFilter(c *gin.Context) (models.LoanFilter, bool) {
	var f models.LoanFilter
	if v := c.Query("status"); v != "" {
		st, err := models.ParseLoanStatus(v)
		if err != nil {
			badRequest(c, err)
			return f, false
		}
		f.Status = &st
	}
	if v := c.Query("overdue"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": "invalid overdue"})
			return f, false
		}
		f.Overdue = b
	}
	return f, true
}
