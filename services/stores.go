package services

import (
	"context"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"
)

// LoanTx is the write side the loan engine needs inside one transaction.
type LoanTx interface {
	FindBookForUpdate(ctx context.Context, id uint) (*models.Book, error)
	CountOverdueLoans(ctx context.Context, borrowerID string, now time.Time) (int64, error)
	CreateLoan(ctx context.Context, l *models.Loan) error
	SetBookAvailable(ctx context.Context, bookID uint, available bool) error
	FindLoanForUpdate(ctx context.Context, id uint, borrowerID string) (*models.Loan, error)
	MarkLoanReturned(ctx context.Context, id uint, returnedAt time.Time, notes string) error
	LogLoanEvent(ctx context.Context, e *models.LoanEvent) error
}

// LoanStore is the Entity Store as seen by the loan engine.
type LoanStore interface {
	InLoanTx(ctx context.Context, fn func(tx LoanTx) error) error
	FindLoan(ctx context.Context, id uint) (*models.Loan, error)
	ListLoans(ctx context.Context, f models.LoanFilter) ([]models.Loan, error)
	ListLoanEvents(ctx context.Context, loanID uint) ([]models.LoanEvent, error)
}

// BookTx is the write side of book create/update.
type BookTx interface {
	FindBookForUpdate(ctx context.Context, id uint) (*models.Book, error)
	CategoryExists(ctx context.Context, id uint) (bool, error)
	FindAuthorsByIDs(ctx context.Context, ids []uint) ([]models.Author, error)
	CreateBook(ctx context.Context, b *models.Book) error
	UpdateBook(ctx context.Context, b *models.Book) error
	ReplaceBookAuthors(ctx context.Context, bookID uint, authorIDs []uint) error
	CountLoansForBook(ctx context.Context, bookID uint) (int64, error)
	DeleteBook(ctx context.Context, id uint) error
}

type CatalogStore interface {
	InBookTx(ctx context.Context, fn func(tx BookTx) error) error

	ListBooks(ctx context.Context, f models.BookFilter) ([]models.Book, error)
	FindBook(ctx context.Context, id uint) (*models.Book, error)

	ListAuthors(ctx context.Context) ([]models.Author, error)
	FindAuthor(ctx context.Context, id uint) (*models.Author, error)
	CreateAuthor(ctx context.Context, a *models.Author) error
	UpdateAuthor(ctx context.Context, a *models.Author) error
	DeleteAuthor(ctx context.Context, id uint) error

	ListCategories(ctx context.Context) ([]db.CategoryWithCount, error)
	FindCategory(ctx context.Context, id uint) (*db.CategoryWithCount, error)
	CountBooksInCategory(ctx context.Context, id uint) (int64, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}

// RepoStore adapts *db.Repo to the service store interfaces.
type RepoStore struct{ *db.Repo }

func NewRepoStore(r *db.Repo) RepoStore { return RepoStore{Repo: r} }

func (s RepoStore) InLoanTx(ctx context.Context, fn func(tx LoanTx) error) error {
	return s.Repo.Transaction(ctx, func(tx *db.Repo) error { return fn(tx) })
}

func (s RepoStore) InBookTx(ctx context.Context, fn func(tx BookTx) error) error {
	return s.Repo.Transaction(ctx, func(tx *db.Repo) error { return fn(tx) })
}

var (
	_ LoanStore    = RepoStore{}
	_ CatalogStore = RepoStore{}
)
