package db

import (
	"context"
	"time"

	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Loans

// FindBookForUpdate locks the book row until the surrounding transaction
// ends, so concurrent borrowers of the same book are serialized here.
func (r *Repo) FindBookForUpdate(ctx context.Context, id uint) (*models.Book, error) {
	var b models.Book
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *Repo) CountOverdueLoans(ctx context.Context, borrowerID string, now time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("borrower_id = ? AND status = ? AND expected_return_date < ?", borrowerID, models.LoanActive, now).
		Count(&n).Error
	return n, err
}

// CreateLoan inserts the loan row. A second Active loan for the same book
// hits the partial unique index and comes back as ErrDuplicate.
func (r *Repo) CreateLoan(ctx context.Context, l *models.Loan) error {
	return translate(r.DB.WithContext(ctx).Omit(clause.Associations).Create(l).Error)
}

func (r *Repo) SetBookAvailable(ctx context.Context, bookID uint, available bool) error {
	res := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("available", available)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindLoanForUpdate only matches loans owned by borrowerID.
func (r *Repo) FindLoanForUpdate(ctx context.Context, id uint, borrowerID string) (*models.Loan, error) {
	var l models.Loan
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, "id = ? AND borrower_id = ?", id, borrowerID).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *Repo) MarkLoanReturned(ctx context.Context, id uint, returnedAt time.Time, notes string) error {
	res := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ? AND status = ?", id, models.LoanActive).
		Updates(map[string]any{
			"actual_return_date": returnedAt,
			"status":             models.LoanReturned,
			"notes":              notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) hydratedLoans(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("Borrower").
		Preload("Book.Category").
		Preload("Book.Authors", func(db *gorm.DB) *gorm.DB { return db.Order(models.AuthorTable + ".id") })
}

func (r *Repo) FindLoan(ctx context.Context, id uint) (*models.Loan, error) {
	var l models.Loan
	if err := r.hydratedLoans(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *Repo) ListLoans(ctx context.Context, f models.LoanFilter) ([]models.Loan, error) {
	q := r.hydratedLoans(ctx).Model(&models.Loan{}).Order("id")
	if f.BorrowerID != "" {
		q = q.Where("borrower_id = ?", f.BorrowerID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Overdue {
		now := f.Now
		if now.IsZero() {
			now = time.Now().UTC()
		}
		q = q.Where("status = ? AND expected_return_date < ?", models.LoanActive, now)
	}
	var ls []models.Loan
	if err := q.Find(&ls).Error; err != nil {
		return nil, err
	}
	return ls, nil
}

// Loan events

func (r *Repo) LogLoanEvent(ctx context.Context, e *models.LoanEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *Repo) ListLoanEvents(ctx context.Context, loanID uint) ([]models.LoanEvent, error) {
	var es []models.LoanEvent
	err := r.DB.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at, id").
		Find(&es).Error
	return es, err
}
