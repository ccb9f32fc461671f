package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"
)

const returnNotesSeparator = " | Return: "

// LoanService is the loan lifecycle engine. It also keeps Book.Available in
// lockstep with the loans it writes: every flip of the flag happens in the
// transaction that inserts or returns the loan.
type LoanService struct {
	store  LoanStore
	now    func() time.Time
	logger *slog.Logger
}

type LoanOption func(*LoanService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) LoanOption {
	return func(s *LoanService) { s.now = now }
}

func WithLogger(l *slog.Logger) LoanOption {
	return func(s *LoanService) { s.logger = l }
}

func NewLoanService(store LoanStore, opts ...LoanOption) *LoanService {
	s := &LoanService{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateLoanInput struct {
	BookID             uint
	ExpectedReturnDate time.Time
	Notes              string
}

// CreateLoan checks, in order: the book exists, the book is available, the
// borrower has no overdue active loan. The loan insert, the availability
// flip and the audit row commit together.
func (s *LoanService) CreateLoan(ctx context.Context, borrowerID string, in CreateLoanInput) (*LoanView, error) {
	now := s.now().UTC()
	var loanID uint

	err := s.store.InLoanTx(ctx, func(tx LoanTx) error {
		book, err := tx.FindBookForUpdate(ctx, in.BookID)
		if errors.Is(err, db.ErrNotFound) {
			return NotFound("book")
		}
		if err != nil {
			return fmt.Errorf("load book %d: %w", in.BookID, err)
		}
		if !book.Available {
			return InvalidOperation(msgBookUnavailable)
		}

		overdue, err := tx.CountOverdueLoans(ctx, borrowerID, now)
		if err != nil {
			return fmt.Errorf("count overdue loans: %w", err)
		}
		if overdue > 0 {
			return InvalidOperation(msgBorrowerOverdue)
		}

		l := &models.Loan{
			LoanDate:           now,
			ExpectedReturnDate: in.ExpectedReturnDate.UTC(),
			Notes:              in.Notes,
			Status:             models.LoanActive,
			BorrowerID:         borrowerID,
			BookID:             book.ID,
		}
		if err := tx.CreateLoan(ctx, l); err != nil {
			// lost the race on the one-active-loan-per-book index
			if errors.Is(err, db.ErrDuplicate) {
				return InvalidOperation(msgBookUnavailable)
			}
			return fmt.Errorf("insert loan: %w", err)
		}
		if err := tx.SetBookAvailable(ctx, book.ID, false); err != nil {
			return fmt.Errorf("mark book %d unavailable: %w", book.ID, err)
		}
		if err := tx.LogLoanEvent(ctx, &models.LoanEvent{
			LoanID:    l.ID,
			ActorID:   borrowerID,
			Action:    models.LoanActionCreated,
			Notes:     optional(in.Notes),
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("log loan event: %w", err)
		}
		loanID = l.ID
		return nil
	})
	if err != nil {
		if _, ok := KindOf(err); ok {
			s.logger.WarnContext(ctx, "loan rejected", "book_id", in.BookID, "borrower_id", borrowerID, "reason", err.Error())
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "loan created", "loan_id", loanID, "book_id", in.BookID, "borrower_id", borrowerID)
	return s.GetLoan(ctx, loanID)
}

// ReturnLoan reports false without an error when the loan is missing, owned
// by someone else or no longer active. Callers cannot tell these apart.
func (s *LoanService) ReturnLoan(ctx context.Context, loanID uint, borrowerID string, notes *string) (bool, error) {
	now := s.now().UTC()
	var (
		returned bool
		bookID   uint
	)

	err := s.store.InLoanTx(ctx, func(tx LoanTx) error {
		l, err := tx.FindLoanForUpdate(ctx, loanID, borrowerID)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load loan %d: %w", loanID, err)
		}
		if l.Status != models.LoanActive {
			return nil
		}

		var extra string
		if notes != nil {
			extra = strings.TrimSpace(*notes)
		}
		if err := tx.MarkLoanReturned(ctx, l.ID, now, appendNotes(l.Notes, extra)); err != nil {
			return fmt.Errorf("mark loan %d returned: %w", l.ID, err)
		}
		if err := tx.SetBookAvailable(ctx, l.BookID, true); err != nil {
			return fmt.Errorf("mark book %d available: %w", l.BookID, err)
		}
		if err := tx.LogLoanEvent(ctx, &models.LoanEvent{
			LoanID:    l.ID,
			ActorID:   borrowerID,
			Action:    models.LoanActionReturned,
			Notes:     optional(extra),
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("log loan event: %w", err)
		}
		returned, bookID = true, l.BookID
		return nil
	})
	if err != nil {
		return false, err
	}

	if returned {
		s.logger.InfoContext(ctx, "loan returned", "loan_id", loanID, "book_id", bookID, "borrower_id", borrowerID)
	} else {
		s.logger.WarnContext(ctx, "return rejected", "loan_id", loanID, "borrower_id", borrowerID)
	}
	return returned, nil
}

func (s *LoanService) GetLoan(ctx context.Context, id uint) (*LoanView, error) {
	l, err := s.store.FindLoan(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, NotFound("loan")
	}
	if err != nil {
		return nil, err
	}
	v := loanView(*l, s.now())
	return &v, nil
}

// ListLoans returns every loan matching f in insertion order.
func (s *LoanService) ListLoans(ctx context.Context, f models.LoanFilter) ([]LoanView, error) {
	now := s.now()
	if f.Overdue && f.Now.IsZero() {
		f.Now = now.UTC()
	}
	ls, err := s.store.ListLoans(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]LoanView, 0, len(ls))
	for _, l := range ls {
		out = append(out, loanView(l, now))
	}
	return out, nil
}

func (s *LoanService) LoanEvents(ctx context.Context, loanID uint) ([]models.LoanEvent, error) {
	if _, err := s.store.FindLoan(ctx, loanID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, NotFound("loan")
		}
		return nil, err
	}
	return s.store.ListLoanEvents(ctx, loanID)
}

// appendNotes never drops what is already there.
func appendNotes(existing, extra string) string {
	if extra == "" {
		return existing
	}
	if existing == "" {
		return strings.TrimPrefix(returnNotesSeparator, " | ") + extra
	}
	return existing + returnNotesSeparator + extra
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
