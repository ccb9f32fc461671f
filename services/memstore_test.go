package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"
)

// memStore is an in-memory LoanStore. InLoanTx holds one lock for the whole
// callback and restores a snapshot when the callback fails, which is the
// behaviour the engine relies on from Postgres.
type memStore struct {
	mu sync.Mutex

	books  map[uint]models.Book
	users  map[string]models.User
	loans  map[uint]models.Loan
	events []models.LoanEvent
	nextID uint

	// failEvent makes LogLoanEvent fail, to exercise rollback.
	failEvent error
}

func newMemStore() *memStore {
	return &memStore{
		books: map[uint]models.Book{},
		users: map[string]models.User{},
		loans: map[uint]models.Loan{},
	}
}

func (s *memStore) addUser(id, first, last string) {
	s.users[id] = models.User{ID: id, FirstName: first, LastName: last, Email: first + "@example.com"}
}

func (s *memStore) addBook(id uint, title string, available bool) {
	s.books[id] = models.Book{
		ID:        id,
		Title:     title,
		Available: available,
		Category:  models.Category{ID: 1, Name: "Fiction"},
		Authors:   []models.Author{{ID: 1, FirstName: "Ursula", LastName: "Le Guin"}},
	}
}

// addLoan seeds a loan directly, bypassing the engine.
func (s *memStore) addLoan(l models.Loan) uint {
	s.nextID++
	l.ID = s.nextID
	s.loans[l.ID] = l
	return l.ID
}

func (s *memStore) book(id uint) models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id]
}

func (s *memStore) loan(id uint) models.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loans[id]
}

func (s *memStore) activeLoans(bookID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.loans {
		if l.BookID == bookID && l.Status == models.LoanActive {
			n++
		}
	}
	return n
}

type memSnapshot struct {
	books  map[uint]models.Book
	loans  map[uint]models.Loan
	events []models.LoanEvent
	nextID uint
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		books:  make(map[uint]models.Book, len(s.books)),
		loans:  make(map[uint]models.Loan, len(s.loans)),
		events: append([]models.LoanEvent(nil), s.events...),
		nextID: s.nextID,
	}
	for k, v := range s.books {
		snap.books[k] = v
	}
	for k, v := range s.loans {
		snap.loans[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.books, s.loans, s.events, s.nextID = snap.books, snap.loans, snap.events, snap.nextID
}

func (s *memStore) InLoanTx(ctx context.Context, fn func(tx LoanTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(memTx{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) hydrate(l models.Loan) models.Loan {
	l.Book = s.books[l.BookID]
	l.Borrower = s.users[l.BorrowerID]
	return l
}

func (s *memStore) FindLoan(ctx context.Context, id uint) (*models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	l = s.hydrate(l)
	return &l, nil
}

func (s *memStore) ListLoans(ctx context.Context, f models.LoanFilter) ([]models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Loan
	for id := uint(1); id <= s.nextID; id++ {
		l, ok := s.loans[id]
		if !ok {
			continue
		}
		if f.BorrowerID != "" && l.BorrowerID != f.BorrowerID {
			continue
		}
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		if f.Overdue && !l.IsOverdue(f.Now) {
			continue
		}
		out = append(out, s.hydrate(l))
	}
	return out, nil
}

func (s *memStore) ListLoanEvents(ctx context.Context, loanID uint) ([]models.LoanEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LoanEvent
	for _, e := range s.events {
		if e.LoanID == loanID {
			out = append(out, e)
		}
	}
	return out, nil
}

// memTx runs with memStore.mu already held.
type memTx struct{ s *memStore }

func (t memTx) FindBookForUpdate(ctx context.Context, id uint) (*models.Book, error) {
	b, ok := t.s.books[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &b, nil
}

func (t memTx) CountOverdueLoans(ctx context.Context, borrowerID string, now time.Time) (int64, error) {
	var n int64
	for _, l := range t.s.loans {
		if l.BorrowerID == borrowerID && l.IsOverdue(now) {
			n++
		}
	}
	return n, nil
}

func (t memTx) CreateLoan(ctx context.Context, l *models.Loan) error {
	for _, other := range t.s.loans {
		if other.BookID == l.BookID && other.Status == models.LoanActive {
			return fmt.Errorf("%w: one active loan per book", db.ErrDuplicate)
		}
	}
	t.s.nextID++
	l.ID = t.s.nextID
	t.s.loans[l.ID] = *l
	return nil
}

func (t memTx) SetBookAvailable(ctx context.Context, bookID uint, available bool) error {
	b, ok := t.s.books[bookID]
	if !ok {
		return db.ErrNotFound
	}
	b.Available = available
	t.s.books[bookID] = b
	return nil
}

func (t memTx) FindLoanForUpdate(ctx context.Context, id uint, borrowerID string) (*models.Loan, error) {
	l, ok := t.s.loans[id]
	if !ok || l.BorrowerID != borrowerID {
		return nil, db.ErrNotFound
	}
	return &l, nil
}

func (t memTx) MarkLoanReturned(ctx context.Context, id uint, returnedAt time.Time, notes string) error {
	l, ok := t.s.loans[id]
	if !ok || l.Status != models.LoanActive {
		return db.ErrNotFound
	}
	l.Status = models.LoanReturned
	l.ActualReturnDate = &returnedAt
	l.Notes = notes
	t.s.loans[id] = l
	return nil
}

func (t memTx) LogLoanEvent(ctx context.Context, e *models.LoanEvent) error {
	if t.s.failEvent != nil {
		return t.s.failEvent
	}
	e.ID = fmt.Sprintf("ev-%d", len(t.s.events)+1)
	t.s.events = append(t.s.events, *e)
	return nil
}

var (
	_ LoanStore = (*memStore)(nil)
	_ LoanTx    = memTx{}

	errBoom = errors.New("boom")
)
