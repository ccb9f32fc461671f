package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"
)

// CatalogService covers authors, categories and books.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

type AuthorInput struct {
	FirstName   string
	LastName    string
	BirthDate   *time.Time
	Nationality string
}

type CategoryInput struct {
	Name        string
	Description string
}

type BookInput struct {
	Title           string
	ISBN            string
	PublicationYear int
	Pages           int
	Description     string
	CategoryID      uint
	AuthorIDs       []uint
}

// Authors

func (s *CatalogService) ListAuthors(ctx context.Context) ([]AuthorView, error) {
	as, err := s.store.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AuthorView, 0, len(as))
	for _, a := range as {
		out = append(out, authorView(a))
	}
	return out, nil
}

func (s *CatalogService) GetAuthor(ctx context.Context, id uint) (*AuthorView, error) {
	a, err := s.store.FindAuthor(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "author")
	}
	v := authorView(*a)
	return &v, nil
}

func (s *CatalogService) CreateAuthor(ctx context.Context, in AuthorInput) (*AuthorView, error) {
	a := &models.Author{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		BirthDate:   in.BirthDate,
		Nationality: in.Nationality,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateAuthor(ctx, a); err != nil {
		return nil, fmt.Errorf("insert author: %w", err)
	}
	v := authorView(*a)
	return &v, nil
}

func (s *CatalogService) UpdateAuthor(ctx context.Context, id uint, in AuthorInput) error {
	err := s.store.UpdateAuthor(ctx, &models.Author{
		ID:          id,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		BirthDate:   in.BirthDate,
		Nationality: in.Nationality,
	})
	return notFoundAs(err, "author")
}

func (s *CatalogService) DeleteAuthor(ctx context.Context, id uint) error {
	return notFoundAs(s.store.DeleteAuthor(ctx, id), "author")
}

// Categories

func (s *CatalogService) ListCategories(ctx context.Context) ([]CategoryView, error) {
	cs, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryView, 0, len(cs))
	for _, c := range cs {
		out = append(out, categoryView(c))
	}
	return out, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*CategoryView, error) {
	c, err := s.store.FindCategory(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "category")
	}
	v := categoryView(*c)
	return &v, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*CategoryView, error) {
	c := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &CategoryView{ID: c.ID, Name: c.Name, Description: c.Description}, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) error {
	err := s.store.UpdateCategory(ctx, &models.Category{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
	})
	return notFoundAs(err, "category")
}

// DeleteCategory is refused while books still reference the category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	n, err := s.store.CountBooksInCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return InvalidOperation(msgCategoryHasBooks)
	}
	err = s.store.DeleteCategory(ctx, id)
	if errors.Is(err, db.ErrReferenced) {
		return InvalidOperation(msgCategoryHasBooks)
	}
	return notFoundAs(err, "category")
}

// Books

func (s *CatalogService) ListBooks(ctx context.Context, f models.BookFilter) ([]BookView, error) {
	bs, err := s.store.ListBooks(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]BookView, 0, len(bs))
	for _, b := range bs {
		out = append(out, bookView(b))
	}
	return out, nil
}

func (s *CatalogService) GetBook(ctx context.Context, id uint) (*BookView, error) {
	b, err := s.store.FindBook(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "book")
	}
	v := bookView(*b)
	return &v, nil
}

// CreateBook writes the book row and its author links in one transaction.
func (s *CatalogService) CreateBook(ctx context.Context, in BookInput) (*BookView, error) {
	in.AuthorIDs = uniqueIDs(in.AuthorIDs)
	var bookID uint
	err := s.store.InBookTx(ctx, func(tx BookTx) error {
		if err := validateBookRefs(ctx, tx, in); err != nil {
			return err
		}
		b := bookFromInput(0, in)
		if err := tx.CreateBook(ctx, b); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				return InvalidOperation(msgDuplicateISBN)
			}
			return fmt.Errorf("insert book: %w", err)
		}
		if err := tx.ReplaceBookAuthors(ctx, b.ID, in.AuthorIDs); err != nil {
			return fmt.Errorf("link book authors: %w", err)
		}
		bookID = b.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetBook(ctx, bookID)
}

// UpdateBook replaces the descriptive fields and the author set. It never
// changes availability.
func (s *CatalogService) UpdateBook(ctx context.Context, id uint, in BookInput) error {
	in.AuthorIDs = uniqueIDs(in.AuthorIDs)
	return s.store.InBookTx(ctx, func(tx BookTx) error {
		if _, err := tx.FindBookForUpdate(ctx, id); err != nil {
			return notFoundAs(err, "book")
		}
		if err := validateBookRefs(ctx, tx, in); err != nil {
			return err
		}
		if err := tx.UpdateBook(ctx, bookFromInput(id, in)); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				return InvalidOperation(msgDuplicateISBN)
			}
			return notFoundAs(err, "book")
		}
		if err := tx.ReplaceBookAuthors(ctx, id, in.AuthorIDs); err != nil {
			return fmt.Errorf("link book authors: %w", err)
		}
		return nil
	})
}

// DeleteBook is refused once any loan references the book.
func (s *CatalogService) DeleteBook(ctx context.Context, id uint) error {
	return s.store.InBookTx(ctx, func(tx BookTx) error {
		if _, err := tx.FindBookForUpdate(ctx, id); err != nil {
			return notFoundAs(err, "book")
		}
		n, err := tx.CountLoansForBook(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return InvalidOperation(msgBookHasLoans)
		}
		return notFoundAs(tx.DeleteBook(ctx, id), "book")
	})
}

func validateBookRefs(ctx context.Context, tx BookTx, in BookInput) error {
	ok, err := tx.CategoryExists(ctx, in.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return InvalidOperation(msgCategoryMissing)
	}
	found, err := tx.FindAuthorsByIDs(ctx, in.AuthorIDs)
	if err != nil {
		return err
	}
	if len(found) != len(in.AuthorIDs) {
		return InvalidOperation(msgAuthorsMissing)
	}
	return nil
}

func bookFromInput(id uint, in BookInput) *models.Book {
	return &models.Book{
		ID:              id,
		Title:           strings.TrimSpace(in.Title),
		ISBN:            strings.TrimSpace(in.ISBN),
		PublicationYear: in.PublicationYear,
		Pages:           in.Pages,
		Description:     in.Description,
		CategoryID:      in.CategoryID,
		CreatedAt:       time.Now().UTC(),
	}
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// notFoundAs turns db.ErrNotFound into NotFound(what); other errors pass.
func notFoundAs(err error, what string) error {
	if errors.Is(err, db.ErrNotFound) {
		return NotFound(what)
	}
	return err
}
