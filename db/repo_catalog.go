// db/repo_catalog.go
package db

import (
	"context"
	"strings"

	"Gin_postgres_redis_library/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Authors

func (r *Repo) ListAuthors(ctx context.Context) ([]models.Author, error) {
	var as []models.Author
	err := r.DB.WithContext(ctx).Order("id").Find(&as).Error
	return as, err
}

func (r *Repo) FindAuthor(ctx context.Context, id uint) (*models.Author, error) {
	var a models.Author
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// FindAuthorsByIDs returns the subset of ids that exist.
func (r *Repo) FindAuthorsByIDs(ctx context.Context, ids []uint) ([]models.Author, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var as []models.Author
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&as).Error
	return as, err
}

func (r *Repo) CreateAuthor(ctx context.Context, a *models.Author) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *Repo) UpdateAuthor(ctx context.Context, a *models.Author) error {
	res := r.DB.WithContext(ctx).Model(&models.Author{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"first_name":  a.FirstName,
			"last_name":   a.LastName,
			"birth_date":  a.BirthDate,
			"nationality": a.Nationality,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAuthor drops the author and its book links.
func (r *Repo) DeleteAuthor(ctx context.Context, id uint) error {
	return r.Transaction(ctx, func(tx *Repo) error {
		if err := tx.DB.WithContext(ctx).Where("author_id = ?", id).Delete(&models.BookAuthor{}).Error; err != nil {
			return err
		}
		res := tx.DB.WithContext(ctx).Delete(&models.Author{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Categories

type CategoryWithCount struct {
	models.Category
	BookCount int64 `json:"bookCount"`
}

func (r *Repo) ListCategories(ctx context.Context) ([]CategoryWithCount, error) {
	var rows []CategoryWithCount
	err := r.DB.WithContext(ctx).
		Table(models.CategoryTable + " c").
		Select("c.*, (SELECT COUNT(*) FROM " + models.BookTable + " b WHERE b.category_id = c.id) AS book_count").
		Order("c.id").
		Scan(&rows).Error
	return rows, err
}

func (r *Repo) FindCategory(ctx context.Context, id uint) (*CategoryWithCount, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	n, err := r.CountBooksInCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CategoryWithCount{Category: c, BookCount: n}, nil
}

func (r *Repo) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *Repo) CountBooksInCategory(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Book{}).Where("category_id = ?", id).Count(&n).Error
	return n, err
}

func (r *Repo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *Repo) UpdateCategory(ctx context.Context, c *models.Category) error {
	res := r.DB.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{"name": c.Name, "description": c.Description})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteCategory(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Books

func (r *Repo) hydratedBooks(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("Category").
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order(models.AuthorTable + ".id") })
}

func (r *Repo) ListBooks(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	q := r.hydratedBooks(ctx).Model(&models.Book{}).Order("id")
	if s := strings.TrimSpace(f.Title); s != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Available != nil {
		q = q.Where("available = ?", *f.Available)
	}
	var bs []models.Book
	if err := q.Find(&bs).Error; err != nil {
		return nil, err
	}
	return bs, nil
}

func (r *Repo) FindBook(ctx context.Context, id uint) (*models.Book, error) {
	var b models.Book
	if err := r.hydratedBooks(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// CreateBook inserts the bare row; links are written with ReplaceBookAuthors.
func (r *Repo) CreateBook(ctx context.Context, b *models.Book) error {
	b.Available = true
	return translate(r.DB.WithContext(ctx).Omit(clause.Associations).Create(b).Error)
}

// UpdateBook rewrites the descriptive columns. available is never touched
// here; only loan writes flip it.
func (r *Repo) UpdateBook(ctx context.Context, b *models.Book) error {
	res := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"title":            b.Title,
			"isbn":             b.ISBN,
			"publication_year": b.PublicationYear,
			"pages":            b.Pages,
			"description":      b.Description,
			"category_id":      b.CategoryID,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ReplaceBookAuthors(ctx context.Context, bookID uint, authorIDs []uint) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("book_id = ?", bookID).Delete(&models.BookAuthor{}).Error; err != nil {
		return err
	}
	if len(authorIDs) == 0 {
		return nil
	}
	links := make([]models.BookAuthor, 0, len(authorIDs))
	for _, id := range authorIDs {
		links = append(links, models.BookAuthor{BookID: bookID, AuthorID: id})
	}
	return translate(db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error)
}

func (r *Repo) CountLoansForBook(ctx context.Context, bookID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Loan{}).Where("book_id = ?", bookID).Count(&n).Error
	return n, err
}

func (r *Repo) DeleteBook(ctx context.Context, id uint) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("book_id = ?", id).Delete(&models.BookAuthor{}).Error; err != nil {
		return err
	}
	res := db.Delete(&models.Book{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
