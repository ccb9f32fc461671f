package services

import (
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"
)

type AuthorView struct {
	ID          uint       `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	FullName    string     `json:"fullName"`
	BirthDate   *time.Time `json:"birthDate,omitempty"`
	Nationality string     `json:"nationality"`
}

type CategoryView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BookCount   int64  `json:"bookCount"`
}

type BookView struct {
	ID              uint         `json:"id"`
	Title           string       `json:"title"`
	ISBN            string       `json:"isbn"`
	PublicationYear int          `json:"publicationYear"`
	Pages           int          `json:"pages"`
	Description     string       `json:"description"`
	Available       bool         `json:"available"`
	Category        CategoryView `json:"category"`
	Authors         []AuthorView `json:"authors"`
}

type LoanView struct {
	ID                 uint              `json:"id"`
	LoanDate           time.Time         `json:"loanDate"`
	ExpectedReturnDate time.Time         `json:"expectedReturnDate"`
	ActualReturnDate   *time.Time        `json:"actualReturnDate,omitempty"`
	Notes              string            `json:"notes"`
	Status             models.LoanStatus `json:"status"`
	BorrowerID         string            `json:"borrowerId"`
	BorrowerName       string            `json:"borrowerName"`
	BorrowerEmail      string            `json:"borrowerEmail"`
	Book               BookView          `json:"book"`
	RemainingDays      int               `json:"remainingDays"`
}

func authorView(a models.Author) AuthorView {
	return AuthorView{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		FullName:    a.FirstName + " " + a.LastName,
		BirthDate:   a.BirthDate,
		Nationality: a.Nationality,
	}
}

func categoryView(c db.CategoryWithCount) CategoryView {
	return CategoryView{ID: c.ID, Name: c.Name, Description: c.Description, BookCount: c.BookCount}
}

func bookView(b models.Book) BookView {
	v := BookView{
		ID:              b.ID,
		Title:           b.Title,
		ISBN:            b.ISBN,
		PublicationYear: b.PublicationYear,
		Pages:           b.Pages,
		Description:     b.Description,
		Available:       b.Available,
		Category: CategoryView{
			ID:          b.Category.ID,
			Name:        b.Category.Name,
			Description: b.Category.Description,
		},
		Authors: make([]AuthorView, 0, len(b.Authors)),
	}
	for _, a := range b.Authors {
		v.Authors = append(v.Authors, authorView(a))
	}
	return v
}

func loanView(l models.Loan, now time.Time) LoanView {
	return LoanView{
		ID:                 l.ID,
		LoanDate:           l.LoanDate,
		ExpectedReturnDate: l.ExpectedReturnDate,
		ActualReturnDate:   l.ActualReturnDate,
		Notes:              l.Notes,
		Status:             l.Status,
		BorrowerID:         l.BorrowerID,
		BorrowerName:       l.Borrower.FullName(),
		BorrowerEmail:      l.Borrower.Email,
		Book:               bookView(l.Book),
		RemainingDays:      l.RemainingDays(now),
	}
}
