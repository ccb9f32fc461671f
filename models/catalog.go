// models/catalog.go
package models

import "time"

const (
	AuthorTable     = "lib_authors"
	CategoryTable   = "lib_categories"
	BookTable       = "lib_books"
	BookAuthorTable = "lib_book_authors"
)

type Author struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FirstName   string     `gorm:"size:100;not null" json:"firstName"`
	LastName    string     `gorm:"size:100;not null" json:"lastName"`
	BirthDate   *time.Time `json:"birthDate,omitempty"`
	Nationality string     `gorm:"size:50" json:"nationality"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Book.Available is the redundant "no active loan" flag. It is only ever
// written together with a loan insert or a loan return.
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null;index" json:"title"`
	ISBN            string    `gorm:"column:isbn;size:20;not null;uniqueIndex" json:"isbn"`
	PublicationYear int       `json:"publicationYear"`
	Pages           int       `json:"pages"`
	Description     string    `gorm:"size:1000" json:"description"`
	Available       bool      `gorm:"not null;default:true;index" json:"available"`
	CategoryID      uint      `gorm:"not null;index" json:"categoryId"`
	CreatedAt       time.Time `json:"createdAt"`

	Category Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Authors  []Author `gorm:"many2many:lib_book_authors;" json:"-"`
}

// BookAuthor is the Book↔Author join row. It carries nothing but the keys.
type BookAuthor struct {
	BookID   uint `gorm:"primaryKey"`
	AuthorID uint `gorm:"primaryKey"`
}

func (Author) TableName() string     { return AuthorTable }
func (Category) TableName() string   { return CategoryTable }
func (Book) TableName() string       { return BookTable }
func (BookAuthor) TableName() string { return BookAuthorTable }

// BookFilter narrows book listings. Zero values mean "no filter".
type BookFilter struct {
	Title      string
	CategoryID *uint
	Available  *bool
}
