package services

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindNotFound means a referenced book, category, author or loan is missing.
	KindNotFound Kind = iota + 1
	// KindInvalidOperation is a business rule violation.
	KindInvalidOperation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidOperation:
		return "invalid operation"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a business failure. Storage failures are never wrapped in it and
// reach callers as plain errors.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Kind == KindNotFound {
		return e.Msg + " not found"
	}
	return e.Msg
}

func NotFound(what string) error { return &Error{Kind: KindNotFound, Msg: what} }

func InvalidOperation(msg string) error { return &Error{Kind: KindInvalidOperation, Msg: msg} }

func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}

func IsInvalidOperation(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindInvalidOperation
}

const (
	msgBookUnavailable  = "book unavailable"
	msgBorrowerOverdue  = "borrower has overdue loans"
	msgCategoryMissing  = "category does not exist"
	msgAuthorsMissing   = "one or more authors do not exist"
	msgDuplicateISBN    = "isbn already registered"
	msgCategoryHasBooks = "category has books"
	msgBookHasLoans     = "book has loans"
)
