// models/loan.go
package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	LoanTable      = "lib_loans"
	LoanEventTable = "lib_loan_events"
)

type LoanStatus string

// Overdue and Lost are representable but no code path assigns them; overdue
// is derived from a negative RemainingDays on an Active loan.
const (
	LoanActive   LoanStatus = "Active"
	LoanReturned LoanStatus = "Returned"
	LoanOverdue  LoanStatus = "Overdue"
	LoanLost     LoanStatus = "Lost"
)

// numeric codes kept by older clients: 1 Active, 2 Returned, 3 Overdue, 4 Lost
var loanStatusCodes = []LoanStatus{LoanActive, LoanReturned, LoanOverdue, LoanLost}

// ParseLoanStatus accepts a status name (any case) or its numeric code.
func ParseLoanStatus(s string) (LoanStatus, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(loanStatusCodes) {
			return loanStatusCodes[n-1], nil
		}
		return "", fmt.Errorf("unknown loan status code %d", n)
	}
	for _, st := range loanStatusCodes {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown loan status %q", s)
}

type Loan struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	LoanDate           time.Time  `gorm:"not null" json:"loanDate"`
	ExpectedReturnDate time.Time  `gorm:"not null;index" json:"expectedReturnDate"`
	ActualReturnDate   *time.Time `json:"actualReturnDate,omitempty"`
	Notes              string     `gorm:"type:text" json:"notes"`
	Status             LoanStatus `gorm:"size:20;not null;index" json:"status"`
	BorrowerID         string     `gorm:"type:uuid;index;not null" json:"borrowerId"`
	BookID             uint       `gorm:"index;not null" json:"bookId"`

	Borrower User `gorm:"foreignKey:BorrowerID;constraint:OnDelete:RESTRICT;" json:"-"`
	Book     Book `gorm:"constraint:OnDelete:RESTRICT;" json:"-"`
}

func (Loan) TableName() string { return LoanTable }

// RemainingDays is whole days left until the expected return, floored, so an
// overdue active loan yields a negative number. Non-active loans yield 0.
func (l Loan) RemainingDays(now time.Time) int {
	if l.Status != LoanActive {
		return 0
	}
	days := l.ExpectedReturnDate.Sub(now).Hours() / 24
	return int(math.Floor(days))
}

// IsOverdue reports an active loan whose expected return has passed.
func (l Loan) IsOverdue(now time.Time) bool {
	return l.Status == LoanActive && l.ExpectedReturnDate.Before(now)
}

type LoanFilter struct {
	BorrowerID string
	Status     *LoanStatus
	Overdue    bool
	Now        time.Time // reference time for Overdue
}

type LoanAction string

const (
	LoanActionCreated  LoanAction = "created"
	LoanActionReturned LoanAction = "returned"
)

// LoanEvent is the audit row written in the same transaction as each loan
// state change.
type LoanEvent struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	LoanID    uint       `gorm:"index;not null" json:"loanId"`
	ActorID   string     `gorm:"type:uuid;not null" json:"actorId"`
	Action    LoanAction `gorm:"size:20;not null" json:"action"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (LoanEvent) TableName() string { return LoanEventTable }
