package record

import (
	"time"
)

// Loan - выдача товара во временное пользование
type Loan struct {
	Base
	ProductSKU string     `json:"productSku" validate:"required"`
	Borrower   string     `json:"borrower" validate:"required"`
	Quantity   int        `json:"quantity" validate:"gt=0"`
	Status     string     `json:"status,omitempty" validate:"omitempty,oneof=active returned overdue"`
	LoanDate   time.Time  `json:"loanDate"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`
}

func (l *Loan) Collection() Collection {
	return Loans
}

func (l *Loan) Key() string {
	return l.ID
}

func (l *Loan) MergeWith(previous Record) Record {
	if prev, ok := previous.(*Loan); ok && prev != nil {
		l.mergeBase(&prev.Base)
	}
	return l
}
