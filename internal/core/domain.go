package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// Date is a calendar day stored at midnight UTC.
	Date struct {
		time.Time
	}

	// InstallmentDetail is one scheduled payment of an account.
	// DueDate is kept as written by the user; see ParseDueDate.
	InstallmentDetail struct {
		InstallmentNumber int    `json:"installmentNumber"`
		DueDate           string `json:"dueDate"`
		Amount            Money  `json:"amount"`
	}

	// AccountRecord is the unit of persistence. Details keep insertion order.
	AccountRecord struct {
		ID          string              `json:"id"`
		Name        string              `json:"Name"`
		Product     string              `json:"Product"`
		Description string              `json:"Description"`
		Details     []InstallmentDetail `json:"Details"`
	}

	// AccountWithTotal is an AccountRecord enriched with the sum of its
	// installment amounts. TotalAmount is derived on read and never stored.
	AccountWithTotal struct {
		AccountRecord
		TotalAmount Money `json:"totalAmount"`
	}
)

var (
	ErrEmptyAccountID            = errors.New("empty account id")
	ErrInvalidAmount             = errors.New("invalid amount")
	ErrNegativeAmount            = errors.New("negative installment amount")
	ErrNegativeInstallmentNumber = errors.New("negative installment number")
	ErrMalformedDate             = errors.New("malformed due date")
	ErrAccountNotFound           = errors.New("account not found")
	ErrDuplicateAccount          = errors.New("account already exists")
)

// NewDate creates a new Date from year, month (1-12) and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the calendar day of now, in now's own location.
func Today(now time.Time) Date {
	y, m, d := now.Date()
	return NewDate(y, int(m), d)
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

var dueDateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDueDate reads the calendar date out of a stored due date.
//
// The year, month and day are taken as written: timestamps are not shifted
// to another time zone, so "2024-03-15T23:30:00-05:00" is March 15.
// Non-existent dates such as 2024-02-30 are rejected.
func ParseDueDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty", ErrMalformedDate)
	}
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return NewDate(y, int(m), d), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}

// Validate checks the installment before it is saved. The due date is not
// checked: malformed dates are stored and simply never appear on the calendar.
func (i InstallmentDetail) Validate() error {
	if i.InstallmentNumber < 0 {
		return ErrNegativeInstallmentNumber
	}
	if i.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (a AccountRecord) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyAccountID
	}
	for idx, d := range a.Details {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("installment %d: %w", idx+1, err)
		}
	}
	return nil
}

// Clone returns a copy that shares no slice with a.
func (a AccountRecord) Clone() AccountRecord {
	out := a
	if a.Details != nil {
		out.Details = make([]InstallmentDetail, len(a.Details))
		copy(out.Details, a.Details)
	}
	return out
}

// StoreError reports a failed call to the account store.
type StoreError struct {
	Op  string
	Err error
}

// ErrStoreFailure matches any *StoreError through errors.Is.
var ErrStoreFailure = errors.New("store failure")

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreFailure }

// NewStoreError wraps err, or returns nil when err is nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
