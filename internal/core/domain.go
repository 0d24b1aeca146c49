package core

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	Expense TxType = "expense"
	Income  TxType = "income"
)

const DateLayout = "2006-01-02"

type (
	// TxType is the direction of a transaction or category.
	TxType string

	// Date is a calendar day; the zero value means "not set".
	Date struct {
		time.Time
	}

	User struct {
		ID           int64     `json:"id"`
		Username     string    `json:"username"`
		Name         string    `json:"name"`
		Email        string    `json:"email,omitempty"`
		Phone        string    `json:"phone,omitempty"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	Category struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Type   TxType `json:"type"`
		UserID int64  `json:"userId"`
		Icon   string `json:"icon,omitempty"`
	}

	// SavingsGoal is a named target. UserID 0 marks a legacy goal without owner.
	SavingsGoal struct {
		ID            int64     `json:"id"`
		Name          string    `json:"name"`
		TargetAmount  float64   `json:"targetAmount"`
		CurrentAmount float64   `json:"currentAmount"`
		Deadline      Date      `json:"deadline"`
		UserID        int64     `json:"userId,omitempty"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	// GoalPatch carries the fields of a partial update; nil or unset means
	// unchanged. A set Deadline holding the zero Date clears the deadline.
	GoalPatch struct {
		Name         *string      `json:"name,omitempty"`
		TargetAmount *float64     `json:"targetAmount,omitempty"`
		Deadline     OptionalDate `json:"deadline"`
	}

	// OptionalDate tells an absent patch field apart from an explicit null
	// or "", both of which decode as a set zero Date.
	OptionalDate struct {
		Set  bool
		Date Date
	}

	// Account balance is a cached projection of its transactions.
	Account struct {
		ID            int64     `json:"id"`
		Name          string    `json:"name"`
		Bank          string    `json:"bank,omitempty"`
		AccountNumber string    `json:"accountNumber,omitempty"`
		Balance       float64   `json:"balance"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	// Transaction belongs either to a user (with a category reference) or,
	// in the legacy form, to an account with a free-text category label.
	Transaction struct {
		ID           int64     `json:"id"`
		UserID       int64     `json:"userId,omitempty"`
		AccountID    int64     `json:"accountId,omitempty"`
		CategoryID   int64     `json:"categoryId,omitempty"`
		Category     string    `json:"category,omitempty"`
		CategoryIcon string    `json:"categoryIcon,omitempty"`
		Amount       float64   `json:"amount"`
		Type         TxType    `json:"type"`
		Date         Date      `json:"date"`
		Note         string    `json:"note,omitempty"`
		SyncStatus   string    `json:"-"`
		SheetRow     string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}
)

// Sync states of a transaction in the spreadsheet mirror.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

func (t TxType) Valid() bool {
	return t == Expense || t == Income
}

// ParseTxType normalizes user input into a TxType.
func ParseTxType(s string) (TxType, bool) {
	t := TxType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if len(s) > len(DateLayout) {
		// accept full timestamps stored by older versions
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is not set.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String renders YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM key the date falls in.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return Invalid("date", "Ngày không hợp lệ: "+s)
	}
	*d = parsed
	return nil
}

// SetDate wraps d as a present patch value.
func SetDate(d Date) OptionalDate {
	return OptionalDate{Set: true, Date: d}
}

// UnmarshalJSON is also called for JSON null, which marks the field set.
func (o *OptionalDate) UnmarshalJSON(b []byte) error {
	var d Date
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*o = SetDate(d)
	return nil
}

func (o OptionalDate) MarshalJSON() ([]byte, error) {
	return o.Date.MarshalJSON()
}

// DaysUntil returns whole days from now until the date; negative when past.
func (d Date) DaysUntil(now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(today).Hours() / 24)
}
