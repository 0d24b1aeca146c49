package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tietkiem/internal/amqp"
	"tietkiem/internal/core"
	"tietkiem/internal/storage"
)

// NewTransaction is the input for recording a transaction. A zero Date
// means today.
type NewTransaction struct {
	UserID     int64       `json:"user_id"`
	AccountID  int64       `json:"account_id,omitempty"`
	CategoryID int64       `json:"category_id,omitempty"`
	Category   string      `json:"category,omitempty"`
	Amount     float64     `json:"amount"`
	Type       core.TxType `json:"type"`
	Date       core.Date   `json:"date"`
	Note       string      `json:"note"`
}

// TransactionService records and removes transactions. Changes that touch
// an account always go through AccountService.RecalculateBalance.
type TransactionService struct {
	gw       *storage.Gateway
	accounts *AccountService
	events   EventPublisher
	now      func() time.Time
}

func NewTransactionService(gw *storage.Gateway, accounts *AccountService, events EventPublisher) *TransactionService {
	return &TransactionService{gw: gw, accounts: accounts, events: events, now: time.Now}
}

func (s *TransactionService) validate(in *NewTransaction) error {
	if in.Amount <= 0 {
		return core.Invalid("amount", "Số tiền phải lớn hơn 0")
	}
	typ, ok := core.ParseTxType(string(in.Type))
	if !ok {
		return core.Invalid("type", "Loại giao dịch phải là expense hoặc income")
	}
	in.Type = typ
	if in.Date.IsEmpty() {
		today := s.now()
		in.Date = core.NewDate(today.Year(), int(today.Month()), today.Day())
	}
	in.Note = strings.TrimSpace(in.Note)
	return nil
}

// AddTransaction records a user-scoped transaction against a category.
func (s *TransactionService) AddTransaction(ctx context.Context, in NewTransaction) (core.Transaction, error) {
	if err := s.validate(&in); err != nil {
		return core.Transaction{}, err
	}
	if in.CategoryID != 0 {
		cat, err := s.gw.Categories.ByID(ctx, in.CategoryID)
		if err != nil {
			return core.Transaction{}, err
		}
		if cat.UserID != in.UserID {
			return core.Transaction{}, core.Invalid("category_id", "Danh mục không thuộc về người dùng này")
		}
		if cat.Type != in.Type {
			return core.Transaction{}, core.Invalid("category_id", "Danh mục không khớp với loại giao dịch")
		}
	}

	t, err := s.gw.Transactions.Create(ctx, core.Transaction{
		UserID:     in.UserID,
		CategoryID: in.CategoryID,
		Category:   strings.TrimSpace(in.Category),
		Amount:     in.Amount,
		Type:       in.Type,
		Date:       in.Date,
		Note:       in.Note,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	ev := amqp.NewTransactionEvent(amqp.TransactionCreated, t.ID)
	ev.UserID = t.UserID
	publish(ctx, s.events, ev)
	return t, nil
}

// CreateAccountTransaction records a transaction on an account with a
// free-text category, then rederives the account balance.
func (s *TransactionService) CreateAccountTransaction(ctx context.Context, accountID int64, in NewTransaction) (core.Transaction, error) {
	if err := s.validate(&in); err != nil {
		return core.Transaction{}, err
	}
	if _, err := s.gw.Accounts.ByID(ctx, accountID); err != nil {
		return core.Transaction{}, err
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = uncategorized
	}
	t, err := s.gw.Transactions.Create(ctx, core.Transaction{
		AccountID: accountID,
		Category:  category,
		Amount:    in.Amount,
		Type:      in.Type,
		Date:      in.Date,
		Note:      in.Note,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create account transaction: %w", err)
	}
	if _, err := s.accounts.RecalculateBalance(ctx, accountID); err != nil {
		return t, err
	}

	ev := amqp.NewTransactionEvent(amqp.TransactionCreated, t.ID)
	ev.AccountID = accountID
	publish(ctx, s.events, ev)
	return t, nil
}

// DeleteTransaction removes a transaction and rederives its account balance.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	t, err := s.gw.Transactions.ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gw.Transactions.Delete(ctx, id); err != nil {
		return err
	}
	if t.AccountID != 0 {
		if _, err := s.accounts.RecalculateBalance(ctx, t.AccountID); err != nil {
			return err
		}
	}

	ev := amqp.NewTransactionEvent(amqp.TransactionDeleted, id)
	ev.UserID = t.UserID
	ev.AccountID = t.AccountID
	ev.SheetRow = t.SheetRow
	publish(ctx, s.events, ev)
	return nil
}

// ListByAccount returns the transactions of an account, newest first.
func (s *TransactionService) ListByAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	if _, err := s.gw.Accounts.ByID(ctx, accountID); err != nil {
		return nil, err
	}
	txs, err := s.gw.Transactions.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

// ListByMonth returns a user's transactions in a YYYY-MM month, newest first.
func (s *TransactionService) ListByMonth(ctx context.Context, userID int64, month string) ([]core.Transaction, error) {
	month, err := resolveMonth(month, s.now)
	if err != nil {
		return nil, err
	}
	txs, err := s.gw.Transactions.ListByMonth(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

// SummaryByMonth totals a month's transactions of one type per category,
// largest first.
func (s *TransactionService) SummaryByMonth(ctx context.Context, userID int64, month string, typ core.TxType) ([]core.CategoryTotal, error) {
	month, err := resolveMonth(month, s.now)
	if err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, core.Invalid("type", "Loại giao dịch phải là expense hoặc income")
	}
	totals, err := s.gw.Transactions.CategoryTotals(ctx, userID, month, typ)
	if err != nil {
		return nil, err
	}
	return labelTotals(totals), nil
}

// resolveMonth validates a YYYY-MM key; empty means the current month.
func resolveMonth(month string, now func() time.Time) (string, error) {
	month = strings.TrimSpace(month)
	if month == "" {
		return now().Format("2006-01"), nil
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return "", core.Invalid("month", "Tháng phải có dạng YYYY-MM")
	}
	return month, nil
}

func labelTotals(totals []core.CategoryTotal) []core.CategoryTotal {
	out := make([]core.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		if t.Category == "" {
			t.Category = uncategorized
		}
		out = append(out, t)
	}
	return out
}
