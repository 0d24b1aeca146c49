package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tietkiem/internal/amqp"
	"tietkiem/internal/core"
)

func TestTransactionService_AddTransaction(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t)
	events := &recordingPublisher{}
	svc := NewTransactionService(gw, NewAccountService(gw), events)
	svc.now = fixedClock(2024, 3, 9)

	food, err := gw.Categories.Create(ctx, core.Category{Name: "Ăn uống", Type: core.Expense, UserID: 1})
	require.NoError(t, err)

	tx, err := svc.AddTransaction(ctx, NewTransaction{UserID: 1, CategoryID: food.ID, Amount: 45_000, Type: "Expense", Note: " phở "})
	require.NoError(t, err)
	assert.Equal(t, core.Expense, tx.Type)
	assert.Equal(t, "2024-03-09", tx.Date.String())
	assert.Equal(t, "phở", tx.Note)
	assert.Equal(t, "Ăn uống", tx.Category)

	require.Len(t, events.events, 1)
	assert.Equal(t, amqp.TransactionCreated, events.events[0].Type)
	assert.Equal(t, tx.ID, events.events[0].ID)
}

func TestTransactionService_AddTransactionValidation(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t)
	svc := NewTransactionService(gw, NewAccountService(gw), nil)

	salary, err := gw.Categories.Create(ctx, core.Category{Name: "Lương", Type: core.Income, UserID: 1})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   NewTransaction
		want error
	}{
		{"zero amount", NewTransaction{UserID: 1, Amount: 0, Type: core.Expense}, core.ErrValidation},
		{"negative amount", NewTransaction{UserID: 1, Amount: -1, Type: core.Expense}, core.ErrValidation},
		{"bad type", NewTransaction{UserID: 1, Amount: 1, Type: "transfer"}, core.ErrValidation},
		{"missing category", NewTransaction{UserID: 1, Amount: 1, Type: core.Expense, CategoryID: 99}, core.ErrNotFound},
		{"category direction mismatch", NewTransaction{UserID: 1, Amount: 1, Type: core.Expense, CategoryID: salary.ID}, core.ErrValidation},
		{"category of another user", NewTransaction{UserID: 2, Amount: 1, Type: core.Income, CategoryID: salary.ID}, core.ErrValidation},
		{"category without user", NewTransaction{Amount: 1, Type: core.Income, CategoryID: salary.ID}, core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddTransaction(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTransactionService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t)
	events := &recordingPublisher{err: errors.New("broker down")}
	svc := NewTransactionService(gw, NewAccountService(gw), events)

	tx, err := svc.AddTransaction(ctx, NewTransaction{UserID: 1, Amount: 10, Type: core.Income})
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)
	assert.Len(t, events.events, 1)
}

func TestTransactionService_AccountBalanceFollowsTransactions(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t)
	accounts := NewAccountService(gw)
	events := &recordingPublisher{}
	svc := NewTransactionService(gw, accounts, events)

	acc, err := accounts.CreateAccount(ctx, "Techcombank", "TCB", "1903", 0)
	require.NoError(t, err)

	salary, err := svc.CreateAccountTransaction(ctx, acc.ID, NewTransaction{Amount: 10_000_000, Type: core.Income, Category: "Lương", Date: core.NewDate(2024, 1, 5)})
	require.NoError(t, err)
	rent, err := svc.CreateAccountTransaction(ctx, acc.ID, NewTransaction{Amount: 4_000_000, Type: core.Expense, Date: core.NewDate(2024, 1, 6)})
	require.NoError(t, err)
	assert.Equal(t, "Khác", rent.Category)
	_, err = svc.CreateAccountTransaction(ctx, acc.ID, NewTransaction{Amount: 250_000, Type: core.Expense, Category: "Điện", Date: core.NewDate(2024, 1, 7)})
	require.NoError(t, err)

	got, err := accounts.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 5_750_000.0, got.Balance)

	require.NoError(t, svc.DeleteTransaction(ctx, rent.ID))

	remaining, err := svc.ListByAccount(ctx, acc.ID)
	require.NoError(t, err)
	var sum float64
	for _, tx := range remaining {
		if tx.Type == core.Income {
			sum += tx.Amount
		} else {
			sum -= tx.Amount
		}
	}
	got, err = accounts.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, sum, got.Balance)
	assert.Equal(t, 9_750_000.0, got.Balance)

	last := events.events[len(events.events)-1]
	assert.Equal(t, amqp.TransactionDeleted, last.Type)
	assert.Equal(t, rent.ID, last.ID)
	assert.Equal(t, acc.ID, last.AccountID)

	assert.ErrorIs(t, svc.DeleteTransaction(ctx, salary.ID+100), core.ErrNotFound)

	_, err = svc.CreateAccountTransaction(ctx, 404, NewTransaction{Amount: 1, Type: core.Income})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTransactionService_SummaryByMonth(t *testing.T) {
	ctx := context.Background()
	gw := newGateway(t)
	svc := NewTransactionService(gw, NewAccountService(gw), nil)

	food, err := gw.Categories.Create(ctx, core.Category{Name: "Ăn uống", Type: core.Expense, UserID: 1})
	require.NoError(t, err)
	fun, err := gw.Categories.Create(ctx, core.Category{Name: "Giải trí", Type: core.Expense, UserID: 1})
	require.NoError(t, err)

	for _, in := range []NewTransaction{
		{UserID: 1, CategoryID: food.ID, Amount: 100, Type: core.Expense, Date: core.NewDate(2024, 2, 1)},
		{UserID: 1, CategoryID: fun.ID, Amount: 500, Type: core.Expense, Date: core.NewDate(2024, 2, 3)},
		{UserID: 1, CategoryID: food.ID, Amount: 150, Type: core.Expense, Date: core.NewDate(2024, 2, 4)},
		{UserID: 1, CategoryID: food.ID, Amount: 9999, Type: core.Expense, Date: core.NewDate(2024, 3, 1)},
	} {
		_, err := svc.AddTransaction(ctx, in)
		require.NoError(t, err)
	}

	totals, err := svc.SummaryByMonth(ctx, 1, "2024-02", core.Expense)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "Giải trí", totals[0].Category)
	assert.Equal(t, 500.0, totals[0].Total)
	assert.Equal(t, 250.0, totals[1].Total)

	_, err = svc.SummaryByMonth(ctx, 1, "02/2024", core.Expense)
	assert.ErrorIs(t, err, core.ErrValidation)

	list, err := svc.ListByMonth(ctx, 1, "2024-02")
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, "2024-02-04", list[0].Date.String())
}
