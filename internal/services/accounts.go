package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"tietkiem/internal/core"
	"tietkiem/internal/storage"
)

// AccountService owns accounts and is the only writer of their balance.
type AccountService struct {
	gw *storage.Gateway
}

func NewAccountService(gw *storage.Gateway) *AccountService {
	return &AccountService{gw: gw}
}

func (s *AccountService) CreateAccount(ctx context.Context, name, bank, number string, startingBalance float64) (core.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Account{}, core.Invalid("name", "Tên tài khoản không được để trống")
	}
	return s.gw.Accounts.Create(ctx, core.Account{
		Name:          name,
		Bank:          strings.TrimSpace(bank),
		AccountNumber: strings.TrimSpace(number),
		Balance:       startingBalance,
	})
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.gw.Accounts.List(ctx)
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return s.gw.Accounts.ByID(ctx, id)
}

// RecalculateBalance rederives the cached balance as income minus expense
// and stores it. Reads and write share one database transaction.
func (s *AccountService) RecalculateBalance(ctx context.Context, accountID int64) (float64, error) {
	var balance float64
	err := s.gw.WithTx(ctx, func(st storage.Stores) error {
		if _, err := st.Accounts.ByID(ctx, accountID); err != nil {
			return err
		}
		income, expense, err := st.Transactions.TotalsByAccount(ctx, accountID)
		if err != nil {
			return err
		}
		balance = decimal.NewFromFloat(income).Sub(decimal.NewFromFloat(expense)).InexactFloat64()
		return st.Accounts.UpdateBalance(ctx, accountID, balance)
	})
	if err != nil {
		return 0, fmt.Errorf("recalculate balance of account %d: %w", accountID, err)
	}

	slog.InfoContext(ctx, "Account balance recalculated", "account_id", accountID, "balance", balance)
	return balance, nil
}
