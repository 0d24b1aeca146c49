package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tietkiem/internal/core"
)

type StoreSuite struct {
	suite.Suite
	gw  *Gateway
	ctx context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	gw, err := Open(filepath.Join(s.T().TempDir(), "test.db"))
	s.Require().NoError(err)
	s.gw = gw
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	s.NoError(s.gw.Close())
}

func (s *StoreSuite) TestOpenIsIdempotent() {
	path := filepath.Join(s.T().TempDir(), "again.db")
	gw, err := Open(path)
	s.Require().NoError(err)
	s.Require().NoError(gw.Close())

	gw, err = Open(path)
	s.Require().NoError(err)
	s.NoError(gw.Ping(s.ctx))
	s.NoError(gw.Close())
}

func (s *StoreSuite) TestUsers() {
	u, err := s.gw.Users.Create(s.ctx, core.User{Username: "lan", Name: "Lan", Email: "lan@example.com", PasswordHash: "x"})
	s.Require().NoError(err)
	s.NotZero(u.ID)
	s.False(u.CreatedAt.IsZero())

	got, ok, err := s.gw.Users.ByUsername(s.ctx, "lan")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(u.ID, got.ID)

	_, ok, err = s.gw.Users.ByEmail(s.ctx, "nobody@example.com")
	s.Require().NoError(err)
	s.False(ok)

	renamed, err := s.gw.Users.UpdateName(s.ctx, u.ID, "Lan Nguyen")
	s.Require().NoError(err)
	s.Equal("Lan Nguyen", renamed.Name)

	_, err = s.gw.Users.ByID(s.ctx, 999)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *StoreSuite) TestCategoriesFilterByType() {
	for _, c := range []core.Category{
		{Name: "Lương", Type: core.Income, UserID: 1},
		{Name: "Ăn uống", Type: core.Expense, UserID: 1},
		{Name: "Di chuyển", Type: core.Expense, UserID: 1},
		{Name: "Khác", Type: core.Expense, UserID: 2},
	} {
		_, err := s.gw.Categories.Create(s.ctx, c)
		s.Require().NoError(err)
	}

	expense, err := s.gw.Categories.List(s.ctx, 1, core.Expense)
	s.Require().NoError(err)
	s.Len(expense, 2)

	all, err := s.gw.Categories.List(s.ctx, 1, "")
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *StoreSuite) TestGoalLifecycle() {
	g, err := s.gw.Goals.Create(s.ctx, core.SavingsGoal{Name: "Du lịch", TargetAmount: 10_000_000, Deadline: core.NewDate(2030, 1, 1)})
	s.Require().NoError(err)
	s.Zero(g.CurrentAmount)
	s.Equal("2030-01-01", g.Deadline.String())

	name := "Du lịch Đà Nẵng"
	updated, err := s.gw.Goals.Update(s.ctx, g.ID, core.GoalPatch{Name: &name, Deadline: core.SetDate(core.Date{})})
	s.Require().NoError(err)
	s.Equal(name, updated.Name)
	s.Equal(10_000_000.0, updated.TargetAmount)
	s.True(updated.Deadline.IsEmpty())
	s.False(updated.UpdatedAt.Before(g.UpdatedAt))

	after, err := s.gw.Goals.AddAmount(s.ctx, g.ID, 2_500_000)
	s.Require().NoError(err)
	s.Equal(2_500_000.0, after.CurrentAmount)

	s.Require().NoError(s.gw.Goals.Delete(s.ctx, g.ID))
	s.ErrorIs(s.gw.Goals.Delete(s.ctx, g.ID), core.ErrNotFound)
	_, err = s.gw.Goals.AddAmount(s.ctx, g.ID, 1)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *StoreSuite) TestAddAmountIsAtomic() {
	g, err := s.gw.Goals.Create(s.ctx, core.SavingsGoal{Name: "Quỹ", TargetAmount: 1000})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.gw.Goals.AddAmount(s.ctx, g.ID, 10)
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	got, err := s.gw.Goals.ByID(s.ctx, g.ID)
	s.Require().NoError(err)
	s.Equal(200.0, got.CurrentAmount)
}

func (s *StoreSuite) TestGoalListScopesByUser() {
	for _, uid := range []int64{1, 1, 2} {
		_, err := s.gw.Goals.Create(s.ctx, core.SavingsGoal{Name: "g", TargetAmount: 1, UserID: uid})
		s.Require().NoError(err)
	}
	mine, err := s.gw.Goals.List(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(mine, 2)

	all, err := s.gw.Goals.List(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(all, 3)
	s.Greater(all[0].ID, all[2].ID)
}

func (s *StoreSuite) TestTransactionsAndAggregates() {
	food, err := s.gw.Categories.Create(s.ctx, core.Category{Name: "Ăn uống", Type: core.Expense, UserID: 1, Icon: "🍜"})
	s.Require().NoError(err)
	salary, err := s.gw.Categories.Create(s.ctx, core.Category{Name: "Lương", Type: core.Income, UserID: 1})
	s.Require().NoError(err)

	add := func(cat int64, typ core.TxType, amount float64, day int) core.Transaction {
		t, err := s.gw.Transactions.Create(s.ctx, core.Transaction{
			UserID: 1, CategoryID: cat, Type: typ, Amount: amount, Date: core.NewDate(2024, 5, day),
		})
		s.Require().NoError(err)
		return t
	}
	first := add(food.ID, core.Expense, 50_000, 2)
	add(food.ID, core.Expense, 30_000, 2)
	add(salary.ID, core.Income, 15_000_000, 1)
	_, err = s.gw.Transactions.Create(s.ctx, core.Transaction{
		UserID: 1, CategoryID: food.ID, Type: core.Expense, Amount: 99, Date: core.NewDate(2024, 6, 1),
	})
	s.Require().NoError(err)

	s.Equal("Ăn uống", first.Category)
	s.Equal("🍜", first.CategoryIcon)
	s.Equal(core.SyncPending, first.SyncStatus)

	may, err := s.gw.Transactions.ListByMonth(s.ctx, 1, "2024-05")
	s.Require().NoError(err)
	s.Len(may, 3)
	s.Equal("2024-05-02", may[0].Date.String())

	totals, err := s.gw.Transactions.CategoryTotals(s.ctx, 1, "2024-05", core.Expense)
	s.Require().NoError(err)
	s.Require().Len(totals, 1)
	s.Equal(80_000.0, totals[0].Total)

	daily, err := s.gw.Transactions.DailyTotals(s.ctx, 1, "2024-05")
	s.Require().NoError(err)
	s.Require().Len(daily, 2)
	s.Equal(core.DailyTotal{Date: core.NewDate(2024, 5, 1), Income: 15_000_000}, daily[0])
	s.Equal(80_000.0, daily[1].Expense)

	inRange, err := s.gw.Transactions.Range(s.ctx, 1, core.NewDate(2024, 5, 2), core.NewDate(2024, 6, 30))
	s.Require().NoError(err)
	s.Len(inRange, 3)

	s.Require().NoError(s.gw.Transactions.Delete(s.ctx, first.ID))
	s.ErrorIs(s.gw.Transactions.Delete(s.ctx, first.ID), core.ErrNotFound)
}

func (s *StoreSuite) TestAccountTotals() {
	acc, err := s.gw.Accounts.Create(s.ctx, core.Account{Name: "VCB"})
	s.Require().NoError(err)

	for _, t := range []core.Transaction{
		{AccountID: acc.ID, Category: "Lương", Type: core.Income, Amount: 1000, Date: core.NewDate(2024, 1, 1)},
		{AccountID: acc.ID, Category: "Chợ", Type: core.Expense, Amount: 300, Date: core.NewDate(2024, 1, 2)},
	} {
		_, err := s.gw.Transactions.Create(s.ctx, t)
		s.Require().NoError(err)
	}

	income, expense, err := s.gw.Transactions.TotalsByAccount(s.ctx, acc.ID)
	s.Require().NoError(err)
	s.Equal(1000.0, income)
	s.Equal(300.0, expense)

	listed, err := s.gw.Transactions.ListByAccount(s.ctx, acc.ID)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal("Chợ", listed[0].Category)

	s.Require().NoError(s.gw.Accounts.UpdateBalance(s.ctx, acc.ID, income-expense))
	got, err := s.gw.Accounts.ByID(s.ctx, acc.ID)
	s.Require().NoError(err)
	s.Equal(700.0, got.Balance)

	s.ErrorIs(s.gw.Accounts.UpdateBalance(s.ctx, 404, 0), core.ErrNotFound)
}

func (s *StoreSuite) TestSyncStatus() {
	t, err := s.gw.Transactions.Create(s.ctx, core.Transaction{UserID: 1, Type: core.Expense, Amount: 1, Date: core.NewDate(2024, 1, 1)})
	s.Require().NoError(err)

	pending, err := s.gw.Transactions.PendingSync(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(pending, 1)

	s.Require().NoError(s.gw.Transactions.MarkSynced(s.ctx, t.ID, "Transactions!A2:F2"))
	pending, err = s.gw.Transactions.PendingSync(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)

	got, err := s.gw.Transactions.ByID(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal("Transactions!A2:F2", got.SheetRow)
}

func (s *StoreSuite) TestWithTxRollsBack() {
	err := s.gw.WithTx(s.ctx, func(st Stores) error {
		if _, err := st.Goals.Create(s.ctx, core.SavingsGoal{Name: "tạm", TargetAmount: 1}); err != nil {
			return err
		}
		return core.Invalid("name", "boom")
	})
	s.ErrorIs(err, core.ErrValidation)

	goals, err := s.gw.Goals.List(s.ctx, 0)
	s.Require().NoError(err)
	s.Empty(goals)
}

func TestOpenMemory(t *testing.T) {
	gw, err := Open(":memory:")
	require.NoError(t, err)
	defer gw.Close()

	_, err = gw.Accounts.Create(context.Background(), core.Account{Name: "Tiền mặt", Balance: 5})
	require.NoError(t, err)
	accounts, err := gw.Accounts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}
