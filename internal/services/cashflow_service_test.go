package services

import (
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestGetCashflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeDepository)
	svc := NewCashflowService(db)

	jan10 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	jan20 := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	feb5 := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)

	testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.CategoryIncome, 500000, jan10)
	testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.CategorySpending, 120000, jan20)
	testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.CategorySpending, 80000, feb5)
	testutil.CreateTestTransaction(t, db, user.ID, account.ID, models.CategoryTransfer, 999999, jan10)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)

	t.Run("monthly_buckets", func(t *testing.T) {
		report, err := svc.GetCashflow(user.ID, from, to)
		testutil.AssertNoError(t, err)

		if len(report.Months) != 2 {
			t.Fatalf("expected 2 months, got %d", len(report.Months))
		}
		jan := report.Months[0]
		if jan.Month != "2025-01" || jan.Income != 500000 || jan.Spending != 120000 || jan.Net != 380000 {
			t.Errorf("unexpected January bucket: %+v", jan)
		}
		feb := report.Months[1]
		if feb.Month != "2025-02" || feb.Income != 0 || feb.Spending != 80000 || feb.Net != -80000 {
			t.Errorf("unexpected February bucket: %+v", feb)
		}
		if report.TotalIncome != 500000 || report.TotalSpending != 200000 || report.TotalNet != 300000 {
			t.Errorf("unexpected totals: %+v", report)
		}
	})

	t.Run("transfers_excluded", func(t *testing.T) {
		report, err := svc.GetCashflow(user.ID, from, to)
		testutil.AssertNoError(t, err)
		if report.TotalIncome+report.TotalSpending >= 999999 {
			t.Error("transfer amounts must not appear in the totals")
		}
	})

	t.Run("range_respected", func(t *testing.T) {
		janOnly, err := svc.GetCashflow(user.ID, from, time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC))
		testutil.AssertNoError(t, err)
		if len(janOnly.Months) != 1 || janOnly.Months[0].Month != "2025-01" {
			t.Errorf("expected only January, got %+v", janOnly.Months)
		}
	})

	t.Run("negative_amounts_counted_absolute", func(t *testing.T) {
		owner := testutil.CreateTestUser(t, db)
		acc := testutil.CreateTestAccount(t, db, owner.ID, models.AccountTypeDepository)
		testutil.CreateTestTransaction(t, db, owner.ID, acc.ID, models.CategorySpending, -4500, jan10)

		report, err := svc.GetCashflow(owner.ID, from, to)
		testutil.AssertNoError(t, err)
		if report.TotalSpending != 4500 {
			t.Errorf("expected spending 4500, got %d", report.TotalSpending)
		}
	})

	t.Run("empty_range", func(t *testing.T) {
		report, err := svc.GetCashflow(user.ID,
			time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC))
		testutil.AssertNoError(t, err)
		if len(report.Months) != 0 || report.TotalNet != 0 {
			t.Errorf("expected empty report, got %+v", report)
		}
	})

	t.Run("inverted_range", func(t *testing.T) {
		_, err := svc.GetCashflow(user.ID, to, from)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
