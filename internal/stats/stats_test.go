package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func setupStatsTest(t *testing.T) (*Aggregator, *database.Service, func()) {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     5 * time.Second,
		BusyTimeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		db.Close()
	}
	return NewAggregator(db), db, cleanup
}

func apply(t *testing.T, agg *Aggregator, db *database.Service, txn *models.Transaction, now time.Time) {
	t.Helper()
	err := db.RunUnit(context.Background(), func(u *database.Unit) error {
		return agg.ApplyCompletion(context.Background(), u, txn, now)
	})
	if err != nil {
		t.Fatalf("ApplyCompletion failed: %v", err)
	}
}

func TestApplyCompletion_Recharge(t *testing.T) {
	agg, db, cleanup := setupStatsTest(t)
	defer cleanup()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	txn := &models.Transaction{
		Id:     "txn1",
		Kind:   models.KindRecharge,
		Amount: decimal.NewFromInt(5000),
	}
	apply(t, agg, db, txn, now)

	st, err := agg.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !st.TotalDeposits.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected total deposits 5000, got %s", st.TotalDeposits.String())
	}
	if !st.TotalUsersBalance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected users balance 5000, got %s", st.TotalUsersBalance.String())
	}
	if st.TotalTransactions != 1 {
		t.Errorf("Expected 1 transaction, got %d", st.TotalTransactions)
	}
	// No sales yet, so the average stays at zero.
	if !st.AverageTransactionValue.Equal(decimal.Zero) {
		t.Errorf("Expected ATV 0, got %s", st.AverageTransactionValue.String())
	}

	bucket, ok := st.Monthly["2026-09"]
	if !ok {
		t.Fatal("Expected 2026-09 bucket")
	}
	if !bucket.Deposits.Equal(decimal.NewFromInt(5000)) || bucket.Transactions != 1 {
		t.Errorf("Unexpected bucket: deposits=%s transactions=%d", bucket.Deposits.String(), bucket.Transactions)
	}
}

func TestApplyCompletion_Purchase(t *testing.T) {
	agg, db, cleanup := setupStatsTest(t)
	defer cleanup()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	txn := &models.Transaction{
		Id:         "txn1",
		Kind:       models.KindPurchase,
		Amount:     decimal.NewFromInt(3000),
		Coins:      300,
		CostAmount: decimal.NewFromInt(2400),
	}
	apply(t, agg, db, txn, now)

	st, err := agg.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !st.TotalSalesVolume.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("Expected sales 3000, got %s", st.TotalSalesVolume.String())
	}
	if !st.TotalCost.Equal(decimal.NewFromInt(2400)) {
		t.Errorf("Expected cost 2400, got %s", st.TotalCost.String())
	}
	if !st.TotalProfit.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected profit 600, got %s", st.TotalProfit.String())
	}
	if st.TotalCoinsSold != 300 {
		t.Errorf("Expected 300 coins sold, got %d", st.TotalCoinsSold)
	}
	// The purchase was paid from the wallet.
	if !st.TotalUsersBalance.Equal(decimal.NewFromInt(-3000)) {
		t.Errorf("Expected users balance -3000, got %s", st.TotalUsersBalance.String())
	}
	if !st.AverageTransactionValue.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("Expected ATV 3000, got %s", st.AverageTransactionValue.String())
	}
}

func TestApplyCompletion_AverageAcrossKinds(t *testing.T) {
	agg, db, cleanup := setupStatsTest(t)
	defer cleanup()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	apply(t, agg, db, &models.Transaction{Id: "txn1", Kind: models.KindRecharge, Amount: decimal.NewFromInt(5000)}, now)
	apply(t, agg, db, &models.Transaction{Id: "txn2", Kind: models.KindPurchase, Amount: decimal.NewFromInt(3000), Coins: 300}, now)
	apply(t, agg, db, &models.Transaction{Id: "txn3", Kind: models.KindPurchase, Amount: decimal.NewFromInt(1000), Coins: 100}, now)

	st, err := agg.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	// 4000 of sales spread over 3 completed transactions.
	want := decimal.NewFromFloat(1333.33)
	if !st.AverageTransactionValue.Equal(want) {
		t.Errorf("Expected ATV %s, got %s", want.String(), st.AverageTransactionValue.String())
	}
}

func TestApplyCompletion_MonthBuckets(t *testing.T) {
	agg, db, cleanup := setupStatsTest(t)
	defer cleanup()

	september := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	october := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	apply(t, agg, db, &models.Transaction{Id: "txn1", Kind: models.KindRecharge, Amount: decimal.NewFromInt(1000)}, september)
	apply(t, agg, db, &models.Transaction{Id: "txn2", Kind: models.KindRecharge, Amount: decimal.NewFromInt(2000)}, september)
	apply(t, agg, db, &models.Transaction{Id: "txn3", Kind: models.KindRecharge, Amount: decimal.NewFromInt(4000)}, october)

	st, err := agg.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	sep, ok := st.Monthly["2026-09"]
	if !ok || !sep.Deposits.Equal(decimal.NewFromInt(3000)) || sep.Transactions != 2 {
		t.Errorf("Unexpected september bucket: %+v", sep)
	}
	oct, ok := st.Monthly["2026-10"]
	if !ok || !oct.Deposits.Equal(decimal.NewFromInt(4000)) || oct.Transactions != 1 {
		t.Errorf("Unexpected october bucket: %+v", oct)
	}
	if !st.TotalDeposits.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("Expected total deposits 7000, got %s", st.TotalDeposits.String())
	}
}

func TestMonthKey(t *testing.T) {
	key := MonthKey(time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC))
	if key != "2026-01" {
		t.Errorf("Expected 2026-01, got %s", key)
	}
}
