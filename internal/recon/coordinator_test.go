package recon

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tikflow-ledger-go/internal/catalog"
	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/models"
	"tikflow-ledger-go/internal/notify"
	"tikflow-ledger-go/internal/stats"
	"tikflow-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type testHarness struct {
	db          *database.Service
	catalog     *catalog.Service
	notify      *notify.Sink
	coordinator *Coordinator
}

func setupCoordinatorTest(t *testing.T, cfg models.ReconConfig) (*testHarness, func()) {
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

	cat := catalog.NewService(db)
	sink := notify.NewSink(db)
	coordinator := NewCoordinator(db, cat, stats.NewAggregator(db), sink, cfg)

	h := &testHarness{db: db, catalog: cat, notify: sink, coordinator: coordinator}
	cleanup := func() {
		db.Close()
	}
	return h, cleanup
}

// seedPayment records an unused inbound payment, as if the matcher had
// accepted a provider notification.
func (h *testHarness) seedPayment(t *testing.T, refId string, amount decimal.Decimal) {
	t.Helper()
	err := h.db.RunUnit(context.Background(), func(u *database.Unit) error {
		return u.InsertPayment(context.Background(), &models.PaymentRecord{
			Id:         uuid.New().String(),
			RefId:      refId,
			Amount:     amount,
			Sender:     "TMoney",
			RawText:    "Montant: " + amount.String() + " FCFA Ref: " + refId,
			Status:     models.PaymentUnused,
			ReceivedAt: time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("Failed to seed payment: %v", err)
	}
}

// creditWallet gives a user a starting balance outside the flows under test.
func (h *testHarness) creditWallet(t *testing.T, userId string, amount decimal.Decimal) {
	t.Helper()
	if _, err := h.coordinator.AdjustBalance(context.Background(), userId, amount, "test seed"); err != nil {
		t.Fatalf("Failed to credit wallet: %v", err)
	}
}

func (h *testHarness) balance(t *testing.T, userId string) decimal.Decimal {
	t.Helper()
	balance, err := h.db.GetWalletBalance(context.Background(), userId)
	if err != nil {
		t.Fatalf("Failed to read balance: %v", err)
	}
	return balance
}

func TestSubmitRecharge_DuplicateReference(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	if _, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(1000), "REF1", "TMoney"); err != nil {
		t.Fatalf("First submission failed: %v", err)
	}

	// Same reference again, even from another user, must be refused.
	_, err := h.coordinator.SubmitRecharge(ctx, "user2", decimal.NewFromInt(1000), "REF1", "TMoney")
	if !errors.Is(err, store.ErrDuplicateReference) {
		t.Fatalf("Expected ErrDuplicateReference, got %v", err)
	}
}

func TestSubmitRecharge_Validation(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	tests := []struct {
		name   string
		userId string
		amount decimal.Decimal
		refId  string
		method string
	}{
		{"missing user", "", decimal.NewFromInt(1000), "REF1", "TMoney"},
		{"missing ref", "user1", decimal.NewFromInt(1000), "", "TMoney"},
		{"missing method", "user1", decimal.NewFromInt(1000), "REF1", ""},
		{"zero amount", "user1", decimal.Zero, "REF1", "TMoney"},
		{"negative amount", "user1", decimal.NewFromInt(-5), "REF1", "TMoney"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.coordinator.SubmitRecharge(ctx, tt.userId, tt.amount, tt.refId, tt.method)
			if !errors.Is(err, store.ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestSubmitRecharge_RateLimited(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{MaxPendingPerUser: 3})
	defer cleanup()

	ctx := context.Background()
	for i, ref := range []string{"REF1", "REF2", "REF3"} {
		if _, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(int64(100*(i+1))), ref, "TMoney"); err != nil {
			t.Fatalf("Submission %d failed: %v", i+1, err)
		}
	}

	_, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(400), "REF4", "TMoney")
	if !errors.Is(err, store.ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited at the pending cap, got %v", err)
	}

	// The cap is per user.
	if _, err := h.coordinator.SubmitRecharge(ctx, "user2", decimal.NewFromInt(400), "REF5", "TMoney"); err != nil {
		t.Fatalf("Other user's submission failed: %v", err)
	}
}

func TestCompleteRecharge_HappyPath(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	h.seedPayment(t, "REF1", decimal.NewFromInt(5000))

	txnId, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(5000), "REF1", "TMoney")
	if err != nil {
		t.Fatalf("SubmitRecharge failed: %v", err)
	}

	if err := h.coordinator.ResolvePending(ctx, txnId, CompleteRecharge()); err != nil {
		t.Fatalf("ResolvePending failed: %v", err)
	}

	if got := h.balance(t, "user1"); !got.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected balance 5000 after completion, got %s", got.String())
	}

	txn, err := h.db.GetTransaction(ctx, txnId)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if txn.Status != models.StatusCompleted {
		t.Errorf("Expected status completed, got %s", txn.Status)
	}

	// The payment record is consumed.
	payment, err := h.db.GetPaymentByRef(ctx, "REF1")
	if err != nil {
		t.Fatalf("GetPaymentByRef failed: %v", err)
	}
	if payment == nil || payment.Status != models.PaymentUsed {
		t.Errorf("Expected payment marked used, got %+v", payment)
	}

	// The aggregate folded the deposit in.
	st, err := h.db.GetPlatformStats(ctx)
	if err != nil {
		t.Fatalf("GetPlatformStats failed: %v", err)
	}
	if !st.TotalDeposits.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected total deposits 5000, got %s", st.TotalDeposits.String())
	}
	if st.TotalTransactions != 1 {
		t.Errorf("Expected 1 completed transaction in stats, got %d", st.TotalTransactions)
	}

	// The user was told.
	notifications, err := h.notify.ListForUser(ctx, "user1", 10)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(notifications) == 0 {
		t.Error("Expected a completion notification for the user")
	}
}

func TestCompleteRecharge_Twice(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	h.seedPayment(t, "REF1", decimal.NewFromInt(5000))
	txnId, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(5000), "REF1", "TMoney")
	if err != nil {
		t.Fatalf("SubmitRecharge failed: %v", err)
	}

	if err := h.coordinator.ResolvePending(ctx, txnId, CompleteRecharge()); err != nil {
		t.Fatalf("First completion failed: %v", err)
	}
	err = h.coordinator.ResolvePending(ctx, txnId, CompleteRecharge())
	if !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Fatalf("Expected ErrAlreadyProcessed on second completion, got %v", err)
	}

	// The wallet was credited exactly once.
	if got := h.balance(t, "user1"); !got.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected balance 5000, got %s", got.String())
	}
}

func TestCompleteRecharge_NoPayment(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	txnId, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(5000), "REF1", "TMoney")
	if err != nil {
		t.Fatalf("SubmitRecharge failed: %v", err)
	}

	err = h.coordinator.ResolvePending(ctx, txnId, CompleteRecharge())
	if !errors.Is(err, store.ErrPaymentNotFound) {
		t.Fatalf("Expected ErrPaymentNotFound, got %v", err)
	}

	// Nothing moved.
	if got := h.balance(t, "user1"); !got.Equal(decimal.Zero) {
		t.Errorf("Expected untouched balance, got %s", got.String())
	}
	txn, err := h.db.GetTransaction(ctx, txnId)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if txn.Status != models.StatusPending {
		t.Errorf("Expected transaction still pending, got %s", txn.Status)
	}
}

func TestCompleteRecharge_AmountMismatch(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	h.seedPayment(t, "REF1", decimal.NewFromInt(900))
	txnId, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(1000), "REF1", "TMoney")
	if err != nil {
		t.Fatalf("SubmitRecharge failed: %v", err)
	}

	err = h.coordinator.ResolvePending(ctx, txnId, CompleteRecharge())
	if !errors.Is(err, store.ErrAmountMismatch) {
		t.Fatalf("Expected ErrAmountMismatch, got %v", err)
	}

	// The failed unit left no partial effects: payment unused, wallet
	// untouched, transaction still pending.
	payment, err := h.db.GetPaymentByRef(ctx, "REF1")
	if err != nil {
		t.Fatalf("GetPaymentByRef failed: %v", err)
	}
	if payment.Status != models.PaymentUnused {
		t.Errorf("Expected payment still unused, got %s", payment.Status)
	}
	if got := h.balance(t, "user1"); !got.Equal(decimal.Zero) {
		t.Errorf("Expected untouched balance, got %s", got.String())
	}
}

func TestCompleteRecharge_OverpaymentAllowed(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	h.seedPayment(t, "REF1", decimal.NewFromInt(1200))
	txnId, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(1000), "REF1", "TMoney")
	if err != nil {
		t.Fatalf("SubmitRecharge failed: %v", err)
	}

	if err := h.coordinator.ResolvePending(ctx, txnId, CompleteRecharge()); err != nil {
		t.Fatalf("ResolvePending failed: %v", err)
	}

	// The wallet is credited the claimed amount, not the payment amount.
	if got := h.balance(t, "user1"); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected balance 1000, got %s", got.String())
	}
}

func TestRejectedRecharge_CanBeCompletedLater(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	txnId, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(1000), "REF1", "TMoney")
	if err != nil {
		t.Fatalf("SubmitRecharge failed: %v", err)
	}

	if err := h.coordinator.ResolvePending(ctx, txnId, Reject("preuve illisible")); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	// The payment arrives after the fact; a re-review can still complete
	// the rejected recharge.
	h.seedPayment(t, "REF1", decimal.NewFromInt(1000))
	if err := h.coordinator.ResolvePending(ctx, txnId, CompleteRecharge()); err != nil {
		t.Fatalf("Re-review completion failed: %v", err)
	}

	if got := h.balance(t, "user1"); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected balance 1000 after re-review, got %s", got.String())
	}
}

func TestPurchase_PackagePricing(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	pkgId, err := h.catalog.Create(ctx, "Starter", 100, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("Failed to create package: %v", err)
	}
	h.creditWallet(t, "user1", decimal.NewFromInt(1500))

	result, err := h.coordinator.PurchaseWithLedger(ctx, "user1",
		Pricing{PackageId: pkgId},
		Credentials{TiktokUsername: "tikuser", TiktokPassword: "secret"})
	if err != nil {
		t.Fatalf("PurchaseWithLedger failed: %v", err)
	}

	if result.Coins != 100 {
		t.Errorf("Expected 100 coins, got %d", result.Coins)
	}
	if !result.NewBalance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected new balance 500, got %s", result.NewBalance.String())
	}

	txn, err := h.db.GetTransaction(ctx, result.TransactionId)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if txn.Status != models.StatusPending || txn.Kind != models.KindPurchase {
		t.Errorf("Unexpected transaction state: kind=%s status=%s", txn.Kind, txn.Status)
	}
	if !txn.RateUsed.Equal(decimal.Zero) {
		t.Errorf("Package pricing must not set a rate, got %s", txn.RateUsed.String())
	}
}

func TestPurchase_CustomPricing(t *testing.T) {
	cfg := models.ReconConfig{CoinRate: decimal.NewFromInt(10), MinCustomCoins: 30}
	h, cleanup := setupCoordinatorTest(t, cfg)
	defer cleanup()

	ctx := context.Background()
	h.creditWallet(t, "user1", decimal.NewFromInt(1000))

	// Below the minimum custom order.
	_, err := h.coordinator.PurchaseWithLedger(ctx, "user1",
		Pricing{CustomCoins: 29},
		Credentials{TiktokUsername: "tikuser", TiktokPassword: "secret"})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("Expected ErrValidation below minimum, got %v", err)
	}

	result, err := h.coordinator.PurchaseWithLedger(ctx, "user1",
		Pricing{CustomCoins: 50},
		Credentials{TiktokUsername: "tikuser", TiktokPassword: "secret"})
	if err != nil {
		t.Fatalf("PurchaseWithLedger failed: %v", err)
	}
	// 50 coins at rate 10 is 500 CFA.
	if !result.NewBalance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected new balance 500, got %s", result.NewBalance.String())
	}

	txn, err := h.db.GetTransaction(ctx, result.TransactionId)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if !txn.RateUsed.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected rate 10 recorded, got %s", txn.RateUsed.String())
	}
}

func TestPurchase_InsufficientFunds(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	pkgId, err := h.catalog.Create(ctx, "Starter", 60, decimal.NewFromInt(600))
	if err != nil {
		t.Fatalf("Failed to create package: %v", err)
	}
	h.creditWallet(t, "user1", decimal.NewFromInt(500))

	_, err = h.coordinator.PurchaseWithLedger(ctx, "user1",
		Pricing{PackageId: pkgId},
		Credentials{TiktokUsername: "tikuser", TiktokPassword: "secret"})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	// No debit, no orphan transaction.
	if got := h.balance(t, "user1"); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected balance unchanged at 500, got %s", got.String())
	}
	history, err := h.db.GetUserHistory(ctx, "user1", 10, 0)
	if err != nil {
		t.Fatalf("GetUserHistory failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected no transactions, got %d", len(history))
	}
}

func TestRejectPurchase_RefundPolicy(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{RejectedPurchasePolicy: models.RejectedPurchaseRefund})
	defer cleanup()

	ctx := context.Background()
	h.creditWallet(t, "user1", decimal.NewFromInt(1000))

	result, err := h.coordinator.PurchaseWithLedger(ctx, "user1",
		Pricing{CustomCoins: 50},
		Credentials{TiktokUsername: "tikuser", TiktokPassword: "secret"})
	if err != nil {
		t.Fatalf("PurchaseWithLedger failed: %v", err)
	}

	if err := h.coordinator.ResolvePending(ctx, result.TransactionId, Reject("stock épuisé")); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	// The debit comes back.
	if got := h.balance(t, "user1"); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected refunded balance 1000, got %s", got.String())
	}
	txn, err := h.db.GetTransaction(ctx, result.TransactionId)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if txn.Status != models.StatusRejected {
		t.Errorf("Expected status rejected, got %s", txn.Status)
	}
	if txn.AdminNote != "stock épuisé" {
		t.Errorf("Expected admin note preserved, got %q", txn.AdminNote)
	}

	// Unlike recharges, a rejected purchase has no re-review path.
	err = h.coordinator.ResolvePending(ctx, result.TransactionId, CompletePurchaseDelivery())
	if !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Errorf("Expected ErrAlreadyProcessed completing a rejected purchase, got %v", err)
	}
}

func TestRejectPurchase_ForfeitPolicy(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{RejectedPurchasePolicy: models.RejectedPurchaseForfeit})
	defer cleanup()

	ctx := context.Background()
	h.creditWallet(t, "user1", decimal.NewFromInt(1000))

	result, err := h.coordinator.PurchaseWithLedger(ctx, "user1",
		Pricing{CustomCoins: 50},
		Credentials{TiktokUsername: "tikuser", TiktokPassword: "secret"})
	if err != nil {
		t.Fatalf("PurchaseWithLedger failed: %v", err)
	}

	if err := h.coordinator.ResolvePending(ctx, result.TransactionId, Reject("")); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	// Under forfeit the debit stays.
	if got := h.balance(t, "user1"); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected forfeited balance 500, got %s", got.String())
	}
}

func TestCompletePurchaseDelivery(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	h.creditWallet(t, "user1", decimal.NewFromInt(1000))

	result, err := h.coordinator.PurchaseWithLedger(ctx, "user1",
		Pricing{CustomCoins: 50},
		Credentials{TiktokUsername: "tikuser", TiktokPassword: "secret"})
	if err != nil {
		t.Fatalf("PurchaseWithLedger failed: %v", err)
	}

	if err := h.coordinator.ResolvePending(ctx, result.TransactionId, CompletePurchaseDelivery()); err != nil {
		t.Fatalf("Delivery completion failed: %v", err)
	}

	// Delivery never touches the wallet again.
	if got := h.balance(t, "user1"); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected balance 500, got %s", got.String())
	}

	st, err := h.db.GetPlatformStats(ctx)
	if err != nil {
		t.Fatalf("GetPlatformStats failed: %v", err)
	}
	if st.TotalCoinsSold != 50 {
		t.Errorf("Expected 50 coins sold, got %d", st.TotalCoinsSold)
	}
	if !st.TotalSalesVolume.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected sales volume 500, got %s", st.TotalSalesVolume.String())
	}

	// A rejected delivery afterwards must be refused.
	err = h.coordinator.ResolvePending(ctx, result.TransactionId, Reject(""))
	if !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Errorf("Expected ErrAlreadyProcessed, got %v", err)
	}
}

func TestResolvePending_KindMismatch(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	txnId, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(1000), "REF1", "TMoney")
	if err != nil {
		t.Fatalf("SubmitRecharge failed: %v", err)
	}

	err = h.coordinator.ResolvePending(ctx, txnId, CompletePurchaseDelivery())
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation for delivery on a recharge, got %v", err)
	}

	err = h.coordinator.ResolvePending(ctx, txnId, Decision{Action: "explode"})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation for unknown decision, got %v", err)
	}

	err = h.coordinator.ResolvePending(ctx, "missing", CompleteRecharge())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown transaction, got %v", err)
	}
}

func TestConfirmationCodeFlow(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	h.creditWallet(t, "user1", decimal.NewFromInt(1000))

	result, err := h.coordinator.PurchaseWithLedger(ctx, "user1",
		Pricing{CustomCoins: 50},
		Credentials{TiktokUsername: "tikuser", TiktokPassword: "secret"})
	if err != nil {
		t.Fatalf("PurchaseWithLedger failed: %v", err)
	}

	if err := h.coordinator.RequestConfirmationCode(ctx, result.TransactionId); err != nil {
		t.Fatalf("RequestConfirmationCode failed: %v", err)
	}
	txn, err := h.db.GetTransaction(ctx, result.TransactionId)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if !txn.RequiresCode {
		t.Error("Expected requires_code flag set")
	}

	// Only the owner can relay the code.
	err = h.coordinator.SubmitConfirmationCode(ctx, result.TransactionId, "123456", "intruder")
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for non-owner, got %v", err)
	}

	if err := h.coordinator.SubmitConfirmationCode(ctx, result.TransactionId, "123456", "user1"); err != nil {
		t.Fatalf("SubmitConfirmationCode failed: %v", err)
	}
	txn, err = h.db.GetTransaction(ctx, result.TransactionId)
	if err != nil {
		t.Fatalf("GetTransaction failed: %v", err)
	}
	if txn.ConfirmationCode != "123456" {
		t.Errorf("Expected stored code, got %q", txn.ConfirmationCode)
	}
	if txn.RequiresCode {
		t.Error("Expected requires_code cleared after submission")
	}
}

func TestRequestConfirmationCode_RechargeRefused(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	txnId, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(1000), "REF1", "TMoney")
	if err != nil {
		t.Fatalf("SubmitRecharge failed: %v", err)
	}

	err = h.coordinator.RequestConfirmationCode(ctx, txnId)
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation for a recharge, got %v", err)
	}
}

func TestAdjustBalance(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	balance, err := h.coordinator.AdjustBalance(ctx, "user1", decimal.NewFromInt(2000), "correction manuelle")
	if err != nil {
		t.Fatalf("AdjustBalance failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("Expected balance 2000, got %s", balance.String())
	}

	balance, err = h.coordinator.AdjustBalance(ctx, "user1", decimal.NewFromInt(-500), "")
	if err != nil {
		t.Fatalf("Negative adjustment failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected balance 1500, got %s", balance.String())
	}

	// The floor is zero.
	_, err = h.coordinator.AdjustBalance(ctx, "user1", decimal.NewFromInt(-2000), "")
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("Expected ErrValidation below zero, got %v", err)
	}
	if got := h.balance(t, "user1"); !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected balance unchanged at 1500, got %s", got.String())
	}

	_, err = h.coordinator.AdjustBalance(ctx, "user1", decimal.Zero, "")
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation for zero delta, got %v", err)
	}
}

func TestConcurrentResolve_ExactlyOneWins(t *testing.T) {
	h, cleanup := setupCoordinatorTest(t, models.ReconConfig{})
	defer cleanup()

	ctx := context.Background()
	h.seedPayment(t, "REF1", decimal.NewFromInt(5000))
	txnId, err := h.coordinator.SubmitRecharge(ctx, "user1", decimal.NewFromInt(5000), "REF1", "TMoney")
	if err != nil {
		t.Fatalf("SubmitRecharge failed: %v", err)
	}

	const workers = 4
	results := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = h.coordinator.ResolvePending(ctx, txnId, CompleteRecharge())
		}(i)
	}
	wg.Wait()

	var successes, alreadyProcessed int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, store.ErrAlreadyProcessed):
			alreadyProcessed++
		default:
			t.Errorf("Unexpected resolution error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("Expected exactly one successful resolution, got %d", successes)
	}
	if alreadyProcessed != workers-1 {
		t.Errorf("Expected %d ErrAlreadyProcessed, got %d", workers-1, alreadyProcessed)
	}

	// The credit happened exactly once.
	if got := h.balance(t, "user1"); !got.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Expected balance 5000, got %s", got.String())
	}
}
