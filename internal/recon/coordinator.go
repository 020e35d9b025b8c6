package recon

import (
	"context"
	"fmt"
	"time"

	"tikflow-ledger-go/internal/catalog"
	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/models"
	"tikflow-ledger-go/internal/notify"
	"tikflow-ledger-go/internal/stats"
	"tikflow-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Coordinator orchestrates every cross-entity state change: submission,
// purchase, resolution and rejection all run as single atomic units, so
// no failure path leaves a partial debit, an orphaned transaction or a
// stats drift behind.
type Coordinator struct {
	db      *database.Service
	catalog *catalog.Service
	stats   *stats.Aggregator
	sink    *notify.Sink
	cfg     models.ReconConfig
}

func NewCoordinator(db *database.Service, cat *catalog.Service, agg *stats.Aggregator, sink *notify.Sink, cfg models.ReconConfig) *Coordinator {
	if cfg.MaxPendingPerUser <= 0 {
		cfg.MaxPendingPerUser = 3
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 25 * time.Millisecond
	}
	if cfg.RejectedPurchasePolicy == "" {
		cfg.RejectedPurchasePolicy = models.RejectedPurchaseRefund
	}
	if cfg.CoinRate.IsZero() {
		cfg.CoinRate = decimal.NewFromInt(10)
	}
	if cfg.MinCustomCoins <= 0 {
		cfg.MinCustomCoins = 30
	}
	return &Coordinator{db: db, catalog: cat, stats: agg, sink: sink, cfg: cfg}
}

// SubmitRecharge records a user's claim that a mobile-money payment with
// the given reference was made. The claim stays pending until an admin
// matches it against a received payment.
func (c *Coordinator) SubmitRecharge(ctx context.Context, userId string, amount decimal.Decimal, refId, method string) (string, error) {
	if userId == "" || refId == "" || method == "" {
		return "", fmt.Errorf("%w: user, reference and payment method are required", store.ErrValidation)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: amount must be positive", store.ErrValidation)
	}

	txnId := uuid.New().String()
	err := c.runUnit(ctx, "submit recharge", func(u *database.Unit) error {
		exists, err := u.TransactionRefExists(ctx, refId)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: reference %s already submitted", store.ErrDuplicateReference, refId)
		}

		pending, err := u.CountPendingForUser(ctx, userId)
		if err != nil {
			return err
		}
		if pending >= c.cfg.MaxPendingPerUser {
			return fmt.Errorf("%w: %d pending requests", store.ErrRateLimited, pending)
		}

		now := time.Now()
		txn := &models.Transaction{
			Id:            txnId,
			UserId:        userId,
			Kind:          models.KindRecharge,
			Amount:        amount,
			PaymentMethod: method,
			RefId:         refId,
			Status:        models.StatusPending,
			RateUsed:      decimal.Zero,
			CostAmount:    decimal.Zero,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := u.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		return c.sink.QueueInUnit(ctx, u, notify.AdminAlert(
			"Nouvelle demande de recharge 💰",
			fmt.Sprintf("L'utilisateur %s a soumis une preuve de recharge de %s CFA.", userId, amount),
			models.NotifPaymentReceived,
			"/admin/transactions/"+txnId))
	})
	if err != nil {
		return "", err
	}

	zap.L().Info("Recharge submitted",
		zap.String("transaction_id", txnId),
		zap.String("user_id", userId),
		zap.String("ref_id", refId),
		zap.String("amount", amount.String()))
	return txnId, nil
}

// Pricing selects how a purchase is priced: a catalog package, or a
// custom coin count billed at the configured per-coin rate.
type Pricing struct {
	PackageId   string
	CustomCoins int64
}

// Credentials carry the delivery target for a coin purchase.
type Credentials struct {
	TiktokUsername string
	TiktokPassword string
}

// PurchaseResult reports the created transaction and the balance after
// the debit.
type PurchaseResult struct {
	TransactionId string
	NewBalance    decimal.Decimal
	Coins         int64
}

// PurchaseWithLedger debits the wallet and creates a pending purchase
// transaction in one unit. A crash or conflict between the debit and the
// insert leaves neither effect visible.
func (c *Coordinator) PurchaseWithLedger(ctx context.Context, userId string, pricing Pricing, creds Credentials) (PurchaseResult, error) {
	if userId == "" || creds.TiktokUsername == "" || creds.TiktokPassword == "" {
		return PurchaseResult{}, fmt.Errorf("%w: user and delivery credentials are required", store.ErrValidation)
	}

	// Price resolution happens before the unit: a catalog miss must not
	// touch ledger state.
	var (
		price    decimal.Decimal
		coins    int64
		rateUsed = decimal.Zero
		err      error
	)
	switch {
	case pricing.PackageId != "":
		price, coins, err = c.catalog.GetPrice(ctx, pricing.PackageId)
		if err != nil {
			return PurchaseResult{}, err
		}
	case pricing.CustomCoins > 0:
		if pricing.CustomCoins < c.cfg.MinCustomCoins {
			return PurchaseResult{}, fmt.Errorf("%w: minimum custom order is %d coins", store.ErrValidation, c.cfg.MinCustomCoins)
		}
		coins = pricing.CustomCoins
		rateUsed = c.cfg.CoinRate
		price = rateUsed.Mul(decimal.NewFromInt(coins))
	default:
		return PurchaseResult{}, fmt.Errorf("%w: either a package id or a custom coin count is required", store.ErrValidation)
	}

	txnId := uuid.New().String()
	refId := "WALLET_" + uuid.New().String()
	var result PurchaseResult

	err = c.runUnit(ctx, "purchase with ledger", func(u *database.Unit) error {
		wallet, err := u.GetWallet(ctx, userId)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(price) {
			return fmt.Errorf("%w: missing %s CFA", store.ErrInsufficientFunds, price.Sub(wallet.Balance))
		}

		newBalance := wallet.Balance.Sub(price)
		if err := u.UpdateWalletBalance(ctx, userId, newBalance, wallet.Version); err != nil {
			return err
		}

		now := time.Now()
		txn := &models.Transaction{
			Id:             txnId,
			UserId:         userId,
			Kind:           models.KindPurchase,
			Amount:         price,
			Coins:          coins,
			PaymentMethod:  "wallet",
			RefId:          refId,
			Status:         models.StatusPending,
			RateUsed:       rateUsed,
			CostAmount:     decimal.Zero,
			TiktokUsername: creds.TiktokUsername,
			TiktokPassword: creds.TiktokPassword,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := u.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		if err := c.sink.QueueInUnit(ctx, u, notify.AdminAlert(
			"Nouvelle commande TikTok 🚀",
			fmt.Sprintf("L'utilisateur %s a commandé %d coins pour le compte %s.", userId, coins, creds.TiktokUsername),
			models.NotifOrderDelivered,
			"/admin/orders/"+txnId)); err != nil {
			return err
		}

		result = PurchaseResult{TransactionId: txnId, NewBalance: newBalance, Coins: coins}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	zap.L().Info("Purchase created",
		zap.String("transaction_id", txnId),
		zap.String("user_id", userId),
		zap.Int64("coins", coins),
		zap.String("price", price.String()),
		zap.String("new_balance", result.NewBalance.String()))
	return result, nil
}

// Resolution decisions.
const (
	ActionCompleteRecharge         = "complete_recharge"
	ActionCompletePurchaseDelivery = "complete_purchase_delivery"
	ActionReject                   = "reject"
)

// Decision selects how a pending transaction is resolved.
type Decision struct {
	Action string
	Note   string
}

func CompleteRecharge() Decision         { return Decision{Action: ActionCompleteRecharge} }
func CompletePurchaseDelivery() Decision { return Decision{Action: ActionCompletePurchaseDelivery} }
func Reject(note string) Decision        { return Decision{Action: ActionReject, Note: note} }

// ResolvePending applies an admin decision to a transaction. Every
// branch re-reads the transaction inside the unit, so two concurrent
// resolutions of the same id settle into exactly one success and one
// ErrAlreadyProcessed.
func (c *Coordinator) ResolvePending(ctx context.Context, txnId string, decision Decision) error {
	switch decision.Action {
	case ActionCompleteRecharge, ActionCompletePurchaseDelivery, ActionReject:
	default:
		return fmt.Errorf("%w: unknown decision %q", store.ErrValidation, decision.Action)
	}

	err := c.runUnit(ctx, "resolve pending", func(u *database.Unit) error {
		txn, err := u.GetTransaction(ctx, txnId)
		if err != nil {
			return err
		}

		switch decision.Action {
		case ActionCompleteRecharge:
			return c.completeRecharge(ctx, u, txn, decision.Note)
		case ActionCompletePurchaseDelivery:
			return c.completePurchaseDelivery(ctx, u, txn, decision.Note)
		default:
			return c.reject(ctx, u, txn, decision.Note)
		}
	})
	if err != nil {
		return err
	}

	zap.L().Info("Transaction resolved",
		zap.String("transaction_id", txnId),
		zap.String("decision", decision.Action))
	return nil
}

func (c *Coordinator) completeRecharge(ctx context.Context, u *database.Unit, txn *models.Transaction, note string) error {
	if txn.Kind != models.KindRecharge {
		return fmt.Errorf("%w: transaction %s is not a recharge", store.ErrValidation, txn.Id)
	}
	// Rejected recharges may be re-reviewed and completed later.
	if txn.Status != models.StatusPending && txn.Status != models.StatusRejected {
		return fmt.Errorf("%w: transaction %s is %s", store.ErrAlreadyProcessed, txn.Id, txn.Status)
	}

	payment, err := u.GetUnusedPaymentByRef(ctx, txn.RefId)
	if err != nil {
		return err
	}
	if payment.Amount.LessThan(txn.Amount) {
		return fmt.Errorf("%w: payment %s < claimed %s", store.ErrAmountMismatch, payment.Amount, txn.Amount)
	}

	if err := u.MarkPaymentUsed(ctx, payment.Id, payment.Version); err != nil {
		return err
	}

	wallet, err := u.GetWallet(ctx, txn.UserId)
	if err != nil {
		return err
	}
	if err := u.UpdateWalletBalance(ctx, txn.UserId, wallet.Balance.Add(txn.Amount), wallet.Version); err != nil {
		return err
	}

	if note == "" {
		note = "Validé par l'administrateur"
	}
	if err := u.UpdateTransactionStatus(ctx, txn.Id, models.StatusCompleted, note, txn.Version); err != nil {
		return err
	}

	if err := c.stats.ApplyCompletion(ctx, u, txn, time.Now()); err != nil {
		return err
	}

	return c.sink.QueueInUnit(ctx, u, models.Notification{
		UserId:  txn.UserId,
		Title:   "Compte Crédité ! 🎉",
		Message: fmt.Sprintf("Votre recharge de %s CFA a été validée. Votre solde est à jour.", txn.Amount),
		Type:    models.NotifRechargeSuccess,
	})
}

func (c *Coordinator) completePurchaseDelivery(ctx context.Context, u *database.Unit, txn *models.Transaction, note string) error {
	if txn.Kind != models.KindPurchase {
		return fmt.Errorf("%w: transaction %s is not a purchase", store.ErrValidation, txn.Id)
	}
	if txn.Status != models.StatusPending {
		return fmt.Errorf("%w: transaction %s is %s", store.ErrAlreadyProcessed, txn.Id, txn.Status)
	}

	// The wallet was already debited at creation time; delivery only
	// flips the status and folds the sale into the aggregate.
	if note == "" {
		note = "Validé par l'administrateur"
	}
	if err := u.UpdateTransactionStatus(ctx, txn.Id, models.StatusCompleted, note, txn.Version); err != nil {
		return err
	}

	if err := c.stats.ApplyCompletion(ctx, u, txn, time.Now()); err != nil {
		return err
	}

	return c.sink.QueueInUnit(ctx, u, models.Notification{
		UserId:  txn.UserId,
		Title:   "Transaction Validée ! 🎉",
		Message: fmt.Sprintf("Votre compte est bien rechargé avec les %d coins TikTok. 🎉", txn.Coins),
		Type:    models.NotifOrderDelivered,
	})
}

func (c *Coordinator) reject(ctx context.Context, u *database.Unit, txn *models.Transaction, note string) error {
	if txn.Status != models.StatusPending {
		return fmt.Errorf("%w: transaction %s is %s", store.ErrAlreadyProcessed, txn.Id, txn.Status)
	}

	// Purchases debited the wallet at submission time. What happens to
	// that debit on rejection is an explicit policy, not an accident.
	if txn.Kind == models.KindPurchase && c.cfg.RejectedPurchasePolicy == models.RejectedPurchaseRefund {
		wallet, err := u.GetWallet(ctx, txn.UserId)
		if err != nil {
			return err
		}
		if err := u.UpdateWalletBalance(ctx, txn.UserId, wallet.Balance.Add(txn.Amount), wallet.Version); err != nil {
			return err
		}
		zap.L().Info("Refunded rejected purchase",
			zap.String("transaction_id", txn.Id),
			zap.String("user_id", txn.UserId),
			zap.String("amount", txn.Amount.String()))
	}

	if note == "" {
		note = "Refusé par l'administration"
	}
	if err := u.UpdateTransactionStatus(ctx, txn.Id, models.StatusRejected, note, txn.Version); err != nil {
		return err
	}

	return c.sink.QueueInUnit(ctx, u, models.Notification{
		UserId:  txn.UserId,
		Title:   "Demande Refusée ❌",
		Message: fmt.Sprintf("Votre demande de %s CFA a été refusée. Motif : %s", txn.Amount, note),
		Type:    models.NotifWarning,
	})
}

// RequestConfirmationCode flags a purchase as waiting on a second-factor
// code and asks the user to relay it. No ledger or stats change.
func (c *Coordinator) RequestConfirmationCode(ctx context.Context, txnId string) error {
	return c.runUnit(ctx, "request confirmation code", func(u *database.Unit) error {
		txn, err := u.GetTransaction(ctx, txnId)
		if err != nil {
			return err
		}
		if txn.Kind != models.KindPurchase {
			return fmt.Errorf("%w: transaction %s is not a purchase", store.ErrValidation, txnId)
		}

		if err := u.RequestTransactionCode(ctx, txnId, txn.Version); err != nil {
			return err
		}

		return c.sink.QueueInUnit(ctx, u, models.Notification{
			UserId:  txn.UserId,
			Title:   "Code Gmail Requis 📧",
			Message: fmt.Sprintf("TikTok a envoyé un code de confirmation à votre compte Google (%s). Veuillez le transmettre à l'administrateur rapidement.", txn.TiktokUsername),
			Type:    models.NotifWarning,
			Link:    fmt.Sprintf("/dashboard/orders/%s/submit-code", txnId),
		})
	})
}

// SubmitConfirmationCode stores the code relayed by the transaction's
// owner and alerts the admin side. No ledger or stats change.
func (c *Coordinator) SubmitConfirmationCode(ctx context.Context, txnId, code, userId string) error {
	if code == "" {
		return fmt.Errorf("%w: confirmation code is required", store.ErrValidation)
	}

	return c.runUnit(ctx, "submit confirmation code", func(u *database.Unit) error {
		txn, err := u.GetTransaction(ctx, txnId)
		if err != nil {
			return err
		}
		if txn.UserId != userId {
			return fmt.Errorf("%w: transaction %s does not belong to %s", store.ErrForbidden, txnId, userId)
		}

		if err := u.SetTransactionCode(ctx, txnId, code, txn.Version); err != nil {
			return err
		}

		return c.sink.QueueInUnit(ctx, u, notify.AdminAlert(
			"Nouveau Code Reçu 🔑",
			fmt.Sprintf("L'utilisateur %s a transmis le code de confirmation pour la commande %s.", userId, txnId),
			models.NotifSystemAlert,
			"/admin/orders/"+txnId))
	})
}

// AdjustBalance is the audited administrative balance correction. It
// runs with the same unit discipline as reconciliation flows but sits
// outside them; the delta may be negative, the floor is zero.
func (c *Coordinator) AdjustBalance(ctx context.Context, userId string, delta decimal.Decimal, note string) (decimal.Decimal, error) {
	if userId == "" || delta.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: user and non-zero delta are required", store.ErrValidation)
	}

	var newBalance decimal.Decimal
	err := c.runUnit(ctx, "adjust balance", func(u *database.Unit) error {
		wallet, err := u.GetWallet(ctx, userId)
		if err != nil {
			return err
		}

		newBalance = wallet.Balance.Add(delta)
		if newBalance.IsNegative() {
			return fmt.Errorf("%w: adjustment would leave balance at %s", store.ErrValidation, newBalance)
		}
		if err := u.UpdateWalletBalance(ctx, userId, newBalance, wallet.Version); err != nil {
			return err
		}

		// The adjustment leaves an audit record next to the log line.
		return c.sink.QueueInUnit(ctx, u, notify.AdminAlert(
			"Ajustement de solde",
			fmt.Sprintf("Solde de %s ajusté de %s CFA (nouveau solde %s). %s", userId, delta, newBalance, note),
			models.NotifSystemAlert,
			"/admin/users/"+userId))
	})
	if err != nil {
		return decimal.Zero, err
	}

	zap.L().Info("Admin balance adjustment",
		zap.String("user_id", userId),
		zap.String("delta", delta.String()),
		zap.String("new_balance", newBalance.String()),
		zap.String("note", note))
	return newBalance, nil
}
