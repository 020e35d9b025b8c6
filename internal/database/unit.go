package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tikflow-ledger-go/internal/models"
	"tikflow-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

// Unit is one atomic read-validate-write set. Every read returns the row
// version it observed; every write carries that version back and fails
// with store.ErrConcurrentModification if the row moved in between. A
// failed write aborts the whole unit, so either every step commits or
// none of it is observable.
type Unit struct {
	tx *sql.Tx
}

// RunUnit executes fn inside a single database transaction. The
// transaction takes the write lock up front (txlock=immediate), so units
// serialize against each other; the version checks remain the backstop
// against anything that slipped between read and write.
func (s *Service) RunUnit(ctx context.Context, fn func(u *Unit) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin atomic unit: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Unit{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit atomic unit: %w", err)
	}
	return nil
}

// --- Transactions ---

func (u *Unit) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	row := u.tx.QueryRowContext(ctx, queryGetTransaction, id)
	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction: %w", err)
	}
	return txn, nil
}

func (u *Unit) TransactionRefExists(ctx context.Context, refId string) (bool, error) {
	var id string
	err := u.tx.QueryRowContext(ctx, queryCheckTransactionRef, refId).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check reference uniqueness: %w", err)
	}
	return true, nil
}

func (u *Unit) CountPendingForUser(ctx context.Context, userId string) (int, error) {
	var count int
	if err := u.tx.QueryRowContext(ctx, queryCountPendingForUser, userId).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending transactions: %w", err)
	}
	return count, nil
}

func (u *Unit) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	requiresCode := 0
	if txn.RequiresCode {
		requiresCode = 1
	}
	_, err := u.tx.ExecContext(ctx, queryInsertTransaction,
		txn.Id, txn.UserId, txn.Kind, txn.Amount.String(), txn.Coins,
		txn.PaymentMethod, txn.RefId, txn.Status, txn.AdminNote, requiresCode,
		txn.ConfirmationCode, txn.RateUsed.String(), txn.CostAmount.String(),
		txn.TiktokUsername, txn.TiktokPassword, txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// UpdateTransactionStatus moves a transaction to a new status using the
// version read earlier in the same unit.
func (u *Unit) UpdateTransactionStatus(ctx context.Context, id, status, adminNote string, version int64) error {
	result, err := u.tx.ExecContext(ctx, queryUpdateTransactionStatus, status, adminNote, id, version)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	return checkAffected(result, "transaction", id)
}

func (u *Unit) RequestTransactionCode(ctx context.Context, id string, version int64) error {
	result, err := u.tx.ExecContext(ctx, queryRequestTransactionCode, id, version)
	if err != nil {
		return fmt.Errorf("failed to flag transaction for code: %w", err)
	}
	return checkAffected(result, "transaction", id)
}

func (u *Unit) SetTransactionCode(ctx context.Context, id, code string, version int64) error {
	result, err := u.tx.ExecContext(ctx, querySetTransactionCode, code, id, version)
	if err != nil {
		return fmt.Errorf("failed to store confirmation code: %w", err)
	}
	return checkAffected(result, "transaction", id)
}

// --- Wallets ---

// GetWallet returns the user's wallet, creating it lazily with a zero
// balance on first access.
func (u *Unit) GetWallet(ctx context.Context, userId string) (*models.Wallet, error) {
	wallet := &models.Wallet{UserId: userId}
	var balanceStr string
	err := u.tx.QueryRowContext(ctx, queryGetWallet, userId).
		Scan(&wallet.UserId, &balanceStr, &wallet.Version, &wallet.UpdatedAt)
	if err == sql.ErrNoRows {
		if _, err := u.tx.ExecContext(ctx, queryInsertWallet, userId, "0"); err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
		wallet.Balance = decimal.Zero
		wallet.Version = 1
		wallet.UpdatedAt = time.Now()
		return wallet, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet: %w", err)
	}

	wallet.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	return wallet, nil
}

func (u *Unit) UpdateWalletBalance(ctx context.Context, userId string, newBalance decimal.Decimal, version int64) error {
	result, err := u.tx.ExecContext(ctx, queryUpdateWalletBalance, newBalance.String(), userId, version)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}
	return checkAffected(result, "wallet", userId)
}

// --- Payment records ---

func (u *Unit) PaymentRefExists(ctx context.Context, refId string) (bool, error) {
	var id string
	err := u.tx.QueryRowContext(ctx, queryCheckPaymentRef, refId).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check payment reference: %w", err)
	}
	return true, nil
}

func (u *Unit) InsertPayment(ctx context.Context, p *models.PaymentRecord) error {
	_, err := u.tx.ExecContext(ctx, queryInsertPayment,
		p.Id, p.RefId, p.Amount.String(), p.Sender, p.RawText, p.ParsedText,
		p.Status, p.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment record: %w", err)
	}
	return nil
}

func (u *Unit) GetUnusedPaymentByRef(ctx context.Context, refId string) (*models.PaymentRecord, error) {
	row := u.tx.QueryRowContext(ctx, queryGetUnusedPaymentByRef, refId)
	payment, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: ref %s", store.ErrPaymentNotFound, refId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payment record: %w", err)
	}
	return payment, nil
}

func (u *Unit) MarkPaymentUsed(ctx context.Context, id string, version int64) error {
	result, err := u.tx.ExecContext(ctx, queryMarkPaymentUsed, id, version)
	if err != nil {
		return fmt.Errorf("failed to mark payment used: %w", err)
	}
	return checkAffected(result, "payment", id)
}

// --- Notifications ---

func (u *Unit) InsertNotification(ctx context.Context, n *models.Notification) error {
	_, err := u.tx.ExecContext(ctx, queryInsertNotification,
		n.Id, n.UserId, n.Title, n.Message, n.Type, n.Link, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}
	return nil
}

// --- Platform stats ---

func (u *Unit) GetStats(ctx context.Context) (*models.PlatformStats, error) {
	st, err := scanStats(u.tx.QueryRowContext(ctx, queryGetStats))
	if err != nil {
		return nil, fmt.Errorf("failed to read platform stats: %w", err)
	}
	return st, nil
}

func (u *Unit) UpdateStats(ctx context.Context, st *models.PlatformStats) error {
	result, err := u.tx.ExecContext(ctx, queryUpdateStats,
		st.TotalDeposits.String(), st.TotalSalesVolume.String(),
		st.TotalCost.String(), st.TotalProfit.String(),
		st.TotalCoinsSold, st.TotalTransactions,
		st.TotalUsersBalance.String(), st.AverageTransactionValue.String(),
		st.Version)
	if err != nil {
		return fmt.Errorf("failed to update platform stats: %w", err)
	}
	return checkAffected(result, "platform_stats", "main")
}

// GetMonthlyStat returns the bucket for the given month, or a zeroed
// bucket with found=false when the month has no entries yet.
func (u *Unit) GetMonthlyStat(ctx context.Context, month string) (*models.MonthlyStat, int64, bool, error) {
	ms, version, err := scanMonthlyStat(u.tx.QueryRowContext(ctx, queryGetMonthlyStat, month))
	if err == sql.ErrNoRows {
		return &models.MonthlyStat{
			Month:    month,
			Deposits: decimal.Zero,
			Sales:    decimal.Zero,
			Cost:     decimal.Zero,
			Profit:   decimal.Zero,
		}, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read monthly stats: %w", err)
	}
	return ms, version, true, nil
}

func (u *Unit) InsertMonthlyStat(ctx context.Context, ms *models.MonthlyStat) error {
	_, err := u.tx.ExecContext(ctx, queryInsertMonthlyStat,
		ms.Month, ms.Deposits.String(), ms.Sales.String(), ms.Cost.String(),
		ms.Profit.String(), ms.Transactions)
	if err != nil {
		return fmt.Errorf("failed to insert monthly stats: %w", err)
	}
	return nil
}

func (u *Unit) UpdateMonthlyStat(ctx context.Context, ms *models.MonthlyStat, version int64) error {
	result, err := u.tx.ExecContext(ctx, queryUpdateMonthlyStat,
		ms.Deposits.String(), ms.Sales.String(), ms.Cost.String(),
		ms.Profit.String(), ms.Transactions, ms.Month, version)
	if err != nil {
		return fmt.Errorf("failed to update monthly stats: %w", err)
	}
	return checkAffected(result, "monthly_stats", ms.Month)
}

func checkAffected(result sql.Result, entity, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %s write failed - %w", entity, id, store.ErrConcurrentModification)
	}
	return nil
}
