package stats

import (
	"context"
	"fmt"
	"time"

	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Aggregator maintains the platform running aggregate. ApplyCompletion
// is the single entry point and is invoked only from inside the
// coordinator's atomic unit, at the moment a transaction becomes
// completed. The aggregate row's version check serializes concurrent
// completions through the same optimistic discipline as everything else.
type Aggregator struct {
	db *database.Service
}

func NewAggregator(db *database.Service) *Aggregator {
	return &Aggregator{db: db}
}

// MonthKey returns the calendar-month bucket key ("2026-09") for a time.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ApplyCompletion folds a just-completed transaction into the global
// aggregate and the current month's bucket.
func (a *Aggregator) ApplyCompletion(ctx context.Context, u *database.Unit, txn *models.Transaction, now time.Time) error {
	st, err := u.GetStats(ctx)
	if err != nil {
		return err
	}

	month := MonthKey(now)
	ms, msVersion, msFound, err := u.GetMonthlyStat(ctx, month)
	if err != nil {
		return err
	}

	switch txn.Kind {
	case models.KindRecharge:
		// Money in: deposits grow, so does the aggregate user balance.
		st.TotalDeposits = st.TotalDeposits.Add(txn.Amount)
		st.TotalUsersBalance = st.TotalUsersBalance.Add(txn.Amount)
		st.TotalTransactions++

		ms.Deposits = ms.Deposits.Add(txn.Amount)
		ms.Transactions++

	case models.KindPurchase:
		cost := txn.CostAmount
		profit := txn.Amount.Sub(cost)

		st.TotalSalesVolume = st.TotalSalesVolume.Add(txn.Amount)
		st.TotalCost = st.TotalCost.Add(cost)
		st.TotalProfit = st.TotalProfit.Add(profit)
		st.TotalCoinsSold += txn.Coins
		// The sale was paid from the wallet, so the aggregate user
		// balance shrinks by the sale amount.
		st.TotalUsersBalance = st.TotalUsersBalance.Sub(txn.Amount)
		st.TotalTransactions++

		ms.Sales = ms.Sales.Add(txn.Amount)
		ms.Cost = ms.Cost.Add(cost)
		ms.Profit = ms.Profit.Add(profit)
		ms.Transactions++

	default:
		return fmt.Errorf("unknown transaction kind %q", txn.Kind)
	}

	if st.TotalTransactions > 0 {
		st.AverageTransactionValue = st.TotalSalesVolume.
			Div(decimal.NewFromInt(st.TotalTransactions)).Round(2)
	} else {
		st.AverageTransactionValue = decimal.Zero
	}

	if err := u.UpdateStats(ctx, st); err != nil {
		return err
	}

	if msFound {
		if err := u.UpdateMonthlyStat(ctx, ms, msVersion); err != nil {
			return err
		}
	} else if err := u.InsertMonthlyStat(ctx, ms); err != nil {
		return err
	}

	zap.L().Debug("Applied stats delta",
		zap.String("transaction_id", txn.Id),
		zap.String("kind", txn.Kind),
		zap.String("month", month))
	return nil
}

// Get returns the current aggregate including monthly buckets.
func (a *Aggregator) Get(ctx context.Context) (*models.PlatformStats, error) {
	return a.db.GetPlatformStats(ctx)
}
