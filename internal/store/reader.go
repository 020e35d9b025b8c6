package store

import (
	"context"

	"tikflow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Reader defines the read-only accessors the boundary layer consumes.
// These carry no concurrency hazard; every mutation goes through the
// coordinator's atomic units instead.
type Reader interface {
	GetWalletBalance(ctx context.Context, userId string) (decimal.Decimal, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	GetUserHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
	GetPendingTransactions(ctx context.Context) ([]models.Transaction, error)
	GetReceivedPayments(ctx context.Context, limit int) ([]models.PaymentRecord, error)
	GetPlatformStats(ctx context.Context) (*models.PlatformStats, error)
}
