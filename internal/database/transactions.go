package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tikflow-ledger-go/internal/models"
	"tikflow-ledger-go/internal/store"

	"go.uber.org/zap"
)

// GetTransaction returns a transaction by id.
func (s *Service) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	txn, err := scanTransaction(s.db.QueryRowContext(ctx, queryGetTransaction, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetUserHistory returns paginated transaction history for a user.
func (s *Service) GetUserHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	return s.queryTransactions(ctx, queryGetUserHistory, userId, limit, offset)
}

// GetPendingTransactions returns all transactions awaiting review.
func (s *Service) GetPendingTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, queryGetPendingTransactions)
}

// GetAllTransactions returns the most recent transactions across all users.
func (s *Service) GetAllTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, queryGetAllTransactions, limit)
}

// GetTransactionsSince returns transactions created at or after the cutoff.
func (s *Service) GetTransactionsSince(ctx context.Context, cutoff time.Time) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, queryGetTransactionsSince, cutoff)
}

// CountTransactionsByStatus returns the number of transactions in a status.
func (s *Service) CountTransactionsByStatus(ctx context.Context, status string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountTransactionsByStatus, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (s *Service) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}
