package database

import (
	"context"
	"database/sql"
	"fmt"

	"tikflow-ledger-go/internal/models"

	"go.uber.org/zap"
)

// GetReceivedPayments returns the most recent inbound payment records.
func (s *Service) GetReceivedPayments(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	rows, err := s.db.QueryContext(ctx, queryGetReceivedPayments, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query received payments: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var payments []models.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment record: %w", err)
		}
		payments = append(payments, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}

// GetPaymentByRef returns the payment record carrying the reference, in
// any status, or nil when none exists. Used as review evidence.
func (s *Service) GetPaymentByRef(ctx context.Context, refId string) (*models.PaymentRecord, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx, queryGetPaymentByRef, refId))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return p, nil
}
