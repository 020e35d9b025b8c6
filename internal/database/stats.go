package database

import (
	"context"
	"database/sql"
	"fmt"

	"tikflow-ledger-go/internal/models"

	"go.uber.org/zap"
)

// GetPlatformStats returns the aggregate plus every monthly bucket.
func (s *Service) GetPlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	st, err := scanStats(s.db.QueryRowContext(ctx, queryGetStats))
	if err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryGetAllMonthlyStats)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly stats: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	st.Monthly = make(map[string]models.MonthlyStat)
	for rows.Next() {
		ms, _, err := scanMonthlyStat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monthly stats: %w", err)
		}
		st.Monthly[ms.Month] = *ms
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly stats rows: %w", err)
	}
	return st, nil
}
