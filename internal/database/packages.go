package database

import (
	"context"
	"database/sql"
	"fmt"

	"tikflow-ledger-go/internal/models"
	"tikflow-ledger-go/internal/store"

	"go.uber.org/zap"
)

// InsertPackage stores a new catalog entry.
func (s *Service) InsertPackage(ctx context.Context, pkg *models.CoinPackage) error {
	active := 0
	if pkg.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, queryInsertPackage,
		pkg.Id, pkg.Name, pkg.Coins, pkg.Price.String(), active,
		pkg.CreatedAt, pkg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert package: %w", err)
	}
	return nil
}

// GetPackage returns a catalog entry by id.
func (s *Service) GetPackage(ctx context.Context, id string) (*models.CoinPackage, error) {
	pkg, err := scanPackage(s.db.QueryRowContext(ctx, queryGetPackage, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: package %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return pkg, nil
}

// ListPackages returns catalog entries, optionally restricted to active ones.
func (s *Service) ListPackages(ctx context.Context, activeOnly bool) ([]models.CoinPackage, error) {
	query := queryListPackages
	if activeOnly {
		query = queryListActivePackages
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var packages []models.CoinPackage
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, *pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package rows: %w", err)
	}
	return packages, nil
}

// UpdatePackage writes the full enumerated field set of a catalog entry.
func (s *Service) UpdatePackage(ctx context.Context, pkg *models.CoinPackage) error {
	active := 0
	if pkg.Active {
		active = 1
	}
	result, err := s.db.ExecContext(ctx, queryUpdatePackage,
		pkg.Name, pkg.Coins, pkg.Price.String(), active, pkg.Id)
	if err != nil {
		return fmt.Errorf("failed to update package: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: package %s", store.ErrNotFound, pkg.Id)
	}
	return nil
}
