package catalog

import (
	"context"
	"fmt"
	"time"

	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/models"
	"tikflow-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service manages the coin package catalog. Catalog reads feed the
// coordinator's purchase pricing; they happen before the atomic unit so
// a catalog failure can never corrupt ledger state.
type Service struct {
	db *database.Service
}

func NewService(db *database.Service) *Service {
	return &Service{db: db}
}

// Update lists the mutable fields of a package. Nil means keep the
// current value; anything not listed here cannot be patched.
type Update struct {
	Name   *string
	Coins  *int64
	Price  *decimal.Decimal
	Active *bool
}

// Create adds a new active package to the catalog.
func (s *Service) Create(ctx context.Context, name string, coins int64, price decimal.Decimal) (string, error) {
	if name == "" || coins <= 0 || !price.IsPositive() {
		return "", fmt.Errorf("%w: package needs a name, positive coins and positive price", store.ErrValidation)
	}

	now := time.Now()
	pkg := &models.CoinPackage{
		Id:        uuid.New().String(),
		Name:      name,
		Coins:     coins,
		Price:     price,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.InsertPackage(ctx, pkg); err != nil {
		return "", err
	}

	zap.L().Info("Package created",
		zap.String("package_id", pkg.Id),
		zap.String("name", name),
		zap.Int64("coins", coins),
		zap.String("price", price.String()))
	return pkg.Id, nil
}

// GetByID returns one package.
func (s *Service) GetByID(ctx context.Context, id string) (*models.CoinPackage, error) {
	return s.db.GetPackage(ctx, id)
}

// GetPrice resolves a package id to its price and coin count.
func (s *Service) GetPrice(ctx context.Context, id string) (decimal.Decimal, int64, error) {
	pkg, err := s.db.GetPackage(ctx, id)
	if err != nil {
		return decimal.Zero, 0, err
	}
	if !pkg.Active {
		return decimal.Zero, 0, fmt.Errorf("%w: package %s is inactive", store.ErrNotFound, id)
	}
	return pkg.Price, pkg.Coins, nil
}

// List returns packages, optionally only active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]models.CoinPackage, error) {
	return s.db.ListPackages(ctx, activeOnly)
}

// ApplyUpdate patches the enumerated mutable fields of a package.
func (s *Service) ApplyUpdate(ctx context.Context, id string, update Update) error {
	pkg, err := s.db.GetPackage(ctx, id)
	if err != nil {
		return err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return fmt.Errorf("%w: package name cannot be empty", store.ErrValidation)
		}
		pkg.Name = *update.Name
	}
	if update.Coins != nil {
		if *update.Coins <= 0 {
			return fmt.Errorf("%w: coins must be positive", store.ErrValidation)
		}
		pkg.Coins = *update.Coins
	}
	if update.Price != nil {
		if !update.Price.IsPositive() {
			return fmt.Errorf("%w: price must be positive", store.ErrValidation)
		}
		pkg.Price = *update.Price
	}
	if update.Active != nil {
		pkg.Active = *update.Active
	}

	if err := s.db.UpdatePackage(ctx, pkg); err != nil {
		return err
	}

	zap.L().Info("Package updated", zap.String("package_id", id))
	return nil
}
