package database

import (
	"fmt"

	"tikflow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var txn models.Transaction
	var amountStr, rateStr, costStr string
	var requiresCode int
	err := row.Scan(&txn.Id, &txn.UserId, &txn.Kind, &amountStr, &txn.Coins,
		&txn.PaymentMethod, &txn.RefId, &txn.Status, &txn.AdminNote,
		&requiresCode, &txn.ConfirmationCode, &rateStr, &costStr,
		&txn.TiktokUsername, &txn.TiktokPassword, &txn.Version,
		&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	txn.RequiresCode = requiresCode != 0

	if txn.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if txn.RateUsed, err = decimal.NewFromString(rateStr); err != nil {
		return nil, fmt.Errorf("failed to parse rate_used '%s': %w", rateStr, err)
	}
	if txn.CostAmount, err = decimal.NewFromString(costStr); err != nil {
		return nil, fmt.Errorf("failed to parse cost_amount '%s': %w", costStr, err)
	}
	return &txn, nil
}

func scanPayment(row rowScanner) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	var amountStr string
	err := row.Scan(&p.Id, &p.RefId, &amountStr, &p.Sender, &p.RawText,
		&p.ParsedText, &p.Status, &p.Version, &p.ReceivedAt)
	if err != nil {
		return nil, err
	}
	if p.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse payment amount '%s': %w", amountStr, err)
	}
	return &p, nil
}

func scanPackage(row rowScanner) (*models.CoinPackage, error) {
	var pkg models.CoinPackage
	var priceStr string
	var active int
	err := row.Scan(&pkg.Id, &pkg.Name, &pkg.Coins, &priceStr, &active,
		&pkg.CreatedAt, &pkg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	pkg.Active = active != 0
	if pkg.Price, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("failed to parse package price '%s': %w", priceStr, err)
	}
	return &pkg, nil
}

func scanStats(row rowScanner) (*models.PlatformStats, error) {
	var st models.PlatformStats
	var deposits, sales, cost, profit, usersBalance, avg string
	err := row.Scan(&deposits, &sales, &cost, &profit, &st.TotalCoinsSold,
		&st.TotalTransactions, &usersBalance, &avg, &st.Version, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&st.TotalDeposits, deposits},
		{&st.TotalSalesVolume, sales},
		{&st.TotalCost, cost},
		{&st.TotalProfit, profit},
		{&st.TotalUsersBalance, usersBalance},
		{&st.AverageTransactionValue, avg},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return nil, fmt.Errorf("failed to parse stats value '%s': %w", f.src, err)
		}
	}
	return &st, nil
}

func scanMonthlyStat(row rowScanner) (*models.MonthlyStat, int64, error) {
	var ms models.MonthlyStat
	var version int64
	var deposits, sales, cost, profit string
	err := row.Scan(&ms.Month, &deposits, &sales, &cost, &profit, &ms.Transactions, &version)
	if err != nil {
		return nil, 0, err
	}

	if ms.Deposits, err = decimal.NewFromString(deposits); err != nil {
		return nil, 0, fmt.Errorf("failed to parse monthly deposits '%s': %w", deposits, err)
	}
	if ms.Sales, err = decimal.NewFromString(sales); err != nil {
		return nil, 0, fmt.Errorf("failed to parse monthly sales '%s': %w", sales, err)
	}
	if ms.Cost, err = decimal.NewFromString(cost); err != nil {
		return nil, 0, fmt.Errorf("failed to parse monthly cost '%s': %w", cost, err)
	}
	if ms.Profit, err = decimal.NewFromString(profit); err != nil {
		return nil, 0, fmt.Errorf("failed to parse monthly profit '%s': %w", profit, err)
	}
	return &ms, version, nil
}
