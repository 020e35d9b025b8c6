package matcher

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Default patterns match the French mobile-money notification formats
// the platform receives ("Montant: 5000 FCFA ... Ref: AB12CD"). Each
// pattern must expose exactly one capture group.
const (
	DefaultAmountPattern = `(?i)(?:montant|reçu|recu|de)\s*:?\s*([\d\s.,]+)\s*(?:f|fcfa)`
	DefaultRefPattern    = `(?i)(?:ref|txn\s*id|transaction\s*id|id)\s*[:\s.]*([a-z0-9]+)`
)

// Ingest outcomes. ParsingFailed and Duplicate are soft outcomes: the
// upstream notification channel retries aggressively on non-success
// responses, so the boundary layer acknowledges them positively.
const (
	OutcomeAccepted      = "accepted"
	OutcomeDuplicate     = "duplicate"
	OutcomeParsingFailed = "parsing_failed"
	OutcomeUnauthorized  = "unauthorized"
)

// Outcome is the result of ingesting one payment notification.
type Outcome struct {
	Status string
	RefId  string
	Amount decimal.Decimal
}

// Matcher parses inbound payment notifications and records them as
// payment records, enforcing the sender allow-list and reference
// uniqueness.
type Matcher struct {
	db         *database.Service
	senders    map[string]struct{}
	amountRe   *regexp.Regexp
	refRe      *regexp.Regexp
	whitespace *regexp.Regexp
}

func NewMatcher(db *database.Service, cfg models.MatcherConfig) (*Matcher, error) {
	amountPattern := cfg.AmountPattern
	if amountPattern == "" {
		amountPattern = DefaultAmountPattern
	}
	refPattern := cfg.RefPattern
	if refPattern == "" {
		refPattern = DefaultRefPattern
	}

	amountRe, err := regexp.Compile(amountPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid amount pattern: %w", err)
	}
	refRe, err := regexp.Compile(refPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid reference pattern: %w", err)
	}
	if amountRe.NumSubexp() != 1 {
		return nil, fmt.Errorf("amount pattern must have exactly one capture group, has %d", amountRe.NumSubexp())
	}
	if refRe.NumSubexp() != 1 {
		return nil, fmt.Errorf("reference pattern must have exactly one capture group, has %d", refRe.NumSubexp())
	}

	senders := make(map[string]struct{}, len(cfg.AllowedSenders))
	for _, s := range cfg.AllowedSenders {
		senders[s] = struct{}{}
	}

	return &Matcher{
		db:         db,
		senders:    senders,
		amountRe:   amountRe,
		refRe:      refRe,
		whitespace: regexp.MustCompile(`\s+`),
	}, nil
}

// Ingest parses one raw notification from a payment provider. An error
// is returned only for storage failures; every contract outcome,
// including rejection, is reported through the Outcome status.
func (m *Matcher) Ingest(ctx context.Context, sender, rawText string) (Outcome, error) {
	if sender == "" || strings.TrimSpace(rawText) == "" {
		zap.L().Warn("Payment notification with missing sender or body", zap.String("sender", sender))
		return Outcome{Status: OutcomeParsingFailed}, nil
	}

	if _, ok := m.senders[sender]; !ok {
		zap.L().Warn("Payment notification from unauthorized sender", zap.String("sender", sender))
		return Outcome{Status: OutcomeUnauthorized}, nil
	}

	normalized := strings.TrimSpace(m.whitespace.ReplaceAllString(rawText, " "))

	refId := m.extractRef(normalized)
	amount, amountOk := m.extractAmount(normalized)
	if refId == "" || !amountOk || !amount.IsPositive() {
		zap.L().Warn("Payment notification could not be parsed",
			zap.String("sender", sender),
			zap.String("normalized", normalized))
		return Outcome{Status: OutcomeParsingFailed}, nil
	}

	outcome := Outcome{Status: OutcomeAccepted, RefId: refId, Amount: amount}
	err := m.db.RunUnit(ctx, func(u *database.Unit) error {
		exists, err := u.PaymentRefExists(ctx, refId)
		if err != nil {
			return err
		}
		if exists {
			// Idempotent re-delivery: no mutation.
			outcome = Outcome{Status: OutcomeDuplicate, RefId: refId}
			return nil
		}

		return u.InsertPayment(ctx, &models.PaymentRecord{
			Id:         uuid.New().String(),
			RefId:      refId,
			Amount:     amount,
			Sender:     sender,
			RawText:    rawText,
			ParsedText: normalized,
			Status:     models.PaymentUnused,
			ReceivedAt: time.Now(),
		})
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to record payment: %w", err)
	}

	if outcome.Status == OutcomeAccepted {
		zap.L().Info("Payment notification recorded",
			zap.String("sender", sender),
			zap.String("ref_id", refId),
			zap.String("amount", amount.String()))
	} else {
		zap.L().Warn("Duplicate payment reference, skipping",
			zap.String("sender", sender),
			zap.String("ref_id", refId))
	}
	return outcome, nil
}

func (m *Matcher) extractRef(text string) string {
	match := m.refRe.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func (m *Matcher) extractAmount(text string) (decimal.Decimal, bool) {
	match := m.amountRe.FindStringSubmatch(text)
	if len(match) < 2 {
		return decimal.Zero, false
	}

	raw := strings.ReplaceAll(match[1], " ", "")
	raw = strings.ReplaceAll(raw, ",", ".")
	raw = strings.Trim(raw, ".")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
