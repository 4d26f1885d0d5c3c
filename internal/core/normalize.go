package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var kindAliases = map[string]Kind{
	"inflow":  Inflow,
	"entrada": Inflow,
	"income":  Inflow,
	"receita": Inflow,
	"credit":  Inflow,
	"outflow": Outflow,
	"saida":   Outflow,
	"expense": Outflow,
	"despesa": Outflow,
	"debit":   Outflow,
}

// FoldKey returns the case- and accent-insensitive form of s used for
// matching free-text keys such as kinds and categories.
func FoldKey(s string) string {
	// Transformers and casers are stateful, so each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return cases.Fold().String(folded)
}

// NormalizeKind maps a source spelling of a transaction direction onto its
// canonical Kind ("Saída", "SAIDA" and "expense" are all Outflow).
func NormalizeKind(s string) (Kind, bool) {
	k, ok := kindAliases[FoldKey(s)]
	return k, ok
}

// Normalizer turns raw source records into canonical transactions.
type Normalizer struct {
	calendar Calendar
	logger   *slog.Logger
}

func NewNormalizer(cal Calendar, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{calendar: cal, logger: logger}
}

func (n *Normalizer) Calendar() Calendar {
	return n.calendar
}

// Normalize converts one record. It fails only when the record is unusable:
// a missing or unparseable date, or an unknown kind. A bad amount is coerced
// to zero.
func (n *Normalizer) Normalize(raw RawTransaction) (Transaction, error) {
	date, err := n.calendar.ParseDate(raw.Date)
	if err != nil {
		return Transaction{}, err
	}
	kind, ok := NormalizeKind(raw.Kind)
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %q", ErrUnknownKind, strings.TrimSpace(raw.Kind))
	}
	amount, _ := parseAmount(raw.Amount)
	return Transaction{
		ID:          raw.ID,
		OwnerID:     raw.OwnerID,
		OccurredOn:  date,
		Kind:        kind,
		Category:    strings.TrimSpace(raw.Category),
		Amount:      amount,
		Description: raw.Description,
	}, nil
}

// NormalizeAll normalizes a batch. Unusable records are dropped with one
// warning each and reported back; the order of the survivors is preserved.
func (n *Normalizer) NormalizeAll(ctx context.Context, raws []RawTransaction) ([]Transaction, []RecordError) {
	out := make([]Transaction, 0, len(raws))
	var errs []RecordError
	for i, raw := range raws {
		tx, err := n.Normalize(raw)
		if err != nil {
			rerr := RecordError{Index: i, ID: raw.ID, Reason: reasonOf(err), Err: err}
			errs = append(errs, rerr)
			n.logger.WarnContext(ctx, "dropping unusable transaction",
				"index", i,
				"transaction_id", raw.ID,
				"reason", rerr.Reason,
			)
			continue
		}
		if _, ok := parseAmount(raw.Amount); !ok && raw.Amount != nil {
			n.logger.DebugContext(ctx, "amount coerced to zero",
				"transaction_id", raw.ID,
				"amount", raw.Amount,
			)
		}
		out = append(out, tx)
	}
	return out, errs
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, ErrMissingDate):
		return "missing date"
	case errors.Is(err, ErrInvalidDate):
		return "invalid date"
	case errors.Is(err, ErrUnknownKind):
		return "unknown kind"
	default:
		return err.Error()
	}
}
