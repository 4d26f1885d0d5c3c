package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func TestNormalizeKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"inflow", Inflow, true},
		{"Entrada", Inflow, true},
		{"  ENTRADA ", Inflow, true},
		{"receita", Inflow, true},
		{"outflow", Outflow, true},
		{"saída", Outflow, true},
		{"Saída", Outflow, true},
		{"SAIDA", Outflow, true},
		{"despesa", Outflow, true},
		{"expense", Outflow, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeKind(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%q: expected (%q, %v), got (%q, %v)", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}

func TestFoldKey(t *testing.T) {
	if FoldKey("Alimentação") != FoldKey("ALIMENTACAO ") {
		t.Fatal("accents and case should fold to the same key")
	}
	if FoldKey("food") == FoldKey("fuel") {
		t.Fatal("different words must not collide")
	}
}

func newTestNormalizer(t *testing.T) (*Normalizer, *bytes.Buffer) {
	t.Helper()
	cal, err := NewCalendar("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return NewNormalizer(cal, logger), &buf
}

func TestNormalize(t *testing.T) {
	n, _ := newTestNormalizer(t)

	tx, err := n.Normalize(RawTransaction{
		ID:       "t1",
		OwnerID:  "o1",
		Date:     "2024-01-15",
		Kind:     "Saída",
		Category: " food ",
		Amount:   "100,50",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Kind != Outflow || tx.Category != "food" || tx.OccurredOn != (civil.Date{Year: 2024, Month: 1, Day: 15}) {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("100.5")) {
		t.Fatalf("unexpected amount %s", tx.Amount)
	}

	tx, err = n.Normalize(RawTransaction{Date: "2024-01-15", Kind: "inflow", Amount: "garbage"})
	if err != nil || !tx.Amount.IsZero() {
		t.Fatalf("bad amount should coerce to zero, got %s (err=%v)", tx.Amount, err)
	}

	if _, err := n.Normalize(RawTransaction{Date: "", Kind: "inflow"}); !errors.Is(err, ErrMissingDate) {
		t.Fatalf("expected ErrMissingDate, got %v", err)
	}
	if _, err := n.Normalize(RawTransaction{Date: "not-a-date", Kind: "inflow"}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := n.Normalize(RawTransaction{Date: "2024-01-15", Kind: "transfer"}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestNormalizeAll(t *testing.T) {
	n, logs := newTestNormalizer(t)

	raws := []RawTransaction{
		{ID: "a", Date: "2024-01-15", Kind: "outflow", Amount: 100},
		{ID: "b", Date: "not-a-date", Kind: "outflow", Amount: 10},
		{ID: "c", Date: "2024-03-02", Kind: "inflow", Amount: 500},
		{ID: "d", Date: "2024-03-02", Kind: "???", Amount: 1},
	}
	txs, errs := n.NormalizeAll(context.Background(), raws)

	if len(txs) != 2 || txs[0].ID != "a" || txs[1].ID != "c" {
		t.Fatalf("unexpected survivors %+v", txs)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 record errors, got %d", len(errs))
	}
	if errs[0].Index != 1 || errs[0].ID != "b" || !errors.Is(errs[0], ErrInvalidDate) {
		t.Fatalf("unexpected first error %+v", errs[0])
	}
	if errs[1].Index != 3 || errs[1].Reason != "unknown kind" {
		t.Fatalf("unexpected second error %+v", errs[1])
	}
	if got := strings.Count(logs.String(), "level=WARN"); got != 2 {
		t.Fatalf("expected 2 warnings, got %d:\n%s", got, logs.String())
	}
}
