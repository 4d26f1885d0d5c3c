package core

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func TestGoalValidate(t *testing.T) {
	good := Goal{
		OwnerID:        "owner-1",
		Category:       "food",
		TargetAmount:   decimal.NewFromInt(500),
		Period:         Monthly,
		ReferenceMonth: 3,
		ReferenceYear:  2024,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	yearly := good
	yearly.Period = Yearly
	yearly.ReferenceMonth = 0
	if err := yearly.Validate(); err != nil {
		t.Fatalf("yearly goal without month should be valid, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Goal)
		want   error
	}{
		{"missing owner", func(g *Goal) { g.OwnerID = " " }, ErrInvalidOwner},
		{"empty category", func(g *Goal) { g.Category = "" }, ErrEmptyCategory},
		{"negative target", func(g *Goal) { g.TargetAmount = decimal.NewFromInt(-1) }, ErrNegativeTarget},
		{"unknown period", func(g *Goal) { g.Period = "weekly" }, ErrInvalidPeriod},
		{"zero year", func(g *Goal) { g.ReferenceYear = 0 }, ErrInvalidReference},
		{"month out of range", func(g *Goal) { g.ReferenceMonth = 13 }, ErrInvalidReference},
		{"quarterly without month", func(g *Goal) { g.Period = Quarterly; g.ReferenceMonth = 0 }, ErrInvalidReference},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := good
			tc.mutate(&g)
			if err := g.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGoalMatches(t *testing.T) {
	monthly := Goal{Period: Monthly, ReferenceMonth: 3, ReferenceYear: 2024}
	quarterly := Goal{Period: Quarterly, ReferenceMonth: 2, ReferenceYear: 2024}
	yearly := Goal{Period: Yearly, ReferenceYear: 2024}

	cases := []struct {
		goal Goal
		key  PeriodKey
		want bool
	}{
		{monthly, PeriodKey{Year: 2024, Month: 3}, true},
		{monthly, PeriodKey{Year: 2024, Month: 4}, false},
		{monthly, PeriodKey{Year: 2023, Month: 3}, false},
		{monthly, PeriodKey{Year: 2024}, true},
		{quarterly, PeriodKey{Year: 2024, Month: 3}, true},
		{quarterly, PeriodKey{Year: 2024, Month: 4}, false},
		{yearly, PeriodKey{Year: 2024, Month: 11}, true},
		{yearly, PeriodKey{Year: 2025, Month: 1}, false},
	}
	for i, tc := range cases {
		if got := tc.goal.Matches(tc.key); got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{
		From: civil.Date{Year: 2024, Month: 1, Day: 10},
		To:   civil.Date{Year: 2024, Month: 1, Day: 20},
	}
	if !r.Contains(civil.Date{Year: 2024, Month: 1, Day: 10}) || !r.Contains(civil.Date{Year: 2024, Month: 1, Day: 20}) {
		t.Fatal("range bounds must be inclusive")
	}
	if r.Contains(civil.Date{Year: 2024, Month: 1, Day: 21}) {
		t.Fatal("day after range end should be outside")
	}

	single := DateRange{From: civil.Date{Year: 2024, Month: 5, Day: 1}}
	if !single.Contains(single.From) || single.Contains(civil.Date{Year: 2024, Month: 5, Day: 2}) {
		t.Fatal("range without To should cover From only")
	}
	if got := single.String(); got != "2024-05-01..2024-05-01" {
		t.Fatalf("unexpected String(): %s", got)
	}
}

func TestDateRangeOrdered(t *testing.T) {
	early := civil.Date{Year: 2024, Month: 1, Day: 1}
	late := civil.Date{Year: 2024, Month: 3, Day: 31}

	if got := (DateRange{From: late, To: early}).Ordered(); got.From != early || got.To != late {
		t.Fatalf("reversed range should be swapped, got %+v", got)
	}
	if got := (DateRange{From: early, To: late}).Ordered(); got.From != early || got.To != late {
		t.Fatalf("ordered range should be unchanged, got %+v", got)
	}
	if got := (DateRange{From: late}).Ordered(); got.From != late || !got.To.IsZero() {
		t.Fatalf("range without To should be unchanged, got %+v", got)
	}
}

func TestKindIsValid(t *testing.T) {
	if !Inflow.IsValid() || !Outflow.IsValid() {
		t.Fatal("canonical kinds must be valid")
	}
	if Kind("saida").IsValid() {
		t.Fatal("aliases are not canonical kinds")
	}
}
