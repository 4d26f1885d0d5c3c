package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  any
		out string
	}{
		{"1", "1"},
		{"1.23", "1.23"},
		{"1,23", "1.23"},
		{" 2.50 ", "2.5"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1.234.567", "1234567"},
		{"R$ 10,00", "10"},
		{"-15", "15"},
		{"abc", "0"},
		{"", "0"},
		{nil, "0"},
		{12.5, "12.5"},
		{float32(0.25), "0.25"},
		{math.NaN(), "0"},
		{math.Inf(1), "0"},
		{42, "42"},
		{int64(-7), "7"},
		{uint(3), "3"},
		{json.Number("99.90"), "99.9"},
		{decimal.RequireFromString("3.14"), "3.14"},
		{struct{}{}, "0"},
		{[]int{1}, "0"},
	}
	for _, tc := range cases {
		got := ParseAmount(tc.in)
		want := decimal.RequireFromString(tc.out)
		if !got.Equal(want) {
			t.Fatalf("%#v expected %s, got %s", tc.in, want, got)
		}
	}
}

func TestParseAmountNeverNegative(t *testing.T) {
	for _, in := range []any{"-0.01", -1, -2.5, "-1.000,00"} {
		if got := ParseAmount(in); got.IsNegative() {
			t.Fatalf("%#v produced negative amount %s", in, got)
		}
	}
}

func TestParseAmountStrict(t *testing.T) {
	if d, err := ParseAmountStrict("R$ 1.234,50"); err != nil || !d.Equal(decimal.RequireFromString("1234.5")) {
		t.Fatalf("expected 1234.5, got %s (%v)", d, err)
	}
	for _, in := range []any{nil, "abc", struct{}{}} {
		if _, err := ParseAmountStrict(in); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%#v: expected ErrInvalidAmount, got %v", in, err)
		}
	}
}
