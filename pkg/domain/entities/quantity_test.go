package entities

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCoerceQuantity(t *testing.T) {
	neg := decimal.NewFromInt(-3)

	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"nil", nil, "0"},
		{"int", 12, "12"},
		{"int64", int64(7), "7"},
		{"float", 2.5, "2.5"},
		{"numeric string", " 1.25 ", "1.25"},
		{"json number", json.Number("4"), "4"},
		{"decimal", decimal.NewFromFloat(0.05), "0.05"},
		{"decimal pointer", &neg, "0"},
		{"nil decimal pointer", (*decimal.Decimal)(nil), "0"},
		{"empty string", "", "0"},
		{"garbage", "abc", "0"},
		{"negative", -4, "0"},
		{"negative string", "-1.5", "0"},
		{"unsupported type", []int{1}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceQuantity(tt.input)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("CoerceQuantity(%v) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseQuantity_ReportsNumbers(t *testing.T) {
	tests := []struct {
		input interface{}
		ok    bool
	}{
		{nil, false},
		{"", false},
		{"n/a", false},
		{true, false},
		{"0", true},
		{0.0, true},
		{"-2", true},
		{json.Number("3.5"), true},
	}

	for _, tt := range tests {
		if _, ok := ParseQuantity(tt.input); ok != tt.ok {
			t.Errorf("ParseQuantity(%#v) ok = %v, want %v", tt.input, ok, tt.ok)
		}
	}
}

func TestMinAndSumQuantities(t *testing.T) {
	a := decimal.NewFromInt(3)
	b := decimal.NewFromFloat(2.5)

	if !MinQuantity(a, b).Equal(b) || !MinQuantity(b, a).Equal(b) {
		t.Errorf("expected min 2.5")
	}
	if !SumQuantities(a, b, a).Equal(decimal.NewFromFloat(8.5)) {
		t.Errorf("expected sum 8.5, got %s", SumQuantities(a, b, a))
	}
	if !SumQuantities().IsZero() {
		t.Error("empty sum should be zero")
	}
}
