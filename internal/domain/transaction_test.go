package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidUnitPrice(t *testing.T) {
	tests := []struct {
		price string
		want  bool
	}{
		{"0", true},
		{"2.50", true},
		{"2.500", true},
		{"999999999999.99", true},
		{"0.125", false},
		{"-0.01", false},
		{"1000000000000", false},
	}
	for _, tt := range tests {
		if got := ValidUnitPrice(decimal.RequireFromString(tt.price)); got != tt.want {
			t.Errorf("ValidUnitPrice(%s) = %v, want %v", tt.price, got, tt.want)
		}
	}
}

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"", TxSale, true},
		{" SALE ", TxSale, true},
		{"demo", TxDemo, true},
		{"Transfer", TxTransfer, true},
		{"refund", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTransactionType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseTransactionType(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
