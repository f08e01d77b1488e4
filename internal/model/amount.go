package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a ledger asset quantity.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

// ParseAmount parses a ledger asset string such as "1.000 SBD".
func ParseAmount(s string) (Amount, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Amount{}, fmt.Errorf("malformed amount %q", s)
	}
	v, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{Value: v, Currency: fields[1]}, nil
}

// String formats the amount the way the ledger expects it in a transfer.
func (a Amount) String() string {
	return a.Value.StringFixed(3) + " " + a.Currency
}
