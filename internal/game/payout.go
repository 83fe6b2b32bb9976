package game

import (
	"errors"

	"github.com/shopspring/decimal"
)

// HouseEdge is the share of fair odds paid out
var HouseEdge = decimal.RequireFromString("0.95")

var ErrRevealOutOfRange = errors.New("reveal count outside multiplier table")

// Multipliers returns the cumulative payout multiplier after each consecutive
// safe reveal. Every value is rounded to 2dp and the next one is derived from
// the rounded value, so the table is exactly what players are paid.
func Multipliers(size, mines int) ([]decimal.Decimal, error) {
	if err := ValidateGrid(size, mines); err != nil {
		return nil, err
	}

	total := int64(size * size)
	m := int64(mines)
	safe := total - m

	table := make([]decimal.Decimal, 0, safe)

	// h / (safe/total), written as h*total/safe to keep the quotient exact
	first := HouseEdge.Mul(decimal.NewFromInt(total)).Div(decimal.NewFromInt(safe)).Round(2)
	table = append(table, first)

	prev := first
	for i := safe - 1; i >= 1; i-- {
		// prev / (i/(i+m))
		next := prev.Mul(decimal.NewFromInt(i + m)).Div(decimal.NewFromInt(i)).Round(2)
		table = append(table, next)
		prev = next
	}

	return table, nil
}

// MultiplierAt returns the multiplier earned by `reveals` safe reveals (1-based)
func MultiplierAt(table []decimal.Decimal, reveals int) (decimal.Decimal, error) {
	if reveals < 1 || reveals > len(table) {
		return decimal.Zero, ErrRevealOutOfRange
	}
	return table[reveals-1], nil
}
