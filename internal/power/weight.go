package power

import (
	"errors"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateWeights splits batchWeight percent of a full vote across amounts in
// proportion to each amount's share of the total. Results are basis points,
// rounded half away from zero; rounding residue is left unallocated.
func CalculateWeights(amounts []decimal.Decimal, batchWeight decimal.Decimal) ([]int, error) {
	if len(amounts) == 0 {
		return nil, errors.New("no amounts provided")
	}
	total := decimal.Zero
	for _, a := range amounts {
		if a.IsNegative() {
			return nil, errors.New("amounts must not be negative")
		}
		total = total.Add(a)
	}
	if !total.IsPositive() {
		return nil, errors.New("total amount must be positive")
	}

	budget := batchWeight.Mul(hundred)
	weights := make([]int, len(amounts))
	for i, a := range amounts {
		weights[i] = int(budget.Mul(a).Div(total).Round(0).IntPart())
	}
	return weights, nil
}
