package orderledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorUnitExponent is the number of decimals between major and minor currency units.
const minorUnitExponent = 2

var minorUnitsPerMajor = decimal.New(1, minorUnitExponent)

// ToMinorUnits converts a non-negative major-unit amount to minor units, rounding
// half-up to the nearest minor unit.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", amount)
	}
	minor := amount.Mul(minorUnitsPerMajor).Round(0)
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0, fmt.Errorf("amount %s out of range", amount)
	}
	return minor.IntPart(), nil
}

func ToMajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExponent)
}
