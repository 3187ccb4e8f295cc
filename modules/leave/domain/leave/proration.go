package leave

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	DayHours     = decimal.NewFromInt(8)
	HalfDayHours = decimal.NewFromInt(4)
)

const splitPlaces = 6

// ProrationStrategy distributes the hours freed by a half-day leave across
// the employee's active rows. The returned deductions line up with normal and
// always sum to freed exactly.
type ProrationStrategy interface {
	Name() string
	Split(freed decimal.Decimal, normal []decimal.Decimal) []decimal.Decimal
}

// EqualSplit gives every active row the same share regardless of its normal
// allocation. Shares are rounded to six places and the last row absorbs the
// rounding, so for n=3 they are 1.333333, 1.333333 and 1.333334.
type EqualSplit struct{}

func (EqualSplit) Name() string { return "equal" }

func (EqualSplit) Split(freed decimal.Decimal, normal []decimal.Decimal) []decimal.Decimal {
	n := len(normal)
	if n == 0 {
		return nil
	}
	share := freed.DivRound(decimal.NewFromInt(int64(n)), splitPlaces)
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = share
	}
	return absorbRemainder(freed, out)
}

// ProportionalSplit weights each row by its normal hours, negative hours
// counting as zero. Rows without any normal hours fall back to an equal split.
type ProportionalSplit struct{}

func (ProportionalSplit) Name() string { return "proportional" }

func (ProportionalSplit) Split(freed decimal.Decimal, normal []decimal.Decimal) []decimal.Decimal {
	weights := make([]decimal.Decimal, len(normal))
	total := decimal.Zero
	for i, h := range normal {
		weights[i] = decimal.Max(h, decimal.Zero)
		total = total.Add(weights[i])
	}
	if !total.IsPositive() {
		return EqualSplit{}.Split(freed, normal)
	}
	out := make([]decimal.Decimal, len(normal))
	for i, w := range weights {
		out[i] = freed.Mul(w).DivRound(total, splitPlaces)
	}
	return absorbRemainder(freed, out)
}

// absorbRemainder moves the rounding difference onto the last share.
func absorbRemainder(freed decimal.Decimal, shares []decimal.Decimal) []decimal.Decimal {
	last := len(shares) - 1
	rest := decimal.Sum(decimal.Zero, shares[:last]...)
	shares[last] = freed.Sub(rest)
	return shares
}

func StrategyByName(name string) (ProrationStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "equal":
		return EqualSplit{}, nil
	case "proportional":
		return ProportionalSplit{}, nil
	default:
		return nil, fmt.Errorf("unknown proration strategy %q (expected equal|proportional)", name)
	}
}
