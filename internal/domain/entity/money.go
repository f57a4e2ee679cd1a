package entity

import (
	"fmt"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
)

// All monetary amounts in the ledger are integers in micro-cents:
// 1 cent = 1,000,000 micro-cents. Floating point is never used for money.

// MicroCentsPerCent is the scale factor between cents and micro-cents.
const MicroCentsPerCent int64 = 1_000_000

// PercentOf returns percentWhole percent of amountMicro with half-up
// rounding at the percent boundary.
func PercentOf(amountMicro int64, percentWhole int64) int64 {
	return (amountMicro*percentWhole + 50) / 100
}

// BpsOf returns bps basis points of amountMicro with half-up rounding
// at the basis-point boundary. 10,000 bps = 100%.
func BpsOf(amountMicro int64, bps int64) int64 {
	return (amountMicro*bps + 5_000) / 10_000
}

// MicroToCentsRounded converts micro-cents to whole cents with half-up
// rounding. Display and reporting only; the ledger always keeps micro-cents.
func MicroToCentsRounded(micro int64) int64 {
	return (micro + 500_000) / 1_000_000
}

// CentsToMicro converts whole cents to micro-cents. Exact.
func CentsToMicro(cents int64) int64 {
	return cents * MicroCentsPerCent
}

// ValidateAmountMicro checks that an amount crossing the API boundary is
// non-negative and below maxCents worth of micro-cents. Overflow safety for
// the pure arithmetic above comes from this boundary check, not from the
// helpers themselves.
func ValidateAmountMicro(amountMicro int64, maxCents int64) error {
	if amountMicro < 0 {
		return errs.ErrNegativeAmount
	}
	if amountMicro > CentsToMicro(maxCents) {
		return fmt.Errorf("%w: amount %d exceeds maximum of %d cents", errs.ErrAmountOverflow, amountMicro, maxCents)
	}
	return nil
}

// MicroToDisplay formats a micro-cent amount as a dollar string with two
// decimal places, e.g. 3_200_000_000 -> "32.00". Reporting only.
func MicroToDisplay(micro int64) string {
	cents := MicroToCentsRounded(micro)
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}
