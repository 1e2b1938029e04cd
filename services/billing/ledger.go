package billing

import (
	"math"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/shopspring/decimal"
)

// RevenueSplit is the division of one sale between the platform and the instructor.
// All amounts are in the major currency unit, rounded half-up to 2 decimal places.
type RevenueSplit struct {
	TotalAmount   float64 `json:"totalAmount"`
	PlatformFee   float64 `json:"platformFee"`
	InstructorNet float64 `json:"instructorNet"`
	FeeRate       float64 `json:"feeRate"`
}

// CalculateRevenueSplit never fails: a negative or non-finite amount counts as
// zero and a non-finite rate falls back to the default, clamped to [0, 1].
// The arithmetic runs on decimals so PlatformFee + InstructorNet == TotalAmount.
func CalculateRevenueSplit(amount, feeRate float64) RevenueSplit {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		amount = 0
	}
	if math.IsNaN(feeRate) || math.IsInf(feeRate, 0) {
		feeRate = config.DefaultPlatformFeeRate
	}
	feeRate = math.Min(math.Max(feeRate, 0), 1)

	gross := decimal.NewFromFloat(amount)
	total := roundCurrency(gross)

	fee := roundCurrency(gross.Mul(decimal.NewFromFloat(feeRate)))
	if fee.IsNegative() {
		fee = decimal.Zero
	}

	net := roundCurrency(total.Sub(fee))
	if net.IsNegative() {
		net = decimal.Zero
	}

	return RevenueSplit{
		TotalAmount:   total.InexactFloat64(),
		PlatformFee:   fee.InexactFloat64(),
		InstructorNet: net.InexactFloat64(),
		FeeRate:       feeRate,
	}
}

// roundCurrency rounds half away from zero, which is half-up for the
// non-negative amounts handled here
func roundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ToMinorUnits converts a major-unit amount to the processor's integer unit
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits converts the processor's integer unit to a major-unit amount
func FromMinorUnits(minor int64) float64 {
	return decimal.New(minor, -2).InexactFloat64()
}
