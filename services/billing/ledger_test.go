package billing

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateRevenueSplit(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		rate    float64
		wantFee float64
		wantNet float64
		wantTot float64
	}{
		{"course at 100 BRL with 30%", 100, 0.30, 30, 70, 100},
		{"zero fee", 59.90, 0, 0, 59.90, 59.90},
		{"full fee", 59.90, 1, 59.90, 0, 59.90},
		{"half-up on the fee", 0.05, 0.5, 0.03, 0.02, 0.05},
		{"odd cents", 33.33, 0.30, 10.00, 23.33, 33.33},
		{"amount with more precision", 19.999, 0.30, 6.00, 14.00, 20.00},
		{"zero amount", 0, 0.30, 0, 0, 0},
		{"negative amount is zero", -50, 0.30, 0, 0, 0},
		{"rate above one is clamped", 10, 1.5, 10, 0, 10},
		{"negative rate is clamped", 10, -0.2, 0, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split := CalculateRevenueSplit(tt.amount, tt.rate)
			assert.InDelta(t, tt.wantTot, split.TotalAmount, 1e-9)
			assert.InDelta(t, tt.wantFee, split.PlatformFee, 1e-9)
			assert.InDelta(t, tt.wantNet, split.InstructorNet, 1e-9)
		})
	}
}

func TestCalculateRevenueSplitNonFinite(t *testing.T) {
	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		split := CalculateRevenueSplit(amount, 0.30)
		assert.Zero(t, split.TotalAmount)
		assert.Zero(t, split.PlatformFee)
		assert.Zero(t, split.InstructorNet)
	}

	split := CalculateRevenueSplit(100, math.NaN())
	assert.InDelta(t, 0.30, split.FeeRate, 1e-9)
	assert.InDelta(t, 30, split.PlatformFee, 1e-9)
}

func TestRevenueSplitSumsToTotal(t *testing.T) {
	rates := []float64{0, 0.01, 0.125, 0.15, 0.2, 0.3, 0.333, 0.5, 0.7, 0.99, 1}

	for cents := int64(0); cents <= 20000; cents += 7 {
		amount := float64(cents) / 100
		for _, rate := range rates {
			split := CalculateRevenueSplit(amount, rate)

			sum := decimal.NewFromFloat(split.PlatformFee).Add(decimal.NewFromFloat(split.InstructorNet))
			total := decimal.NewFromFloat(split.TotalAmount)
			if !sum.Equal(total) {
				t.Fatalf("split of %.2f at %.3f: fee %.2f + net %.2f != %.2f",
					amount, rate, split.PlatformFee, split.InstructorNet, split.TotalAmount)
			}
			if split.PlatformFee < 0 || split.InstructorNet < 0 {
				t.Fatalf("negative split for %.2f at %.3f: %+v", amount, rate, split)
			}
		}
	}
}

func TestMinorUnitConversion(t *testing.T) {
	assert.EqualValues(t, 10000, ToMinorUnits(100))
	assert.EqualValues(t, 1999, ToMinorUnits(19.99))
	assert.EqualValues(t, 29, ToMinorUnits(0.285))
	assert.InDelta(t, 49.90, FromMinorUnits(4990), 1e-9)
}
