package entity

import (
	"testing"

	errs "github.com/p4cs-974/verse-billing/internal/domain/error"
	"github.com/stretchr/testify/assert"
)

func TestPercentOf(t *testing.T) {
	testCases := []struct {
		name     string
		amount   int64
		percent  int64
		expected int64
	}{
		{"20 percent of 25 dollars", 2_500_000_000, 20, 500_000_000},
		{"20 percent of 1 dollar", 100_000_000, 20, 20_000_000},
		{"rounds half up", 3, 50, 2},         // 1.5 -> 2
		{"rounds down below half", 2, 20, 0}, // 0.4 -> 0
		{"zero amount", 0, 20, 0},
		{"zero percent", 1_000_000, 0, 0},
		{"100 percent is identity", 123_456_789, 100, 123_456_789},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, PercentOf(tc.amount, tc.percent))
		})
	}
}

func TestBpsOf(t *testing.T) {
	testCases := []struct {
		name     string
		amount   int64
		bps      int64
		expected int64
	}{
		{"14 percent fee on 2 cents", 2_000_000, 1400, 280_000},
		{"14 percent fee on 20 million micro", 20_000_000, 1400, 2_800_000},
		{"rounds half up", 25, 2000, 5},    // exactly 5.0
		{"rounds at boundary", 3, 1500, 0}, // 0.45 -> 0
		{"10000 bps is identity", 987_654, 10_000, 987_654},
		{"zero bps", 1_000_000, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, BpsOf(tc.amount, tc.bps))
		})
	}
}

func TestMicroToCentsRounded(t *testing.T) {
	testCases := []struct {
		micro    int64
		expected int64
	}{
		{0, 0},
		{499_999, 0},
		{500_000, 1},
		{1_000_000, 1},
		{1_499_999, 1},
		{1_500_000, 2},
		{3_200_000_000, 3200},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, MicroToCentsRounded(tc.micro), "micro=%d", tc.micro)
	}
}

func TestCentsToMicro(t *testing.T) {
	assert.Equal(t, int64(0), CentsToMicro(0))
	assert.Equal(t, int64(1_000_000), CentsToMicro(1))
	assert.Equal(t, int64(200_000_000), CentsToMicro(200))
	assert.Equal(t, int64(2_500_000_000), CentsToMicro(2500))
}

func TestValidateAmountMicro(t *testing.T) {
	maxCents := int64(100_000_000)

	t.Run("accepts zero and positive amounts", func(t *testing.T) {
		assert.NoError(t, ValidateAmountMicro(0, maxCents))
		assert.NoError(t, ValidateAmountMicro(1, maxCents))
		assert.NoError(t, ValidateAmountMicro(CentsToMicro(maxCents), maxCents))
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		err := ValidateAmountMicro(-1, maxCents)
		assert.ErrorIs(t, err, errs.ErrNegativeAmount)
	})

	t.Run("rejects amounts over the maximum", func(t *testing.T) {
		err := ValidateAmountMicro(CentsToMicro(maxCents)+1, maxCents)
		assert.ErrorIs(t, err, errs.ErrAmountOverflow)
	})
}

func TestMicroToDisplay(t *testing.T) {
	testCases := []struct {
		micro    int64
		expected string
	}{
		{0, "0.00"},
		{1_000_000, "0.01"},
		{3_200_000_000, "32.00"},
		{3_177_200_000, "31.77"},
		{-500_000_000, "-5.00"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, MicroToDisplay(tc.micro), "micro=%d", tc.micro)
	}
}

func TestFirstTopupBonus(t *testing.T) {
	testCases := []struct {
		name     string
		amount   int64
		percent  int64
		capCents int64
		expected int64
	}{
		{"20 percent under the cap", 1_000_000_000, 20, 500, 200_000_000},
		{"exactly at the cap", 2_500_000_000, 20, 500, 500_000_000},
		{"clamped to the cap", 10_000_000_000, 20, 500, 500_000_000},
		{"zero amount earns nothing", 0, 20, 500, 0},
		{"zero percent earns nothing", 1_000_000_000, 0, 500, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FirstTopupBonus(tc.amount, tc.percent, tc.capCents))
		})
	}
}
