package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardProfile() Profile {
	return Profile{
		ID:             "c1",
		Model:          "Ricoh MP 3055",
		BWRate:         0.05,
		ColorRate:      0.15,
		FreeBW:         1000,
		FreeColor:      200,
		RentalFee:      50,
		MinUsageCharge: 10,
	}
}

func TestCompute_UsageAboveFloor(t *testing.T) {
	b := Compute(standardProfile(), Reading{BWReading: 1500, ColorReading: 300})

	assert.Equal(t, 1500.0, b.NetBW)
	assert.Equal(t, 300.0, b.NetColor)
	assert.Equal(t, 500.0, b.ChargeableBW)
	assert.Equal(t, 100.0, b.ChargeableColor)
	assert.InDelta(t, 40.0, b.UsageCharge, 1e-9)
	assert.InDelta(t, 40.0, b.TotalCharge, 1e-9)
	assert.InDelta(t, 90.0, b.TotalDue, 1e-9)

	f := b.Formatted()
	assert.Equal(t, "1500.00", f.NetBW)
	assert.Equal(t, "300.00", f.NetColor)
	assert.Equal(t, "40.00", f.UsageCharge)
	assert.Equal(t, "40.00", f.TotalCharge)
	assert.Equal(t, "90.00", f.TotalDue)
}

func TestCompute_MinimumFloorApplies(t *testing.T) {
	b := Compute(standardProfile(), Reading{BWReading: 1000, ColorReading: 200})

	assert.Equal(t, 0.0, b.ChargeableBW)
	assert.Equal(t, 0.0, b.ChargeableColor)

	f := b.Formatted()
	assert.Equal(t, "0.00", f.UsageCharge)
	assert.Equal(t, "10.00", f.TotalCharge)
	assert.Equal(t, "60.00", f.TotalDue)
}

func TestCompute_SpoilageExceedsReading(t *testing.T) {
	b := Compute(standardProfile(), Reading{BWReading: 5, ColorReading: 5, SpoilCopies: 100})

	assert.Equal(t, 0.0, b.NetBW)
	assert.Equal(t, 0.0, b.NetColor)
	assert.Equal(t, 0.0, b.ChargeableBW)
	assert.Equal(t, 0.0, b.ChargeableColor)
	assert.Equal(t, 0.0, b.UsageCharge)
	assert.Equal(t, 10.0, b.TotalCharge)
	assert.Equal(t, 60.0, b.TotalDue)
}

func TestCompute_SpoilageSplitEvenly(t *testing.T) {
	// All 40 spoiled copies could have been color; the policy still takes
	// 20 from each counter.
	b := Compute(Profile{BWRate: 1, ColorRate: 1}, Reading{BWReading: 100, ColorReading: 100, SpoilCopies: 40})
	assert.Equal(t, 80.0, b.NetBW)
	assert.Equal(t, 80.0, b.NetColor)
}

func TestCompute_SpoilageSymmetry(t *testing.T) {
	p := standardProfile()
	cases := []Reading{
		{BWReading: 1500, ColorReading: 300, SpoilCopies: 20},
		{BWReading: 10, ColorReading: 2000, SpoilCopies: 30},
		{BWReading: 0, ColorReading: 0, SpoilCopies: 7},
		{BWReading: 1234.5, ColorReading: 99.25, SpoilCopies: 3.5},
	}
	for _, r := range cases {
		spoiled := Compute(p, r)
		direct := Compute(p, Reading{
			BWReading:    max(0, r.BWReading-r.SpoilCopies*0.5),
			ColorReading: max(0, r.ColorReading-r.SpoilCopies*0.5),
		})
		assert.Equal(t, direct.NetBW, spoiled.NetBW, "reading %+v", r)
		assert.Equal(t, direct.NetColor, spoiled.NetColor, "reading %+v", r)
		assert.Equal(t, direct, spoiled, "reading %+v", r)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	p := standardProfile()
	r := Reading{BWReading: 12345.67, ColorReading: 890.12, SpoilCopies: 13}
	assert.Equal(t, Compute(p, r), Compute(p, r))
}

func TestCompute_NonNegativeAndRentalFloor(t *testing.T) {
	profiles := []Profile{
		standardProfile(),
		{BWRate: 0.01, ColorRate: 0.2, RentalFee: 0, MinUsageCharge: 0},
		{BWRate: 0, ColorRate: 0, FreeBW: 5000, FreeColor: 5000, RentalFee: 75.5, MinUsageCharge: 25},
	}
	values := []float64{0, 0.5, 1, 99, 250, 1000, 1001, 5000, 123456.789}

	for _, p := range profiles {
		for _, bw := range values {
			for _, color := range values {
				for _, spoil := range values {
					b := Compute(p, Reading{BWReading: bw, ColorReading: color, SpoilCopies: spoil})
					require.GreaterOrEqual(t, b.NetBW, 0.0)
					require.GreaterOrEqual(t, b.NetColor, 0.0)
					require.GreaterOrEqual(t, b.ChargeableBW, 0.0)
					require.GreaterOrEqual(t, b.ChargeableColor, 0.0)
					require.GreaterOrEqual(t, b.UsageCharge, 0.0)
					require.GreaterOrEqual(t, b.TotalCharge, p.MinUsageCharge)
					require.GreaterOrEqual(t, b.TotalDue, p.RentalFee)
				}
			}
		}
	}
}

func TestCompute_MonotonicInBWReading(t *testing.T) {
	p := standardProfile()
	prev := Compute(p, Reading{ColorReading: 400, SpoilCopies: 10})
	for bw := 0.0; bw <= 5000; bw += 37.5 {
		cur := Compute(p, Reading{BWReading: bw, ColorReading: 400, SpoilCopies: 10})
		assert.GreaterOrEqual(t, cur.UsageCharge, prev.UsageCharge, "bw=%v", bw)
		assert.GreaterOrEqual(t, cur.TotalDue, prev.TotalDue, "bw=%v", bw)
		prev = cur
	}
}

func TestCompute_ChargeableCountsStayUnrounded(t *testing.T) {
	b := Compute(Profile{BWRate: 0.1}, Reading{BWReading: 10.125})
	f := b.Formatted()
	assert.Equal(t, 10.125, f.ChargeableBW)
	assert.Equal(t, "10.13", f.NetBW)
}

func TestBreakdown_LineAmounts(t *testing.T) {
	p := standardProfile()
	b := Compute(p, Reading{BWReading: 1500, ColorReading: 300})
	assert.Equal(t, "25.00", FormatMoney(b.BWAmount(p)))
	assert.Equal(t, "15.00", FormatMoney(b.ColorAmount(p)))
}
