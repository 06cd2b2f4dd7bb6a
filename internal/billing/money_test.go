package billing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	cases := map[float64]string{
		0:          "0.00",
		40:         "40.00",
		1.005:      "1.01",
		2.675:      "2.68",
		0.125:      "0.13",
		19.994:     "19.99",
		1234.5:     "1234.50",
		math.NaN(): "0.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(in), "input %v", in)
	}
	assert.Equal(t, "0.00", FormatMoney(math.Inf(1)))
}

func TestInvoiceTotal_RoundsPerCopierBeforeSumming(t *testing.T) {
	// Each copier owes 10.005 which rounds to 10.01, so three of them
	// total 30.03 even though the unrounded sum is below 30.02.
	p := Profile{RentalFee: 10.005}
	b := Compute(p, Reading{})
	assert.Equal(t, "10.01", b.Formatted().TotalDue)
	assert.Equal(t, "30.03", InvoiceTotal(b, b, b).StringFixed(2))
}

func TestInvoiceTotal_MatchesSumOfFormattedLines(t *testing.T) {
	p := standardProfile()
	lines := []Breakdown{
		Compute(p, Reading{BWReading: 1500, ColorReading: 300}),
		Compute(p, Reading{BWReading: 1000, ColorReading: 200}),
		Compute(p, Reading{BWReading: 2345.67, ColorReading: 456.78, SpoilCopies: 3}),
	}

	var sum float64
	for _, l := range lines {
		d, err := ParseMoney(l.Formatted().TotalDue)
		require.NoError(t, err)
		f, _ := d.Float64()
		sum += f
	}
	assert.Equal(t, FormatMoney(sum), InvoiceTotal(lines...).StringFixed(2))
}

func TestInvoiceTotal_Empty(t *testing.T) {
	assert.Equal(t, "0.00", InvoiceTotal().StringFixed(2))
}

func TestParseMoney_Invalid(t *testing.T) {
	_, err := ParseMoney("abc")
	assert.Error(t, err)
}
