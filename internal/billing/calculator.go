// Package billing holds the meter-reading charge calculation shared by the
// invoicing workflow, the preview endpoint and the CLI.
package billing

import "math"

// spoilShare is the fraction of spoiled copies deducted from each counter.
// Spoilage is split evenly between B&W and color regardless of which
// counter actually produced the waste.
const spoilShare = 0.5

// Profile is the static billing configuration of one copier.
type Profile struct {
	ID             string  `json:"id"`
	Model          string  `json:"model"`
	BWRate         float64 `json:"bwRate"`
	ColorRate      float64 `json:"colorRate"`
	FreeBW         float64 `json:"freeBw"`
	FreeColor      float64 `json:"freeColor"`
	RentalFee      float64 `json:"rentalFee"`
	MinUsageCharge float64 `json:"minUsageCharge"`
}

// Reading is one billing period's meter submission for one copier.
type Reading struct {
	BWReading    float64 `json:"bwReading"`
	ColorReading float64 `json:"colorReading"`
	SpoilCopies  float64 `json:"spoilCopies"`
}

// Breakdown is the derived charge for one copier. Values are unrounded;
// use Formatted or Money at presentation time.
type Breakdown struct {
	NetBW           float64 `json:"netBw"`
	NetColor        float64 `json:"netColor"`
	ChargeableBW    float64 `json:"chargeableBw"`
	ChargeableColor float64 `json:"chargeableColor"`
	UsageCharge     float64 `json:"usageCharge"`
	TotalCharge     float64 `json:"totalCharge"`
	TotalDue        float64 `json:"totalDue"`
}

// Compute derives the charge breakdown for a reading against a profile.
// The minimum usage charge is a floor on usage only and is applied per
// copier before the rental fee is added.
func Compute(p Profile, r Reading) Breakdown {
	spoil := r.SpoilCopies * spoilShare

	netBW := math.Max(0, r.BWReading-spoil)
	netColor := math.Max(0, r.ColorReading-spoil)

	chargeableBW := math.Max(0, netBW-p.FreeBW)
	chargeableColor := math.Max(0, netColor-p.FreeColor)

	usage := chargeableBW*p.BWRate + chargeableColor*p.ColorRate
	total := math.Max(usage, p.MinUsageCharge)

	return Breakdown{
		NetBW:           netBW,
		NetColor:        netColor,
		ChargeableBW:    chargeableBW,
		ChargeableColor: chargeableColor,
		UsageCharge:     usage,
		TotalCharge:     total,
		TotalDue:        p.RentalFee + total,
	}
}

// BWAmount is the B&W share of the usage charge, unrounded.
func (b Breakdown) BWAmount(p Profile) float64 { return b.ChargeableBW * p.BWRate }

// ColorAmount is the color share of the usage charge, unrounded.
func (b Breakdown) ColorAmount(p Profile) float64 { return b.ChargeableColor * p.ColorRate }

// Formatted is the presentation view of a Breakdown: monetary fields and
// net readings carry exactly two fraction digits, chargeable counts stay
// unrounded.
type Formatted struct {
	NetBW           string  `json:"netBw"`
	NetColor        string  `json:"netColor"`
	ChargeableBW    float64 `json:"chargeableBw"`
	ChargeableColor float64 `json:"chargeableColor"`
	UsageCharge     string  `json:"usageCharge"`
	TotalCharge     string  `json:"totalCharge"`
	TotalDue        string  `json:"totalDue"`
}

// Formatted rounds the breakdown for display and persistence.
func (b Breakdown) Formatted() Formatted {
	return Formatted{
		NetBW:           FormatMoney(b.NetBW),
		NetColor:        FormatMoney(b.NetColor),
		ChargeableBW:    b.ChargeableBW,
		ChargeableColor: b.ChargeableColor,
		UsageCharge:     FormatMoney(b.UsageCharge),
		TotalCharge:     FormatMoney(b.TotalCharge),
		TotalDue:        FormatMoney(b.TotalDue),
	}
}
