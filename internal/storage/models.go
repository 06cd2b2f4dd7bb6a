package storage

import (
	"time"

	"github.com/bher20/copierbill/internal/billing"
)

// Customer is a rental customer and the copiers billed to them.
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id"`
	Name      string    `json:"name" gorm:"column:name"`
	Email     string    `json:"email,omitempty" gorm:"column:email"`
	Copiers   []Copier  `json:"copiers" gorm:"foreignKey:CustomerID;references:ID"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

// Copier carries the billing profile of one rented machine.
type Copier struct {
	ID             string  `json:"id" gorm:"primaryKey;column:id"`
	CustomerID     string  `json:"-" gorm:"column:customer_id"`
	Position       int     `json:"-" gorm:"column:position"`
	Model          string  `json:"model" gorm:"column:model"`
	BWRate         float64 `json:"bwRate" gorm:"column:bw_rate"`
	ColorRate      float64 `json:"colorRate" gorm:"column:color_rate"`
	FreeBW         float64 `json:"freeBw" gorm:"column:free_bw"`
	FreeColor      float64 `json:"freeColor" gorm:"column:free_color"`
	RentalFee      float64 `json:"rentalFee" gorm:"column:rental_fee"`
	MinUsageCharge float64 `json:"minUsageCharge" gorm:"column:min_usage_charge"`
}

func (c Copier) Profile() billing.Profile {
	return billing.Profile{
		ID:             c.ID,
		Model:          c.Model,
		BWRate:         c.BWRate,
		ColorRate:      c.ColorRate,
		FreeBW:         c.FreeBW,
		FreeColor:      c.FreeColor,
		RentalFee:      c.RentalFee,
		MinUsageCharge: c.MinUsageCharge,
	}
}

// CopierFromProfile is the inverse of Copier.Profile.
func CopierFromProfile(p billing.Profile) Copier {
	return Copier{
		ID:             p.ID,
		Model:          p.Model,
		BWRate:         p.BWRate,
		ColorRate:      p.ColorRate,
		FreeBW:         p.FreeBW,
		FreeColor:      p.FreeColor,
		RentalFee:      p.RentalFee,
		MinUsageCharge: p.MinUsageCharge,
	}
}

// Invoice is an issued invoice. Invoices are written once and never
// modified.
type Invoice struct {
	ID           string        `json:"id" gorm:"primaryKey;column:id"`
	CustomerID   string        `json:"customerId" gorm:"column:customer_id"`
	CustomerName string        `json:"customerName" gorm:"column:customer_name"`
	Month        string        `json:"month" gorm:"column:month"`
	Year         string        `json:"year" gorm:"column:year"`
	Lines        []InvoiceLine `json:"copiers" gorm:"foreignKey:InvoiceID;references:ID"`
	TotalDue     string        `json:"totalDue" gorm:"column:total_due"`
	DateIssued   string        `json:"dateIssued" gorm:"column:date_issued"`
	CreatedAt    time.Time     `json:"createdAt" gorm:"column:created_at"`
}

// InvoiceLine is one copier on an invoice: a snapshot of its profile, the
// submitted reading and the formatted charge breakdown.
type InvoiceLine struct {
	ID        uint   `json:"-" gorm:"primaryKey;autoIncrement;column:id"`
	InvoiceID string `json:"-" gorm:"column:invoice_id"`
	Position  int    `json:"-" gorm:"column:position"`

	CopierID       string  `json:"copierId" gorm:"column:copier_id"`
	Model          string  `json:"model" gorm:"column:model"`
	BWRate         float64 `json:"bwRate" gorm:"column:bw_rate"`
	ColorRate      float64 `json:"colorRate" gorm:"column:color_rate"`
	FreeBW         float64 `json:"freeBw" gorm:"column:free_bw"`
	FreeColor      float64 `json:"freeColor" gorm:"column:free_color"`
	RentalFee      float64 `json:"rentalFee" gorm:"column:rental_fee"`
	MinUsageCharge float64 `json:"minUsageCharge" gorm:"column:min_usage_charge"`

	BWReading    float64 `json:"bwReading" gorm:"column:bw_reading"`
	ColorReading float64 `json:"colorReading" gorm:"column:color_reading"`
	SpoilCopies  float64 `json:"spoilCopies" gorm:"column:spoil_copies"`

	NetBW           string  `json:"netBw" gorm:"column:net_bw"`
	NetColor        string  `json:"netColor" gorm:"column:net_color"`
	ChargeableBW    float64 `json:"chargeableBw" gorm:"column:chargeable_bw"`
	ChargeableColor float64 `json:"chargeableColor" gorm:"column:chargeable_color"`
	UsageCharge     string  `json:"usageCharge" gorm:"column:usage_charge"`
	TotalCharge     string  `json:"totalCharge" gorm:"column:total_charge"`
	TotalDue        string  `json:"totalDue" gorm:"column:total_due"`
}

// NewInvoiceLine snapshots a computed copier charge.
func NewInvoiceLine(p billing.Profile, r billing.Reading, b billing.Breakdown) InvoiceLine {
	f := b.Formatted()
	return InvoiceLine{
		CopierID:        p.ID,
		Model:           p.Model,
		BWRate:          p.BWRate,
		ColorRate:       p.ColorRate,
		FreeBW:          p.FreeBW,
		FreeColor:       p.FreeColor,
		RentalFee:       p.RentalFee,
		MinUsageCharge:  p.MinUsageCharge,
		BWReading:       r.BWReading,
		ColorReading:    r.ColorReading,
		SpoilCopies:     r.SpoilCopies,
		NetBW:           f.NetBW,
		NetColor:        f.NetColor,
		ChargeableBW:    f.ChargeableBW,
		ChargeableColor: f.ChargeableColor,
		UsageCharge:     f.UsageCharge,
		TotalCharge:     f.TotalCharge,
		TotalDue:        f.TotalDue,
	}
}

func (l InvoiceLine) Profile() billing.Profile {
	return billing.Profile{
		ID:             l.CopierID,
		Model:          l.Model,
		BWRate:         l.BWRate,
		ColorRate:      l.ColorRate,
		FreeBW:         l.FreeBW,
		FreeColor:      l.FreeColor,
		RentalFee:      l.RentalFee,
		MinUsageCharge: l.MinUsageCharge,
	}
}

func (l InvoiceLine) Reading() billing.Reading {
	return billing.Reading{
		BWReading:    l.BWReading,
		ColorReading: l.ColorReading,
		SpoilCopies:  l.SpoilCopies,
	}
}

// EmailConfig holds configuration for email notifications.
type EmailConfig struct {
	ID          string    `json:"id" gorm:"primaryKey;column:id"`
	Provider    string    `json:"provider" gorm:"column:provider"` // "smtp", "sendgrid", "gmail", "resend"
	Host        string    `json:"host,omitempty" gorm:"column:host"`
	Port        int       `json:"port,omitempty" gorm:"column:port"`
	Username    string    `json:"username,omitempty" gorm:"column:username"`
	Password    string    `json:"password,omitempty" gorm:"column:password"`
	FromAddress string    `json:"from_address" gorm:"column:from_address"`
	FromName    string    `json:"from_name" gorm:"column:from_name"`
	APIKey      string    `json:"api_key,omitempty" gorm:"column:api_key"`       // For Sendgrid and Resend
	Encryption  string    `json:"encryption,omitempty" gorm:"column:encryption"` // "none", "ssl", "tls"
	Enabled     bool      `json:"enabled" gorm:"column:enabled"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}
