package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item in the catalogue.
type Product struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Category     string          `json:"category" db:"category"`
	CountInStock int             `json:"countInStock" db:"count_in_stock"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// PriceMinor returns the product price in minor currency units (e.g. paise).
func (p Product) PriceMinor() int64 {
	return ToMinorUnits(p.Price)
}

// ToMinorUnits converts a decimal amount in major units to minor units, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
