// Package domain provides domain models used across the application.
package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no record exists for a key.
var ErrNotFound = errors.New("record not found")

// Product is the canonical record for one upstream product. The upstream
// numeric ID is the sole reconciliation key.
type Product struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	BrandName       string    `db:"brand_name" json:"brand_name"`
	CurrentPrice    float64   `db:"current_price" json:"current_price"`
	PreviousPrice   float64   `db:"previous_price" json:"previous_price"`
	DiscountPercent int       `db:"discount_percent" json:"discount_percent"`
	Currency        string    `db:"currency" json:"currency"`
	URL             string    `db:"url" json:"url"`
	Images          []string  `db:"-" json:"images"`
	ProductCode     int64     `db:"product_code" json:"product_code"`
	SellingFast     bool      `db:"selling_fast" json:"selling_fast"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// PrimaryImage returns the first image URL, used as notification media.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
