// Package normalize maps raw upstream listing items into canonical
// product records.
package normalize

import (
	"math"
	"time"

	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/fetcher"
)

const percentScale = 100

// Product maps one raw item to a canonical record. Pure, no I/O.
//
// previous price falls back to the recommended retail price when the
// upstream previous value is absent or zero; when both are absent the
// previous price stays zero and the discount resolves to zero. A
// negative upstream previous price does not trigger the fallback and is
// stored as-is, with the discount resolving to zero.
// updated_at is set to now, which callers take from a single clock per
// reconciliation pass.
func Product(item fetcher.RawItem, now time.Time) domain.Product {
	previous := item.Price.Previous.Value
	if previous == 0 {
		previous = item.Price.RRP.Value
	}

	images := make([]string, 0, len(item.AdditionalImageURLs)+1)
	images = append(images, item.ImageURL)
	images = append(images, item.AdditionalImageURLs...)

	return domain.Product{
		ID:              item.ID,
		Name:            item.Name,
		BrandName:       item.BrandName,
		CurrentPrice:    item.Price.Current.Value,
		PreviousPrice:   previous,
		DiscountPercent: discountPercent(item.Price.Current.Value, previous),
		Currency:        item.Price.Currency,
		URL:             item.URL,
		Images:          images,
		ProductCode:     item.ProductCode,
		SellingFast:     item.IsSellingFast,
		UpdatedAt:       now.UTC(),
	}
}

// discountPercent derives round((1 - current/previous) * 100) using
// round-half-away-from-zero (math.Round). A zero, negative, or otherwise
// degenerate previous price resolves to 0 rather than an error, and the
// result is clamped to [0, 100] so an unchanged or raised price reads
// as no discount and a malformed negative current price cannot exceed
// full discount.
func discountPercent(current, previous float64) int {
	if previous <= 0 {
		return 0
	}

	ratio := current / previous
	pct := math.Round((1 - ratio) * percentScale)
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	if pct < 0 {
		return 0
	}
	if pct > percentScale {
		return percentScale
	}

	return int(pct)
}
