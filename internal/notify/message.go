package notify

import (
	"fmt"
	"strings"

	"github.com/salewatch/salewatch/internal/domain"
)

// boldDiscountThreshold marks deep discounts with a fire emphasis line.
const boldDiscountThreshold = 40

// FormatMessage renders the notification caption for a qualifying record.
// Markdown, one line per field: brand header, linked name with a
// selling-fast marker, current price with discount, previous price,
// product code, and a hashtag derived from the lowercased brand name.
func FormatMessage(p *domain.Product, productBaseURL string) string {
	name := p.Name
	if p.SellingFast {
		name += " (⚡️)"
	}

	priceLine := fmt.Sprintf("🏷 £%.2f ( - %d%% )", p.CurrentPrice, p.DiscountPercent)
	if p.DiscountPercent >= boldDiscountThreshold {
		priceLine = fmt.Sprintf("*🔥 £%.2f ( - %d%% )*", p.CurrentPrice, p.DiscountPercent)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", p.BrandName)
	fmt.Fprintf(&b, "[%s](%s%s)\n", name, productBaseURL, p.URL)
	fmt.Fprintf(&b, "%s\n", priceLine)
	fmt.Fprintf(&b, "Was: £%.2f\n", p.PreviousPrice)
	fmt.Fprintf(&b, "Code: %d\n", p.ProductCode)
	b.WriteString(Hashtag(p.BrandName))

	return b.String()
}

// Hashtag derives a hashtag from a brand name: lowercased, spaces joined
// with underscores.
func Hashtag(brandName string) string {
	return "#" + strings.Join(strings.Fields(strings.ToLower(brandName)), "_")
}
