package notify_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/notify"
)

func TestFormatMessage(t *testing.T) {
	p := &domain.Product{
		ID:              1,
		Name:            "1460 Boots",
		BrandName:       "Dr Martens",
		CurrentPrice:    95.5,
		PreviousPrice:   159,
		DiscountPercent: 40,
		Currency:        "GBP",
		URL:             "dr-martens/1460-boots/prd/1",
		ProductCode:     125122786,
		SellingFast:     true,
	}

	msg := notify.FormatMessage(p, "https://www.asos.com/")

	assert.Contains(t, msg, "*Dr Martens*")
	assert.Contains(t, msg, "[1460 Boots (⚡️)](https://www.asos.com/dr-martens/1460-boots/prd/1)")
	assert.Contains(t, msg, "*🔥 £95.50 ( - 40% )*", "deep discounts are emphasized")
	assert.Contains(t, msg, "Was: £159.00")
	assert.Contains(t, msg, "Code: 125122786")
	assert.True(t, strings.HasSuffix(msg, "#dr_martens"))
}

func TestFormatMessage_ModestDiscount(t *testing.T) {
	p := &domain.Product{
		Name:            "Cap",
		BrandName:       "New Era",
		CurrentPrice:    18,
		PreviousPrice:   24,
		DiscountPercent: 25,
		URL:             "new-era/cap/prd/2",
	}

	msg := notify.FormatMessage(p, "https://www.asos.com/")

	assert.Contains(t, msg, "🏷 £18.00 ( - 25% )")
	assert.NotContains(t, msg, "🔥")
	assert.NotContains(t, msg, "⚡️", "no selling-fast marker when the flag is off")
}

func TestHashtag(t *testing.T) {
	tests := []struct {
		brand string
		want  string
	}{
		{"Dr Martens", "#dr_martens"},
		{"UGG", "#ugg"},
		{"The North Face", "#the_north_face"},
		{"  New   Balance ", "#new_balance"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, notify.Hashtag(tt.brand))
	}
}
