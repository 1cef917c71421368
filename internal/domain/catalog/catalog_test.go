package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
)

func TestDefaultCatalog(t *testing.T) {
	tests := []struct {
		plan    string
		cents   int64
		usd     string
		display string
	}{
		{"Basic", 30000, "300.00", "$300"},
		{"Professional", 90000, "900.00", "$900"},
		{"E-commerce", 270000, "2700.00", "$2,700"},
	}

	c := Default()
	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			cents, err := c.PriceCents(tt.plan)
			require.NoError(t, err)
			assert.Equal(t, tt.cents, cents)

			usd, err := c.PriceDecimalUSD(tt.plan)
			require.NoError(t, err)
			assert.Equal(t, tt.usd, usd)

			display, err := c.PriceDisplay(tt.plan)
			require.NoError(t, err)
			assert.Equal(t, tt.display, display)
		})
	}

	assert.Len(t, c.Plans(), 3)
}

func TestUnknownPlan(t *testing.T) {
	c := Default()

	for _, name := range []string{"", "Enterprise", "basic"} {
		_, err := c.PriceCents(name)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidPlan, name)

		_, err = c.PriceDisplay(name)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidPlan, name)

		_, err = c.PriceDecimalUSD(name)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidPlan, name)
	}
}

func TestParseRejectsDisagreeingPrices(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"usd mismatch", "plans:\n  - {name: A, cents: 30000, usd: \"301.00\", display: \"$300\"}\n"},
		{"display mismatch", "plans:\n  - {name: A, cents: 30000, usd: \"300.00\", display: \"$30\"}\n"},
		{"duplicate", "plans:\n  - {name: A, cents: 100, usd: \"1.00\", display: \"$1\"}\n  - {name: A, cents: 100, usd: \"1.00\", display: \"$1\"}\n"},
		{"zero price", "plans:\n  - {name: A, cents: 0, usd: \"0.00\", display: \"$0\"}\n"},
		{"empty", "plans: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestFormatDisplay(t *testing.T) {
	assert.Equal(t, "$1", FormatDisplay(100))
	assert.Equal(t, "$999", FormatDisplay(99900))
	assert.Equal(t, "$1,000", FormatDisplay(100000))
	assert.Equal(t, "$1,234,567", FormatDisplay(123456700))
	assert.Equal(t, "$12.50", FormatDisplay(1250))
	assert.Equal(t, "$0.05", FormatDisplay(5))
}
