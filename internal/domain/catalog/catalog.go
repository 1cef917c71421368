// Package catalog is the fixed table of website packages and their prices.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
)

//go:embed plans.yaml
var defaultPlans []byte

// Plan is one purchasable package. Cents, USD and Display describe the same price.
type Plan struct {
	Name    string `yaml:"name" json:"name"`
	Cents   int64  `yaml:"cents" json:"cents"`
	USD     string `yaml:"usd" json:"usd"`
	Display string `yaml:"display" json:"display"`
}

type Catalog struct {
	plans  []Plan
	byName map[string]Plan
}

var defaultCatalog = mustParse(defaultPlans)

// Default returns the embedded catalog.
func Default() *Catalog {
	return defaultCatalog
}

func mustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded plans are invalid: %v", err))
	}
	return c
}

// Parse decodes a YAML plan list and checks that every price agrees with itself.
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse plans: %w", err)
	}
	if len(doc.Plans) == 0 {
		return nil, fmt.Errorf("no plans defined")
	}

	c := &Catalog{byName: make(map[string]Plan, len(doc.Plans))}
	for _, p := range doc.Plans {
		if p.Name == "" {
			return nil, fmt.Errorf("plan without a name")
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("plan %q defined twice", p.Name)
		}
		if p.Cents <= 0 {
			return nil, fmt.Errorf("plan %q: price must be positive", p.Name)
		}
		if want := CentsToUSD(p.Cents); p.USD != want {
			return nil, fmt.Errorf("plan %q: usd %q does not match %d cents (want %q)", p.Name, p.USD, p.Cents, want)
		}
		if want := FormatDisplay(p.Cents); p.Display != want {
			return nil, fmt.Errorf("plan %q: display %q does not match %d cents (want %q)", p.Name, p.Display, p.Cents, want)
		}
		c.plans = append(c.plans, p)
		c.byName[p.Name] = p
	}
	return c, nil
}

// Lookup returns the plan named name, or ErrInvalidPlan.
func (c *Catalog) Lookup(name string) (Plan, error) {
	p, ok := c.byName[name]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", domainErrors.ErrInvalidPlan, name)
	}
	return p, nil
}

// Plans returns the plans in catalog order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

func (c *Catalog) PriceDisplay(name string) (string, error) {
	p, err := c.Lookup(name)
	return p.Display, err
}

func (c *Catalog) PriceCents(name string) (int64, error) {
	p, err := c.Lookup(name)
	return p.Cents, err
}

func (c *Catalog) PriceDecimalUSD(name string) (string, error) {
	p, err := c.Lookup(name)
	return p.USD, err
}

// CentsToUSD renders minor units as a two-decimal string, e.g. 90000 -> "900.00".
func CentsToUSD(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// FormatDisplay renders cents the way prices are shown on the site: "$2,700",
// with cents only when they are not zero ("$12.50").
func FormatDisplay(cents int64) string {
	amount := decimal.New(cents, -2)
	whole := amount.Truncate(0)

	digits := whole.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if frac := amount.Sub(whole); !frac.IsZero() {
		return "$" + b.String() + "." + amount.StringFixed(2)[len(amount.StringFixed(2))-2:]
	}
	return "$" + b.String()
}
