// Package orderid generates human-facing order numbers.
package orderid

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// DateLayout renders order dates, e.g. "March 5, 2025 at 2:07 PM".
const DateLayout = "January 2, 2006 at 3:04 PM"

// Identity is the order number and display date assigned once per order.
type Identity struct {
	OrderID   string `json:"orderId"`
	OrderDate string `json:"orderDate"`
}

// Generator builds identities of the form PND-<last 6 digits of epoch ms>-<0..999>.
// Ids are unique with high probability only.
type Generator struct {
	now      func() time.Time
	mu       sync.Mutex
	rnd      *rand.Rand
	location *time.Location
}

type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithSource replaces the random source.
func WithSource(src rand.Source) Option {
	return func(g *Generator) { g.rnd = rand.New(src) }
}

// WithLocation sets the zone used for the display date.
func WithLocation(loc *time.Location) Option {
	return func(g *Generator) { g.location = loc }
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		location: time.Local,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) New() Identity {
	now := g.now()

	g.mu.Lock()
	suffix := g.rnd.Intn(1000)
	g.mu.Unlock()

	return Identity{
		OrderID:   fmt.Sprintf("PND-%06d-%d", now.UnixMilli()%1_000_000, suffix),
		OrderDate: now.In(g.location).Format(DateLayout),
	}
}
