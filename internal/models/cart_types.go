package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownProductName is shown for a cart line whose product no longer exists.
const UnknownProductName = "Unknown Product"

// NormalizeSize trims and upper-cases a size so "m", " M" and "M" are one line.
func NormalizeSize(size string) string {
	return strings.ToUpper(strings.TrimSpace(size))
}

// LineKey identifies a cart line. A cart holds at most one line per key.
type LineKey struct {
	ProductID string
	Size      string
}

// NewLineKey builds a key with a trimmed product id and a normalized size.
func NewLineKey(productID, size string) LineKey {
	return LineKey{ProductID: strings.TrimSpace(productID), Size: NormalizeSize(size)}
}

func (k LineKey) String() string {
	return k.ProductID + "__" + k.Size
}

// CartLine is one (product, size) entry. UnitPrice, Name and Image are a
// snapshot taken when the line was first added.
type CartLine struct {
	ProductID string          `json:"productId"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	AddedAt   time.Time       `json:"addedAt"`
	UpdatedAt time.Time       `json:"lastUpdated"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.Size}
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a user's set of cart lines.
type Cart struct {
	UserID    string
	Lines     map[LineKey]*CartLine
	UpdatedAt time.Time
}

func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Lines: make(map[LineKey]*CartLine)}
}

func (c *Cart) Line(key LineKey) (*CartLine, bool) {
	l, ok := c.Lines[key]
	return l, ok
}

// Put inserts or replaces the line under its own key.
func (c *Cart) Put(line *CartLine) {
	if c.Lines == nil {
		c.Lines = make(map[LineKey]*CartLine)
	}
	c.Lines[line.Key()] = line
}

// Remove deletes the line and reports whether it was present.
func (c *Cart) Remove(key LineKey) bool {
	if _, ok := c.Lines[key]; !ok {
		return false
	}
	delete(c.Lines, key)
	return true
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// SortedLines returns copies of the lines ordered by when they were added,
// then by key, so responses are stable.
func (c *Cart) SortedLines() []CartLine {
	out := make([]CartLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].Size < out[j].Size
	})
	return out
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	cp := &Cart{UserID: c.UserID, UpdatedAt: c.UpdatedAt, Lines: make(map[LineKey]*CartLine, len(c.Lines))}
	for k, l := range c.Lines {
		line := *l
		cp.Lines[k] = &line
	}
	return cp
}

// CartView is the reconciled cart returned to clients.
type CartView struct {
	UserID     string          `json:"userId"`
	Items      []CartLine      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"totalItems"`
}
