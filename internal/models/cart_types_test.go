package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLineKeyNormalizes(t *testing.T) {
	assert.Equal(t, LineKey{ProductID: "p1", Size: "M"}, NewLineKey(" p1 ", " m"))
	assert.Equal(t, NewLineKey("p1", "xl"), NewLineKey("p1", "XL"))
	assert.Equal(t, "p1__XL", NewLineKey("p1", "xl").String())
}

func TestCartTotals(t *testing.T) {
	c := NewCart("u1")
	c.Put(&CartLine{ProductID: "a", Size: "M", Quantity: 2, UnitPrice: decimal.NewFromInt(10)})
	c.Put(&CartLine{ProductID: "b", Size: "L", Quantity: 3, UnitPrice: decimal.RequireFromString("2.50")})

	assert.True(t, c.Subtotal().Equal(decimal.RequireFromString("27.50")))
	assert.Equal(t, 5, c.TotalItems())

	assert.True(t, c.Remove(NewLineKey("a", "m")))
	assert.False(t, c.Remove(NewLineKey("a", "m")))
	assert.True(t, c.Subtotal().Equal(decimal.RequireFromString("7.50")))
}

func TestSortedLinesIsStable(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCart("u1")
	c.Put(&CartLine{ProductID: "b", Size: "M", Quantity: 1, AddedAt: t0})
	c.Put(&CartLine{ProductID: "a", Size: "M", Quantity: 1, AddedAt: t0})
	c.Put(&CartLine{ProductID: "c", Size: "S", Quantity: 1, AddedAt: t0.Add(-time.Minute)})

	lines := c.SortedLines()
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{lines[0].ProductID, lines[1].ProductID, lines[2].ProductID})
}

func TestCloneIsDeep(t *testing.T) {
	c := NewCart("u1")
	c.Put(&CartLine{ProductID: "a", Size: "M", Quantity: 1})

	cp := c.Clone()
	cp.Lines[NewLineKey("a", "M")].Quantity = 9

	assert.Equal(t, 1, c.Lines[NewLineKey("a", "M")].Quantity)
}

func TestProductHasSize(t *testing.T) {
	p := &Product{Sizes: []string{"s", "M"}}
	assert.True(t, p.HasSize("S"))
	assert.True(t, p.HasSize("M"))
	assert.False(t, p.HasSize("XL"))

	assert.True(t, (&Product{}).HasSize("ANY"))
	assert.Equal(t, "", (*Product)(nil).PrimaryImage())
}
