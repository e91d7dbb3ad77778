package kiosk

import (
	"sync"

	"github.com/shopspring/decimal"

	"crustalyst/internal/domain"
)

type CartLine struct {
	Item                domain.MenuItem
	Quantity            int
	SpecialInstructions string
}

func (l CartLine) Total() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart lives only on the kiosk until it is submitted.
type Cart struct {
	mu    sync.Mutex
	lines []CartLine
}

// Add puts one more of item in the cart, merging with an existing line.
func (c *Cart) Add(item domain.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Item.ID == item.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, CartLine{Item: item, Quantity: 1})
}

func (c *Cart) Remove(itemID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// SetQuantity ignores values below 1; use Remove to drop a line.
func (c *Cart) SetQuantity(itemID, qty int) {
	if qty < 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			c.lines[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) SetInstructions(itemID int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			c.lines[i].SpecialInstructions = text
			return
		}
	}
}

func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CartLine(nil), c.lines...)
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines() {
		total = total.Add(l.Total())
	}
	return total
}

// Count is the number of units, not lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines() {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Empty() bool { return c.Count() == 0 }

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Request builds the submission body. Prices are not sent: the server
// resolves them.
func (c *Cart) Request(notes string) domain.CreateOrderRequest {
	lines := c.Lines()
	req := domain.CreateOrderRequest{Items: make([]domain.CreateOrderItem, 0, len(lines)), Notes: notes}
	for _, l := range lines {
		req.Items = append(req.Items, domain.CreateOrderItem{
			MenuItemID:          l.Item.ID,
			Quantity:            l.Quantity,
			SpecialInstructions: l.SpecialInstructions,
		})
	}
	return req
}
