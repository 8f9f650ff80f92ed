package cart

import (
	"github.com/irsalhamdi/govod-storefront/core/course"
	"github.com/shopspring/decimal"
)

// Item is one course line. ID is the course id and is unique in a cart.
type Item struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Instructor    string           `json:"instructor"`
	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Quantity      int              `json:"quantity"`
	ImageRef      string           `json:"imageRef"`
}

type Cart struct {
	Items []Item `json:"items"`
}

func (c *Cart) find(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddItem inserts the course with quantity 1. Adding a course already in the
// cart refreshes its display fields and leaves the quantity alone, so repeated
// clicks never create a second line. It reports whether a line was added.
func (c *Cart) AddItem(co course.Course) bool {
	it := Item{
		ID:            co.ID,
		Title:         co.Title,
		Instructor:    co.Instructor,
		UnitPrice:     co.Price,
		OriginalPrice: co.OriginalPrice,
		Quantity:      1,
		ImageRef:      co.ImageURL,
	}

	if i := c.find(co.ID); i >= 0 {
		it.Quantity = c.Items[i].Quantity
		c.Items[i] = it
		return false
	}

	c.Items = append(c.Items, it)
	return true
}

// UpdateQuantity is a no-op for quantities below 1 and for unknown ids.
func (c *Cart) UpdateQuantity(id string, quantity int) bool {
	if quantity < 1 {
		return false
	}
	i := c.find(id)
	if i < 0 {
		return false
	}
	c.Items[i].Quantity = quantity
	return true
}

func (c *Cart) RemoveItem(id string) bool {
	i := c.find(id)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Empty() bool { return len(c.Items) == 0 }

// Totals recomputes the totals from the current lines.
func (c *Cart) Totals() Totals {
	return ComputeTotals(c.Items)
}
