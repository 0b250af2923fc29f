package cart

import "github.com/shopspring/decimal"

// Cart is an ordered list of line items, unique by id.
type Cart []LineItem

func (c Cart) index(id ProductID) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the line item with the given id.
func (c Cart) Find(id ProductID) (LineItem, bool) {
	if i := c.index(id); i >= 0 {
		return c[i], true
	}
	return LineItem{}, false
}

// Total is the plain float sum of price*quantity.
func (c Cart) Total() float64 {
	var total float64
	for _, item := range c {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// ItemCount sums quantities, not distinct entries.
func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c {
		count += item.Quantity
	}
	return count
}

// FormattedTotal renders the total with two decimals for display.
func (c Cart) FormattedTotal() string {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.StringFixed(2)
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
