package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultQuantity is used when a caller does not specify how many units to add.
const DefaultQuantity = 1

// ProductID identifies a product by its string form. Numeric JSON ids decode to the same value as
// their string spelling, so 7 and "7" address the same line item.
type ProductID string

func (id ProductID) String() string { return string(id) }

func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = ProductID(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// LineItem is one product in the cart. Name, description and price are captured when the item is
// added and never refreshed from the catalog.
type LineItem struct {
	ID          ProductID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       *int      `json:"stock,omitempty"`
	ImageURL    *string   `json:"image_url"`
	Quantity    int       `json:"quantity"`
}
