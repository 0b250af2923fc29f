package pending

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/cart"
)

// ErrMalformedRecord is returned when a stored record cannot be decoded into either shape.
var ErrMalformedRecord = errors.New("pending: malformed record")

// Record is an add-to-cart attempt deferred across a login redirect. It is either a Reference
// that needs a catalog lookup or a Snapshot that carries the line item itself.
type Record interface {
	requestedQuantity() int
}

// Reference points at a catalog product. Wire shape: {"productId": ..., "quantity": ...}.
type Reference struct {
	ProductID cart.ProductID `json:"productId"`
	Quantity  int            `json:"quantity,omitempty"`
}

func (r Reference) requestedQuantity() int { return r.Quantity }

// Snapshot embeds the line item captured at add time.
// Wire shape: {"id","name","description","price","stock","image_url","quantity"}.
type Snapshot struct {
	Item cart.LineItem
}

func (s Snapshot) requestedQuantity() int { return s.Item.Quantity }

// Quantity is the number of units to replay; an unspecified quantity means one.
func Quantity(r Record) int {
	if q := r.requestedQuantity(); q != 0 {
		return q
	}
	return cart.DefaultQuantity
}

// Encode serializes a record into its wire shape.
func Encode(r Record) (string, error) {
	var (
		raw []byte
		err error
	)
	switch rec := r.(type) {
	case Reference:
		raw, err = json.Marshal(rec)
	case Snapshot:
		raw, err = json.Marshal(rec.Item)
	default:
		return "", fmt.Errorf("unsupported pending record %T", r)
	}
	if err != nil {
		return "", fmt.Errorf("encode pending record: %w", err)
	}
	return string(raw), nil
}

// Decode parses a stored record. A "productId" field selects Reference, an "id" field selects
// Snapshot; anything else is malformed.
func Decode(raw string) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: not a json object", ErrMalformedRecord)
	}

	if productID, ok := fields["productId"]; ok && !isNull(productID) {
		var ref Reference
		if err := json.Unmarshal([]byte(raw), &ref); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		if ref.ProductID == "" {
			return nil, fmt.Errorf("%w: blank productId", ErrMalformedRecord)
		}
		return ref, nil
	}

	if id, ok := fields["id"]; ok && !isNull(id) {
		var item cart.LineItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		if item.ID == "" {
			return nil, fmt.Errorf("%w: blank id", ErrMalformedRecord)
		}
		return Snapshot{Item: item}, nil
	}

	return nil, fmt.Errorf("%w: neither productId nor id present", ErrMalformedRecord)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
