package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// LocalizedText holds the English and Norwegian variants of a catalog string.
type LocalizedText struct {
	En string `json:"en"`
	No string `json:"no"`
}

// Value implements driver.Valuer so the pair can live in a single json column.
func (t LocalizedText) Value() (driver.Value, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (t *LocalizedText) Scan(src any) error {
	if t == nil {
		return fmt.Errorf("scan into nil LocalizedText")
	}
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = LocalizedText{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported LocalizedText source %T", src)
	}
	if len(raw) == 0 {
		*t = LocalizedText{}
		return nil
	}
	return json.Unmarshal(raw, t)
}
