package forms

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Value stores Values as a JSONB document.
func (v Values) Value() (driver.Value, error) {
	if v == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(v))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSONB document. Integral numbers come back as int64.
func (v *Values) Scan(src any) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		*v = Values{}
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("forms: cannot scan %T into Values", src)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("forms: decode values: %w", err)
	}
	out := make(Values, len(raw))
	for k, val := range raw {
		if n, ok := val.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				out[k] = i
				continue
			}
			f, _ := n.Float64()
			out[k] = f
			continue
		}
		out[k] = val
	}
	*v = out
	return nil
}
