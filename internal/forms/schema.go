package forms

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"ev-tracker/internal/apperr"
)

// Kind is the value type a form key accepts.
type Kind string

const (
	KindString Kind = "string"
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindEnum   Kind = "enum"
)

// Field describes one accepted key.
type Field struct {
	Key     string   `json:"key"`
	Kind    Kind     `json:"kind"`
	Label   string   `json:"label"`
	Options []string `json:"options,omitempty"`
	MaxLen  int      `json:"max_len,omitempty"`
	// Min is the smallest accepted value for int fields. Nil means unbounded.
	Min *int64 `json:"min,omitempty"`
}

// AtLeast returns a lower bound for Field.Min.
func AtLeast(n int64) *int64 { return &n }

// Schema is a fixed set of fields. Values outside the schema are rejected on write.
type Schema struct {
	name   string
	fields map[string]Field
	order  []string
}

func NewSchema(name string, fields ...Field) Schema {
	s := Schema{name: name, fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		s.fields[f.Key] = f
		s.order = append(s.order, f.Key)
	}
	return s
}

// Fields returns the schema in declaration order.
func (s Schema) Fields() []Field {
	out := make([]Field, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.fields[k])
	}
	return out
}

// Values is a validated key to typed value map. Values hold string, bool or int64.
type Values map[string]any

// Validate checks raw against the schema and returns normalized values.
// JSON numbers must be integral for int fields.
func (s Schema) Validate(raw map[string]any) (Values, error) {
	out := make(Values, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f, ok := s.fields[k]
		if !ok {
			return nil, apperr.BadRequest("%s: unknown field %q", s.name, k)
		}
		v := raw[k]
		if v == nil {
			continue
		}
		nv, err := coerce(f, v)
		if err != nil {
			return nil, apperr.BadRequest("%s: %s: %v", s.name, k, err)
		}
		out[k] = nv
	}
	return out, nil
}

// Merge validates patch and overlays it on current. A JSON null in patch removes the key.
func (s Schema) Merge(current Values, patch map[string]any) (Values, error) {
	valid, err := s.Validate(patch)
	if err != nil {
		return nil, err
	}
	out := make(Values, len(current)+len(valid))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
		}
	}
	for k, v := range valid {
		out[k] = v
	}
	return out, nil
}

func coerce(f Field, v any) (any, error) {
	switch f.Kind {
	case KindString:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string")
		}
		str = strings.TrimSpace(str)
		if f.MaxLen > 0 && len(str) > f.MaxLen {
			return nil, fmt.Errorf("longer than %d characters", f.MaxLen)
		}
		return str, nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean")
		}
		return b, nil
	case KindInt:
		n, err := toInt(v)
		if err != nil {
			return nil, err
		}
		if f.Min != nil && n < *f.Min {
			return nil, fmt.Errorf("must be at least %d", *f.Min)
		}
		return n, nil
	case KindEnum:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected one of %s", strings.Join(f.Options, ", "))
		}
		for _, o := range f.Options {
			if o == str {
				return str, nil
			}
		}
		return nil, fmt.Errorf("expected one of %s", strings.Join(f.Options, ", "))
	default:
		return nil, fmt.Errorf("unsupported kind %q", f.Kind)
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("expected integer")
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("expected integer")
		}
		return i, nil
	default:
		return 0, fmt.Errorf("expected integer")
	}
}
