package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/iancoleman/orderedmap"
)

// ExportJSON converts a value into plain Go data suitable for encoding/json.
// Array-like objects become slices, other objects keep their key order.
// Functions and iterators are exported by their display text.
func ExportJSON(v *Value) (any, error) {
	return exportJSON(v, make(map[*OrderedMap]bool))
}

func exportJSON(v *Value, active map[*OrderedMap]bool) (any, error) {
	switch v.Kind() {
	case KindEmpty:
		return nil, nil
	case KindNumber:
		d, _ := v.Number()
		return json.Number(d.String()), nil
	case KindString:
		s, _ := v.Str()
		return s, nil
	case KindBoolean:
		b, _ := v.Bool()
		return b, nil
	case KindObject:
		m, _ := v.Map()
		if active[m] {
			return nil, fmt.Errorf("cannot export circular reference to JSON")
		}
		active[m] = true
		defer delete(active, m)
		if m.IsArray() {
			items := make([]any, 0, m.Len())
			for _, item := range m.Values() {
				exported, err := exportJSON(item, active)
				if err != nil {
					return nil, err
				}
				items = append(items, exported)
			}
			return items, nil
		}
		out := orderedmap.New()
		out.SetEscapeHTML(false)
		var err error
		m.Range(func(key, value *Value) bool {
			var exported any
			exported, err = exportJSON(value, active)
			if err != nil {
				return false
			}
			out.Set(Display(key), exported)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return Display(v), nil
	}
}

// MarshalJSON encodes a value with ExportJSON.
func MarshalJSON(v *Value) ([]byte, error) {
	exported, err := ExportJSON(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(exported)
}

// MarshalJSONIndent is MarshalJSON with indentation.
func MarshalJSONIndent(v *Value, indent string) ([]byte, error) {
	exported, err := ExportJSON(v)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(exported, "", indent)
}
