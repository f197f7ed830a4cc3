package raw

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindNumber
	KindList
)

// Value is a single raw field value as delivered by a source: a string, a
// number, a list of strings, or nothing at all.
type Value struct {
	kind Kind
	str  string
	num  float64
	list []string
}

// Missing returns the empty value.
func Missing() Value { return Value{} }

// String wraps a scalar string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a scalar number.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// List wraps a list of strings. The slice is copied.
func List(items []string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// FromAny converts a decoded JSON / CSV / parquet value into a Value.
// Anything it does not recognise is formatted with %v and kept as a string.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Missing()
	case Value:
		return x
	case string:
		return String(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return String(x.String())
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case bool:
		return String(strconv.FormatBool(x))
	case []string:
		return List(x)
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			if item == nil {
				continue
			}
			switch it := item.(type) {
			case string:
				items = append(items, it)
			case map[string]any:
				// Goodreads genre objects: {"genre": {"name": "..."}}
				if name := nestedName(it); name != "" {
					items = append(items, name)
				}
			default:
				items = append(items, fmt.Sprint(it))
			}
		}
		return List(items)
	case map[string]any:
		if name := nestedName(x); name != "" {
			return String(name)
		}
		return Missing()
	default:
		return String(fmt.Sprint(v))
	}
}

func nestedName(m map[string]any) string {
	if name, ok := m["name"].(string); ok {
		return name
	}
	for _, v := range m {
		if inner, ok := v.(map[string]any); ok {
			if name, ok := inner["name"].(string); ok {
				return name
			}
		}
	}
	return ""
}

// Kind reports the variant held.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the value is absent, an empty string, an empty
// list, or one of the textual null spellings that spreadsheets produce.
func (v Value) IsMissing() bool {
	switch v.kind {
	case KindMissing:
		return true
	case KindString:
		return isNullText(v.str)
	case KindNumber:
		return math.IsNaN(v.num)
	case KindList:
		for _, item := range v.list {
			if !isNullText(item) {
				return false
			}
		}
		return true
	}
	return true
}

// Text returns the value as a single string. Numbers are formatted without a
// trailing ".0"; lists are joined with "; ". Missing values return "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		if isNullText(v.str) {
			return ""
		}
		return v.str
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return ""
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindList:
		return strings.Join(v.list, "; ")
	}
	return ""
}

// Items returns the list elements, or a one-element slice for a scalar.
// Callers that need delimiter splitting do it themselves.
func (v Value) Items() []string {
	switch v.kind {
	case KindList:
		out := make([]string, len(v.list))
		copy(out, v.list)
		return out
	case KindString, KindNumber:
		if t := v.Text(); t != "" {
			return []string{t}
		}
	}
	return nil
}

// Float returns the numeric payload when the value is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber || math.IsNaN(v.num) {
		return 0, false
	}
	return v.num, true
}

// MarshalJSON keeps the original shape so detail rows can carry the raw input.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindList:
		return json.Marshal(v.list)
	}
	return []byte("null"), nil
}

func isNullText(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return true
	}
	switch strings.ToLower(t) {
	case "nan", "none", "null", "<na>":
		return true
	}
	return false
}
