package dataset

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind identifies what a Value holds.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindString
)

// Value is one cell of a record: a number, a string, or missing.
// The zero Value is missing, so absent keys and explicit nulls read the same.
type Value struct {
	kind Kind
	num  float64
	str  string
}

func Num(f float64) Value { return Value{kind: KindNumber, num: f} }

func Str(s string) Value { return Value{kind: KindString, str: s} }

func Null() Value { return Value{} }

func (v Value) Kind() Kind { return v.kind }

// IsNumber reports whether v holds a float64, NaN included.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

func (v Value) IsString() bool { return v.kind == KindString }

// IsNull reports an explicit null or an absent key.
func (v Value) IsNull() bool { return v.kind == KindMissing }

// IsEmpty reports null or the empty string.
func (v Value) IsEmpty() bool {
	return v.kind == KindMissing || (v.kind == KindString && v.str == "")
}

// IsNaN reports a numeric NaN.
func (v Value) IsNaN() bool { return v.kind == KindNumber && math.IsNaN(v.num) }

// Float returns the numeric payload. ok is false for strings and missing values.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the string payload. ok is false for numbers and missing values.
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	default:
		return ""
	}
}

// MarshalJSON encodes numbers as JSON numbers, strings as strings and missing
// values as null. NaN and infinities have no JSON form and encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case KindString:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts numbers, strings, booleans and null. Nested arrays and
// objects are kept as their raw JSON text.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = Null()
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode string value: %w", err)
		}
		*v = Str(s)
	case 't', 'f':
		*v = Str(string(b))
	case '[', '{':
		*v = Str(string(b))
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("decode numeric value %q: %w", b, err)
		}
		*v = Num(f)
	}
	return nil
}

// Record is one flat row keyed by column name.
type Record map[string]Value

// Get returns the value for key; absent keys read as missing.
func (r Record) Get(key string) Value { return r[key] }

// Keys returns the column names in ascending order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy; values are immutable so nothing is shared.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CloneRecords copies every record of data into a new slice.
func CloneRecords(data []Record) []Record {
	if data == nil {
		return nil
	}
	out := make([]Record, len(data))
	for i, r := range data {
		out[i] = r.Clone()
	}
	return out
}
