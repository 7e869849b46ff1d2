package thredds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind tags the type an attribute value was coerced to.
type Kind int

const (
	KindAbsent Kind = iota // attribute declared without a value, or not declared at all
	KindString
	KindInt
	KindFloat
)

// Value is an attribute value coerced according to its declared type.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
}

// StringValue, IntValue and FloatValue construct tagged values.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// IsAbsent reports whether v carries no value.
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindInt:
		return json.Marshal(v.Int)
	case KindFloat:
		// JSON has no NaN or Inf; they are written as strings.
		switch {
		case math.IsNaN(v.Float):
			return []byte(`"NaN"`), nil
		case math.IsInf(v.Float, 1):
			return []byte(`"Infinity"`), nil
		case math.IsInf(v.Float, -1):
			return []byte(`"-Infinity"`), nil
		}
		// Whole floats keep a decimal point so they decode as floats again.
		b, err := json.Marshal(v.Float)
		if err == nil && !bytes.ContainsAny(b, ".eE") {
			b = append(b, ".0"...)
		}
		return b, err
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch s {
		case "NaN":
			*v = FloatValue(math.NaN())
		case "Infinity":
			*v = FloatValue(math.Inf(1))
		case "-Infinity":
			*v = FloatValue(math.Inf(-1))
		default:
			*v = StringValue(s)
		}
		return nil
	}
	if i, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*v = IntValue(i)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("attribute value %s: %w", data, err)
	}
	*v = FloatValue(f)
	return nil
}

// Attributes maps attribute names to coerced values.
type Attributes map[string]Value

// Get returns the named value, or an absent value when the name is unknown.
func (a Attributes) Get(name string) Value {
	return a[name]
}

// Has reports whether name was declared, with or without a value.
func (a Attributes) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// attributes are written as {"name": {"value": v}} so existing index readers keep working.
type attributeJSON struct {
	Value Value `json:"value"`
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	out := make(map[string]attributeJSON, len(a))
	for k, v := range a {
		out[k] = attributeJSON{Value: v}
	}
	return json.Marshal(out)
}

func (a *Attributes) UnmarshalJSON(data []byte) error {
	var in map[string]attributeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = make(Attributes, len(in))
	for k, v := range in {
		(*a)[k] = v.Value
	}
	return nil
}

// VariableDescriptor describes one variable of a dataset.
type VariableDescriptor struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Shape      []string   `json:"shape"`
	Attributes Attributes `json:"attributes"`
}

// DatasetMeta is the normalized metadata of one dataset.
type DatasetMeta struct {
	Attributes Attributes                     `json:"attributes"`
	Dimensions map[string]string              `json:"dimensions"`
	Variables  map[string]*VariableDescriptor `json:"variables"`
}

// NewDatasetMeta returns an empty DatasetMeta ready to be filled.
func NewDatasetMeta() *DatasetMeta {
	return &DatasetMeta{
		Attributes: Attributes{},
		Dimensions: map[string]string{},
		Variables:  map[string]*VariableDescriptor{},
	}
}

// SchemaDiff lists how two metadata records differ.
// Only Variables and Dimensions make the records unequal; attribute
// differences are reported for logging.
type SchemaDiff struct {
	Variables  []string
	Dimensions []string
	Attributes []string
}

// Equal reports whether the diff found no structural mismatch.
func (d SchemaDiff) Equal() bool {
	return len(d.Variables) == 0 && len(d.Dimensions) == 0
}

// Diff compares m against other.
func (m *DatasetMeta) Diff(other *DatasetMeta) SchemaDiff {
	var d SchemaDiff
	d.Variables = keyMismatch(m.Variables, other.Variables, func(name string) bool {
		a, b := m.Variables[name], other.Variables[name]
		if a.Type != b.Type || !sameSet(a.Shape, b.Shape) {
			return false
		}
		for _, attr := range valueMismatch(a.Attributes, b.Attributes) {
			d.Attributes = append(d.Attributes, name+"."+attr)
		}
		return true
	})
	d.Dimensions = keyMismatch(m.Dimensions, other.Dimensions, nil)
	d.Attributes = append(d.Attributes, valueMismatch(m.Attributes, other.Attributes)...)
	return d
}

// SchemaEqual reports whether m and other share variables (names, types and
// shapes) and dimension names. Attribute values are ignored.
func (m *DatasetMeta) SchemaEqual(other *DatasetMeta) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Diff(other).Equal()
}

// keyMismatch returns keys present in only one map, plus common keys for which
// same returns false. The result is sorted.
func keyMismatch[V any](a, b map[string]V, same func(string) bool) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		} else if same != nil && !same(k) {
			out = append(out, k)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func valueMismatch(a, b Attributes) []string {
	return keyMismatch(a, b, func(k string) bool { return a[k] == b[k] })
}

func sameSet(a, b []string) bool {
	sa := make(map[string]bool, len(a))
	for _, s := range a {
		sa[s] = true
	}
	sb := make(map[string]bool, len(b))
	for _, s := range b {
		if !sa[s] {
			return false
		}
		sb[s] = true
	}
	return len(sa) == len(sb)
}

// DatasetInfo is the parsed metadata of one dataset.
type DatasetInfo struct {
	ID string

	// URLPath is the catalog urlPath the metadata was fetched for.
	URLPath string

	// OpendapService is the array-service override declared in the
	// embedded THREDDSMetadata block, if any.
	OpendapService string

	Meta *DatasetMeta
}
