package registry

import "strings"

// Typed accessors over PropertySet. Absent or mistyped values yield ok=false,
// never a zero that could be mistaken for a reading.

// Int returns the property as an int64. plist decoding produces uint64 for
// integers, so the raw magnitude is preserved here; use Signed for fields
// that the source stores as unsigned two's-complement.
func (p PropertySet) Int(key string) (int64, bool) {
	return toInt(p[key])
}

// Signed returns the property reinterpreted as an n-bit two's-complement
// signed integer. Registry amperage fields are stored as unsigned magnitudes
// and must go through this conversion before any arithmetic.
func (p PropertySet) Signed(key string, bits uint) (int64, bool) {
	v, ok := toInt(p[key])
	if !ok {
		return 0, false
	}
	return TwosComplement(uint64(v), bits), true
}

// Float returns the property as a float64.
func (p PropertySet) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	if i, ok := toInt(p[key]); ok {
		return float64(i), true
	}
	return 0, false
}

// Str returns the property as a non-empty string.
func (p PropertySet) Str(key string) (string, bool) {
	s, ok := p[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Bool returns the property as a bool.
func (p PropertySet) Bool(key string) (bool, bool) {
	b, ok := p[key].(bool)
	return b, ok
}

// Bytes returns the property as a binary blob.
func (p PropertySet) Bytes(key string) ([]byte, bool) {
	b, ok := p[key].([]byte)
	if !ok || len(b) == 0 {
		return nil, false
	}
	return b, true
}

// Dict returns a nested property dictionary.
func (p PropertySet) Dict(key string) (PropertySet, bool) {
	m, ok := p[key].(map[string]interface{})
	if !ok {
		return nil, false
	}
	return PropertySet(m), true
}

// List returns an ordered list property.
func (p PropertySet) List(key string) ([]interface{}, bool) {
	l, ok := p[key].([]interface{})
	if !ok {
		return nil, false
	}
	return l, true
}

// IntList returns a list property whose elements are integers. Elements that
// are not integers are skipped.
func (p PropertySet) IntList(key string) ([]int64, bool) {
	l, ok := p.List(key)
	if !ok {
		return nil, false
	}
	var out []int64
	for _, e := range l {
		if v, ok := toInt(e); ok {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// DictList returns a list property whose elements are dictionaries.
func (p PropertySet) DictList(key string) ([]PropertySet, bool) {
	l, ok := p.List(key)
	if !ok {
		return nil, false
	}
	var out []PropertySet
	for _, e := range l {
		if m, ok := e.(map[string]interface{}); ok {
			out = append(out, PropertySet(m))
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// TwosComplement reinterprets an unsigned magnitude as an n-bit
// two's-complement signed value. Storing the raw magnitude of a negative
// amperage is a correctness bug, so this runs at the adapter boundary.
func TwosComplement(v uint64, bits uint) int64 {
	if bits == 0 || bits > 64 {
		bits = 64
	}
	if bits < 64 {
		v &= (uint64(1) << bits) - 1
	}
	sign := uint64(1) << (bits - 1)
	if v&sign == 0 {
		return int64(v)
	}
	if bits == 64 {
		return int64(v)
	}
	return int64(v) - int64(uint64(1)<<bits)
}

// Candidates is an ordered list of property locations for one logical field.
// Each location is a dot-separated path of dictionary keys; the first
// present-and-well-typed location wins. Keeping these declarative keeps the
// precedence rules auditable.
type Candidates []string

// LookupInt resolves the field as an integer.
func (c Candidates) LookupInt(p PropertySet) (int64, bool) {
	for _, path := range c {
		if v, ok := lookupPath(p, path); ok {
			if i, ok := toInt(v); ok {
				return i, true
			}
		}
	}
	return 0, false
}

// LookupSigned resolves the field and reinterprets it as n-bit signed.
func (c Candidates) LookupSigned(p PropertySet, bits uint) (int64, bool) {
	v, ok := c.LookupInt(p)
	if !ok {
		return 0, false
	}
	return TwosComplement(uint64(v), bits), true
}

// LookupStr resolves the field as a non-empty string.
func (c Candidates) LookupStr(p PropertySet) (string, bool) {
	for _, path := range c {
		if v, ok := lookupPath(p, path); ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// LookupDict resolves the field as a nested dictionary.
func (c Candidates) LookupDict(p PropertySet) (PropertySet, bool) {
	for _, path := range c {
		if v, ok := lookupPath(p, path); ok {
			if m, ok := v.(map[string]interface{}); ok {
				return PropertySet(m), true
			}
		}
	}
	return nil, false
}

func lookupPath(p PropertySet, path string) (interface{}, bool) {
	cur := p
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		if i == len(segs)-1 {
			v, ok := cur[seg]
			return v, ok
		}
		next, ok := cur.Dict(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

func toInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int16:
		return int64(n), true
	case uint16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint8:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
