package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the dynamic type of a Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindArray
	KindBlock
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Value is one configuration value. Bare identifiers and colour literals are strings.
type Value struct {
	kind  Kind
	str   string
	num   float64
	b     bool
	arr   []Value
	block *Block
}

func String(s string) Value     { return Value{kind: KindString, str: s} }
func Number(f float64) Value    { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Array(vs ...Value) Value   { return Value{kind: KindArray, arr: vs} }
func BlockValue(b *Block) Value { return Value{kind: KindBlock, block: b} }

// Kind returns the dynamic type.
func (v Value) Kind() Kind { return v.kind }

// Items returns the elements of an array value.
func (v Value) Items() []Value { return v.arr }

// Block returns the nested block or nil.
func (v Value) Block() *Block { return v.block }

// AsString converts scalars to text.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// AsFloat converts numbers, booleans and numeric strings.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsBool converts booleans, numbers and "true"/"false"/"yes"/"no" strings.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindNumber:
		return v.num != 0, true
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true", "yes", "on", "1":
			return true, true
		case "false", "no", "off", "0":
			return false, true
		}
	}
	return false, false
}

// AsFloats converts a numeric array. A scalar number becomes a one-element slice.
func (v Value) AsFloats() ([]float64, bool) {
	if v.kind != KindArray {
		f, ok := v.AsFloat()
		if !ok {
			return nil, false
		}
		return []float64{f}, true
	}
	out := make([]float64, 0, len(v.arr))
	for _, it := range v.arr {
		f, ok := it.AsFloat()
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

func (v Value) clone() Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, it := range v.arr {
			arr[i] = it.clone()
		}
		v.arr = arr
	case KindBlock:
		v.block = v.block.Clone()
	}
	return v
}

func (v Value) String() string {
	switch v.kind {
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, it := range v.arr {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindBlock:
		return fmt.Sprintf("{%d entries}", v.block.Len())
	case KindString:
		return strconv.Quote(v.str)
	default:
		s, _ := v.AsString()
		return s
	}
}
