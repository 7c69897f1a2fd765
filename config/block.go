// Package config is the ordered key/value accessor the figure tree is
// loaded from. Blocks keep entry order: painter order and grid rows depend on it.
package config

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrNotFound is returned when a required key is missing.
var ErrNotFound = errors.New("config: key not found")

// Entry is one named value inside a block. Names may repeat.
type Entry struct {
	Name  string
	Value Value
}

// Block is an ordered list of entries.
type Block struct {
	entries []Entry
}

// NewBlock returns an empty block.
func NewBlock() *Block { return &Block{} }

// Len returns the number of entries (values and nested blocks).
func (b *Block) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Name returns the i-th entry's name.
func (b *Block) Name(i int) string { return b.entries[i].Name }

// ValueAt returns the i-th entry's value.
func (b *Block) ValueAt(i int) Value { return b.entries[i].Value }

// BlockAt returns the i-th entry as a block, or nil when it is a plain value.
func (b *Block) BlockAt(i int) *Block { return b.entries[i].Value.block }

// Blocks returns every nested block in order.
func (b *Block) Blocks() []*Block {
	var out []*Block
	for i := 0; i < b.Len(); i++ {
		if blk := b.BlockAt(i); blk != nil {
			out = append(out, blk)
		}
	}
	return out
}

// Add appends an entry.
func (b *Block) Add(name string, v Value) *Block {
	b.entries = append(b.entries, Entry{Name: name, Value: v})
	return b
}

// Set replaces the first entry called name, or appends one.
func (b *Block) Set(name string, v Value) *Block {
	for i := range b.entries {
		if b.entries[i].Name == name {
			b.entries[i].Value = v
			return b
		}
	}
	return b.Add(name, v)
}

// Remove drops every entry called name.
func (b *Block) Remove(name string) {
	out := b.entries[:0]
	for _, e := range b.entries {
		if e.Name != name {
			out = append(out, e)
		}
	}
	b.entries = out
}

// Lookup returns the first entry called name.
func (b *Block) Lookup(name string) (Value, bool) {
	if b == nil {
		return Value{}, false
	}
	for _, e := range b.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether name is present.
func (b *Block) Has(name string) bool {
	_, ok := b.Lookup(name)
	return ok
}

// Block returns the first nested block called name, or nil.
func (b *Block) Block(name string) *Block {
	v, ok := b.Lookup(name)
	if !ok {
		return nil
	}
	return v.block
}

// Clone deep-copies the block.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	out := &Block{entries: make([]Entry, len(b.entries))}
	for i, e := range b.entries {
		out.entries[i] = Entry{Name: e.Name, Value: e.Value.clone()}
	}
	return out
}

// RewriteStrings applies fn to every string value, recursively.
func (b *Block) RewriteStrings(fn func(string) string) {
	if b == nil {
		return
	}
	for i := range b.entries {
		rewriteValue(&b.entries[i].Value, fn)
	}
}

func rewriteValue(v *Value, fn func(string) string) {
	switch v.kind {
	case KindString:
		v.str = fn(v.str)
	case KindArray:
		for i := range v.arr {
			rewriteValue(&v.arr[i], fn)
		}
	case KindBlock:
		v.block.RewriteStrings(fn)
	}
}

// String returns the value of name or def.
func (b *Block) String(name, def string) string {
	if v, ok := b.Lookup(name); ok {
		if s, ok := v.AsString(); ok {
			return s
		}
	}
	return def
}

// Float returns the value of name or def.
func (b *Block) Float(name string, def float64) float64 {
	if v, ok := b.Lookup(name); ok {
		if f, ok := v.AsFloat(); ok {
			return f
		}
	}
	return def
}

// Int returns the value of name truncated to int, or def.
func (b *Block) Int(name string, def int) int {
	if v, ok := b.Lookup(name); ok {
		if f, ok := v.AsFloat(); ok {
			return int(f)
		}
	}
	return def
}

// Bool returns the value of name or def.
func (b *Block) Bool(name string, def bool) bool {
	if v, ok := b.Lookup(name); ok {
		if f, ok := v.AsBool(); ok {
			return f
		}
	}
	return def
}

// Floats returns a numeric array, or nil when absent or malformed.
func (b *Block) Floats(name string) []float64 {
	v, ok := b.Lookup(name)
	if !ok {
		return nil
	}
	fs, _ := v.AsFloats()
	return fs
}

// Strings returns an array of scalars as text.
func (b *Block) Strings(name string) []string {
	v, ok := b.Lookup(name)
	if !ok {
		return nil
	}
	if v.kind != KindArray {
		s, ok := v.AsString()
		if !ok {
			return nil
		}
		return []string{s}
	}
	out := make([]string, 0, len(v.arr))
	for _, it := range v.arr {
		s, _ := it.AsString()
		out = append(out, s)
	}
	return out
}

func (b *Block) vector(name string, n int) ([]float64, bool) {
	fs := b.Floats(name)
	if len(fs) == 1 && n > 1 {
		// 标量广播到所有分量
		out := make([]float64, n)
		for i := range out {
			out[i] = fs[0]
		}
		return out, true
	}
	if len(fs) != n {
		return nil, false
	}
	return fs, true
}

// Vec2 returns a two-component vector or def.
func (b *Block) Vec2(name string, def [2]float64) [2]float64 {
	fs, ok := b.vector(name, 2)
	if !ok {
		return def
	}
	return [2]float64{fs[0], fs[1]}
}

// IVec2 returns an integer vector or def.
func (b *Block) IVec2(name string, def image.Point) image.Point {
	fs, ok := b.vector(name, 2)
	if !ok {
		return def
	}
	return image.Point{X: int(fs[0]), Y: int(fs[1])}
}

// Vec4 returns a four-component vector or def.
func (b *Block) Vec4(name string, def [4]float64) [4]float64 {
	fs, ok := b.vector(name, 4)
	if !ok {
		return def
	}
	return [4]float64{fs[0], fs[1], fs[2], fs[3]}
}

// Enum maps a name to one of names' values case-insensitively. Unknown names
// produce an error so callers can refuse the configuration.
func Enum[T any](b *Block, name string, names map[string]T, def T) (T, error) {
	s := b.String(name, "")
	if s == "" {
		return def, nil
	}
	if v, ok := names[strings.ToLower(s)]; ok {
		return v, nil
	}
	return def, fmt.Errorf("%s: 未知取值 %q", name, s)
}

// Require returns an error wrapping ErrNotFound when any key is missing.
func (b *Block) Require(names ...string) error {
	for _, n := range names {
		if !b.Has(n) {
			return fmt.Errorf("%w: %s", ErrNotFound, n)
		}
	}
	return nil
}
