package bitmap

import (
	"math"
	"strings"
)

// Filter selects how texels are reconstructed.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

// AddressMode decides what happens to coordinates outside [0,1].
type AddressMode int

const (
	AddressClamp AddressMode = iota
	AddressWrap
	AddressMirror
	AddressBorder
	AddressMirrorOnce
)

var filterNames = map[string]Filter{
	"linear":  FilterLinear,
	"nearest": FilterNearest,
	"point":   FilterNearest,
}

var addressNames = map[string]AddressMode{
	"clamp":      AddressClamp,
	"wrap":       AddressWrap,
	"repeat":     AddressWrap,
	"mirror":     AddressMirror,
	"border":     AddressBorder,
	"mirroronce": AddressMirrorOnce,
}

// ParseFilter parses a filter name case-insensitively.
func ParseFilter(s string) (Filter, bool) {
	f, ok := filterNames[strings.ToLower(s)]
	return f, ok
}

// ParseAddressMode parses an address mode name case-insensitively
// ("Mirror_Once" and "MirrorOnce" are both accepted).
func ParseAddressMode(s string) (AddressMode, bool) {
	m, ok := addressNames[strings.ReplaceAll(strings.ToLower(s), "_", "")]
	return m, ok
}

// Sampler reads a bitmap at normalized coordinates.
type Sampler struct {
	Filter   Filter
	AddressU AddressMode
	AddressV AddressMode
	Border   Color
}

// address maps u into [0,1]; ok is false when the border colour applies.
func address(u float64, m AddressMode) (float64, bool) {
	switch m {
	case AddressWrap:
		return u - math.Floor(u), true
	case AddressMirror:
		t := math.Mod(math.Abs(u), 2)
		if t > 1 {
			t = 2 - t
		}
		return t, true
	case AddressBorder:
		if u < 0 || u > 1 {
			return 0, false
		}
		return u, true
	case AddressMirrorOnce:
		return math.Min(math.Abs(u), 1), true
	default:
		return math.Max(0, math.Min(1, u)), true
	}
}

func texel(i, n int, m AddressMode) int {
	if m == AddressWrap {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	return max(0, min(n-1, i))
}

// Sample returns the colour of b at (u, v).
func (s Sampler) Sample(b *Bitmap, u, v float64) Color {
	if b == nil || b.Width == 0 || b.Height == 0 {
		return s.Border
	}
	u, okU := address(u, s.AddressU)
	v, okV := address(v, s.AddressV)
	if !okU || !okV {
		return s.Border
	}
	if s.Filter == FilterNearest {
		x := texel(int(u*float64(b.Width)), b.Width, AddressClamp)
		y := texel(int(v*float64(b.Height)), b.Height, AddressClamp)
		return b.Pix[y*b.Width+x]
	}
	fx := u*float64(b.Width) - 0.5
	fy := v*float64(b.Height) - 0.5
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := float32(fx-float64(x0)), float32(fy-float64(y0))
	xa, xb := texel(x0, b.Width, s.AddressU), texel(x0+1, b.Width, s.AddressU)
	ya, yb := texel(y0, b.Height, s.AddressV), texel(y0+1, b.Height, s.AddressV)
	top := Lerp(b.Pix[ya*b.Width+xa], b.Pix[ya*b.Width+xb], tx)
	bottom := Lerp(b.Pix[yb*b.Width+xa], b.Pix[yb*b.Width+xb], tx)
	return Lerp(top, bottom, ty)
}
