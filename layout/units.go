package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file converts figure pixels to physical page units for the vector sink.

// Unit represents the unit a length was written in.
type Unit int

const (
	UnitPX Unit = iota // figure pixels
	UnitMM             // millimeters
	UnitCM             // centimeters
	UnitIN             // inches
	UnitPT             // points
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// DefaultPointsPerPixel is the page scale used when nothing else is configured.
const DefaultPointsPerPixel = 4.0

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return "px"
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// String formats the length the way ParseLength reads it, e.g. "210mm".
func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'g', -1, 64) + UnitToString(l.Unit)
}

// PageScale maps figure pixels onto the page.
type PageScale struct {
	PointsPerPixel float64
}

func (s PageScale) ppp() float64 {
	if s.PointsPerPixel <= 0 {
		return DefaultPointsPerPixel
	}
	return s.PointsPerPixel
}

// Points converts pixels to points.
func (s PageScale) Points(px float64) float64 { return px * s.ppp() }

// MM converts pixels to millimeters.
func (s PageScale) MM(px float64) float64 { return px * s.ppp() * PtToMm }

// DotsPerMM is the resolution at which one figure pixel covers one image pixel.
func (s PageScale) DotsPerMM() float64 { return 1 / s.MM(1) }

// ToPT converts this length to points. Pixel lengths go through the scale.
func (l Length) ToPT(s PageScale) float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value * MmToPt
	case UnitCM:
		return l.Value * 10 * MmToPt
	case UnitIN:
		return l.Value * 25.4 * MmToPt
	case UnitPT:
		return l.Value
	default:
		return s.Points(l.Value)
	}
}

// ToMM converts this length to millimeters.
func (l Length) ToMM(s PageScale) float64 { return l.ToPT(s) * PtToMm }

// ParseLength parses "210mm", "8.5in", "595pt" or a bare pixel count.
func ParseLength(value string) (Length, error) {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitPX
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"px", UnitPX}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// FitWidth returns the scale that makes widthPx pixels span the given length.
func FitWidth(widthPx int, l Length) PageScale {
	if widthPx <= 0 {
		return PageScale{}
	}
	return PageScale{PointsPerPixel: l.ToPT(PageScale{}) / float64(widthPx)}
}
