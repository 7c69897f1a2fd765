package figure

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/logx"
)

// placeholderSize is the extent of the figure substituted for broken configuration.
var placeholderSize = image.Pt(64, 64)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Create builds an empty node of the given kind.
func Create(k Kind) Figure {
	switch k {
	case KindGrid:
		return NewGrid()
	case KindCollage:
		return NewCollage()
	case KindTransform:
		return NewTransform()
	case KindText:
		return NewText()
	case KindLineGraph:
		return NewLineGraph()
	case KindLinePlot:
		return NewLinePlot()
	case KindFill:
		return NewFill()
	case KindImage:
		return NewImage()
	case KindLine:
		return NewLine()
	case KindCircle:
		return NewCircle()
	case KindRectangle:
		return NewRectangle()
	case KindPolygon:
		return NewPolygon()
	case KindGlyph:
		return NewGlyph()
	default:
		return nil
	}
}

// Load builds the node described by blk, returning the configuration error if
// it cannot be loaded.
func Load(blk *config.Block, env *Env) (Figure, error) {
	if blk == nil {
		return nil, invalidf("缺少配置块")
	}
	name := blk.String("type", "")
	fig := Create(ParseKind(name))
	if fig == nil {
		return nil, invalidf("未知的图形类型 %q", name)
	}
	if err := fig.Load(blk, env); err != nil {
		return nil, fmt.Errorf("%s: %w", fig.Kind(), err)
	}
	return fig, nil
}

// New builds the node described by blk. A node that fails to load is replaced
// by a 64×64 magenta fill so the rest of the tree still renders.
func New(blk *config.Block, env *Env) Figure {
	fig, err := Load(blk, env)
	if err != nil {
		logx.Logger().Warn("图形加载失败，使用占位图", "err", err)
		return Placeholder()
	}
	return fig
}

// Placeholder returns the error marker figure.
func Placeholder() *Fill {
	f := NewFill()
	f.declared = placeholderSize
	f.size = placeholderSize
	f.Color = bitmap.Magenta
	return f
}

// colorOf reads an [r,g,b(,a)] linear colour or a "#rrggbb(aa)" sRGB string.
func colorOf(blk *config.Block, key string, def bitmap.Color) (bitmap.Color, error) {
	v, ok := blk.Lookup(key)
	if !ok {
		return def, nil
	}
	if v.Kind() == config.KindString {
		s, _ := v.AsString()
		return ParseHexColor(s)
	}
	fs, ok := v.AsFloats()
	if !ok || (len(fs) != 3 && len(fs) != 4) {
		return def, invalidf("%s: 颜色需要 3 或 4 个分量", key)
	}
	a := 1.0
	if len(fs) == 4 {
		a = fs[3]
	}
	return bitmap.RGBA(fs[0], fs[1], fs[2], a), nil
}

// ParseHexColor parses "#rgb", "#rrggbb" or "#rrggbbaa" as sRGB and returns
// the linear colour.
func ParseHexColor(s string) (bitmap.Color, error) {
	s = strings.TrimSpace(s)
	alpha := 1.0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return bitmap.Color{}, invalidf("颜色 %q 无效: %v", s, err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return bitmap.Color{}, invalidf("颜色 %q 无效: %v", s, err)
	}
	r, g, b := c.LinearRgb()
	return bitmap.RGBA(r, g, b, alpha), nil
}
