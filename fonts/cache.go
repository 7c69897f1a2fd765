package fonts

import (
	"sync"

	"github.com/ByLCY/figura/logx"
)

// Options configures a Cache.
type Options struct {
	// Dir resolves relative font paths.
	Dir string
	// SDF enables lazily built distance fields for glyph rendering.
	SDF bool
	// SDFSize is the field resolution along the glyph's longer side.
	SDFSize int
	// SDFScale is the supersampling factor used while building a field.
	SDFScale int
	// SDFRadius is the clamping distance in field pixels.
	SDFRadius int
	// CacheDir persists built fields between runs when set.
	CacheDir string
}

func (o Options) withDefaults() Options {
	if o.SDFSize <= 0 {
		o.SDFSize = 64
	}
	if o.SDFScale <= 0 {
		o.SDFScale = 4
	}
	if o.SDFRadius <= 0 {
		o.SDFRadius = 4
	}
	return o
}

// Cache maps font names to parsed fonts. It is shared by every Text in a tree
// and by the rasterizer; lookups are safe for concurrent use.
type Cache struct {
	opts  Options
	mu    sync.Mutex
	fonts map[string]*Font
}

// NewCache creates an empty cache.
func NewCache(opts Options) *Cache {
	return &Cache{opts: opts.withDefaults(), fonts: map[string]*Font{}}
}

// Font resolves name (built-in name, "embed:" name or file path).
func (c *Cache) Font(name string) (*Font, error) {
	if name == "" {
		name = DefaultFont
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.fonts[name]; ok {
		return f, nil
	}
	data, err := Load(name, c.opts.Dir)
	if err != nil {
		return nil, err
	}
	f, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	c.configure(f)
	c.fonts[name] = f
	logx.Logger().Debug("字体已加载", "name", name, "upem", f.UnitsPerEm)
	return f, nil
}

// Register adds a prebuilt font (for example a synthetic one) under name.
func (c *Cache) Register(name string, f *Font) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configure(f)
	c.fonts[name] = f
}

func (c *Cache) configure(f *Font) {
	f.sdf = sdfConfig{
		enabled:  c.opts.SDF,
		size:     c.opts.SDFSize,
		scale:    c.opts.SDFScale,
		radius:   c.opts.SDFRadius,
		cacheDir: c.opts.CacheDir,
	}
}
