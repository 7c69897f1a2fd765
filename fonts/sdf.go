package fonts

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/figura/logx"
)

// SDF is a signed distance field of one glyph: positive inside, scaled so
// ±127 means ±radius field pixels. Row 0 is the top of the glyph box.
type SDF struct {
	Width, Height int
	Data          []int8
}

type sdfConfig struct {
	enabled  bool
	size     int
	scale    int
	radius   int
	cacheDir string
}

var sdfMagic = [4]byte{'F', 'S', 'D', 'F'}

// maxSDFTexels bounds the field size accepted from a cache file.
const maxSDFTexels = 1 << 24

// At returns the normalized distance at a clamped texel.
func (s *SDF) At(x, y int) float64 {
	x = max(0, min(s.Width-1, x))
	y = max(0, min(s.Height-1, y))
	return float64(s.Data[y*s.Width+x]) / 127
}

// Sample bilinearly interpolates the field at normalized (u, v).
func (s *SDF) Sample(u, v float64) float64 {
	fx := u*float64(s.Width) - 0.5
	fy := v*float64(s.Height) - 0.5
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)
	top := s.At(x0, y0)*(1-tx) + s.At(x0+1, y0)*tx
	bottom := s.At(x0, y0+1)*(1-tx) + s.At(x0+1, y0+1)*tx
	return top*(1-ty) + bottom*ty
}

// SDF returns the distance field for glyph idx, building it on first use.
// It returns nil when distance fields are disabled or the glyph is empty.
func (f *Font) SDF(idx int) *SDF {
	if !f.sdf.enabled {
		return nil
	}
	f.mu.Lock()
	if s, ok := f.sdfs[idx]; ok {
		f.mu.Unlock()
		return s
	}
	g, err := f.glyphLocked(idx)
	f.mu.Unlock()
	if err != nil || g.Empty() {
		return nil
	}

	s, err := f.readSDF(idx)
	if err == nil {
		if w, h := sdfDims(g, f.sdf.size); s.Width != w || s.Height != h {
			err = fmt.Errorf("SDF 缓存尺寸 %dx%d 与字形 %dx%d 不符", s.Width, s.Height, w, h)
		}
	}
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logx.Logger().Debug("SDF 缓存不可用，重新生成", "font", f.Name, "glyph", idx, "err", err)
		}
		s = BuildSDF(g, f.sdf.size, f.sdf.scale, f.sdf.radius)
		if werr := f.writeSDF(idx, s); werr != nil {
			logx.Logger().Warn("写入 SDF 缓存失败", "font", f.Name, "glyph", idx, "err", werr)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.sdfs[idx]; ok {
		return prev
	}
	f.sdfs[idx] = s
	return s
}

// BuildSDF renders g exactly at size·scale resolution (size along the longer
// side of the glyph box) and converts the mask to a signed distance field.
func BuildSDF(g *Glyph, size, scale, radius int) *SDF {
	w, h := sdfDims(g, size)
	mw, mh := w*scale, h*scale
	mask := make([]bool, mw*mh)
	for y := 0; y < mh; y++ {
		for x := 0; x < mw; x++ {
			mask[y*mw+x] = g.Inside((float64(x)+0.5)/float64(mw), (float64(y)+0.5)/float64(mh))
		}
	}
	inMask := func(x, y int) bool {
		if x < 0 || y < 0 || x >= mw || y >= mh {
			return false
		}
		return mask[y*mw+x]
	}

	r := radius * scale
	out := &SDF{Width: w, Height: h, Data: make([]int8, w*h)}
	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			cx, cy := sx*scale+scale/2, sy*scale+scale/2
			inside := inMask(cx, cy)
			best := float64(r)
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					if inMask(cx+dx, cy+dy) == inside {
						continue
					}
					if d := math.Hypot(float64(dx), float64(dy)); d < best {
						best = d
					}
				}
			}
			d := best / float64(r)
			if !inside {
				d = -d
			}
			out.Data[sy*w+sx] = int8(math.Round(d * 127))
		}
	}
	return out
}

// sdfDims is the field resolution for g: size along the longer side of the
// glyph box, the aspect ratio kept.
func sdfDims(g *Glyph, size int) (w, h int) {
	w, h = size, size
	if g.Bounds.Width() > g.Bounds.Height() {
		h = max(1, int(math.Round(float64(size)*g.Bounds.Height()/g.Bounds.Width())))
	} else {
		w = max(1, int(math.Round(float64(size)*g.Bounds.Width()/g.Bounds.Height())))
	}
	return w, h
}

func (f *Font) sdfPath(idx int) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, f.Name)
	return filepath.Join(f.sdf.cacheDir, name, fmt.Sprintf("%d-%d-%d-%d.sdf", idx, f.sdf.size, f.sdf.scale, f.sdf.radius))
}

func (f *Font) readSDF(idx int) (*SDF, error) {
	if f.sdf.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	file, err := os.Open(f.sdfPath(idx))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return decodeSDF(bufio.NewReader(file))
}

func (f *Font) writeSDF(idx int, s *SDF) error {
	if f.sdf.cacheDir == "" {
		return nil
	}
	path := f.sdfPath(idx)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := encodeSDF(w, s); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func encodeSDF(w io.Writer, s *SDF) error {
	if _, err := w.Write(sdfMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, [2]uint32{uint32(s.Width), uint32(s.Height)}); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, s.Data)
}

func decodeSDF(r io.Reader) (*SDF, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != sdfMagic {
		return nil, errors.New("SDF 缓存文件头无效")
	}
	var dims [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return nil, err
	}
	n := uint64(dims[0]) * uint64(dims[1])
	if n == 0 || n > maxSDFTexels {
		return nil, fmt.Errorf("SDF 缓存尺寸无效: %dx%d", dims[0], dims[1])
	}
	s := &SDF{Width: int(dims[0]), Height: int(dims[1]), Data: make([]int8, n)}
	if err := binary.Read(r, binary.LittleEndian, s.Data); err != nil {
		return nil, fmt.Errorf("SDF 缓存数据不完整: %w", err)
	}
	if len(s.Data) != s.Width*s.Height {
		return nil, fmt.Errorf("SDF 缓存数据长度 %d 与尺寸 %dx%d 不符", len(s.Data), s.Width, s.Height)
	}
	return s, nil
}
