// Package imageio 负责图片文件与线性色彩位图之间的转换。
package imageio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/h2non/filetype"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/logx"
)

// ErrNotImage is returned when a file does not look like a supported image.
var ErrNotImage = errors.New("imageio: not an image")

// DefaultGamma is the transfer curve assumed for 8-bit files.
const DefaultGamma = 2.2

// sniffLen 为 filetype 识别所需的头部字节数。
const sniffLen = 262

// Format names an output encoding.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	JPEG Format = "jpeg"
)

// JPEGQuality 为写出 JPEG 时的质量。
const JPEGQuality = 95

// FormatFromPath 根据扩展名选择编码格式。
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, true
	case ".bmp":
		return BMP, true
	case ".jpg", ".jpeg":
		return JPEG, true
	}
	return "", false
}

func encoderFor(f Format) (imgio.Encoder, error) {
	switch f {
	case PNG:
		return imgio.PNGEncoder(), nil
	case BMP:
		return imgio.BMPEncoder(), nil
	case JPEG:
		return imgio.JPEGEncoder(JPEGQuality), nil
	}
	return nil, fmt.Errorf("不支持的图片格式 %q", f)
}

// Load 读取图片文件并按 gamma 转为线性颜色。
func Load(path string, gamma float64) (*bitmap.Bitmap, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("图片路径 %s 不是普通文件", path)
	}
	if err := sniff(path); err != nil {
		return nil, err
	}
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", path, err)
	}
	if gamma <= 0 {
		gamma = DefaultGamma
	}
	b := bitmap.FromImage(img, gamma)
	sz := b.Size()
	logx.Logger().Debug("loaded image", "path", path, "width", sz.X, "height", sz.Y, "gamma", gamma)
	return b, nil
}

func sniff(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("读取图片 %s 失败: %w", path, err)
	}
	defer f.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("读取图片 %s 失败: %w", path, err)
	}
	if !filetype.IsImage(head[:n]) {
		return fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	return nil
}

// Encode 将线性位图按 gamma 编码后写入 w。
func Encode(w io.Writer, b *bitmap.Bitmap, f Format, gamma float64) error {
	enc, err := encoderFor(f)
	if err != nil {
		return err
	}
	if gamma <= 0 {
		gamma = DefaultGamma
	}
	if err := enc(w, b.ToImage(gamma)); err != nil {
		return fmt.Errorf("编码 %s 失败: %w", f, err)
	}
	return nil
}

// Save 按扩展名选择格式写出位图。
func Save(path string, b *bitmap.Bitmap, gamma float64) error {
	f, ok := FormatFromPath(path)
	if !ok {
		return fmt.Errorf("无法从 %s 推断图片格式", path)
	}
	enc, err := encoderFor(f)
	if err != nil {
		return err
	}
	if gamma <= 0 {
		gamma = DefaultGamma
	}
	if err := imgio.Save(path, b.ToImage(gamma), enc); err != nil {
		return fmt.Errorf("写入图片 %s 失败: %w", path, err)
	}
	return nil
}

// Loader 实现 figure.ImageLoader。
type Loader struct {
	Gamma float64
}

// LoadImage loads path; a non-positive gamma falls back to the loader's own.
func (l Loader) LoadImage(path string, gamma float64) (*bitmap.Bitmap, error) {
	if gamma <= 0 {
		gamma = l.Gamma
	}
	return Load(path, gamma)
}
