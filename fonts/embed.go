package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFont is used when a figure names no font.
const DefaultFont = "go"

var builtin = map[string][]byte{
	"go":         goregular.TTF,
	"go-regular": goregular.TTF,
	"go-bold":    gobold.TTF,
	"go-italic":  goitalic.TTF,
	"go-mono":    gomono.TTF,
}

// Builtin 返回内置字体数据，name 可写为 "go-bold" 或 "embed:go-bold"。
func Builtin(name string) ([]byte, bool) {
	key := strings.ToLower(strings.TrimPrefix(name, "embed:"))
	key = strings.TrimSuffix(key, ".ttf")
	data, ok := builtin[key]
	return data, ok
}

// Load 按名称读取字体：先查内置字体，再按路径读取（相对路径基于 dir）。
func Load(name, dir string) ([]byte, error) {
	if name == "" {
		name = DefaultFont
	}
	if data, ok := Builtin(name); ok {
		return data, nil
	}
	if strings.HasPrefix(name, "embed:") {
		return nil, fmt.Errorf("%w: 内置字体 %s 不存在", ErrUnknownFont, name)
	}
	path := name
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}
	candidates := []string{path}
	if filepath.Ext(path) == "" {
		candidates = append(candidates, path+".ttf", path+".otf")
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("读取字体 %s 失败: %w", p, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFont, name)
}
