// Package binding 把 JSON 数据绑定到配置里的字符串值上：
// 任何字符串中的 ${path.to.value} 都会被替换为数据中对应的值。
package binding

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ByLCY/figura/config"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Apply rewrites every string value of blk in place.
func Apply(blk *config.Block, data any) {
	if data == nil || blk == nil {
		return
	}
	blk.RewriteStrings(func(s string) string { return Interpolate(s, data) })
}

// ParseData decodes a JSON document; an empty string yields nil data.
func ParseData(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return out, nil
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 路径不存在时保留原占位符，便于排查。
func Interpolate(text string, data any) string {
	if data == nil || !strings.Contains(text, "${") {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		path := strings.TrimSpace(groups[1])
		if path == "" {
			return match
		}
		if val, ok := resolve(data, path); ok {
			return format(val)
		}
		return match
	})
}

func format(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// resolve walks "a.b[2].c" through maps and slices.
func resolve(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := splitSegment(segment)
		if name != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			if current, ok = m[name]; !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			arr, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			current = arr[idx]
		}
	}
	return current, true
}

func splitSegment(segment string) (string, []int) {
	i := strings.IndexByte(segment, '[')
	if i == -1 {
		return segment, nil
	}
	name, rest := segment[:i], segment[i:]
	var indexes []int
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			break
		}
		idx, err := strconv.Atoi(rest[1:end])
		if err != nil {
			idx = -1
		}
		indexes = append(indexes, idx)
		rest = rest[end+1:]
	}
	return name, indexes
}
