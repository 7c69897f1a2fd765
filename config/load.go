package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/figura/dsl"
)

// FromDocument converts a parsed .fig document into a Block.
func FromDocument(doc *dsl.Document) (*Block, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	return fromEntries(doc.Entries)
}

func fromEntries(entries []*dsl.Entry) (*Block, error) {
	blk := NewBlock()
	for _, e := range entries {
		if e.Body != nil {
			child, err := fromEntries(e.Body.Entries)
			if err != nil {
				return nil, err
			}
			blk.Add(e.Name, BlockValue(child))
			continue
		}
		v, err := fromValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", e.Pos, e.Name, err)
		}
		blk.Add(e.Name, v)
	}
	return blk, nil
}

func fromValue(v *dsl.Value) (Value, error) {
	switch {
	case v == nil:
		return Value{}, fmt.Errorf("缺少值")
	case v.String != nil:
		return String(string(*v.String)), nil
	case v.Color != nil:
		return String(*v.Color), nil
	case v.Number != nil:
		return Number(*v.Number), nil
	case v.Bool != nil:
		return Bool(bool(*v.Bool)), nil
	case v.Ident != nil:
		return String(*v.Ident), nil
	case v.Array != nil:
		items := make([]Value, 0, len(v.Array.Values))
		for _, it := range v.Array.Values {
			iv, err := fromValue(it)
			if err != nil {
				return Value{}, err
			}
			items = append(items, iv)
		}
		return Array(items...), nil
	default:
		return Value{}, fmt.Errorf("无法识别的值")
	}
}

// ParseFig parses .fig source into a Block.
func ParseFig(src []byte) (*Block, error) {
	doc, err := dsl.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("解析 .fig 失败: %w", err)
	}
	return FromDocument(doc)
}

// ParseYAML parses a YAML mapping into a Block, keeping key order.
func ParseYAML(src []byte) (*Block, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(src, &node); err != nil {
		return nil, fmt.Errorf("解析 YAML 失败: %w", err)
	}
	if node.Kind == 0 {
		return NewBlock(), nil
	}
	root := &node
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return NewBlock(), nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("YAML 根节点必须是映射，实际为第 %d 行的 %s", root.Line, root.Tag)
	}
	return fromMapping(root)
}

func fromMapping(n *yaml.Node) (*Block, error) {
	blk := NewBlock()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		v, err := fromNode(val)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行 %s: %w", key.Line, key.Value, err)
		}
		blk.Add(key.Value, v)
	}
	return blk, nil
}

func fromNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		child, err := fromMapping(n)
		if err != nil {
			return Value{}, err
		}
		return BlockValue(child), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Array(items...), nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(n.Value, 64)
			if err != nil {
				// 0x1F 之类的写法交给 yaml 自己解码
				var alt float64
				if derr := n.Decode(&alt); derr != nil {
					return Value{}, err
				}
				f = alt
			}
			return Number(f), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return Value{}, err
			}
			return Bool(b), nil
		default:
			return String(n.Value), nil
		}
	default:
		return Value{}, fmt.Errorf("不支持的 YAML 节点类型 %d", n.Kind)
	}
}

// LoadFile reads a description, picking the parser from the extension
// (.yaml/.yml → YAML, anything else → .fig).
func LoadFile(path string) (*Block, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(src)
	default:
		return ParseFig(src)
	}
}
