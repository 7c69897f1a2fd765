package config

import (
	"fmt"

	"github.com/ByLCY/figura/logx"
)

// maxTemplateDepth bounds recursive template expansion.
const maxTemplateDepth = 32

// Root selects the block describing the figure. When the description has a
// `templates` block, template references inside `figure` are expanded first.
// A description with a `figure` block and no `type` of its own is unwrapped.
func Root(b *Block) (*Block, error) {
	if b == nil {
		return nil, fmt.Errorf("配置为空")
	}
	fig := b
	if inner := b.Block("figure"); inner != nil && !b.Has("type") {
		fig = inner
	}
	templates := b.Block("templates")
	if templates == nil {
		return fig, nil
	}
	out := fig.Clone()
	if name := out.String("template", ""); name != "" {
		inst, err := Instantiate(templates, name, out)
		if err != nil {
			return nil, err
		}
		out = inst
	}
	if err := expand(out, templates, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// Instantiate returns a copy of template name with its parameters overridden
// from args. Only parameters listed in the template's `params` array are taken.
// A parameter replaces every entry of that name in the copy, nested blocks
// included; at the top level it is added when the template lacks it.
func Instantiate(templates *Block, name string, args *Block) (*Block, error) {
	tpl := templates.Block(name)
	if tpl == nil {
		return nil, fmt.Errorf("未找到模板 %q", name)
	}
	out := tpl.Clone()
	params := out.Strings("params")
	out.Remove("params")
	values := map[string]Value{}
	for _, p := range params {
		if v, ok := args.Lookup(p); ok {
			values[p] = v
		}
	}
	substitute(out, values, name)
	for _, p := range params {
		if v, ok := values[p]; ok && !out.Has(p) {
			out.Set(p, v.clone())
		}
	}
	// 位置类属性始终属于实例本身
	for _, key := range []string{"pos", "size"} {
		if v, ok := args.Lookup(key); ok {
			out.Set(key, v.clone())
		}
	}
	return out, nil
}

func substitute(b *Block, values map[string]Value, template string) {
	for i := range b.entries {
		e := &b.entries[i]
		if v, ok := values[e.Name]; ok {
			if v.kind != e.Value.kind {
				logx.Logger().Warn("模板参数类型不匹配", "template", template, "param", e.Name,
					"want", e.Value.kind.String(), "got", v.kind.String())
			} else {
				e.Value = v.clone()
				continue
			}
		}
		if e.Value.kind == KindBlock {
			substitute(e.Value.block, values, template)
		}
	}
}

func expand(b *Block, templates *Block, depth int) error {
	if depth > maxTemplateDepth {
		return fmt.Errorf("模板嵌套过深（>%d），可能存在循环引用", maxTemplateDepth)
	}
	for i := 0; i < b.Len(); i++ {
		child := b.BlockAt(i)
		if child == nil {
			continue
		}
		if name := child.String("template", ""); name != "" {
			inst, err := Instantiate(templates, name, child)
			if err != nil {
				return err
			}
			b.entries[i].Value = BlockValue(inst)
			child = inst
			if err := expand(child, templates, depth+1); err != nil {
				return err
			}
			continue
		}
		if err := expand(child, templates, depth); err != nil {
			return err
		}
	}
	return nil
}
