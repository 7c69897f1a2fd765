package layout

import (
	"image"

	"github.com/ByLCY/figura/figure"
)

// 该文件定义布局结果，供光栅化、PDF 输出与调试 JSON 共用。

// Result 保存一次布局的最终尺寸与按绘制顺序排列的实例。
type Result struct {
	Size      image.Point
	Instances []figure.Instance
	Meta      DocumentMeta
}

// DocumentMeta 记录写入 PDF 的文档信息。
type DocumentMeta struct {
	Title    string `json:"title,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Author   string `json:"author,omitempty"`
	Keywords string `json:"keywords,omitempty"`
}

// Counts 按图元类型统计实例数量，调试输出使用。
func (r *Result) Counts() map[string]int {
	out := map[string]int{}
	for _, inst := range r.Instances {
		out[inst.Prim.Kind().String()]++
	}
	return out
}
