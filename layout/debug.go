package layout

import (
	"encoding/json"
	"os"
)

type debugInstance struct {
	Kind string     `json:"kind"`
	Pos  [2]int     `json:"pos"`
	Size [2]int     `json:"size"`
	UV   [9]float64 `json:"uv"`
}

type debugResult struct {
	Size      [2]int          `json:"size"`
	Meta      DocumentMeta    `json:"meta"`
	Counts    map[string]int  `json:"counts"`
	Instances []debugInstance `json:"instances"`
}

// WriteDebugJSON 将布局结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	out := debugResult{
		Size:      [2]int{res.Size.X, res.Size.Y},
		Meta:      res.Meta,
		Counts:    res.Counts(),
		Instances: make([]debugInstance, 0, len(res.Instances)),
	}
	for _, inst := range res.Instances {
		d := inst.Data
		out.Instances = append(out.Instances, debugInstance{
			Kind: inst.Prim.Kind().String(),
			Pos:  [2]int{d.Pos.X, d.Pos.Y},
			Size: [2]int{d.Size.X, d.Size.Y},
			UV:   d.UV,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
