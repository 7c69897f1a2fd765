package layout

import "image"

// BuildOptions 配置一次布局。
type BuildOptions struct {
	// ForceSize 为根节点的外部强制尺寸；为 geom.Unset 或零值时使用根节点自身配置。
	ForceSize image.Point
	Meta      DocumentMeta
}
