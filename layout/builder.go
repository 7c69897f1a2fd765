package layout

import (
	"errors"
	"fmt"
	"image"

	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/figure"
	"github.com/ByLCY/figura/geom"
	"github.com/ByLCY/figura/logx"
)

// ErrInvalidSize 表示根节点在布局后没有得到有效尺寸。
var ErrInvalidSize = errors.New("layout: root size is invalid")

// Build 对整棵图形树做一次尺寸协商，再从原点展开为实例列表。
func Build(root figure.Figure, opts BuildOptions) (*Result, error) {
	if root == nil {
		return nil, fmt.Errorf("图形树为空")
	}
	force := opts.ForceSize
	if !geom.PartialSize(force) {
		force = geom.Unset
	}
	size := root.CalculateSize(force)
	if !geom.ValidSize(size) {
		return nil, fmt.Errorf("%w: %s 得到 %v", ErrInvalidSize, root.Kind(), size)
	}
	instances := root.PrepareInstances(image.Point{}, nil)
	logx.Logger().Debug("布局完成", "size", size, "instances", len(instances))
	return &Result{Size: size, Instances: instances, Meta: opts.Meta}, nil
}

// BuildConfig 从配置根块构建图形树并布局：先展开模板与 figure 块，
// 加载失败的节点以占位图替代。
func BuildConfig(blk *config.Block, env *figure.Env, opts BuildOptions) (*Result, error) {
	if opts.Meta == (DocumentMeta{}) {
		opts.Meta = MetaFromConfig(blk)
	}
	root, err := config.Root(blk)
	if err != nil {
		return nil, err
	}
	return Build(figure.New(root, env), opts)
}

// MetaFromConfig 读取根块上的文档信息（title/subject/author/keywords）。
func MetaFromConfig(blk *config.Block) DocumentMeta {
	return DocumentMeta{
		Title:    blk.String("title", ""),
		Subject:  blk.String("subject", ""),
		Author:   blk.String("author", ""),
		Keywords: blk.String("keywords", ""),
	}
}
