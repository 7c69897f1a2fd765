package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/figura/binding"
	"github.com/ByLCY/figura/config"
	"github.com/ByLCY/figura/figure"
	"github.com/ByLCY/figura/fonts"
	"github.com/ByLCY/figura/imageio"
	"github.com/ByLCY/figura/layout"
	"github.com/ByLCY/figura/renderer"
	canvasrenderer "github.com/ByLCY/figura/renderer/canvas"
	imagerenderer "github.com/ByLCY/figura/renderer/image"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "figura",
		Short:        "按声明式配置组合并渲染图形",
		SilenceUsage: true,
	}
	root.AddCommand(newRenderCmd(), newRegressCmd())
	return root
}

// renderFlags 收集 render 子命令的参数。
type renderFlags struct {
	output    string
	data      string
	debug     string
	size      string
	pageWidth string
}

func newRenderCmd() *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render <config>",
		Short: "渲染配置文件为 PNG/BMP/JPEG 或 PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := LoadSettings()
			if err != nil {
				return err
			}
			settings.InstallLogger()
			if f.output == "" {
				f.output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".png"
			}
			r, err := outputRenderer(f.output, f.pageWidth, settings)
			if err != nil {
				return err
			}
			if err := run(args[0], f, settings, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已生成：%s\n", f.output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.output, "out", "o", "", "输出路径，扩展名决定格式（.png/.bmp/.jpg/.pdf）")
	cmd.Flags().StringVar(&f.data, "data", "", "绑定到配置的 JSON 数据")
	cmd.Flags().StringVar(&f.debug, "debug", "", "布局调试 JSON 输出路径")
	cmd.Flags().StringVar(&f.size, "size", "", "强制根节点尺寸，例如 800x600 或 800x-1")
	cmd.Flags().StringVar(&f.pageWidth, "page-width", "", "PDF 页面宽度，例如 210mm；覆盖 FIGURA_POINTS_PER_PIXEL")
	return cmd
}

// outputRenderer 按输出扩展名选择渲染器。
func outputRenderer(output, pageWidth string, s *Settings) (renderer.Renderer, error) {
	if strings.EqualFold(filepath.Ext(output), ".pdf") {
		opts := canvasrenderer.Options{PointsPerPixel: s.PointsPerPixel, Gamma: s.Gamma}
		if pageWidth != "" {
			l, err := layout.ParseLength(pageWidth)
			if err != nil {
				return nil, err
			}
			opts.PageWidth = &l
		}
		return canvasrenderer.NewRendererWithOptions(opts), nil
	}
	format, ok := imageio.FormatFromPath(output)
	if !ok {
		return nil, fmt.Errorf("不支持的输出格式：%s", output)
	}
	return imagerenderer.NewRendererWithOptions(imagerenderer.Options{Format: format, Gamma: s.Gamma}), nil
}

// parseSize 解析 "WxH"，-1 表示该方向不强制。
func parseSize(s string) (image.Point, error) {
	if s == "" {
		return image.Pt(-1, -1), nil
	}
	var p image.Point
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &p.X, &p.Y); err != nil {
		return p, fmt.Errorf("无法解析尺寸 %q: %w", s, err)
	}
	if p.X <= 0 && p.Y <= 0 {
		return p, fmt.Errorf("尺寸 %q 至少需要一个正分量", s)
	}
	return p, nil
}

func newEnv(inputPath string, s *Settings) *figure.Env {
	return &figure.Env{
		Fonts:   fonts.NewCache(s.FontOptions()),
		Images:  imageio.Loader{Gamma: s.Gamma},
		BaseDir: filepath.Dir(inputPath),
	}
}

// buildFile 串联读取配置、数据绑定与布局。
func buildFile(inputPath string, data any, force image.Point, s *Settings) (*layout.Result, error) {
	blk, err := config.LoadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	binding.Apply(blk, data)
	result, err := layout.BuildConfig(blk, newEnv(inputPath, s), layout.BuildOptions{ForceSize: force})
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	return result, nil
}

// run 串联解析、布局与渲染。
func run(inputPath string, f renderFlags, s *Settings, r renderer.Renderer) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	data, err := binding.ParseData(f.data)
	if err != nil {
		return err
	}
	force, err := parseSize(f.size)
	if err != nil {
		return err
	}
	result, err := buildFile(inputPath, data, force, s)
	if err != nil {
		return err
	}

	if f.debug != "" {
		if err := writeDebug(result, f.debug); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(f.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	out, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(f.output, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
