package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/figura/bitmap"
	"github.com/ByLCY/figura/geom"
	"github.com/ByLCY/figura/imageio"
	"github.com/ByLCY/figura/logx"
	imagerenderer "github.com/ByLCY/figura/renderer/image"
)

// DefaultPSNRThreshold 以上视为与参考图一致。
const DefaultPSNRThreshold = 50.0

const (
	figuresDir   = "figures"
	referenceDir = "reference_images"
	failedDir    = "failed"
)

func newRegressCmd() *cobra.Command {
	var (
		recreate  bool
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "regress <dir> [name...]",
		Short: "渲染 <dir>/figures 下的配置并与参考图比较",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := LoadSettings()
			if err != nil {
				return err
			}
			settings.InstallLogger()
			failed, err := regress(cmd.OutOrStdout(), args[0], args[1:], recreate, threshold, settings)
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d 个用例失败", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&recreate, "recreate", false, "重新生成参考图")
	cmd.Flags().Float64Var(&threshold, "threshold", DefaultPSNRThreshold, "通过所需的最小 PSNR（dB）")
	return cmd
}

// regressCase 是一个配置文件与其参考图。
type regressCase struct {
	name      string
	config    string
	reference string
}

func collectCases(dir string, names []string) ([]regressCase, error) {
	entries, err := os.ReadDir(filepath.Join(dir, figuresDir))
	if err != nil {
		return nil, fmt.Errorf("读取用例目录失败: %w", err)
	}
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	var cases []regressCase
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".fig" && ext != ".yaml" && ext != ".yml") {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if len(want) > 0 && !want[stem] {
			continue
		}
		cases = append(cases, regressCase{
			name:      stem,
			config:    filepath.Join(dir, figuresDir, e.Name()),
			reference: filepath.Join(dir, referenceDir, stem+".png"),
		})
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].name < cases[j].name })
	return cases, nil
}

// regress 逐个渲染用例；返回失败数量。
func regress(w io.Writer, dir string, names []string, recreate bool, threshold float64, s *Settings) (int, error) {
	cases, err := collectCases(dir, names)
	if err != nil {
		return 0, err
	}
	failed := filepath.Join(dir, failedDir)
	if err := os.RemoveAll(failed); err != nil {
		return 0, fmt.Errorf("清理失败目录失败: %w", err)
	}
	if err := os.MkdirAll(failed, 0o755); err != nil {
		return 0, fmt.Errorf("创建失败目录失败: %w", err)
	}
	if recreate {
		if err := os.MkdirAll(filepath.Join(dir, referenceDir), 0o755); err != nil {
			return 0, fmt.Errorf("创建参考图目录失败: %w", err)
		}
	}

	r := imagerenderer.NewRendererWithOptions(imagerenderer.Options{Gamma: s.Gamma})
	nFailed := 0
	for _, c := range cases {
		msg, ok := runCase(r, c, recreate, threshold, failed, s)
		if !ok {
			nFailed++
		}
		fmt.Fprintf(w, "[%s] %s\n", c.name, msg)
	}
	fmt.Fprintf(w, "%d/%d 个用例失败\n", nFailed, len(cases))
	return nFailed, nil
}

func runCase(r *imagerenderer.Renderer, c regressCase, recreate bool, threshold float64, failedPath string, s *Settings) (string, bool) {
	result, err := buildFile(c.config, nil, geom.Unset, s)
	if err != nil {
		return fmt.Sprintf("FAILED (%v)", err), false
	}
	out, err := r.Bitmap(result)
	if err != nil {
		return fmt.Sprintf("FAILED (%v)", err), false
	}
	if recreate {
		if err := imageio.Save(c.reference, out, s.Gamma); err != nil {
			return fmt.Sprintf("参考图写入失败 (%v)", err), false
		}
		return "参考图已重新生成", true
	}
	ref, err := imageio.Load(c.reference, s.Gamma)
	if err != nil {
		return fmt.Sprintf("FAILED (%v)", err), false
	}
	psnr, err := bitmap.PSNR(out, ref)
	if err == nil && psnr >= threshold {
		return "PASSED", true
	}
	path := filepath.Join(failedPath, c.name+".png")
	if serr := imageio.Save(path, out, s.Gamma); serr != nil {
		logx.Logger().Warn("保存失败用例输出失败", "path", path, "err", serr)
	}
	if err != nil {
		return fmt.Sprintf("FAILED (%v)", err), false
	}
	return fmt.Sprintf("FAILED (PSNR = %.2f)", psnr), false
}
