package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"

	"github.com/ByLCY/figura/fonts"
	"github.com/ByLCY/figura/logx"
)

// Settings 为进程级配置，从 FIGURA_* 环境变量读取。
type Settings struct {
	FontDir        string  `envconfig:"FONT_DIR"`
	SDFCacheDir    string  `envconfig:"SDF_CACHE_DIR"`
	SDF            bool    `envconfig:"SDF" default:"true"`
	SDFSize        int     `envconfig:"SDF_SIZE" default:"64"`
	Gamma          float64 `envconfig:"GAMMA" default:"2.2"`
	PointsPerPixel float64 `envconfig:"POINTS_PER_PIXEL" default:"4"`
	LogLevel       string  `envconfig:"LOG_LEVEL" default:"warn"`
}

// LoadSettings reads the FIGURA_* environment.
func LoadSettings() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("figura", &s); err != nil {
		return nil, fmt.Errorf("读取环境配置失败: %w", err)
	}
	return &s, nil
}

// FontOptions maps the settings onto the font cache.
func (s *Settings) FontOptions() fonts.Options {
	return fonts.Options{
		Dir:      s.FontDir,
		SDF:      s.SDF,
		SDFSize:  s.SDFSize,
		CacheDir: s.SDFCacheDir,
	}
}

// InstallLogger 安装写到 stderr 的文本日志。
func (s *Settings) InstallLogger() {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logx.ParseLevel(s.LogLevel)})
	logx.SetLogger(slog.New(h))
}
