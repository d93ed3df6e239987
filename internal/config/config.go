// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	FFmpeg     FFmpegConfig     `yaml:"ffmpeg"`
	Conversion ConversionConfig `yaml:"conversion"`
	Media      MediaConfig      `yaml:"media"`
	Debug      bool             `yaml:"debug"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFmpegConfig FFmpeg 配置. Path 为空时自动查找
type FFmpegConfig struct {
	Path           string `yaml:"path"`
	LogLevel       string `yaml:"loglevel"`
	Stats          bool   `yaml:"stats"`
	LogLines       int    `yaml:"log_lines"`
	SuspendOnPause bool   `yaml:"suspend_on_pause"`
}

// ConversionConfig 批量转换配置
type ConversionConfig struct {
	OutputDir        string `yaml:"output_dir"`
	Format           string `yaml:"format"`
	PollIntervalMs   int    `yaml:"poll_interval_ms"`
	GracePeriodMs    int    `yaml:"grace_period_ms"`
	FallbackDuration int    `yaml:"fallback_duration_seconds"`
	ProbeDuration    bool   `yaml:"probe_duration"`
	OpenOutputDir    bool   `yaml:"open_output_dir"`
}

// MediaConfig 源文件过滤
type MediaConfig struct {
	Allow []string `yaml:"allow"`
	Block []string `yaml:"block"`
}

const (
	defaultBind             = "127.0.0.1:8080"
	defaultLogLevel         = "error"
	defaultLogLines         = 100
	defaultFormat           = "mp3"
	defaultPollIntervalMs   = 100
	defaultGracePeriodMs    = 1000
	defaultFallbackDuration = 180
)

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: defaultBind},
		FFmpeg: FFmpegConfig{
			LogLevel: defaultLogLevel,
			Stats:    true,
			LogLines: defaultLogLines,
		},
		Conversion: ConversionConfig{
			OutputDir:        defaultOutputDir(),
			Format:           defaultFormat,
			PollIntervalMs:   defaultPollIntervalMs,
			GracePeriodMs:    defaultGracePeriodMs,
			FallbackDuration: defaultFallbackDuration,
			OpenOutputDir:    true,
		},
	}
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// 填充空值
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = defaultBind
	}
	if cfg.FFmpeg.LogLevel == "" {
		cfg.FFmpeg.LogLevel = defaultLogLevel
	}
	if cfg.FFmpeg.LogLines <= 0 {
		cfg.FFmpeg.LogLines = defaultLogLines
	}
	if cfg.Conversion.OutputDir == "" {
		cfg.Conversion.OutputDir = defaultOutputDir()
	}
	if cfg.Conversion.Format == "" {
		cfg.Conversion.Format = defaultFormat
	}
	if cfg.Conversion.PollIntervalMs <= 0 || cfg.Conversion.PollIntervalMs > defaultPollIntervalMs {
		cfg.Conversion.PollIntervalMs = defaultPollIntervalMs
	}
	if cfg.Conversion.GracePeriodMs <= 0 {
		cfg.Conversion.GracePeriodMs = defaultGracePeriodMs
	}
	if cfg.Conversion.FallbackDuration <= 0 {
		cfg.Conversion.FallbackDuration = defaultFallbackDuration
	}

	return cfg, nil
}

// PollInterval is the engine exit poll interval
func (c *ConversionConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// GracePeriod is how long a terminated engine gets before it is killed
func (c *ConversionConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodMs) * time.Millisecond
}

// Fallback is the duration assumed for sources of unknown length
func (c *ConversionConfig) Fallback() time.Duration {
	return time.Duration(c.FallbackDuration) * time.Second
}

func defaultOutputDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + string(os.PathSeparator) + "Music" + string(os.PathSeparator) + "Converted"
	}
	return "converted"
}
