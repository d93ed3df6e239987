// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.Server.Bind != def.Server.Bind || cfg.Conversion.Format != "mp3" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Conversion.PollInterval() != 100*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.Conversion.PollInterval())
	}
	if cfg.Conversion.GracePeriod() != time.Second {
		t.Errorf("grace period = %v", cfg.Conversion.GracePeriod())
	}
	if cfg.Conversion.Fallback() != 180*time.Second {
		t.Errorf("fallback = %v", cfg.Conversion.Fallback())
	}
}

func TestLoadOverridesAndRefills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := `
server:
  bind: ""
ffmpeg:
  path: /opt/ffmpeg/bin/ffmpeg
  suspend_on_pause: true
conversion:
  format: flac
  poll_interval_ms: 5000
  grace_period_ms: 250
media:
  block:
    - "\\.tmp$"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Bind != defaultBind {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}
	if cfg.FFmpeg.Path != "/opt/ffmpeg/bin/ffmpeg" || !cfg.FFmpeg.SuspendOnPause {
		t.Errorf("ffmpeg = %+v", cfg.FFmpeg)
	}
	if cfg.FFmpeg.LogLevel != "error" || !cfg.FFmpeg.Stats {
		t.Errorf("ffmpeg defaults lost: %+v", cfg.FFmpeg)
	}
	if cfg.Conversion.Format != "flac" {
		t.Errorf("format = %q", cfg.Conversion.Format)
	}
	if cfg.Conversion.PollIntervalMs != defaultPollIntervalMs {
		t.Errorf("poll interval above 100ms must be clamped, got %d", cfg.Conversion.PollIntervalMs)
	}
	if cfg.Conversion.GracePeriod() != 250*time.Millisecond {
		t.Errorf("grace = %v", cfg.Conversion.GracePeriod())
	}
	if len(cfg.Media.Block) != 1 || cfg.Media.Block[0] != `\.tmp$` {
		t.Errorf("block = %v", cfg.Media.Block)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
