// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

// Package desktop hands paths to the platform's file manager.
package desktop

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Opener returns the command that shows path in the file manager on goos
func Opener(goos, path string) (string, []string) {
	switch goos {
	case "windows":
		return "explorer", []string{path}
	case "darwin":
		return "open", []string{path}
	default:
		return "xdg-open", []string{path}
	}
}

// OpenDir shows the directory in the file manager without waiting for it
func OpenDir(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	name, args := Opener(runtime.GOOS, path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	go cmd.Wait()
	return nil
}

// ShouldOpen reports whether a finished run produced anything worth showing
func ShouldOpen(enabled bool, succeeded int) bool {
	return enabled && succeeded > 0
}
