// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package ffmpeg

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
)

// ErrNotFound is returned when no engine binary qualifies
var ErrNotFound = errors.New("engine not found")

// LocatorConfig tunes where a Locator searches. Zero values give the
// default search: the explicit Binary, then PATH, then the directories next
// to the running program and the working directory.
type LocatorConfig struct {
	Binary   string
	Names    []string
	Dirs     []string
	SkipPath bool
}

// Locator finds the engine executable. The first result, found or not, is
// cached for the lifetime of the Locator; create one per batch run.
type Locator struct {
	config LocatorConfig

	once sync.Once
	path string
	err  error
}

// NewLocator creates a Locator
func NewLocator(config LocatorConfig) *Locator {
	if len(config.Names) == 0 {
		config.Names = DefaultNames()
	}
	if config.Dirs == nil {
		config.Dirs = DefaultDirs()
	}
	return &Locator{config: config}
}

// DefaultNames are the executable names tried on this platform
func DefaultNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"ffmpeg.exe", "ffmpeg"}
	}
	return []string{"ffmpeg"}
}

// DefaultDirs lists the program's own directory and the working directory,
// each with its engine, ffmpeg and bin subdirectories.
func DefaultDirs() []string {
	var bases []string
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		bases = append(bases, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		bases = append(bases, wd)
	}

	var dirs []string
	seen := map[string]bool{}
	for _, base := range bases {
		for _, dir := range []string{base, filepath.Join(base, "engine"), filepath.Join(base, "ffmpeg"), filepath.Join(base, "bin")} {
			if seen[dir] {
				continue
			}
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Locate returns the engine path or ErrNotFound
func (l *Locator) Locate() (string, error) {
	l.once.Do(func() {
		l.path, l.err = l.search()
	})
	return l.path, l.err
}

func (l *Locator) search() (string, error) {
	if l.config.Binary != "" {
		if isExecutable(l.config.Binary) {
			return filepath.Abs(l.config.Binary)
		}
		if path, err := exec.LookPath(l.config.Binary); err == nil && isExecutable(path) {
			return path, nil
		}
		return "", ErrNotFound
	}

	if !l.config.SkipPath {
		for _, name := range l.config.Names {
			if path, err := exec.LookPath(name); err == nil && isExecutable(path) {
				return path, nil
			}
		}
	}

	for _, dir := range l.config.Dirs {
		for _, name := range l.config.Names {
			path := filepath.Join(dir, name)
			if isExecutable(path) {
				return path, nil
			}
		}
	}

	return "", ErrNotFound
}

func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return fi.Mode().Perm()&0o111 != 0
}
