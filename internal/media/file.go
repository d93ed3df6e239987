// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is a source file in the selection. Fields are cached when the file
// is added and never change afterwards.
type File struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Ext  string `json:"ext"`
}

// NewFile stats path and returns a File for it
func NewFile(path string) (File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return File{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return File{}, err
	}
	if fi.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", abs)
	}
	return File{
		Path: abs,
		Name: filepath.Base(abs),
		Size: fi.Size(),
		Ext:  Extension(abs),
	}, nil
}

// Extension is the lower-case extension of path without the dot
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// SizeString formats the cached size for display
func (f File) SizeString() string {
	return FormatSize(f.Size)
}

// FormatSize renders a byte count as B, KB, MB or GB
func FormatSize(size int64) string {
	const unit = 1024
	switch {
	case size < unit:
		return fmt.Sprintf("%d B", size)
	case size < unit*unit:
		return fmt.Sprintf("%.1f KB", float64(size)/unit)
	case size < unit*unit*unit:
		return fmt.Sprintf("%.1f MB", float64(size)/(unit*unit))
	default:
		return fmt.Sprintf("%.1f GB", float64(size)/(unit*unit*unit))
	}
}
