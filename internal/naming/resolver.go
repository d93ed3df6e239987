// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

// Package naming derives destination paths for converted files.
package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Exists reports whether something already occupies path
type Exists func(path string) bool

// Resolver computes non-colliding output paths. It never creates files, so a
// path is only guaranteed free at the moment of the check.
type Resolver struct {
	exists Exists
}

// NewResolver returns a Resolver checking the real filesystem
func NewResolver() *Resolver {
	return &Resolver{exists: fileExists}
}

// NewResolverWith returns a Resolver using a custom existence check
func NewResolverWith(exists Exists) *Resolver {
	return &Resolver{exists: exists}
}

// Resolve returns <outputDir>/<stem>.<format>, or <stem>_N.<format> with the
// smallest N >= 1 that is free.
func (r *Resolver) Resolve(source, outputDir, format string) string {
	stem := Stem(source)
	candidate := filepath.Join(outputDir, stem+"."+format)
	for n := 1; r.exists(candidate); n++ {
		candidate = filepath.Join(outputDir, fmt.Sprintf("%s_%d.%s", stem, n, format))
	}
	return candidate
}

// Stem is the source file name without directory and extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
