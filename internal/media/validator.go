// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package media

import (
	"fmt"
	"regexp"
	"strings"
)

// AudioExtensions and VideoExtensions are the source types accepted by default
var (
	AudioExtensions = []string{"wav", "mp3", "flac", "aac", "ogg", "wma", "m4a",
		"aiff", "alac", "ape", "opus", "wv", "dsf", "dff"}
	VideoExtensions = []string{"mp4", "mkv", "avi", "mov", "wmv", "flv", "webm",
		"mpg", "mpeg", "ts", "m2ts", "3gp", "vob", "ogv"}
)

// Validator validates if a path is eligible as a conversion source
type Validator interface {
	IsValid(path string) bool
}

type validator struct {
	allow []*regexp.Regexp
	block []*regexp.Regexp
}

// NewValidator creates a new Validator. Empty expressions are ignored.
func NewValidator(allow, block []string) (Validator, error) {
	v := &validator{}

	for _, exp := range allow {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("invalid allow expression '%s': %w", exp, err)
		}
		v.allow = append(v.allow, re)
	}

	for _, exp := range block {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("invalid block expression '%s': %w", exp, err)
		}
		v.block = append(v.block, re)
	}

	return v, nil
}

// NewExtensionValidator allows the default audio and video extensions plus
// any extra allow expressions, minus the block expressions.
func NewExtensionValidator(allow, block []string) (Validator, error) {
	exts := append(append([]string{}, AudioExtensions...), VideoExtensions...)
	pattern := `(?i)\.(` + strings.Join(exts, "|") + `)$`
	return NewValidator(append([]string{pattern}, allow...), block)
}

func (v *validator) IsValid(path string) bool {
	for _, e := range v.block {
		if e.MatchString(path) {
			return false
		}
	}
	if len(v.allow) == 0 {
		return true
	}
	for _, e := range v.allow {
		if e.MatchString(path) {
			return true
		}
	}
	return false
}
