// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package ffmpeg

import (
	"regexp"
	"sort"
	"strings"
)

// Policy is the fixed set of engine tokens for one output format. Tokens are
// passed in order; the engine is flag-order-sensitive.
type Policy struct {
	Format         string   `json:"format"`
	ContainerFlags []string `json:"container_flags"`
	EncoderParams  []string `json:"encoder_params"`
}

// 所有格式都使用最高质量设置
var policies = map[string]Policy{
	"mp3":  {ContainerFlags: []string{"-f", "mp3"}, EncoderParams: []string{"-c:a", "libmp3lame", "-b:a", "320k"}},
	"wav":  {ContainerFlags: []string{"-f", "wav"}, EncoderParams: []string{"-c:a", "pcm_s32le"}},
	"flac": {ContainerFlags: []string{"-f", "flac"}, EncoderParams: []string{"-c:a", "flac", "-compression_level", "12"}},
	"aac":  {ContainerFlags: []string{"-f", "adts"}, EncoderParams: []string{"-c:a", "aac", "-b:a", "320k"}},
	"ogg":  {ContainerFlags: []string{"-f", "ogg"}, EncoderParams: []string{"-c:a", "libvorbis", "-q:a", "10"}},
	"m4a":  {ContainerFlags: []string{"-f", "mp4"}, EncoderParams: []string{"-c:a", "aac", "-b:a", "320k"}},
	"m4r":  {ContainerFlags: []string{"-f", "mp4"}, EncoderParams: []string{"-c:a", "aac", "-b:a", "320k"}},
	"opus": {ContainerFlags: []string{"-f", "opus"}, EncoderParams: []string{"-c:a", "libopus", "-b:a", "320k"}},
	"wma":  {ContainerFlags: []string{"-f", "asf"}, EncoderParams: []string{"-c:a", "wmav2", "-b:a", "320k"}},
	"aiff": {ContainerFlags: []string{"-f", "aiff"}, EncoderParams: []string{"-c:a", "pcm_s16be"}},
	"alac": {ContainerFlags: []string{"-f", "mp4"}, EncoderParams: []string{"-c:a", "alac"}},
	"wv":   {ContainerFlags: []string{"-f", "wv"}, EncoderParams: []string{"-c:a", "wavpack"}},
}

// copyParams is the fallback for formats without a policy: no re-encoding
var copyParams = []string{"-c:a", "copy"}

// NormalizeFormat lower-cases a format identifier and strips a leading dot
func NormalizeFormat(format string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
}

var reFormat = regexp.MustCompile(`^[a-z0-9]+$`)

// ValidFormat reports whether format, once normalized, can be used as a file
// extension. Anything else could name a path outside the output directory.
func ValidFormat(format string) bool {
	return reFormat.MatchString(NormalizeFormat(format))
}

// PolicyFor returns the policy for format and whether it is a known one.
// Unknown formats get a stream-copy policy.
func PolicyFor(format string) (Policy, bool) {
	format = NormalizeFormat(format)
	p, ok := policies[format]
	if !ok {
		return Policy{Format: format, EncoderParams: clone(copyParams)}, false
	}
	return Policy{
		Format:         format,
		ContainerFlags: clone(p.ContainerFlags),
		EncoderParams:  clone(p.EncoderParams),
	}, true
}

// Formats returns the known format identifiers, sorted
func Formats() []string {
	out := make([]string, 0, len(policies))
	for f := range policies {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// IsCopy reports whether the policy only copies the stream
func (p Policy) IsCopy() bool {
	return len(p.ContainerFlags) == 0 && strings.Join(p.EncoderParams, " ") == strings.Join(copyParams, " ")
}

// Encoder is the value of the policy's -c:a token, if any
func (p Policy) Encoder() string {
	return valueOf(p.EncoderParams, "-c:a")
}

// Muxer is the value of the policy's -f token, if any
func (p Policy) Muxer() string {
	return valueOf(p.ContainerFlags, "-f")
}

func valueOf(tokens []string, flag string) string {
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i] == flag {
			return tokens[i+1]
		}
	}
	return ""
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
