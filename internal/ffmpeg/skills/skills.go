// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package skills

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ZSC714725/audiotranscoder/internal/process"
)

// probeTimeout bounds each query of the engine
const probeTimeout = 10 * time.Second

// Encoder is an audio encoder the engine was built with
type Encoder struct {
	Id   string
	Name string
}

// Muxer is an output container the engine can write
type Muxer struct {
	Id   string
	Name string
}

// Library represents a linked av library
type Library struct {
	Name     string
	Compiled string
	Linked   string
}

type ffmpegInfo struct {
	Version       string
	Compiler      string
	Configuration string
	Libraries     []Library
}

// Skills are the detected capabilities of FFmpeg relevant to audio output
type Skills struct {
	FFmpeg   ffmpegInfo
	Encoders []Encoder
	Muxers   []Muxer
}

// New returns the skills that the FFmpeg binary provides
func New(binary string) (Skills, error) {
	c := Skills{}

	ff, err := getVersion(binary)
	if ff.Version == "" || err != nil {
		if err != nil {
			return Skills{}, fmt.Errorf("can't parse ffmpeg version: %w", err)
		}
		return Skills{}, fmt.Errorf("can't parse ffmpeg version")
	}
	c.FFmpeg = ff

	c.Encoders = parseEncoders(run(binary, "-hide_banner", "-encoders"))
	c.Muxers = parseMuxers(run(binary, "-hide_banner", "-muxers"))

	return c, nil
}

// HasEncoder reports whether an audio encoder with this id exists
func (s Skills) HasEncoder(id string) bool {
	for _, e := range s.Encoders {
		if e.Id == id {
			return true
		}
	}
	return false
}

// HasMuxer reports whether a muxer with this id exists
func (s Skills) HasMuxer(id string) bool {
	for _, m := range s.Muxers {
		if m.Id == id {
			return true
		}
	}
	return false
}

func run(binary string, args ...string) []byte {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	stdout, _ := process.Command(ctx, binary, args...).Output()
	return stdout
}

func getVersion(binary string) (ffmpegInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	out, err := process.Command(ctx, binary, "-version").CombinedOutput()
	if err != nil {
		return ffmpegInfo{}, err
	}
	return parseVersion(out), nil
}

var (
	reVersion       = regexp.MustCompile(`^ffmpeg version n?([0-9]+\.[0-9]+(\.[0-9]+)?)`)
	reCompiler      = regexp.MustCompile(`(?m)^\s*built with (.*)$`)
	reConfiguration = regexp.MustCompile(`(?m)^\s*configuration: (.*)$`)
	reLibrary       = regexp.MustCompile(`(?m)^\s*(lib(?:[a-z]+))\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+) /\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+)`)
	reEncoder       = regexp.MustCompile(`^\s([VAS])[F.][S.][X.][B.][D.] ([0-9A-Za-z_-]+)\s+(.*)$`)
	reMuxer         = regexp.MustCompile(`^\s([D ])E ([0-9A-Za-z_,]+)\s+(.*?)$`)
)

func parseVersion(data []byte) ffmpegInfo {
	f := ffmpegInfo{}

	if m := reVersion.FindSubmatch(data); m != nil {
		f.Version = string(m[1])
		if len(m[2]) == 0 {
			f.Version += ".0"
		}
	}
	if m := reCompiler.FindSubmatch(data); m != nil {
		f.Compiler = string(m[1])
	}
	if m := reConfiguration.FindSubmatch(data); m != nil {
		f.Configuration = string(m[1])
	}
	for _, m := range reLibrary.FindAllSubmatch(data, -1) {
		f.Libraries = append(f.Libraries, Library{
			Name:     string(m[1]),
			Compiled: string(m[2]),
			Linked:   string(m[3]),
		})
	}
	return f
}

// parseEncoders keeps audio encoders only
func parseEncoders(data []byte) []Encoder {
	var encoders []Encoder
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reEncoder.FindStringSubmatch(scanner.Text())
		if m == nil || m[1] != "A" {
			continue
		}
		encoders = append(encoders, Encoder{Id: m[2], Name: strings.TrimSpace(m[3])})
	}
	return encoders
}

func parseMuxers(data []byte) []Muxer {
	var muxers []Muxer
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reMuxer.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		for _, id := range strings.Split(m[2], ",") {
			muxers = append(muxers, Muxer{Id: id, Name: m[3]})
		}
	}
	return muxers
}
