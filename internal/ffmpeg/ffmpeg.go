// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package ffmpeg

import (
	"fmt"

	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg/skills"
	"github.com/ZSC714725/audiotranscoder/internal/logger"
	"github.com/ZSC714725/audiotranscoder/internal/process"
)

// FFmpeg is a located engine binary and its detected skills
type FFmpeg interface {
	Binary() string
	Skills() skills.Skills
	Support() []FormatSupport
}

// FormatSupport tells whether the engine can produce a target format
type FormatSupport struct {
	Format    string `json:"format"`
	Encoder   string `json:"encoder"`
	Muxer     string `json:"muxer"`
	Available bool   `json:"available"`
}

// ProcessConfig for creating an engine process
type ProcessConfig struct {
	Binary        string
	Command       []string
	Parser        process.Parser
	Monitor       process.Monitor
	Logger        logger.Logger
	OnStateChange func(from, to string)
}

type ffmpeg struct {
	binary string
	skills skills.Skills
}

// New probes the engine found by locator
func New(locator *Locator) (FFmpeg, error) {
	binary, err := locator.Locate()
	if err != nil {
		return nil, err
	}

	s, err := skills.New(binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg: %w", err)
	}

	return &ffmpeg{binary: binary, skills: s}, nil
}

func (f *ffmpeg) Binary() string {
	return f.binary
}

func (f *ffmpeg) Skills() skills.Skills {
	return f.skills
}

func (f *ffmpeg) Support() []FormatSupport {
	return SupportFor(f.Skills())
}

// SupportFor checks every known format's encoder and muxer against s
func SupportFor(s skills.Skills) []FormatSupport {
	var out []FormatSupport
	for _, format := range Formats() {
		p, _ := PolicyFor(format)
		fs := FormatSupport{Format: format, Encoder: p.Encoder(), Muxer: p.Muxer()}
		fs.Available = s.HasEncoder(fs.Encoder) && (fs.Muxer == "" || s.HasMuxer(fs.Muxer))
		out = append(out, fs)
	}
	return out
}

// NewProcess creates, but does not start, an engine process
func NewProcess(config ProcessConfig) (process.Process, error) {
	return process.New(process.Config{
		Binary:        config.Binary,
		Args:          config.Command,
		Parser:        config.Parser,
		Monitor:       config.Monitor,
		Logger:        logger.OrNop(config.Logger),
		OnStateChange: config.OnStateChange,
	})
}
