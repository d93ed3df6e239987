// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package api

import (
	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg"
	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg/skills"
)

// EngineResponse for GET /engine
type EngineResponse struct {
	Binary string `json:"binary"`
	FFmpeg struct {
		Version       string `json:"version"`
		Compiler      string `json:"compiler"`
		Configuration string `json:"configuration"`
		Libraries     []struct {
			Name     string `json:"name"`
			Compiled string `json:"compiled"`
			Linked   string `json:"linked"`
		} `json:"libraries"`
	} `json:"ffmpeg"`
	Formats []ffmpeg.FormatSupport `json:"formats"`
}

// FormatResponse is one entry of GET /formats
type FormatResponse struct {
	ffmpeg.Policy
	Encoder string `json:"encoder"`
	Muxer   string `json:"muxer"`
}

func engineToAPI(binary string, s skills.Skills) EngineResponse {
	resp := EngineResponse{Binary: binary}

	resp.FFmpeg.Version = s.FFmpeg.Version
	resp.FFmpeg.Compiler = s.FFmpeg.Compiler
	resp.FFmpeg.Configuration = s.FFmpeg.Configuration
	resp.FFmpeg.Libraries = make([]struct {
		Name     string `json:"name"`
		Compiled string `json:"compiled"`
		Linked   string `json:"linked"`
	}, len(s.FFmpeg.Libraries))
	for i, lib := range s.FFmpeg.Libraries {
		resp.FFmpeg.Libraries[i].Name = lib.Name
		resp.FFmpeg.Libraries[i].Compiled = lib.Compiled
		resp.FFmpeg.Libraries[i].Linked = lib.Linked
	}

	resp.Formats = ffmpeg.SupportFor(s)
	return resp
}

func formatsToAPI() []FormatResponse {
	formats := ffmpeg.Formats()
	out := make([]FormatResponse, 0, len(formats))
	for _, f := range formats {
		p, _ := ffmpeg.PolicyFor(f)
		out = append(out, FormatResponse{Policy: p, Encoder: p.Encoder(), Muxer: p.Muxer()})
	}
	return out
}
