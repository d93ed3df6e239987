// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package api

import (
	"github.com/ZSC714725/audiotranscoder/internal/batch"
	"github.com/ZSC714725/audiotranscoder/internal/media"
)

// File is a selected source file in API responses
type File struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size_bytes"`
	SizeText string `json:"size"`
	Ext      string `json:"ext"`
}

// AddFilesRequest for POST /files
type AddFilesRequest struct {
	Paths []string `json:"paths" binding:"required"`
}

// AddFolderRequest for POST /files/folder
type AddFolderRequest struct {
	Path string `json:"path" binding:"required"`
}

// Rejected is a path that could not be added, with the reason
type Rejected struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// AddFilesResponse lists what was added and what was not
type AddFilesResponse struct {
	Added    []File     `json:"added"`
	Rejected []Rejected `json:"rejected"`
}

// StartRequest for POST /batch. Empty fields use the configured defaults.
type StartRequest struct {
	OutputDir string `json:"output_dir"`
	Format    string `json:"format"`
}

// BatchState is the state of the orchestrator and its current run
type BatchState struct {
	State     batch.State     `json:"state"`
	OutputDir string          `json:"output_dir,omitempty"`
	Format    string          `json:"format,omitempty"`
	Run       *batch.Snapshot `json:"run,omitempty"`
}

// CommandRequest for cancel/pause/resume
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func fileToAPI(f media.File) File {
	return File{
		ID:       f.ID,
		Path:     f.Path,
		Name:     f.Name,
		Size:     f.Size,
		SizeText: f.SizeString(),
		Ext:      f.Ext,
	}
}

func filesToAPI(files []media.File) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		out = append(out, fileToAPI(f))
	}
	return out
}
