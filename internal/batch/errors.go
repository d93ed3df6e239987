// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package batch

import "errors"

var (
	// ErrEmptyBatch is a warning: there was nothing to convert
	ErrEmptyBatch = errors.New("no files to convert")
	ErrBusy       = errors.New("a batch is already running")
	ErrNotRunning = errors.New("no batch is running")
	// ErrInvalidFormat rejects format ids that are not plain extensions
	ErrInvalidFormat = errors.New("invalid format")
)
