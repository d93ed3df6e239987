// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package media

import "errors"

var (
	ErrNotFound    = errors.New("file not in selection")
	ErrExists      = errors.New("file already selected")
	ErrUnsupported = errors.New("unsupported file type")
	ErrLocked      = errors.New("selection is locked while converting")
)
