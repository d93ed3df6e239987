// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package convert

import (
	"fmt"

	"github.com/ZSC714725/audiotranscoder/internal/media"
)

// Request describes converting one source file. It is consumed by exactly
// one Task.Run.
type Request struct {
	Source    media.File
	OutputDir string
	Format    string
}

// Status tags an Outcome
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Kind classifies why a request did not succeed
type Kind string

const (
	KindNone           Kind = ""
	KindEngineNotFound Kind = "engine_not_found"
	KindSourceMissing  Kind = "source_missing"
	KindEngineExit     Kind = "engine_exit"
	KindLaunchFailure  Kind = "launch_failure"
	KindCancelled      Kind = "cancelled"
)

// Outcome is the result of one Request. It is never retried automatically.
type Outcome struct {
	Status   Status `json:"status"`
	Output   string `json:"output,omitempty"`
	Kind     Kind   `json:"kind,omitempty"`
	Reason   string `json:"reason,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
	// Log is the tail of the engine's output when it exited with an error
	Log []string `json:"log,omitempty"`
}

// Succeeded is the outcome of a finished conversion
func Succeeded(output string) Outcome {
	return Outcome{Status: StatusSucceeded, Output: output}
}

// Failed is the outcome of a conversion that could not be completed
func Failed(kind Kind, reason string) Outcome {
	return Outcome{Status: StatusFailed, Kind: kind, Reason: reason}
}

// ExitFailure is the outcome of an engine that exited with a non-zero code
func ExitFailure(code int) Outcome {
	o := Failed(KindEngineExit, fmt.Sprintf("engine exit code %d", code))
	o.ExitCode = code
	return o
}

// Cancelled is the outcome of a conversion stopped on request
func Cancelled() Outcome {
	return Outcome{Status: StatusCancelled, Kind: KindCancelled, Reason: "cancelled"}
}

func (o Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

// Err returns nil for a success, otherwise an *Error describing the outcome
func (o Outcome) Err() error {
	if o.Succeeded() {
		return nil
	}
	return &Error{Kind: o.Kind, Reason: o.Reason}
}

// Error is the error form of a failed or cancelled Outcome
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}
