// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package batch

import (
	"fmt"
	"time"

	"github.com/ZSC714725/audiotranscoder/internal/convert"
)

// State of a batch run
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// Finished reports whether s is terminal
func (s State) Finished() bool {
	return s == StateCompleted || s == StateCancelled
}

// EventType distinguishes the events of a run
type EventType string

const (
	EventFileStarted EventType = "file_started"
	EventProgress    EventType = "progress"
	EventFileDone    EventType = "file_done"
	EventCompleted   EventType = "completed"
)

// Event is emitted by a run to its consumer. Which fields are set depends
// on Type:
//
//	file_started: Index, Filename
//	progress:     Index, Filename, Percent of the current file
//	file_done:    Index, Filename, Percent of the batch, Status, Success, Outcome
//	completed:    Percent, Status, Stats, State
type Event struct {
	Type     EventType        `json:"type"`
	RunID    string           `json:"run_id"`
	Index    int              `json:"index"`
	Total    int              `json:"total"`
	Filename string           `json:"filename,omitempty"`
	Percent  int              `json:"percent"`
	Status   string           `json:"status,omitempty"`
	Success  bool             `json:"success"`
	Outcome  *convert.Outcome `json:"outcome,omitempty"`
	Stats    *Stats           `json:"stats,omitempty"`
	State    State            `json:"state,omitempty"`
	Time     time.Time        `json:"time"`
}

// Stats are the counters of a run. Files never attempted because the run
// was cancelled are counted in Skipped, so once a run has finished
// Succeeded+Failed+Skipped == Total.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Succeeded int `json:"success_count"`
	Failed    int `json:"fail_count"`
	Skipped   int `json:"skip_count"`
}

// Summary is the human readable form of the counters
func (s Stats) Summary() string {
	return fmt.Sprintf("converted %d, failed %d, skipped %d", s.Succeeded, s.Failed, s.Skipped)
}

// StatusText renders an outcome for display
func StatusText(o convert.Outcome) string {
	switch o.Status {
	case convert.StatusSucceeded:
		return "✓ converted"
	case convert.StatusCancelled:
		return "✗ cancelled"
	}
	if o.Kind == convert.KindSourceMissing {
		return o.Reason
	}
	return "✗ failed: " + o.Reason
}
