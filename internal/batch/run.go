// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package batch

import (
	"sync"
	"time"

	"github.com/ZSC714725/audiotranscoder/internal/convert"
	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg/parse"
	"github.com/ZSC714725/audiotranscoder/internal/process"
)

// Run is one batch run. Its events must be drained by the caller; progress
// events are dropped when the caller falls behind, all other events are
// always delivered.
type Run struct {
	id       string
	requests []convert.Request
	ctl      convert.Control

	events   chan Event
	done     chan struct{}
	sendLock sync.Mutex
	reserved int
	closed   bool

	lock     sync.RWMutex
	state    State
	stats    Stats
	index    int
	current  string
	percent  int
	proc     process.Process
	started  time.Time
	finished time.Time
}

// Usage is the resource usage of the engine converting the current file
type Usage struct {
	State  string         `json:"state"`
	States process.States `json:"states"`
	CPU    float64        `json:"cpu_percent"`
	Memory uint64         `json:"memory_bytes"`
}

// Snapshot is a point in time view of a run
type Snapshot struct {
	ID       string    `json:"id"`
	State    State     `json:"state"`
	Stats    Stats     `json:"stats"`
	Current  string    `json:"current,omitempty"`
	Percent  int       `json:"percent"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitempty"`
	Engine   *Usage    `json:"engine,omitempty"`
}

const progressBuffer = 64

func newRun(id string, requests []convert.Request) *Run {
	// file_started and file_done per file, plus completed
	reserved := 2*len(requests) + 1
	return &Run{
		id:       id,
		requests: requests,
		events:   make(chan Event, reserved+progressBuffer),
		done:     make(chan struct{}),
		reserved: reserved,
		state:    StateRunning,
		stats:    Stats{Total: len(requests)},
		started:  time.Now(),
	}
}

func (r *Run) ID() string { return r.id }

// Events is closed after the completed event
func (r *Run) Events() <-chan Event { return r.events }

// Done is closed once the run has finished
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run has finished and returns its final counters
func (r *Run) Wait() Stats {
	<-r.done
	return r.Stats()
}

func (r *Run) Stats() Stats {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.stats
}

func (r *Run) State() State {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.state
}

func (r *Run) Snapshot() Snapshot {
	r.lock.RLock()
	s := Snapshot{
		ID:       r.id,
		State:    r.state,
		Stats:    r.stats,
		Current:  r.current,
		Percent:  r.percent,
		Started:  r.started,
		Finished: r.finished,
	}
	proc := r.proc
	r.lock.RUnlock()

	if proc != nil {
		status := proc.Status()
		s.Engine = &Usage{
			State:  status.State,
			States: status.States,
			CPU:    status.CPU.Current,
			Memory: status.Memory.Current,
		}
	}
	return s
}

// Cancel asks the run to stop. It never blocks; the running conversion
// cleans up after itself.
func (r *Run) Cancel() error {
	if r.State().Finished() {
		return ErrNotRunning
	}
	r.ctl.Cancel()
	return nil
}

func (r *Run) Pause() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.state.Finished() {
		return ErrNotRunning
	}
	r.ctl.Pause()
	r.state = StatePaused
	return nil
}

func (r *Run) Resume() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.state.Finished() {
		return ErrNotRunning
	}
	r.ctl.Resume()
	r.state = StateRunning
	return nil
}

// waitWhilePaused sleeps while the run is paused. It returns false when the
// run was cancelled.
func (r *Run) waitWhilePaused(interval time.Duration) bool {
	for r.ctl.Paused() && !r.ctl.Cancelled() {
		time.Sleep(interval)
	}
	return !r.ctl.Cancelled()
}

func (r *Run) setCurrent(index int, name string) {
	r.lock.Lock()
	r.index = index
	r.current = name
	r.percent = 0
	r.lock.Unlock()
}

func (r *Run) setProcess(proc process.Process) {
	r.lock.Lock()
	r.proc = proc
	r.lock.Unlock()
}

func (r *Run) record(o convert.Outcome) Stats {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.stats.Completed++
	if o.Succeeded() {
		r.stats.Succeeded++
	} else {
		r.stats.Failed++
	}
	return r.stats
}

func (r *Run) skip(n int) {
	r.lock.Lock()
	r.stats.Skipped += n
	r.lock.Unlock()
}

func (r *Run) finish(state State) Stats {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.state = state
	r.current = ""
	r.proc = nil
	r.finished = time.Now()
	return r.stats
}

func (r *Run) progress(req convert.Request, p parse.Progress) {
	r.lock.Lock()
	r.percent = p.Percent
	index := r.index
	r.lock.Unlock()

	r.sendLock.Lock()
	defer r.sendLock.Unlock()
	// a late line from the engine may arrive after the run has closed
	if r.closed || len(r.events)+r.reserved >= cap(r.events) {
		return
	}
	r.events <- Event{
		Type:     EventProgress,
		RunID:    r.id,
		Index:    index,
		Total:    len(r.requests),
		Filename: req.Source.Name,
		Percent:  p.Percent,
		Time:     time.Now(),
	}
}

// emit delivers a structural event. Space for these is reserved up front,
// so it never blocks.
func (r *Run) emit(e Event) {
	e.RunID = r.id
	e.Total = len(r.requests)
	e.Time = time.Now()

	r.sendLock.Lock()
	defer r.sendLock.Unlock()
	if r.reserved > 0 {
		r.reserved--
	}
	r.events <- e
}

func (r *Run) close() {
	r.sendLock.Lock()
	r.closed = true
	close(r.events)
	r.sendLock.Unlock()
	close(r.done)
}
