// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具
//
// Package batch converts a list of files one after another on a background
// goroutine and reports what happened as a stream of events.

package batch

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ZSC714725/audiotranscoder/internal/config"
	"github.com/ZSC714725/audiotranscoder/internal/convert"
	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg"
	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg/parse"
	"github.com/ZSC714725/audiotranscoder/internal/logger"
	"github.com/ZSC714725/audiotranscoder/internal/media"
	"github.com/ZSC714725/audiotranscoder/internal/process"

	"github.com/lithammer/shortuuid/v4"
)

// Config for an Orchestrator
type Config struct {
	Locator        ffmpeg.LocatorConfig
	Args           ffmpeg.ArgsConfig
	PollInterval   time.Duration
	GracePeriod    time.Duration
	Estimator      parse.Estimator
	LogLines       int
	SuspendOnPause bool
	Monitor        func() process.Monitor
	Logger         logger.Logger
}

// Orchestrator runs at most one batch at a time
type Orchestrator struct {
	config Config
	logger logger.Logger

	lock sync.Mutex
	run  *Run
}

// New creates an Orchestrator
func New(config Config) *Orchestrator {
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	return &Orchestrator{
		config: config,
		logger: logger.OrNop(config.Logger),
	}
}

// Start converts files into outputDir as format
func (o *Orchestrator) Start(files []media.File, outputDir, format string) (*Run, error) {
	requests := make([]convert.Request, 0, len(files))
	for _, f := range files {
		requests = append(requests, convert.Request{Source: f, OutputDir: outputDir, Format: format})
	}
	return o.StartRequests(requests)
}

// StartRequests starts a run over requests in the given order. An empty
// list is rejected with ErrEmptyBatch and nothing else happens.
func (o *Orchestrator) StartRequests(requests []convert.Request) (*Run, error) {
	if len(requests) == 0 {
		o.logger.Warn("start ignored: %v", ErrEmptyBatch)
		return nil, ErrEmptyBatch
	}
	for _, req := range requests {
		if !ffmpeg.ValidFormat(req.Format) {
			return nil, fmt.Errorf("%w %q", ErrInvalidFormat, req.Format)
		}
	}

	o.lock.Lock()
	defer o.lock.Unlock()

	if o.run != nil && !o.run.State().Finished() {
		return nil, ErrBusy
	}

	for _, req := range requests {
		if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("output directory: %w", err)
		}
	}

	r := newRun(shortuuid.New(), append([]convert.Request(nil), requests...))

	// a fresh locator per run, so the engine is looked up at most once per run
	task := convert.NewTask(convert.Config{
		Locator:        ffmpeg.NewLocator(o.config.Locator),
		Args:           o.config.Args,
		PollInterval:   o.config.PollInterval,
		GracePeriod:    o.config.GracePeriod,
		Estimator:      o.config.Estimator,
		LogLines:       o.config.LogLines,
		SuspendOnPause: o.config.SuspendOnPause,
		Monitor:        o.config.Monitor,
		Logger:         o.logger,
		OnProgress:     r.progress,
		OnProcess:      r.setProcess,
	})

	o.run = r
	o.logger.Info("run %s: converting %d files", r.id, len(requests))

	go o.work(r, task)

	return r, nil
}

// Current returns the running or most recently finished run, nil if none
func (o *Orchestrator) Current() *Run {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.run
}

// State of the current run, StateIdle if there never was one
func (o *Orchestrator) State() State {
	if r := o.Current(); r != nil {
		return r.State()
	}
	return StateIdle
}

func (o *Orchestrator) Cancel() error {
	r := o.Current()
	if r == nil {
		return ErrNotRunning
	}
	return r.Cancel()
}

func (o *Orchestrator) Pause() error {
	r := o.Current()
	if r == nil {
		return ErrNotRunning
	}
	return r.Pause()
}

func (o *Orchestrator) Resume() error {
	r := o.Current()
	if r == nil {
		return ErrNotRunning
	}
	return r.Resume()
}

func (o *Orchestrator) work(r *Run, task *convert.Task) {
	total := len(r.requests)
	cancelled := false

	for i, req := range r.requests {
		if !r.waitWhilePaused(o.config.PollInterval) {
			cancelled = true
			r.skip(total - i)
			o.logger.Info("run %s: cancelled, %d files not attempted", r.id, total-i)
			break
		}

		r.setCurrent(i, req.Source.Name)
		r.emit(Event{Type: EventFileStarted, Index: i, Filename: req.Source.Name})

		var out convert.Outcome
		if _, err := os.Stat(req.Source.Path); err != nil {
			out = convert.Failed(convert.KindSourceMissing, "source missing: "+req.Source.Path)
		} else {
			out = task.Run(&r.ctl, req)
		}

		stats := r.record(out)
		if out.Succeeded() {
			o.logger.Info("run %s: %s -> %s", r.id, req.Source.Name, out.Output)
		} else {
			o.logger.Warn("run %s: %s: %s", r.id, req.Source.Name, out.Reason)
		}

		outcome := out
		r.emit(Event{
			Type:     EventFileDone,
			Index:    i,
			Filename: req.Source.Name,
			Percent:  stats.Completed * 100 / total,
			Status:   StatusText(out),
			Success:  out.Succeeded(),
			Outcome:  &outcome,
		})

		if out.Status == convert.StatusCancelled {
			cancelled = true
			if rest := total - i - 1; rest > 0 {
				r.skip(rest)
			}
			break
		}
	}

	state := StateCompleted
	if cancelled {
		state = StateCancelled
	}
	stats := r.finish(state)
	o.logger.Info("run %s: %s, %s", r.id, state, stats.Summary())

	r.emit(Event{
		Type:    EventCompleted,
		Index:   total,
		Percent: stats.Completed * 100 / total,
		Status:  stats.Summary(),
		Success: stats.Failed == 0 && !cancelled,
		Stats:   &stats,
		State:   state,
	})
	r.close()
}

// ConfigFrom builds an orchestrator Config from the application config
func ConfigFrom(c *config.Config, l logger.Logger) Config {
	var estimator parse.Estimator = parse.FixedEstimator(c.Conversion.Fallback())
	if c.Conversion.ProbeDuration {
		estimator = parse.ProbeEstimator{Fallback: c.Conversion.Fallback()}
	}

	return Config{
		Locator: ffmpeg.LocatorConfig{Binary: c.FFmpeg.Path},
		Args: ffmpeg.ArgsConfig{
			LogLevel: c.FFmpeg.LogLevel,
			Stats:    c.FFmpeg.Stats,
		},
		PollInterval:   c.Conversion.PollInterval(),
		GracePeriod:    c.Conversion.GracePeriod(),
		Estimator:      estimator,
		LogLines:       c.FFmpeg.LogLines,
		SuspendOnPause: c.FFmpeg.SuspendOnPause,
		Logger:         l,
	}
}
