// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具
//
// Package convert runs the engine for a single source file and supervises it
// until it exits, is cancelled or fails.

package convert

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg"
	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg/parse"
	"github.com/ZSC714725/audiotranscoder/internal/logger"
	"github.com/ZSC714725/audiotranscoder/internal/naming"
	"github.com/ZSC714725/audiotranscoder/internal/process"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultGracePeriod  = time.Second
	// how long to wait for a killed engine before giving up on it
	killWait = 500 * time.Millisecond
	// engine output lines kept on a failed outcome
	failureLogLines = 10
)

// Config for a Task. Locator is required.
type Config struct {
	Locator        *ffmpeg.Locator
	Resolver       *naming.Resolver
	Args           ffmpeg.ArgsConfig
	PollInterval   time.Duration
	GracePeriod    time.Duration
	Estimator      parse.Estimator
	LogLines       int
	SuspendOnPause bool
	// Monitor creates a resource monitor per engine process. Nil uses the
	// system monitor.
	Monitor func() process.Monitor
	Logger  logger.Logger

	// OnProgress is called from the stderr reader whenever the percentage
	// of the running request increases.
	OnProgress func(req Request, p parse.Progress)
	// OnProcess is called with the engine process once it is started, and
	// with nil after it has been reaped.
	OnProcess func(p process.Process)
}

// Task converts source files one at a time
type Task struct {
	config Config
	logger logger.Logger
}

// NewTask creates a Task
func NewTask(config Config) *Task {
	if config.Resolver == nil {
		config.Resolver = naming.NewResolver()
	}
	if config.PollInterval <= 0 || config.PollInterval > defaultPollInterval {
		config.PollInterval = defaultPollInterval
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = defaultGracePeriod
	}
	if config.Estimator == nil {
		config.Estimator = parse.FixedEstimator(parse.DefaultDuration)
	}
	if config.Monitor == nil {
		config.Monitor = process.NewSysMonitor
	}

	return &Task{
		config: config,
		logger: logger.OrNop(config.Logger),
	}
}

// Run converts req.Source into req.OutputDir. It blocks until the engine
// has exited and never panics. Whatever the outcome, a non-successful run
// leaves no destination file behind.
func (t *Task) Run(ctl *Control, req Request) (out Outcome) {
	if ctl == nil {
		ctl = &Control{}
	}

	dest := ""
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("conversion of %s panicked: %v", req.Source.Path, r)
			out = Failed(KindLaunchFailure, fmt.Sprint(r))
		}
		if !out.Succeeded() && dest != "" {
			t.removeOutput(dest)
		}
	}()

	if ctl.Cancelled() {
		return Cancelled()
	}
	if !ffmpeg.ValidFormat(req.Format) {
		return Failed(KindLaunchFailure, fmt.Sprintf("invalid format %q", req.Format))
	}

	if t.config.Locator == nil {
		return Failed(KindEngineNotFound, ffmpeg.ErrNotFound.Error())
	}
	engine, err := t.config.Locator.Locate()
	if err != nil {
		return Failed(KindEngineNotFound, ffmpeg.ErrNotFound.Error())
	}

	if _, err := os.Stat(req.Source.Path); err != nil {
		return Failed(KindSourceMissing, "source missing: "+req.Source.Path)
	}

	policy, ok := ffmpeg.PolicyFor(req.Format)
	if !ok {
		t.logger.Warn("unknown format %q, copying the audio stream", req.Format)
	}

	dest = t.config.Resolver.Resolve(req.Source.Path, req.OutputDir, policy.Format)
	args := ffmpeg.Args(t.config.Args, req.Source.Path, dest, policy)

	ctx, stop := ctl.context(t.config.PollInterval)
	duration := t.config.Estimator.Estimate(ctx, engine, req.Source.Path)
	stop()

	parser := parse.New(parse.Config{
		LogLines: t.config.LogLines,
		Duration: duration,
		OnProgress: func(p parse.Progress) {
			if t.config.OnProgress != nil {
				t.config.OnProgress(req, p)
			}
		},
	})

	proc, err := ffmpeg.NewProcess(ffmpeg.ProcessConfig{
		Binary:  engine,
		Command: args,
		Parser:  parser,
		Monitor: t.config.Monitor(),
		Logger:  t.logger,
		OnStateChange: func(from, to string) {
			t.logger.Debug("engine for %s: %s -> %s", req.Source.Name, from, to)
		},
	})
	if err != nil {
		return Failed(KindLaunchFailure, err.Error())
	}

	t.logger.Debug("converting %s -> %s", req.Source.Path, dest)

	// the locator or the estimator may have taken a while
	if ctl.Cancelled() {
		return Cancelled()
	}
	if err := proc.Start(); err != nil {
		t.logger.Error("starting engine for %s: %v", req.Source.Path, err)
		return Failed(KindLaunchFailure, err.Error())
	}

	if t.config.OnProcess != nil {
		t.config.OnProcess(proc)
		defer t.config.OnProcess(nil)
	}

	out = t.supervise(ctl, proc)
	switch out.Status {
	case StatusSucceeded:
		out.Output = dest
		pr := parser.Progress()
		t.logger.Debug("%s: %.1fs of audio, %dkB at %.1fx", req.Source.Name, pr.Time, pr.Size, pr.Speed)
	case StatusFailed:
		out.Log = tail(parser.Log(), failureLogLines)
		if line := parser.LastLine(); line != "" {
			t.logger.Warn("%s: %s (%s)", req.Source.Name, out.Reason, line)
		}
	}
	return out
}

func tail(lines []process.Line, n int) []string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Data)
	}
	return out
}

// supervise polls the engine until it exits or the control asks to cancel
func (t *Task) supervise(ctl *Control, proc process.Process) Outcome {
	ticker := time.NewTicker(t.config.PollInterval)
	defer ticker.Stop()

	for {
		// an engine that already exited successfully wins over a late cancel
		if exited, code := proc.Exited(); exited {
			if code != 0 {
				return ExitFailure(code)
			}
			return Succeeded("")
		}

		if ctl.Cancelled() {
			t.abort(proc)
			return Cancelled()
		}

		if ctl.Paused() {
			t.hold(ctl, proc)
			continue
		}

		select {
		case <-proc.Done():
		case <-ticker.C:
		}
	}
}

// hold blocks while the control is paused
func (t *Task) hold(ctl *Control, proc process.Process) {
	suspended := false
	if t.config.SuspendOnPause {
		if err := proc.Suspend(); err != nil {
			t.logger.Warn("suspending engine: %v", err)
		} else {
			suspended = true
		}
	}

	for ctl.Paused() && !ctl.Cancelled() {
		time.Sleep(t.config.PollInterval)
	}

	if suspended && !ctl.Cancelled() {
		if err := proc.Resume(); err != nil {
			t.logger.Warn("resuming engine: %v", err)
		}
	}
}

// abort asks the engine to stop, and kills it after the grace period
func (t *Task) abort(proc process.Process) {
	if err := proc.Terminate(); err != nil {
		t.logger.Debug("terminate: %v", err)
	}

	select {
	case <-proc.Done():
		return
	case <-time.After(t.config.GracePeriod):
	}

	t.logger.Warn("engine ignored the interrupt, killing it")
	if err := proc.Kill(); err != nil {
		t.logger.Error("kill: %v", err)
	}

	select {
	case <-proc.Done():
	case <-time.After(killWait):
		t.logger.Error("engine did not exit after kill")
	}
}

func (t *Task) removeOutput(path string) {
	err := os.Remove(path)
	if err == nil {
		t.logger.Debug("removed partial output %s", path)
		return
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.logger.Error("removing partial output %s: %v", path, err)
	}
}
