// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具
//
// Package process wraps exec.Cmd for supervising one engine child process.
// Exit is observed by polling, so the caller stays in charge of cancellation.

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
	"unicode/utf8"
)

// Process represents an engine child process
type Process interface {
	Start() error
	// Exited reports whether the process has exited and, if so, its exit code.
	// It never blocks.
	Exited() (bool, int)
	Done() <-chan struct{}
	Terminate() error
	Kill() error
	Suspend() error
	Resume() error
	Status() Status
	IsRunning() bool
}

// Config for a process
type Config struct {
	Binary        string
	Args          []string
	Parser        Parser
	Monitor       Monitor
	OnStateChange func(from, to string)
	Logger        Logger
}

// Status of a process
type Status struct {
	State    string
	States   States
	Duration time.Duration
	Time     time.Time
	ExitCode int
	CPU      struct {
		Current float64
	}
	Memory struct {
		Current uint64
	}
}

// States cumulative counts
type States struct {
	Finished  uint64 `json:"finished"`
	Starting  uint64 `json:"starting"`
	Running   uint64 `json:"running"`
	Paused    uint64 `json:"paused"`
	Finishing uint64 `json:"finishing"`
	Failed    uint64 `json:"failed"`
	Killed    uint64 `json:"killed"`
}

// Logger interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// ErrNotStarted is returned by signalling methods before Start succeeded
var ErrNotStarted = errors.New("process not started")

// WaitDelay bounds how long output is still read after the engine exited.
// A grandchild holding stderr open can't keep the process alive past it.
const WaitDelay = 100 * time.Millisecond

// Command prepares a one-shot engine command the way New runs the engine:
// no console window, and cancelling ctx kills everything it started.
func Command(ctx context.Context, binary string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, binary, args...)
	prepare(cmd)
	cmd.Cancel = func() error { return kill(cmd) }
	cmd.WaitDelay = WaitDelay
	return cmd
}

type stateType string

const (
	stateIdle      stateType = "idle"
	stateFinished  stateType = "finished"
	stateStarting  stateType = "starting"
	stateRunning   stateType = "running"
	statePaused    stateType = "paused"
	stateFinishing stateType = "finishing"
	stateFailed    stateType = "failed"
	stateKilled    stateType = "killed"
)

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == stateStarting || s == stateRunning || s == statePaused || s == stateFinishing
}

type process struct {
	binary string
	args   []string
	cmd    *exec.Cmd

	state struct {
		state  stateType
		time   time.Time
		states States
		lock   sync.Mutex
	}
	exit struct {
		code int
		done chan struct{}
	}
	parser  Parser
	logger  Logger
	monitor Monitor

	onStateChange func(from, to string)
}

// New creates a new process. It does not start it.
func New(config Config) (Process, error) {
	p := &process{
		binary:  config.Binary,
		args:    config.Args,
		parser:  config.Parser,
		logger:  config.Logger,
		monitor: config.Monitor,
	}

	if len(p.binary) == 0 {
		return nil, fmt.Errorf("no valid binary given")
	}

	if p.parser == nil {
		p.parser = &nullParser{}
	}

	if p.logger == nil {
		p.logger = &nopLogger{}
	}

	if p.monitor == nil {
		p.monitor = NewSysMonitor()
	}

	p.state.state = stateIdle
	p.state.time = time.Now()
	p.exit.done = make(chan struct{})
	p.onStateChange = config.OnStateChange

	return p, nil
}

func (p *process) setState(state stateType) error {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()

	prevState := p.state.state
	failed := false

	switch p.state.state {
	case stateIdle:
		if state == stateStarting {
			p.state.state = state
			p.state.states.Starting++
		} else {
			failed = true
		}
	case stateStarting:
		switch state {
		case stateRunning:
			p.state.state = state
			p.state.states.Running++
		case stateFailed:
			p.state.state = state
			p.state.states.Failed++
		default:
			failed = true
		}
	case stateRunning, statePaused:
		switch state {
		case stateRunning:
			if p.state.state != statePaused {
				failed = true
				break
			}
			p.state.state = state
			p.state.states.Running++
		case statePaused:
			if p.state.state != stateRunning {
				failed = true
				break
			}
			p.state.state = state
			p.state.states.Paused++
		case stateFinished, stateFinishing, stateFailed, stateKilled:
			p.state.state = state
			p.count(state)
		default:
			failed = true
		}
	case stateFinishing:
		switch state {
		case stateFinished, stateFailed, stateKilled:
			p.state.state = state
			p.count(state)
		default:
			failed = true
		}
	case stateFinished, stateFailed, stateKilled:
		failed = true
	default:
		return fmt.Errorf("unhandled state: %s", p.state.state)
	}

	if failed {
		return fmt.Errorf("can't change from %s to %s", p.state.state, state)
	}

	p.state.time = time.Now()
	if p.onStateChange != nil {
		go p.onStateChange(prevState.String(), p.state.state.String())
	}
	return nil
}

// count must be called with the state lock held
func (p *process) count(state stateType) {
	switch state {
	case stateFinished:
		p.state.states.Finished++
	case stateFinishing:
		p.state.states.Finishing++
	case stateFailed:
		p.state.states.Failed++
	case stateKilled:
		p.state.states.Killed++
	}
}

func (p *process) getState() stateType {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	return p.state.state
}

func (p *process) IsRunning() bool {
	return p.getState().IsRunning()
}

func (p *process) Status() Status {
	cpu, memory := p.monitor.Current()

	p.state.lock.Lock()
	stateTime := p.state.time
	stateString := p.state.state.String()
	states := p.state.states
	p.state.lock.Unlock()

	s := Status{
		State:    stateString,
		States:   states,
		Duration: time.Since(stateTime),
		Time:     stateTime,
	}
	if exited, code := p.Exited(); exited {
		s.ExitCode = code
	}
	s.CPU.Current = cpu
	s.Memory.Current = memory
	return s
}

func (p *process) Start() error {
	if err := p.setState(stateStarting); err != nil {
		return err
	}

	p.cmd = exec.Command(p.binary, p.args...)
	prepare(p.cmd)
	p.cmd.WaitDelay = WaitDelay

	// not StderrPipe: Wait must be free to give up on the pipe after WaitDelay
	stderr, w := io.Pipe()
	p.cmd.Stderr = w

	if err := p.cmd.Start(); err != nil {
		w.Close()
		p.setState(stateFailed)
		p.parser.Parse(err.Error())
		return err
	}

	pid := p.cmd.Process.Pid
	if err := p.monitor.Start(pid); err != nil {
		p.logger.Debug("monitor pid %d: %v", pid, err)
	}

	p.setState(stateRunning)
	p.logger.Debug("started pid %d: %s %v", pid, p.binary, p.args)

	read := make(chan struct{})
	go p.reader(stderr, read)
	go p.waiter(w, read)

	return nil
}

func (p *process) Done() <-chan struct{} {
	return p.exit.done
}

func (p *process) Exited() (bool, int) {
	select {
	case <-p.exit.done:
		return true, p.exit.code
	default:
		return false, 0
	}
}

func (p *process) started() bool {
	return p.cmd != nil && p.cmd.Process != nil
}

// Terminate asks the process to stop. On Windows there is no interrupt, so
// the process is killed.
func (p *process) Terminate() error {
	if !p.started() {
		return ErrNotStarted
	}
	if exited, _ := p.Exited(); exited {
		return nil
	}

	if p.getState() == statePaused {
		// a stopped process can't handle the interrupt
		p.Resume()
	}
	p.setState(stateFinishing)

	if err := interrupt(p.cmd); err != nil {
		return kill(p.cmd)
	}
	return nil
}

func (p *process) Kill() error {
	if !p.started() {
		return ErrNotStarted
	}
	if exited, _ := p.Exited(); exited {
		return nil
	}
	return kill(p.cmd)
}

func (p *process) Suspend() error {
	if !p.started() {
		return ErrNotStarted
	}
	if p.getState() != stateRunning {
		return nil
	}
	if err := p.monitor.Suspend(); err != nil {
		return err
	}
	return p.setState(statePaused)
}

func (p *process) Resume() error {
	if !p.started() {
		return ErrNotStarted
	}
	if p.getState() != statePaused {
		return nil
	}
	if err := p.monitor.Resume(); err != nil {
		return err
	}
	return p.setState(stateRunning)
}

func (p *process) reader(stderr io.ReadCloser, read chan<- struct{}) {
	defer close(read)
	// keep draining after a scan error, or the copy into the pipe blocks
	defer io.Copy(io.Discard, stderr)

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLine)

	p.parser.ResetStats()
	p.parser.ResetLog()

	for scanner.Scan() {
		p.parser.Parse(scanner.Text())
	}
}

func (p *process) waiter(stderr io.Closer, read <-chan struct{}) {
	err := p.cmd.Wait()
	stderr.Close()
	<-read

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			code = exitErr.ExitCode()
		case errors.Is(err, exec.ErrWaitDelay):
			code = p.cmd.ProcessState.ExitCode()
		default:
			code = -1
			p.parser.Parse(err.Error())
		}
	}

	switch {
	case code == 0:
		p.setState(stateFinished)
	case code > 0:
		p.setState(stateFailed)
	default:
		// terminated by a signal
		p.setState(stateKilled)
	}

	p.monitor.Stop()

	p.exit.code = code
	close(p.exit.done)
}

// scanLine splits on both \n and \r, since the engine redraws its stats
// line with carriage returns.
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

type nullParser struct{}

func (p *nullParser) Parse(line string) uint64 { return 0 }
func (p *nullParser) ResetStats()              {}
func (p *nullParser) ResetLog()                {}
func (p *nullParser) Log() []Line              { return nil }

type nopLogger struct{}

func (l *nopLogger) Info(format string, args ...interface{})  {}
func (l *nopLogger) Error(format string, args ...interface{}) {}
func (l *nopLogger) Debug(format string, args ...interface{}) {}
