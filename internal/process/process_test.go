// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package process

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingParser struct {
	mu    sync.Mutex
	lines []string
}

func (p *recordingParser) Parse(line string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, line)
	return 0
}
func (p *recordingParser) ResetStats() {}
func (p *recordingParser) ResetLog()   {}
func (p *recordingParser) Log() []Line { return nil }

func (p *recordingParser) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "stub.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitExit(t *testing.T, p Process, timeout time.Duration) int {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(timeout):
		t.Fatalf("process did not exit within %v", timeout)
	}
	exited, code := p.Exited()
	if !exited {
		t.Fatal("Exited() false after Done closed")
	}
	return code
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without binary")
	}
}

func TestExitCodeAndStderrLines(t *testing.T) {
	bin := writeScript(t, `printf 'size=1kB time=00:00:01.00\rsize=2kB time=00:00:02.00\n' >&2
echo "oops" >&2
exit 3`)
	parser := &recordingParser{}
	p, err := New(Config{Binary: bin, Parser: parser, Monitor: NewNullMonitor()})
	if err != nil {
		t.Fatal(err)
	}
	if exited, _ := p.Exited(); exited {
		t.Fatal("exited before start")
	}
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	if code := waitExit(t, p, 5*time.Second); code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}

	lines := parser.all()
	want := []string{"size=1kB time=00:00:01.00", "size=2kB time=00:00:02.00", "oops"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
	if st := p.Status(); st.State != "failed" || st.ExitCode != 3 {
		t.Errorf("status = %+v", st)
	}
	if p.IsRunning() {
		t.Error("IsRunning after exit")
	}
}

func TestSuccessfulExit(t *testing.T) {
	bin := writeScript(t, `exit 0`)
	p, _ := New(Config{Binary: bin, Monitor: NewNullMonitor()})
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	if code := waitExit(t, p, 5*time.Second); code != 0 {
		t.Errorf("exit code = %d", code)
	}
	if st := p.Status(); st.State != "finished" || st.States.Finished != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestStartMissingBinary(t *testing.T) {
	p, _ := New(Config{Binary: filepath.Join(t.TempDir(), "missing"), Monitor: NewNullMonitor()})
	if err := p.Start(); err == nil {
		t.Fatal("expected start error")
	}
	if p.IsRunning() {
		t.Error("IsRunning after failed start")
	}
	if err := p.Terminate(); err != ErrNotStarted {
		t.Errorf("Terminate = %v, want ErrNotStarted", err)
	}
}

func TestTerminateAndKill(t *testing.T) {
	// ignores the interrupt so only Kill can stop it
	bin := writeScript(t, `trap '' INT
while true; do sleep 1; done`)
	p, _ := New(Config{Binary: bin, Monitor: NewNullMonitor()})
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	if err := p.Terminate(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-p.Done():
		if runtime.GOOS != "windows" {
			t.Fatal("process ignoring SIGINT exited on Terminate")
		}
	case <-time.After(300 * time.Millisecond):
	}
	if err := p.Kill(); err != nil {
		t.Fatal(err)
	}
	waitExit(t, p, 5*time.Second)
	if st := p.Status(); st.State != "killed" {
		t.Errorf("state = %s, want killed", st.State)
	}
}

func TestTerminateReachesChildren(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "marker")
	// the wrapper waits on a child that holds stderr and writes late
	bin := writeScript(t, `sh -c 'sleep 1; echo late > "$1"' _ "`+marker+`"`)
	p, _ := New(Config{Binary: bin, Monitor: NewNullMonitor()})
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	if err := p.Terminate(); err != nil {
		t.Fatal(err)
	}
	waitExit(t, p, 5*time.Second)
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("exit after terminate took %v", elapsed)
	}

	time.Sleep(1500 * time.Millisecond)
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Errorf("child outlived the terminated process: %v", err)
	}
}

func TestStateChanges(t *testing.T) {
	bin := writeScript(t, `exit 0`)

	var mu sync.Mutex
	seen := map[string]bool{}
	p, _ := New(Config{
		Binary:  bin,
		Monitor: NewNullMonitor(),
		OnStateChange: func(from, to string) {
			mu.Lock()
			seen[from+">"+to] = true
			mu.Unlock()
		},
	})
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	waitExit(t, p, 5*time.Second)

	want := []string{"idle>starting", "starting>running", "running>finished"}
	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		missing := ""
		for _, w := range want {
			if !seen[w] {
				missing = w
				break
			}
		}
		mu.Unlock()
		if missing == "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("state change %s not reported", missing)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if st := p.Status(); st.States.Starting != 1 || st.States.Running != 1 || st.States.Finished != 1 {
		t.Errorf("states = %+v", st.States)
	}
}

func TestSuspendResume(t *testing.T) {
	bin := writeScript(t, `sleep 0.3; exit 0`)
	p, _ := New(Config{Binary: bin})
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	if err := p.Suspend(); err != nil {
		t.Skipf("suspend not supported here: %v", err)
	}
	if st := p.Status(); st.State != "paused" {
		t.Errorf("state = %s, want paused", st.State)
	}
	select {
	case <-p.Done():
		t.Fatal("suspended process exited")
	case <-time.After(600 * time.Millisecond):
	}
	if err := p.Resume(); err != nil {
		t.Fatal(err)
	}
	if code := waitExit(t, p, 5*time.Second); code != 0 {
		t.Errorf("exit code = %d", code)
	}
}

func TestScanLine(t *testing.T) {
	data := []byte("\r\nfirst\rsecond\n\nthird")
	var got []string
	for len(data) > 0 {
		adv, tok, _ := scanLine(data, true)
		if adv == 0 {
			break
		}
		if tok != nil {
			got = append(got, string(tok))
		}
		data = data[adv:]
	}
	want := "first|second|third"
	if strings.Join(got, "|") != want {
		t.Errorf("got %q", got)
	}
}
