// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package logger

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	flags := log.Flags()
	log.SetOutput(buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return buf
}

func TestLevels(t *testing.T) {
	buf := captureLog(t)
	l := New("batch", false)
	l.Info("started %d", 3)
	l.Warn("careful")
	l.Error("broken: %s", "x")
	l.Debug("hidden")

	out := buf.String()
	for _, want := range []string{"[INFO] batch started 3", "[WARN] batch careful", "[ERROR] batch broken: x"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written with debug disabled: %q", out)
	}
}

func TestDebugEnabled(t *testing.T) {
	buf := captureLog(t)
	New("", true).Debug("visible")
	if !strings.Contains(buf.String(), "[DEBUG] visible") {
		t.Errorf("got %q", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := New("x", false)
	if OrNop(l) != l {
		t.Error("OrNop replaced a non-nil logger")
	}
}
