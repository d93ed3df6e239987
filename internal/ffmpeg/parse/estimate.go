// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package parse

import (
	"context"
	"time"

	"github.com/ZSC714725/audiotranscoder/internal/process"
)

// Estimator guesses the duration of a source file. Progress percentages are
// computed against it, so it only needs to be roughly right. Estimate
// returns promptly once ctx is done.
type Estimator interface {
	Estimate(ctx context.Context, engine, source string) time.Duration
}

// FixedEstimator assumes every source has the same length
type FixedEstimator time.Duration

// DefaultDuration is used when nothing better is known
const DefaultDuration = 180 * time.Second

func (f FixedEstimator) Estimate(ctx context.Context, engine, source string) time.Duration {
	if f <= 0 {
		return DefaultDuration
	}
	return time.Duration(f)
}

// ProbeEstimator asks the engine itself for the source's duration by running
// it with only an input, which prints the stream header and exits.
type ProbeEstimator struct {
	Fallback time.Duration
	Timeout  time.Duration
}

func (e ProbeEstimator) Estimate(ctx context.Context, engine, source string) time.Duration {
	fallback := FixedEstimator(e.Fallback).Estimate(ctx, engine, source)
	if engine == "" || ctx.Err() != nil {
		return fallback
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// exits non-zero ("At least one output file must be specified"), the header is still printed
	out, _ := process.Command(ctx, engine, "-hide_banner", "-i", source).CombinedOutput()

	if d, ok := ProbeDuration(out); ok {
		return d
	}
	return fallback
}

// ProbeDuration finds the first "Duration: HH:MM:SS.xx" header in engine output
func ProbeDuration(out []byte) (time.Duration, bool) {
	m := reDuration.FindSubmatch(out)
	if m == nil {
		return 0, false
	}
	secs, ok := clock(string(m[1]), string(m[2]), string(m[3]))
	if !ok || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}
