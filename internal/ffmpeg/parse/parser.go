// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package parse

import (
	"container/ring"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ZSC714725/audiotranscoder/internal/process"
)

// Progress holds FFmpeg progress info parsed from stderr
type Progress struct {
	Time     float64 `json:"time_seconds"`
	Duration float64 `json:"duration_seconds"`
	Size     uint64  `json:"size_bytes"`
	Bitrate  float64 `json:"bitrate_kbit"`
	Speed    float64 `json:"speed"`
	Percent  int     `json:"percent"`
}

// Parser implements process.Parser and parses FFmpeg stderr
type Parser interface {
	process.Parser
	Progress() Progress
	LastLine() string
}

// MaxPercent is the highest percentage reported while the engine is still running
const MaxPercent = 99

var (
	reTime     = regexp.MustCompile(`time=\s*(-?[0-9]+):([0-9]{2}):([0-9]{2}(?:\.[0-9]+)?)`) // 支持 .0 .00 .000 等
	reDuration = regexp.MustCompile(`Duration:\s*([0-9]+):([0-9]{2}):([0-9]{2}(?:\.[0-9]+)?)`)
	reSize     = regexp.MustCompile(`size=\s*([0-9]+)(?:kB|KiB)`)
	reBitrate  = regexp.MustCompile(`bitrate=\s*([0-9\.]+)kbits/s`)
	reSpeed    = regexp.MustCompile(`speed=\s*([0-9\.]+)x`)
)

type parser struct {
	log      *ring.Ring
	logLines int
	last     string

	duration   time.Duration
	onProgress func(Progress)

	progress Progress
	lock     sync.RWMutex
}

// Config for the parser. Duration is the estimated media length used for
// percentages until the stream announces one itself. OnProgress is called
// whenever the percentage increases.
type Config struct {
	LogLines   int
	Duration   time.Duration
	OnProgress func(Progress)
}

// New creates a Parser
func New(config Config) Parser {
	p := &parser{
		logLines:   config.LogLines,
		duration:   config.Duration,
		onProgress: config.OnProgress,
	}
	if p.logLines <= 0 {
		p.logLines = 100
	}
	p.log = ring.New(p.logLines)
	p.progress.Duration = p.duration.Seconds()
	return p
}

func (p *parser) Parse(line string) uint64 {
	now := time.Now()

	p.lock.Lock()
	p.log.Value = process.Line{Timestamp: now, Data: line}
	p.log = p.log.Next()
	if strings.TrimSpace(line) != "" {
		p.last = line
	}

	if m := reDuration.FindStringSubmatch(line); m != nil {
		if d, ok := clock(m[1], m[2], m[3]); ok && d > 0 {
			p.progress.Duration = d
		}
	}

	m := reTime.FindStringSubmatch(line)
	if m == nil {
		p.lock.Unlock()
		return 0
	}

	if t, ok := clock(m[1], m[2], m[3]); ok && t >= 0 {
		p.progress.Time = t
	}
	if m := reSize.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Size = x * 1024
		}
	}
	if m := reBitrate.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Bitrate = x
		}
	}
	if m := reSpeed.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Speed = x
		}
	}

	percent := Percent(p.progress.Time, p.progress.Duration)
	increased := percent > p.progress.Percent
	if increased {
		p.progress.Percent = percent
	}
	progress := p.progress
	p.lock.Unlock()

	if increased && p.onProgress != nil {
		p.onProgress(progress)
	}

	return uint64(progress.Percent) + 1
}

// Percent maps elapsed seconds onto [0, MaxPercent] against duration seconds
func Percent(elapsed, duration float64) int {
	if duration <= 0 || elapsed <= 0 {
		return 0
	}
	pct := int(elapsed / duration * 100)
	if pct > MaxPercent {
		return MaxPercent
	}
	return pct
}

// ParseClock converts an HH:MM:SS(.frac) marker to seconds
func ParseClock(s string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, false
	}
	return clock(parts[0], parts[1], parts[2])
}

func clock(h, m, s string) (float64, bool) {
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	ss, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if hh < 0 {
		// the engine prints time=-577014:32:22.77 before the first packet
		return -1, true
	}
	return float64(hh*3600+mm*60) + ss, true
}

func (p *parser) ResetStats() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.progress = Progress{Duration: p.duration.Seconds()}
}

func (p *parser) ResetLog() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.log = ring.New(p.logLines)
	p.last = ""
}

func (p *parser) Log() []process.Line {
	var out []process.Line
	p.lock.RLock()
	p.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(process.Line))
		}
	})
	p.lock.RUnlock()
	return out
}

func (p *parser) LastLine() string {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.last
}

func (p *parser) Progress() Progress {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.progress
}
