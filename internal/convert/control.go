// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package convert

import (
	"context"
	"sync/atomic"
	"time"
)

// Control carries the cooperative cancel and pause flags shared between the
// caller and a running conversion. All methods are safe from any goroutine
// and never block.
type Control struct {
	cancel atomic.Bool
	pause  atomic.Bool
}

func (c *Control) Cancel()         { c.cancel.Store(true) }
func (c *Control) Pause()          { c.pause.Store(true) }
func (c *Control) Resume()         { c.pause.Store(false) }
func (c *Control) Cancelled() bool { return c.cancel.Load() }
func (c *Control) Paused() bool    { return c.pause.Load() }

// context returns a context that is cancelled within one poll interval of
// c being cancelled. stop must be called to release it.
func (c *Control) context(poll time.Duration) (ctx context.Context, stop context.CancelFunc) {
	ctx, stop = context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(poll)
		defer ticker.Stop()
		for !c.Cancelled() {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
		stop()
	}()
	return ctx, stop
}
