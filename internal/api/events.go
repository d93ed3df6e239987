// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package api

import (
	"sync"

	"github.com/ZSC714725/audiotranscoder/internal/batch"
)

const subscriberBuffer = 256

// hub fans the events of the current run out to every SSE client
type hub struct {
	lock sync.Mutex
	subs map[chan batch.Event]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan batch.Event]struct{})}
}

func (h *hub) subscribe() chan batch.Event {
	ch := make(chan batch.Event, subscriberBuffer)
	h.lock.Lock()
	h.subs[ch] = struct{}{}
	h.lock.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan batch.Event) {
	h.lock.Lock()
	delete(h.subs, ch)
	h.lock.Unlock()
}

// publish never blocks; a client that can't keep up misses events
func (h *hub) publish(e batch.Event) int {
	dropped := 0
	h.lock.Lock()
	defer h.lock.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			dropped++
		}
	}
	return dropped
}
