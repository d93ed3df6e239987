// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package process

import (
	"errors"
	"sync"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
)

// Monitor samples resource usage of a running process and can suspend it.
type Monitor interface {
	Start(pid int) error
	Stop()
	Current() (cpu float64, memory uint64)
	Suspend() error
	Resume() error
}

var errNoProcess = errors.New("monitor has no process")

type nullMonitor struct{}

// NewNullMonitor returns a monitor that reports nothing and can't suspend
func NewNullMonitor() Monitor {
	return &nullMonitor{}
}

func (m *nullMonitor) Start(pid int) error        { return nil }
func (m *nullMonitor) Stop()                      {}
func (m *nullMonitor) Current() (float64, uint64) { return 0, 0 }
func (m *nullMonitor) Suspend() error             { return errNoProcess }
func (m *nullMonitor) Resume() error              { return errNoProcess }

// sysMonitor 使用 gopsutil 采集进程 CPU 和内存, 并负责挂起/恢复
type sysMonitor struct {
	mu   sync.RWMutex
	proc *gopsutilprocess.Process
}

// NewSysMonitor 创建基于系统调用的监视器
func NewSysMonitor() Monitor {
	return &sysMonitor{}
}

func (m *sysMonitor) Start(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, err := gopsutilprocess.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	m.proc = proc
	return nil
}

func (m *sysMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proc = nil
}

func (m *sysMonitor) get() *gopsutilprocess.Process {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.proc
}

func (m *sysMonitor) Current() (cpu float64, memory uint64) {
	proc := m.get()
	if proc == nil {
		return 0, 0
	}
	if cpuPct, err := proc.CPUPercent(); err == nil {
		cpu = cpuPct
	}
	if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
		memory = memInfo.RSS
	}
	return cpu, memory
}

func (m *sysMonitor) Suspend() error {
	proc := m.get()
	if proc == nil {
		return errNoProcess
	}
	return proc.Suspend()
}

func (m *sysMonitor) Resume() error {
	proc := m.get()
	if proc == nil {
		return errNoProcess
	}
	return proc.Resume()
}
