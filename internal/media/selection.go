// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package media

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lithammer/shortuuid/v4"
)

// Selection is the ordered, path-unique list of files picked for a batch
type Selection interface {
	Add(path string) (File, error)
	AddFolder(dir string) ([]File, error)
	Get(id string) (File, error)
	List() []File
	Remove(id string) error
	Clear() error
	Len() int
	// Lock rejects mutations until Unlock; used while a batch is running.
	Lock()
	Unlock()
}

type selection struct {
	validator Validator
	files     []File
	byPath    map[string]string
	locked    bool
	mu        sync.RWMutex
}

// NewSelection creates an empty selection. A nil validator accepts any file.
func NewSelection(v Validator) Selection {
	if v == nil {
		v, _ = NewValidator(nil, nil)
	}
	return &selection{
		validator: v,
		byPath:    make(map[string]string),
	}
}

func (s *selection) Add(path string) (File, error) {
	f, err := NewFile(path)
	if err != nil {
		return File{}, err
	}
	if !s.validator.IsValid(f.Path) {
		return File{}, ErrUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return File{}, ErrLocked
	}
	if _, exists := s.byPath[f.Path]; exists {
		return File{}, ErrExists
	}

	f.ID = shortuuid.New()
	s.files = append(s.files, f)
	s.byPath[f.Path] = f.ID
	return f, nil
}

// AddFolder adds the supported files directly inside dir in lexical order.
// Files already selected are skipped silently.
func (s *selection) AddFolder(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var added []File
	for _, name := range names {
		f, err := s.Add(filepath.Join(dir, name))
		switch err {
		case nil:
			added = append(added, f)
		case ErrExists, ErrUnsupported:
		default:
			return added, err
		}
	}
	return added, nil
}

func (s *selection) Get(id string) (File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.files {
		if f.ID == id {
			return f, nil
		}
	}
	return File{}, ErrNotFound
}

func (s *selection) List() []File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]File(nil), s.files...)
}

func (s *selection) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return ErrLocked
	}
	for i, f := range s.files {
		if f.ID == id {
			s.files = append(s.files[:i], s.files[i+1:]...)
			delete(s.byPath, f.Path)
			return nil
		}
	}
	return ErrNotFound
}

func (s *selection) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return ErrLocked
	}
	s.files = nil
	s.byPath = make(map[string]string)
	return nil
}

func (s *selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

func (s *selection) Lock() {
	s.mu.Lock()
	s.locked = true
	s.mu.Unlock()
}

func (s *selection) Unlock() {
	s.mu.Lock()
	s.locked = false
	s.mu.Unlock()
}
