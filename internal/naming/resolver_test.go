// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package naming

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveFreePath(t *testing.T) {
	out := t.TempDir()
	got := NewResolver().Resolve("/music/song.wav", out, "mp3")
	if want := filepath.Join(out, "song.mp3"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveFirstUnusedSuffix(t *testing.T) {
	out := t.TempDir()
	touch(t, filepath.Join(out, "song.mp3"))
	touch(t, filepath.Join(out, "song_1.mp3"))
	touch(t, filepath.Join(out, "song_3.mp3"))

	r := NewResolver()
	want := filepath.Join(out, "song_2.mp3")
	if got := r.Resolve("/music/song.flac", out, "mp3"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// no file created in between: same answer
	if got := r.Resolve("/music/song.flac", out, "mp3"); got != want {
		t.Errorf("second call got %q, want %q", got, want)
	}
	if _, err := os.Stat(want); !os.IsNotExist(err) {
		t.Error("Resolve created the file")
	}
}

func TestResolveSourceInOutputDir(t *testing.T) {
	out := t.TempDir()
	src := filepath.Join(out, "take.mp3")
	touch(t, src)
	if got, want := NewResolver().Resolve(src, out, "mp3"), filepath.Join(out, "take_1.mp3"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveWithCustomExists(t *testing.T) {
	taken := map[string]bool{
		filepath.Join("out", "a.ogg"):   true,
		filepath.Join("out", "a_1.ogg"): true,
	}
	r := NewResolverWith(func(p string) bool { return taken[p] })
	if got := r.Resolve("a.b.wav", "out", "ogg"); got != filepath.Join("out", "a.b.ogg") {
		t.Errorf("got %q", got)
	}
	if got := r.Resolve("dir/a.wav", "out", "ogg"); got != filepath.Join("out", "a_2.ogg") {
		t.Errorf("got %q", got)
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"/a/b/song.wav":     "song",
		"song":              "song",
		"/a/archive.tar.gz": "archive.tar",
		"/a/.hidden":        "",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
