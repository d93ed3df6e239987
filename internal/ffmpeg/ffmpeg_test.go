// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package ffmpeg

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg/skills"
)

func writeEngine(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLocateNotFound(t *testing.T) {
	l := NewLocator(LocatorConfig{
		Names:    []string{"no-such-engine"},
		Dirs:     []string{t.TempDir(), filepath.Join(t.TempDir(), "bin")},
		SkipPath: true,
	})
	path, err := l.Locate()
	if err != ErrNotFound || path != "" {
		t.Fatalf("Locate = %q, %v", path, err)
	}
}

func TestLocateSearchOrderAndCache(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit not meaningful on windows")
	}
	first, second := t.TempDir(), t.TempDir()
	writeEngine(t, first, "fake-engine", 0o644) // not executable, skipped
	want := writeEngine(t, second, "fake-engine", 0o755)

	l := NewLocator(LocatorConfig{Names: []string{"fake-engine"}, Dirs: []string{first, second}, SkipPath: true})
	got, err := l.Locate()
	if err != nil || got != want {
		t.Fatalf("Locate = %q, %v; want %q", got, err, want)
	}

	if err := os.Remove(want); err != nil {
		t.Fatal(err)
	}
	again, err := l.Locate()
	if err != nil || again != want {
		t.Errorf("second Locate re-probed: %q, %v", again, err)
	}
}

func TestLocateNotFoundIsCached(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit not meaningful on windows")
	}
	dir := t.TempDir()
	l := NewLocator(LocatorConfig{Names: []string{"late-engine"}, Dirs: []string{dir}, SkipPath: true})
	if _, err := l.Locate(); err != ErrNotFound {
		t.Fatalf("err = %v", err)
	}
	writeEngine(t, dir, "late-engine", 0o755)
	if _, err := l.Locate(); err != ErrNotFound {
		t.Errorf("cached NotFound not kept: %v", err)
	}
	if _, err := NewLocator(LocatorConfig{Names: []string{"late-engine"}, Dirs: []string{dir}, SkipPath: true}).Locate(); err != nil {
		t.Errorf("fresh locator: %v", err)
	}
}

func TestLocateExplicitBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit not meaningful on windows")
	}
	path := writeEngine(t, t.TempDir(), "custom-ffmpeg", 0o755)
	got, err := NewLocator(LocatorConfig{Binary: path}).Locate()
	if err != nil || got != path {
		t.Errorf("Locate = %q, %v", got, err)
	}
	if _, err := NewLocator(LocatorConfig{Binary: path + ".missing"}).Locate(); err != ErrNotFound {
		t.Errorf("missing explicit binary: %v", err)
	}
}

func TestDefaultDirs(t *testing.T) {
	wd, _ := os.Getwd()
	dirs := DefaultDirs()
	for _, want := range []string{wd, filepath.Join(wd, "engine"), filepath.Join(wd, "bin")} {
		found := false
		for _, d := range dirs {
			if d == want {
				found = true
			}
		}
		if !found {
			t.Errorf("DefaultDirs missing %s: %v", want, dirs)
		}
	}
}

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		format  string
		known   bool
		flags   string
		params  string
		encoder string
	}{
		{"mp3", true, "-f mp3", "-c:a libmp3lame -b:a 320k", "libmp3lame"},
		{"MP3", true, "-f mp3", "-c:a libmp3lame -b:a 320k", "libmp3lame"},
		{".wav", true, "-f wav", "-c:a pcm_s32le", "pcm_s32le"},
		{"flac", true, "-f flac", "-c:a flac -compression_level 12", "flac"},
		{"aac", true, "-f adts", "-c:a aac -b:a 320k", "aac"},
		{"m4a", true, "-f mp4", "-c:a aac -b:a 320k", "aac"},
		{"m4r", true, "-f mp4", "-c:a aac -b:a 320k", "aac"},
		{"ogg", true, "-f ogg", "-c:a libvorbis -q:a 10", "libvorbis"},
		{"opus", true, "-f opus", "-c:a libopus -b:a 320k", "libopus"},
		{"wma", true, "-f asf", "-c:a wmav2 -b:a 320k", "wmav2"},
		{"aiff", true, "-f aiff", "-c:a pcm_s16be", "pcm_s16be"},
		{"alac", true, "-f mp4", "-c:a alac", "alac"},
		{"wv", true, "-f wv", "-c:a wavpack", "wavpack"},
		{"bogus", false, "", "-c:a copy", "copy"},
	}
	for _, tt := range tests {
		p, known := PolicyFor(tt.format)
		if known != tt.known {
			t.Errorf("%s: known = %v", tt.format, known)
		}
		if got := strings.Join(p.ContainerFlags, " "); got != tt.flags {
			t.Errorf("%s: flags = %q, want %q", tt.format, got, tt.flags)
		}
		if got := strings.Join(p.EncoderParams, " "); got != tt.params {
			t.Errorf("%s: params = %q, want %q", tt.format, got, tt.params)
		}
		if p.Encoder() != tt.encoder {
			t.Errorf("%s: encoder = %q", tt.format, p.Encoder())
		}
		if p.IsCopy() == tt.known {
			t.Errorf("%s: IsCopy = %v", tt.format, p.IsCopy())
		}
	}
}

func TestPolicyIsNotShared(t *testing.T) {
	p, _ := PolicyFor("mp3")
	p.EncoderParams[0] = "mutated"
	again, _ := PolicyFor("mp3")
	if again.EncoderParams[0] != "-c:a" {
		t.Fatal("policy table mutated through a returned policy")
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"mp3", ".FLAC", " m4a ", "wv"} {
		if !ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = false", f)
		}
	}
	for _, f := range []string{"", "x/../y", `..\\y`, "mp 3", "ogg.", "a-b"} {
		if ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = true", f)
		}
	}
}

func TestFormats(t *testing.T) {
	want := []string{"aac", "aiff", "alac", "flac", "m4a", "m4r", "mp3", "ogg", "opus", "wav", "wma", "wv"}
	if got := Formats(); !reflect.DeepEqual(got, want) {
		t.Errorf("Formats = %v", got)
	}
}

func TestArgs(t *testing.T) {
	p, _ := PolicyFor("flac")
	got := Args(ArgsConfig{LogLevel: "error", Stats: true}, "/in/a.wav", "/out/a.flac", p)
	want := []string{"-i", "/in/a.wav", "-y", "-loglevel", "error", "-stats", "-f", "flac", "-c:a", "flac", "-compression_level", "12", "/out/a.flac"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args = %v", got)
	}

	copyPolicy, _ := PolicyFor("xyz")
	got = Args(ArgsConfig{}, "a.mkv", "a.xyz", copyPolicy)
	want = []string{"-i", "a.mkv", "-y", "-c:a", "copy", "a.xyz"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args = %v", got)
	}
}

func TestSupportFor(t *testing.T) {
	s := skills.Skills{
		Encoders: []skills.Encoder{{Id: "libmp3lame"}, {Id: "flac"}},
		Muxers:   []skills.Muxer{{Id: "mp3"}},
	}
	byFormat := map[string]FormatSupport{}
	for _, fs := range SupportFor(s) {
		byFormat[fs.Format] = fs
	}
	if !byFormat["mp3"].Available {
		t.Error("mp3 should be available")
	}
	if byFormat["flac"].Available {
		t.Error("flac has no muxer, should be unavailable")
	}
	if byFormat["ogg"].Available {
		t.Error("ogg has no encoder, should be unavailable")
	}
}
