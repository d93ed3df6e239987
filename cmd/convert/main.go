// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/ZSC714725/audiotranscoder/internal/batch"
	"github.com/ZSC714725/audiotranscoder/internal/config"
	"github.com/ZSC714725/audiotranscoder/internal/desktop"
	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg"
	"github.com/ZSC714725/audiotranscoder/internal/logger"
	"github.com/ZSC714725/audiotranscoder/internal/media"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	format := flag.String("format", "", "Target format (overrides config)")
	outputDir := flag.String("out", "", "Output directory (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	check := flag.Bool("check", false, "Show the engine and the formats it can produce, then exit")
	open := flag.Bool("open", false, "Open the output directory when done")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file|folder...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}
	if *format != "" {
		cfg.Conversion.Format = ffmpeg.NormalizeFormat(*format)
	}
	if *outputDir != "" {
		cfg.Conversion.OutputDir = *outputDir
	}
	if *ffmpegBin != "" {
		cfg.FFmpeg.Path = *ffmpegBin
	}
	cfg.Debug = cfg.Debug || *debug

	logger := logger.New("convert", cfg.Debug)
	bc := batch.ConfigFrom(cfg, logger)

	if *check {
		os.Exit(checkEngine(bc.Locator))
	}

	validator, err := media.NewExtensionValidator(cfg.Media.Allow, cfg.Media.Block)
	if err != nil {
		log.Fatalf("Media filter: %v", err)
	}
	selection := media.NewSelection(validator)
	for _, arg := range flag.Args() {
		if fi, err := os.Stat(arg); err == nil && fi.IsDir() {
			if _, err := selection.AddFolder(arg); err != nil {
				logger.Warn("%s: %v", arg, err)
			}
			continue
		}
		if _, err := selection.Add(arg); err != nil {
			logger.Warn("%s: %v", arg, err)
		}
	}

	orchestrator := batch.New(bc)
	run, err := orchestrator.Start(selection.List(), cfg.Conversion.OutputDir, cfg.Conversion.Format)
	if err != nil {
		// an empty batch is only a warning
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		fmt.Fprintln(os.Stderr, "cancelling...")
		run.Cancel()
	}()

	var last batch.Event
	for e := range run.Events() {
		switch e.Type {
		case batch.EventFileStarted:
			fmt.Printf("[%d/%d] %s\n", e.Index+1, e.Total, e.Filename)
		case batch.EventProgress:
			fmt.Printf("\r  %3d%%", e.Percent)
		case batch.EventFileDone:
			fmt.Printf("\r  %s (batch %d%%)\n", e.Status, e.Percent)
		case batch.EventCompleted:
			last = e
			fmt.Printf("%s: %s\n", e.State, e.Status)
		}
	}

	// without -open, only an explicit config file may ask for the file manager
	openDir := *open || (*configPath != "" && cfg.Conversion.OpenOutputDir)
	if last.Stats != nil && desktop.ShouldOpen(openDir, last.Stats.Succeeded) {
		if err := desktop.OpenDir(cfg.Conversion.OutputDir); err != nil {
			logger.Warn("open output directory: %v", err)
		}
	}

	if last.State != batch.StateCompleted || last.Stats == nil || last.Stats.Failed > 0 {
		os.Exit(1)
	}
}

func checkEngine(locator ffmpeg.LocatorConfig) int {
	ff, err := ffmpeg.New(ffmpeg.NewLocator(locator))
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		return 1
	}

	s := ff.Skills()
	fmt.Printf("engine:  %s\nversion: %s\n\n", ff.Binary(), s.FFmpeg.Version)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FORMAT\tENCODER\tMUXER\tAVAILABLE")
	for _, fs := range ff.Support() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", fs.Format, fs.Encoder, fs.Muxer, fs.Available)
	}
	w.Flush()
	return 0
}
