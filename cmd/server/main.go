// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package main

import (
	"flag"
	"log"
	"net"

	"github.com/ZSC714725/audiotranscoder/internal/api"
	"github.com/ZSC714725/audiotranscoder/internal/batch"
	"github.com/ZSC714725/audiotranscoder/internal/config"
	"github.com/ZSC714725/audiotranscoder/internal/desktop"
	"github.com/ZSC714725/audiotranscoder/internal/logger"
	"github.com/ZSC714725/audiotranscoder/internal/media"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	outputDir := flag.String("out", "", "Default output directory (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}

	if *bind != "" {
		cfg.Server.Bind = *bind
	}
	if *ffmpegBin != "" {
		cfg.FFmpeg.Path = *ffmpegBin
	}
	if *outputDir != "" {
		cfg.Conversion.OutputDir = *outputDir
	}
	cfg.Debug = cfg.Debug || *debug

	// single user tool: never listen beyond this machine
	if host, _, err := net.SplitHostPort(cfg.Server.Bind); err != nil {
		log.Fatalf("Bind address %q: %v", cfg.Server.Bind, err)
	} else if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		log.Fatalf("Bind address %q is not a loopback address", cfg.Server.Bind)
	}

	logger := logger.New("audiotranscoder", cfg.Debug)

	validator, err := media.NewExtensionValidator(cfg.Media.Allow, cfg.Media.Block)
	if err != nil {
		log.Fatalf("Media filter: %v", err)
	}

	orchestrator := batch.New(batch.ConfigFrom(cfg, logger))

	handler := api.NewHandler(api.Config{
		Selection: media.NewSelection(validator),
		Batch:     orchestrator,
		Locator:   batch.ConfigFrom(cfg, logger).Locator,
		OutputDir: cfg.Conversion.OutputDir,
		Format:    cfg.Conversion.Format,
		Logger:    logger,
		OnCompleted: func(dir string, e batch.Event) {
			if e.Stats == nil || !desktop.ShouldOpen(cfg.Conversion.OpenOutputDir, e.Stats.Succeeded) {
				return
			}
			if err := desktop.OpenDir(dir); err != nil {
				logger.Warn("open output directory: %v", err)
			}
		},
	})

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.Default())
	handler.Register(r)

	logger.Info("listening on %s, converting to %s in %s", cfg.Server.Bind, cfg.Conversion.Format, cfg.Conversion.OutputDir)
	if err := r.Run(cfg.Server.Bind); err != nil {
		log.Fatalf("Server: %v", err)
	}
}
