// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package api

import (
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/ZSC714725/audiotranscoder/internal/batch"
	"github.com/ZSC714725/audiotranscoder/internal/ffmpeg"
	"github.com/ZSC714725/audiotranscoder/internal/logger"
	"github.com/ZSC714725/audiotranscoder/internal/media"
	"github.com/gin-gonic/gin"
)

// Config for a Handler. OutputDir and Format are used when a start request
// leaves them empty.
type Config struct {
	Selection media.Selection
	Batch     *batch.Orchestrator
	Locator   ffmpeg.LocatorConfig
	OutputDir string
	Format    string
	Logger    logger.Logger
	// OnCompleted is called with the terminal event of every run
	OnCompleted func(outputDir string, e batch.Event)
}

// Handler holds dependencies
type Handler struct {
	selection media.Selection
	batch     *batch.Orchestrator
	locator   ffmpeg.LocatorConfig
	logger    logger.Logger
	hub       *hub
	completed func(outputDir string, e batch.Event)

	lock      sync.RWMutex
	outputDir string
	format    string
	// closed once the previous run's events are all published
	pumped chan struct{}
}

// NewHandler creates API handler
func NewHandler(config Config) *Handler {
	return &Handler{
		selection: config.Selection,
		batch:     config.Batch,
		locator:   config.Locator,
		logger:    logger.OrNop(config.Logger),
		hub:       newHub(),
		completed: config.OnCompleted,
		outputDir: config.OutputDir,
		format:    config.Format,
	}
}

// Register mounts the API routes on r
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/files", h.ListFiles)
		v1.POST("/files", h.AddFiles)
		v1.POST("/files/folder", h.AddFolder)
		v1.DELETE("/files/:id", h.RemoveFile)
		v1.DELETE("/files", h.ClearFiles)

		v1.GET("/batch", h.GetBatch)
		v1.POST("/batch", h.StartBatch)
		v1.PUT("/batch/command", h.Command)
		v1.GET("/batch/events", h.Events)

		v1.GET("/formats", h.Formats)
		v1.GET("/engine", h.Engine)
	}
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

func selectionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, media.ErrLocked):
		errResp(c, http.StatusConflict, "Batch is running", err.Error())
	case errors.Is(err, media.ErrNotFound):
		errResp(c, http.StatusNotFound, "Unknown file ID", err.Error())
	default:
		errResp(c, http.StatusBadRequest, "Invalid file", err.Error())
	}
}

// ListFiles GET /api/v1/files
func (h *Handler) ListFiles(c *gin.Context) {
	c.JSON(http.StatusOK, filesToAPI(h.selection.List()))
}

// AddFiles POST /api/v1/files
func (h *Handler) AddFiles(c *gin.Context) {
	var req AddFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	resp := AddFilesResponse{Added: []File{}, Rejected: []Rejected{}}
	for _, path := range req.Paths {
		f, err := h.selection.Add(path)
		if errors.Is(err, media.ErrLocked) {
			selectionError(c, err)
			return
		}
		if err != nil {
			resp.Rejected = append(resp.Rejected, Rejected{Path: path, Error: err.Error()})
			continue
		}
		resp.Added = append(resp.Added, fileToAPI(f))
	}

	c.JSON(http.StatusOK, resp)
}

// AddFolder POST /api/v1/files/folder
func (h *Handler) AddFolder(c *gin.Context) {
	var req AddFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	added, err := h.selection.AddFolder(req.Path)
	if err != nil {
		selectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, AddFilesResponse{Added: filesToAPI(added), Rejected: []Rejected{}})
}

// RemoveFile DELETE /api/v1/files/:id
func (h *Handler) RemoveFile(c *gin.Context) {
	if err := h.selection.Remove(c.Param("id")); err != nil {
		selectionError(c, err)
		return
	}
	c.JSON(http.StatusOK, "OK")
}

// ClearFiles DELETE /api/v1/files
func (h *Handler) ClearFiles(c *gin.Context) {
	if err := h.selection.Clear(); err != nil {
		selectionError(c, err)
		return
	}
	c.JSON(http.StatusOK, "OK")
}

// StartBatch POST /api/v1/batch
func (h *Handler) StartBatch(c *gin.Context) {
	var req StartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
			return
		}
	}

	h.lock.Lock()
	defer h.lock.Unlock()

	if state := h.batch.State(); state == batch.StateRunning || state == batch.StatePaused {
		errResp(c, http.StatusConflict, "Batch is running", batch.ErrBusy.Error())
		return
	}
	if h.pumped != nil {
		<-h.pumped
	}

	outputDir, format := h.outputDir, h.format
	if req.OutputDir != "" {
		outputDir = req.OutputDir
	}
	if req.Format != "" {
		format = ffmpeg.NormalizeFormat(req.Format)
	}

	// the selection stays frozen until the run's last event was published
	h.selection.Lock()
	run, err := h.batch.Start(h.selection.List(), outputDir, format)
	if err != nil {
		h.selection.Unlock()
		switch {
		case errors.Is(err, batch.ErrEmptyBatch):
			errResp(c, http.StatusBadRequest, "Nothing to convert", err.Error())
		case errors.Is(err, batch.ErrInvalidFormat):
			errResp(c, http.StatusBadRequest, "Invalid format", err.Error())
		default:
			errResp(c, http.StatusInternalServerError, "Start failed", err.Error())
		}
		return
	}
	h.outputDir, h.format = outputDir, format
	h.pumped = make(chan struct{})

	go h.pump(run, outputDir, h.pumped)

	c.JSON(http.StatusAccepted, BatchState{
		State:     run.State(),
		OutputDir: outputDir,
		Format:    format,
		Run:       snapshot(run),
	})
}

func (h *Handler) pump(run *batch.Run, outputDir string, done chan struct{}) {
	defer close(done)
	defer h.selection.Unlock()
	for e := range run.Events() {
		if n := h.hub.publish(e); n > 0 && e.Type != batch.EventProgress {
			h.logger.Warn("%d event subscribers missed %s", n, e.Type)
		}
		if e.Type == batch.EventCompleted && h.completed != nil {
			h.completed(outputDir, e)
		}
	}
}

// GetBatch GET /api/v1/batch
func (h *Handler) GetBatch(c *gin.Context) {
	h.lock.RLock()
	state := BatchState{
		State:     h.batch.State(),
		OutputDir: h.outputDir,
		Format:    h.format,
	}
	h.lock.RUnlock()

	if run := h.batch.Current(); run != nil {
		state.Run = snapshot(run)
	}
	c.JSON(http.StatusOK, state)
}

// Command PUT /api/v1/batch/command
func (h *Handler) Command(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	var err error
	switch req.Command {
	case "cancel":
		err = h.batch.Cancel()
	case "pause":
		err = h.batch.Pause()
	case "resume":
		err = h.batch.Resume()
	default:
		errResp(c, http.StatusBadRequest, "Unknown command", "Known: cancel, pause, resume")
		return
	}

	if err != nil {
		errResp(c, http.StatusConflict, "Command failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// Events GET /api/v1/batch/events streams batch events as server-sent events
func (h *Handler) Events(c *gin.Context) {
	ch := h.hub.subscribe()
	defer h.hub.unsubscribe(ch)

	if run := h.batch.Current(); run != nil {
		c.SSEvent("state", snapshot(run))
		c.Writer.Flush()
	}

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case e := <-ch:
			c.SSEvent(string(e.Type), e)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Formats GET /api/v1/formats
func (h *Handler) Formats(c *gin.Context) {
	c.JSON(http.StatusOK, formatsToAPI())
}

// Engine GET /api/v1/engine
func (h *Handler) Engine(c *gin.Context) {
	ff, err := ffmpeg.New(ffmpeg.NewLocator(h.locator))
	if err != nil {
		if errors.Is(err, ffmpeg.ErrNotFound) {
			errResp(c, http.StatusServiceUnavailable, "Engine not found", err.Error())
			return
		}
		errResp(c, http.StatusServiceUnavailable, "Engine unusable", err.Error())
		return
	}

	c.JSON(http.StatusOK, engineToAPI(ff.Binary(), ff.Skills()))
}

func snapshot(run *batch.Run) *batch.Snapshot {
	s := run.Snapshot()
	return &s
}
