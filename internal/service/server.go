package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ckaraca/tyharvest/internal/export"
	"github.com/ckaraca/tyharvest/internal/logger"
	"github.com/ckaraca/tyharvest/internal/notify"
	"github.com/ckaraca/tyharvest/internal/pipeline"
)

const defaultMaxPages = 7

// runFunc executes one search run with the given progress sink. The live
// implementation builds a fresh pipeline per job so concurrent jobs never
// share a browser session.
type runFunc func(ctx context.Context, progress pipeline.ProgressFunc, req pipeline.SearchRequest) ([]pipeline.Row, error)

// Config configures the HTTP service.
type Config struct {
	Addr       string
	OutputDir  string
	WebhookURL string
	Headless   bool
}

// Server serves the asynchronous search API.
type Server struct {
	cfg      Config
	registry *Registry
	webhook  *notify.Discord
	run      runFunc
}

// NewServer builds a server wired to live pipelines.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:      cfg,
		registry: NewRegistry(),
		webhook:  notify.NewDiscord(cfg.WebhookURL),
	}
	s.run = func(ctx context.Context, progress pipeline.ProgressFunc, req pipeline.SearchRequest) ([]pipeline.Row, error) {
		return pipeline.New(pipeline.Config{
			Progress: progress,
			Headless: cfg.Headless,
		}).Run(ctx, req)
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.health)
	api := router.Group("/api")
	{
		api.POST("/search", s.startSearch)
		api.GET("/progress/:id", s.progress)
	}
	router.GET("/download/:id", s.download)

	return router
}

// ListenAndServe runs the HTTP server until it fails.
func (s *Server) ListenAndServe() error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	logger.Info("service listening", "addr", s.cfg.Addr, "output_dir", s.cfg.OutputDir)
	return s.Router().Run(s.cfg.Addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

type searchRequest struct {
	Query       string `json:"query" binding:"required"`
	VisitorName string `json:"visitor_name"`
	MaxPages    int    `json:"max_pages" binding:"omitempty,min=1,max=50"`
}

func (s *Server) startSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxPages == 0 {
		req.MaxPages = defaultMaxPages
	}

	job := s.registry.Create(req.Query, req.VisitorName, req.MaxPages)
	go s.runJob(job)

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

func (s *Server) progress(c *gin.Context) {
	job, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) download(c *gin.Context) {
	job, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	if job.Status != StatusCompleted || job.OutputPath == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "job has no result yet", "status": job.Status})
		return
	}
	c.FileAttachment(job.OutputPath, filepath.Base(job.OutputPath))
}

// runJob executes one search in the background: runs the pipeline, writes
// the workbook, then reports the outcome to the webhook.
func (s *Server) runJob(job Job) {
	start := time.Now()
	s.registry.Start(job.ID)

	progress := func(current, total int, stage pipeline.Stage, message string) {
		s.registry.Progress(job.ID, current, total, stage, message)
	}

	rows, err := s.run(context.Background(), progress, pipeline.SearchRequest{
		Term:     job.Query,
		MaxPages: job.MaxPages,
	})
	if err != nil {
		logger.Error("job failed", "job_id", job.ID, "query", job.Query, "error", err)
		s.registry.Fail(job.ID, err)
		s.report(job, nil, nil, time.Since(start), err)
		return
	}

	workbook, outputPath, err := s.writeWorkbook(job, rows)
	if err != nil {
		logger.Error("workbook write failed", "job_id", job.ID, "error", err)
		s.registry.Fail(job.ID, err)
		s.report(job, rows, nil, time.Since(start), err)
		return
	}

	s.registry.Complete(job.ID, len(rows), outputPath)
	logger.Info("job completed", "job_id", job.ID, "query", job.Query, "rows", len(rows))
	s.report(job, rows, workbook, time.Since(start), nil)
}

func (s *Server) writeWorkbook(job Job, rows []pipeline.Row) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := export.Write(&buf, export.FormatXLSX, rows); err != nil {
		return nil, "", err
	}
	path := filepath.Join(s.cfg.OutputDir, job.ID+".xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), path, nil
}

func (s *Server) report(job Job, rows []pipeline.Row, workbook []byte, duration time.Duration, runErr error) {
	if !s.webhook.Enabled() {
		return
	}
	report := notify.Report{
		Query:       job.Query,
		VisitorName: job.VisitorName,
		MaxPages:    job.MaxPages,
		Rows:        rows,
		Duration:    duration,
		Err:         runErr,
	}
	if len(workbook) > 0 {
		report.AttachmentName = job.ID + ".xlsx"
		report.Attachment = workbook
	}
	s.webhook.Send(context.Background(), report)
}
