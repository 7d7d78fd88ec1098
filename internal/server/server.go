// Package server is the reference backend behind the sheetjson client. It
// accepts workbook uploads, hands sheet previews to an analyzer and turns
// sheets into JSON records.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/gin-gonic/gin"

	"github.com/nconklindev/sheetjson/internal/analyzer"
	"github.com/nconklindev/sheetjson/internal/applog"
	"github.com/nconklindev/sheetjson/internal/config"
)

// upload is a saved workbook known by its file id
type upload struct {
	Path string
	Name string
}

// savedFile is an upload on disk and when its id was last used
type savedFile struct {
	path string
	seen time.Time
}

// Server represents the HTTP API serving /upload, /analyze and /convert
type Server struct {
	cfg         config.ServerConfig
	analyzer    analyzer.Analyzer
	concurrency int

	uploads *ttlworker.Cache[string, *upload]
	ttl     time.Duration
	mu      sync.Mutex
	saved   map[string]*savedFile

	engine *gin.Engine
}

// New creates the upload dir and wires the routes. Uploads are forgotten
// after cfg.UploadTTL().
func New(cfg *config.Config, an analyzer.Analyzer) (*Server, error) {
	if an == nil {
		return nil, fmt.Errorf("server: analyzer is required")
	}
	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("server: create upload dir: %w", err)
	}

	concurrency := cfg.Analyzer.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	s := &Server{
		cfg:         cfg.Server,
		analyzer:    an,
		concurrency: concurrency,
		uploads:     ttlworker.NewCache[string, *upload](cfg.UploadTTL()),
		ttl:         cfg.UploadTTL(),
		saved:       make(map[string]*savedFile),
	}
	s.engine = s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())

	engine.GET("/healthz", s.handleHealth)
	engine.POST("/upload", limitBody(int64(s.cfg.MaxUploadMB)<<20), s.handleUpload)
	engine.POST("/analyze", s.handleAnalyze)
	engine.POST("/convert", s.handleConvert)
	return engine
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully
// and removes the uploads saved during this run.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	applog.DefaultLogger.Infof("Listening on %s", s.cfg.Addr)
	err := srv.ListenAndServe()
	s.Cleanup()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Cleanup deletes every upload saved by this server
func (s *Server) Cleanup() {
	s.mu.Lock()
	saved := s.saved
	s.saved = make(map[string]*savedFile)
	s.mu.Unlock()

	for _, f := range saved {
		removeUpload(f.path)
	}
}

// remember registers u under id and deletes the files of uploads that
// have not been used for longer than the upload TTL.
func (s *Server) remember(id string, u *upload) {
	now := time.Now()
	var expired []string

	s.mu.Lock()
	for known, f := range s.saved {
		if now.Sub(f.seen) > s.ttl {
			expired = append(expired, f.path)
			delete(s.saved, known)
			s.uploads.Delete(known)
		}
	}
	s.saved[id] = &savedFile{path: u.Path, seen: now}
	s.uploads.Set(id, u)
	s.mu.Unlock()

	for _, p := range expired {
		applog.DefaultLogger.Debugf("[upload] %s expired", p)
		removeUpload(p)
	}
}

// lookup returns the upload for id, or nil if it is unknown or expired
func (s *Server) lookup(id string) *upload {
	if id == "" {
		return nil
	}
	u := s.uploads.Get(id)
	if u != nil {
		s.mu.Lock()
		if f, ok := s.saved[id]; ok {
			f.seen = time.Now()
		}
		s.mu.Unlock()
	}
	return u
}

func removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		applog.DefaultLogger.Warnf("Remove upload %s: %v", path, err)
	}
}


func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		applog.DefaultLogger.Debugf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"ok": false, "error": msg})
}
