// Package web serves the archived briefings over a read-only JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsroom/internal/archive"
	"newsroom/internal/model"
	"newsroom/internal/newsroom"
)

// Server is the public briefing viewer.
type Server struct {
	svc    *newsroom.Service
	log    *slog.Logger
	router *gin.Engine
}

// NewServer creates the viewer and registers its routes.
func NewServer(svc *newsroom.Service, log *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{svc: svc, log: log, router: router}
	router.Use(s.logRequests)

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/dates", s.handleDates)
		api.GET("/briefings/latest", s.handleLatest)
		api.GET("/briefings/:date", s.handleBriefing)
		api.GET("/briefings/:date/articles", s.handleArticles)
	}

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("http viewer listening", "addr", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("http request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}

type datesResponse struct {
	Dates []string `json:"dates"`
}

type articlesResponse struct {
	Date     string          `json:"date"`
	Articles []model.Article `json:"articles"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDates(c *gin.Context) {
	dates, err := s.svc.ListDates(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, datesResponse{Dates: dates})
}

func (s *Server) handleLatest(c *gin.Context) {
	b, err := s.svc.LatestBriefing(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.recordVisit(c)
	c.JSON(http.StatusOK, b)
}

func (s *Server) handleBriefing(c *gin.Context) {
	b, err := s.svc.ViewBriefing(c.Request.Context(), c.Param("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.recordVisit(c)
	c.JSON(http.StatusOK, b)
}

func (s *Server) handleArticles(c *gin.Context) {
	date := c.Param("date")
	b, err := s.svc.ViewBriefing(c.Request.Context(), date)
	if err != nil {
		s.fail(c, err)
		return
	}
	articles := b.RawData
	if articles == nil {
		articles = []model.Article{}
	}
	c.JSON(http.StatusOK, articlesResponse{Date: date, Articles: articles})
}

// recordVisit counts a view. A failure is logged and does not fail the request.
func (s *Server) recordVisit(c *gin.Context) {
	if _, err := s.svc.RecordVisit(c.Request.Context()); err != nil {
		s.log.Warn("record visit", "error", err)
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, newsroom.ErrInvalidDate):
		status = http.StatusBadRequest
	case errors.Is(err, archive.ErrNoSuchBriefing), errors.Is(err, newsroom.ErrEmptyArchive):
		status = http.StatusNotFound
	default:
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
