package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// Server wires the portfolio routes to their dependencies.
type Server struct {
	cfg       *Config
	content   *ContentStore
	store     *Store
	metrics   *Metrics
	hub       *RevealHub
	qr        *QRCache
	admin     *AdminAuth
	mailer    Mailer
	clock     clockwork.Clock
	templates *template.Template
}

// NewServer builds a server. A nil clock means wall time.
func NewServer(cfg *Config, content *ContentStore, store *Store, clock clockwork.Clock) (*Server, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	admin, err := NewAdminAuth(cfg)
	if err != nil {
		return nil, fmt.Errorf("init admin: %w", err)
	}

	metrics := NewMetrics()
	return &Server{
		cfg:     cfg,
		content: content,
		store:   store,
		metrics: metrics,
		hub:     NewRevealHub(clock, cfg.RevealTick, cfg.RevealSessionTTL, metrics),
		qr: NewQRCache(func(name string) {
			metrics.QRGenerated.WithLabelValues(name).Inc()
		}),
		admin:     admin,
		mailer:    newSMTPMailer(cfg),
		clock:     clock,
		templates: tmpl,
	}, nil
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(s.templates)
	r.StaticFS("/static", http.FS(staticFiles()))
	r.Use(s.visitorTracking())

	// Home page route
	r.GET("/", s.handleIndex)

	// HTMX accordion fragment
	r.GET("/experience", s.handleExperience)

	// Contact form submission with HTMX
	r.POST("/contact", s.handleContact)

	r.GET("/qr/:name", s.handleQR)

	r.GET("/reveal/:id/stream", s.handleRevealStream)
	r.POST("/reveal/:id/visibility", s.handleRevealVisibility)

	r.GET("/metrics", s.metrics.Handler())
	r.GET("/healthz", s.handleHealth)

	s.setupAdminRoutes(r)
	return r
}

// requestLogger logs one line per request through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) page() (*PageData, error) {
	return BuildPage(s.content.Get(), s.clock.Now())
}

func (s *Server) handleIndex(c *gin.Context) {
	data, err := s.page()
	if err != nil {
		slog.Error("Error building page", "error", err)
		c.String(http.StatusInternalServerError, "page unavailable")
		return
	}
	c.HTML(http.StatusOK, "index.html", data)
}

// RenderStatic writes the page with every counter at its final value.
func (s *Server) RenderStatic(w io.Writer) error {
	data, err := s.page()
	if err != nil {
		return err
	}
	data.StaticMode = true
	return s.templates.ExecuteTemplate(w, "index.html", data)
}

func (s *Server) handleExperience(c *gin.Context) {
	p := s.content.Get()
	open := queryInt(c, "open", 0)
	if toggle, ok := c.GetQuery("toggle"); ok {
		idx, err := strconv.Atoi(toggle)
		if err != nil || idx < 0 || idx >= len(p.Experience) {
			c.String(http.StatusBadRequest, "invalid entry")
			return
		}
		open = ToggleAccordion(open, idx)
	}

	data, err := s.page()
	if err != nil {
		c.String(http.StatusInternalServerError, "page unavailable")
		return
	}
	data.OpenIdx = open
	c.HTML(http.StatusOK, "experience.html", data)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (s *Server) handleContact(c *gin.Context) {
	name := c.PostForm("fullName")
	email := c.PostForm("email")
	message := c.PostForm("message")

	if name == "" || email == "" || message == "" {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please fill in your name, email and message.",
		})
		return
	}

	if err := s.mailer.SendContact(name, email, message); err != nil {
		slog.Error("Error sending email", "error", err)
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}

func (s *Server) handleQR(c *gin.Context) {
	name := c.Param("name")
	url, err := QRTarget(s.content.Get(), name)
	if err != nil {
		if errors.Is(err, ErrUnknownQR) {
			c.String(http.StatusNotFound, "unknown qr code")
			return
		}
		c.String(http.StatusInternalServerError, "qr target unavailable")
		return
	}

	png, err := s.qr.PNG(name, url, queryInt(c, "size", 0))
	if err != nil {
		slog.Error("Error generating QR code", "name", name, "error", err)
		c.String(http.StatusInternalServerError, "qr generation failed")
		return
	}

	if err := s.store.RecordQRDownload(c.Request.Context(), name, s.clock.Now()); err != nil {
		slog.Error("Error recording QR download", "error", err)
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handleRevealStream(c *gin.Context) {
	group := c.Param("id")
	stats, ok := groupStats(s.content.Get(), group)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown metric group"})
		return
	}
	metrics, err := RevealMetrics(stats)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	session, err := s.hub.Open(group, metrics)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	defer s.hub.Close(session.id)
	detach := session.attach()
	defer detach()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("session", gin.H{"id": session.id, "group": group})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-session.Done():
			return false
		case <-session.notify:
			frames, finished := session.drain()
			for _, f := range frames {
				c.SSEvent("count", f)
			}
			if !finished {
				return true
			}
			c.SSEvent("done", gin.H{"group": group})
			s.recordReveal(ctx, group, session.id)
			return false
		}
	})
}

func (s *Server) recordReveal(ctx context.Context, group, id string) {
	if err := s.store.RecordReveal(ctx, group, id, s.clock.Now()); err != nil {
		slog.Error("Error recording reveal", "group", group, "error", err)
	}
}

type visibilityRequest struct {
	Ratio *float64 `json:"ratio" binding:"required"`
}

// handleRevealVisibility takes an intersection ratio for a session.
func (s *Server) handleRevealVisibility(c *gin.Context) {
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ratio is required"})
		return
	}
	if *req.Ratio < 0 || *req.Ratio > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ratio must be between 0 and 1"})
		return
	}

	err := s.hub.Report(c.Param("id"), *req.Ratio)
	if errors.Is(err, ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "reveal_sessions": s.hub.Len()})
}

// cleanupVisitors drops visitor records past the retention window.
func (s *Server) cleanupVisitors(ctx context.Context) (int64, error) {
	removed, err := s.store.CleanupVisitors(ctx, s.clock.Now().Add(-s.cfg.VisitorRetention))
	if err != nil {
		slog.Error("Error cleaning up old visitor data", "error", err)
		return 0, err
	}
	if removed > 0 {
		slog.Info("Privacy cleanup removed old visitor records", "count", removed)
	}
	return removed, nil
}
