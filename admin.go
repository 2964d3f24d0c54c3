// admin.go - privacy-conscious admin system
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const adminCookie = "admin_token"

// AdminAuth holds the per-process admin token and IP hashing salt.
type AdminAuth struct {
	token        string
	salt         string
	username     string
	password     string
	passwordHash []byte
}

// NewAdminAuth generates a fresh token and salt. When no password is
// configured in debug mode the development default is used.
func NewAdminAuth(cfg *Config) (*AdminAuth, error) {
	token, err := generateAdminToken()
	if err != nil {
		return nil, err
	}
	salt, err := generateAdminToken()
	if err != nil {
		return nil, err
	}

	a := &AdminAuth{token: token, salt: salt, username: cfg.AdminUsername, password: cfg.AdminPassword}
	if cfg.AdminPasswordHash != "" {
		a.passwordHash = []byte(cfg.AdminPasswordHash)
	}
	if a.password == "" && a.passwordHash == nil && cfg.IsDebug() {
		slog.Warn("Using default admin password. Set ADMIN_PASSWORD or ADMIN_PASSWORD_HASH.")
		a.password = "admin123"
	}

	slog.Info("Admin access available at /admin/login")
	if cfg.IsDebug() {
		slog.Debug("Admin token (dev only)", "token", a.token)
	}
	return a, nil
}

func generateAdminToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashIP hashes an address with the process salt (consistent per IP).
func (a *AdminAuth) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + a.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// CheckCredentials compares a login attempt in constant time, or against the
// bcrypt hash when one is configured.
func (a *AdminAuth) CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	if a.passwordHash != nil {
		return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil && userOK
	}
	if a.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1 && userOK
}

// Middleware to check admin authentication
func (a *AdminAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// untrackedPrefixes are never recorded as visits.
var untrackedPrefixes = []string{
	"/static/", "/admin/", "/favicon", "/privacy", "/qr/", "/reveal/", "/metrics", "/healthz",
}

// Privacy-conscious visitor tracking middleware
func (s *Server) visitorTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, p := range untrackedPrefixes {
			if strings.HasPrefix(path, p) {
				c.Next()
				return
			}
		}

		// Respect Do Not Track header
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		c.Next()
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		s.metrics.PageViews.WithLabelValues(path).Inc()
		hashed := s.admin.HashIP(c.ClientIP())
		if err := s.store.RecordVisit(c.Request.Context(), hashed, c.GetHeader("User-Agent"), path, s.clock.Now()); err != nil {
			slog.Error("Error recording visitor", "error", err)
		}
	}
}

// Setup all admin routes
func (s *Server) setupAdminRoutes(r *gin.Engine) {
	// Privacy policy route
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		if !s.admin.CheckCredentials(username, password) {
			slog.Warn("Failed admin login attempt", "from", s.admin.HashIP(c.ClientIP()))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		// Secure cookie (24 hours)
		c.SetCookie(adminCookie, s.admin.token, 3600*24, "/admin", "", !s.cfg.IsDebug(), true)
		slog.Info("Admin login successful", "from", s.admin.HashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", !s.cfg.IsDebug(), true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(s.admin.Middleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context(), s.clock.Now())
		if err != nil {
			slog.Error("Error loading admin stats", "error", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
		})
	})

	// JSON stats for HTMX/AJAX
	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context(), s.clock.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.GET("/visitors", func(c *gin.Context) {
		visitors, err := s.store.RecentVisitors(c.Request.Context(), 200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"visitors": visitors,
		})
	})

	// Privacy compliance: purge records past the retention window now
	adminGroup.POST("/privacy/cleanup", func(c *gin.Context) {
		removed, err := s.cleanupVisitors(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Cleanup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": removed})
	})

	// Stats export (for backups or analysis)
	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context(), s.clock.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		slog.Info("Admin stats exported", "by", s.admin.HashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}
