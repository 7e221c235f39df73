// Package web serves the status API and prometheus metrics with gin.
package web

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	// WebhookURL receives an embed per request when set.
	WebhookURL string
	// AllowedHosts is a regexp on the Host header. Empty allows every host.
	AllowedHosts string
	// RequestsPerMinute is the per-IP budget.
	RequestsPerMinute int
}

// Server is the HTTP server.
type Server struct {
	engine      *gin.Engine
	webhookURL  string
	allowedHost *regexp.Regexp
	httpClient  *http.Client
	limiters    *expirable.LRU[string, *rate.Limiter]
	perMinute   int
}

// NewServer creates a server with logging, rate limiting and JSON error routes.
func NewServer(opts ServerOptions) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 100
	}

	s := &Server{
		engine:     gin.New(),
		webhookURL: opts.WebhookURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		limiters:   expirable.NewLRU[string, *rate.Limiter](4096, nil, 10*time.Minute),
		perMinute:  opts.RequestsPerMinute,
	}
	if opts.AllowedHosts != "" {
		re, err := regexp.Compile(opts.AllowedHosts)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed hosts pattern: %w", err)
		}
		s.allowedHost = re
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.logsMiddleware())
	s.engine.Use(s.rateLimitMiddleware())
	s.setupErrorHandlers()

	return s, nil
}

// Engine returns the gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) logsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.allowedHost != nil && !s.allowedHost.MatchString(c.Request.Host) {
			logger.Warn(fmt.Sprintf("[LOG] Solicitud Sospechosa: %s %s | %s", c.Request.Method, c.Request.URL.Path, c.ClientIP()), "WebServer")
			go s.sendLogToWebhook(requestInfo(c), true)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		logger.Debug(fmt.Sprintf("[LOG] Nueva solicitud: %s %s", c.Request.Method, c.Request.URL.Path), "WebServer")
		go s.sendLogToWebhook(requestInfo(c), false)
		c.Next()
	}
}

type request struct {
	Method  string
	Path    string
	IP      string
	Query   string
	Headers http.Header
}

// requestInfo copies what the webhook needs; the gin context is reused after the handler returns.
func requestInfo(c *gin.Context) request {
	return request{
		Method:  c.Request.Method,
		Path:    c.Request.URL.Path,
		IP:      c.ClientIP(),
		Query:   c.Request.URL.RawQuery,
		Headers: c.Request.Header.Clone(),
	}
}

func (s *Server) sendLogToWebhook(r request, suspicious bool) {
	if s.webhookURL == "" {
		return
	}

	title := fmt.Sprintf("💫 | Nueva solicitud al servidor web de tipo %s", r.Method)
	color := 0x00AE86
	if suspicious {
		title = fmt.Sprintf("💫 | Solicitud Sospechosa Rechazada: %s %s", r.Method, r.Path)
		color = 0xFFA500
	}

	headers, _ := json.Marshal(r.Headers)
	query := r.Query
	if query == "" {
		query = "{}"
	}

	payload := gin.H{
		"embeds": []gin.H{{
			"title": title,
			"description": fmt.Sprintf(
				"> **Ruta:** `%s`\n> **IP:** `%s`\n> **Headers:** ```%s``` \n> **Query:** ```%s```",
				r.Path, r.IP, string(headers), query,
			),
			"color":     color,
			"timestamp": time.Now().Format(time.RFC3339),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Debug(fmt.Sprintf("Webhook de logs no disponible: %v", err), "WebServer")
		return
	}
	_ = resp.Body.Close()
}

// rateLimitMiddleware gives each client IP a token bucket refilled over a minute.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	every := time.Minute / time.Duration(s.perMinute)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter, ok := s.limiters.Get(ip)
		if !ok {
			limiter = rate.NewLimiter(rate.Every(every), s.perMinute)
			s.limiters.Add(ip, limiter)
		}

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Demasiadas solicitudes, por favor intente de nuevo más tarde.",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) setupErrorHandlers() {
	s.engine.HandleMethodNotAllowed = true

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "La ruta solicitada no existe.",
			"status":  http.StatusNotFound,
		})
	})

	s.engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":   "Method Not Allowed",
			"message": "El método HTTP no está permitido para esta ruta.",
			"status":  http.StatusMethodNotAllowed,
		})
	})
}

// Start listens on port and blocks.
func (s *Server) Start(port string) error {
	logger.Info(fmt.Sprintf("🚀 Servidor escuchando en http://localhost:%s", port), "WebServer")
	return s.engine.Run(":" + port)
}

// StartAsync runs Start in a goroutine and logs its error.
func (s *Server) StartAsync(port string) {
	go func() {
		if err := s.Start(port); err != nil {
			logger.Error(fmt.Sprintf("Error iniciando el servidor web: %v", err), "WebServer")
		}
	}()
}
