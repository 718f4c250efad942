// Package api serves health probes, Prometheus metrics, the Telegram webhook
// and a classification endpoint.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lawjobs-workers/internal/common/config"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/models"
	"lawjobs-workers/internal/telegram"
)

// SecretHeader carries the webhook secret set with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type UpdateRouter interface {
	Route(ctx context.Context, update tgbotapi.Update) (*telegram.Command, error)
}

type Classifier interface {
	ClassifyTags(description string, seeds []string) []models.PracticeArea
	ClassifyEmployer(description *string) models.EmployerCategory
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Deps struct {
	Router        UpdateRouter
	Classifier    Classifier
	Checks        map[string]Pinger
	WebhookSecret string
}

type Server struct {
	engine *gin.Engine
	http   *http.Server
	deps   Deps
	logger logger.Logger
}

func NewServer(cfg config.ServerConfig, deps Deps, log logger.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
	s.routes()
	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/ready", s.ready)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.deps.Router != nil {
		s.engine.POST("/webhook/telegram", s.webhook)
	}
	if s.deps.Classifier != nil {
		v1 := s.engine.Group("/v1")
		v1.POST("/classify", s.classify)
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	failures := make(map[string]string)
	for name, check := range s.deps.Checks {
		if err := check.Ping(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "failures": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// webhook acknowledges every well-formed update. Routing failures are logged
// and not reported to Telegram, which would redeliver the update.
func (s *Server) webhook(c *gin.Context) {
	if s.deps.WebhookSecret != "" && c.GetHeader(SecretHeader) != s.deps.WebhookSecret {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid secret token"})
		return
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd, err := s.deps.Router.Route(c.Request.Context(), update)
	if err != nil {
		s.logger.Error("update not routed", map[string]interface{}{
			"updateId": update.UpdateID,
			"error":    err,
		})
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	resp := gin.H{"ok": true}
	if cmd != nil {
		resp["command"] = cmd.Command
	}
	c.JSON(http.StatusOK, resp)
}

type classifyRequest struct {
	Description         string   `json:"description" binding:"required"`
	Seeds               []string `json:"seeds"`
	EmployerDescription *string  `json:"employerDescription"`
}

type classifyResponse struct {
	Tags             []models.PracticeArea   `json:"tags"`
	EmployerCategory models.EmployerCategory `json:"employerCategory"`
}

func (s *Server) classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, classifyResponse{
		Tags:             s.deps.Classifier.ClassifyTags(req.Description, req.Seeds),
		EmployerCategory: s.deps.Classifier.ClassifyEmployer(req.EmployerDescription),
	})
}
