// Package handler exposes the dashboard over HTTP.
package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"keywordpulse/internal/service"
	"keywordpulse/pkg/imageedit"
	"keywordpulse/pkg/logger"
)

type Config struct {
	BodyLimitBytes int
	MaxUploadBytes int
}

type Handler struct {
	dashboard *service.Dashboard
	maxUpload int
	log       *logger.Logger
}

func NewHandler(dashboard *service.Dashboard, maxUploadBytes int) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = imageedit.DefaultMaxBytes
	}
	return &Handler{
		dashboard: dashboard,
		maxUpload: maxUploadBytes,
		log:       logger.GetLogger().Component("http"),
	}
}

// NewApp builds the fiber app with recovery, request logging, error mapping and all routes.
func NewApp(dashboard *service.Dashboard, cfg Config) *fiber.App {
	h := NewHandler(dashboard, cfg.MaxUploadBytes)

	bodyLimit := cfg.BodyLimitBytes
	if bodyLimit <= 0 {
		bodyLimit = 16 << 20
	}
	app := fiber.New(fiber.Config{
		AppName:               "keywordpulse",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          h.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(h.RequestLogger())
	h.RegisterRoutes(app)
	return app
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/healthz", h.Health)

	api := app.Group("/api")
	api.Post("/sessions", h.CreateSession)
	api.Get("/sessions/:sid", h.GetSession)

	api.Get("/sessions/:sid/keywords", h.GetKeywords)
	api.Post("/sessions/:sid/keywords/analyze", h.AnalyzeKeyword)
	api.Post("/sessions/:sid/keywords/reset", h.ResetKeywords)

	api.Get("/sessions/:sid/images", h.GetImages)
	api.Post("/sessions/:sid/images", h.UploadImage)
	api.Post("/sessions/:sid/images/edit", h.EditImage)
	api.Post("/sessions/:sid/images/history/:eid/select", h.SelectHistory)
	api.Get("/sessions/:sid/images/history/:eid/download", h.DownloadHistory)

	api.Get("/sessions/:sid/chat", h.GetChat)
	api.Post("/sessions/:sid/chat", h.SendChat)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

// RequestLogger logs one line per request after it has been handled.
func (h *Handler) RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Run the error handler now so the logged status is the one sent.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := map[string]interface{}{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			h.log.WithFields(fields).Warn("Request failed")
		} else {
			h.log.WithFields(fields).Info("Request handled")
		}
		return nil
	}
}
