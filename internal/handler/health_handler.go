package handler

import "github.com/gofiber/fiber/v3"

// HealthHandler GET /api/health
type HealthHandler struct {
	appName string
	version string
}

func NewHealthHandler(appName, version string) *HealthHandler {
	return &HealthHandler{appName: appName, version: version}
}

func (h *HealthHandler) Register(api fiber.Router) {
	api.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"app":     h.appName,
		"version": h.version,
	})
}
