package handlers

import (
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version       string
	store         storage.Store
	twilioEnabled bool
	usingDatabase bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, store storage.Store, twilioEnabled, usingDatabase bool) *HealthHandler {
	return &HealthHandler{
		Version:       version,
		store:         store,
		twilioEnabled: twilioEnabled,
		usingDatabase: usingDatabase,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	storage := "memory"
	if h.usingDatabase {
		storage = "postgres"
	}

	whatsapp := "disabled"
	if h.twilioEnabled {
		whatsapp = "enabled"
	}

	// A failing store turns the whole check unhealthy
	status := "OK"
	code := fiber.StatusOK
	if _, err := h.store.CountKnowledgeBaseEntries(); err != nil {
		status = "DEGRADED"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"service":  "WhatsApp Support Chatbot",
		"version":  h.Version,
		"storage":  storage,
		"whatsapp": whatsapp,
	})
}
