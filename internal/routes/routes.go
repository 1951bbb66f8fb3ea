package routes

import (
	"log"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/config"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/handlers"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, cfg *config.Config, whatsapp *handlers.WhatsAppHandler, admin *handlers.AdminHandler, health *handlers.HealthHandler) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "WhatsApp support chatbot",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":        "/health",
				"webhook":       "/webhook/whatsapp",
				"test_whatsapp": "/test/whatsapp",
				"admin":         "/admin",
			},
		})
	})

	app.Get("/health", health.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// WhatsApp webhook with environment-aware signature validation
	if cfg.Environment == "development" {
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
		log.Println("⚠️  WhatsApp webhook validation DISABLED for development")
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(cfg.TwilioAuthToken), whatsapp.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if cfg.Environment == "development" {
		app.Post("/test/whatsapp", whatsapp.HandleTestWebhook)
	}

	// ========== ADMIN ROUTES ==========
	adminGroup := app.Group("/admin")
	adminGroup.Get("/tickets", admin.SearchTickets)
	adminGroup.Get("/tickets/stats", admin.GetTicketStats)
	adminGroup.Get("/tickets/:ticketID", admin.GetTicket)
	adminGroup.Patch("/tickets/:ticketID/status", admin.UpdateTicketStatus)
	adminGroup.Post("/tickets/:ticketID/assign", admin.AssignTicket)
}
