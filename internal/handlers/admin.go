package handlers

import (
	"time"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/errs"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/services"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes ticket operations to the support dashboard
type AdminHandler struct {
	store   storage.Store
	tickets *services.TicketService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store, tickets *services.TicketService) *AdminHandler {
	return &AdminHandler{
		store:   store,
		tickets: tickets,
	}
}

// SearchTickets lists tickets matching the query parameters
func (h *AdminHandler) SearchTickets(c *fiber.Ctx) error {
	search := &models.TicketSearch{
		Query:      c.Query("q"),
		UserID:     c.Query("user_id"),
		Status:     models.TicketStatus(c.Query("status")),
		Priority:   models.TicketPriority(c.Query("priority")),
		Category:   c.Query("category"),
		AssignedTo: c.Query("assigned_to"),
		Limit:      c.QueryInt("limit", 20),
		Offset:     c.QueryInt("offset", 0),
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "from must be RFC3339",
			})
		}
		search.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "to must be RFC3339",
			})
		}
		search.To = &t
	}

	tickets, total, hasMore, err := h.tickets.Search(search)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search tickets",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"tickets":  tickets,
		"total":    total,
		"has_more": hasMore,
	})
}

// GetTicketStats returns ticket counts grouped by status, priority and category
func (h *AdminHandler) GetTicketStats(c *fiber.Ctx) error {
	stats, err := h.tickets.Stats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute ticket stats",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// GetTicket fetches a single ticket without owner scoping
func (h *AdminHandler) GetTicket(c *fiber.Ctx) error {
	ticketID := c.Params("ticketID")

	ticket, err := h.store.GetTicket(ticketID)
	if errs.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Ticket not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch ticket",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"ticket":  ticket,
	})
}

// UpdateTicketStatus moves a ticket through its lifecycle
func (h *AdminHandler) UpdateTicketStatus(c *fiber.Ctx) error {
	ticketID := c.Params("ticketID")

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ticket, err := h.tickets.UpdateStatus(ticketID, models.TicketStatus(req.Status))
	if errs.IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if errs.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Ticket not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update ticket",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"ticket":  ticket,
	})
}

// AssignTicket assigns a ticket to an agent and marks it in progress
func (h *AdminHandler) AssignTicket(c *fiber.Ctx) error {
	ticketID := c.Params("ticketID")

	var req struct {
		Agent string `json:"agent"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Agent == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "agent is required",
		})
	}

	ticket, err := h.tickets.Assign(ticketID, req.Agent)
	if errs.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Ticket not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to assign ticket",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"ticket":  ticket,
	})
}
