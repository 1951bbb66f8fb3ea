package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/services"
	"github.com/gofiber/fiber/v2"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	conversations *services.ConversationService
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(conversations *services.ConversationService) *WhatsAppHandler {
	return &WhatsAppHandler{conversations: conversations}
}

// TwilioWebhookPayload represents an incoming WhatsApp event from Twilio
type TwilioWebhookPayload struct {
	MessageSid        string `form:"MessageSid"`
	SmsStatus         string `form:"SmsStatus"`
	MessageStatus     string `form:"MessageStatus"`
	From              string `form:"From"` // whatsapp:+221771234567
	To                string `form:"To"`
	Body              string `form:"Body"`
	ProfileName       string `form:"ProfileName"`
	NumMedia          string `form:"NumMedia"`
	MediaUrl0         string `form:"MediaUrl0"`
	MediaContentType0 string `form:"MediaContentType0"`
	ButtonPayload     string `form:"ButtonPayload"`
	ButtonText        string `form:"ButtonText"`
	ListId            string `form:"ListId"`
	ListTitle         string `form:"ListTitle"`
	Latitude          string `form:"Latitude"`
	Longitude         string `form:"Longitude"`
	Address           string `form:"Address"`
	Label             string `form:"Label"`
}

// HandleWebhook processes incoming WhatsApp messages. The webhook is
// acknowledged immediately and the pipeline runs in the background so
// Twilio never waits on the LLM.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload

	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Delivery status callbacks carry no From body to process
	if payload.MessageStatus != "" && payload.Body == "" && payload.ButtonPayload == "" && payload.ListId == "" {
		log.Printf("📬 Status update for %s: %s", payload.MessageSid, payload.MessageStatus)
		return c.SendStatus(fiber.StatusOK)
	}

	if payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	in := payload.toInbound()
	log.Printf("📱 WhatsApp %s from %s", in.Type, in.From)

	go h.conversations.ProcessIncomingMessage(context.Background(), in)

	return c.SendStatus(fiber.StatusOK)
}

func (p *TwilioWebhookPayload) toInbound() *services.InboundMessage {
	in := &services.InboundMessage{
		WhatsAppID:  p.MessageSid,
		From:        strings.TrimPrefix(p.From, "whatsapp:"),
		Timestamp:   time.Now(),
		Type:        models.MessageTypeText,
		Text:        p.Body,
		ContactName: p.ProfileName,
	}

	switch {
	case p.ButtonPayload != "":
		in.Type = models.MessageTypeInteractive
		in.InteractiveID = p.ButtonPayload
		in.InteractiveTitle = p.ButtonText
	case p.ListId != "":
		in.Type = models.MessageTypeInteractive
		in.InteractiveID = p.ListId
		in.InteractiveTitle = p.ListTitle
	case p.Latitude != "" && p.Longitude != "":
		in.Type = models.MessageTypeLocation
		in.Latitude, _ = strconv.ParseFloat(p.Latitude, 64)
		in.Longitude, _ = strconv.ParseFloat(p.Longitude, 64)
		in.LocationName = p.Label
		in.LocationAddress = p.Address
	case p.NumMedia != "" && p.NumMedia != "0":
		in.Type = mediaType(p.MediaContentType0)
		in.MediaURL = p.MediaUrl0
		in.MediaContentType = p.MediaContentType0
	}
	return in
}

func mediaType(contentType string) models.MessageType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.MessageTypeImage
	case strings.HasPrefix(contentType, "audio/"):
		return models.MessageTypeAudio
	case strings.HasPrefix(contentType, "video/"):
		return models.MessageTypeVideo
	default:
		return models.MessageTypeDocument
	}
}

// TestWebhookPayload is for testing without Twilio
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestWebhook processes test WhatsApp messages (for development)
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload

	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}
	if payload.From == "" || payload.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "from and message are required",
		})
	}

	log.Printf("🧪 Test webhook from %s: %s", payload.From, payload.Message)

	in := &services.InboundMessage{
		WhatsAppID: "TEST-" + strconv.FormatInt(time.Now().UnixNano(), 10),
		From:       payload.From,
		Timestamp:  time.Now(),
		Type:       models.MessageTypeText,
		Text:       payload.Message,
	}

	// Test messages run synchronously so the caller sees failures
	h.conversations.ProcessIncomingMessage(c.Context(), in)

	return c.JSON(fiber.Map{
		"status":  "processed",
		"from":    payload.From,
		"message": payload.Message,
	})
}
