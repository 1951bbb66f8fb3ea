package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/i18n"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
)

// Formatter renders tickets and dates into display strings.
type Formatter struct {
	catalog *i18n.Catalog
}

func NewFormatter(catalog *i18n.Catalog) *Formatter {
	return &Formatter{catalog: catalog}
}

// FormatTicketConfirmation renders the creation confirmation.
func (f *Formatter) FormatTicketConfirmation(ticket *models.Ticket, language string) string {
	return f.catalog.T(language, i18n.MsgTicketCreated, map[string]string{
		"id":       shortTicketID(ticket.TicketID),
		"title":    ticket.Title,
		"priority": priorityLabel(ticket.Priority),
	})
}

// FormatTicketList renders the user's recent tickets.
func (f *Formatter) FormatTicketList(tickets []*models.Ticket, language string) string {
	var b strings.Builder
	b.WriteString(f.catalog.T(language, i18n.MsgTicketListHeader, map[string]string{
		"count": fmt.Sprintf("%d", len(tickets)),
	}))

	for _, ticket := range tickets {
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%s *%s*\n", priorityEmoji(ticket.Priority), ticket.Title))
		b.WriteString(fmt.Sprintf("🎫 %s · %s\n", shortTicketID(ticket.TicketID), f.statusLabel(ticket.Status, language)))
		b.WriteString(fmt.Sprintf("🗓 %s", f.FormatDate(ticket.CreatedAt, language)))
	}
	return b.String()
}

// FormatDate renders a timestamp in the conventions of the language.
func (f *Formatter) FormatDate(t time.Time, language string) string {
	if language == "fr" {
		return t.Format("02/01/2006 à 15:04")
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}

func (f *Formatter) statusLabel(status models.TicketStatus, language string) string {
	var key i18n.Key
	switch status {
	case models.TicketStatusOpen:
		key = i18n.MsgStatusOpen
	case models.TicketStatusInProgress:
		key = i18n.MsgStatusInProgress
	case models.TicketStatusWaitingCustomer:
		key = i18n.MsgStatusWaitingCustomer
	case models.TicketStatusResolved:
		key = i18n.MsgStatusResolved
	case models.TicketStatusClosed:
		key = i18n.MsgStatusClosed
	default:
		return string(status)
	}
	return f.catalog.T(language, key, nil)
}

func priorityLabel(priority models.TicketPriority) string {
	return fmt.Sprintf("%s %s", priorityEmoji(priority), priority)
}

func priorityEmoji(priority models.TicketPriority) string {
	switch priority {
	case models.TicketPriorityUrgent:
		return "🔴"
	case models.TicketPriorityHigh:
		return "🟠"
	case models.TicketPriorityLow:
		return "⚪"
	default:
		return "🟡"
	}
}

// shortTicketID keeps the prefix and the first id block so the number
// stays readable in a chat bubble.
func shortTicketID(ticketID string) string {
	parts := strings.SplitN(ticketID, "-", 3)
	if len(parts) >= 2 {
		return strings.ToUpper(parts[0] + "-" + parts[1])
	}
	return ticketID
}
