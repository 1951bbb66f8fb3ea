package storage

import (
	"time"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
)

// Store defines the interface for storage operations.
type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByPhone(phone string) (*models.User, error)
	UpdateUser(user *models.User) error

	// Conversation operations
	CreateConversation(conversation *models.Conversation) error
	GetActiveConversation(userID string) (*models.Conversation, error)
	UpdateConversation(conversation *models.Conversation) error

	// Message operations
	CreateMessage(message *models.Message) error
	UpdateMessage(message *models.Message) error
	GetMessagesByConversation(conversationID string, limit int) ([]*models.Message, error)

	// Ticket operations
	CreateTicket(ticket *models.Ticket) error
	GetTicket(ticketID string) (*models.Ticket, error)
	GetTicketsByUser(userID string, limit, offset int) ([]*models.Ticket, int64, error)
	UpdateTicket(ticket *models.Ticket) error
	SearchTickets(search *models.TicketSearch) ([]*models.Ticket, int64, error)
	GetTicketStats() (*models.TicketStats, error)
	GetEscalationCandidates(olderThan time.Time) ([]*models.Ticket, error)
	GetResolvedTicketsBefore(cutoff time.Time) ([]*models.Ticket, error)

	// Knowledge base operations
	CreateKnowledgeBaseEntry(entry *models.KnowledgeBase) error
	GetActiveKnowledgeBaseEntries(language string) ([]*models.KnowledgeBase, error)
	GetMostUsedKnowledgeBaseEntries(language string, limit int) ([]*models.KnowledgeBase, error)
	IncrementKnowledgeBaseUsage(entryID string) error
	CountKnowledgeBaseEntries() (int64, error)
}
