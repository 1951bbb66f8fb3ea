package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/errs"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
)

// MemoryStore holds all data in memory, for tests and local development.
type MemoryStore struct {
	users         map[string]*models.User          // keyed by phone number
	conversations map[string]*models.Conversation  // keyed by conversation id
	messages      map[string]*models.Message       // keyed by message id
	tickets       map[string]*models.Ticket        // keyed by ticket id
	knowledge     map[string]*models.KnowledgeBase // keyed by entry id

	userMu    sync.RWMutex
	convMu    sync.RWMutex
	messageMu sync.RWMutex
	ticketMu  sync.RWMutex
	kbMu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*models.User),
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string]*models.Message),
		tickets:       make(map[string]*models.Ticket),
		knowledge:     make(map[string]*models.KnowledgeBase),
	}
}

// User operations

func (m *MemoryStore) CreateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[user.PhoneNumber]; exists {
		return &errs.ConflictError{Resource: "user", Reason: "phone number already registered"}
	}

	if user.UserID == "" {
		user.UserID = "USR-" + uuid.NewString()
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	m.users[user.PhoneNumber] = user
	return nil
}

func (m *MemoryStore) GetUserByPhone(phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[phone]
	if !exists {
		return nil, &errs.NotFoundError{Resource: "user", ID: phone}
	}
	return user, nil
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[user.PhoneNumber]; !exists {
		return &errs.NotFoundError{Resource: "user", ID: user.PhoneNumber}
	}
	user.UpdatedAt = time.Now()
	m.users[user.PhoneNumber] = user
	return nil
}

// Conversation operations

func (m *MemoryStore) CreateConversation(conversation *models.Conversation) error {
	m.convMu.Lock()
	defer m.convMu.Unlock()

	if conversation.ConversationID == "" {
		conversation.ConversationID = "CNV-" + uuid.NewString()
	}
	if conversation.Status == "" {
		conversation.Status = models.ConversationStatusActive
	}
	if conversation.StartedAt.IsZero() {
		conversation.StartedAt = time.Now()
	}
	conversation.CreatedAt = time.Now()
	conversation.UpdatedAt = time.Now()

	m.conversations[conversation.ConversationID] = conversation
	return nil
}

func (m *MemoryStore) GetActiveConversation(userID string) (*models.Conversation, error) {
	m.convMu.RLock()
	defer m.convMu.RUnlock()

	for _, conv := range m.conversations {
		if conv.UserID == userID && conv.Status == models.ConversationStatusActive {
			return conv, nil
		}
	}
	return nil, &errs.NotFoundError{Resource: "conversation"}
}

func (m *MemoryStore) UpdateConversation(conversation *models.Conversation) error {
	m.convMu.Lock()
	defer m.convMu.Unlock()

	if _, exists := m.conversations[conversation.ConversationID]; !exists {
		return &errs.NotFoundError{Resource: "conversation", ID: conversation.ConversationID}
	}
	conversation.UpdatedAt = time.Now()
	m.conversations[conversation.ConversationID] = conversation
	return nil
}

// Message operations

func (m *MemoryStore) CreateMessage(message *models.Message) error {
	m.messageMu.Lock()
	defer m.messageMu.Unlock()

	if message.MessageID == "" {
		message.MessageID = "MSG-" + uuid.NewString()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	message.CreatedAt = time.Now()
	message.UpdatedAt = time.Now()

	m.messages[message.MessageID] = message
	return nil
}

func (m *MemoryStore) UpdateMessage(message *models.Message) error {
	m.messageMu.Lock()
	defer m.messageMu.Unlock()

	if _, exists := m.messages[message.MessageID]; !exists {
		return &errs.NotFoundError{Resource: "message", ID: message.MessageID}
	}
	message.UpdatedAt = time.Now()
	m.messages[message.MessageID] = message
	return nil
}

func (m *MemoryStore) GetMessagesByConversation(conversationID string, limit int) ([]*models.Message, error) {
	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	var messages []*models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			messages = append(messages, msg)
		}
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.After(messages[j].Timestamp)
	})
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

// Ticket operations

func (m *MemoryStore) CreateTicket(ticket *models.Ticket) error {
	m.ticketMu.Lock()
	defer m.ticketMu.Unlock()

	if ticket.TicketID == "" {
		ticket.TicketID = "TKT-" + uuid.NewString()
	}
	if ticket.Status == "" {
		ticket.Status = models.TicketStatusOpen
	}
	if ticket.Priority == "" {
		ticket.Priority = models.TicketPriorityNormal
	}
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = time.Now()

	m.tickets[ticket.TicketID] = ticket
	return nil
}

func (m *MemoryStore) GetTicket(ticketID string) (*models.Ticket, error) {
	m.ticketMu.RLock()
	defer m.ticketMu.RUnlock()

	ticket, exists := m.tickets[ticketID]
	if !exists {
		return nil, &errs.NotFoundError{Resource: "ticket", ID: ticketID}
	}
	return ticket, nil
}

func (m *MemoryStore) GetTicketsByUser(userID string, limit, offset int) ([]*models.Ticket, int64, error) {
	m.ticketMu.RLock()
	defer m.ticketMu.RUnlock()

	var tickets []*models.Ticket
	for _, t := range m.tickets {
		if t.UserID == userID {
			tickets = append(tickets, t)
		}
	}

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})

	total := int64(len(tickets))
	tickets = paginate(tickets, limit, offset)
	return tickets, total, nil
}

func (m *MemoryStore) UpdateTicket(ticket *models.Ticket) error {
	m.ticketMu.Lock()
	defer m.ticketMu.Unlock()

	if _, exists := m.tickets[ticket.TicketID]; !exists {
		return &errs.NotFoundError{Resource: "ticket", ID: ticket.TicketID}
	}
	ticket.UpdatedAt = time.Now()
	m.tickets[ticket.TicketID] = ticket
	return nil
}

func (m *MemoryStore) SearchTickets(search *models.TicketSearch) ([]*models.Ticket, int64, error) {
	m.ticketMu.RLock()
	defer m.ticketMu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(search.Query))

	var results []*models.Ticket
	for _, t := range m.tickets {
		if search.UserID != "" && t.UserID != search.UserID {
			continue
		}
		if search.Status != "" && t.Status != search.Status {
			continue
		}
		if search.Priority != "" && t.Priority != search.Priority {
			continue
		}
		if search.Category != "" && t.Category != search.Category {
			continue
		}
		if search.AssignedTo != "" && (t.AssignedTo == nil || *t.AssignedTo != search.AssignedTo) {
			continue
		}
		if search.From != nil && t.CreatedAt.Before(*search.From) {
			continue
		}
		if search.To != nil && t.CreatedAt.After(*search.To) {
			continue
		}
		if query != "" && !ticketMatchesQuery(t, query) {
			continue
		}
		results = append(results, t)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	total := int64(len(results))
	results = paginate(results, search.Limit, search.Offset)
	return results, total, nil
}

func ticketMatchesQuery(t *models.Ticket, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), query) {
		return true
	}
	if t.Resolution != nil && strings.Contains(strings.ToLower(*t.Resolution), query) {
		return true
	}
	return false
}

func paginate(tickets []*models.Ticket, limit, offset int) []*models.Ticket {
	if offset > 0 {
		if offset >= len(tickets) {
			return nil
		}
		tickets = tickets[offset:]
	}
	if limit > 0 && len(tickets) > limit {
		tickets = tickets[:limit]
	}
	return tickets
}

func (m *MemoryStore) GetTicketStats() (*models.TicketStats, error) {
	m.ticketMu.RLock()
	defer m.ticketMu.RUnlock()

	stats := &models.TicketStats{
		Total:      int64(len(m.tickets)),
		ByStatus:   make(map[string]int64),
		ByPriority: make(map[string]int64),
		ByCategory: make(map[string]int64),
	}
	for _, t := range m.tickets {
		stats.ByStatus[string(t.Status)]++
		stats.ByPriority[string(t.Priority)]++
		stats.ByCategory[t.Category]++
	}
	return stats, nil
}

func (m *MemoryStore) GetEscalationCandidates(olderThan time.Time) ([]*models.Ticket, error) {
	m.ticketMu.RLock()
	defer m.ticketMu.RUnlock()

	var candidates []*models.Ticket
	for _, t := range m.tickets {
		if t.Status != models.TicketStatusOpen {
			continue
		}
		if t.Priority != models.TicketPriorityHigh && t.Priority != models.TicketPriorityUrgent {
			continue
		}
		if t.AssignedTo != nil {
			continue
		}
		if t.CreatedAt.Before(olderThan) {
			candidates = append(candidates, t)
		}
	}
	return candidates, nil
}

func (m *MemoryStore) GetResolvedTicketsBefore(cutoff time.Time) ([]*models.Ticket, error) {
	m.ticketMu.RLock()
	defer m.ticketMu.RUnlock()

	var tickets []*models.Ticket
	for _, t := range m.tickets {
		if t.Status == models.TicketStatusResolved && t.ResolvedAt != nil && t.ResolvedAt.Before(cutoff) {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

// Knowledge base operations

func (m *MemoryStore) CreateKnowledgeBaseEntry(entry *models.KnowledgeBase) error {
	m.kbMu.Lock()
	defer m.kbMu.Unlock()

	if entry.EntryID == "" {
		entry.EntryID = "KB-" + uuid.NewString()
	}
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()

	m.knowledge[entry.EntryID] = entry
	return nil
}

func (m *MemoryStore) GetActiveKnowledgeBaseEntries(language string) ([]*models.KnowledgeBase, error) {
	m.kbMu.RLock()
	defer m.kbMu.RUnlock()

	var entries []*models.KnowledgeBase
	for _, e := range m.knowledge {
		if e.IsActive && e.Language == language {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *MemoryStore) GetMostUsedKnowledgeBaseEntries(language string, limit int) ([]*models.KnowledgeBase, error) {
	entries, err := m.GetActiveKnowledgeBaseEntries(language)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UsageCount > entries[j].UsageCount
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MemoryStore) IncrementKnowledgeBaseUsage(entryID string) error {
	m.kbMu.Lock()
	defer m.kbMu.Unlock()

	entry, exists := m.knowledge[entryID]
	if !exists {
		return &errs.NotFoundError{Resource: "knowledge base entry", ID: entryID}
	}
	entry.UsageCount++
	entry.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) CountKnowledgeBaseEntries() (int64, error) {
	m.kbMu.RLock()
	defer m.kbMu.RUnlock()
	return int64(len(m.knowledge)), nil
}
