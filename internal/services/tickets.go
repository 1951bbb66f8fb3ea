package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/cache"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/errs"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/storage"
)

// autoCloseDwell is how long a RESOLVED ticket sits before the sweep
// closes it.
const autoCloseDwell = 7 * 24 * time.Hour

// TicketService owns ticket CRUD, auto-prioritization and the
// escalation/auto-close policies. All mutating operations invalidate
// the relevant cache entries synchronously before returning.
type TicketService struct {
	store             storage.Store
	cache             *cache.Cache
	cacheTTL          time.Duration
	escalationTimeout time.Duration
}

func NewTicketService(store storage.Store, c *cache.Cache, cacheTTL, escalationTimeout time.Duration) *TicketService {
	return &TicketService{
		store:             store,
		cache:             c,
		cacheTTL:          cacheTTL,
		escalationTimeout: escalationTimeout,
	}
}

// Create validates and persists a new ticket, auto-assigning priority
// and category from keyword scans when not provided.
func (t *TicketService) Create(userID, language, title, description, category string, priority models.TicketPriority) (*models.Ticket, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &errs.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(description) == "" {
		return nil, &errs.ValidationError{Field: "description", Reason: "must not be empty"}
	}

	if priority == "" {
		priority = DeterminePriority(title+" "+description, language)
	}
	if category == "" {
		category = DetermineCategory(title+" "+description, language)
	}

	ticket := &models.Ticket{
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Category:    category,
		Priority:    priority,
		Status:      models.TicketStatusOpen,
	}
	if err := t.store.CreateTicket(ticket); err != nil {
		return nil, err
	}

	t.invalidate(ticket)
	log.Printf("🎫 Ticket %s created for user %s (%s/%s)", ticket.TicketID, userID, ticket.Priority, ticket.Category)
	return ticket, nil
}

// Get returns a ticket by id, scoped to userID when non-empty. An
// owner mismatch is reported as not found, not as forbidden.
func (t *TicketService) Get(ticketID, userID string) (*models.Ticket, error) {
	if value, ok := t.cache.Get(ticketKey(ticketID)); ok {
		if ticket, ok := value.(*models.Ticket); ok {
			if userID != "" && ticket.UserID != userID {
				return nil, &errs.NotFoundError{Resource: "ticket", ID: ticketID}
			}
			return ticket, nil
		}
	}

	ticket, err := t.store.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if userID != "" && ticket.UserID != userID {
		return nil, &errs.NotFoundError{Resource: "ticket", ID: ticketID}
	}

	t.cache.Set(ticketKey(ticketID), ticket, t.cacheTTL)
	return ticket, nil
}

// ListByUser returns the user's tickets, most recent first.
func (t *TicketService) ListByUser(userID string, limit, offset int) ([]*models.Ticket, int64, error) {
	key := fmt.Sprintf("%s:%d:%d", userTicketsPrefix(userID), limit, offset)
	if value, ok := t.cache.Get(key); ok {
		if page, ok := value.(*ticketPage); ok {
			return page.tickets, page.total, nil
		}
	}

	tickets, total, err := t.store.GetTicketsByUser(userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	t.cache.Set(key, &ticketPage{tickets: tickets, total: total}, t.cacheTTL)
	return tickets, total, nil
}

// UpdateStatus validates the target status and persists the
// transition, stamping ResolvedAt when the ticket reaches
// RESOLVED or CLOSED. Ordering between the five statuses is not
// enforced beyond value validation.
func (t *TicketService) UpdateStatus(ticketID string, status models.TicketStatus) (*models.Ticket, error) {
	if !models.ValidTicketStatus(status) {
		return nil, &errs.ValidationError{Field: "status", Reason: fmt.Sprintf("invalid status %q", status)}
	}

	ticket, err := t.store.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}

	ticket.Status = status
	if (status == models.TicketStatusResolved || status == models.TicketStatusClosed) && ticket.ResolvedAt == nil {
		now := time.Now()
		ticket.ResolvedAt = &now
	}
	if err := t.store.UpdateTicket(ticket); err != nil {
		return nil, err
	}

	t.invalidate(ticket)
	return ticket, nil
}

// Assign sets the agent and forces the ticket into IN_PROGRESS.
func (t *TicketService) Assign(ticketID, agent string) (*models.Ticket, error) {
	if strings.TrimSpace(agent) == "" {
		return nil, &errs.ValidationError{Field: "agent", Reason: "must not be empty"}
	}

	ticket, err := t.store.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}

	ticket.AssignedTo = &agent
	ticket.Status = models.TicketStatusInProgress
	if err := t.store.UpdateTicket(ticket); err != nil {
		return nil, err
	}

	t.invalidate(ticket)
	return ticket, nil
}

// Search runs free-text and structured filtering with pagination.
func (t *TicketService) Search(search *models.TicketSearch) ([]*models.Ticket, int64, bool, error) {
	tickets, total, err := t.store.SearchTickets(search)
	if err != nil {
		return nil, 0, false, err
	}
	hasMore := int64(search.Offset+len(tickets)) < total
	return tickets, total, hasMore, nil
}

// Stats returns ticket counts grouped by status, priority and category.
func (t *TicketService) Stats() (*models.TicketStats, error) {
	if value, ok := t.cache.Get(statsKey); ok {
		if stats, ok := value.(*models.TicketStats); ok {
			return stats, nil
		}
	}

	stats, err := t.store.GetTicketStats()
	if err != nil {
		return nil, err
	}

	t.cache.Set(statsKey, stats, t.cacheTTL)
	return stats, nil
}

// FindEscalationCandidates identifies unassigned HIGH/URGENT tickets
// open longer than the escalation timeout. Identification only; the
// notification itself is an external concern.
func (t *TicketService) FindEscalationCandidates() ([]*models.Ticket, error) {
	candidates, err := t.store.GetEscalationCandidates(time.Now().Add(-t.escalationTimeout))
	if err != nil {
		return nil, err
	}

	for _, ticket := range candidates {
		log.Printf("🚨 Escalation candidate: %s (%s, open since %s)",
			ticket.TicketID, ticket.Priority, ticket.CreatedAt.Format(time.RFC3339))
	}
	return candidates, nil
}

// AutoCloseResolved bulk-closes tickets resolved more than seven days
// ago and returns how many were transitioned.
func (t *TicketService) AutoCloseResolved() (int, error) {
	tickets, err := t.store.GetResolvedTicketsBefore(time.Now().Add(-autoCloseDwell))
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, ticket := range tickets {
		ticket.Status = models.TicketStatusClosed
		if err := t.store.UpdateTicket(ticket); err != nil {
			log.Printf("⚠️ Failed to auto-close ticket %s: %v", ticket.TicketID, err)
			continue
		}
		t.invalidate(ticket)
		closed++
	}

	if closed > 0 {
		log.Printf("🧹 Auto-closed %d resolved tickets", closed)
	}
	return closed, nil
}

func (t *TicketService) invalidate(ticket *models.Ticket) {
	t.cache.Delete(ticketKey(ticket.TicketID))
	t.cache.DeletePrefix(userTicketsPrefix(ticket.UserID))
	t.cache.Delete(statsKey)
}

type ticketPage struct {
	tickets []*models.Ticket
	total   int64
}

const statsKey = "tickets:stats"

func ticketKey(ticketID string) string {
	return "ticket:" + ticketID
}

func userTicketsPrefix(userID string) string {
	return "tickets:user:" + userID
}

// auto-classification keyword tables

var urgentKeywords = map[string][]string{
	"en": {"urgent", "emergency", "critical", "asap", "immediately", "site is down", "completely down"},
	"fr": {"urgent", "urgence", "critique", "immédiatement", "bloqué", "panne totale"},
}

var highKeywords = map[string][]string{
	"en": {"important", "serious", "cannot", "can't", "blocked", "failure"},
	"fr": {"important", "grave", "sérieux", "impossible", "bloquant"},
}

var categoryKeywords = map[string][]struct {
	category string
	words    []string
}{
	"en": {
		{"billing", []string{"invoice", "bill", "billing", "payment", "charge", "charged"}},
		{"technical", []string{"bug", "error", "crash", "login", "password", "connection", "broken"}},
		{"account", []string{"account", "profile", "subscription"}},
	},
	"fr": {
		{"facturation", []string{"facture", "facturation", "paiement", "prélèvement"}},
		{"technique", []string{"bug", "erreur", "panne", "connexion", "mot de passe", "cassé"}},
		{"compte", []string{"compte", "profil", "abonnement"}},
	},
}

var defaultCategory = map[string]string{
	"en": "general",
	"fr": "général",
}

// DeterminePriority scans text for urgency markers. URGENT keywords are
// checked before HIGH keywords; anything else is NORMAL.
func DeterminePriority(text, language string) models.TicketPriority {
	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	if matchesAny(lower, tokens, urgentKeywords[language]) {
		return models.TicketPriorityUrgent
	}
	if matchesAny(lower, tokens, highKeywords[language]) {
		return models.TicketPriorityHigh
	}
	return models.TicketPriorityNormal
}

// DetermineCategory maps text onto a support category, defaulting to
// the language's generic bucket.
func DetermineCategory(text, language string) string {
	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	for _, group := range categoryKeywords[language] {
		if matchesAny(lower, tokens, group.words) {
			return group.category
		}
	}
	if category, ok := defaultCategory[language]; ok {
		return category
	}
	return defaultCategory["en"]
}

func tokenize(lower string) map[string]bool {
	tokens := make(map[string]bool)
	for _, token := range strings.Fields(lower) {
		tokens[strings.Trim(token, ".,!?;:'\"")] = true
	}
	return tokens
}

// matchesAny matches phrases as substrings and single words as whole
// tokens.
func matchesAny(lower string, tokens map[string]bool, words []string) bool {
	for _, word := range words {
		if strings.Contains(word, " ") {
			if strings.Contains(lower, word) {
				return true
			}
		} else if tokens[word] {
			return true
		}
	}
	return false
}
