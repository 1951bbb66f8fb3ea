package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/errs"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// User operations

func (d *DatabaseStore) CreateUser(user *models.User) error {
	if err := d.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &errs.ConflictError{Resource: "user", Reason: "phone number already registered"}
		}
		return err
	}
	return nil
}

func (d *DatabaseStore) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	err := d.db.Where("phone_number = ?", phone).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.NotFoundError{Resource: "user", ID: phone}
		}
		return nil, err
	}
	return &user, nil
}

func (d *DatabaseStore) UpdateUser(user *models.User) error {
	return d.db.Save(user).Error
}

// Conversation operations

func (d *DatabaseStore) CreateConversation(conversation *models.Conversation) error {
	return d.db.Create(conversation).Error
}

func (d *DatabaseStore) GetActiveConversation(userID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := d.db.Where("user_id = ? AND status = ?", userID, models.ConversationStatusActive).
		Order("started_at DESC").First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.NotFoundError{Resource: "conversation"}
		}
		return nil, err
	}
	return &conv, nil
}

func (d *DatabaseStore) UpdateConversation(conversation *models.Conversation) error {
	return d.db.Save(conversation).Error
}

// Message operations

func (d *DatabaseStore) CreateMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

func (d *DatabaseStore) UpdateMessage(message *models.Message) error {
	return d.db.Save(message).Error
}

func (d *DatabaseStore) GetMessagesByConversation(conversationID string, limit int) ([]*models.Message, error) {
	var messages []*models.Message
	query := d.db.Where("conversation_id = ?", conversationID).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// Ticket operations

func (d *DatabaseStore) CreateTicket(ticket *models.Ticket) error {
	return d.db.Create(ticket).Error
}

func (d *DatabaseStore) GetTicket(ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.db.Where("ticket_id = ?", ticketID).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &errs.NotFoundError{Resource: "ticket", ID: ticketID}
		}
		return nil, err
	}
	return &ticket, nil
}

func (d *DatabaseStore) GetTicketsByUser(userID string, limit, offset int) ([]*models.Ticket, int64, error) {
	var total int64
	if err := d.db.Model(&models.Ticket{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tickets []*models.Ticket
	query := d.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&tickets).Error; err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (d *DatabaseStore) UpdateTicket(ticket *models.Ticket) error {
	return d.db.Save(ticket).Error
}

func (d *DatabaseStore) SearchTickets(search *models.TicketSearch) ([]*models.Ticket, int64, error) {
	query := d.db.Model(&models.Ticket{})

	if search.Query != "" {
		like := "%" + search.Query + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ? OR resolution ILIKE ?", like, like, like)
	}
	if search.UserID != "" {
		query = query.Where("user_id = ?", search.UserID)
	}
	if search.Status != "" {
		query = query.Where("status = ?", search.Status)
	}
	if search.Priority != "" {
		query = query.Where("priority = ?", search.Priority)
	}
	if search.Category != "" {
		query = query.Where("category = ?", search.Category)
	}
	if search.AssignedTo != "" {
		query = query.Where("assigned_to = ?", search.AssignedTo)
	}
	if search.From != nil {
		query = query.Where("created_at >= ?", *search.From)
	}
	if search.To != nil {
		query = query.Where("created_at <= ?", *search.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tickets []*models.Ticket
	query = query.Order("created_at DESC")
	if search.Limit > 0 {
		query = query.Limit(search.Limit)
	}
	if search.Offset > 0 {
		query = query.Offset(search.Offset)
	}
	if err := query.Find(&tickets).Error; err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (d *DatabaseStore) GetTicketStats() (*models.TicketStats, error) {
	stats := &models.TicketStats{
		ByStatus:   make(map[string]int64),
		ByPriority: make(map[string]int64),
		ByCategory: make(map[string]int64),
	}

	if err := d.db.Model(&models.Ticket{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type groupCount struct {
		Key   string
		Count int64
	}

	var rows []groupCount
	if err := d.db.Model(&models.Ticket{}).
		Select("status AS key, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByStatus[r.Key] = r.Count
	}

	rows = nil
	if err := d.db.Model(&models.Ticket{}).
		Select("priority AS key, COUNT(*) AS count").Group("priority").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByPriority[r.Key] = r.Count
	}

	rows = nil
	if err := d.db.Model(&models.Ticket{}).
		Select("category AS key, COUNT(*) AS count").Group("category").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByCategory[r.Key] = r.Count
	}

	return stats, nil
}

func (d *DatabaseStore) GetEscalationCandidates(olderThan time.Time) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	err := d.db.Where("status = ? AND priority IN ? AND assigned_to IS NULL AND created_at < ?",
		models.TicketStatusOpen,
		[]models.TicketPriority{models.TicketPriorityHigh, models.TicketPriorityUrgent},
		olderThan).Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DatabaseStore) GetResolvedTicketsBefore(cutoff time.Time) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	err := d.db.Where("status = ? AND resolved_at < ?", models.TicketStatusResolved, cutoff).
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// Knowledge base operations

func (d *DatabaseStore) CreateKnowledgeBaseEntry(entry *models.KnowledgeBase) error {
	return d.db.Create(entry).Error
}

func (d *DatabaseStore) GetActiveKnowledgeBaseEntries(language string) ([]*models.KnowledgeBase, error) {
	var entries []*models.KnowledgeBase
	err := d.db.Where("is_active = ? AND language = ?", true, language).Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (d *DatabaseStore) GetMostUsedKnowledgeBaseEntries(language string, limit int) ([]*models.KnowledgeBase, error) {
	var entries []*models.KnowledgeBase
	query := d.db.Where("is_active = ? AND language = ?", true, language).Order("usage_count DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (d *DatabaseStore) IncrementKnowledgeBaseUsage(entryID string) error {
	return d.db.Model(&models.KnowledgeBase{}).Where("entry_id = ?", entryID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}

func (d *DatabaseStore) CountKnowledgeBaseEntries() (int64, error) {
	var count int64
	err := d.db.Model(&models.KnowledgeBase{}).Count(&count).Error
	return count, err
}
