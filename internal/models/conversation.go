package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationStatus string

const (
	ConversationStatusActive ConversationStatus = "ACTIVE"
	ConversationStatusEnded  ConversationStatus = "ENDED"
)

// Conversation is the durable session window. At most one ACTIVE
// conversation exists per user at any time; a stale one is ENDED before
// a replacement is created.
type Conversation struct {
	gorm.Model
	ConversationID string             `gorm:"uniqueIndex;not null" json:"conversation_id"`
	UserID         string             `gorm:"index;not null" json:"user_id"`
	Status         ConversationStatus `gorm:"default:'ACTIVE'" json:"status"`
	StartedAt      time.Time          `json:"started_at"`
	EndedAt        *time.Time         `json:"ended_at,omitempty"`
	Context        string             `json:"context,omitempty"` // serialized JSON map
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ConversationID == "" {
		c.ConversationID = "CNV-" + uuid.NewString()
	}
	if c.Status == "" {
		c.Status = ConversationStatusActive
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = time.Now()
	}
	return nil
}

// ContextMap deserializes the free-form conversation context.
func (c *Conversation) ContextMap() map[string]interface{} {
	ctx := make(map[string]interface{})
	if c.Context != "" {
		_ = json.Unmarshal([]byte(c.Context), &ctx)
	}
	return ctx
}

// SetContextMap serializes and stores the free-form conversation context.
func (c *Conversation) SetContextMap(ctx map[string]interface{}) {
	data, err := json.Marshal(ctx)
	if err != nil {
		return
	}
	c.Context = string(data)
}
