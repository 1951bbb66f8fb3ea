package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageType string

const (
	MessageTypeText        MessageType = "TEXT"
	MessageTypeImage       MessageType = "IMAGE"
	MessageTypeAudio       MessageType = "AUDIO"
	MessageTypeVideo       MessageType = "VIDEO"
	MessageTypeDocument    MessageType = "DOCUMENT"
	MessageTypeLocation    MessageType = "LOCATION"
	MessageTypeInteractive MessageType = "INTERACTIVE"
)

type MessageDirection string

const (
	DirectionIncoming MessageDirection = "INCOMING"
	DirectionOutgoing MessageDirection = "OUTGOING"
)

// Message is an immutable record of one inbound or outbound content unit.
// WhatsAppID is the provider-assigned id and is deliberately NOT unique:
// duplicate webhook deliveries create duplicate rows (no dedup is performed).
type Message struct {
	gorm.Model
	MessageID      string           `gorm:"uniqueIndex;not null" json:"message_id"`
	ConversationID string           `gorm:"index;not null" json:"conversation_id"`
	WhatsAppID     string           `gorm:"index" json:"whatsapp_id,omitempty"`
	Type           MessageType      `gorm:"default:'TEXT'" json:"type"`
	Direction      MessageDirection `gorm:"index;not null" json:"direction"`
	Content        string           `json:"content"` // serialized payload
	Timestamp      time.Time        `json:"timestamp"`
	Processed      bool             `gorm:"default:false" json:"processed"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.MessageID == "" {
		m.MessageID = "MSG-" + uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}
