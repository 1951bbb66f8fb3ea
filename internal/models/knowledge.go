package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KnowledgeBase is a stored FAQ entry searched before falling back to
// free-text generation.
type KnowledgeBase struct {
	gorm.Model
	EntryID    string `gorm:"uniqueIndex;not null" json:"entry_id"`
	Question   string `gorm:"not null" json:"question"`
	Answer     string `gorm:"not null" json:"answer"`
	Category   string `json:"category"`
	Language   string `gorm:"index;default:'fr'" json:"language"`
	Keywords   string `json:"keywords,omitempty"` // serialized JSON array
	UsageCount int    `gorm:"default:0" json:"usage_count"`
	IsActive   bool   `gorm:"default:true;index" json:"is_active"`
}

func (k *KnowledgeBase) BeforeCreate(tx *gorm.DB) error {
	if k.EntryID == "" {
		k.EntryID = "KB-" + uuid.NewString()
	}
	return nil
}

// KeywordList deserializes the keyword list.
func (k *KnowledgeBase) KeywordList() []string {
	var keywords []string
	if k.Keywords != "" {
		_ = json.Unmarshal([]byte(k.Keywords), &keywords)
	}
	return keywords
}

// SetKeywordList serializes and stores the keyword list.
func (k *KnowledgeBase) SetKeywordList(keywords []string) {
	data, err := json.Marshal(keywords)
	if err != nil {
		return
	}
	k.Keywords = string(data)
}
