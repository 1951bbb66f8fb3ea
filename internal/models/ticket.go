package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusInProgress      TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingCustomer TicketStatus = "WAITING_CUSTOMER"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// ValidTicketStatus reports whether s is one of the five ticket statuses.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusWaitingCustomer,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Ticket is a support case opened on behalf of a user.
type Ticket struct {
	gorm.Model
	TicketID    string         `gorm:"uniqueIndex;not null" json:"ticket_id"`
	UserID      string         `gorm:"index;not null" json:"user_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"not null" json:"description"`
	Category    string         `json:"category"`
	Priority    TicketPriority `gorm:"default:'NORMAL'" json:"priority"`
	Status      TicketStatus   `gorm:"default:'OPEN';index" json:"status"`
	AssignedTo  *string        `json:"assigned_to,omitempty"`
	Resolution  *string        `json:"resolution,omitempty"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.TicketID == "" {
		t.TicketID = "TKT-" + uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	if t.Priority == "" {
		t.Priority = TicketPriorityNormal
	}
	return nil
}

// TicketSearch carries the free-text query and structured filters for
// ticket search. A zero value matches everything.
type TicketSearch struct {
	Query      string         `json:"query,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Status     TicketStatus   `json:"status,omitempty"`
	Priority   TicketPriority `json:"priority,omitempty"`
	Category   string         `json:"category,omitempty"`
	AssignedTo string         `json:"assigned_to,omitempty"`
	From       *time.Time     `json:"from,omitempty"`
	To         *time.Time     `json:"to,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	Offset     int            `json:"offset,omitempty"`
}

// TicketStats groups ticket counts for reporting.
type TicketStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByPriority map[string]int64 `json:"by_priority"`
	ByCategory map[string]int64 `json:"by_category"`
}
