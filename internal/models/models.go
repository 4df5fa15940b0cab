package models

import (
	"time"
)

// Agent states for a conversation. Zero value means the AI agent replies.
const (
	AgentActive   = 0
	AgentInactive = 1
)

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Conversation groups messages exchanged with a single WhatsApp number.
type Conversation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	WaID       string    `gorm:"uniqueIndex;not null" json:"wa_id"`
	AgentState int       `gorm:"default:0" json:"state"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message represents one WhatsApp message in a conversation.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	WaID      string    `gorm:"index;not null" json:"wa_id"`
	Direction string    `gorm:"type:varchar(10);not null" json:"direction"`
	Role      string    `gorm:"type:varchar(20)" json:"role"`
	Content   string    `gorm:"type:text" json:"content"`
	Type      string    `gorm:"type:varchar(50)" json:"type"`
	Status    string    `gorm:"type:varchar(20)" json:"status"`
	Metadata  string    `gorm:"type:text" json:"metadata"` // JSON blob from the provider
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Contact holds the lead fields used for template auto-fill.
type Contact struct {
	WaID      string    `gorm:"primaryKey" json:"wa_id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	FirstName string    `gorm:"type:varchar(255)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(255)" json:"last_name"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	Company   string    `gorm:"type:varchar(255)" json:"company"`
	Position  string    `gorm:"type:varchar(255)" json:"position"`
	Tags      string    `gorm:"type:text" json:"tags"` // Comma separated tags
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Template represents a WhatsApp message template synced from the provider.
type Template struct {
	ID         string `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"type:varchar(255)" json:"name"`
	Language   string `gorm:"type:varchar(50)" json:"language"`
	Category   string `gorm:"type:varchar(100)" json:"category"` // MARKETING, UTILITY, AUTHENTICATION
	Status     string `gorm:"type:varchar(50)" json:"status"`    // PENDING, APPROVED, REJECTED
	Components string `gorm:"type:text" json:"components"`       // JSON components
}

func (Template) TableName() string {
	return "templates"
}

// Insight stores an AI-generated analysis blob for a conversation.
// Kind is one of: qualification, summary, company_intelligence.
type Insight struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	WaID      string    `gorm:"uniqueIndex:idx_insights_wa_kind;not null" json:"wa_id"`
	Kind      string    `gorm:"uniqueIndex:idx_insights_wa_kind;type:varchar(50);not null" json:"kind"`
	Payload   string    `gorm:"type:text" json:"payload"` // JSON
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Insight) TableName() string {
	return "insights"
}

// User is a dashboard account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;type:varchar(255);not null" json:"email"`
	Name         string    `gorm:"type:varchar(255)" json:"name"`
	PasswordHash string    `gorm:"type:varchar(255)" json:"-"`
	Role         string    `gorm:"type:varchar(50);default:'agent'" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
