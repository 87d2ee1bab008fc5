package domain

import (
	"time"

	"github.com/google/uuid"
)

type SenderType string

const (
	SenderTypeUser   SenderType = "user"
	SenderTypeBarber SenderType = "barber"
	SenderTypeAdmin  SenderType = "admin"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeSystem MessageType = "system"
)

type ChatParticipants struct {
	User   UserSummary   `json:"user"`
	Barber BarberSummary `json:"barber"`
}

type LastMessage struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chat is the single conversation between a user and a barber.
type Chat struct {
	ID           uuid.UUID        `json:"_id"`
	UserID       uuid.UUID        `json:"userId"`
	BarberID     uuid.UUID        `json:"barberId"`
	Participants ChatParticipants `json:"participants"`
	LastMessage  *LastMessage     `json:"lastMessage"`
	UnreadCount  int              `json:"unreadCount"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	Messages     []Message        `json:"messages,omitempty"`

	// User id of the barber account, used for access checks and event routing.
	BarberUserID uuid.UUID `json:"-"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Chat) HasParticipant(userID uuid.UUID) bool {
	return c.UserID == userID || c.BarberUserID == userID
}

// Counterpart returns the user id of the other party.
func (c *Chat) Counterpart(userID uuid.UUID) uuid.UUID {
	if userID == c.UserID {
		return c.BarberUserID
	}
	return c.UserID
}

// Message is immutable once stored except for Read.
type Message struct {
	ID          uuid.UUID   `json:"_id"`
	ChatID      uuid.UUID   `json:"chatId"`
	Seq         int64       `json:"seq"`
	Sender      uuid.UUID   `json:"sender"`
	SenderType  SenderType  `json:"senderType"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"messageType"`
	Read        bool        `json:"read"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type NewMessage struct {
	ID          uuid.UUID
	ChatID      uuid.UUID
	Sender      uuid.UUID
	SenderType  SenderType
	Content     string
	MessageType MessageType
	CreatedAt   time.Time
}

type SendMessageDTO struct {
	ChatID   string `json:"chatId" binding:"omitempty,uuid"`
	BarberID string `json:"barberId" binding:"omitempty,uuid"`
	Content  string `json:"content" binding:"required"`
}

type MessagesQuery struct {
	AfterSeq int64
	Limit    int
}
