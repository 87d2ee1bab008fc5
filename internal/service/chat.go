package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberapp/config"
	"barberapp/internal/domain"
	"barberapp/internal/metrics"
	"barberapp/internal/repository"
)

type ChatServiceImpl struct {
	chatRepo   repository.ChatRepository
	barberRepo repository.BarberRepository
	events     EventPublisher
	now        Clock
	cfg        config.ChatConfig
	logger     *zap.Logger
}

func NewChatService(
	chatRepo repository.ChatRepository,
	barberRepo repository.BarberRepository,
	events EventPublisher,
	clock Clock,
	cfg config.ChatConfig,
	logger *zap.Logger,
) *ChatServiceImpl {
	return &ChatServiceImpl{
		chatRepo:   chatRepo,
		barberRepo: barberRepo,
		events:     events,
		now:        clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Chats

// OpenOrGet returns the caller's chat with the barber, creating it on
// first contact. Calling it again for the same pair returns the same chat.
func (s *ChatServiceImpl) OpenOrGet(ctx context.Context, principal domain.Principal, barberID uuid.UUID) (*domain.Chat, error) {
	barber, err := s.barberRepo.GetByID(ctx, barberID)
	if err != nil {
		return nil, err
	}

	if barber.UserID == principal.UserID {
		return nil, domain.NewValidationError("SELF_CHAT", "cannot open a chat with yourself")
	}

	chat, err := s.chatRepo.OpenOrGet(ctx, uuid.New(), principal.UserID, barber.ID, s.now())
	if err != nil {
		return nil, err
	}

	return chat, nil
}

func (s *ChatServiceImpl) Get(ctx context.Context, principal domain.Principal, chatID uuid.UUID) (*domain.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !principal.IsAdmin() && !chat.HasParticipant(principal.UserID) {
		return nil, domain.ErrNotParticipant
	}

	return chat, nil
}

func (s *ChatServiceImpl) ListForUser(ctx context.Context, principal domain.Principal) ([]domain.Chat, error) {
	return s.chatRepo.ListForParticipant(ctx, principal.UserID)
}

// Messages

// ListMessages returns the chat with its messages in sequence order. A
// zero Limit returns the whole history after AfterSeq.
func (s *ChatServiceImpl) ListMessages(ctx context.Context, principal domain.Principal, chatID uuid.UUID, query domain.MessagesQuery) (*domain.Chat, error) {
	chat, err := s.Get(ctx, principal, chatID)
	if err != nil {
		return nil, err
	}

	// No limit means the full history; only explicit pages are capped.
	if query.Limit < 0 {
		query.Limit = 0
	}
	if s.cfg.PageSize > 0 && query.Limit > s.cfg.PageSize {
		query.Limit = s.cfg.PageSize
	}
	if query.AfterSeq < 0 {
		query.AfterSeq = 0
	}

	messages, err := s.chatRepo.ListMessages(ctx, chat.ID, query)
	if err != nil {
		return nil, err
	}

	chat.Messages = messages
	return chat, nil
}

// Append stores a message and updates the chat's last message atomically.
// The server assigns the sequence number and timestamp; senderType comes
// from the caller's role.
func (s *ChatServiceImpl) Append(ctx context.Context, principal domain.Principal, dto domain.SendMessageDTO) (*domain.Message, error) {
	content := strings.TrimSpace(dto.Content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}
	if s.cfg.MaxMessageLength > 0 && utf8.RuneCountInString(content) > s.cfg.MaxMessageLength {
		return nil, domain.ErrMessageTooLong
	}

	chat, err := s.resolveChat(ctx, principal, dto)
	if err != nil {
		return nil, err
	}

	senderType := principal.Role.SenderType()
	message, err := s.chatRepo.AppendMessage(ctx, domain.NewMessage{
		ID:          uuid.New(),
		ChatID:      chat.ID,
		Sender:      principal.UserID,
		SenderType:  senderType,
		Content:     content,
		MessageType: domain.MessageTypeText,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}

	metrics.MessagesAppendedTotal.WithLabelValues(string(senderType)).Inc()
	s.logger.Debug("message appended",
		zap.String("chat_id", chat.ID.String()),
		zap.Int64("seq", message.Seq),
		zap.String("sender_type", string(senderType)),
	)

	s.events.Publish(domain.NewEvent(domain.EventMessageAppended, message.CreatedAt, message, chat.Counterpart(principal.UserID)))

	return message, nil
}

func (s *ChatServiceImpl) resolveChat(ctx context.Context, principal domain.Principal, dto domain.SendMessageDTO) (*domain.Chat, error) {
	if dto.ChatID != "" {
		chatID, err := uuid.Parse(dto.ChatID)
		if err != nil {
			return nil, domain.ErrInvalidID.WithMessage("chatId is not a valid id")
		}
		return s.Get(ctx, principal, chatID)
	}

	if dto.BarberID != "" {
		barberID, err := uuid.Parse(dto.BarberID)
		if err != nil {
			return nil, domain.ErrInvalidID.WithMessage("barberId is not a valid id")
		}
		chat, err := s.OpenOrGet(ctx, principal, barberID)
		if errors.Is(err, domain.ErrBarberNotFound) {
			return nil, domain.NewValidationError("UNKNOWN_BARBER", "barber does not exist")
		}
		return chat, err
	}

	return nil, domain.NewValidationError("MISSING_FIELD", "chatId or barberId is required")
}

func (s *ChatServiceImpl) MarkRead(ctx context.Context, principal domain.Principal, chatID uuid.UUID) (int64, error) {
	chat, err := s.Get(ctx, principal, chatID)
	if err != nil {
		return 0, err
	}
	return s.chatRepo.MarkRead(ctx, chat.ID, principal.UserID)
}

func (s *ChatServiceImpl) UnreadCount(ctx context.Context, principal domain.Principal, chatID uuid.UUID) (int, error) {
	chat, err := s.Get(ctx, principal, chatID)
	if err != nil {
		return 0, err
	}
	return s.chatRepo.CountUnread(ctx, chat.ID, principal.UserID)
}
