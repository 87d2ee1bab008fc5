package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"barberapp/internal/domain"
)

type ChatRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewChatRepository(db *pgxpool.Pool) *ChatRepositoryImpl {
	return &ChatRepositoryImpl{db: db}
}

const chatSelect = `
	SELECT
		c.id, c.user_id, c.barber_id, c.last_message_content, c.last_message_at, c.created_at, c.updated_at,
		u.name, u.profile_image,
		b.name, b.shop_name, b.profile_image, b.user_id`

const chatJoins = `
	FROM chats c
	JOIN users u ON u.id = c.user_id
	JOIN barbers b ON b.id = c.barber_id`

func scanChat(row pgx.Row, extra ...any) (*domain.Chat, error) {
	var chat domain.Chat
	var lastContent *string
	var lastAt *time.Time

	dest := []any{
		&chat.ID,
		&chat.UserID,
		&chat.BarberID,
		&lastContent,
		&lastAt,
		&chat.CreatedAt,
		&chat.UpdatedAt,
		&chat.Participants.User.Name,
		&chat.Participants.User.ProfileImage,
		&chat.Participants.Barber.Name,
		&chat.Participants.Barber.ShopName,
		&chat.Participants.Barber.ProfileImage,
		&chat.BarberUserID,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	chat.Participants.User.ID = chat.UserID
	chat.Participants.Barber.ID = chat.BarberID
	if lastContent != nil && lastAt != nil {
		chat.LastMessage = &domain.LastMessage{Content: *lastContent, CreatedAt: *lastAt}
	}

	return &chat, nil
}

// Chats

func (r *ChatRepositoryImpl) OpenOrGet(ctx context.Context, id, userID, barberID uuid.UUID, at time.Time) (*domain.Chat, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO chats (id, user_id, barber_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id, barber_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id`

	var chatID uuid.UUID
	if err := r.db.QueryRow(ctx, query, id, userID, barberID, at).Scan(&chatID); err != nil {
		return nil, fmt.Errorf("ошибка открытия чата: %w", err)
	}

	return r.GetByID(ctx, chatID)
}

func (r *ChatRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	chat, err := scanChat(r.db.QueryRow(ctx, chatSelect+chatJoins+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, fmt.Errorf("ошибка получения чата: %w", err)
	}
	return chat, nil
}

func (r *ChatRepositoryImpl) ListForParticipant(ctx context.Context, viewer uuid.UUID) ([]domain.Chat, error) {
	query := chatSelect + `,
		(SELECT COUNT(*) FROM messages m WHERE m.chat_id = c.id AND NOT m.read AND m.sender_id <> $1) AS unread` +
		chatJoins + `
		WHERE c.user_id = $1 OR b.user_id = $1
		ORDER BY c.updated_at DESC`

	rows, err := r.db.Query(ctx, query, viewer)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка чатов: %w", err)
	}
	defer rows.Close()

	var chats []domain.Chat
	for rows.Next() {
		var unread int
		chat, err := scanChat(rows, &unread)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования чата: %w", err)
		}
		chat.UnreadCount = unread
		chats = append(chats, *chat)
	}

	return chats, rows.Err()
}

// Messages

func (r *ChatRepositoryImpl) AppendMessage(ctx context.Context, msg domain.NewMessage) (*domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var seq int64
	var lastAt *time.Time
	err = tx.QueryRow(ctx, `SELECT next_seq, last_message_at FROM chats WHERE id = $1 FOR UPDATE`, msg.ChatID).Scan(&seq, &lastAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, fmt.Errorf("ошибка блокировки чата: %w", err)
	}

	createdAt := msg.CreatedAt
	if lastAt != nil && createdAt.Before(*lastAt) {
		createdAt = *lastAt
	}

	message := domain.Message{
		ID:          msg.ID,
		ChatID:      msg.ChatID,
		Seq:         seq,
		Sender:      msg.Sender,
		SenderType:  msg.SenderType,
		Content:     msg.Content,
		MessageType: msg.MessageType,
		CreatedAt:   createdAt,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (id, chat_id, seq, sender_id, sender_type, content, message_type, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)`,
		message.ID, message.ChatID, message.Seq, message.Sender, message.SenderType,
		message.Content, message.MessageType, message.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания сообщения: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE chats
		SET next_seq = next_seq + 1, last_message_content = $2, last_message_at = $3, updated_at = $3
		WHERE id = $1`,
		message.ChatID, message.Content, message.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления последнего сообщения: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при коммите транзакции: %w", err)
	}

	return &message, nil
}

func (r *ChatRepositoryImpl) ListMessages(ctx context.Context, chatID uuid.UUID, query domain.MessagesQuery) ([]domain.Message, error) {
	sql := `
		SELECT id, chat_id, seq, sender_id, sender_type, content, message_type, read, created_at
		FROM messages
		WHERE chat_id = $1 AND seq > $2
		ORDER BY seq ASC`

	args := []any{chatID, query.AfterSeq}
	if query.Limit > 0 {
		sql += ` LIMIT $3`
		args = append(args, query.Limit)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сообщений: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Seq, &m.Sender, &m.SenderType, &m.Content, &m.MessageType, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сообщения: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (r *ChatRepositoryImpl) MarkRead(ctx context.Context, chatID, reader uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE messages SET read = TRUE WHERE chat_id = $1 AND sender_id <> $2 AND NOT read`, chatID, reader)
	if err != nil {
		return 0, fmt.Errorf("ошибка отметки сообщений как прочитанных: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ChatRepositoryImpl) CountUnread(ctx context.Context, chatID, reader uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE chat_id = $1 AND sender_id <> $2 AND NOT read`, chatID, reader).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета непрочитанных сообщений: %w", err)
	}
	return count, nil
}
