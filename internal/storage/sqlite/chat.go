package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskhive/internal/models"
)

// AddChatMessage appends one message to the flat per-task discussion feed.
// Chat messages are keyed by room and task only; this is the one place
// comments are not embedded under the project path.
func (s *Store) AddChatMessage(ctx context.Context, roomID, taskID, text, author string) (models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, fmt.Errorf("message text must not be empty")
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO chat_messages(id, room_id, task_id, text, author) VALUES(?, ?, ?, ?, ?)`,
		id, roomID, taskID, strings.TrimSpace(text), author)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("insert chat message: %w", err)
	}

	var m models.ChatMessage
	err = s.db.QueryRowContext(ctx, `SELECT id, room_id, task_id, text, author, created_at FROM chat_messages WHERE id = ?`, id).
		Scan(&m.ID, &m.RoomID, &m.TaskID, &m.Text, &m.Author, &m.CreatedAt)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("get chat message: %w", err)
	}
	return m, nil
}

// ListChatMessages returns the feed for a room and task in send order.
func (s *Store) ListChatMessages(ctx context.Context, roomID, taskID string) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, room_id, task_id, text, author, created_at
        FROM chat_messages WHERE room_id = ? AND task_id = ? ORDER BY created_at ASC, id`, roomID, taskID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.TaskID, &m.Text, &m.Author, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
