package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/sdctrack/internal/entity"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// ListChats returns every chat board with its messages.
func (s *Service) ListChats(ctx context.Context) (entity.Page[types.ChatBoard], error) {
	return s.chats.List(ctx)
}

// CreateChat opens an empty board.
func (s *Service) CreateChat(ctx context.Context, title string) (types.ChatBoard, error) {
	if strings.TrimSpace(title) == "" {
		return types.ChatBoard{}, fmt.Errorf("%w: title is required", types.ErrInvalidArgument)
	}
	return s.chats.Create(ctx, types.ChatBoard{Title: title, Messages: []types.ChatMessage{}})
}

// SendMessage appends a message to chatID. Concurrent senders never lose
// each other's messages.
func (s *Service) SendMessage(ctx context.Context, chatID, userID, text string) (types.ChatMessage, error) {
	if text == "" {
		return types.ChatMessage{}, fmt.Errorf("%w: message text is required", types.ErrInvalidArgument)
	}
	msg := types.ChatMessage{
		ID:     uuid.NewString(),
		ChatID: chatID,
		UserID: userID,
		Text:   text,
		TS:     s.nowMillis(),
	}
	_, err := s.chats.Mutate(ctx, chatID, func(b types.ChatBoard) (types.ChatBoard, error) {
		b.Messages = append(b.Messages, msg)
		return b, nil
	})
	if err != nil {
		return types.ChatMessage{}, err
	}
	return msg, nil
}

// ListMessages returns the messages of chatID, empty for an unknown board.
func (s *Service) ListMessages(ctx context.Context, chatID string) ([]types.ChatMessage, error) {
	b, err := s.chats.Cell(chatID).GetState(ctx)
	if err != nil {
		return nil, err
	}
	if b.Messages == nil {
		return []types.ChatMessage{}, nil
	}
	return b.Messages, nil
}
