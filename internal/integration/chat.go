package integration

import (
	"context"

	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
)

// CreateNewChat opens a chat with message and reloads the roster.
func (l *Layer) CreateNewChat(ctx context.Context, message string) (models.ChatResponse, error) {
	resp, err := l.createChat(ctx, message, nil)
	if err == nil {
		l.reloadChats(ctx)
	}
	return resp, err
}

// ReplyToChat sends message in chatID and reloads the roster.
func (l *Layer) ReplyToChat(ctx context.Context, chatID, message string) (models.ChatResponse, error) {
	resp, err := l.replyChat(ctx, chatID, message, nil)
	if err == nil {
		l.reloadChats(ctx)
	}
	return resp, err
}

// SendChat opens a chat when chatID is empty and replies to it otherwise.
// accept is asked once before the answer or the error is published; when it
// returns false the result is dropped and ErrDiscarded is returned. The
// roster reload runs in the background and outlives ctx.
func (l *Layer) SendChat(ctx context.Context, chatID, message string, accept func() bool) (models.ChatResponse, error) {
	var (
		resp models.ChatResponse
		err  error
	)
	if chatID == "" {
		resp, err = l.createChat(ctx, message, accept)
	} else {
		resp, err = l.replyChat(ctx, chatID, message, accept)
	}
	if err == nil {
		go l.reloadChats(context.WithoutCancel(ctx))
	}
	return resp, err
}

func (l *Layer) createChat(ctx context.Context, message string, accept func() bool) (models.ChatResponse, error) {
	const op = "create chat"
	g := l.guard(accept)
	if err := l.requireAuth(op); err != nil {
		return models.ChatResponse{}, err
	}

	resp, err := withLoading(l, func() (models.ChatResponse, error) {
		return l.backend.CreateChat(ctx, message)
	})
	if err != nil {
		return models.ChatResponse{}, l.failIn(g, op, err)
	}
	if !l.commit(g, func(s *State) {
		s.CurrentChatID = resp.ChatID
		s.Messages = transcript(nil, message, resp)
	}) {
		logger.Debug("Dropping late chat answer", "op", op)
		return models.ChatResponse{}, apperrors.ErrDiscarded
	}
	return resp, nil
}

func (l *Layer) replyChat(ctx context.Context, chatID, message string, accept func() bool) (models.ChatResponse, error) {
	const op = "reply to chat"
	g := l.guard(accept)
	if err := l.requireAuth(op); err != nil {
		return models.ChatResponse{}, err
	}

	resp, err := withLoading(l, func() (models.ChatResponse, error) {
		return l.backend.ReplyChat(ctx, chatID, message)
	})
	if err != nil {
		return models.ChatResponse{}, l.failIn(g, op, err, "chat_id", chatID)
	}
	if !l.commit(g, func(s *State) {
		if s.CurrentChatID != chatID {
			s.CurrentChatID = chatID
			s.Messages = nil
		}
		s.Messages = transcript(s.Messages, message, resp)
	}) {
		logger.Debug("Dropping late chat answer", "op", op, "chat_id", chatID)
		return models.ChatResponse{}, apperrors.ErrDiscarded
	}
	return resp, nil
}

// LoadChatList publishes the user's chats.
func (l *Layer) LoadChatList(ctx context.Context) ([]models.Chat, error) {
	const op = "load chat list"
	g := l.guard(nil)
	if err := l.requireAuth(op); err != nil {
		return nil, err
	}

	chats, err := withLoading(l, func() ([]models.Chat, error) {
		return l.backend.ListChats(ctx)
	})
	if err != nil {
		return nil, l.failIn(g, op, err)
	}
	if !l.commit(g, func(s *State) { s.Chats = chats }) {
		return nil, apperrors.ErrDiscarded
	}
	return chats, nil
}

func (l *Layer) reloadChats(ctx context.Context) {
	if _, err := l.LoadChatList(ctx); err != nil {
		logger.Debug("Chat roster reload failed", "error", err)
	}
}

func withLoading[T any](l *Layer, fn func() (T, error)) (T, error) {
	done := l.begin()
	defer done()
	return fn()
}

// transcript returns msgs updated with one exchange. The backend's own
// message list wins when it sends one.
func transcript(msgs []models.ChatMessage, query string, resp models.ChatResponse) []models.ChatMessage {
	if len(resp.Messages) > 0 {
		return resp.Messages
	}
	return append(msgs, models.ChatMessage{
		Message:  query,
		Response: resp.Response,
	})
}
