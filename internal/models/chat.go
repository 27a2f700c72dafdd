package models

import "fmt"

// ChatMessage is one exchange in a backend chat.
type ChatMessage struct {
	ID        string `json:"id,omitempty"`
	Message   string `json:"message"`
	Response  string `json:"response,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ChatResponse is returned by create and reply.
type ChatResponse struct {
	ChatID   string        `json:"chat_id,omitempty"`
	Query    string        `json:"query"`
	Response string        `json:"response"`
	Messages []ChatMessage `json:"messages"`
}

// Chat is an entry of the chat roster.
type Chat struct {
	ID        string        `json:"id"`
	Title     string        `json:"title,omitempty"`
	Messages  []ChatMessage `json:"messages,omitempty"`
	CreatedAt string        `json:"created_at,omitempty"`
	UpdatedAt string        `json:"updated_at,omitempty"`
}

func (c Chat) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("chat is missing its id")
	}
	return nil
}

type CreateChatRequest struct {
	Message string `json:"message"`
}

type ReplyChatRequest struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}
