// Package chat runs the assistant conversation. Every user message gets an
// answer: the backend's when it arrives in time, otherwise one from a local
// keyword table.
package chat

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Source records where an assistant message came from.
type Source string

const (
	SourceBackend  Source = "backend"
	SourceFallback Source = "fallback"
)

// Message is one transcript entry.
type Message struct {
	ID     string    `json:"id"`
	Role   Role      `json:"role"`
	Text   string    `json:"text"`
	Source Source    `json:"source,omitempty"`
	Time   time.Time `json:"time"`
}

// Phase is the state of the most recent exchange.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingResponse
	PhaseResolved
	PhaseTimedOut
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingResponse:
		return "awaiting_response"
	case PhaseResolved:
		return "resolved"
	case PhaseTimedOut:
		return "timed_out"
	default:
		return "idle"
	}
}

// Backend sends chat messages. *integration.Layer implements it.
//
// SendChat opens a chat when chatID is empty and replies to it otherwise. It
// must call accept once before publishing its answer or error anywhere, and
// drop the result when accept returns false.
type Backend interface {
	IsAuthenticated() bool
	SendChat(ctx context.Context, chatID, message string, accept func() bool) (models.ChatResponse, error)
}

// Session is one conversation transcript.
type Session struct {
	backend Backend
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	chatID   string
	messages []Message
	phase    Phase
}

type Option func(*Session)

// WithTimeout overrides how long Send waits for the backend.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithChatID continues an existing backend chat.
func WithChatID(id string) Option {
	return func(s *Session) { s.chatID = id }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func NewSession(backend Backend, opts ...Option) *Session {
	s := &Session{
		backend:  backend,
		timeout:  constants.ChatTimeout,
		now:      time.Now,
		messages: []Message{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type result struct {
	resp models.ChatResponse
	err  error
}

// Send appends text to the transcript and waits for an answer. The backend
// call races a timer; if the timer wins, the fallback answer is used and the
// backend's eventual result is dropped. Unauthenticated sessions never call
// the backend. The returned message is the assistant's answer.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, errors.New("message cannot be empty")
	}

	s.mu.Lock()
	s.messages = append(s.messages, Message{
		ID:   uuid.NewString(),
		Role: RoleUser,
		Text: text,
		Time: s.now(),
	})
	s.phase = PhaseAwaitingResponse
	chatID := s.chatID
	s.mu.Unlock()

	if s.backend == nil || !s.backend.IsAuthenticated() {
		return s.answer(Fallback(text), SourceFallback, PhaseResolved), nil
	}

	// the first to claim the exchange decides it: the backend by publishing
	// its result, the timer by answering locally
	var claimed atomic.Bool
	claim := func() bool { return claimed.CompareAndSwap(false, true) }

	// buffered so a late sender never blocks
	results := make(chan result, 1)
	go func() {
		var r result
		r.resp, r.err = s.backend.SendChat(ctx, chatID, text, claim)
		results <- r
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	var r result
	select {
	case r = <-results:
		claim()
	case <-timer.C:
		if claim() {
			logger.Warn("Chat response timed out, answering locally", "timeout", s.timeout)
			return s.answer(Fallback(text), SourceFallback, PhaseTimedOut), nil
		}
		// the backend claimed the exchange just before the timer fired
		r = <-results
	case <-ctx.Done():
		if claim() {
			logger.Debug("Chat request abandoned, answering locally", "error", ctx.Err())
			return s.answer(Fallback(text), SourceFallback, PhaseResolved), nil
		}
		r = <-results
	}
	return s.resolve(text, r), nil
}

func (s *Session) resolve(text string, r result) Message {
	if r.err != nil {
		logger.Warn("Chat request failed, answering locally", "error", r.err)
		return s.answer(Fallback(text), SourceFallback, PhaseResolved)
	}
	if r.resp.ChatID != "" {
		s.mu.Lock()
		s.chatID = r.resp.ChatID
		s.mu.Unlock()
	}
	if strings.TrimSpace(r.resp.Response) == "" {
		logger.Debug("Chat response had no text, answering locally")
		return s.answer(Fallback(text), SourceFallback, PhaseResolved)
	}
	return s.answer(r.resp.Response, SourceBackend, PhaseResolved)
}

func (s *Session) answer(text string, source Source, phase Phase) Message {
	msg := Message{
		ID:     uuid.NewString(),
		Role:   RoleAssistant,
		Text:   text,
		Source: source,
		Time:   s.now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.phase = phase
	return msg
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ChatID returns the backend chat this session replies to, if any.
func (s *Session) ChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

// Reset starts a new conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatID = ""
	s.messages = []Message{}
	s.phase = PhaseIdle
}
