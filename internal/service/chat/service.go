package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
)

var (
	ErrConversationRequired = errors.New("conversation id is required")
	ErrConversationNotFound = errors.New("conversation not found")
)

// DefaultTranscriptLimit caps the turns retained per conversation.
const DefaultTranscriptLimit = 20

// Thread is a transcript together with its descriptive metadata.
type Thread struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Context      chat.Context   `json:"context"`
	UserID       string         `json:"user_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity,omitzero"`
	Messages     []chat.Message `json:"messages"`
}

// Service keeps conversation transcripts in memory for the embedded assistant.
type Service struct {
	mu      sync.RWMutex
	threads map[string]*Thread
	limit   int
}

// NewService bootstraps the in-memory transcript store. A non-positive limit
// means DefaultTranscriptLimit.
func NewService(limit int) *Service {
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}
	return &Service{
		threads: make(map[string]*Thread),
		limit:   limit,
	}
}

// CreateThread provisions an empty transcript. An existing thread is kept.
func (s *Service) CreateThread(_ context.Context, id, title string, ctx chat.Context, userID string) (Thread, error) {
	if id == "" {
		return Thread{}, ErrConversationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.threads[id]; ok {
		return copyThread(existing), nil
	}

	thread := &Thread{
		ID:        id,
		Title:     title,
		Context:   ctx,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Messages:  make([]chat.Message, 0, 8),
	}
	s.threads[id] = thread
	return copyThread(thread), nil
}

// Append adds turns to a transcript, creating it when needed, and trims it
// to the configured limit.
func (s *Service) Append(_ context.Context, id string, ctx chat.Context, turns ...chat.Message) error {
	if id == "" {
		return ErrConversationRequired
	}

	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[id]
	if !ok {
		thread = &Thread{ID: id, Context: ctx, CreatedAt: now}
		s.threads[id] = thread
	}

	for _, turn := range turns {
		if turn.Timestamp.IsZero() {
			turn.Timestamp = now
		}
		thread.Messages = append(thread.Messages, turn)
	}
	if overflow := len(thread.Messages) - s.limit; overflow > 0 {
		thread.Messages = append([]chat.Message(nil), thread.Messages[overflow:]...)
	}
	thread.LastActivity = now
	return nil
}

// GetThread retrieves a transcript by conversation id.
func (s *Service) GetThread(_ context.Context, id string) (Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, ok := s.threads[id]
	if !ok {
		return Thread{}, ErrConversationNotFound
	}
	return copyThread(thread), nil
}

// Recent returns at most n of the latest turns. Unknown ids yield nil.
func (s *Service) Recent(_ context.Context, id string, n int) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, ok := s.threads[id]
	if !ok || n <= 0 {
		return nil
	}

	start := 0
	if len(thread.Messages) > n {
		start = len(thread.Messages) - n
	}
	return append([]chat.Message(nil), thread.Messages[start:]...)
}

// Len returns the number of stored transcripts.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads)
}

func copyThread(t *Thread) Thread {
	out := *t
	out.Messages = append([]chat.Message(nil), t.Messages...)
	return out
}
