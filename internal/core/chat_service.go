package core

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"siteinspector.com/console/internal/backend"
)

var ErrEmptyMessage = errors.New("message cannot be empty")

type ChatBackend interface {
	ListMessages(ctx context.Context, token string, projectID int64) ([]backend.ChatMessage, error)
	SendMessage(ctx context.Context, token, message string, projectID int64, sender string) (*backend.ChatMessage, error)
}

// Feed is the chat history of one project as seen by one console session.
// Every successful fetch replaces the local list; sends append to it until
// the next fetch.
type Feed struct {
	projectID int64
	backend   ChatBackend
	now       func() time.Time

	mu       sync.Mutex
	messages []backend.ChatMessage
	version  uint64
	lastUsed time.Time
}

func newFeed(b ChatBackend, projectID int64, now func() time.Time) *Feed {
	return &Feed{projectID: projectID, backend: b, now: now, lastUsed: now()}
}

func (f *Feed) ProjectID() int64 { return f.projectID }

// Snapshot returns a copy of the local list and its version.
func (f *Feed) Snapshot() ([]backend.ChatMessage, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUsed = f.now()
	out := make([]backend.ChatMessage, len(f.messages))
	copy(out, f.messages)
	return out, f.version
}

// Refresh fetches the history and overwrites the local list. The version
// only moves when the fetched list differs from the local one.
func (f *Feed) Refresh(ctx context.Context, token string) error {
	msgs, err := f.backend.ListMessages(ctx, token, f.projectID)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !slices.Equal(f.messages, msgs) {
		f.version++
	}
	f.messages = msgs
	f.lastUsed = f.now()
	return nil
}

// Send posts text and appends it locally. Blank text never reaches the backend.
func (f *Feed) Send(ctx context.Context, token, text, sender string) (*backend.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	stored, err := f.backend.SendMessage(ctx, token, text, f.projectID, sender)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = &backend.ChatMessage{
			Message:        text,
			SenderUsername: sender,
			ProjectID:      f.projectID,
			Timestamp:      backend.Timestamp{Time: f.now()},
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *stored)
	f.version++
	f.lastUsed = f.now()
	return stored, nil
}

// Poll refreshes immediately and then every interval until ctx is done,
// calling onUpdate whenever the local list changed since the last call. A
// failed fetch keeps the previous list; an unauthorized one ends polling.
func (f *Feed) Poll(ctx context.Context, token string, interval time.Duration, onUpdate func([]backend.ChatMessage) error) error {
	var seen uint64
	var notified bool
	tick := func() error {
		if err := f.Refresh(ctx, token); err != nil {
			if errors.Is(err, backend.ErrUnauthorized) || ctx.Err() != nil {
				return err
			}
			slog.WarnContext(ctx, "chat poll failed", "project_id", f.projectID, "err", err)
		}
		msgs, version := f.Snapshot()
		if notified && version == seen {
			return nil
		}
		seen, notified = version, true
		return onUpdate(msgs)
	}

	if err := tick(); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := tick(); err != nil {
				return err
			}
		}
	}
}

func (f *Feed) idleSince(cutoff time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUsed.Before(cutoff)
}

// ChatService hands out one Feed per console session, replacing it when the
// session switches project.
type ChatService struct {
	backend  ChatBackend
	interval time.Duration
	idleTTL  time.Duration
	now      func() time.Time

	mu    sync.Mutex
	feeds map[string]*Feed
}

func NewChatService(b ChatBackend, interval, idleTTL time.Duration) *ChatService {
	return &ChatService{
		backend:  b,
		interval: interval,
		idleTTL:  idleTTL,
		now:      time.Now,
		feeds:    make(map[string]*Feed),
	}
}

func (s *ChatService) PollInterval() time.Duration { return s.interval }

// Feed returns the session's feed for projectID. The bool is true when the
// feed is new and has not been fetched yet.
func (s *ChatService) Feed(sessionID string, projectID int64) (*Feed, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.feeds[sessionID]; ok && f.projectID == projectID {
		return f, false
	}
	f := newFeed(s.backend, projectID, s.now)
	s.feeds[sessionID] = f
	return f, true
}

func (s *ChatService) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.feeds, sessionID)
}

// Sweep drops feeds unused for longer than the idle TTL.
func (s *ChatService) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, f := range s.feeds {
		if f.idleSince(cutoff) {
			delete(s.feeds, id)
			dropped++
		}
	}
	return dropped
}

// RunJanitor sweeps idle feeds every idle TTL until ctx is done.
func (s *ChatService) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.DebugContext(ctx, "dropped idle chat feeds", "count", n)
			}
		}
	}
}
