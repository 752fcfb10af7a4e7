package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultSessionName = "Weather chat"

// maxNameRunes bounds the label derived from the first query.
const maxNameRunes = 48

// Service is the session store. All mutations for one user are serialized
// through a per-user lock so concurrent appends never interleave their
// read-modify-write cycles; different users proceed independently.
type Service struct {
	repo *Repo

	mu sync.Mutex
	// one entry per user id seen by this process, never evicted; bounded
	// by the users table, and each entry is a single mutex
	locks map[uint64]*sync.Mutex
}

func NewService(repo *Repo) *Service {
	return &Service{
		repo:  repo,
		locks: make(map[uint64]*sync.Mutex),
	}
}

func (s *Service) userLock(userID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// DeriveName turns the first query text into a session label.
func DeriveName(queryText string) string {
	name := strings.TrimSpace(queryText)
	if name == "" {
		return defaultSessionName
	}
	runes := []rune(name)
	if len(runes) > maxNameRunes {
		name = string(runes[:maxNameRunes])
	}
	return name
}

// CreateSession allocates a fresh session with a uuid id and an empty
// message list.
func (s *Service) CreateSession(ctx context.Context, userID uint64, label string) (string, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	sess := &Session{
		SessionID:  uuid.NewString(),
		UserID:     userID,
		Name:       DeriveName(label),
		UpdateTime: time.Now(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return "", err
	}
	return sess.SessionID, nil
}

// Find returns the session row, or ErrSessionNotFound.
func (s *Service) Find(ctx context.Context, userID uint64, sessionID string) (*Session, error) {
	return s.repo.FindSession(ctx, userID, sessionID)
}

// Messages returns the session's messages in insertion order. An unknown
// session id yields an empty slice, not an error: read paths stay resilient
// while the write path (AppendExchange) stays strict.
func (s *Service) Messages(ctx context.Context, userID uint64, sessionID string) ([]Message, error) {
	if _, err := s.repo.FindSession(ctx, userID, sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return []Message{}, nil
		}
		return nil, err
	}
	return s.repo.ListMessages(ctx, userID, sessionID)
}

// AppendExchange appends the user/assistant pair atomically. Fails with
// ErrSessionNotFound for unknown sessions; callers must not swallow it.
func (s *Service) AppendExchange(ctx context.Context, userID uint64, sessionID string, userMsg, assistantMsg *Message) (*Session, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	return s.repo.AppendExchange(ctx, userID, sessionID, userMsg, assistantMsg)
}

// ListSessions returns {id, name, updateTime} rows for the user.
func (s *Service) ListSessions(ctx context.Context, userID uint64) ([]Session, error) {
	return s.repo.ListSessions(ctx, userID)
}

// DeleteSession removes the session entirely; false when it did not exist.
func (s *Service) DeleteSession(ctx context.Context, userID uint64, sessionID string) (bool, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	return s.repo.DeleteSession(ctx, userID, sessionID)
}
