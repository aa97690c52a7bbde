package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/utils"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type sessionEntry struct {
	data      utils.SessionData
	createdAt time.Time
	lastSeen  time.Time
}

// SessionStore holds live sessions in process memory, keyed by session ID.
// A session dies when it has been idle longer than the idle timeout, when
// it outlives the absolute timeout, or when it is deleted at logout.
//
// Concurrent requests for the same session are not ordered; the last
// write wins.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	idle     time.Duration
	absolute time.Duration

	now func() time.Time
}

func NewSessionStore(idle, absolute time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		idle:     idle,
		absolute: absolute,
		now:      time.Now,
	}
}

// Create registers a new session for the given data and returns its ID.
// Any prior session for the same user is replaced, not stacked.
func (s *SessionStore) Create(data utils.SessionData) utils.SessionData {
	id := uuid.New().String()
	now := s.now()

	data.SessionID = id
	data.ExpiresAt = now.Add(s.idle)

	s.mu.Lock()
	defer s.mu.Unlock()
	for existingID, entry := range s.sessions {
		if entry.data.UserID == data.UserID {
			delete(s.sessions, existingID)
		}
	}
	s.sessions[id] = &sessionEntry{data: data, createdAt: now, lastSeen: now}
	return data
}

// FindSessionByID returns the live session with the given ID, touching its
// idle clock. Expired sessions are removed and reported as not found.
func (s *SessionStore) FindSessionByID(id string) (utils.SessionData, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return utils.SessionData{}, ErrSessionNotFound
	}
	if now.Sub(entry.lastSeen) > s.idle || now.Sub(entry.createdAt) > s.absolute {
		delete(s.sessions, id)
		return utils.SessionData{}, ErrSessionNotFound
	}

	entry.lastSeen = now
	data := entry.data
	data.ExpiresAt = expiry(now.Add(s.idle), entry.createdAt.Add(s.absolute))
	return data, nil
}

// Delete destroys the session. Deleting an unknown ID is a no-op, which
// makes logout idempotent.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// SetBackendToken records a backend-issued bearer token on the session.
func (s *SessionStore) SetBackendToken(id, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.sessions[id]; ok {
		entry.data.BackendToken = token
	}
}

func expiry(idle, absolute time.Time) time.Time {
	if absolute.Before(idle) {
		return absolute
	}
	return idle
}
