package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdfstash/pdfstash/pkg/githubclient"
)

// Store keeps sessions in memory behind a mutex. Lookup enforces expiry so a
// stale record can never authenticate a request even if the cleanup loop has
// not run yet.
type Store struct {
	log *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewStore creates an empty Store. A nil logger disables logging.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		log:         log.Named("session"),
		sessions:    make(map[string]*Session, 64),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Start begins the periodic cleanup goroutine.
func (s *Store) Start(ctx context.Context) {
	go s.cleanupLoop(ctx)
}

// Stop stops the cleanup goroutine and waits for it to exit.
func (s *Store) Stop() {
	close(s.stopCleanup)
	<-s.cleanupDone
}

func (s *Store) cleanupLoop(ctx context.Context) {
	defer close(s.cleanupDone)

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

func (s *Store) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired() {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		s.log.Debug("Removed expired sessions", zap.Int("count", removed))
	}
}

// Create stores a new session for the given token and user and returns it.
func (s *Store) Create(accessToken string, user githubclient.User) *Session {
	now := time.Now()
	sess := &Session{
		ID:          uuid.NewString(),
		AccessToken: accessToken,
		User:        user,
		CreatedAt:   now,
		ExpiresAt:   now.Add(TTL),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the session with the given ID. Expired sessions are removed
// and reported as ErrExpired.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if sess.Expired() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, ErrExpired
	}

	return sess, nil
}

// Delete removes the session with the given ID. Deleting a missing session
// is not an error; logout is best-effort.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
