package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one open connection owned by the registry. Statements on the
// same session are serialized.
type Session struct {
	ID        string
	Profile   string
	Server    *simplesql.Server
	Database  *simplesql.Database
	Conn      *simplesql.Conn
	User      string
	CreatedAt time.Time

	mu sync.Mutex
}

// Use runs fn with exclusive access to the session's connection.
func (s *Session) Use(fn func(*simplesql.Conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.Conn)
}

// close waits for the statement in flight, if any.
func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.Close()
}

// DatabaseName returns the selected database, or "".
func (s *Session) DatabaseName() string {
	if s.Database == nil {
		return ""
	}
	return s.Database.Name()
}

type Info struct {
	ID        string `json:"id"`
	Profile   string `json:"profile"`
	Server    string `json:"server"`
	Database  string `json:"database,omitempty"`
	User      string `json:"user"`
	CreatedAt string `json:"created_at"`
}

func (s *Session) Info() Info {
	return Info{
		ID:        s.ID,
		Profile:   s.Profile,
		Server:    s.Server.String(),
		Database:  s.DatabaseName(),
		User:      s.User,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

// Registry maps session ids to open sessions. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add stores s under the id of its connection and returns that id.
func (r *Registry) Add(s *Session) string {
	if s.ID == "" {
		s.ID = s.Conn.ID().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s.ID
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close removes the session and closes its connection.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.close()
}

// List returns the open sessions, oldest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	out := make([]Info, len(sessions))
	for i, s := range sessions {
		out[i] = s.Info()
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every session and empties the registry.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var errs []error
	for id, s := range sessions {
		if err := s.close(); err != nil {
			errs = append(errs, fmt.Errorf("close session %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
