package api

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiotasks/jeep/internal/task"
	"github.com/kiotasks/jeep/internal/telemetry"
)

// Session errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

// #region session
// session is one task attempt. The task is not safe for concurrent use, so
// every request on a session holds mu.
type session struct {
	id      string
	created time.Time

	mu   sync.Mutex
	task *task.Task
}

// #endregion session

// #region registry
// registry holds the live sessions of a server.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	max      int
}

// newRegistry creates a registry holding at most max sessions.
func newRegistry(max int) *registry {
	return &registry{sessions: make(map[string]*session), max: max}
}

// add registers t under a new session id.
func (r *registry) add(t *task.Task) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.sessions) >= r.max {
		return nil, ErrTooManySessions
	}
	s := &session{id: uuid.New().String(), created: time.Now().UTC(), task: t}
	r.sessions[s.id] = s
	telemetry.SessionOpened()
	return s, nil
}

// get returns the session with id.
func (r *registry) get(id string) (*session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// remove drops the session with id.
func (r *registry) remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	telemetry.SessionClosed()
	return nil
}

// count returns the number of live sessions.
func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// #endregion registry
