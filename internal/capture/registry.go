package capture

import (
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/timeutil"
)

// Registry holds the live sessions keyed by ID.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	classifier *sketch.ShapeClassifier
	clock      timeutil.Clock
}

// NewRegistry creates an empty registry whose sessions share classifier.
func NewRegistry(classifier *sketch.ShapeClassifier, clock timeutil.Clock) *Registry {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		classifier: classifier,
		clock:      clock,
	}
}

// Create registers a new session under a random UUID.
func (r *Registry) Create() *Session {
	s := NewSession(uuid.New().String(), r.classifier, r.clock)
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
