package rtsp

import (
	"log/slog"
	"sync"
)

// SessionRegistry tracks the live sessions of a server
type SessionRegistry struct {
	sessions map[string]*Session // sessionId -> session
	mutex    sync.RWMutex
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
	}
}

// Add registers a session
func (r *SessionRegistry) Add(session *Session) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.sessions[session.sessionId] = session
	slog.Debug("Session registered", "sessionId", session.sessionId, "sessionCount", len(r.sessions))
}

// Remove unregisters a session by id
func (r *SessionRegistry) Remove(sessionId string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.sessions[sessionId]; !exists {
		return false
	}
	delete(r.sessions, sessionId)
	slog.Debug("Session unregistered", "sessionId", sessionId, "sessionCount", len(r.sessions))
	return true
}

// All returns a snapshot of all sessions
func (r *SessionRegistry) All() []*Session {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		result = append(result, session)
	}

	return result
}

// Len returns the number of sessions
func (r *SessionRegistry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.sessions)
}
