package llm

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of one streaming call.
type SessionState string

const (
	SessionActive    SessionState = "active"
	SessionCompleted SessionState = "completed"
	SessionTimedOut  SessionState = "timed_out"
	SessionFailed    SessionState = "failed"
)

// Session tracks one streaming completion call. It exists only for the
// duration of that call and is owned by the request that created it.
type Session struct {
	ID        string
	StartedAt time.Time

	mu          sync.Mutex
	lastChunkAt time.Time
	totalChunks int
	totalBytes  int
	state       SessionState
}

// SessionSnapshot is a point-in-time copy of session counters, safe to
// hand to logging and metrics after the session ends.
type SessionSnapshot struct {
	ID          string       `json:"id"`
	StartedAt   time.Time    `json:"started_at"`
	LastChunkAt time.Time    `json:"last_chunk_at"`
	TotalChunks int          `json:"total_chunks"`
	TotalBytes  int          `json:"total_bytes"`
	State       SessionState `json:"state"`
}

// NewSession creates a session in the active state.
func NewSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		state:     SessionActive,
	}
}

// RecordChunk updates counters for one received chunk.
func (s *Session) RecordChunk(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastChunkAt = time.Now()
	s.totalChunks++
	s.totalBytes += size
}

// Finish moves the session to a terminal state. Only the first transition
// out of active takes effect.
func (s *Session) Finish(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionActive {
		s.state = state
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot copies the session counters.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		ID:          s.ID,
		StartedAt:   s.StartedAt,
		LastChunkAt: s.lastChunkAt,
		TotalChunks: s.totalChunks,
		TotalBytes:  s.totalBytes,
		State:       s.state,
	}
}
