package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession()

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, SessionActive, s.State())

	s.RecordChunk(5)
	s.RecordChunk(7)

	snapshot := s.Snapshot()
	assert.Equal(t, 2, snapshot.TotalChunks)
	assert.Equal(t, 12, snapshot.TotalBytes)
	assert.False(t, snapshot.LastChunkAt.IsZero())

	s.Finish(SessionCompleted)
	assert.Equal(t, SessionCompleted, s.State())
}

func TestSession_FirstTerminalTransitionWins(t *testing.T) {
	s := NewSession()

	s.Finish(SessionTimedOut)
	s.Finish(SessionCompleted)
	s.Finish(SessionFailed)

	assert.Equal(t, SessionTimedOut, s.State())
}

func TestSession_DistinctIDs(t *testing.T) {
	a := NewSession()
	b := NewSession()
	assert.NotEqual(t, a.ID, b.ID)
}
