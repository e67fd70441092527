package jobs

import (
	"sync"

	"kc-transfer/internal/domain"
)

// Session is the target state shared by all jobs of the engine. Only the
// engine changes it.
type Session struct {
	mu       sync.RWMutex
	mode     domain.SessionMode
	lastLine string
}

// NewSession creates a session for a target in unknown state.
func NewSession() *Session {
	return &Session{mode: domain.SessionModeUninitialized}
}

// Mode returns the receive mode the target is believed to be in.
func (s *Session) Mode() domain.SessionMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// LastLine returns the last BASICODE line typed into the companion program.
func (s *Session) LastLine() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLine
}

func (s *Session) setMode(mode domain.SessionMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

func (s *Session) setLastLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLine = line
}
