package session

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// maxLogEntries bounds the in-memory session log; older entries are dropped.
const maxLogEntries = 1000

// Entry is one line of the session log.
type Entry struct {
	Time    time.Time
	Level   zapcore.Level
	Message string
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// Log returns the session log, oldest first. It is never persisted.
func (s *Session) Log() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

func (s *Session) logf(level zapcore.Level, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logLocked(level, fmt.Sprintf(format, args...))
}

func (s *Session) logLocked(level zapcore.Level, msg string) {
	if ce := s.log.Check(level, msg); ce != nil {
		ce.Write()
	}
	if level < zapcore.InfoLevel {
		return
	}
	s.entries = append(s.entries, Entry{Time: time.Now(), Level: level, Message: msg})
	if len(s.entries) > maxLogEntries {
		s.entries = s.entries[len(s.entries)-maxLogEntries:]
	}
}
