// Package history keeps the ordered conversation between the operator and the
// proposal service. Entries are appended in (user, assistant) pairs and only
// removed by Clear.
package history

import (
	"sync"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one logged message. Timestamp is a local display concern and is
// never forwarded to the proposal service.
type Entry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is the {role, content} pair sent as proposal context.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Option customises a Log.
type Option func(*Log)

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// Log is an append-only conversation record, safe for concurrent use.
type Log struct {
	mu        sync.RWMutex
	entries   []Entry
	now       func() time.Time
	updatedAt time.Time
}

// NewLog constructs an empty log.
func NewLog(options ...Option) *Log {
	l := &Log{now: time.Now}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	l.updatedAt = l.now()
	return l
}

// Append records one exchange: the user's prompt followed by the assistant's
// serialized response, both stamped with the same time.
func (l *Log) Append(userContent, assistantContent string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.entries = append(l.entries,
		Entry{Role: RoleUser, Content: userContent, Timestamp: now},
		Entry{Role: RoleAssistant, Content: assistantContent, Timestamp: now},
	)
	l.updatedAt = now
}

// Entries returns a copy of every entry in order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]Entry(nil), l.entries...)
}

// UserEntries returns only the operator-authored entries.
func (l *Log) UserEntries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Entry
	for _, entry := range l.entries {
		if entry.Role == RoleUser {
			out = append(out, entry)
		}
	}
	return out
}

// Messages returns the history as {role, content} pairs for proposal context.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, Message{Role: entry.Role, Content: entry.Content})
	}
	return out
}

// Len reports the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear removes every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
	l.updatedAt = l.now()
}

// UpdatedAt reports when the log last changed.
func (l *Log) UpdatedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.updatedAt
}
