package main

import (
	"strings"
	"time"
	"unicode"
)

// ChatEntry is one line of chat history.
type ChatEntry struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	At      int64  `json:"at"` // unix millis
}

// ChatLog keeps the most recent chat lines, oldest first.
type ChatLog struct {
	maxLen  int
	size    int
	entries []ChatEntry
}

// NewChatLog creates a log holding at most size lines of at most maxLen runes
func NewChatLog(size, maxLen int) *ChatLog {
	return &ChatLog{size: size, maxLen: maxLen}
}

// Append sanitizes message and records it. Returns false when nothing is
// left after sanitizing.
func (l *ChatLog) Append(now time.Time, name, message string) (ChatEntry, bool) {
	msg := sanitizeChat(message, l.maxLen)
	if msg == "" {
		return ChatEntry{}, false
	}
	e := ChatEntry{Name: name, Message: msg, At: now.UnixMilli()}
	if l.size <= 0 {
		return e, true
	}
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.size; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	return e, true
}

// History returns a copy of the retained lines
func (l *ChatLog) History() []ChatEntry {
	out := make([]ChatEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// sanitizeChat drops control characters, trims whitespace and caps the
// message at maxLen runes.
func sanitizeChat(s string, maxLen int) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxLen {
		s = strings.TrimSpace(string(r[:maxLen]))
	}
	return s
}
