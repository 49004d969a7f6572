package http

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Input validation constants
const (
	MaxNameLength        = 256
	MaxEmailLength       = 320
	MaxFilterLength      = 256
	MaxChatMessageLength = 2000
	MaxSessionIDLength   = 64
)

// SanitizeString removes null bytes and invalid UTF-8.
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return s
}

// TruncateString cuts s to at most maxRunes runes.
func TruncateString(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes])
}

// CleanInput sanitizes and truncates free text from a request.
func CleanInput(s string, maxRunes int) string {
	return TruncateString(SanitizeString(s), maxRunes)
}

// ValidSubscriberID checks that id is a waitlist row id.
func ValidSubscriberID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ValidChatSessionID accepts the ids the chat registry hands out.
func ValidChatSessionID(id string) bool {
	if id == "" || len(id) > MaxSessionIDLength {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
