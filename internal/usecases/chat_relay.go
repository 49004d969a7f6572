package usecases

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// StartCommand resets a channel conversation.
	StartCommand = "/start"
	// FAQCallbackPrefix prefixes quick-reply button data, e.g. "faq:2".
	FAQCallbackPrefix = "faq:"
)

// ChatRelay maps plain text from a messaging channel onto chat sessions.
type ChatRelay struct {
	registry *ChatRegistry
}

func NewChatRelay(registry *ChatRegistry) *ChatRelay {
	return &ChatRelay{registry: registry}
}

// SessionID names the chat session of a channel conversation.
func SessionID(channel, conversation string) string {
	return channel + ":" + conversation
}

// Handle feeds one inbound message into the session. The first message of
// a conversation opens it and is answered by the greeting only.
func (r *ChatRelay) Handle(sessionID, text string) error {
	text = strings.TrimSpace(text)

	if text == StartCommand {
		_ = r.registry.Close(sessionID)
		r.registry.Open(sessionID)
		return nil
	}

	s, err := r.registry.Get(sessionID)
	if errors.Is(err, ErrChatNotFound) {
		r.registry.Open(sessionID)
		return nil
	}
	if err != nil {
		return err
	}

	if data, ok := strings.CutPrefix(text, FAQCallbackPrefix); ok {
		n, err := strconv.Atoi(data)
		if err != nil {
			return ErrUnknownFAQ
		}
		_, err = s.SelectFAQIndex(n)
		return err
	}

	if n, err := strconv.Atoi(text); err == nil && s.Snapshot().ShowFAQ && n >= 1 && n <= len(r.registry.Script().FAQs) {
		_, err = s.SelectFAQIndex(n)
		return err
	}

	_, err = s.Submit(text)
	return err
}

// FAQCallbackData is the button payload that selects the FAQ at 1-based n.
func FAQCallbackData(n int) string {
	return FAQCallbackPrefix + strconv.Itoa(n)
}

// NumberedFAQ renders the FAQ panel as a numbered text list for channels
// without buttons.
func (r *ChatRelay) NumberedFAQ() string {
	var b strings.Builder
	for i, q := range r.registry.Script().Questions() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Questions lists the FAQ questions in panel order.
func (r *ChatRelay) Questions() []string {
	return r.registry.Script().Questions()
}
