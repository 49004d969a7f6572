package usecases

import (
	"context"
	"strings"
	"sync"
	"time"

	"waitlist_funnel/internal/clock"
	"waitlist_funnel/internal/entities"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ChatState is where a chat session is in its conversation.
type ChatState int

const (
	ChatIdle ChatState = iota
	ChatGreeting
	ChatAwaitingInput
	ChatBotResponding
	ChatClosed
)

func (s ChatState) String() string {
	switch s {
	case ChatGreeting:
		return "greeting"
	case ChatAwaitingInput:
		return "awaiting_input"
	case ChatBotResponding:
		return "bot_responding"
	case ChatClosed:
		return "closed"
	default:
		return "idle"
	}
}

// ChatSnapshot is a copy of a session's visible state.
type ChatSnapshot struct {
	ID           string                 `json:"id"`
	State        string                 `json:"state"`
	Messages     []entities.ChatMessage `json:"messages"`
	Typing       bool                   `json:"typing"`
	ShowFAQ      bool                   `json:"show_faq"`
	FAQs         []string               `json:"faqs,omitempty"`
	RequestCount int                    `json:"request_count"`
}

// BotMessageListener is called after the assistant appends a message.
// It runs outside the session lock.
type BotMessageListener func(sessionID string, msg entities.ChatMessage, showFAQ bool)

// ChatSession drives one visitor's conversation with the assistant. Every
// delayed step is a task owned by the session; Close stops them all and
// bumps the generation so a callback that already fired does nothing.
type ChatSession struct {
	mu     sync.Mutex
	id     string
	script ChatScript
	timing ChatTiming
	clock  clock.Scheduler
	notify BotMessageListener

	state    ChatState
	messages []entities.ChatMessage
	requests int
	showFAQ  bool
	typing   bool
	touched  time.Time

	gen   uint64
	tasks map[clock.Task]struct{}
}

func newChatSession(id string, script ChatScript, timing ChatTiming, sched clock.Scheduler, notify BotMessageListener) *ChatSession {
	return &ChatSession{
		id:      id,
		script:  script,
		timing:  timing,
		clock:   sched,
		notify:  notify,
		state:   ChatIdle,
		touched: sched.Now(),
		tasks:   make(map[clock.Task]struct{}),
	}
}

func (s *ChatSession) ID() string { return s.id }

// Open shows the widget. An empty session starts the greeting; an open
// conversation is left as is.
func (s *ChatSession) Open() ChatSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.clock.Now()
	if (s.state == ChatIdle || s.state == ChatClosed) && len(s.messages) == 0 {
		s.state = ChatGreeting
		s.afterLocked(s.timing.GreetingDelay, func() *entities.ChatMessage {
			return s.botSayLocked(s.script.Greeting, false)
		})
	}
	return s.snapshotLocked()
}

// Submit sends free text. The reply arrives after ReplyDelay.
func (s *ChatSession) Submit(text string) (ChatSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(text) == "" {
		return ChatSnapshot{}, ErrEmptyMessage
	}
	if err := s.acceptingLocked(); err != nil {
		return ChatSnapshot{}, err
	}
	s.touched = s.clock.Now()

	s.userSayLocked(text)
	s.showFAQ = false
	previous := s.requests
	s.requests++
	s.state = ChatBotResponding

	s.afterLocked(s.timing.ReplyDelay, func() *entities.ChatMessage {
		reply, showFAQ := s.script.Reply(previous)
		return s.botSayLocked(reply, showFAQ)
	})
	return s.snapshotLocked(), nil
}

// SelectFAQ asks one of the quick-reply questions. It leaves the request
// counter and the panel alone.
func (s *ChatSession) SelectFAQ(question string) (ChatSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(question) == "" {
		return ChatSnapshot{}, ErrEmptyMessage
	}
	if err := s.acceptingLocked(); err != nil {
		return ChatSnapshot{}, err
	}
	if !s.showFAQ {
		return ChatSnapshot{}, ErrFAQHidden
	}
	s.touched = s.clock.Now()

	s.userSayLocked(question)
	s.state = ChatBotResponding

	s.afterLocked(s.timing.FAQDelay, func() *entities.ChatMessage {
		return s.botSayLocked(s.script.Answer(question), s.showFAQ)
	})
	return s.snapshotLocked(), nil
}

// SelectFAQIndex asks the FAQ at 1-based position n.
func (s *ChatSession) SelectFAQIndex(n int) (ChatSnapshot, error) {
	if n < 1 || n > len(s.script.FAQs) {
		return ChatSnapshot{}, ErrUnknownFAQ
	}
	return s.SelectFAQ(s.script.FAQs[n-1].Question)
}

// Close hides the widget and forgets the conversation.
func (s *ChatSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	for t := range s.tasks {
		t.Stop()
	}
	s.tasks = make(map[clock.Task]struct{})
	s.messages = nil
	s.requests = 0
	s.showFAQ = false
	s.typing = false
	s.state = ChatClosed
}

func (s *ChatSession) Snapshot() ChatSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ChatSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *ChatSession) acceptingLocked() error {
	switch s.state {
	case ChatAwaitingInput:
		return nil
	case ChatGreeting, ChatBotResponding:
		return ErrBotResponding
	default:
		return ErrChatClosed
	}
}

func (s *ChatSession) userSayLocked(text string) {
	s.messages = append(s.messages, entities.ChatMessage{
		Author: entities.AuthorUser,
		Text:   text,
		SentAt: s.clock.Now(),
	})
}

// botSayLocked appends a bot message and holds input for the typing
// playback.
func (s *ChatSession) botSayLocked(text string, showFAQ bool) *entities.ChatMessage {
	msg := entities.ChatMessage{Author: entities.AuthorBot, Text: text, SentAt: s.clock.Now()}
	s.messages = append(s.messages, msg)
	if showFAQ {
		s.showFAQ = true
	}
	s.state = ChatBotResponding
	s.typing = true
	s.afterLocked(s.timing.TypingHold(text), func() *entities.ChatMessage {
		s.typing = false
		s.state = ChatAwaitingInput
		return nil
	})
	return &msg
}

// afterLocked schedules step under the current generation. step runs with
// the session lock held; a returned message is passed to the listener once
// the lock is released.
func (s *ChatSession) afterLocked(d time.Duration, step func() *entities.ChatMessage) {
	gen := s.gen
	var task clock.Task
	task = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, task)
		msg := step()
		showFAQ := s.showFAQ
		notify := s.notify
		s.mu.Unlock()

		if msg != nil && notify != nil {
			notify(s.id, *msg, showFAQ)
		}
	})
	s.tasks[task] = struct{}{}
}

func (s *ChatSession) snapshotLocked() ChatSnapshot {
	snap := ChatSnapshot{
		ID:           s.id,
		State:        s.state.String(),
		Messages:     append([]entities.ChatMessage(nil), s.messages...),
		Typing:       s.typing,
		ShowFAQ:      s.showFAQ,
		RequestCount: s.requests,
	}
	if s.showFAQ {
		snap.FAQs = s.script.Questions()
	}
	return snap
}

// ChatRegistry holds the live chat sessions of the web widget and the
// messaging channels.
type ChatRegistry struct {
	clock  clock.Scheduler
	script ChatScript
	timing ChatTiming
	ttl    time.Duration

	mu        sync.Mutex
	sessions  map[string]*ChatSession
	listeners []BotMessageListener
}

func NewChatRegistry(sched clock.Scheduler, script ChatScript, timing ChatTiming, ttl time.Duration) *ChatRegistry {
	return &ChatRegistry{
		clock:    sched,
		script:   script,
		timing:   timing,
		ttl:      ttl,
		sessions: make(map[string]*ChatSession),
	}
}

func (r *ChatRegistry) Script() ChatScript { return r.script }

// OnBotMessage registers l for bot messages of every session.
func (r *ChatRegistry) OnBotMessage(l BotMessageListener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

func (r *ChatRegistry) dispatch(sessionID string, msg entities.ChatMessage, showFAQ bool) {
	r.mu.Lock()
	listeners := append([]BotMessageListener(nil), r.listeners...)
	r.mu.Unlock()
	for _, l := range listeners {
		l(sessionID, msg, showFAQ)
	}
}

// Open returns the session for id, creating it if needed, and opens it.
// An empty id gets a fresh random one.
func (r *ChatRegistry) Open(id string) (*ChatSession, ChatSnapshot) {
	if id == "" {
		id = uuid.NewString()
	}
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		s = newChatSession(id, r.script, r.timing, r.clock, r.dispatch)
		r.sessions[id] = s
	}
	r.mu.Unlock()
	return s, s.Open()
}

func (r *ChatRegistry) Get(id string) (*ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrChatNotFound
	}
	return s, nil
}

// Close closes and forgets the session.
func (r *ChatRegistry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrChatNotFound
	}
	s.Close()
	return nil
}

func (r *ChatRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// it removed.
func (r *ChatRegistry) Sweep() int {
	cutoff := r.clock.Now().Add(-r.ttl)
	r.mu.Lock()
	var stale []*ChatSession
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *ChatRegistry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Ctx(ctx).Debug().Int("sessions", n).Msg("swept idle chat sessions")
			}
		}
	}
}
