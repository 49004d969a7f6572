package usecases

import (
	"time"
	"unicode/utf8"
)

// FAQ is one quick-reply question and its canned answer.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"-"`
}

// ChatScript is the fixed copy the pre-launch assistant speaks.
type ChatScript struct {
	Greeting      string
	StillBuilding string
	Escalation    string
	Fallback      string
	FAQs          []FAQ
	// EscalateAfter is the number of earlier free-text requests after which
	// replies switch to Escalation.
	EscalateAfter int
}

func DefaultChatScript() ChatScript {
	return ChatScript{
		Greeting:      "Your AI Carpenter is waking up...",
		StillBuilding: "I'm still sharpening my tools... Launching soon. In the meantime, feel free to explore the FAQs below!",
		Escalation:    "The workshop is buzzing... Your AI Carpenter is coming very soon. Stay tuned — something legendary is being built.",
		Fallback:      "We're still carving that answer. Launching soon — stay tuned.",
		FAQs: []FAQ{
			{
				Question: "When is Clonekraft launching?",
				Answer:   "We’re launching in early 2026. First 500 waitlist members get their first piece cloned for free.",
			},
			{
				Question: "How does the cloning work?",
				Answer:   "Upload one photo → AI analyzes every detail → master carpenters hand-build it in premium hardwood → delivered fully assembled in 14 days.",
			},
			{
				Question: "Is my photo safe?",
				Answer:   "100%. We never store, share, or train AI on your photos. Deleted 7 days after delivery.",
			},
			{
				Question: "How long until delivery?",
				Answer:   "14 days from order. White-glove delivery, fully assembled.",
			},
		},
		EscalateAfter: 4,
	}
}

// Answer returns the canned answer for question, or Fallback.
func (s ChatScript) Answer(question string) string {
	for _, f := range s.FAQs {
		if f.Question == question {
			return f.Answer
		}
	}
	return s.Fallback
}

// Reply picks the answer to a free-text request given how many requests
// came before it.
func (s ChatScript) Reply(previousRequests int) (text string, showFAQ bool) {
	if previousRequests >= s.EscalateAfter {
		return s.Escalation, false
	}
	return s.StillBuilding, true
}

// Questions lists the FAQ questions in panel order.
func (s ChatScript) Questions() []string {
	out := make([]string, len(s.FAQs))
	for i, f := range s.FAQs {
		out[i] = f.Question
	}
	return out
}

// ChatTiming holds the assistant's pacing.
type ChatTiming struct {
	GreetingDelay time.Duration
	ReplyDelay    time.Duration
	FAQDelay      time.Duration
	MinTyping     time.Duration
	PerRune       time.Duration
}

func DefaultChatTiming() ChatTiming {
	return ChatTiming{
		GreetingDelay: 600 * time.Millisecond,
		ReplyDelay:    400 * time.Millisecond,
		FAQDelay:      200 * time.Millisecond,
		MinTyping:     1200 * time.Millisecond,
		PerRune:       35 * time.Millisecond,
	}
}

// TypingHold is how long a bot message takes to play back.
func (t ChatTiming) TypingHold(text string) time.Duration {
	d := time.Duration(utf8.RuneCountInString(text)) * t.PerRune
	if d < t.MinTyping {
		return t.MinTyping
	}
	return d
}
