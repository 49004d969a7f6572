package entities

import "time"

// Interests are the opt-in flags a visitor ticks on the waitlist form.
type Interests struct {
	EarlyAccess    bool `json:"earlyAccess"`
	ExclusivePerks bool `json:"exclusivePerks"`
	Updates        bool `json:"updates"`
}

// DefaultInterests is what the form starts with: everything opted in.
func DefaultInterests() Interests {
	return Interests{EarlyAccess: true, ExclusivePerks: true, Updates: true}
}

// Subscriber is one waitlist entrant. Rows are written by the public form
// and are read-only from the dashboard.
type Subscriber struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name"`
	Email     string    `json:"email"`
	Interests Interests `json:"interests"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the name or "" when none was given.
func (s Subscriber) DisplayName() string {
	if s.Name == nil {
		return ""
	}
	return *s.Name
}
