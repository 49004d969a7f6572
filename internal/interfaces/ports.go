package interfaces

import (
	"context"

	"waitlist_funnel/internal/entities"
)

// SubscriberSource is the read side of the waitlist store.
type SubscriberSource interface {
	ListNewestFirst(ctx context.Context) ([]entities.Subscriber, error)
}

// SubscriberWriter is the insert path used by the public form.
type SubscriberWriter interface {
	Insert(ctx context.Context, s *entities.Subscriber) error
}

// CredentialStore looks up operator credentials.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*entities.AdminCredential, error)
	Create(ctx context.Context, email, storedPassword string) error
}

// Messenger delivers assistant messages to one conversation of an external
// messaging channel. showFAQ asks for the quick questions to be attached.
type Messenger interface {
	SendBotMessage(conversation string, msg entities.ChatMessage, showFAQ bool) error
}
