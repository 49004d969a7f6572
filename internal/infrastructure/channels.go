package infrastructure

import (
	"strings"

	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/interfaces"
	"waitlist_funnel/internal/usecases"

	"github.com/rs/zerolog"
)

// ChannelStatus is what the dashboard shows about a messaging channel.
type ChannelStatus struct {
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Account   string `json:"account,omitempty"`
	NeedsQR   bool   `json:"needs_qr,omitempty"`
}

// subscribeChannel forwards bot messages of sessions named
// "<channel>:<conversation>" to m. Send failures are logged; the session
// carries on either way.
func subscribeChannel(registry *usecases.ChatRegistry, channel string, m interfaces.Messenger, logger zerolog.Logger) {
	prefix := usecases.SessionID(channel, "")
	registry.OnBotMessage(func(sessionID string, msg entities.ChatMessage, showFAQ bool) {
		conversation, ok := strings.CutPrefix(sessionID, prefix)
		if !ok {
			return
		}
		if err := m.SendBotMessage(conversation, msg, showFAQ); err != nil {
			logger.Error().Err(err).Str("conversation", conversation).Msg("send failed")
		}
	})
}
