package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/interfaces"
	"waitlist_funnel/internal/usecases"

	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const whatsAppChannel = "wa"

var (
	// ErrNoQR is returned when there is no pairing code to show.
	ErrNoQR = errors.New("no pairing code available")
	// ErrNoDevice is returned when the channel has no WhatsApp client.
	ErrNoDevice = errors.New("whatsapp device not initialised")
)

var _ interfaces.Messenger = (*WhatsAppChannel)(nil)

// WhatsAppChannel serves the scripted assistant through one paired
// WhatsApp device.
type WhatsAppChannel struct {
	client  *whatsmeow.Client
	relay   *usecases.ChatRelay
	limiter *KeyedRateLimiter
	logger  zerolog.Logger
	send    func(to, content string) error

	qrLock sync.RWMutex
	qrCode string
}

// NewWhatsAppChannel opens the device store at storePath and subscribes the
// channel to bot messages. Connect starts the session.
func NewWhatsAppChannel(ctx context.Context, storePath string, registry *usecases.ChatRegistry, limiter *KeyedRateLimiter, logger zerolog.Logger) (*WhatsAppChannel, error) {
	if err := os.MkdirAll(filepath.Dir(storePath), 0o755); err != nil {
		return nil, fmt.Errorf("create device directory: %w", err)
	}

	dbLog := waLog.Zerolog(logger.With().Str("module", "whatsapp-db").Logger())
	container, err := sqlstore.New(ctx, "sqlite", "file:"+storePath+"?_pragma=foreign_keys(1)", dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to device store: %w", err)
	}
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	clientLog := waLog.Zerolog(logger.With().Str("module", "whatsapp").Logger())
	client := whatsmeow.NewClient(deviceStore, clientLog)

	w := newWhatsAppChannel(registry, limiter, logger)
	w.client = client
	w.send = w.sendViaClient
	client.AddEventHandler(w.handleEvent)
	return w, nil
}

func newWhatsAppChannel(registry *usecases.ChatRegistry, limiter *KeyedRateLimiter, logger zerolog.Logger) *WhatsAppChannel {
	w := &WhatsAppChannel{
		relay:   usecases.NewChatRelay(registry),
		limiter: limiter,
		logger:  logger.With().Str("channel", "whatsapp").Logger(),
	}
	subscribeChannel(registry, whatsAppChannel, w, w.logger)
	return w
}

// Connect connects the device. An unpaired device publishes pairing codes
// for QR until it is linked.
func (w *WhatsAppChannel) Connect(ctx context.Context) error {
	if w.client.Store.ID != nil {
		if err := w.client.Connect(); err != nil {
			return err
		}
		w.logger.Info().Str("phone", w.client.Store.ID.User).Msg("connected (existing session)")
		return nil
	}

	qrChan, err := w.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("qr channel: %w", err)
	}
	if err := w.client.Connect(); err != nil {
		return err
	}
	go w.watchQR(qrChan)
	return nil
}

func (w *WhatsAppChannel) watchQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		if evt.Event == "code" {
			w.qrLock.Lock()
			w.qrCode = evt.Code
			w.qrLock.Unlock()
			w.logger.Info().Msg("new pairing code")
			continue
		}
		w.qrLock.Lock()
		w.qrCode = ""
		w.qrLock.Unlock()
		w.logger.Info().Str("event", evt.Event).Msg("login event")
	}
}

// QRPNG renders the current pairing code as a PNG.
func (w *WhatsAppChannel) QRPNG(size int) ([]byte, error) {
	w.qrLock.RLock()
	code := w.qrCode
	w.qrLock.RUnlock()
	if code == "" {
		return nil, ErrNoQR
	}
	return qrcode.Encode(code, qrcode.Medium, size)
}

func (w *WhatsAppChannel) Status() ChannelStatus {
	st := ChannelStatus{Name: "whatsapp", Enabled: true}
	if w.client == nil {
		return st
	}
	if w.client.Store.ID == nil {
		st.NeedsQR = true
		return st
	}
	st.Connected = w.client.IsConnected()
	st.Account = w.client.Store.ID.User
	return st
}

// Logout unlinks the device and starts a new pairing.
func (w *WhatsAppChannel) Logout(ctx context.Context) error {
	w.qrLock.Lock()
	w.qrCode = ""
	w.qrLock.Unlock()

	if w.client == nil {
		return ErrNoDevice
	}
	if err := w.client.Logout(ctx); err != nil {
		return err
	}
	w.client.Disconnect()
	return w.Connect(ctx)
}

func (w *WhatsAppChannel) Disconnect() {
	if w.client != nil {
		w.client.Disconnect()
	}
}

func (w *WhatsAppChannel) handleEvent(evt interface{}) {
	msg, ok := evt.(*events.Message)
	if !ok || msg.Info.IsGroup || msg.Info.IsFromMe {
		return
	}
	sender, content := parseWhatsAppMessage(msg)
	if content == "" {
		return
	}
	w.relayText(sender, content)
}

func (w *WhatsAppChannel) relayText(sender, content string) {
	sessionID := usecases.SessionID(whatsAppChannel, sender)
	if w.limiter != nil && !w.limiter.Allow(sessionID) {
		w.logger.Debug().Str("sender", sender).Msg("rate limited")
		return
	}
	if err := w.relay.Handle(sessionID, content); err != nil {
		if errors.Is(err, usecases.ErrBotResponding) || errors.Is(err, usecases.ErrEmptyMessage) ||
			errors.Is(err, usecases.ErrFAQHidden) || errors.Is(err, usecases.ErrUnknownFAQ) {
			w.logger.Debug().Err(err).Str("sender", sender).Msg("ignored input")
			return
		}
		w.logger.Error().Err(err).Str("sender", sender).Msg("relay failed")
	}
}

// SendBotMessage sends msg to a phone number. WhatsApp has no buttons, so
// the FAQ is appended as a numbered list.
func (w *WhatsAppChannel) SendBotMessage(conversation string, msg entities.ChatMessage, showFAQ bool) error {
	text := msg.Text
	if showFAQ {
		text += "\n\n" + w.relay.NumberedFAQ() + "\n\nReply with a number to ask."
	}
	return w.send(conversation, text)
}

func (w *WhatsAppChannel) sendViaClient(to, content string) error {
	jid, err := types.ParseJID(to + "@s.whatsapp.net")
	if err != nil {
		return fmt.Errorf("invalid number format: %w", err)
	}
	_, err = w.client.SendMessage(context.Background(), jid, &waProto.Message{
		Conversation: &content,
	})
	return err
}

func parseWhatsAppMessage(evt *events.Message) (sender, content string) {
	sender = evt.Info.Sender.User
	if evt.Message == nil {
		return sender, ""
	}
	if evt.Message.Conversation != nil {
		content = *evt.Message.Conversation
	} else if evt.Message.ExtendedTextMessage != nil && evt.Message.ExtendedTextMessage.Text != nil {
		content = *evt.Message.ExtendedTextMessage.Text
	}
	return sender, strings.TrimSpace(content)
}
