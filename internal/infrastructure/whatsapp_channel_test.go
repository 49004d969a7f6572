package infrastructure

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"waitlist_funnel/internal/clock/clocktest"
	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/usecases"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"golang.org/x/time/rate"
)

type sentMessage struct{ to, text string }

func newTestWhatsApp(t *testing.T) (*WhatsAppChannel, *clocktest.Manual, func() []sentMessage) {
	t.Helper()
	m := clocktest.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := usecases.NewChatRegistry(m, usecases.DefaultChatScript(), usecases.DefaultChatTiming(), time.Hour)
	w := newWhatsAppChannel(registry, NewKeyedRateLimiter(rate.Inf, 1, time.Minute), zerolog.Nop())

	var (
		mu   sync.Mutex
		sent []sentMessage
	)
	w.send = func(to, content string) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, sentMessage{to, content})
		return nil
	}
	return w, m, func() []sentMessage {
		mu.Lock()
		defer mu.Unlock()
		return append([]sentMessage(nil), sent...)
	}
}

func waText(sender, text string, group bool) *events.Message {
	evt := &events.Message{Message: &waProto.Message{Conversation: &text}}
	evt.Info.Sender = types.JID{User: sender, Server: types.DefaultUserServer}
	evt.Info.IsGroup = group
	return evt
}

func TestWhatsAppChannel_NumberedFAQFlow(t *testing.T) {
	w, m, sent := newTestWhatsApp(t)
	script := usecases.DefaultChatScript()

	w.handleEvent(waText("628111", "halo", false))
	m.Advance(settle)
	require.Len(t, sent(), 1)
	assert.Equal(t, sentMessage{"628111", script.Greeting}, sent()[0])

	w.handleEvent(waText("628111", "is it ready?", false))
	m.Advance(settle)
	reply := sent()[1].text
	assert.True(t, strings.HasPrefix(reply, script.StillBuilding))
	assert.Contains(t, reply, "1. When is Clonekraft launching?")

	w.handleEvent(waText("628111", "3", false))
	m.Advance(settle)
	assert.Equal(t, script.FAQs[2].Answer, strings.SplitN(sent()[2].text, "\n\n", 2)[0])
}

func TestWhatsAppChannel_IgnoresGroupsAndEmpty(t *testing.T) {
	w, m, sent := newTestWhatsApp(t)

	w.handleEvent(waText("628111", "hello all", true))
	w.handleEvent(waText("628111", "   ", false))
	w.handleEvent(&events.Connected{})
	m.Advance(settle)

	assert.Empty(t, sent())
}

func TestParseWhatsAppMessage_ExtendedText(t *testing.T) {
	text := " quoted reply "
	evt := &events.Message{Message: &waProto.Message{
		ExtendedTextMessage: &waProto.ExtendedTextMessage{Text: &text},
	}}
	evt.Info.Sender = types.JID{User: "628222", Server: types.DefaultUserServer}

	sender, content := parseWhatsAppMessage(evt)
	assert.Equal(t, "628222", sender)
	assert.Equal(t, "quoted reply", content)
}

func TestWhatsAppChannel_QRPNG(t *testing.T) {
	w, _, _ := newTestWhatsApp(t)

	_, err := w.QRPNG(256)
	assert.ErrorIs(t, err, ErrNoQR)

	w.qrCode = "2@pairing-code-for-tests"
	png, err := w.QRPNG(256)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestWhatsAppChannel_StatusWithoutClient(t *testing.T) {
	w, _, _ := newTestWhatsApp(t)
	st := w.Status()
	assert.Equal(t, "whatsapp", st.Name)
	assert.False(t, st.Connected)
}

func TestWhatsAppChannel_LogoutWithoutDevice(t *testing.T) {
	w, _, _ := newTestWhatsApp(t)
	w.qrCode = "2@stale"

	err := w.Logout(context.Background())
	assert.ErrorIs(t, err, ErrNoDevice)
	_, err = w.QRPNG(256)
	assert.ErrorIs(t, err, ErrNoQR, "the stale code is dropped")
}

func TestWhatsAppChannel_SendBotMessageAppendsNumberedFAQ(t *testing.T) {
	w, _, sent := newTestWhatsApp(t)

	require.NoError(t, w.SendBotMessage("628333", entities.ChatMessage{Author: entities.AuthorBot, Text: "Hi"}, false))
	require.NoError(t, w.SendBotMessage("628333", entities.ChatMessage{Author: entities.AuthorBot, Text: "Hi"}, true))

	got := sent()
	require.Len(t, got, 2)
	assert.Equal(t, "Hi", got[0].text)
	assert.True(t, strings.HasSuffix(got[1].text, "Reply with a number to ask."))
	assert.Contains(t, got[1].text, "4. How long until delivery?")
}
