package infrastructure

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"waitlist_funnel/internal/clock/clocktest"
	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/usecases"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeTelegramAPI struct {
	mu         sync.Mutex
	sent       []tgbotapi.MessageConfig
	callbacks  []tgbotapi.CallbackConfig
	requestErr error
}

func (f *fakeTelegramAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegramAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.callbacks = append(f.callbacks, cb)
	}
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegramAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		out = append(out, m.Text)
	}
	return out
}

const settle = 10 * time.Second

func newTestTelegram(t *testing.T) (*TelegramChannel, *fakeTelegramAPI, *clocktest.Manual) {
	t.Helper()
	m := clocktest.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := usecases.NewChatRegistry(m, usecases.DefaultChatScript(), usecases.DefaultChatTiming(), time.Hour)
	api := &fakeTelegramAPI{}
	limiter := NewKeyedRateLimiter(rate.Inf, 1, time.Minute)
	return newTelegramChannel(api, "clonekraft_bot", registry, limiter, zerolog.Nop()), api, m
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}
	if text == "/start" {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestTelegramChannel_ConversationWithFAQButtons(t *testing.T) {
	ch, api, m := newTestTelegram(t)
	script := usecases.DefaultChatScript()

	ch.handleUpdate(textUpdate(42, "/start"))
	m.Advance(settle)
	require.Equal(t, []string{script.Greeting}, api.texts())
	assert.Nil(t, api.sent[0].ReplyMarkup)

	ch.handleUpdate(textUpdate(42, "when do you launch?"))
	m.Advance(settle)
	require.Len(t, api.sent, 2)
	assert.Equal(t, script.StillBuilding, api.sent[1].Text)
	keyboard, ok := api.sent[1].ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard, len(script.FAQs))
	assert.Equal(t, "faq:1", *keyboard.InlineKeyboard[0][0].CallbackData)

	ch.handleUpdate(callbackUpdate(42, "faq:4"))
	m.Advance(settle)
	assert.Equal(t, script.FAQs[3].Answer, api.texts()[2])
	require.Len(t, api.callbacks, 1)
	assert.Equal(t, "", api.callbacks[0].Text)
}

func TestTelegramChannel_DoubleTapIsDebounced(t *testing.T) {
	ch, api, m := newTestTelegram(t)
	ch.handleUpdate(textUpdate(7, "/start"))
	m.Advance(settle)
	ch.handleUpdate(textUpdate(7, "hi"))
	m.Advance(settle)

	ch.handleUpdate(callbackUpdate(7, "faq:1"))
	ch.handleUpdate(callbackUpdate(7, "faq:1"))
	m.Advance(settle)

	require.Len(t, api.callbacks, 2)
	assert.Equal(t, "Please wait...", api.callbacks[1].Text)
	assert.Len(t, api.sent, 3, "greeting, reply, one answer")
}

func TestTelegramChannel_CallbackAnswerFailureIsLogged(t *testing.T) {
	m := clocktest.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := usecases.NewChatRegistry(m, usecases.DefaultChatScript(), usecases.DefaultChatTiming(), time.Hour)
	api := &fakeTelegramAPI{}
	var buf bytes.Buffer
	ch := newTelegramChannel(api, "clonekraft_bot", registry, nil, zerolog.New(&buf))

	ch.handleUpdate(textUpdate(9, "/start"))
	m.Advance(settle)
	ch.handleUpdate(textUpdate(9, "hi"))
	m.Advance(settle)

	api.requestErr = errors.New("query is too old")
	ch.handleUpdate(callbackUpdate(9, "faq:2"))
	m.Advance(settle)

	assert.Contains(t, buf.String(), "answer callback failed")
	assert.Contains(t, buf.String(), "query is too old")
	assert.Equal(t, usecases.DefaultChatScript().FAQs[1].Answer, api.texts()[2], "the answer is still sent")
}

func TestTelegramChannel_SendBotMessageRejectsBadChatID(t *testing.T) {
	ch, api, _ := newTestTelegram(t)
	err := ch.SendBotMessage("not-a-number", entities.ChatMessage{Text: "hi", Author: entities.AuthorBot}, false)
	assert.Error(t, err)
	assert.Empty(t, api.texts())
}

func TestFAQKeyboard(t *testing.T) {
	kb := FAQKeyboard([]string{"A?", "B?"})
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "B?", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "faq:2", *kb.InlineKeyboard[1][0].CallbackData)
}
