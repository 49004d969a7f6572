package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/interfaces"
	"waitlist_funnel/internal/usecases"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const telegramChannel = "tg"

var _ interfaces.Messenger = (*TelegramChannel)(nil)

// telegramAPI is the part of *tgbotapi.BotAPI the channel uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramChannel serves the scripted assistant through one Telegram bot.
type TelegramChannel struct {
	bot      *tgbotapi.BotAPI
	api      telegramAPI
	username string
	relay    *usecases.ChatRelay
	clicks   *ClickGuard
	limiter  *KeyedRateLimiter
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
}

// NewTelegramChannel validates token and subscribes the channel to bot
// messages. Polling starts with Run.
func NewTelegramChannel(token string, registry *usecases.ChatRegistry, limiter *KeyedRateLimiter, logger zerolog.Logger) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	ch := newTelegramChannel(bot, bot.Self.UserName, registry, limiter, logger)
	ch.bot = bot
	return ch, nil
}

func newTelegramChannel(api telegramAPI, username string, registry *usecases.ChatRegistry, limiter *KeyedRateLimiter, logger zerolog.Logger) *TelegramChannel {
	ch := &TelegramChannel{
		api:      api,
		username: username,
		relay:    usecases.NewChatRelay(registry),
		clicks:   NewClickGuard(2 * time.Second),
		limiter:  limiter,
		logger:   logger.With().Str("channel", "telegram").Logger(),
	}
	subscribeChannel(registry, telegramChannel, ch, ch.logger)
	return ch
}

// Run polls for updates until ctx is done.
func (t *TelegramChannel) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	t.setRunning(true)
	defer t.setRunning(false)
	t.logger.Info().Str("bot", t.username).Msg("polling started")

	prune := time.NewTicker(time.Minute)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.logger.Info().Msg("polling stopped")
			return
		case <-prune.C:
			t.clicks.Cleanup()
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(update)
		}
	}
}

func (t *TelegramChannel) setRunning(v bool) {
	t.mu.Lock()
	t.running = v
	t.mu.Unlock()
}

func (t *TelegramChannel) Status() ChannelStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ChannelStatus{Name: "telegram", Enabled: true, Connected: t.running, Account: t.username}
}

func (t *TelegramChannel) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		chatID := update.Message.Chat.ID
		text := update.Message.Text
		if update.Message.IsCommand() && update.Message.Command() == "start" {
			text = usecases.StartCommand
		}
		t.relayText(chatID, text)

	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		cb := update.CallbackQuery
		chatID := cb.Message.Chat.ID
		key := usecases.SessionID(telegramChannel, strconv.FormatInt(chatID, 10))
		if !t.clicks.Allow(key) {
			t.answerCallback(cb.ID, "Please wait...")
			return
		}
		t.answerCallback(cb.ID, "")
		t.relayText(chatID, cb.Data)
	}
}

// answerCallback stops the client's loading spinner on the pressed button.
func (t *TelegramChannel) answerCallback(id, text string) {
	if _, err := t.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		t.logger.Warn().Err(err).Str("callback_id", id).Msg("answer callback failed")
	}
}

func (t *TelegramChannel) relayText(chatID int64, text string) {
	conversation := strconv.FormatInt(chatID, 10)
	sessionID := usecases.SessionID(telegramChannel, conversation)
	if t.limiter != nil && !t.limiter.Allow(sessionID) {
		t.logger.Debug().Int64("chat_id", chatID).Msg("rate limited")
		return
	}

	err := t.relay.Handle(sessionID, text)
	switch {
	case err == nil:
	case errors.Is(err, usecases.ErrBotResponding):
		// The visitor typed over the assistant; the web widget drops that too.
	case errors.Is(err, usecases.ErrEmptyMessage), errors.Is(err, usecases.ErrFAQHidden), errors.Is(err, usecases.ErrUnknownFAQ):
		t.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("ignored input")
	default:
		t.logger.Error().Err(err).Int64("chat_id", chatID).Msg("relay failed")
	}
}

// SendBotMessage sends msg to a chat, with the FAQ buttons when showFAQ.
func (t *TelegramChannel) SendBotMessage(conversation string, msg entities.ChatMessage, showFAQ bool) error {
	chatID, err := strconv.ParseInt(conversation, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", conversation, err)
	}
	out := tgbotapi.NewMessage(chatID, msg.Text)
	if showFAQ {
		keyboard := FAQKeyboard(t.relay.Questions())
		out.ReplyMarkup = &keyboard
	}
	_, err = t.api.Send(out)
	return err
}

// FAQKeyboard lays the quick-reply questions out one per row.
func FAQKeyboard(questions []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(questions))
	for i, q := range questions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(q, usecases.FAQCallbackData(i+1)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
