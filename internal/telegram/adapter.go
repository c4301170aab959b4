package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/simterm/internal/delivery"
	"github.com/user/simterm/internal/gateway"
	"github.com/user/simterm/internal/types"
)

const (
	maxTelegramMessage = 4096
	outboxSize         = 64
	source             = "telegram"
)

// Submitter enqueues work for the session runtime.
type Submitter interface {
	Submit(source, input string) (*gateway.Turn, error)
	Reset(source string) (*gateway.Turn, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type outgoing struct {
	text     string
	markdown bool
}

// Adapter bridges one Telegram chat to the simulated terminal. Messages
// become terminal input and terminal output is sent back as messages.
type Adapter struct {
	bot     *tgbotapi.BotAPI
	send    sender
	gateway Submitter
	retry   *delivery.RetryPolicy
	outbox  chan outgoing

	mu     sync.Mutex
	chatID int64
}

// New creates a Telegram adapter. With chatID zero the adapter binds to the
// first chat that writes to the bot.
func New(token string, chatID int64, gw Submitter) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	a := newAdapter(bot, chatID, gw)
	a.bot = bot
	return a, nil
}

func newAdapter(send sender, chatID int64, gw Submitter) *Adapter {
	return &Adapter{
		send:    send,
		gateway: gw,
		retry:   delivery.DefaultRetryPolicy(),
		outbox:  make(chan outgoing, outboxSize),
		chatID:  chatID,
	}
}

// Start long-polls for updates and delivers terminal output until ctx is
// done.
func (a *Adapter) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := a.bot.GetUpdatesChan(u)
	slog.Info("telegram adapter started", "bot", a.bot.Self.UserName)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(update.Message)
		case out := <-a.outbox:
			a.deliver(ctx, out)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return nil
		}
	}
}

// accept reports whether msg comes from the bound chat, binding to it if
// none is bound yet.
func (a *Adapter) accept(msg *tgbotapi.Message) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.chatID == 0 {
		a.chatID = msg.Chat.ID
		slog.Info("telegram chat bound", "chat_id", a.chatID)
	}
	return msg.Chat.ID == a.chatID
}

func (a *Adapter) chat() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chatID
}

func (a *Adapter) handleMessage(msg *tgbotapi.Message) {
	if msg.Chat == nil || !a.accept(msg) {
		slog.Warn("ignoring message from unbound chat")
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			a.enqueue("Simulated terminal ready. Send commands as plain messages, e.g. ls or claude \"describe this project\". /reset starts over.", false)
			a.reset()
			return
		case "reset":
			a.reset()
			return
		}
	}

	if _, err := a.gateway.Submit(source, msg.Text); err != nil {
		slog.Error("telegram submit failed", "error", err)
		a.enqueue("The terminal is busy, try again in a moment.", false)
	}
}

func (a *Adapter) reset() {
	if _, err := a.gateway.Reset(source); err != nil {
		slog.Error("telegram reset failed", "error", err)
	}
}

// Write implements types.TerminalSink. The user's own input is not echoed.
func (a *Adapter) Write(text string, lineType types.LineType) {
	if a.chat() == 0 || strings.TrimSpace(text) == "" {
		return
	}
	switch lineType {
	case types.LineInput:
		return
	case types.LineError:
		a.enqueue("⚠️ "+text, false)
	case types.LineAIResponse:
		a.enqueue(text, true)
	default:
		a.enqueue(text, false)
	}
}

func (a *Adapter) enqueue(text string, markdown bool) {
	select {
	case a.outbox <- outgoing{text: text, markdown: markdown}:
	default:
		slog.Warn("telegram outbox full, dropping message", "length", len(text))
	}
}

func (a *Adapter) deliver(ctx context.Context, out outgoing) {
	chatID := a.chat()
	for _, part := range splitMessage(out.text) {
		err := a.retry.Execute(ctx, func() error {
			return a.sendPart(chatID, part, out.markdown)
		})
		if err != nil {
			slog.Error("telegram send failed", "chat_id", chatID, "error", err)
			return
		}
	}
}

// sendPart tries Markdown first when asked and falls back to plain text.
func (a *Adapter) sendPart(chatID int64, text string, markdown bool) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := a.send.Send(msg); err == nil {
			return nil
		}
		msg.ParseMode = ""
	}
	_, err := a.send.Send(msg)
	return classify(err)
}

// classify marks client errors other than rate limiting as permanent.
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
		return delivery.Permanent(err)
	}
	return err
}

// splitMessage cuts text into chunks Telegram accepts, preferring line
// breaks and never splitting a rune.
func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > maxTelegramMessage {
		end := maxTelegramMessage
		if nl := strings.LastIndexByte(text[:end], '\n'); nl > maxTelegramMessage/2 {
			end = nl + 1
		} else {
			for end > 0 && !utf8.RuneStart(text[end]) {
				end--
			}
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
