// Package telegram is the chat front-end for the support desk. Each
// chat gets its own ticket session; plain messages become queries and
// commands drive the ticket lifecycle.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"agora/internal/config"
	"agora/internal/ticket"
)

type Bot struct {
	bot     *telego.Bot
	handler *th.BotHandler
	tickets *ticket.Manager
	cfg     config.TelegramConfig
	cancel  context.CancelFunc

	mu       sync.Mutex
	sessions map[int64]*ticket.Session
}

func NewBot(cfg config.TelegramConfig, tickets *ticket.Manager) (*Bot, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Bot{
		bot:      bot,
		tickets:  tickets,
		cfg:      cfg,
		sessions: make(map[int64]*ticket.Session),
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	updates, err := b.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		cancel()
		return fmt.Errorf("create handler: %w", err)
	}
	b.handler = handler

	handler.HandleMessage(func(hctx *th.Context, message telego.Message) error {
		b.handleMessage(ctx, message)
		return nil
	})

	go handler.Start()

	<-ctx.Done()
	_ = handler.Stop()
	return nil
}

func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.handler != nil {
		_ = b.handler.Stop()
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg telego.Message) {
	chatID := msg.Chat.ID
	if msg.From == nil {
		return
	}
	userID := msg.From.ID

	// Check allow list
	if len(b.cfg.AllowFrom) > 0 {
		allowed := false
		for _, id := range b.cfg.AllowFrom {
			if id == userID {
				allowed = true
				break
			}
		}
		if !allowed {
			slog.Warn("unauthorized telegram user", "user_id", userID, "chat_id", chatID)
			return
		}
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	sess, err := b.sessionFor(chatID, msg.From)
	if err != nil {
		slog.Error("failed to open ticket session", "chat", chatID, "error", err)
		b.reply(ctx, chatID, "Sorry, I could not open a ticket for you.")
		return
	}

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, chatID, sess, text)
		return
	}

	// Plain text is a support query
	_ = b.sendChatAction(ctx, chatID, "typing")

	answer, err := b.tickets.Ask(ctx, sess, text)
	if err != nil {
		slog.Error("support run failed", "chat", chatID, "ticket", sess.TicketID, "error", err)
		b.reply(ctx, chatID, "Sorry, I encountered an error processing your question.")
		return
	}
	b.reply(ctx, chatID, answer+"\n\nReply /resolve if this helped, or /escalate to hand the ticket to the IT team.")
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, sess *ticket.Session, text string) {
	cmd := strings.Fields(text)[0]

	switch cmd {
	case "/start", "/help":
		b.reply(ctx, chatID, fmt.Sprintf(
			"Hi %s, this is the IT support desk. Ticket %s is open for you.\n\n"+
				"Describe your problem in a message and I will look for a fix.\n"+
				"/status shows your ticket, /resolve closes it, /escalate hands it\n"+
				"to the IT team, /reset starts a fresh ticket.",
			sess.UserName, sess.TicketID))
	case "/status":
		b.reply(ctx, chatID, fmt.Sprintf(
			"Ticket: %s\nStatus: %s\nCategory: %s\nQuery: %s",
			sess.TicketID, sess.Status, orDash(sess.Category), orDash(sess.Query)))
	case "/resolve":
		if err := b.tickets.Resolve(ctx, sess); err != nil {
			slog.Error("resolve failed", "ticket", sess.TicketID, "error", err)
			b.reply(ctx, chatID, "Could not resolve the ticket, please try again.")
			return
		}
		b.reply(ctx, chatID, fmt.Sprintf("Ticket %s resolved. Use /reset to open a new one.", sess.TicketID))
	case "/escalate":
		if err := b.tickets.Escalate(ctx, sess); err != nil {
			slog.Error("escalate failed", "ticket", sess.TicketID, "error", err)
			b.reply(ctx, chatID, "Could not escalate the ticket, please try again.")
			return
		}
		b.reply(ctx, chatID, fmt.Sprintf("Ticket %s escalated to the IT team. You will receive follow-ups by email.", sess.TicketID))
	case "/reset":
		if err := b.tickets.Reset(sess); err != nil {
			slog.Error("reset failed", "ticket", sess.TicketID, "error", err)
			b.reply(ctx, chatID, "Could not reset the ticket, please try again.")
			return
		}
		b.reply(ctx, chatID, fmt.Sprintf("Fresh ticket %s opened.", sess.TicketID))
	default:
		b.reply(ctx, chatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) sessionFor(chatID int64, from *telego.User) (*ticket.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sess, ok := b.sessions[chatID]; ok {
		return sess, nil
	}

	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.Username
	}
	sess, err := b.tickets.Open(name, b.cfg.FallbackEmail)
	if err != nil {
		return nil, err
	}
	b.sessions[chatID] = sess
	return sess, nil
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.SendMessage(ctx, chatID, text); err != nil {
		slog.Error("failed to send telegram message", "chat", chatID, "error", err)
	}
}

func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	chunks := chunkMessage(toTelegramMarkdown(text), 4096)
	for _, chunk := range chunks {
		msg := tu.Message(tu.ID(chatID), chunk)
		_, err := b.bot.SendMessage(ctx, msg)
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

func (b *Bot) sendChatAction(ctx context.Context, chatID int64, action string) error {
	return b.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(chatID), action))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
