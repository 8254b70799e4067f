package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"foodgram/internal/config"
	"foodgram/internal/metrics"
	"foodgram/internal/shopping"
	"foodgram/internal/user"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	callbackClearYes = "clear|yes"
	callbackClearNo  = "clear|no"

	handleTimeout = time.Minute
)

const helpText = `🛒 *Foodgram shopping list*

/link <token> - connect this chat to your Foodgram account
/cart - get your shopping list as a PDF
/list - get your shopping list as text
/clear - empty your shopping cart
/metrics - rendering usage and health`

const notLinkedText = "🔗 This chat is not linked to a Foodgram account yet.\nSend /link followed by your API token."

// Sender is the part of the Telegram API the bot talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Users resolves Telegram accounts to Foodgram users.
type Users interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*user.User, error)
	Get(ctx context.Context, id int64) (*user.User, error)
	LinkTelegram(ctx context.Context, id, telegramID int64) error
}

// Cart empties shopping carts.
type Cart interface {
	Clear(ctx context.Context, userID int64) (int64, error)
}

// Lists builds shopping lists.
type Lists interface {
	Aggregate(ctx context.Context, userID int64) ([]shopping.Item, error)
	Download(ctx context.Context, userID int64) (*shopping.Document, error)
}

// TokenVerifier turns an API token into a user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (int64, error)
}

// Deps are the collaborators the bot is built on. Metrics may be nil.
type Deps struct {
	Users   Users
	Cart    Cart
	Lists   Lists
	Tokens  TokenVerifier
	Metrics *metrics.Store
}

// Bot wraps the Telegram API and the shopping list operations.
type Bot struct {
	api     Sender
	users   Users
	cart    Cart
	lists   Lists
	tokens  TokenVerifier
	metrics *metrics.Store
	allowed map[int64]struct{}
	logger  *zap.Logger

	wg sync.WaitGroup
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, deps Deps, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("description", resp.Description))

	return New(api, cfg.TelegramAllowedUserIDs, deps, logger), nil
}

// New creates a bot on top of an existing API client. An empty allow list
// admits every Telegram user.
func New(api Sender, allowedIDs []int64, deps Deps, logger *zap.Logger) *Bot {
	allowed := make(map[int64]struct{}, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = struct{}{}
	}
	return &Bot{
		api:     api,
		users:   deps.Users,
		cart:    deps.Cart,
		lists:   deps.Lists,
		tokens:  deps.Tokens,
		metrics: deps.Metrics,
		allowed: allowed,
		logger:  logger,
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Wait blocks until every update being processed has been handled.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()
		b.HandleUpdate(ctx, update)
	}()
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if b.isAllowed(update.CallbackQuery.From) {
			b.handleCallbackQuery(ctx, update.CallbackQuery)
		}
	case update.Message != nil:
		if !b.isAllowed(update.Message.From) {
			return
		}
		b.processMessage(ctx, update.Message)
	}
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if len(b.allowed) == 0 {
		return true
	}
	if _, ok := b.allowed[from.ID]; ok {
		return true
	}
	b.logger.Warn("unauthorized access attempt", zap.Int64("telegram_id", from.ID), zap.String("username", from.UserName))
	return false
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "link":
		b.handleLink(ctx, msg)
	case "cart":
		b.withUser(ctx, msg, b.handleCart)
	case "list":
		b.withUser(ctx, msg, b.handleList)
	case "clear":
		b.withUser(ctx, msg, b.handleClearRequest)
	case "metrics":
		b.withUser(ctx, msg, b.handleMetricsCommand)
	default:
		b.sendMarkdown(msg.Chat.ID, helpText)
	}
}

// withUser resolves the sender to a linked account before running fn.
func (b *Bot) withUser(ctx context.Context, msg *tgbotapi.Message, fn func(context.Context, int64, int64)) {
	u, err := b.users.GetByTelegramID(ctx, msg.From.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			b.sendText(msg.Chat.ID, notLinkedText)
			return
		}
		b.fail(msg.Chat.ID, "looking up your account", err)
		return
	}
	fn(ctx, msg.Chat.ID, u.ID)
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) {
	token := strings.TrimSpace(msg.CommandArguments())
	if token == "" {
		b.sendText(msg.Chat.ID, "Usage: /link <token>")
		return
	}

	userID, err := b.tokens.Verify(ctx, token)
	if err != nil {
		b.sendText(msg.Chat.ID, "❌ That token is not valid. Log in again and copy a fresh one.")
		return
	}

	if err := b.users.LinkTelegram(ctx, userID, msg.From.ID); err != nil {
		switch {
		case errors.Is(err, user.ErrTelegramLinked):
			b.sendText(msg.Chat.ID, "❌ This Telegram account is already linked to another user.")
			return
		case errors.Is(err, user.ErrNotFound):
			b.sendText(msg.Chat.ID, "❌ The account behind that token no longer exists.")
			return
		}
		b.fail(msg.Chat.ID, "linking your account", err)
		return
	}

	u, err := b.users.Get(ctx, userID)
	if err != nil {
		b.fail(msg.Chat.ID, "linking your account", err)
		return
	}
	b.logger.Info("telegram account linked", zap.Int64("user_id", userID), zap.Int64("telegram_id", msg.From.ID))
	b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Linked to %s.", u.Username))
}

func (b *Bot) handleCart(ctx context.Context, chatID, userID int64) {
	start := time.Now()
	doc, err := b.lists.Download(ctx, userID)
	if err != nil {
		b.fail(chatID, "building your shopping list", err)
		return
	}

	data, err := io.ReadAll(doc.Content)
	if err != nil {
		b.fail(chatID, "building your shopping list", err)
		return
	}

	if b.metrics != nil {
		if err := b.metrics.Record(ctx, metrics.FromDocument(metrics.ChannelTelegram, userID, doc, time.Since(start))); err != nil {
			b.logger.Warn("failed to record render metric", zap.Error(err))
		}
	}

	upload := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.Filename, Bytes: data})
	if _, err := b.api.Send(upload); err != nil {
		b.logger.Error("failed to send shopping list", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (b *Bot) handleList(ctx context.Context, chatID, userID int64) {
	items, err := b.lists.Aggregate(ctx, userID)
	if err != nil {
		b.fail(chatID, "building your shopping list", err)
		return
	}
	b.sendText(chatID, formatList(items))
}

func formatList(items []shopping.Item) string {
	if len(items) == 0 {
		return shopping.EmptyText
	}
	var sb strings.Builder
	sb.WriteString(shopping.Heading)
	for _, line := range shopping.FormatList(items) {
		sb.WriteString("\n")
		sb.WriteString(line)
	}
	return sb.String()
}

func (b *Bot) handleClearRequest(_ context.Context, chatID, _ int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Empty cart", callbackClearYes),
			tgbotapi.NewInlineKeyboardButtonData("Keep it", callbackClearNo),
		),
	)
	msg := tgbotapi.NewMessage(chatID, "Remove every recipe from your shopping cart?")
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Error(err))
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}
	if query.Message == nil {
		return
	}
	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID

	var text string
	switch query.Data {
	case callbackClearYes:
		u, err := b.users.GetByTelegramID(ctx, query.From.ID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				text = notLinkedText
				break
			}
			b.fail(chatID, "looking up your account", err)
			return
		}
		n, err := b.cart.Clear(ctx, u.ID)
		if err != nil {
			b.fail(chatID, "emptying your cart", err)
			return
		}
		text = fmt.Sprintf("🗑 Removed %d recipe(s) from your cart.", n)
	case callbackClearNo:
		text = "Your cart was left untouched."
	default:
		return
	}

	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.logger.Error("failed to edit message", zap.Error(err))
	}
}

// handleMetricsCommand reports service-wide usage to a linked account.
func (b *Bot) handleMetricsCommand(ctx context.Context, chatID, _ int64) {
	if b.metrics == nil {
		b.sendText(chatID, "Metrics are not enabled.")
		return
	}

	usage, err := b.metrics.GetDailyUsage(ctx, 7)
	if err != nil {
		b.fail(chatID, "fetching metrics", err)
		return
	}

	health := metrics.Snapshot("")

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Shopping lists rendered*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d lists, %d items, %d pages\n", d.Date, d.Renders, d.Items, d.Pages))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))

	b.sendMarkdown(chatID, sb.String())
}

func (b *Bot) fail(chatID int64, action string, err error) {
	b.logger.Error("telegram command failed", zap.String("action", action), zap.Error(err))
	b.sendText(chatID, fmt.Sprintf("❌ Something went wrong while %s. Please try again later.", action))
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("failed to send message", zap.Error(err))
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Error(err))
	}
}
