// Package bot maps chat commands to key store operations.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/keybot/core/logger"
	tghelpers "github.com/m3rciful/keybot/core/telegram/helpers"
	"github.com/m3rciful/keybot/keys"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// storeTimeout bounds every key store call so a hanging remote cannot pin
// an update handler forever.
const storeTimeout = 10 * time.Second

const (
	msgStart = "🔐 Привет! Я выдаю персональные одноразовые ключи доступа.\n" +
		"Напиши /getkey, чтобы получить свой ключ."
	msgAlreadyHasKey = "У тебя уже есть активный ключ. Новый можно получить после его использования."
	msgStoreFailure  = "⚠️ Не получилось выдать ключ. Попробуй ещё раз чуть позже."

	msgKeyIssuedFmt = "🔑 Твой персональный одноразовый ключ:\n\n<code>%s</code>\n\n" +
		"Привязан к: @%s (ID: %d)\n" +
		"Сохрани его — он больше не будет показан!"
	msgStatsFmt = "📊 Ключей всего: %d\nНе использовано: %d"
)

// Handlers holds the command handlers and their dependencies.
type Handlers struct {
	store keys.Store
}

// NewHandlers wires the command handlers to a key store.
func NewHandlers(store keys.Store) *Handlers {
	return &Handlers{store: store}
}

// Start greets the user and points at /getkey. No side effects.
func (h *Handlers) Start(c tele.Context) error {
	tghelpers.WithHandler(c, "start")
	return tghelpers.SendText(c, msgStart)
}

// GetKey issues a one-time key unless the user already holds an unused
// one. The check and the insert are two separate store calls; a user
// firing /getkey twice in the same instant can slip through with two
// keys. Accepted, the consumer side tolerates extras.
func (h *Handlers) GetKey(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "getkey")

	sender := c.Sender()
	if sender == nil {
		return nil
	}

	reply, err := h.issueKey(ctx, sender.ID, senderName(sender))
	if err != nil {
		logger.KEYS.LogAttrs(ctx, slog.LevelError, "key issue failed",
			slog.String("event", "issue"),
			slog.String("status", "fail"),
			slog.Int64("user_id", sender.ID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, msgStoreFailure)
	}
	return tghelpers.SendHTML(c, reply)
}

// senderName returns the display name the key gets bound to. Users
// without a public username get a generated user_<id> placeholder.
func senderName(sender *tele.User) string {
	if sender.Username != "" {
		return sender.Username
	}
	return fmt.Sprintf("user_%d", sender.ID)
}

// issueKey runs the check-then-act sequence and returns the reply text.
func (h *Handlers) issueKey(ctx context.Context, userID int64, username string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	id := fmt.Sprintf("%d", userID)

	active, err := h.store.HasActiveKey(ctx, id)
	if err != nil {
		return "", fmt.Errorf("check active key: %w", err)
	}
	if active {
		logger.KEYS.LogAttrs(ctx, slog.LevelDebug, "active key present",
			slog.String("event", "issue"),
			slog.String("status", "skip"),
			slog.Int64("user_id", userID),
		)
		return msgAlreadyHasKey, nil
	}

	key := keys.Generate()
	if err := h.store.Insert(ctx, key, id); err != nil {
		return "", fmt.Errorf("insert key: %w", err)
	}

	logger.KEYS.LogAttrs(ctx, slog.LevelInfo, "key issued",
		slog.String("event", "issue"),
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("username", logger.SanitizeLimit(username, 64)),
	)
	return fmt.Sprintf(msgKeyIssuedFmt, key, username, userID), nil
}

// Stats reports key counts to the admin.
func (h *Handlers) Stats(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "stats")
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	total, err := h.store.Count(ctx, false)
	if err != nil {
		return tghelpers.SendText(c, msgStoreFailure)
	}
	unused, err := h.store.Count(ctx, true)
	if err != nil {
		return tghelpers.SendText(c, msgStoreFailure)
	}

	logger.KEYS.LogAttrs(ctx, slog.LevelDebug, "stats requested",
		slog.String("event", "stats"),
		slog.Int("keys_total", total),
		slog.Int("keys_unused", unused),
	)
	return tghelpers.SendText(c, fmt.Sprintf(msgStatsFmt, total, unused))
}
