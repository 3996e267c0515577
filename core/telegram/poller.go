package telegram

import (
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// WebhookOptions declares webhook listener and registration settings.
type WebhookOptions struct {
	Listen string
	Port   int
	// PublicURL is the externally reachable endpoint Telegram pushes to.
	PublicURL string
	// Secret is echoed by Telegram in the X-Telegram-Bot-Api-Secret-Token
	// header; telebot rejects requests that do not carry it.
	Secret string
	// DropPending discards updates queued before registration.
	DropPending bool
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// BuildPoller returns a Telebot poller based on provided options. The
// webhook poller registers itself with Telegram when the bot starts.
func BuildPoller(opts PollerOptions) tele.Poller {
	runMode := strings.ToLower(strings.TrimSpace(opts.RunMode))
	if runMode == RunModeWebhook {
		return &tele.Webhook{
			Listen:      fmt.Sprintf("%s:%d", opts.Webhook.Listen, opts.Webhook.Port),
			SecretToken: opts.Webhook.Secret,
			DropUpdates: opts.Webhook.DropPending,
			Endpoint:    &tele.WebhookEndpoint{PublicURL: opts.Webhook.PublicURL},
		}
	}

	timeoutSec := opts.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second}
}
