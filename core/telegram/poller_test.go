package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerWebhook(t *testing.T) {
	poller := BuildPoller(PollerOptions{
		RunMode: "webhook",
		Webhook: WebhookOptions{
			Listen:      "0.0.0.0",
			Port:        10000,
			PublicURL:   "https://bot.example.com/webhook",
			Secret:      "shhh",
			DropPending: true,
		},
	})

	wh, ok := poller.(*tele.Webhook)
	if !ok {
		t.Fatalf("poller type = %T, expected *tele.Webhook", poller)
	}
	if wh.Listen != "0.0.0.0:10000" {
		t.Errorf("listen = %q", wh.Listen)
	}
	if wh.SecretToken != "shhh" {
		t.Errorf("secret token = %q", wh.SecretToken)
	}
	if !wh.DropUpdates {
		t.Error("expected DropUpdates to be set")
	}
	if wh.Endpoint == nil || wh.Endpoint.PublicURL != "https://bot.example.com/webhook" {
		t.Errorf("endpoint = %+v", wh.Endpoint)
	}
}

func TestBuildPollerLongpollDefaults(t *testing.T) {
	poller := BuildPoller(PollerOptions{RunMode: "longpoll"})
	lp, ok := poller.(*tele.LongPoller)
	if !ok {
		t.Fatalf("poller type = %T, expected *tele.LongPoller", poller)
	}
	if lp.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, expected 10s default", lp.Timeout)
	}
}

func TestBuildPollerLongpollCustomTimeout(t *testing.T) {
	poller := BuildPoller(PollerOptions{RunMode: "longpoll", LongPollTimeoutSeconds: 25})
	lp, ok := poller.(*tele.LongPoller)
	if !ok {
		t.Fatalf("poller type = %T, expected *tele.LongPoller", poller)
	}
	if lp.Timeout != 25*time.Second {
		t.Errorf("timeout = %v, expected 25s", lp.Timeout)
	}
}

func TestBuildPollerUnknownModeFallsBack(t *testing.T) {
	poller := BuildPoller(PollerOptions{RunMode: ""})
	if _, ok := poller.(*tele.LongPoller); !ok {
		t.Fatalf("poller type = %T, expected *tele.LongPoller fallback", poller)
	}
}
