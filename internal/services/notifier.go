package services

import (
	"context"
	"log/slog"

	pubnub "github.com/pubnub/go"
)

// Notifier pushes allocation updates to per-actor channels. Notifications are
// best effort: delivery failures are logged and never fail the operation that
// triggered them. A nil Notifier or nil client is a no-op, which keeps tests
// and offline setups quiet.
type Notifier struct {
	PubNub *pubnub.PubNub
}

func NewNotifier(pn *pubnub.PubNub) *Notifier {
	return &Notifier{PubNub: pn}
}

func (n *Notifier) Notify(ctx context.Context, channel string, message map[string]any) {
	if n == nil || n.PubNub == nil {
		return
	}

	go func() {
		_, _, err := n.PubNub.Publish().
			Channel(channel).
			Message(message).
			Execute()
		if err != nil {
			slog.Warn("notification publish failed", "channel", channel, "error", err)
		}
	}()
}
