// Package push sends Web Push notifications to technicians when customer
// messages arrive while their dashboard is closed. Best-effort: failures
// are logged, never propagated to the send path.
package push

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/logger"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/storage"
)

// Subscription is the browser-side push subscription.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Notifier delivers Web Push messages to a technician's subscribed
// browsers. With nil VAPID options all methods are no-ops (push disabled).
type Notifier struct {
	store storage.Store
	vapid *webpush.Options
}

// NewNotifier builds a notifier. keys may be nil to disable sending while
// still accepting subscriptions.
func NewNotifier(store storage.Store, keys *VAPIDKeys) *Notifier {
	n := &Notifier{store: store}
	if keys != nil && keys.PublicKey != "" && keys.PrivateKey != "" {
		n.vapid = &webpush.Options{
			Subscriber:      "sk-electrical-chat",
			VAPIDPublicKey:  keys.PublicKey,
			VAPIDPrivateKey: keys.PrivateKey,
			TTL:             30,
		}
	}
	return n
}

// Subscribe stores a technician's push subscription.
func (n *Notifier) Subscribe(ctx context.Context, technicianID string, sub Subscription) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return n.store.AddSubscription(ctx, technicianID, sub.Endpoint, string(payload))
}

// Unsubscribe removes a subscription by endpoint.
func (n *Notifier) Unsubscribe(ctx context.Context, technicianID, endpoint string) error {
	return n.store.RemoveSubscription(ctx, technicianID, endpoint)
}

type pushPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notify sends a push to every subscription of the technician. Expired
// subscriptions (404/410 from the push service) are pruned.
func (n *Notifier) Notify(ctx context.Context, technicianID, title, body string, data map[string]string) {
	if n.vapid == nil {
		return
	}
	subs, err := n.store.ListSubscriptions(ctx, technicianID)
	if err != nil {
		logger.Errorf("push list subs technician=%s: %v", technicianID, err)
		return
	}
	if len(subs) == 0 {
		return
	}
	msg, err := json.Marshal(pushPayload{Title: title, Body: body, Data: data})
	if err != nil {
		logger.Errorf("push marshal payload: %v", err)
		return
	}
	for _, raw := range subs {
		var sub Subscription
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			logger.Errorf("push bad subscription technician=%s: %v", technicianID, err)
			continue
		}
		ws := &webpush.Subscription{Endpoint: sub.Endpoint}
		ws.Keys.P256dh = sub.Keys.P256dh
		ws.Keys.Auth = sub.Keys.Auth

		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		resp, err := webpush.SendNotificationWithContext(sendCtx, msg, ws, n.vapid)
		cancel()
		if err != nil {
			logger.Errorf("push send technician=%s: %v", technicianID, err)
			continue
		}
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			if err := n.store.RemoveSubscription(ctx, technicianID, sub.Endpoint); err != nil {
				logger.Errorf("push prune sub technician=%s: %v", technicianID, err)
			}
		}
		resp.Body.Close()
	}
}
