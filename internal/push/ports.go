package push

import "context"

// Notifier delivers owner-facing push alerts. Delivery is best effort:
// callers log failures and move on.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Notification is one push payload for the owner's app.
type Notification struct {
	Title string
	Body  string
	Topic string
	Data  map[string]string
}
