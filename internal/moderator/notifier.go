package moderator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taskbridge/chat-moderation/internal/messaging"
)

// NATSNotifier publishes admin alerts on the moderation.admin_alert
// subject for dashboard tooling to consume.
type NATSNotifier struct {
	client *messaging.NATSClient
}

// NewNATSNotifier creates a notifier backed by the given NATS client.
func NewNATSNotifier(client *messaging.NATSClient) *NATSNotifier {
	return &NATSNotifier{client: client}
}

// NotifyAdmin publishes the alert as JSON.
func (n *NATSNotifier) NotifyAdmin(_ context.Context, alert AdminAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("moderator: marshal admin alert: %w", err)
	}
	if err := n.client.PublishAdminAlert(data); err != nil {
		return fmt.Errorf("moderator: publish admin alert: %w", err)
	}
	return nil
}
