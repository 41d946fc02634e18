package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"
)

// FCMClient sends notifications through the Firebase Cloud Messaging
// legacy HTTP endpoint.
type FCMClient struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

func NewFCMClient(serverKey string) *FCMClient {
	return &FCMClient{
		endpoint:  "https://fcm.googleapis.com/fcm/send",
		serverKey: serverKey,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *FCMClient) Send(ctx context.Context, n Notification) error {
	payload := map[string]any{
		"to":       "/topics/" + n.Topic,
		"priority": "high",
		"notification": map[string]any{
			"title": n.Title,
			"body":  n.Body,
			"sound": "default",
			"badge": "1",
		},
		"data": n.Data,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint,
		bytes.NewReader(b),
	)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serverKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.New(
			"fcm error: " +
				resp.Status +
				" body=" + string(respBody),
		)
	}

	return nil
}

// Noop replaces FCM when no server key is configured: notifications are
// logged only.
type Noop struct{}

func (Noop) Send(_ context.Context, n Notification) error {
	log.Printf("[push] simulated notification: %s - %s", n.Title, n.Body)
	return nil
}
