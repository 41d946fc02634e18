package officina

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TwilioMessenger sends WhatsApp messages through the Twilio REST API.
type TwilioMessenger struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string // e.g. whatsapp:+14155238886
	client     *http.Client
}

func NewTwilioMessenger(accountSID, authToken, from string) *TwilioMessenger {
	return &TwilioMessenger{
		baseURL:    "https://api.twilio.com/2010-04-01",
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SendText delivers one message and returns the Twilio message SID.
func (t *TwilioMessenger) SendText(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", t.from)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		t.baseURL+"/Accounts/"+t.accountSID+"/Messages.json",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", errors.New(
			"twilio api error: " +
				resp.Status +
				" body=" + string(respBody),
		)
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.SID, nil
}

// ConsoleMessenger logs sends instead of calling Twilio. Used when the
// Twilio credentials are not configured (local development).
type ConsoleMessenger struct{}

func (ConsoleMessenger) SendText(_ context.Context, to, body string) (string, error) {
	ref := uuid.NewString()
	log.Printf("[twilio] simulated send to=%s ref=%s body=%q", to, ref, body)
	return ref, nil
}
