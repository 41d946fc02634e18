package officina

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"officina-bot/internal/push"
)

type mockMessenger struct {
	sentTo   []string
	sentBody []string
	ref      string
	err      error
}

func (m *mockMessenger) SendText(_ context.Context, to, body string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sentTo = append(m.sentTo, to)
	m.sentBody = append(m.sentBody, body)
	return m.ref, nil
}

func newTestServer(t *testing.T) (*chi.Mux, *MemStore, *mockMessenger, Service) {
	t.Helper()
	store := NewMemStore()
	messenger := &mockMessenger{ref: "SM-ref-1"}
	svc := NewEngine(store, push.Noop{})
	h := NewHandler(svc, store, messenger)

	r := chi.NewRouter()
	RegisterRoutes(r, h)
	return r, store, messenger, svc
}

func seedRequest(t *testing.T, store *MemStore, category Category) int64 {
	t.Helper()
	id, err := store.Insert(context.Background(), &Request{
		CustomerID:         "whatsapp:+393331234567",
		Vehicle:            "Fiat Panda",
		IssueDescription:   issueOptions["1"],
		IssueCode:          "1",
		UrgencyDescription: strPtr(UrgencyCarWontStart),
		Category:           category,
		Status:             StatusNew,
		CreatedAt:          time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookReturnsTwiML(t *testing.T) {
	r, _, _, _ := newTestServer(t)

	form := url.Values{}
	form.Set("From", "whatsapp:+393331234567")
	form.Set("Body", "  hi  ")
	form.Set("MessageSid", "SM0001")

	w := postForm(r, "/webhook/whatsapp", form)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/xml", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), "<Response><Message>")
	require.Contains(t, w.Body.String(), "What car do you have?")
}

func TestWebhookMissingFrom(t *testing.T) {
	r, _, _, _ := newTestServer(t)

	form := url.Values{}
	form.Set("Body", "hi")

	w := postForm(r, "/webhook/whatsapp", form)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRequestsFilters(t *testing.T) {
	r, store, _, _ := newTestServer(t)
	seedRequest(t, store, CategoryUrgent)
	seedRequest(t, store, CategoryQuote)

	req := httptest.NewRequest(http.MethodGet, "/api/requests?category=URGENT&status=NEW", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out []Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, CategoryUrgent, out[0].Category)
}

func TestListRequestsEmptyIsArray(t *testing.T) {
	r, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]\n", w.Body.String())
}

func TestListRequestsUnknownCategory(t *testing.T) {
	r, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/requests?category=URGENTE", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplySuccess(t *testing.T) {
	r, store, messenger, _ := newTestServer(t)
	id := seedRequest(t, store, CategoryUrgent)

	w := postJSON(r, "/api/requests/1/reply", `{"message":"bring it in tomorrow"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Success    bool   `json:"success"`
		MessageRef string `json:"messageRef"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.True(t, out.Success)
	require.Equal(t, "SM-ref-1", out.MessageRef)

	require.Equal(t, []string{"whatsapp:+393331234567"}, messenger.sentTo)
	require.Equal(t, []string{"bring it in tomorrow"}, messenger.sentBody)

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusReplied, got.Status)
	require.NotNil(t, got.Reply)
	require.Equal(t, "bring it in tomorrow", *got.Reply)
}

func TestReplyNotFound(t *testing.T) {
	r, _, messenger, _ := newTestServer(t)

	w := postJSON(r, "/api/requests/42/reply", `{"message":"hello"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Empty(t, messenger.sentTo)
}

func TestReplyMissingMessage(t *testing.T) {
	r, store, messenger, _ := newTestServer(t)
	seedRequest(t, store, CategoryUrgent)

	w := postJSON(r, "/api/requests/1/reply", `{"message":"  "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, messenger.sentTo)
}

func TestReplyTransportFailureLeavesRecord(t *testing.T) {
	r, store, messenger, _ := newTestServer(t)
	messenger.err = errors.New("twilio down")
	id := seedRequest(t, store, CategoryUrgent)

	w := postJSON(r, "/api/requests/1/reply", `{"message":"hello"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusNew, got.Status)
	require.Nil(t, got.Reply)
}

func TestCompleteSuccess(t *testing.T) {
	r, store, messenger, _ := newTestServer(t)
	id := seedRequest(t, store, CategoryAppointment)

	w := postJSON(r, "/api/requests/1/complete", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.True(t, out.Success)

	require.Equal(t, []string{PickupMessage}, messenger.sentBody)

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestCompleteNotFound(t *testing.T) {
	r, _, messenger, _ := newTestServer(t)

	w := postJSON(r, "/api/requests/42/complete", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Empty(t, messenger.sentTo)
}

func TestCompleteTransportFailureLeavesRecord(t *testing.T) {
	r, store, messenger, _ := newTestServer(t)
	messenger.err = errors.New("twilio down")
	id := seedRequest(t, store, CategoryAppointment)

	w := postJSON(r, "/api/requests/1/complete", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusNew, got.Status)
}

func TestHealth(t *testing.T) {
	r, store, _, svc := newTestServer(t)
	seedRequest(t, store, CategoryUrgent)

	// one conversation mid-flow
	svc.HandleMessage(context.Background(), "whatsapp:+393339999999", "hi", "SM-h-0")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Status              string `json:"status"`
		Service             string `json:"service"`
		TotalRequests       int    `json:"totalRequests"`
		ActiveConversations int    `json:"activeConversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, "online", out.Status)
	require.Equal(t, 1, out.TotalRequests)
	require.Equal(t, 1, out.ActiveConversations)
}
