package officina

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc       Service
	store     Store
	messenger Messenger
}

func NewHandler(svc Service, store Store, messenger Messenger) *Handler {
	return &Handler{svc: svc, store: store, messenger: messenger}
}

// twiml is the minimal response envelope Twilio expects from a webhook.
type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// HandleWebhook — inbound WhatsApp message from Twilio.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	from := r.PostFormValue("From")
	body := strings.TrimSpace(r.PostFormValue("Body"))
	sid := r.PostFormValue("MessageSid")

	if from == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}

	log.Printf("[webhook] message from=%s text=%q", from, body)

	reply := h.svc.HandleMessage(r.Context(), from, body, sid)

	out, err := xml.Marshal(twiml{Message: reply})
	if err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	w.Write(out)
}

// ListRequests handles GET /api/requests with optional conjunctive
// category/status filters.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	var f Filter
	if v := r.URL.Query().Get("category"); v != "" {
		f.Category = Category(v)
		if !f.Category.Valid() {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		f.Status = Status(v)
		if !f.Status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
	}

	reqs, err := h.store.List(r.Context(), f)
	if err != nil {
		log.Printf("[admin] list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if reqs == nil {
		reqs = []Request{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

// Reply sends the owner's message to the customer, then marks the
// request replied. A failed send leaves the record untouched.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		writeError(w, http.StatusBadRequest, "missing message")
		return
	}

	req, err := h.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		log.Printf("[admin] get failed id=%d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	ref, err := h.messenger.SendText(r.Context(), req.CustomerID, payload.Message)
	if err != nil {
		log.Printf("[admin] reply send failed id=%d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "message send failed")
		return
	}

	if err := h.store.MarkReplied(r.Context(), id, payload.Message, time.Now().UTC()); err != nil {
		log.Printf("[admin] mark replied failed id=%d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"messageRef": ref,
	})
}

// Complete sends the fixed pickup message, then marks the request
// completed. Same contract as Reply on failure.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	req, err := h.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		log.Printf("[admin] get failed id=%d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	if _, err := h.messenger.SendText(r.Context(), req.CustomerID, PickupMessage); err != nil {
		log.Printf("[admin] pickup send failed id=%d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "message send failed")
		return
	}

	if err := h.store.MarkCompleted(r.Context(), id, time.Now().UTC()); err != nil {
		log.Printf("[admin] mark completed failed id=%d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.Count(r.Context())
	if err != nil {
		log.Printf("[admin] count failed: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "online",
		"service":             "Workshop WhatsApp Bot",
		"totalRequests":       total,
		"activeConversations": h.svc.ActiveConversations(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
