// Package server exposes the /chat and /health HTTP surface the client talks to.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Completer produces one assistant reply for one user message.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// Handler serves the chat relay endpoints. A nil completer means the upstream
// credentials were never configured; /chat then reports a configuration error.
type Handler struct {
	completer Completer
}

// New creates the chat handler.
func New(completer Completer) *Handler {
	return &Handler{completer: completer}
}

// RegisterRoutes wires the chat endpoints onto r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Post("/chat", h.handleChat)
}

// NewRouter assembles the full middleware stack and routes.
func NewRouter(completer Completer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	New(completer).RegisterRoutes(r)
	return r
}

// chatPayload is the wire envelope for both outcomes of /chat.
type chatPayload struct {
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.completer == nil {
		respondError(w, http.StatusInternalServerError, "Server configuration error")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		respondError(w, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	reply, err := h.completer.Complete(r.Context(), message)
	if err != nil {
		log.Printf("[server] upstream request failed: %v", err)
		respondError(w, upstreamStatus(err), "API request failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, chatPayload{Status: "success", Response: reply})
}

// cors allows browser clients on any origin to call the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[server] encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, chatPayload{Status: "error", Message: message})
}
