package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// MaxPayloadBytes bounds a send request body.
const MaxPayloadBytes = 1 << 20

// Store is the storage behind a Handler. storage.Storage implements it.
type Store interface {
	Put(ctx context.Context, payload []byte) (string, error)
	Take(ctx context.Context, id string) ([]byte, error)
}

// Handler serves the message store protocol over a Store:
//
//	POST /send          {"encrypted_payload":{"visual_data":"..."}} -> {"msg_id":"..."}
//	GET  /receive/{id}  -> {"visual_data":"..."}, 404 once consumed
type Handler struct {
	store  Store
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewHandler creates a Handler. A nil logger discards.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{store: store, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /send", h.send)
	h.mux.HandleFunc("GET /receive/{id}", h.receive)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxPayloadBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	data := strings.TrimSpace(req.EncryptedPayload.VisualData)
	if data == "" {
		writeError(w, http.StatusBadRequest, "encrypted_payload.visual_data is required")
		return
	}

	id, err := h.store.Put(r.Context(), []byte(data))
	if err != nil {
		h.logger.Error("store put failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	h.logger.Info("message stored", "id", id, "bytes", len(data))
	writeJSON(w, http.StatusOK, sendResponse{MsgID: id})
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := h.store.Take(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "message not found")
		return
	case err != nil:
		h.logger.Error("store take failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read message")
		return
	}

	h.logger.Info("message delivered", "id", id)
	writeJSON(w, http.StatusOK, payload{VisualData: string(data)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
