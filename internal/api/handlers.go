package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/brewchat/brewchat/internal/chat"
)

// maxBodySize caps request bodies; ingestion records can be large but not
// unbounded.
const maxBodySize = 4 << 20 // 4 MiB

type askRequest struct {
	Strategy       string `json:"strategy"`
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
}

type askResponse struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
}

// chatHandler serves the ask and ingest endpoints over the conversations
// facade.
type chatHandler struct {
	conversations *chat.Conversations
	logger        *slog.Logger
}

// ask answers one question with the named strategy. A missing
// conversation_id starts a new conversation; the generated id comes back
// in the response so the client can continue it.
func (h *chatHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "missing_question", "question is required")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.New().String()
	}

	answer, err := h.conversations.Ask(r.Context(), req.Strategy, req.ConversationID, req.Question)
	if err != nil {
		if errors.Is(err, chat.ErrUnknownStrategy) {
			writeError(w, http.StatusBadRequest, "unknown_strategy", err.Error())
			return
		}
		h.logger.Error("answering question", "error", err, "strategy", req.Strategy)
		writeError(w, http.StatusInternalServerError, "chat_failed", "failed to answer question")
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:         answer,
		ConversationID: req.ConversationID,
	})
}

// ingest stores one JSON record in the knowledge base. The body is the
// record itself: a JSON object yields one document, an array one document
// per element. The call is synchronous; a 204 means every document is
// searchable.
func (h *chatHandler) ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}

	if err := h.conversations.Ingest(r.Context(), json.RawMessage(body)); err != nil {
		if r.Context().Err() != nil {
			return
		}
		if errors.Is(err, chat.ErrInvalidRecord) {
			writeError(w, http.StatusBadRequest, "invalid_record", err.Error())
			return
		}
		h.logger.Error("ingesting record", "error", err)
		writeError(w, http.StatusInternalServerError, "ingest_failed", "failed to store record")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
