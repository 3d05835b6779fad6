// internal/bot/http.go
package bot

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/common/logger"
	"jira-askbot/internal/common/validation"
)

const maxBodyBytes = 64 << 10

// MessageHandler serves POST /api/v1/messages.
type MessageHandler struct {
	processor *Processor
	logger    logger.Logger
}

func NewMessageHandler(processor *Processor, log logger.Logger) *MessageHandler {
	return &MessageHandler{processor: processor, logger: log}
}

func (h *MessageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, apperrors.NewInvalidInputError("method not allowed"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if result := validation.MessageSchema.ValidateJSON(string(body)); !result.Valid {
		writeError(w, http.StatusBadRequest, apperrors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; ")))
		return
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	reply, err := h.processor.Process(r.Context(), msg)
	if err != nil {
		status := http.StatusInternalServerError
		if apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
			status = http.StatusBadRequest
		}
		h.logger.Warn("message rejected", map[string]interface{}{"error": err.Error()})
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	stdErr, ok := apperrors.As(err)
	if !ok {
		stdErr = apperrors.NewInternalError(err)
	}
	writeJSON(w, status, map[string]interface{}{"error": stdErr})
}
