package web

import (
	"net/http"
	"strings"
)

// interpretOrder handles POST /api/intake/interpret: sends natural-language
// order text to the AI agent and returns a draft or a clarification question.
// The draft is a proposal only; the operator submits it through POST
// /api/sales after review.
func (h *Handler) interpretOrder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		writeError(w, r, "order text is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.InterpretOrder(r.Context(), payload.Text)
	if err != nil {
		writeError(w, r, err.Error(), "INTAKE_FAILED", http.StatusBadGateway)
		return
	}

	type response struct {
		IsClarification bool   `json:"is_clarification"`
		Clarification   string `json:"clarification,omitempty"`
		Draft           any    `json:"draft,omitempty"`
	}
	if result.IsClarification {
		writeJSON(w, response{IsClarification: true, Clarification: result.ClarificationMessage})
		return
	}
	writeJSON(w, response{Draft: result.Draft})
}
