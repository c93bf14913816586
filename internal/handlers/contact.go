package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// ContactSender forwards a contact-form submission to the operator.
type ContactSender interface {
	SendContactEmail(ctx context.Context, name, email, message string) error
}

type ContactHandler struct {
	sender ContactSender
	logger *slog.Logger
}

func NewContactHandler(sender ContactSender, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{sender: sender, logger: logger}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// Submit serves POST /api/v1/public/contact. Delivery failure is reported in
// the response body rather than as a 5xx: the form keeps working while the
// mail relay is down, and the visitor sees whether their message went out.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Service = strings.TrimSpace(req.Service)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		http.Error(w, "name, email and message required", http.StatusBadRequest)
		return
	}

	message := req.Message
	if req.Service != "" {
		message = "Service of interest: " + req.Service + "\n\n" + message
	}
	if err := h.sender.SendContactEmail(r.Context(), req.Name, req.Email, message); err != nil {
		h.logger.Error("contact email failed", "err", err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
