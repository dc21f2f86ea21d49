package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/xavierca1/whatsapp-notifier/internal/usecase"
)

type WhatsAppSender interface {
	Execute(ctx context.Context) (*usecase.SendWhatsAppOutput, error)
}

type WhatsAppHandler struct {
	UseCase WhatsAppSender
}

func NewWhatsAppHandler(uc WhatsAppSender) *WhatsAppHandler {
	return &WhatsAppHandler{UseCase: uc}
}

// Handle serves POST /send-whatsapp. The request body is ignored.
func (h *WhatsAppHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if _, err := h.UseCase.Execute(r.Context()); err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeText(w, http.StatusOK, "Message sent")
}

// writeText writes body exactly; http.Error would append a newline.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
