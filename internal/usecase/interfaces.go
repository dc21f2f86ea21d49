package usecase

import (
	"context"

	"github.com/xavierca1/whatsapp-notifier/internal/entity"
	"github.com/xavierca1/whatsapp-notifier/internal/infra/integration/twilio"
)

type MessageSender interface {
	SendTemplate(input twilio.SendTemplateInput) (*twilio.SendTemplateOutput, error)
}

// DispatchRecorder persists or forwards the outcome of a dispatch.
type DispatchRecorder interface {
	Record(ctx context.Context, d *entity.Dispatch) error
}

type FailureNotifier interface {
	SendFailureAlert(d *entity.Dispatch) error
}

// Template is the fixed message every request sends.
type Template struct {
	To         string
	From       string
	ContentSID string
	Variables  map[string]string
}

type SendWhatsAppOutput struct {
	DispatchID string `json:"dispatch_id"`
	MessageSID string `json:"message_sid"`
	Status     string `json:"status"`
}
