package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	DispatchStatusPending = "PENDING"
	DispatchStatusSent    = "SENT"
	DispatchStatusFailed  = "FAILED"
)

// Dispatch is one attempt to send the WhatsApp template.
type Dispatch struct {
	ID               string            `json:"id"`
	To               string            `json:"to"`
	From             string            `json:"from"`
	ContentSID       string            `json:"content_sid"`
	ContentVariables map[string]string `json:"content_variables"`
	Status           string            `json:"status"` // PENDING, SENT, FAILED
	MessageSID       string            `json:"message_sid,omitempty"`
	ProviderStatus   string            `json:"provider_status,omitempty"`
	ErrorCode        int               `json:"error_code,omitempty"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

func NewDispatch(to, from, contentSID string, vars map[string]string) *Dispatch {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}

	return &Dispatch{
		ID:               uuid.New().String(),
		To:               to,
		From:             from,
		ContentSID:       contentSID,
		ContentVariables: copied,
		Status:           DispatchStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
}

func (d *Dispatch) MarkSent(messageSID, providerStatus string) {
	now := time.Now().UTC()
	d.Status = DispatchStatusSent
	d.MessageSID = messageSID
	d.ProviderStatus = providerStatus
	d.CompletedAt = &now
}

func (d *Dispatch) MarkFailed(code int, message string) {
	now := time.Now().UTC()
	d.Status = DispatchStatusFailed
	d.ErrorCode = code
	d.ErrorMessage = message
	d.CompletedAt = &now
}

type DispatchRepositoryInterface interface {
	Record(ctx context.Context, d *Dispatch) error
	FindByID(ctx context.Context, id string) (*Dispatch, error)
	ListRecent(ctx context.Context, limit int) ([]*Dispatch, error)
}
