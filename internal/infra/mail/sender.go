package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/whatsapp-notifier/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var alertTemplate = template.Must(template.ParseFS(templateFS, "templates/failure_alert.html"))

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewAlertSender(host string, port int, user, password, from, recipient string) *AlertSender {
	return NewAlertSenderWithDialer(gomail.NewDialer(host, port, user, password), from, recipient)
}

func NewAlertSenderWithDialer(d Dialer, from, recipient string) *AlertSender {
	return &AlertSender{
		From:      from,
		Recipient: recipient,
		dialer:    d,
	}
}

// SendFailureAlert mails the operator about a failed dispatch.
func (s *AlertSender) SendFailureAlert(d *entity.Dispatch) error {
	m, err := s.buildFailureAlert(d)
	if err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send alert email via SMTP: %w", err)
	}

	return nil
}

func (s *AlertSender) buildFailureAlert(d *entity.Dispatch) (*gomail.Message, error) {
	occurred := d.CreatedAt
	if d.CompletedAt != nil {
		occurred = *d.CompletedAt
	}

	data := FailureAlertData{
		ID:           d.ID,
		To:           d.To,
		From:         d.From,
		ContentSID:   d.ContentSID,
		ErrorCode:    d.ErrorCode,
		ErrorMessage: d.ErrorMessage,
		OccurredAt:   occurred.Format(time.RFC3339),
	}

	var body bytes.Buffer
	if err := alertTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to render alert template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.Recipient)
	m.SetHeader("Subject", fmt.Sprintf("⚠️ WhatsApp dispatch failed (%s)", d.To))
	m.SetBody("text/html", body.String())

	return m, nil
}
