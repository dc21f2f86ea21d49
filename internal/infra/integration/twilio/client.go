package twilio

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	twiliogo "github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// MessageCreator is the slice of the Twilio v2010 API the notifier uses.
// *openapi.ApiService satisfies it.
type MessageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type Client struct {
	api    MessageCreator
	logger *zap.Logger
}

type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient replaces the transport used by the SDK.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func NewClient(accountSID, authToken string, logger *zap.Logger, opts ...Option) *Client {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	params := twiliogo.ClientParams{
		Username: accountSID,
		Password: authToken,
	}

	if o.httpClient != nil {
		base := &client.Client{
			Credentials: client.NewCredentials(accountSID, authToken),
			HTTPClient:  o.httpClient,
		}
		base.SetAccountSid(accountSID)
		params = twiliogo.ClientParams{Client: base}
	}

	rest := twiliogo.NewRestClientWithParams(params)
	return NewClientWithAPI(rest.Api, logger)
}

func NewClientWithAPI(api MessageCreator, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, logger: logger}
}

// SendTemplate creates one outbound message. SDK errors are returned as-is so
// callers can surface the vendor message.
func (c *Client) SendTemplate(input SendTemplateInput) (*SendTemplateOutput, error) {
	params, err := buildParams(input)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.CreateMessage(params)
	if err != nil {
		fields := []zap.Field{zap.String("to", input.To), zap.Error(err)}
		var restErr *client.TwilioRestError
		if errors.As(err, &restErr) {
			fields = append(fields, zap.Int("twilio_code", restErr.Code), zap.Int("twilio_status", restErr.Status))
		}
		c.logger.Error("❌ WhatsApp: create message failed", fields...)
		return nil, err
	}

	out := &SendTemplateOutput{}
	if resp != nil {
		if resp.Sid != nil {
			out.MessageSID = *resp.Sid
		}
		if resp.Status != nil {
			out.Status = *resp.Status
		}
	}

	c.logger.Info("✅ WhatsApp: message created",
		zap.String("to", input.To),
		zap.String("message_sid", out.MessageSID),
		zap.String("status", out.Status))

	return out, nil
}

func buildParams(input SendTemplateInput) (*openapi.CreateMessageParams, error) {
	params := &openapi.CreateMessageParams{}
	params.SetTo(input.To)
	params.SetFrom(input.From)
	params.SetContentSid(input.ContentSID)

	if len(input.Variables) > 0 {
		vars, err := json.Marshal(input.Variables)
		if err != nil {
			return nil, fmt.Errorf("encode content variables: %w", err)
		}
		params.SetContentVariables(string(vars))
	}

	return params, nil
}
