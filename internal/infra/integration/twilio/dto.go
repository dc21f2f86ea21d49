package twilio

// SendTemplateInput describes a WhatsApp content-template message.
type SendTemplateInput struct {
	To         string            // Ex: "whatsapp:+918688153143"
	From       string            // Ex: "whatsapp:+14155238886"
	ContentSID string            // Ex: "HXb5b62575e6e4ff6129ad7c8efe1f983e"
	Variables  map[string]string // Ex: {"1": "12/1", "2": "3pm"}
}

type SendTemplateOutput struct {
	MessageSID string
	Status     string
}
