package mail

type FailureAlertData struct {
	ID           string
	To           string
	From         string
	ContentSID   string
	ErrorCode    int
	ErrorMessage string
	OccurredAt   string
}

type AlertSender struct {
	From      string
	Recipient string
	dialer    Dialer
}
