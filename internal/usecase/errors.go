package usecase

import (
	"errors"

	"github.com/twilio/twilio-go/client"
)

// DispatchError reports a failed outbound call. For Twilio REST errors
// Error() is the API's message field; otherwise it is the SDK error text.
type DispatchError struct {
	Code    int // Twilio error code, 0 when the call never got an API answer
	Status  int // HTTP status from Twilio, 0 when unknown
	Message string
	Err     error
}

func (e *DispatchError) Error() string {
	return e.Message
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func newDispatchError(err error) *DispatchError {
	de := &DispatchError{Message: err.Error(), Err: err}

	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		de.Code = restErr.Code
		de.Status = restErr.Status
		if restErr.Message != "" {
			de.Message = restErr.Message
		}
	}

	return de
}

func IsDispatchError(err error) bool {
	var de *DispatchError
	return errors.As(err, &de)
}
