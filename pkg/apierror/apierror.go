package apierror

import "fmt"

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	NeedsAuth  bool   `json:"needsAuth,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// NeedsReauth marks an error whose only remedy is capturing a fresh remote
// session, so clients can route the user straight to the capture flow.
func NeedsReauth(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, NeedsAuth: true, HTTPStatus: status}
}
