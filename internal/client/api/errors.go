package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx answer from the server. Message is the server's
// {"message"} value, or the status text when the body carries none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	var body struct {
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		msg = strings.TrimSpace(body.Message)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	if msg == "" {
		msg = fmt.Sprintf("http %d", resp.StatusCode())
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}
