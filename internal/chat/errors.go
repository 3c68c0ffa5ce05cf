package chat

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Kind classifies where an exchange failed.
type Kind int

const (
	// KindSerialization means the request body could not be encoded.
	KindSerialization Kind = iota + 1
	// KindRequest means the HTTP call itself failed (DNS, TLS, connect).
	KindRequest
	// KindResponse means the endpoint answered with a non-200 status.
	KindResponse
	// KindReadResponse means the response body could not be read in full.
	KindReadResponse
	// KindParseJSON means the response body was not valid JSON.
	KindParseJSON
	// KindNoMessageFound means the body lacked choices[0].message.content.
	KindNoMessageFound
)

// String returns a short lowercase name, used for logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindSerialization:
		return "serialization"
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindReadResponse:
		return "read_response"
	case KindParseJSON:
		return "parse_json"
	case KindNoMessageFound:
		return "no_message_found"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ErrNoMessageFound is the cause carried by KindNoMessageFound errors.
var ErrNoMessageFound = errors.New("no message found in response")

// ExchangeError is returned by ExecuteTurn. Status is set only for KindResponse;
// Err is set for every kind except KindResponse.
type ExchangeError struct {
	Kind   Kind
	Status int
	Err    error
}

func serializationError(err error) *ExchangeError {
	return &ExchangeError{Kind: KindSerialization, Err: err}
}

func requestError(err error) *ExchangeError {
	return &ExchangeError{Kind: KindRequest, Err: err}
}

func responseError(status int) *ExchangeError {
	return &ExchangeError{Kind: KindResponse, Status: status}
}

func readResponseError(err error) *ExchangeError {
	return &ExchangeError{Kind: KindReadResponse, Err: err}
}

func parseJSONError(err error) *ExchangeError {
	return &ExchangeError{Kind: KindParseJSON, Err: err}
}

func noMessageFoundError() *ExchangeError {
	return &ExchangeError{Kind: KindNoMessageFound, Err: ErrNoMessageFound}
}

// Error renders the one-line, human-readable description shown to the user.
func (e *ExchangeError) Error() string {
	switch e.Kind {
	case KindSerialization:
		return fmt.Sprintf("Serialization error: %v", e.Err)
	case KindRequest:
		return fmt.Sprintf("Request error: %v", e.Err)
	case KindResponse:
		if text := http.StatusText(e.Status); text != "" {
			return fmt.Sprintf("Server responded with status: %d %s", e.Status, text)
		}
		return fmt.Sprintf("Server responded with status: %d", e.Status)
	case KindReadResponse:
		return fmt.Sprintf("Error reading response: %v", e.Err)
	case KindParseJSON:
		return fmt.Sprintf("Error parsing JSON: %v", e.Err)
	case KindNoMessageFound:
		return "No message found in response."
	default:
		return fmt.Sprintf("exchange error (%s): %v", e.Kind, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of an ExchangeError anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Kind, true
	}
	return 0, false
}

// StatusOf returns the HTTP status carried by a KindResponse error.
func StatusOf(err error) (int, bool) {
	var exErr *ExchangeError
	if errors.As(err, &exErr) && exErr.Kind == KindResponse {
		return exErr.Status, true
	}
	return 0, false
}
