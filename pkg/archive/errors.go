package archive

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is matching across the taxonomy.
var (
	ErrConfiguration = errors.New("archive configuration error")
	ErrTransport     = errors.New("archive transport error")
	ErrProtocol      = errors.New("archive protocol error")
	ErrValidation    = errors.New("archive validation error")
)

// ConfigurationError reports a missing or unusable credential. It is raised before any network I/O.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "archive configuration: " + e.Reason }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// TransportKind sub-classifies transport failures for user messaging.
type TransportKind string

const (
	KindUnauthorized TransportKind = "unauthorized"
	KindRateLimited  TransportKind = "rate_limited"
	KindForbidden    TransportKind = "forbidden"
	KindGeneric      TransportKind = "generic"
)

// TransportError is a network failure (StatusCode 0) or a non-2xx response.
type TransportError struct {
	StatusCode int
	Kind       TransportKind
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive transport (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("archive transport: status %d (%s) body: %s", e.StatusCode, e.Kind, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func classifyStatus(code int) TransportKind {
	switch code {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusForbidden:
		return KindForbidden
	default:
		return KindGeneric
	}
}

// ProtocolError reports a response that does not have the expected envelope shape.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive protocol: %s: %v", e.Reason, e.Err)
	}
	return "archive protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// ValidationError reports an out-of-range request argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("archive validation: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func validateMonth(year, month int) error {
	if year < 1851 || year > 9999 {
		return &ValidationError{Field: "year", Reason: fmt.Sprintf("%d is out of range", year)}
	}
	if month < 1 || month > 12 {
		return &ValidationError{Field: "month", Reason: fmt.Sprintf("%d is out of range [1,12]", month)}
	}
	return nil
}

// Describe turns an archive error into the message shown to readers.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var te *TransportError
	if errors.As(err, &te) {
		switch te.Kind {
		case KindUnauthorized:
			return "Invalid API key or unauthorized access. Please check your NY Times API key."
		case KindRateLimited:
			return "Rate limit exceeded. Please wait before making more requests."
		case KindForbidden:
			return "Access forbidden. Please ensure the Archive API is enabled in your NY Times developer account."
		}
		return "Failed to fetch news from NY Times API: " + err.Error()
	}

	switch {
	case errors.Is(err, ErrConfiguration):
		return "NY Times API key is required for real API calls."
	case errors.Is(err, ErrProtocol):
		return "Invalid API response structure."
	}
	return err.Error()
}
