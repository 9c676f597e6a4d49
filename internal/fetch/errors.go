package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when the endpoint is not an absolute
	// http or https URL.
	ErrInvalidURL = errors.New("invalid taxonomy URL: expected absolute http or https URL")

	// ErrBodyTooLarge is returned when the response exceeds the configured
	// maximum body size.
	ErrBodyTooLarge = errors.New("taxonomy response exceeds maximum body size")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is
	// not in host:port form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int

	// Body holds at most the first 512 bytes of the response.
	Body string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("taxonomy service returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("taxonomy service returned HTTP %d: %s", e.StatusCode, e.Body)
}
