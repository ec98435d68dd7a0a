// Package auth holds the Authorization credential contract shared by the
// product service and its consumers.
//
// The credential is "Bearer " followed by an ISO-8601 UTC timestamp with
// milliseconds, regenerated on every request. The gate only checks that the
// header is present and carries the Bearer prefix; the timestamp itself is
// never validated or compared against anything.
package auth

import (
	"errors"
	"strings"
	"time"
)

const (
	// HeaderName is the request header carrying the credential.
	HeaderName = "Authorization"

	// Scheme is the literal prefix every credential starts with.
	Scheme = "Bearer "

	timestampLayout = "2006-01-02T15:04:05.000Z"
)

var (
	ErrMissingCredential   = errors.New("authorization header is required")
	ErrMalformedCredential = errors.New("authorization header must use the Bearer scheme")
)

// Token returns the credential issued at now, e.g. "Bearer 2019-01-14T11:34:18.045Z".
func Token(now time.Time) string {
	return Scheme + now.UTC().Format(timestampLayout)
}

// Check validates the shape of an Authorization header value.
func Check(header string) error {
	if header == "" {
		return ErrMissingCredential
	}
	if !strings.HasPrefix(header, Scheme) {
		return ErrMalformedCredential
	}
	return nil
}
