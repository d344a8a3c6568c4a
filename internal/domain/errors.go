package domain

import "errors"

var (
	ErrSecretNotFound = errors.New("secret not found")

	ErrStateNotFound     = errors.New("state not found")
	ErrStateCorrupt      = errors.New("state corrupt")
	ErrTransport         = errors.New("transport failure")
	ErrAuthRejected      = errors.New("auth blocked or expired")
	ErrUpstreamStatus    = errors.New("upstream http error")
	ErrMalformedResponse = errors.New("non-json response")
	ErrNotifyFailed      = errors.New("notification delivery failed")
)
