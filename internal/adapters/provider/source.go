// Package provider fetches the availability document from the upstream
// booking endpoint.
package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/bnema/slotwatch/internal/domain"
	"github.com/bnema/slotwatch/internal/ports"
)

const (
	DefaultTimeout = 25 * time.Second

	maxBodyBytes   = 1 << 20
	bodyExcerptLen = 500

	acceptHeader      = "application/json, text/plain, */*"
	contentTypeHeader = "application/json;charset=UTF-8"
)

// Request describes the single call made per run. Header values are already
// resolved; secret references never reach this package.
type Request struct {
	URL     string
	Method  string
	Payload []byte
	Headers Headers
}

type Headers struct {
	AcceptLanguage string
	UserAgent      string
	Authorize      string
	Cookie         string
	Origin         string
	Referer        string
}

// StatusError is a non-2xx upstream answer. It unwraps to
// domain.ErrAuthRejected for 401/403 and domain.ErrUpstreamStatus otherwise.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Unwrap(), e.StatusCode)
	}

	return fmt.Sprintf("%s: HTTP %d: %s", e.Unwrap(), e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return domain.ErrAuthRejected
	}

	return domain.ErrUpstreamStatus
}

// BodyError is a 2xx answer whose body could not be decoded. Body holds the
// leading excerpt of what was received.
type BodyError struct {
	Err  error
	Body string
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("%s; body: %s", e.Err, e.Body)
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

type Source struct {
	client  *http.Client
	request Request
	timeout time.Duration
}

var _ ports.AvailabilitySource = (*Source)(nil)

func NewSource(client *http.Client, request Request, timeout time.Duration) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	if request.Method == "" {
		request.Method = http.MethodPost
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Source{client: client, request: request, timeout: timeout}
}

func (s *Source) Fetch(ctx context.Context) (domain.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	request, err := s.newRequest(ctx)
	if err != nil {
		return nil, err
	}

	response, err := s.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrTransport, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &StatusError{StatusCode: response.StatusCode, Body: excerpt(body)}
	}

	payload, err := domain.DecodePayload(body)
	if err != nil {
		return nil, &BodyError{Err: err, Body: excerpt(body)}
	}

	return payload, nil
}

func (s *Source) newRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(s.request.Payload) > 0 {
		body = bytes.NewReader(s.request.Payload)
	}

	request, err := http.NewRequestWithContext(ctx, s.request.Method, s.request.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	headers := s.request.Headers
	request.Header.Set("Accept", acceptHeader)
	request.Header.Set("Content-Type", contentTypeHeader)
	setIfPresent(request.Header, "Accept-Language", headers.AcceptLanguage)
	setIfPresent(request.Header, "Origin", headers.Origin)
	setIfPresent(request.Header, "Referer", headers.Referer)
	setIfPresent(request.Header, "User-Agent", headers.UserAgent)
	setIfPresent(request.Header, "Authorize", headers.Authorize)
	setIfPresent(request.Header, "Cookie", headers.Cookie)

	return request, nil
}

func setIfPresent(header http.Header, key, value string) {
	if value != "" {
		header.Set(key, value)
	}
}

// excerpt returns at most the first bodyExcerptLen characters of body.
func excerpt(body []byte) string {
	if utf8.RuneCount(body) <= bodyExcerptLen {
		return string(body)
	}

	count := 0
	for i := range string(body) {
		if count == bodyExcerptLen {
			return string(body[:i])
		}
		count++
	}

	return string(body)
}

// IsAuthRejected reports whether err is an upstream 401/403.
func IsAuthRejected(err error) bool {
	return errors.Is(err, domain.ErrAuthRejected)
}
