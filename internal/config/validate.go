package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError lists every missing or invalid setting found in one pass.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid settings: "+strings.Join(e.Invalid, "; "))
	}

	return "configuration error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

func (c Config) Validate() error {
	verr := &ValidationError{}

	required := []struct {
		key   string
		value string
	}{
		{keyRequestURL, c.Request.URL},
		{keyRequestPayload, string(c.Request.Payload)},
		{keyRequestUserAgent, c.Request.UserAgent},
		{keyRequestAuthorize, c.Request.Authorize},
		{keyRequestCookie, c.Request.Cookie},
	}
	for _, field := range required {
		if field.key == keyRequestPayload && c.Request.payloadIssue != "" {
			verr.Invalid = append(verr.Invalid, c.Request.payloadIssue)
			continue
		}
		if field.value == "" {
			verr.Missing = append(verr.Missing, describeKey(field.key))
		}
	}

	if c.Request.URL != "" {
		parsed, err := url.Parse(c.Request.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("%s: %q is not an http(s) URL", keyRequestURL, c.Request.URL))
		}
	}
	if c.Request.Timeout <= 0 {
		verr.Invalid = append(verr.Invalid, keyRequestTimeout+": must be positive")
	}
	if c.Request.JitterMin < 0 || c.Request.JitterMax < c.Request.JitterMin {
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("request.jitter_min/jitter_max: need 0 <= min <= max (got %s, %s)", c.Request.JitterMin, c.Request.JitterMax))
	}

	switch c.State.Format {
	case StateFormatJSON, StateFormatTOML:
	default:
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("%s: unsupported value %q", keyStateFormat, c.State.Format))
	}
	if c.State.Path == "" {
		verr.Missing = append(verr.Missing, describeKey(keyStatePath))
	}

	switch c.Secrets.Backend {
	case SecretsBackendAuto, SecretsBackendPass, SecretsBackendFile:
	default:
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("%s: unsupported value %q", keySecretsBackend, c.Secrets.Backend))
	}

	switch c.Notify.Channel {
	case NotifyChannelTelegram, NotifyChannelLog:
	default:
		verr.Invalid = append(verr.Invalid, fmt.Sprintf("%s: unsupported value %q", keyNotifyChannel, c.Notify.Channel))
	}
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		verr.Invalid = append(verr.Invalid, "notify.telegram_token and notify.telegram_chat_id must be set together")
	}
	if c.Notify.Timeout <= 0 {
		verr.Invalid = append(verr.Invalid, keyNotifyTimeout+": must be positive")
	}

	if verr.empty() {
		return nil
	}

	return verr
}

// ValidateDelivery checks that a real notification can be delivered. A
// check that finds a slot without a delivery channel would otherwise record
// the slot as reported.
func (c Config) ValidateDelivery() error {
	if c.Notify.Channel != NotifyChannelTelegram {
		return nil
	}

	verr := &ValidationError{}
	if c.Notify.TelegramToken == "" {
		verr.Missing = append(verr.Missing, describeKey(keyNotifyTelegramToken))
	}
	if c.Notify.TelegramChatID == "" {
		verr.Missing = append(verr.Missing, describeKey(keyNotifyTelegramChatID))
	}
	if verr.empty() {
		return nil
	}

	return verr
}

func describeKey(key string) string {
	if legacy, ok := legacyEnv[key]; ok {
		return fmt.Sprintf("%s (%s or %s)", key, envName(key), legacy)
	}

	return fmt.Sprintf("%s (%s)", key, envName(key))
}
