package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	keyRequestURL            = "request.url"
	keyRequestMethod         = "request.method"
	keyRequestPayload        = "request.payload"
	keyRequestAcceptLanguage = "request.accept_language"
	keyRequestUserAgent      = "request.user_agent"
	keyRequestAuthorize      = "request.authorize"
	keyRequestCookie         = "request.cookie"
	keyRequestOrigin         = "request.origin"
	keyRequestReferer        = "request.referer"
	keyRequestTimeout        = "request.timeout"
	keyRequestJitterMin      = "request.jitter_min"
	keyRequestJitterMax      = "request.jitter_max"

	keyStatePath   = "state.path"
	keyStateFormat = "state.format"

	keyNotifyChannel          = "notify.channel"
	keyNotifyTelegramToken    = "notify.telegram_token"
	keyNotifyTelegramChatID   = "notify.telegram_chat_id"
	keyNotifyTelegramAPIBase  = "notify.telegram_api_base"
	keyNotifyTimeout          = "notify.timeout"
	keyNotifyPersistOnFailure = "notify.persist_on_failure"

	keyLogLevel  = "log.level"
	keyLogFormat = "log.format"

	keySecretsDir     = "secrets.dir"
	keySecretsBackend = "secrets.backend"
)

const (
	StateFormatJSON = "json"
	StateFormatTOML = "toml"

	// SecretsBackendAuto tries pass first and falls back to files.
	SecretsBackendAuto = "auto"
	SecretsBackendPass = "pass"
	SecretsBackendFile = "file"

	NotifyChannelTelegram = "telegram"
	// NotifyChannelLog only logs notifications. It must be chosen explicitly.
	NotifyChannelLog      = "log"
)

// legacyEnv maps keys to the environment names used by earlier shell-based
// deployments. They are accepted alongside the SLOTWATCH_* names.
var legacyEnv = map[string]string{
	keyRequestURL:            "VFS_URL",
	keyRequestPayload:        "VFS_PAYLOAD_JSON",
	keyRequestAcceptLanguage: "VFS_ACCEPT_LANGUAGE",
	keyRequestUserAgent:      "VFS_USER_AGENT",
	keyRequestAuthorize:      "VFS_AUTHORIZE",
	keyRequestCookie:         "VFS_COOKIE",
	keyNotifyTelegramToken:   "TELEGRAM_BOT_TOKEN",
	keyNotifyTelegramChatID:  "TELEGRAM_CHAT_ID",
}

var envKeys = []string{
	keyRequestURL, keyRequestMethod, keyRequestPayload, keyRequestAcceptLanguage,
	keyRequestUserAgent, keyRequestAuthorize, keyRequestCookie, keyRequestOrigin,
	keyRequestReferer, keyRequestTimeout, keyRequestJitterMin, keyRequestJitterMax,
	keyStatePath, keyStateFormat,
	keyNotifyChannel, keyNotifyTelegramToken, keyNotifyTelegramChatID, keyNotifyTelegramAPIBase,
	keyNotifyTimeout, keyNotifyPersistOnFailure,
	keyLogLevel, keyLogFormat,
	keySecretsDir, keySecretsBackend,
}

func setDefaults(v *viper.Viper, baseDir string) {
	v.SetDefault(keyRequestMethod, "POST")
	v.SetDefault(keyRequestAcceptLanguage, "en-IN,en-GB;q=0.9,en-US;q=0.8,en;q=0.7")
	v.SetDefault(keyRequestOrigin, "https://visa.vfsglobal.com")
	v.SetDefault(keyRequestReferer, "https://visa.vfsglobal.com/")
	v.SetDefault(keyRequestTimeout, "25s")
	v.SetDefault(keyRequestJitterMin, "1s")
	v.SetDefault(keyRequestJitterMax, "6s")

	v.SetDefault(keyStatePath, filepath.Join(baseDir, "state.json"))
	v.SetDefault(keyStateFormat, StateFormatJSON)

	v.SetDefault(keyNotifyChannel, NotifyChannelTelegram)
	v.SetDefault(keyNotifyTelegramAPIBase, "https://api.telegram.org")
	v.SetDefault(keyNotifyTimeout, "20s")
	v.SetDefault(keyNotifyPersistOnFailure, false)

	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "console")

	v.SetDefault(keySecretsDir, filepath.Join(baseDir, "secrets"))
	v.SetDefault(keySecretsBackend, SecretsBackendAuto)
}

func bindEnv(v *viper.Viper) error {
	for _, key := range envKeys {
		names := []string{key, envName(key)}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	return nil
}

// envName is the SLOTWATCH_* variable for a key, e.g. request.url ->
// SLOTWATCH_REQUEST_URL.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
