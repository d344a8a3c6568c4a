package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".config/slotwatch"
	envPrefix  = "SLOTWATCH"
)

type Config struct {
	Request RequestConfig
	State   StateConfig
	Notify  NotifyConfig
	Log     LogConfig
	Secrets SecretsConfig

	// File is the config file that was read, empty when none was found.
	File string
}

type RequestConfig struct {
	URL            string
	Method         string
	Payload        json.RawMessage
	AcceptLanguage string
	UserAgent      string
	Authorize      string
	Cookie         string
	Origin         string
	Referer        string
	Timeout        time.Duration
	JitterMin      time.Duration
	JitterMax      time.Duration

	payloadIssue string
}

type StateConfig struct {
	Path   string
	Format string
}

type NotifyConfig struct {
	Channel          string
	TelegramToken    string
	TelegramChatID   string
	TelegramAPIBase  string
	Timeout          time.Duration
	PersistOnFailure bool
}

// TelegramEnabled reports whether Telegram delivery is configured.
func (n NotifyConfig) TelegramEnabled() bool {
	return n.TelegramToken != "" && n.TelegramChatID != ""
}

type LogConfig struct {
	Level  string
	Format string
}

type SecretsConfig struct {
	Dir     string
	Backend string
}

// Load reads the configuration and validates everything a check needs.
func Load(v *viper.Viper, path string) (Config, error) {
	cfg, err := Read(v, path)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Read merges defaults, the TOML config file and the environment without
// checking required request settings, for commands that never call
// upstream. An explicit path must exist; the default path may not.
func Read(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, configDir)

	setDefaults(v, baseDir)
	if err := bindEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(baseDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	cfg.File = v.ConfigFileUsed()

	return cfg, nil
}

func decode(v *viper.Viper) (Config, error) {
	payload, payloadIssue := requestPayload(v)

	statePath, err := expandPath(v.GetString(keyStatePath))
	if err != nil {
		return Config{}, err
	}
	secretsDir, err := expandPath(v.GetString(keySecretsDir))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Request: RequestConfig{
			URL:            trimmed(v, keyRequestURL),
			Method:         strings.ToUpper(trimmed(v, keyRequestMethod)),
			Payload:        payload,
			payloadIssue:   payloadIssue,
			AcceptLanguage: trimmed(v, keyRequestAcceptLanguage),
			UserAgent:      trimmed(v, keyRequestUserAgent),
			Authorize:      trimmed(v, keyRequestAuthorize),
			Cookie:         trimmed(v, keyRequestCookie),
			Origin:         trimmed(v, keyRequestOrigin),
			Referer:        trimmed(v, keyRequestReferer),
			Timeout:        v.GetDuration(keyRequestTimeout),
			JitterMin:      v.GetDuration(keyRequestJitterMin),
			JitterMax:      v.GetDuration(keyRequestJitterMax),
		},
		State: StateConfig{
			Path:   statePath,
			Format: strings.ToLower(trimmed(v, keyStateFormat)),
		},
		Notify: NotifyConfig{
			Channel:          strings.ToLower(trimmed(v, keyNotifyChannel)),
			TelegramToken:    trimmed(v, keyNotifyTelegramToken),
			TelegramChatID:   trimmed(v, keyNotifyTelegramChatID),
			TelegramAPIBase:  strings.TrimRight(trimmed(v, keyNotifyTelegramAPIBase), "/"),
			Timeout:          v.GetDuration(keyNotifyTimeout),
			PersistOnFailure: v.GetBool(keyNotifyPersistOnFailure),
		},
		Log: LogConfig{
			Level:  trimmed(v, keyLogLevel),
			Format: trimmed(v, keyLogFormat),
		},
		Secrets: SecretsConfig{
			Dir:     secretsDir,
			Backend: strings.ToLower(trimmed(v, keySecretsBackend)),
		},
	}, nil
}

// requestPayload reads the JSON document sent upstream. It must be a
// string: viper lowercases table keys, which would corrupt the body. The
// second result describes why the value is unusable.
func requestPayload(v *viper.Viper) (json.RawMessage, string) {
	raw := v.Get(keyRequestPayload)
	if raw == nil {
		return nil, ""
	}

	text, ok := raw.(string)
	if !ok {
		return nil, keyRequestPayload + ": must be a JSON document in a string"
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ""
	}
	if !json.Valid([]byte(text)) {
		return nil, keyRequestPayload + ": not valid JSON"
	}

	return json.RawMessage(text), ""
}

func trimmed(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}

	return filepath.Clean(absPath), nil
}
