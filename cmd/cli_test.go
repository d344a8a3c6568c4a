package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var isolatedEnv = []string{
	"VFS_URL", "VFS_PAYLOAD_JSON", "VFS_ACCEPT_LANGUAGE", "VFS_USER_AGENT", "VFS_AUTHORIZE", "VFS_COOKIE",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	"SLOTWATCH_REQUEST_URL", "SLOTWATCH_REQUEST_PAYLOAD", "SLOTWATCH_REQUEST_USER_AGENT",
	"SLOTWATCH_REQUEST_AUTHORIZE", "SLOTWATCH_REQUEST_COOKIE", "SLOTWATCH_STATE_PATH", "SLOTWATCH_STATE_FORMAT",
	"SLOTWATCH_NOTIFY_CHANNEL", "SLOTWATCH_NOTIFY_TELEGRAM_TOKEN", "SLOTWATCH_NOTIFY_TELEGRAM_CHAT_ID", "SLOTWATCH_NOTIFY_TELEGRAM_API_BASE",
	"SLOTWATCH_NOTIFY_PERSIST_ON_FAILURE", "SLOTWATCH_LOG_LEVEL", "SLOTWATCH_LOG_FORMAT", "SLOTWATCH_SECRETS_DIR",
}

type upstreamFake struct {
	server *httptest.Server

	mu      sync.Mutex
	status  int
	body    string
	headers []http.Header
}

func newUpstreamFake(t *testing.T, status int, body string) *upstreamFake {
	t.Helper()

	fake := &upstreamFake{status: status, body: body}
	fake.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		defer fake.mu.Unlock()

		fake.headers = append(fake.headers, r.Header.Clone())
		w.WriteHeader(fake.status)
		_, _ = io.WriteString(w, fake.body)
	}))
	t.Cleanup(fake.server.Close)

	return fake
}

func (f *upstreamFake) header(i int) http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 {
		i = len(f.headers) + i
	}
	return f.headers[i]
}

func (f *upstreamFake) respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.status = status
	f.body = body
}

type telegramFake struct {
	server *httptest.Server

	mu       sync.Mutex
	status   int
	messages []string
}

func newTelegramFake(t *testing.T) *telegramFake {
	t.Helper()

	fake := &telegramFake{status: http.StatusOK}
	fake.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		defer fake.mu.Unlock()

		var payload struct {
			ChatID string `json:"chat_id"`
			Text   string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if fake.status != http.StatusOK {
			w.WriteHeader(fake.status)
			_, _ = io.WriteString(w, `{"ok":false,"description":"Bad Request: chat not found"}`)
			return
		}
		fake.messages = append(fake.messages, payload.Text)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(fake.server.Close)

	return fake
}

func (f *telegramFake) failWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.status = status
}

func (f *telegramFake) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.messages...)
}

func setupHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	for _, name := range isolatedEnv {
		t.Setenv(name, "")
	}
	t.Setenv("SLOTWATCH_SECRETS_BACKEND", "file")

	return home
}

func writeConfig(t *testing.T, home string, upstreamURL string, extra string) {
	t.Helper()

	dir := filepath.Join(home, ".config", "slotwatch")
	require.NoError(t, os.MkdirAll(dir, 0o700))

	content := fmt.Sprintf(`[request]
url = %q
payload = '{"countryCode":"ind","missionCode":"fra"}'
user_agent = "Mozilla/5.0 test"
authorize = "auth-token"
cookie = "session=abc"
jitter_min = "0s"
jitter_max = "0s"

[log]
level = "warn"
%s`, upstreamURL, extra)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
}

const logChannel = `
[notify]
channel = "log"
`

func telegramSection(fake *telegramFake) string {
	return fmt.Sprintf(`
[notify]
telegram_token = "123:abc"
telegram_chat_id = "42"
telegram_api_base = %q
`, fake.server.URL)
}

func statePath(home string) string {
	return filepath.Join(home, ".config", "slotwatch", "state.json")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionPrintsBuildVersion(t *testing.T) {
	home := setupHome(t)

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Equal(t, "slotwatch dev\n", stdout)
}

func TestCheckFailsFastOnMissingConfiguration(t *testing.T) {
	home := setupHome(t)

	_, _, err := executeCLI(t, home, "check", "--no-jitter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required settings")
	assert.Contains(t, err.Error(), "request.url")
	assert.Contains(t, err.Error(), "request.cookie")
	assert.NoFileExists(t, statePath(home))
}

func TestCheckWithoutTelegramCredentialsFailsAndKeepsState(t *testing.T) {
	home := setupHome(t)
	upstream := newUpstreamFake(t, http.StatusOK, `{"earliestDate":"04/10/2026 00:00:00","earliestSlotLists":[1]}`)
	writeConfig(t, home, upstream.server.URL, "")

	for run := 0; run < 2; run++ {
		_, _, err := executeCLI(t, home, "check", "--no-jitter")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "notify.telegram_token")
		assert.Contains(t, err.Error(), "notify.telegram_chat_id")
		assert.NoFileExists(t, statePath(home))
	}

	upstream.mu.Lock()
	defer upstream.mu.Unlock()
	assert.Empty(t, upstream.headers)
}

func TestCheckDryRunFallsBackToLogWithoutTelegram(t *testing.T) {
	home := setupHome(t)
	upstream := newUpstreamFake(t, http.StatusOK, `{"earliestDate":"2026-11-03"}`)
	writeConfig(t, home, upstream.server.URL, "")

	stdout, _, err := executeCLI(t, home, "check", "--no-jitter", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "Status: AVAILABLE; earliestDate=2026-11-03\nDry run: would notify (became_available)\n", stdout)
	assert.NoFileExists(t, statePath(home))
}

func TestCheckLogChannelRecordsSlot(t *testing.T) {
	home := setupHome(t)
	upstream := newUpstreamFake(t, http.StatusOK, `{"earliestDate":"2026-11-03"}`)
	writeConfig(t, home, upstream.server.URL, logChannel)

	stdout, stderr, err := executeCLI(t, home, "check", "--no-jitter", "--log-level", "info")
	require.NoError(t, err)
	assert.Equal(t, "Status: AVAILABLE; earliestDate=2026-11-03\n", stdout)
	assert.Contains(t, stderr, "slot detected")
	assert.FileExists(t, statePath(home))
}

func TestCheckNotifiesOnceThenStaysQuiet(t *testing.T) {
	home := setupHome(t)
	upstream := newUpstreamFake(t, http.StatusOK, `{"earliestDate":"2026-11-03","earliestSlotLists":[{"time":"09:00"}]}`)
	bot := newTelegramFake(t)
	writeConfig(t, home, upstream.server.URL, telegramSection(bot))

	stdout, _, err := executeCLI(t, home, "check", "--no-jitter")
	require.NoError(t, err)
	assert.Equal(t, "Status: AVAILABLE; earliestDate=2026-11-03\n", stdout)

	messages := bot.sent()
	require.Len(t, messages, 1)
	assert.True(t, strings.HasPrefix(messages[0], "✅ Slot detected!\n\nEarliest date: 2026-11-03\n"))

	data, err := os.ReadFile(statePath(home))
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_seen_earliestDate":"2026-11-03","last_status":"AVAILABLE"}`, string(data))

	stdout, _, err = executeCLI(t, home, "check", "--no-jitter")
	require.NoError(t, err)
	assert.Equal(t, "Status: AVAILABLE; earliestDate=2026-11-03\n", stdout)
	assert.Len(t, bot.sent(), 1)

	upstream.respond(http.StatusOK, `{"earliestDate":"2026-11-10","earliestSlotLists":[]}`)
	_, _, err = executeCLI(t, home, "check", "--no-jitter")
	require.NoError(t, err)
	assert.Len(t, bot.sent(), 2)

	upstream.respond(http.StatusOK, `{"earliestDate":null,"earliestSlotLists":[]}`)
	stdout, _, err = executeCLI(t, home, "check", "--no-jitter")
	require.NoError(t, err)
	assert.Equal(t, "Status: NOT_AVAILABLE; earliestDate=None\n", stdout)
	assert.Len(t, bot.sent(), 2)

	header := upstream.header(0)
	assert.Equal(t, "auth-token", header.Get("Authorize"))
	assert.Equal(t, "session=abc", header.Get("Cookie"))
	assert.Equal(t, "Mozilla/5.0 test", header.Get("User-Agent"))
}

func TestCheckTreatsAuthRejectionAsBenign(t *testing.T) {
	home := setupHome(t)
	upstream := newUpstreamFake(t, http.StatusForbidden, "blocked by waf")
	writeConfig(t, home, upstream.server.URL, logChannel)

	stdout, _, err := executeCLI(t, home, "check", "--no-jitter")
	require.NoError(t, err)
	assert.Equal(t, "Auth blocked/expired: HTTP 403\nblocked by waf\n", stdout)
	assert.NoFileExists(t, statePath(home))
}

func TestCheckPrintsUpstreamFailureLines(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "upstream down", want: "HTTP error: 500\nupstream down\n"},
		{name: "empty error body", status: http.StatusTooManyRequests, body: "", want: "HTTP error: 429\n\n"},
		{name: "non json body", status: http.StatusOK, body: "<html>captcha</html>", want: "Non-JSON response:\n<html>captcha</html>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := setupHome(t)
			upstream := newUpstreamFake(t, tt.status, tt.body)
			writeConfig(t, home, upstream.server.URL, logChannel)

			stdout, _, err := executeCLI(t, home, "check", "--no-jitter")
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
			assert.NoFileExists(t, statePath(home))
		})
	}
}

func TestCheckJSONReportsFetchFailureKind(t *testing.T) {
	home := setupHome(t)
	upstream := newUpstreamFake(t, http.StatusOK, "<html>captcha</html>")
	writeConfig(t, home, upstream.server.URL, logChannel)

	stdout, _, err := executeCLI(t, home, "check", "--no-jitter", "--json")
	require.NoError(t, err)

	var failure failureOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &failure))
	assert.Equal(t, "malformed", failure.Kind)
	assert.Contains(t, failure.Error, "non-json response")
	assert.Equal(t, "<html>captcha</html>", failure.Body)
}

func TestCheckDryRunNeitherNotifiesNorSaves(t *testing.T) {
	home := setupHome(t)
	upstream := newUpstreamFake(t, http.StatusOK, `{"earliestDate":"2026-11-03"}`)
	bot := newTelegramFake(t)
	writeConfig(t, home, upstream.server.URL, telegramSection(bot))

	stdout, _, err := executeCLI(t, home, "check", "--no-jitter", "--dry-run", "--json")
	require.NoError(t, err)

	var out checkOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "AVAILABLE", out.Status)
	require.NotNil(t, out.EarliestDate)
	assert.Equal(t, "2026-11-03", *out.EarliestDate)
	assert.True(t, out.WouldNotify)
	assert.True(t, out.DryRun)
	assert.False(t, out.Notified)
	assert.Equal(t, "became_available", out.Reason)

	assert.Empty(t, bot.sent())
	assert.NoFileExists(t, statePath(home))
}

func TestCheckNotifierFailureExitsNonZeroAndKeepsState(t *testing.T) {
	home := setupHome(t)
	upstream := newUpstreamFake(t, http.StatusOK, `{"earliestDate":"2026-11-03"}`)
	bot := newTelegramFake(t)
	bot.failWith(http.StatusBadRequest)
	writeConfig(t, home, upstream.server.URL, telegramSection(bot))

	stdout, _, err := executeCLI(t, home, "check", "--no-jitter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notification delivery failed")
	assert.Contains(t, err.Error(), "chat not found")
	assert.Equal(t, "Status: None; earliestDate=None\n", stdout)
	assert.NoFileExists(t, statePath(home))
}

func TestCheckPersistsOnNotifierFailureWhenConfigured(t *testing.T) {
	home := setupHome(t)
	upstream := newUpstreamFake(t, http.StatusOK, `{"earliestDate":"2026-11-03"}`)
	bot := newTelegramFake(t)
	bot.failWith(http.StatusBadRequest)
	writeConfig(t, home, upstream.server.URL, telegramSection(bot)+"persist_on_failure = true\n")

	_, _, err := executeCLI(t, home, "check", "--no-jitter")
	require.Error(t, err)
	assert.FileExists(t, statePath(home))
}

func TestCheckResolvesSecretReferences(t *testing.T) {
	home := setupHome(t)
	upstream := newUpstreamFake(t, http.StatusOK, `{"earliestDate":""}`)
	writeConfig(t, home, upstream.server.URL, logChannel)
	t.Setenv("VFS_COOKIE", "secret:vfs/cookie")

	_, _, err := executeCLI(t, home, "check", "--no-jitter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request.cookie")

	stdout, _, err := executeCLI(t, home, "secret", "set", "vfs/cookie", "--value", "session=from-store")
	require.NoError(t, err)
	assert.Contains(t, stdout, `Stored secret "vfs/cookie" in file backend`)

	stdout, _, err = executeCLI(t, home, "check", "--no-jitter")
	require.NoError(t, err)
	assert.Equal(t, "Status: NOT_AVAILABLE; earliestDate=None\n", stdout)
	assert.Equal(t, "session=from-store", upstream.header(-1).Get("Cookie"))

	_, _, err = executeCLI(t, home, "secret", "rm", "vfs/cookie")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(home, ".config", "slotwatch", "secrets", "vfs", "cookie"))
}

func TestSecretSetReadsValueFromStdin(t *testing.T) {
	home := setupHome(t)
	t.Setenv("HOME", home)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("token-from-stdin\n"))
	root.SetArgs([]string{"secret", "set", "vfs/authorize"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(home, ".config", "slotwatch", "secrets", "vfs", "authorize"))
	require.NoError(t, err)
	assert.Equal(t, "token-from-stdin", string(data))
}

func TestStatusAndReset(t *testing.T) {
	home := setupHome(t)
	path := statePath(home)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(`{"last_seen_earliestDate":"2026-11-03","last_status":"AVAILABLE"}`), 0o600))

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Equal(t, "Status: AVAILABLE; earliestDate=2026-11-03\n", stdout)

	stdout, _, err = executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	var out statusOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, path, out.Path)
	require.NotNil(t, out.State.LastStatus)
	assert.Equal(t, "AVAILABLE", *out.State.LastStatus)

	stdout, _, err = executeCLI(t, home, "reset")
	require.NoError(t, err)
	assert.Equal(t, "State reset: "+path+"\n", stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_seen_earliestDate":null,"last_status":null}`, string(data))
}

func TestStatusRecoversFromCorruptState(t *testing.T) {
	home := setupHome(t)
	path := statePath(home)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	stdout, stderr, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Equal(t, "Status: None; earliestDate=None\n", stdout)
	assert.Contains(t, stderr, "state unreadable, starting fresh")
}

func TestStatusUsesTOMLStoreWhenConfigured(t *testing.T) {
	home := setupHome(t)
	t.Setenv("SLOTWATCH_STATE_FORMAT", "toml")
	t.Setenv("SLOTWATCH_STATE_PATH", filepath.Join(home, "state.toml"))
	require.NoError(t, os.WriteFile(filepath.Join(home, "state.toml"), []byte("version = 1\nlast_status = 'NOT_AVAILABLE'\n"), 0o600))

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Equal(t, "Status: NOT_AVAILABLE; earliestDate=None\n", stdout)
}

func TestNotifyTestFallsBackToLog(t *testing.T) {
	home := setupHome(t)

	stdout, stderr, err := executeCLI(t, home, "notify", "test", "--log-level", "info")
	require.NoError(t, err)
	assert.Equal(t, "Test notification sent via log\n", stdout)
	assert.Contains(t, stderr, "slot detected")
}

func TestNotifyTestUsesTelegram(t *testing.T) {
	home := setupHome(t)
	bot := newTelegramFake(t)
	writeConfig(t, home, "https://upstream.example/slots", telegramSection(bot))

	stdout, _, err := executeCLI(t, home, "notify", "test")
	require.NoError(t, err)
	assert.Equal(t, "Test notification sent via telegram\n", stdout)
	require.Len(t, bot.sent(), 1)
	assert.Contains(t, bot.sent()[0], "Earliest date: TEST")
}
