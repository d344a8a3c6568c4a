package e2e

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSmokeFlow drives the built binary the way a cron job does: legacy
// environment variables only, one invocation per poll.
func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	var status atomic.Int32
	status.Store(http.StatusOK)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"countryCode":"ind"}`, string(body))
		w.WriteHeader(int(status.Load()))
		_, _ = io.WriteString(w, `{"earliestDate":"2026-11-03","earliestSlotLists":[]}`)
	}))
	defer upstream.Close()

	var sent atomic.Int32
	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		sent.Add(1)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer bot.Close()

	env := []string{
		"VFS_URL=" + upstream.URL,
		`VFS_PAYLOAD_JSON={"countryCode":"ind"}`,
		"VFS_USER_AGENT=Mozilla/5.0 smoke",
		"VFS_AUTHORIZE=token",
		"VFS_COOKIE=session=abc",
		"SLOTWATCH_REQUEST_JITTER_MAX=0s",
		"SLOTWATCH_REQUEST_JITTER_MIN=0s",
		"SLOTWATCH_SECRETS_BACKEND=file",
		"TELEGRAM_BOT_TOKEN=123:abc",
		"TELEGRAM_CHAT_ID=42",
		"SLOTWATCH_NOTIFY_TELEGRAM_API_BASE=" + bot.URL,
	}

	stdout, stderr, err := runSlotwatch(t, binaryPath, home, env, "check")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "Status: AVAILABLE; earliestDate=2026-11-03\n", stdout)
	assert.Equal(t, int32(1), sent.Load())

	stdout, stderr, err = runSlotwatch(t, binaryPath, home, env, "status")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "Status: AVAILABLE; earliestDate=2026-11-03\n", stdout)

	status.Store(http.StatusUnauthorized)
	stdout, stderr, err = runSlotwatch(t, binaryPath, home, env, "check")
	require.NoError(t, err, "auth failures must exit 0, stderr: %s", stderr)
	assert.Contains(t, stdout, "Auth blocked/expired: HTTP 401")
	assert.Equal(t, int32(1), sent.Load())
}

func TestSmokeConfigErrorExitsNonZero(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	_, stderr, err := runSlotwatch(t, binaryPath, home, nil, "check")
	require.Error(t, err)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, stderr, "missing required settings")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "slotwatch-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/slotwatch")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build slotwatch binary: %s", string(output))
	return binaryPath
}

func runSlotwatch(t *testing.T, binaryPath, home string, env []string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(cleanEnv(), "HOME="+home)
	cmd.Env = append(cmd.Env, env...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// cleanEnv drops settings inherited from the developer's shell.
func cleanEnv() []string {
	var env []string
	for _, entry := range os.Environ() {
		name, _, _ := strings.Cut(entry, "=")
		if name == "HOME" || strings.HasPrefix(name, "VFS_") || strings.HasPrefix(name, "TELEGRAM_") || strings.HasPrefix(name, "SLOTWATCH_") {
			continue
		}
		env = append(env, entry)
	}

	return env
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
