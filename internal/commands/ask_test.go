package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurovine/assistant/internal/chat"
	apierrors "github.com/neurovine/assistant/internal/errors"
)

func TestAsk_RawOutput(t *testing.T) {
	env := newTestEnv(t)

	err := env.run("ask", "what", "is", "neural", "sync?")
	require.NoError(t, err)

	assert.Equal(t, "Synaptic packets aligned.\n", env.stdout.String())

	req := env.mock.Last()
	require.Len(t, req.Messages, 2)
	assert.Equal(t, chat.RoleAssistant, req.Messages[0].Role, "transcript starts with the greeting")
	assert.Equal(t, chat.Message{Role: chat.RoleUser, Content: "what is neural sync?"}, req.Messages[1])
	assert.Equal(t, "gemini-3-flash-preview", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 0.0001)
	assert.NotEmpty(t, req.SystemInstruction)
}

func TestAsk_RootShortcut(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run("hello"))
	assert.Equal(t, "Synaptic packets aligned.\n", env.stdout.String())
	assert.Equal(t, "hello", env.mock.Last().Messages[1].Content)
}

func TestAsk_Stdin(t *testing.T) {
	env := newTestEnv(t)
	env.withStdin("  from stdin\n")

	require.NoError(t, env.run("ask"))
	assert.Equal(t, "from stdin", env.mock.Last().Messages[1].Content)
}

func TestAsk_FileAndOutput(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "question.md")
	out := filepath.Join(dir, "reply.md")
	require.NoError(t, os.WriteFile(in, []byte("from file"), 0o644))

	require.NoError(t, env.run("ask", "-f", in, "-o", out))

	assert.Equal(t, "from file", env.mock.Last().Messages[1].Content)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Synaptic packets aligned.", string(data))
	assert.Empty(t, env.stdout.String())
}

func TestAsk_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	err := env.run("ask", "-f", filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestAsk_EmptyPrompt(t *testing.T) {
	env := newTestEnv(t)
	env.withStdin("   \n")

	err := env.run("ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt cannot be empty")
	assert.False(t, env.completerOK, "no backend should be built for an empty prompt")
}

func TestAsk_BackendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mock.Err = apierrors.NewAuthError("invalid key")

	err := env.run("ask", "ping")
	require.Error(t, err)
	assert.True(t, apierrors.IsAuthError(err))

	// The variant's fallback is still printed
	assert.Equal(t, "Neural sync interrupted. Check your bio-mesh connection.\n", env.stdout.String())
	// and the reporter logged the failure
	assert.Contains(t, env.stderr.String(), "completion failed")
}

func TestAsk_EmptyReplyFallback(t *testing.T) {
	env := newTestEnv(t)
	env.mock.Reply = "   "

	require.NoError(t, env.run("ask", "ping"))
	assert.Equal(t, "Neural link latency detected. Please repeat your query.\n", env.stdout.String())
}

func TestAsk_Decorated(t *testing.T) {
	env := newTestEnv(t)
	env.tty = true
	t.Setenv("GLAMOUR_STYLE", "notty")

	require.NoError(t, env.run("ask", "--variant", "plain", "hi"))

	out := env.stdout.String()
	assert.Contains(t, out, "plain")
	assert.Contains(t, out, "Synaptic packets aligned.")
	assert.Contains(t, env.stderr.String(), "Reply received")
}

func TestAsk_RawFlagOverridesTTY(t *testing.T) {
	env := newTestEnv(t)
	env.tty = true

	require.NoError(t, env.run("ask", "--raw", "hi"))
	assert.Equal(t, "Synaptic packets aligned.\n", env.stdout.String())
}

func TestAsk_Clipboard(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		copyErr    error
		backendErr error
		wantCopied []string
	}{
		{name: "disabled", enabled: false, wantCopied: nil},
		{name: "enabled", enabled: true, wantCopied: []string{"Synaptic packets aligned."}},
		{name: "copy failure is not fatal", enabled: true, copyErr: errors.New("no display"), wantCopied: []string{"Synaptic packets aligned."}},
		{name: "fallbacks are not copied", enabled: true, backendErr: errors.New("down"), wantCopied: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.cfg.CopyToClipboard = tt.enabled
			env.copyErr = tt.copyErr
			env.mock.Err = tt.backendErr

			err := env.run("ask", "hi")
			if tt.backendErr != nil {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCopied, env.copied)
		})
	}
}

func TestReadPrompt_Precedence(t *testing.T) {
	env := newTestEnv(t)
	env.withStdin("stdin")

	got, err := readPrompt(env.deps, "", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a b", got, "arguments win over stdin")

	got, err = readPrompt(env.deps, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "stdin", got)

	env.piped = false
	got, err = readPrompt(env.deps, "", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSpinnerLifecycle_StopWithSuccess(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Synchronizing")
	s.start()
	// Let it spin briefly
	time.Sleep(200 * time.Millisecond)
	s.stopWithSuccess("done")

	out := buf.String()
	assert.Contains(t, out, "Synchronizing")
	assert.True(t, strings.HasSuffix(out, "done\n"), "got %q", out)
}

func TestSpinnerLifecycle_StopWithError(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Synchronizing")
	s.start()
	time.Sleep(30 * time.Millisecond)
	// Should stop cleanly on error (no panic), and twice is fine
	s.stopWithError()
	s.stopOnce()
}
