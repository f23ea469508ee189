package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurovine/assistant/internal/api"
	"github.com/neurovine/assistant/internal/chat"
	"github.com/neurovine/assistant/internal/render"
)

func testProfile() chat.Profile {
	return chat.Profile{
		Greeting:           "Neural link established.",
		Model:              "echo",
		Temperature:        0.7,
		EmptyReplyFallback: "Signal lost.",
		ErrorFallback:      "Link failure.",
	}
}

func newTestModel(t *testing.T, completer chat.Completer, opts Options) (Model, *chat.Controller) {
	t.Helper()
	ctrl := chat.NewController(completer, testProfile())
	t.Cleanup(ctrl.Close)

	if opts.Render.Style == "" {
		opts.Render = render.DefaultOptions().WithStyle("notty")
	}
	m := NewModel(ctrl, opts)
	t.Cleanup(m.Release)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), ctrl
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: k})
	return updated.(Model), cmd
}

// drain feeds controller notifications back into the model until cond holds
func drain(t *testing.T, m Model, cond func(chat.State) bool) Model {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond(m.State()) {
		select {
		case <-m.updates.ch:
			updated, _ := m.Update(stateChangedMsg{})
			m = updated.(Model)
		case <-deadline:
			t.Fatalf("state never reached; last: %+v", m.State())
		}
	}
	return m
}

func TestNewModel(t *testing.T) {
	m, ctrl := newTestModel(t, &api.MockCompleter{}, Options{Variant: "neurovine"})

	assert.False(t, m.IsOpen(), "panel should start closed")
	assert.True(t, m.ready)
	assert.Equal(t, ctrl.Snapshot().Messages, m.State().Messages)
	assert.Equal(t, "Query the BCI network...", m.textarea.Placeholder)
}

func TestNewModel_StartOpen(t *testing.T) {
	m, _ := newTestModel(t, &api.MockCompleter{}, Options{StartOpen: true})
	assert.True(t, m.IsOpen())
	assert.True(t, m.textarea.Focused())
}

func TestModel_ToggleKeys(t *testing.T) {
	tests := []struct {
		name      string
		startOpen bool
		key       tea.KeyType
		wantOpen  bool
		wantQuit  bool
	}{
		{"ctrl+o opens", false, tea.KeyCtrlO, true, false},
		{"ctrl+o closes", true, tea.KeyCtrlO, false, false},
		{"enter opens launcher", false, tea.KeyEnter, true, false},
		{"esc closes panel", true, tea.KeyEsc, false, false},
		{"esc on launcher quits", false, tea.KeyEsc, false, true},
		{"ctrl+c quits", true, tea.KeyCtrlC, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, &api.MockCompleter{}, Options{StartOpen: tt.startOpen})
			m, cmd := press(m, tt.key)

			assert.Equal(t, tt.wantOpen, m.IsOpen())
			if tt.wantQuit {
				require.NotNil(t, cmd)
				_, ok := cmd().(tea.QuitMsg)
				assert.True(t, ok, "expected tea.QuitMsg")
			}
		})
	}
}

func TestModel_ClosedPanelIgnoresTyping(t *testing.T) {
	m, ctrl := newTestModel(t, &api.MockCompleter{}, Options{})
	m = typeText(m, "hello")

	assert.Empty(t, m.textarea.Value())
	assert.Empty(t, ctrl.Snapshot().PendingInput)
}

func TestModel_TypingUpdatesDraft(t *testing.T) {
	m, ctrl := newTestModel(t, &api.MockCompleter{}, Options{StartOpen: true})
	m = typeText(m, "hi there")

	assert.Equal(t, "hi there", m.textarea.Value())
	assert.Equal(t, "hi there", ctrl.Snapshot().PendingInput)
}

func TestModel_SubmitRoundTrip(t *testing.T) {
	mock := &api.MockCompleter{Reply: "Synaptic response."}
	m, ctrl := newTestModel(t, mock, Options{StartOpen: true})

	m = typeText(m, "  status?  ")
	m, _ = press(m, tea.KeyEnter)

	assert.Empty(t, m.textarea.Value(), "textarea should clear after submit")

	m = drain(t, m, func(s chat.State) bool { return len(s.Messages) == 3 && !s.AwaitingReply })

	msgs := m.State().Messages
	assert.Equal(t, chat.Message{Role: chat.RoleUser, Content: "status?"}, msgs[1])
	assert.Equal(t, chat.Message{Role: chat.RoleAssistant, Content: "Synaptic response."}, msgs[2])
	assert.Equal(t, 1, mock.CallCount())
	assert.Equal(t, ctrl.Snapshot().Messages, msgs)
	assert.Equal(t, 2, m.reveal.index, "newest reply should be revealed")
}

func TestModel_BlankSubmitIsIgnored(t *testing.T) {
	mock := &api.MockCompleter{Reply: "unused"}
	m, ctrl := newTestModel(t, mock, Options{StartOpen: true})

	m = typeText(m, "   ")
	m, cmd := press(m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Len(t, ctrl.Snapshot().Messages, 1)
	assert.Equal(t, 0, mock.CallCount())
	assert.Empty(t, m.status, "rejected submits stay silent")
}

func TestModel_SubmitWhileAwaiting(t *testing.T) {
	block := make(chan struct{})
	mock := &api.MockCompleter{Reply: "first", Block: block}
	m, ctrl := newTestModel(t, mock, Options{StartOpen: true})

	m = typeText(m, "one")
	m, _ = press(m, tea.KeyEnter)
	m = drain(t, m, func(s chat.State) bool { return s.AwaitingReply })

	// Input stays editable, but enter is dropped by the controller
	m = typeText(m, "two")
	assert.Equal(t, "two", m.textarea.Value())
	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, "two", m.textarea.Value(), "rejected draft stays in the textarea")

	close(block)
	m = drain(t, m, func(s chat.State) bool { return !s.AwaitingReply && len(s.Messages) == 3 })

	assert.Equal(t, 1, mock.CallCount())
	assert.Equal(t, "two", ctrl.Snapshot().PendingInput)
}

func TestModel_ErrorFallbackShown(t *testing.T) {
	mock := &api.MockCompleter{Err: errors.New("boom")}
	m, _ := newTestModel(t, mock, Options{StartOpen: true})

	m = typeText(m, "ping")
	m, _ = press(m, tea.KeyEnter)
	m = drain(t, m, func(s chat.State) bool { return len(s.Messages) == 3 })

	last, ok := m.State().LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "Link failure.", last.Content)
}

func TestModel_CopyLastReply(t *testing.T) {
	var copied string
	m, _ := newTestModel(t, &api.MockCompleter{}, Options{
		StartOpen: true,
		CopyFunc: func(s string) error {
			copied = s
			return nil
		},
	})

	m, cmd := press(m, tea.KeyCtrlY)
	assert.Equal(t, "Neural link established.", copied)
	assert.Equal(t, "Reply copied to clipboard", m.status)
	assert.NotNil(t, cmd)

	// Expired status is cleared only for the matching id
	updated, _ := m.Update(clearStatusMsg{id: m.statusID - 1})
	m = updated.(Model)
	assert.NotEmpty(t, m.status)
	updated, _ = m.Update(clearStatusMsg{id: m.statusID})
	m = updated.(Model)
	assert.Empty(t, m.status)
}

func TestModel_CopyFailure(t *testing.T) {
	m, _ := newTestModel(t, &api.MockCompleter{}, Options{
		StartOpen: true,
		CopyFunc:  func(string) error { return errors.New("no clipboard") },
	})

	m, _ = press(m, tea.KeyCtrlY)
	assert.True(t, m.statusIsError)
	assert.Contains(t, m.status, "no clipboard")
}

func TestModel_RevealAnimation(t *testing.T) {
	reply := strings.Repeat("x", revealRunesPerTick*3)
	m, _ := newTestModel(t, &api.MockCompleter{Reply: reply}, Options{StartOpen: true})

	m = typeText(m, "go")
	m, _ = press(m, tea.KeyEnter)
	m = drain(t, m, func(s chat.State) bool { return len(s.Messages) == 3 })

	require.True(t, m.reveal.active())
	for i := 0; i < 3; i++ {
		updated, _ := m.Update(animationTickMsg(time.Now()))
		m = updated.(Model)
	}
	assert.False(t, m.reveal.active())

	// Once revealed, further ticks stop the loop
	updated, cmd := m.Update(animationTickMsg(time.Now()))
	m = updated.(Model)
	assert.False(t, m.ticking)
	assert.Nil(t, cmd)
}

func TestModel_StaleStateIgnored(t *testing.T) {
	m, ctrl := newTestModel(t, &api.MockCompleter{}, Options{StartOpen: true})
	m = typeText(m, "abc")
	m = drain(t, m, func(s chat.State) bool { return s.PendingInput == "abc" })

	stale := m.State()
	stale.Version--
	stale.PendingInput = "old"
	m.applyState(stale)

	assert.Equal(t, "abc", m.State().PendingInput)
	assert.Equal(t, ctrl.Snapshot().Version, m.State().Version)
}

func TestModel_View(t *testing.T) {
	t.Run("launcher", func(t *testing.T) {
		m, _ := newTestModel(t, &api.MockCompleter{}, Options{})
		view := m.View()
		assert.Contains(t, view, "Neural Interface")
		assert.NotContains(t, view, "NEURAL INTERFACE")
	})

	t.Run("open panel", func(t *testing.T) {
		m, _ := newTestModel(t, &api.MockCompleter{}, Options{Variant: "neurovine", StartOpen: true})
		view := m.View()
		assert.Contains(t, view, "NEURAL INTERFACE")
		assert.Contains(t, view, "Link Optimized")
		assert.Contains(t, view, "Neural link established.")
		assert.Contains(t, view, "DIRECT LINK SECURED BY NEUROVINE AI NODE")
	})

	t.Run("awaiting", func(t *testing.T) {
		block := make(chan struct{})
		defer close(block)
		m, _ := newTestModel(t, &api.MockCompleter{Block: block}, Options{StartOpen: true})
		m = typeText(m, "wait")
		m, _ = press(m, tea.KeyEnter)
		m = drain(t, m, func(s chat.State) bool { return s.AwaitingReply })

		view := m.View()
		assert.Contains(t, view, "Synchronizing")
		assert.Contains(t, view, "●")
	})

	t.Run("not ready", func(t *testing.T) {
		ctrl := chat.NewController(&api.MockCompleter{}, testProfile())
		defer ctrl.Close()
		m := NewModel(ctrl, Options{})
		defer m.Release()
		assert.Contains(t, m.View(), "Initializing")
	})
}

func TestRenderLoadingDots(t *testing.T) {
	m, _ := newTestModel(t, &api.MockCompleter{}, Options{})
	for frame := 0; frame < 3; frame++ {
		m.animationFrame = frame
		assert.Equal(t, 3, strings.Count(m.renderLoadingDots(), "●"))
	}
}

func TestWaitForState(t *testing.T) {
	updates := make(chan struct{}, 1)
	updates <- struct{}{}
	assert.Equal(t, stateChangedMsg{}, waitForState(updates)())

	close(updates)
	assert.Nil(t, waitForState(updates)())
}

func TestRelease_StopsWaiting(t *testing.T) {
	m, ctrl := newTestModel(t, &api.MockCompleter{}, Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for waitForState(m.updates.ch)() != nil {
		}
	}()

	m.Release()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waitForState still blocked after Release")
	}

	// Late notifications and a second Release are harmless
	m.updates.notify()
	ctrl.UpdateDraft("after release")
	m.Release()
}
