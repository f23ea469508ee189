package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/neurovine/assistant/internal/chat"
	"github.com/neurovine/assistant/internal/render"
)

const (
	animationInterval  = 80 * time.Millisecond
	revealRunesPerTick = 6
	statusTTL          = 3 * time.Second
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// stateChangedMsg signals that the controller published a new state
	stateChangedMsg struct{}

	clearStatusMsg struct {
		id int
	}
)

// Options configures the chat panel
type Options struct {
	Variant string
	Backend string
	// Render configures markdown for assistant replies; Width is set from
	// the window size.
	Render render.Options
	// StartOpen shows the panel immediately instead of the launcher.
	StartOpen bool
	// CopyFunc writes to the clipboard (default: atotto/clipboard).
	CopyFunc func(string) error
	// Context bounds completion calls started from the panel.
	Context context.Context
}

// reveal tracks the text-reveal animation of the newest assistant message
type reveal struct {
	index int
	shown int
	total int
}

func (r reveal) active() bool {
	return r.index >= 0 && r.shown < r.total
}

// Model represents the chat panel state
type Model struct {
	ctrl *chat.Controller
	opts Options
	keys keyMap

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	help     help.Model

	// Controller state as of the last notification
	state       chat.State
	updates     *stateSignal
	unsubscribe func()

	// Presentation state
	open           bool
	ready          bool
	reveal         reveal
	animationFrame int
	ticking        bool
	status         string
	statusIsError  bool
	statusID       int

	// Dimensions
	width  int
	height int
}

// NewModel creates a chat panel bound to a controller. The model subscribes
// to the controller; call Release (RunChat does) when done.
func NewModel(ctrl *chat.Controller, opts Options) Model {
	if opts.CopyFunc == nil {
		opts.CopyFunc = clipboard.WriteAll
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Render.Style == "" {
		opts.Render = render.DefaultOptions()
	}

	ta := textarea.New()
	ta.Placeholder = "Query the BCI network..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorMuted)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = dotStyle

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(colorBright)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(colorMuted)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(colorBorder)

	updates := newStateSignal()
	unsubscribe := ctrl.Subscribe(func(chat.State) { updates.notify() })

	m := Model{
		ctrl:        ctrl,
		opts:        opts,
		keys:        defaultKeyMap(),
		textarea:    ta,
		spinner:     s,
		help:        h,
		state:       ctrl.Snapshot(),
		updates:     updates,
		unsubscribe: unsubscribe,
		reveal:      reveal{index: -1},
	}
	if opts.StartOpen {
		m.open = true
		m.textarea.Focus()
	}
	return m
}

// Release detaches the model from its controller and wakes a pending
// waitForState so its goroutine exits.
func (m Model) Release() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.updates.close()
}

// stateSignal is a one-slot wake-up channel. Notifications coalesce: the
// panel re-reads the snapshot when it wakes up. A notify racing with close
// is dropped instead of sending on a closed channel.
type stateSignal struct {
	mu     sync.Mutex
	ch     chan struct{}
	closed bool
}

func newStateSignal() *stateSignal {
	return &stateSignal{ch: make(chan struct{}, 1)}
}

func (s *stateSignal) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *stateSignal) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		waitForState(m.updates.ch),
	)
}

// waitForState blocks until the controller publishes a change
func waitForState(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(animationInterval, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

func clearStatusAfter(id int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Toggle):
			return m, m.setOpen(!m.open)

		case key.Matches(msg, m.keys.Close):
			if m.open {
				return m, m.setOpen(false)
			}
			return m, tea.Quit
		}

		if !m.open {
			// The launcher only reacts to enter
			if key.Matches(msg, m.keys.Submit) {
				return m, m.setOpen(true)
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Submit):
			m.submit()
			return m, nil

		case key.Matches(msg, m.keys.Copy):
			return m, m.copyLastReply()

		case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		// Typing stays enabled while a reply is pending
		m.textarea, cmd = m.textarea.Update(msg)
		m.ctrl.UpdateDraft(m.textarea.Value())
		return m, cmd

	case stateChangedMsg:
		cmds = append(cmds, m.applyState(m.ctrl.Snapshot()), waitForState(m.updates.ch))

	case spinner.TickMsg:
		if m.state.AwaitingReply {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		m.animationFrame++
		if m.reveal.active() {
			m.reveal.shown += revealRunesPerTick
			if m.reveal.shown > m.reveal.total {
				m.reveal.shown = m.reveal.total
			}
			m.updateViewport()
			m.viewport.GotoBottom()
		} else if m.state.AwaitingReply {
			m.updateViewport()
		}
		if m.reveal.active() || m.state.AwaitingReply {
			cmds = append(cmds, animationTick())
		} else {
			m.ticking = false
		}

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
			m.statusIsError = false
		}

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) setOpen(open bool) tea.Cmd {
	m.open = open
	if !open {
		m.textarea.Blur()
		return nil
	}
	cmd := m.textarea.Focus()
	m.updateViewport()
	m.viewport.GotoBottom()
	return cmd
}

// submit pushes the textarea into the controller and starts a turn. A
// rejected submit (blank draft, reply pending) is silently ignored.
func (m *Model) submit() {
	m.ctrl.UpdateDraft(m.textarea.Value())
	if _, ok := m.ctrl.Submit(m.opts.Context); ok {
		m.textarea.Reset()
	}
}

func (m *Model) copyLastReply() tea.Cmd {
	last, ok := m.state.LastAssistant()
	if !ok {
		return nil
	}
	m.statusID++
	if err := m.opts.CopyFunc(last.Content); err != nil {
		m.status = fmt.Sprintf("Copy failed: %v", err)
		m.statusIsError = true
	} else {
		m.status = "Reply copied to clipboard"
		m.statusIsError = false
	}
	return clearStatusAfter(m.statusID)
}

// applyState adopts a new controller snapshot and starts the loading and
// reveal animations when needed.
func (m *Model) applyState(next chat.State) tea.Cmd {
	prev := m.state
	if next.Version < prev.Version {
		return nil
	}
	m.state = next

	var cmds []tea.Cmd

	if n := len(next.Messages); n > len(prev.Messages) {
		last := next.Messages[n-1]
		if last.Role == chat.RoleAssistant {
			m.reveal = reveal{index: n - 1, total: len([]rune(last.Content))}
		}
	}

	if next.AwaitingReply && !prev.AwaitingReply {
		cmds = append(cmds, m.spinner.Tick)
	}

	if (next.AwaitingReply || m.reveal.active()) && !m.ticking {
		m.ticking = true
		cmds = append(cmds, animationTick())
	}

	m.updateViewport()
	m.viewport.GotoBottom()
	return tea.Batch(cmds...)
}

func (m *Model) resize() {
	headerHeight := 3 // Header panel with border
	inputHeight := 5  // Input panel with border and loading line
	footerHeight := 2 // Footer and help line
	statusHeight := 1

	vpHeight := m.height - headerHeight - inputHeight - footerHeight - statusHeight - 2
	if vpHeight < 3 {
		vpHeight = 3
	}

	contentWidth := m.contentWidth()

	if !m.ready {
		m.viewport = viewport.New(contentWidth-4, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth - 4
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.help.Width = contentWidth
}

func (m Model) contentWidth() int {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	return w
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 2
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}
	renderOpts := m.opts.Render.WithWidth(bubbleWidth - 2)

	for i, msg := range m.state.Messages {
		if i > 0 {
			content.WriteString("\n\n")
		}

		if msg.Role == chat.RoleUser {
			label := userLabelStyle.Render("● You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble)
			continue
		}

		label := assistantLabelStyle.Render("✦ " + m.assistantName())
		var body string
		if i == m.reveal.index && m.reveal.active() {
			runes := []rune(msg.Content)
			body = string(runes[:m.reveal.shown]) + dotStyle.Render("▌")
			body = lipgloss.NewStyle().Width(bubbleWidth - 2).Render(body)
		} else {
			body = render.MarkdownOrPlain(msg.Content, renderOpts)
		}
		content.WriteString(label + "\n" + assistantBubbleStyle.Render(body))
	}

	if m.state.AwaitingReply {
		content.WriteString("\n\n" + assistantLabelStyle.Render("✦ "+m.assistantName()) + "\n" + m.renderLoadingDots())
	}

	m.viewport.SetContent(content.String())
}

func (m Model) assistantName() string {
	if m.opts.Variant == "" || m.opts.Variant == "neurovine" {
		return "Neural Interface"
	}
	return m.opts.Variant
}

// renderLoadingDots renders the three-dot indicator shown while a reply is
// pending
func (m Model) renderLoadingDots() string {
	lit := m.animationFrame % 3
	var dots []string
	for i := 0; i < 3; i++ {
		if i == lit {
			dots = append(dots, dotStyle.Render("●"))
		} else {
			dots = append(dots, dotDimStyle.Render("●"))
		}
	}
	return strings.Join(dots, " ")
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return subtitleStyle.Render("  Initializing...")
	}

	if !m.open {
		return m.renderLauncher()
	}

	contentWidth := m.contentWidth()
	var sections []string

	// Header
	link := linkOKStyle.Render("● Link Optimized")
	if m.state.AwaitingReply {
		link = linkBusyStyle.Render(m.spinner.View() + " Synchronizing")
	}
	model := m.ctrl.Profile().Model
	if m.opts.Backend != "" {
		model = m.opts.Backend + "/" + model
	}
	headerParts := []string{
		titleStyle.Render("NEURAL INTERFACE"),
		subtitleStyle.Render("  •  " + m.opts.Variant),
		subtitleStyle.Render("  •  " + model),
		"  ",
		link,
	}
	header := headerStyle.Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Center, headerParts...))
	sections = append(sections, header)

	// Messages
	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View())
	sections = append(sections, messagesPanel)

	// Input
	inputPanel := inputPanelStyle.Width(contentWidth).Render(m.textarea.View())
	sections = append(sections, inputPanel)

	// Status and footer
	status := ""
	if m.status != "" {
		if m.statusIsError {
			status = statusErrorStyle.Render(m.status)
		} else {
			status = statusStyle.Render(m.status)
		}
	}
	sections = append(sections,
		status,
		footerStyle.Width(contentWidth).Render("DIRECT LINK SECURED BY NEUROVINE AI NODE"),
		m.help.View(m.keys),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLauncher renders the closed state: a single launcher button in the
// bottom-right corner
func (m Model) renderLauncher() string {
	button := launcherStyle.Render("✦ Neural Interface")
	hint := launcherHintStyle.Render("ctrl+o to open  •  esc to quit")
	if m.state.AwaitingReply {
		hint = launcherHintStyle.Render("reply pending...")
	}
	block := lipgloss.JoinVertical(lipgloss.Right, button, hint)
	return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Bottom, block)
}

// State returns the controller state the panel last rendered
func (m Model) State() chat.State {
	return m.state
}

// IsOpen reports whether the panel is expanded
func (m Model) IsOpen() bool {
	return m.open
}

// RunChat runs the chat panel until the user quits. The controller is
// closed on exit, discarding any reply still in flight.
func RunChat(ctx context.Context, ctrl *chat.Controller, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts.Context = ctx

	m := NewModel(ctrl, opts)
	defer m.Release()
	defer ctrl.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
