// Package tui implements the decision inspector: a terminal viewer that
// connects to internal/bridge/inspect's websocket and renders each
// decision the engine makes as it makes it. Adapted from the teacher's
// bubbletea TUI layout (a scrolling log pane, a sidebar, and a focused
// detail pane at the bottom), generalized from an interactive poker
// table to a read-only decision feed.
package tui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/rook/blindsolver/internal/bridge"
)

// InspectorModel is the bubbletea model for the decision inspector.
type InspectorModel struct {
	logger *log.Logger
	conn   *websocket.Conn

	events   chan bridge.InspectEvent
	errs     chan error
	history  []bridge.InspectEvent
	latest   *bridge.InspectEvent
	quitting bool

	logViewport viewport.Model
	focusedPane int // 0 = log, 1 = sidebar

	width  int
	height int
}

// NewInspectorModel dials addr (a ws:// or wss:// URL pointing at
// internal/bridge/inspect's Hub) and returns a model ready to run.
func NewInspectorModel(addr string, logger *log.Logger) (*InspectorModel, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing inspector websocket: %w", err)
	}

	vp := viewport.New(10, 5)
	vp.SetContent("")

	m := &InspectorModel{
		logger:      logger.WithPrefix("inspector"),
		conn:        conn,
		events:      make(chan bridge.InspectEvent, 32),
		errs:        make(chan error, 1),
		logViewport: vp,
		focusedPane: 0,
	}
	go m.readLoop()
	return m, nil
}

// readLoop decodes InspectEvents off the websocket until it closes,
// handing each to the bubbletea event loop via m.events.
func (m *InspectorModel) readLoop() {
	defer close(m.events)
	for {
		_, payload, err := m.conn.ReadMessage()
		if err != nil {
			m.errs <- err
			return
		}
		var event bridge.InspectEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			m.logger.Error("failed to decode inspect event", "err", err)
			continue
		}
		m.events <- event
	}
}

type inspectEventMsg bridge.InspectEvent
type inspectClosedMsg struct{ err error }

func waitForEvent(m *InspectorModel) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return inspectClosedMsg{err: <-m.errs}
		}
		return inspectEventMsg(event)
	}
}

// Init starts the event-wait loop.
func (m *InspectorModel) Init() tea.Cmd {
	return waitForEvent(m)
}

// Update handles incoming decisions and keyboard navigation.
func (m *InspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case inspectEventMsg:
		event := bridge.InspectEvent(msg)
		m.history = append(m.history, event)
		m.latest = &event
		m.logViewport.SetContent(m.renderHistory())
		m.logViewport.GotoBottom()
		return m, waitForEvent(m)

	case inspectClosedMsg:
		m.quitting = true
		if msg.err != nil {
			m.logger.Error("inspector connection closed", "err", msg.err)
		}
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			m.conn.Close()
			return m, tea.Quit
		case "tab":
			m.focusedPane = 1 - m.focusedPane
		case "up", "k":
			m.logViewport.ScrollUp(1)
		case "down", "j":
			m.logViewport.ScrollDown(1)
		case "pgup", "b":
			m.logViewport.HalfPageUp()
		case "pgdown", "f":
			m.logViewport.HalfPageDown()
		case "home", "g":
			m.logViewport.GotoTop()
		case "end", "G":
			m.logViewport.GotoBottom()
		}
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// View renders the three-pane layout: history log (left), current
// snapshot sidebar (right), and the latest decision's full detail
// (bottom, full width).
func (m *InspectorModel) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "connecting..."
	}

	detailContent := m.renderDetailPane()
	detailHeight := lipgloss.Height(detailContent)

	detailStyle := FocusedBorderStyle.Width(m.width - 2).Height(detailHeight - 1)
	detailPane := detailStyle.Render(detailContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := 32
	sidebarHeight := m.height - detailHeight - 4

	sidebarStyle := BlurredBorderStyle
	if m.focusedPane == 1 {
		sidebarStyle = FocusedBorderStyle
	}
	sidebarPane := sidebarStyle.Width(sidebarWidth).Height(sidebarHeight).Render(sidebarContent)

	logWidth := m.width - sidebarWidth - 4
	logHeight := sidebarHeight
	m.logViewport.Width = logWidth
	m.logViewport.Height = logHeight

	logStyle := BlurredBorderStyle
	if m.focusedPane == 0 {
		logStyle = FocusedBorderStyle
	}
	logPane := logStyle.Width(logWidth).Height(logHeight).Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, detailPane)
}

func (m *InspectorModel) renderHistory() string {
	lines := make([]string, 0, len(m.history))
	for _, event := range m.history {
		style := PlayActionStyle
		if event.Action.ActionType == bridge.ActionDiscard {
			style = DiscardActionStyle
		}
		lines = append(lines, fmt.Sprintf(
			"[%s] %s %v conf=%.2f",
			event.RequestID, style.Render(string(event.Action.ActionType)),
			event.Action.CardIndices, event.Action.Confidence,
		))
	}
	return LogStyle.Render(strings.Join(lines, "\n"))
}

func (m *InspectorModel) renderSidebarPane() string {
	if m.latest == nil {
		return InfoStyle.Render("waiting for a snapshot...")
	}
	snap := m.latest.Snapshot
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", HeaderStyle.Render("snapshot"))
	fmt.Fprintf(&b, "phase:     %s\n", snap.PhaseName)
	fmt.Fprintf(&b, "ante:      %d\n", snap.Ante)
	fmt.Fprintf(&b, "money:     %d\n", snap.Money)
	fmt.Fprintf(&b, "hands:     %d\n", snap.HandsRemaining)
	fmt.Fprintf(&b, "discards:  %d\n", snap.DiscardsRemaining)
	fmt.Fprintf(&b, "blind:     %s (%d/%d)\n", snap.Blind.Name, snap.Blind.ChipsScored, snap.Blind.ChipsRequired)
	fmt.Fprintf(&b, "entities:  %d\n", len(snap.Entities))
	return b.String()
}

func (m *InspectorModel) renderDetailPane() string {
	if m.latest == nil {
		return InfoStyle.Render("no decision yet")
	}
	action := m.latest.Action
	decision := m.latest.Decision

	confidenceStyle := InfoStyle
	if action.Confidence >= 1.0 {
		confidenceStyle = LethalStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  indices=%v  confidence=%s  lethal=%t\n",
		HeaderStyle.Render(string(action.ActionType)),
		action.CardIndices,
		confidenceStyle.Render(strconv.FormatFloat(action.Confidence, 'f', 2, 64)),
		decision.IsLethal,
	)
	if action.Reasoning != "" {
		fmt.Fprintf(&b, "%s\n", action.Reasoning)
	}
	if len(decision.Reasoning) > 0 {
		fmt.Fprintf(&b, "%s\n", strings.Join(decision.Reasoning, " -> "))
	}
	return b.String()
}
