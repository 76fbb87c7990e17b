package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/cyber-siege/pkg/state"
)

const (
	PlaceHolderText = "Type a command (try 'help')..."
	maxEventFeed    = 6
)

// eventStream is shared by every copy of the model so main can stop it.
type eventStream struct {
	cancel context.CancelFunc
	ch     chan SSEEvent
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *apiClient
	session      *state.Session
	termViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	transcript []string
	lastOutput string
	notice     string
	feed       []string
	events     *eventStream

	// Scenario selection state
	showScenarioModal bool
	scenarios         []scenarioSummary
	selectedScenario  int
	loadingScenarios  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type commandResultMsg struct {
	command  string
	response *commandResponse
	err      error
}

type scenariosLoadedMsg struct {
	scenarios []scenarioSummary
	err       error
}

type missionCreatedMsg struct {
	session *state.Session
	err     error
}

type missionAbandonedMsg struct {
	session *state.Session
	err     error
}

type missionEventMsg struct {
	event SSEEvent
	ok    bool
}

type progressTickMsg struct{}

var (
	termPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")). // bright green
			Bold(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	achievementStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")). // yellow
				Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("28")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("46")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *apiClient) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render("$ ")
	ta.CharLimit = 1024
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	termVp := viewport.New(50, 20)
	termVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:            cfg,
		client:            client,
		textarea:          ta,
		termViewport:      termVp,
		metaViewport:      metaVp,
		events:            &eventStream{},
		showScenarioModal: true,
		loadingScenarios:  true,
	}
}

func (m ConsoleUI) stopEvents() {
	if m.events.cancel != nil {
		m.events.cancel()
	}
}

func writeMetadata(sess *state.Session, feed []string) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("MISSION") + "\n\n")

	content.WriteString("Mission ID:\n")
	content.WriteString(sess.ID.String()[:8] + "...\n\n")

	content.WriteString("Scenario:\n")
	content.WriteString(sess.Scenario + "\n\n")

	fmt.Fprintf(&content, "Team: %s\n", sess.Team.Title())
	fmt.Fprintf(&content, "Mode: %s\n", sess.Mode)
	fmt.Fprintf(&content, "Score: %d\n", sess.Score)
	fmt.Fprintf(&content, "Status: %s\n\n", sess.Status)

	content.WriteString("Objectives:\n")
	for _, obj := range sess.Objectives {
		if obj.Completed {
			content.WriteString(doneStyle.Render("✓ "+obj.Description) + "\n")
		} else {
			content.WriteString("○ " + obj.Description + "\n")
		}
	}

	if len(feed) > 0 {
		content.WriteString("\nEvents:\n")
		for _, line := range feed {
			content.WriteString("• " + line + "\n")
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Run\n")
	content.WriteString("• /help: Console help\n")
	content.WriteString("• /copy: Copy output\n")
	content.WriteString("• /abandon: Give up\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

// highlightOutput colours achievement lines in command output.
func highlightOutput(out string, width int) string {
	lines := strings.Split(wordwrap.String(strings.TrimRight(out, "\n"), width), "\n")
	for i, line := range lines {
		if strings.Contains(line, "[Achievement Unlocked]") || strings.HasPrefix(strings.TrimSpace(line), "MISSION") {
			lines[i] = achievementStyle.Render(line)
		} else {
			lines[i] = outputStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// writeTerminalContent rebuilds the transcript for the current viewport width.
func (m *ConsoleUI) writeTerminalContent() {
	width := m.termViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("CYBER SIEGE") + "\n\n")
	if m.session != nil {
		fmt.Fprintf(&content, "Connected to %s as %s (%s team).\n", m.session.Scenario, m.config.Username, m.session.Team.Title())
	}
	content.WriteString("Type 'help' for available commands.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, block := range m.transcript {
		content.WriteString(block + "\n\n")
	}
	if m.notice != "" {
		content.WriteString(m.notice + "\n\n")
	}
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.termViewport.SetContent(content.String())
	m.termViewport.GotoBottom()
}

func (m *ConsoleUI) resize() {
	termWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - termWidth - 6

	m.termViewport.Width = termWidth - 2
	m.termViewport.Height = m.height - 5
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(termWidth - 4)
}

func (m *ConsoleUI) refreshMeta() {
	if m.session != nil {
		m.metaViewport.SetContent(writeMetadata(m.session, m.feed))
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showScenarioModal {
		return m.loadScenarios()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showScenarioModal {
		return m.updateScenarioModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.termViewport, vpCmd = m.termViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeTerminalContent()
		m.refreshMeta()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			if m.session != nil && !m.session.IsActive() {
				m.notice = errorStyle.Render("Mission is over. Press Ctrl+C to quit.")
				m.writeTerminalContent()
				return m, nil
			}

			m.notice = ""
			m.loading = true
			m.progressTick = 0
			m.writeTerminalContent()
			return m, tea.Batch(m.sendCommand(input), progressTick())
		}

	case commandResultMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, commandStyle.Render("$ "+msg.command), errorStyle.Render("Error: "+msg.err.Error()))
		} else {
			if strings.EqualFold(strings.Fields(msg.command)[0], "clear") {
				m.transcript = nil
			} else {
				m.transcript = append(m.transcript, highlightOutput(msg.response.Result, m.termViewport.Width-6))
			}
			m.lastOutput = msg.response.Result
			if msg.response.Session != nil {
				m.session = msg.response.Session
			}
			if msg.response.Ended {
				m.notice = achievementStyle.Render(fmt.Sprintf("Mission %s. Final score: %d", m.session.Result, m.session.Score))
			}
		}
		m.writeTerminalContent()
		m.refreshMeta()
		return m, nil

	case missionAbandonedMsg:
		if msg.err != nil {
			m.notice = errorStyle.Render("Error: " + msg.err.Error())
		} else {
			m.session = msg.session
			m.notice = errorStyle.Render("Mission abandoned.")
		}
		m.writeTerminalContent()
		m.refreshMeta()
		return m, nil

	case missionEventMsg:
		if !msg.ok {
			return m, nil
		}
		if line := describeEvent(msg.event); line != "" {
			m.feed = append(m.feed, line)
			if len(m.feed) > maxEventFeed {
				m.feed = m.feed[len(m.feed)-maxEventFeed:]
			}
			m.refreshMeta()
		}
		return m, m.waitForEvent()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeTerminalContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.termViewport, vpCmd = m.termViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func describeEvent(ev SSEEvent) string {
	switch ev.Type {
	case "objective.completed":
		return fmt.Sprintf("Objective: %v (+%v)", ev.Data["description"], ev.Data["points"])
	case "mission.ended":
		return fmt.Sprintf("Mission %v", ev.Data["result"])
	case "connected":
		return "Live updates connected"
	default:
		return ""
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(input) {
	case "/help":
		helpText := `Console commands:
• /help - Show this help
• /copy - Copy the last command output to the clipboard
• /abandon - Abandon the current mission
• /quit - Quit the console

Anything else is sent to the mission terminal. Try 'help' or 'objectives'.`
		m.transcript = append(m.transcript, outputStyle.Render(helpText))

	case "/copy":
		if m.lastOutput == "" {
			m.notice = promptStyle.Render("Nothing to copy yet.")
		} else if err := clipboard.WriteAll(m.lastOutput); err != nil {
			m.notice = errorStyle.Render("Copy failed: " + err.Error())
		} else {
			m.notice = doneStyle.Render("Copied last output to clipboard.")
		}

	case "/abandon":
		if m.session != nil && m.session.IsActive() {
			return m, m.abandon()
		}

	case "/quit":
		m.showQuitModal = true
		return m, nil

	default:
		m.notice = errorStyle.Render("Unknown console command " + input)
	}

	m.writeTerminalContent()
	return m, nil
}

func (m ConsoleUI) sendCommand(command string) tea.Cmd {
	id := m.session.ID
	return func() tea.Msg {
		resp, err := m.client.sendCommand(context.Background(), id, command)
		return commandResultMsg{command: command, response: resp, err: err}
	}
}

func (m ConsoleUI) abandon() tea.Cmd {
	id := m.session.ID
	return func() tea.Msg {
		sess, err := m.client.abandonMission(context.Background(), id)
		return missionAbandonedMsg{sess, err}
	}
}

func (m ConsoleUI) loadScenarios() tea.Cmd {
	return func() tea.Msg {
		list, err := m.client.listScenarios(context.Background())
		return scenariosLoadedMsg{list, err}
	}
}

func (m ConsoleUI) createMission(name string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.client.createMission(context.Background(), name, "", m.config.Team)
		return missionCreatedMsg{sess, err}
	}
}

// startEvents opens the SSE stream for the mission. A stream failure only
// stops the live feed.
func (m ConsoleUI) startEvents() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.events.cancel = cancel
	m.events.ch = make(chan SSEEvent, 16)
	ch, id := m.events.ch, m.session.ID
	go func() {
		defer close(ch)
		_ = m.client.listenToSSE(ctx, id, ch)
	}()
	return m.waitForEvent()
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	ch := m.events.ch
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		return missionEventMsg{ev, ok}
	}
}

func (m ConsoleUI) updateScenarioModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case scenariosLoadedMsg:
		m.loadingScenarios = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.scenarios = msg.scenarios
		}

	case missionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.showScenarioModal = false
		if m.width > 0 && m.height > 0 {
			m.resize()
		}
		m.ready = true
		m.writeTerminalContent()
		m.refreshMeta()
		m.textarea.Focus()
		return m, tea.Batch(textarea.Blink, m.startEvents())

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			if m.loadingScenarios {
				return m, tea.Quit
			}
			m.showQuitModal = true
			return m, nil
		}
		if m.loadingScenarios || m.err != nil || m.loading {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyUp:
			if m.selectedScenario > 0 {
				m.selectedScenario--
			}
		case tea.KeyDown:
			if m.selectedScenario < len(m.scenarios)-1 {
				m.selectedScenario++
			}
		case tea.KeyEnter:
			if len(m.scenarios) > 0 {
				m.loading = true
				return m, m.createMission(m.scenarios[m.selectedScenario].Name)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showScenarioModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Your mission stays saved and can be resumed through the API.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderScenarioModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingScenarios:
		content.WriteString(modalTitleStyle.Render("Loading Scenarios..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching available missions..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("%v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Starting Mission..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Provisioning the environment..."))
	default:
		content.WriteString(modalTitleStyle.Render("Select a Mission"))
		content.WriteString("\n\n")
		for i, sc := range m.scenarios {
			if i == m.selectedScenario {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", sc.Name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", sc.Name)))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showScenarioModal {
		return m.renderScenarioModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	termWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - termWidth - 6

	termPanel := termPanelStyle.Width(termWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.termViewport.View(),
			separatorStyle.Render(strings.Repeat("─", termWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, termPanel, metaPanel)
}

// renderProgressBar animates while a command is in flight.
func (m ConsoleUI) renderProgressBar() string {
	usable := m.termViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 60 {
		usable = 60
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 20
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
