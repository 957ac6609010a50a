package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/tools"
)

const PlaceHolderText = "Type a command (/help for the list)..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *session.Session
	logViewport  viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Everything typed and everything returned, re-rendered on resize.
	log []logEntry

	// World selection state
	showWorldModal bool
	worlds         []string
	selectedWorld  int
	loadingWorlds  bool

	// Quit confirmation state
	showQuitModal bool
}

// logEntry is one console exchange. Local entries (help text, parse
// errors) have no result.
type logEntry struct {
	command string
	result  *tools.Result
	err     error
	local   string
}

type worldsLoadedMsg struct {
	worlds []string
	err    error
}

type sessionCreatedMsg struct {
	session *session.Session
	err     error
}

type sessionMsg struct {
	session *session.Session
	err     error
}

type toolResultMsg struct {
	command string
	result  *tools.Result
	err     error
}

var (
	logPanelStyle = lipgloss.NewStyle().
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
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	refusalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		textarea:       ta,
		logViewport:    logVp,
		metaViewport:   metaVp,
		ready:          false,
		showWorldModal: true,
		loadingWorlds:  true,
		selectedWorld:  0,
	}
}

func writeInitialContent(sess *session.Session, width int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("WORLDKEEPER") + "\n\n")
	content.WriteString(fmt.Sprintf("Session %s started in world %q.\n", sess.ID.String()[:8], sess.WorldName))
	content.WriteString("Every command is one tool invocation, exactly what the narrator sees.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-6, 10))) + "\n\n")
	return content.String()
}

func writeMetadata(sess *session.Session) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	content.WriteString("ID:\n")
	content.WriteString(sess.ID.String()[:8] + "...\n\n")

	content.WriteString("World:\n")
	content.WriteString(sess.WorldName + "\n\n")

	content.WriteString("Turn:\n")
	content.WriteString(fmt.Sprintf("%d\n\n", sess.Turn))

	content.WriteString("Clock:\n")
	content.WriteString(formatClock(sess.ClockMinutes) + "\n\n")

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Run\n")
	content.WriteString("• /help: Commands\n")

	return content.String()
}

// formatClock renders accumulated in-world minutes as days/hours/minutes.
func formatClock(minutes float64) string {
	total := int(minutes)
	days := total / 1440
	hours := (total % 1440) / 60
	mins := total % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// writeLogContent re-renders the whole exchange log for the current width.
func (m *ConsoleUI) writeLogContent() {
	width := m.logViewport.Width - 6 // Account for panel padding

	var content strings.Builder
	content.WriteString(writeInitialContent(m.session, m.logViewport.Width))

	for _, entry := range m.log {
		content.WriteString(formatEntry(entry, width))
	}

	if m.loading {
		content.WriteString(promptStyle.Render("Working...") + "\n")
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

// formatEntry renders one exchange: the echoed command, a status line and
// the payload JSON.
func formatEntry(entry logEntry, width int) string {
	var b strings.Builder

	if entry.command != "" {
		b.WriteString(commandStyle.Render("> "+entry.command) + "\n")
	}

	switch {
	case entry.local != "":
		b.WriteString(wordwrap.String(entry.local, width) + "\n")

	case entry.err != nil:
		b.WriteString(errorStyle.Render("Error: "+entry.err.Error()) + "\n\n")

	case entry.result != nil:
		res := entry.result
		switch {
		case res.Success && res.Reason != "":
			b.WriteString(successStyle.Render("ok · "+res.Reason) + "\n")
		case res.Success:
			b.WriteString(successStyle.Render("ok") + "\n")
		case res.Error != "":
			b.WriteString(errorStyle.Render("fault · "+res.Error) + "\n")
		default:
			b.WriteString(refusalStyle.Render("refused · "+res.Reason) + "\n")
		}
		if payload := prettyJSON(res.Data); payload != "" {
			b.WriteString(wordwrap.String(payload, width) + "\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf strings.Builder
	var tmp any
	if err := json.Unmarshal(raw, &tmp); err != nil {
		return string(raw)
	}
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tmp); err != nil {
		return string(raw)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showWorldModal {
		return m.loadWorlds()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showWorldModal {
		return m.updateWorldModal(msg)
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
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.writeLogContent()
		if m.session != nil {
			m.metaViewport.SetContent(writeMetadata(m.session))
		}
		m.ready = true

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
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()

			if strings.HasPrefix(input, "/") {
				return m.handleLocalCommand(input)
			}

			inv, err := parseCommand(m.session.ID.String(), input)
			if err != nil {
				m.log = append(m.log, logEntry{command: input, err: err})
				m.writeLogContent()
				return m, nil
			}

			m.loading = true
			m.writeLogContent()
			return m, m.invoke(input, inv)
		}

	case toolResultMsg:
		m.loading = false
		m.log = append(m.log, logEntry{command: msg.command, result: msg.result, err: msg.err})
		m.writeLogContent()
		return m, m.refreshSession()

	case sessionMsg:
		if msg.err == nil && msg.session != nil {
			m.session = msg.session
			m.metaViewport.SetContent(writeMetadata(m.session))
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// layout sizes both panels from the current terminal dimensions.
func (m *ConsoleUI) layout() {
	logWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - logWidth - 6

	m.logViewport.Width = logWidth - 2
	m.logViewport.Height = m.height - 6
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(logWidth - 4)
}

func (m ConsoleUI) handleLocalCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/help":
		m.log = append(m.log, logEntry{command: input, local: helpText})
	case "/quit":
		m.showQuitModal = true
		return m, nil
	default:
		m.log = append(m.log, logEntry{command: input, err: fmt.Errorf("unknown command, try /help")})
	}
	m.writeLogContent()
	return m, nil
}

func (m ConsoleUI) invoke(command string, inv tools.Invocation) tea.Cmd {
	return func() tea.Msg {
		result, err := invokeTool(m.client, m.config.APIBaseURL, inv)
		return toolResultMsg{command: command, result: result, err: err}
	}
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		sess, err := getSession(m.client, m.config.APIBaseURL, m.session.ID)
		return sessionMsg{sess, err}
	}
}

func (m ConsoleUI) loadWorlds() tea.Cmd {
	return func() tea.Msg {
		worlds, err := listWorlds(m.client, m.config.APIBaseURL)
		return worldsLoadedMsg{worlds, err}
	}
}

func (m ConsoleUI) createSessionForWorld(worldName string) tea.Cmd {
	return func() tea.Msg {
		sess, err := createSession(m.client, m.config.APIBaseURL, worldName)
		return sessionCreatedMsg{sess, err}
	}
}

func (m ConsoleUI) updateWorldModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case worldsLoadedMsg:
		m.loadingWorlds = false
		if msg.err != nil {
			m.err = msg.err
		} else if len(msg.worlds) == 0 {
			m.err = fmt.Errorf("no worlds available in the data directory")
		} else {
			m.worlds = msg.worlds
		}

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.session = msg.session
			m.showWorldModal = false
			if m.width > 0 && m.height > 0 {
				m.layout()
			}
			m.writeLogContent()
			m.metaViewport.SetContent(writeMetadata(m.session))
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingWorlds || m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedWorld > 0 {
				m.selectedWorld--
			}
		case tea.KeyDown:
			if m.selectedWorld < len(m.worlds)-1 {
				m.selectedWorld++
			}
		case tea.KeyEnter:
			if len(m.worlds) > 0 {
				m.loading = true
				return m, m.createSessionForWorld(m.worlds[m.selectedWorld])
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
				if !m.showWorldModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
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
	content.WriteString("The session stays on the server; you can pick it up over the API.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderWorldModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingWorlds {
		content.WriteString(modalTitleStyle.Render("Loading Worlds..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.err.Error()))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Creating Session..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a World"))
		content.WriteString("\n\n")

		for i, name := range m.worlds {
			if i == m.selectedWorld {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
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
	if m.showWorldModal {
		return m.renderWorldModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(logWidth-4, 10))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}
