package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	tlbabi "github.com/wippyai/tlb-abi"
	"github.com/wippyai/tlb-abi/abi"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// chromeHeight is the number of lines around the result viewport.
const chromeHeight = 8

type interactiveModel struct {
	err       error
	schemaDir string
	opts      tlbabi.Options
	tables    *abi.Tables
	summary   string
	mode      tlbabi.Mode
	input     textinput.Model
	result    viewport.Model
	match     string
	ready     bool
}

func newInteractiveModel(schemaDir string, opts tlbabi.Options, mode tlbabi.Mode) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "te6cckEB... or b5ee9c72..."
	ti.Prompt = "boc: "
	ti.CharLimit = 0
	ti.Width = 72
	ti.Focus()

	return &interactiveModel{
		schemaDir: schemaDir,
		opts:      opts,
		mode:      mode,
		input:     ti,
		result:    viewport.New(80, 20),
	}
}

type loadedMsg struct {
	err     error
	tables  *abi.Tables
	summary string
}

type decodedMsg struct {
	err   error
	match string
	json  string
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.loadTables, textinput.Blink)
}

func (m *interactiveModel) loadTables() tea.Msg {
	res, err := tlbabi.Load(context.Background(), m.schemaDir, m.opts)
	if err != nil {
		return loadedMsg{err: err}
	}
	summary := fmt.Sprintf("%d groups, %d messages, %d payloads",
		len(res.Indexes), res.Tables.Messages.Len(), res.Tables.Payloads.Len())
	if len(res.Failures) > 0 {
		summary += fmt.Sprintf(", %d skipped", len(res.Failures))
	}
	return loadedMsg{tables: res.Tables, summary: summary}
}

func (m *interactiveModel) decode() tea.Msg {
	boc, err := parseBOC(m.input.Value())
	if err != nil {
		return decodedMsg{err: err}
	}
	msg, err := tlbabi.DecodeBOC(m.tables, boc, m.mode)
	if err != nil {
		return decodedMsg{err: err}
	}
	out, err := render(msg, true)
	if err != nil {
		return decodedMsg{err: err}
	}
	return decodedMsg{
		match: fmt.Sprintf("%s/%s (tag 0x%08x)", msg.Group, msg.Entry, msg.Tag),
		json:  string(out),
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab":
			m.mode = (m.mode + 1) % 3
			return m, nil

		case "enter":
			if m.tables == nil {
				return m, nil
			}
			return m, m.decode

		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.result, cmd = m.result.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.result.Width = msg.Width
		m.result.Height = max(msg.Height-chromeHeight, 3)
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 10)

	case loadedMsg:
		m.ready = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.tables = msg.tables
		m.summary = msg.summary

	case decodedMsg:
		m.err = msg.err
		m.match = msg.match
		m.result.SetContent(msg.json)
		m.result.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *interactiveModel) View() string {
	if !m.ready {
		return "Loading schemas..."
	}
	if m.tables == nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress esc to quit.", m.err))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("TL-B Decoder"))
	b.WriteString(" ")
	b.WriteString(m.schemaDir)
	b.WriteString(" ")
	b.WriteString(helpStyle.Render(m.summary))
	b.WriteString("\n\n")

	b.WriteString("mode: ")
	b.WriteString(modeStyle.Render(m.mode.String()))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case m.match != "":
		b.WriteString(matchStyle.Render(m.match))
		b.WriteString("\n")
		b.WriteString(m.result.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter decode • tab mode • pgup/pgdn scroll • esc quit"))
	return b.String()
}

func runInteractive(schemaDir string, opts tlbabi.Options, mode tlbabi.Mode) error {
	p := tea.NewProgram(newInteractiveModel(schemaDir, opts, mode), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
