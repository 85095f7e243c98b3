package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/transaction-toolkit/schema"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Pick operations and send requests from a terminal UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m := newInteractiveModel(cmd.Context(), flagWasm)
		defer m.close()
		_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	},
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Strikethrough(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// rawCaller is the part of a service the picker needs.
type rawCaller interface {
	CallRaw(ctx context.Context, name string, payload []byte) ([]byte, error)
	Close(ctx context.Context) error
}

type modelState int

const (
	stateSelectOp modelState = iota
	stateInputRequest
	stateShowResult
)

type interactiveModel struct {
	ctx      context.Context
	err      error
	svc      rawCaller
	missing  map[schema.Operation]bool
	filename string
	result   string
	ops      []schema.Operation
	input    textinput.Model
	selected int
	state    modelState
	loaded   bool
}

type loadedMsg struct {
	err     error
	svc     rawCaller
	missing []schema.Operation
}

type callResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(ctx context.Context, filename string) *interactiveModel {
	return &interactiveModel{
		ctx:      ctx,
		filename: filename,
		ops:      schema.Operations(),
		state:    stateSelectOp,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	svc, err := openService(m.ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{svc: svc, missing: svc.Missing()}
}

func (m *interactiveModel) close() {
	if m.svc != nil {
		m.svc.Close(m.ctx)
		m.svc = nil
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputRequest {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectOp && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectOp && m.selected < len(m.ops)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectOp:
				if !m.loaded {
					return m, nil
				}
				m.prepareInput()
				m.state = stateInputRequest
				return m, textinput.Blink

			case stateInputRequest:
				return m, m.callOperation(m.ops[m.selected], m.input.Value())

			case stateShowResult:
				m.resetResult()
			}
			return m, nil

		case "esc":
			switch m.state {
			case stateInputRequest, stateShowResult:
				m.resetResult()
			}
			return m, nil
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.svc = msg.svc
		m.missing = make(map[schema.Operation]bool, len(msg.missing))
		for _, op := range msg.missing {
			m.missing[op] = true
		}
		m.loaded = true

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputRequest {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) resetResult() {
	m.state = stateSelectOp
	m.result = ""
	m.err = nil
}

func (m *interactiveModel) prepareInput() {
	ti := textinput.New()
	ti.Placeholder = "{}"
	ti.Prompt = "request: "
	ti.Width = 72
	ti.Focus()
	m.input = ti
}

// callOperation returns a command sending request to op. The service is
// captured by value so the command does not touch the model.
func (m *interactiveModel) callOperation(op schema.Operation, request string) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		payload := []byte(strings.TrimSpace(request))
		if len(payload) == 0 {
			payload = []byte("{}")
		}
		if !json.Valid(payload) {
			return callResultMsg{err: fmt.Errorf("request is not valid JSON")}
		}

		out, err := svc.CallRaw(ctx, string(op), payload)
		if err != nil {
			return callResultMsg{err: err}
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err != nil {
			return callResultMsg{result: string(out)}
		}
		return callResultMsg{result: buf.String()}
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Loading library..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Transaction Toolkit"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectOp:
		b.WriteString("Select an operation:\n\n")
		for i, op := range m.ops {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + string(op)))
			} else {
				b.WriteString("  " + m.formatOp(op))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter choose • q quit"))

	case stateInputRequest:
		b.WriteString(fmt.Sprintf("Calling %s\n\n", opStyle.Render(string(m.ops[m.selected]))))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter send • esc back"))

	case stateShowResult:
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", opStyle.Render(string(m.ops[m.selected]))))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}
	return b.String()
}

func (m *interactiveModel) formatOp(op schema.Operation) string {
	if m.missing[op] {
		return missingStyle.Render(string(op))
	}
	return opStyle.Render(string(op))
}
