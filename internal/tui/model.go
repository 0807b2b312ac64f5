// Package tui is the interactive text menu.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/javanstorm/gcpvm/internal/config"
	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/policy"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/javanstorm/gcpvm/internal/vm"
)

const logTail = 8

// Backend is the part of *session.Session the menu uses.
type Backend interface {
	Config() config.Config
	StatusDisplay() string
	LastStatus() vm.Status
	LegalActions() []policy.Action
	Busy() bool
	AutoPolling() bool
	RequestStatus() (*coordinator.Operation, error)
	Perform(policy.Action) (*coordinator.Operation, error)
	Cancel() bool
	SetAutoPoll(bool) error
	Log() []session.Entry
}

type eventMsg struct{ ev coordinator.Event }

type eventsClosedMsg struct{}

type noticeMsg struct{ err error }

// Model is the bubbletea model for the menu.
type Model struct {
	backend Backend
	events  <-chan coordinator.Event
	keys    keyMap
	spinner spinner.Model
	notice  string
	width   int
}

// New creates the menu. events is normally a session subscription.
func New(backend Backend, events <-chan coordinator.Event) Model {
	return Model{
		backend: backend,
		events:  events,
		keys:    defaultKeyMap(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func waitForEvent(events <-chan coordinator.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{ev: ev}
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		_, err := m.backend.RequestStatus()
		return noticeMsg{err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), m.spinner.Tick, m.refresh())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case eventMsg:
		if f, ok := msg.ev.(coordinator.Failed); ok {
			m.notice = f.Message
		} else {
			m.notice = ""
		}
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, tea.Quit

	case noticeMsg:
		m.notice = noticeText(msg.err)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		_, err := m.backend.RequestStatus()
		m.notice = noticeText(err)

	case key.Matches(msg, m.keys.Cancel):
		if !m.backend.Cancel() {
			m.notice = "Nothing to cancel"
		} else {
			m.notice = ""
		}

	case key.Matches(msg, m.keys.AutoPoll):
		m.notice = noticeText(m.backend.SetAutoPoll(!m.backend.AutoPolling()))

	case key.Matches(msg, m.keys.Choose):
		choice := int(msg.String()[0] - '0')
		actions := m.backend.LegalActions()
		if choice < 1 || choice > len(actions) {
			m.notice = fmt.Sprintf("Invalid choice. Please enter 1-%d.", len(actions))
			return m, nil
		}
		action := actions[choice-1]
		_, err := m.backend.Perform(action)
		m.notice = noticeText(err)
	}
	return m, nil
}

func noticeText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, coordinator.ErrBusy):
		return "Busy: wait for the current operation or press c to cancel"
	default:
		return err.Error()
	}
}

func (m Model) View() string {
	var b strings.Builder

	cfg := m.backend.Config()
	b.WriteString(titleStyle.Render("GCP VM Manager"))
	b.WriteString("\n")
	if cfg.IsValid() {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%s  (%s, %s)", cfg.InstanceName, cfg.Zone, cfg.ProjectID)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	status := m.backend.LastStatus()
	b.WriteString("VM Status: ")
	b.WriteString(statusStyle(status).Render(m.backend.StatusDisplay()))
	if m.backend.Busy() {
		b.WriteString("  " + m.spinner.View() + " working...")
	}
	if m.backend.AutoPolling() {
		b.WriteString(mutedStyle.Render("  [auto-refresh on]"))
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Available Actions"))
	b.WriteString("\n")
	for i, a := range m.backend.LegalActions() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, policy.Label(status, a))
	}
	b.WriteString("\n")

	var help []string
	for _, k := range m.keys.help() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(mutedStyle.Render(strings.Join(help, " • ")))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(errorStyle.Render(m.notice))
		b.WriteString("\n")
	}

	entries := m.backend.Log()
	if len(entries) > logTail {
		entries = entries[len(entries)-logTail:]
	}
	if len(entries) > 0 {
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = e.String()
		}
		b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}
	return b.String()
}

// Run runs the menu until the user quits or the event stream closes.
func Run(backend Backend, events <-chan coordinator.Event) error {
	_, err := tea.NewProgram(New(backend, events)).Run()
	return err
}
