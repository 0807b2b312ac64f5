package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/javanstorm/gcpvm/internal/config"
	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/policy"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/javanstorm/gcpvm/internal/vm"
)

type fakeBackend struct {
	status     vm.Status
	stale      bool
	busy       bool
	autoPoll   bool
	refreshes  int
	cancels    int
	performed  []policy.Action
	requestErr error
	entries    []session.Entry
}

func (f *fakeBackend) Config() config.Config {
	return config.Config{ProjectID: "proj1", Zone: "us-central1-a", InstanceName: "vm1", ServiceKeyPath: "/k.json"}
}
func (f *fakeBackend) StatusDisplay() string         { return f.status.String() }
func (f *fakeBackend) LastStatus() vm.Status         { return f.status }
func (f *fakeBackend) LegalActions() []policy.Action { return f.legal() }
func (f *fakeBackend) Busy() bool                    { return f.busy }
func (f *fakeBackend) AutoPolling() bool             { return f.autoPoll }
func (f *fakeBackend) Log() []session.Entry          { return f.entries }
func (f *fakeBackend) SetAutoPoll(on bool) error     { f.autoPoll = on; return nil }

func (f *fakeBackend) legal() []policy.Action {
	if f.stale {
		return []policy.Action{policy.ActionNone}
	}
	return policy.LegalActions(f.status)
}

func (f *fakeBackend) RequestStatus() (*coordinator.Operation, error) {
	f.refreshes++
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &coordinator.Operation{Kind: vm.KindStatus}, nil
}

func (f *fakeBackend) Perform(a policy.Action) (*coordinator.Operation, error) {
	f.performed = append(f.performed, a)
	return nil, nil
}

func (f *fakeBackend) Cancel() bool {
	f.cancels++
	return f.busy
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model, cmd
}

func TestViewRunning(t *testing.T) {
	b := &fakeBackend{status: vm.StatusRunning}
	m := New(b, make(chan coordinator.Event))

	view := m.View()
	for _, want := range []string{"GCP VM Manager", "RUNNING", "1. Stop the VM", "2. Do nothing", "vm1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "3.") {
		t.Errorf("RUNNING should offer two actions:\n%s", view)
	}
}

func TestViewUnknownOffersThreeActions(t *testing.T) {
	b := &fakeBackend{status: vm.StatusTransitioning}
	view := New(b, nil).View()
	for _, want := range []string{"1. Try to start the VM", "2. Try to stop the VM", "3. Do nothing"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestChooseAction(t *testing.T) {
	b := &fakeBackend{status: vm.StatusTerminated}
	m := New(b, nil)

	m, _ = update(t, m, runeKey('1'))
	m, _ = update(t, m, runeKey('2'))
	if len(b.performed) != 2 || b.performed[0] != policy.ActionStart || b.performed[1] != policy.ActionNone {
		t.Errorf("performed = %v", b.performed)
	}

	m, _ = update(t, m, runeKey('3'))
	if len(b.performed) != 2 {
		t.Error("out-of-range choice must not perform an action")
	}
	if !strings.Contains(m.notice, "Invalid choice") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestChooseAfterCancelOffersOnlyNothing(t *testing.T) {
	b := &fakeBackend{status: vm.StatusUnknown, stale: true}
	m := New(b, nil)

	view := m.View()
	if !strings.Contains(view, "1. Do nothing") || strings.Contains(view, "2.") {
		t.Errorf("view should offer only Do nothing:\n%s", view)
	}

	m, _ = update(t, m, runeKey('2'))
	if len(b.performed) != 0 {
		t.Errorf("performed = %v, want nothing", b.performed)
	}
	if !strings.Contains(m.notice, "1-1") {
		t.Errorf("notice = %q", m.notice)
	}

	_, _ = update(t, m, runeKey('1'))
	if len(b.performed) != 1 || b.performed[0] != policy.ActionNone {
		t.Errorf("performed = %v, want [NONE]", b.performed)
	}
}

func TestRefreshBusy(t *testing.T) {
	b := &fakeBackend{status: vm.StatusRunning, requestErr: coordinator.ErrBusy}
	m := New(b, nil)

	m, _ = update(t, m, runeKey('r'))
	if b.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", b.refreshes)
	}
	if !strings.Contains(m.notice, "Busy") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestCancelAndAutoPoll(t *testing.T) {
	b := &fakeBackend{status: vm.StatusRunning, busy: true}
	m := New(b, nil)

	m, _ = update(t, m, runeKey('c'))
	if b.cancels != 1 {
		t.Errorf("cancels = %d, want 1", b.cancels)
	}

	m, _ = update(t, m, runeKey('a'))
	if !b.autoPoll {
		t.Error("auto-poll should be on")
	}
	if !strings.Contains(m.View(), "auto-refresh on") {
		t.Error("view should show auto-refresh")
	}
	_, _ = update(t, m, runeKey('a'))
	if b.autoPoll {
		t.Error("auto-poll should be off")
	}
}

func TestQuit(t *testing.T) {
	m := New(&fakeBackend{}, nil)
	_, cmd := update(t, m, runeKey('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestEventsAreAwaited(t *testing.T) {
	events := make(chan coordinator.Event, 1)
	m := New(&fakeBackend{status: vm.StatusRunning}, events)

	ev := coordinator.Failed{Message: "Error getting status: boom"}
	m, cmd := update(t, m, eventMsg{ev: ev})
	if m.notice != ev.Message {
		t.Errorf("notice = %q", m.notice)
	}
	if cmd == nil {
		t.Fatal("expected a command waiting for the next event")
	}

	events <- coordinator.StatusReported{Status: vm.StatusRunning}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if _, ok := msg.(eventMsg); !ok {
			t.Errorf("got %T, want eventMsg", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("wait command did not return")
	}

	close(events)
	if _, ok := waitForEvent(events)().(eventsClosedMsg); !ok {
		t.Error("closed stream should produce eventsClosedMsg")
	}
}

func TestViewShowsLogTail(t *testing.T) {
	b := &fakeBackend{status: vm.StatusRunning}
	for i := 0; i < logTail+3; i++ {
		b.entries = append(b.entries, session.Entry{Time: time.Now(), Message: "entry-" + string(rune('a'+i))})
	}
	view := New(b, nil).View()
	if strings.Contains(view, "entry-a") {
		t.Error("oldest entries should be trimmed")
	}
	if !strings.Contains(view, "entry-k") {
		t.Errorf("latest entry missing:\n%s", view)
	}
}
