// Package gui is the graphical front end.
package gui

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/javanstorm/gcpvm/internal/config"
	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/policy"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/javanstorm/gcpvm/internal/vm"
	"github.com/javanstorm/gcpvm/pkg/compute"
	"go.uber.org/zap"
)

// reconfigureTimeout bounds draining and re-authenticating after a config change.
const reconfigureTimeout = 30 * time.Second

// Backend is the part of *session.Session the window uses.
type Backend interface {
	Config() config.Config
	ConfigPath() string
	Identity() string
	Configured() bool
	SetConfig(ctx context.Context, cfg config.Config) error
	ResetConfig(ctx context.Context) error

	StatusDisplay() string
	LastStatus() vm.Status
	LegalActions() []policy.Action
	Busy() bool
	AutoPolling() bool
	PollInterval() time.Duration
	RequestStatus() (*coordinator.Operation, error)
	Perform(policy.Action) (*coordinator.Operation, error)
	Cancel() bool
	SetAutoPoll(bool) error
	Subscribe() (<-chan coordinator.Event, func())
	Log() []session.Entry
}

type ui struct {
	backend Backend
	log     *zap.Logger
	win     fyne.Window

	configLabel *widget.Label
	statusText  *canvas.Text
	progress    *widget.ProgressBarInfinite
	refreshBtn  *widget.Button
	startBtn    *widget.Button
	stopBtn     *widget.Button
	cancelBtn   *widget.Button
	autoBtn     *widget.Button
	logView     *widget.Label
	logScroll   *container.Scroll
}

func newUI(backend Backend, win fyne.Window, log *zap.Logger) *ui {
	u := &ui{backend: backend, win: win, log: log}

	u.configLabel = widget.NewLabel("")
	u.statusText = canvas.NewText("", colorOther)
	u.statusText.TextStyle = fyne.TextStyle{Bold: true}
	u.statusText.TextSize = 16
	u.progress = widget.NewProgressBarInfinite()
	u.progress.Hide()

	u.refreshBtn = widget.NewButton("Refresh Status", u.onRefresh)
	u.startBtn = widget.NewButton("Start VM", func() { u.onPerform(policy.ActionStart) })
	u.stopBtn = widget.NewButton("Stop VM", func() { u.onPerform(policy.ActionStop) })
	u.cancelBtn = widget.NewButton("Cancel", u.onCancel)
	u.autoBtn = widget.NewButton("", u.onToggleAutoPoll)

	u.logView = widget.NewLabel("")
	u.logView.Wrapping = fyne.TextWrapWord
	u.logScroll = container.NewVScroll(u.logView)
	u.logScroll.SetMinSize(fyne.NewSize(0, 180))

	return u
}

func (u *ui) content() fyne.CanvasObject {
	configBox := widget.NewCard("Configuration", "", container.NewVBox(
		u.configLabel,
		container.NewHBox(
			widget.NewButton("Configure...", u.onConfigure),
			widget.NewButton("Reset", u.onReset),
		),
	))
	statusBox := widget.NewCard("VM Status", "", container.NewVBox(
		container.NewHBox(u.statusText),
		u.progress,
	))
	actions := widget.NewCard("Actions", "", container.NewGridWithColumns(3, u.refreshBtn, u.startBtn, u.stopBtn))
	refresh := widget.NewCard("Auto-Refresh", "", container.NewGridWithColumns(2, u.autoBtn, u.cancelBtn))
	logBox := widget.NewCard("Activity Log", "", u.logScroll)

	return container.NewBorder(
		container.NewVBox(configBox, statusBox, actions, refresh),
		nil, nil, nil,
		logBox,
	)
}

// render sets every widget from the backend. Must run on the fyne goroutine.
func (u *ui) render() {
	s := computeState(u.backend)

	u.configLabel.SetText(u.configText())
	u.statusText.Text = s.status
	u.statusText.Color = s.color
	u.statusText.Refresh()

	if s.busy {
		u.progress.Show()
		u.progress.Start()
	} else {
		u.progress.Stop()
		u.progress.Hide()
	}

	setEnabled(u.refreshBtn, s.refresh)
	setEnabled(u.startBtn, s.start)
	setEnabled(u.stopBtn, s.stop)
	setEnabled(u.cancelBtn, s.cancel)
	setEnabled(u.autoBtn, s.configured)
	u.autoBtn.SetText(s.autoLabel)

	entries := u.backend.Log()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	u.logView.SetText(strings.Join(lines, "\n"))
	u.logScroll.ScrollToBottom()
}

func (u *ui) configText() string {
	cfg := u.backend.Config()
	text := cfg.Summary()
	if id := u.backend.Identity(); id != "" {
		text += "\nService Account: " + id
	}
	return text + "\nStored in: " + u.backend.ConfigPath()
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (u *ui) onRefresh() {
	u.report(u.backend.RequestStatus())
}

func (u *ui) onPerform(a policy.Action) {
	u.report(u.backend.Perform(a))
}

func (u *ui) onCancel() {
	u.backend.Cancel()
	u.render()
}

func (u *ui) onToggleAutoPoll() {
	if err := u.backend.SetAutoPoll(!u.backend.AutoPolling()); err != nil {
		dialog.ShowError(err, u.win)
	}
	u.render()
}

func (u *ui) report(_ *coordinator.Operation, err error) {
	if err != nil {
		u.log.Debug("request rejected", zap.Error(err))
	}
	u.render()
}

func (u *ui) onConfigure() {
	cfg := u.backend.Config()
	project := widget.NewEntry()
	project.SetText(cfg.ProjectID)
	project.SetPlaceHolder("my-project")
	zone := widget.NewEntry()
	zone.SetText(cfg.Zone)
	zone.SetPlaceHolder("us-central1-a")
	instance := widget.NewEntry()
	instance.SetText(cfg.InstanceName)
	keyPath := widget.NewEntry()
	keyPath.SetText(cfg.ServiceKeyPath)
	keyPath.SetPlaceHolder("/path/to/service-account.json")

	items := []*widget.FormItem{
		widget.NewFormItem("Project ID", project),
		widget.NewFormItem("Zone", zone),
		widget.NewFormItem("Instance Name", instance),
		widget.NewFormItem("Service Key Path", u.keyPathRow(keyPath)),
	}
	d := dialog.NewForm("Configure GCP VM Manager", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		next := config.Config{
			ProjectID:      strings.TrimSpace(project.Text),
			Zone:           strings.TrimSpace(zone.Text),
			InstanceName:   strings.TrimSpace(instance.Text),
			ServiceKeyPath: strings.TrimSpace(keyPath.Text),
		}
		u.applyConfig(next)
	}, u.win)
	d.Resize(fyne.NewSize(520, 0))
	d.Show()
}

// keyPathRow puts a Browse button beside the key path entry.
func (u *ui) keyPathRow(entry *widget.Entry) *fyne.Container {
	browse := widget.NewButton("Browse...", func() { u.browseKey(entry) })
	return container.NewBorder(nil, nil, nil, browse, entry)
}

// browseKey picks a JSON key file and puts its path into entry.
func (u *ui) browseKey(entry *widget.Entry) {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.win)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()
		entry.SetText(reader.URI().Path())
	}, u.win)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

// applyConfig runs the reconfiguration off the fyne goroutine since it
// drains the previous controller and authenticates.
func (u *ui) applyConfig(cfg config.Config) {
	if err := cfg.Validate(); err != nil {
		msg := err.Error()
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			msg = config.FormatValidationErrors(verr)
		}
		dialog.ShowInformation("Configuration Error", msg, u.win)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconfigureTimeout)
		defer cancel()
		err := u.backend.SetConfig(ctx, cfg)
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, u.win)
			} else {
				_, _ = u.backend.RequestStatus()
			}
			u.render()
		})
	}()
}

func (u *ui) onReset() {
	dialog.ShowConfirm("Reset Configuration",
		"Clear the saved configuration? You will need to configure the application again.",
		func(ok bool) {
			if !ok {
				return
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), reconfigureTimeout)
				defer cancel()
				err := u.backend.ResetConfig(ctx)
				fyne.Do(func() {
					if err != nil {
						dialog.ShowError(err, u.win)
					}
					u.render()
				})
			}()
		}, u.win)
}

// watch re-renders on every event until the subscription ends.
func (u *ui) watch(events <-chan coordinator.Event) {
	for ev := range events {
		if f, ok := ev.(coordinator.Failed); ok && isConnectionProblem(f.Err) {
			msg := f.Message
			fyne.Do(func() {
				dialog.ShowInformation("Connection Error",
					msg+"\n\nPlease check your configuration and network connection.", u.win)
			})
		}
		fyne.Do(u.render)
	}
}

// isConnectionProblem reports whether err calls for checking the
// configuration or the network rather than just retrying.
func isConnectionProblem(err error) bool {
	var cause compute.Cause
	var qerr *vm.QueryError
	var derr *vm.DispatchError
	switch {
	case errors.As(err, &qerr):
		cause = qerr.Cause
	case errors.As(err, &derr):
		cause = derr.Cause
	default:
		return false
	}
	switch cause {
	case compute.CauseNetwork, compute.CausePermission, compute.CauseCredential:
		return true
	default:
		return false
	}
}

// Run opens the window and blocks until it is closed. onClose runs once
// before the app quits, from either the window or SIGINT/SIGTERM.
func Run(backend Backend, log *zap.Logger, onClose func()) {
	if log == nil {
		log = zap.NewNop()
	}
	a := app.NewWithID("com.javanstorm.gcpvm")
	w := a.NewWindow("GCP VM Manager")
	w.Resize(fyne.NewSize(640, 720))

	u := newUI(backend, w, log.Named("gui"))
	w.SetContent(u.content())
	u.render()

	events, unsubscribe := backend.Subscribe()
	go u.watch(events)

	var once sync.Once
	quit := func() {
		once.Do(func() {
			unsubscribe()
			if onClose != nil {
				onClose()
			}
			a.Quit()
		})
	}
	w.SetCloseIntercept(quit)

	// First SIGINT/SIGTERM closes gracefully, a second one forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fyne.Do(quit)
		<-sigCh
		os.Exit(1)
	}()

	if backend.Configured() {
		_, _ = backend.RequestStatus()
	}
	w.ShowAndRun()
}
