package gui

import (
	"fmt"
	"image/color"
	"time"

	"github.com/javanstorm/gcpvm/internal/policy"
	"github.com/javanstorm/gcpvm/internal/vm"
)

var (
	colorRunning    = color.NRGBA{R: 0x2e, G: 0x9e, B: 0x44, A: 0xff}
	colorTerminated = color.NRGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}
	colorOther      = color.NRGBA{R: 0xef, G: 0x8a, B: 0x00, A: 0xff}
)

// viewState is what the window shows, derived from the backend in one place
// so the widgets are only ever set from it.
type viewState struct {
	status     string
	color      color.Color
	configured bool
	busy       bool
	refresh    bool
	start      bool
	stop       bool
	cancel     bool
	autoPoll   bool
	autoLabel  string
}

func computeState(b Backend) viewState {
	last := b.LastStatus()
	configured := b.Configured()
	busy := b.Busy()
	autoPoll := b.AutoPolling()

	s := viewState{
		status:     b.StatusDisplay(),
		color:      statusColor(last),
		configured: configured,
		busy:       busy,
		autoPoll:   autoPoll,
	}
	if !configured {
		s.status = "Not configured"
		s.color = colorOther
	}

	idle := configured && !busy
	s.refresh = idle
	for _, a := range b.LegalActions() {
		switch a {
		case policy.ActionStart:
			s.start = idle
		case policy.ActionStop:
			s.stop = idle
		}
	}
	s.cancel = busy || autoPoll

	if autoPoll {
		s.autoLabel = "Stop Auto-Refresh"
	} else {
		s.autoLabel = fmt.Sprintf("Start Auto-Refresh (%s)", shortDuration(b.PollInterval()))
	}
	return s
}

func statusColor(s vm.Status) color.Color {
	switch s {
	case vm.StatusRunning:
		return colorRunning
	case vm.StatusTerminated, vm.StatusError:
		return colorTerminated
	default:
		return colorOther
	}
}

func shortDuration(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.String()
}
