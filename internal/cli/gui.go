package cli

import (
	"github.com/javanstorm/gcpvm/internal/gui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open the graphical VM manager",
	Long: `Open a window showing the configuration, the VM status and the session log,
with buttons to refresh, start, stop, cancel and toggle auto-refresh.

The window opens even when the configuration is missing or its key file is
unusable; use Configure to fix it.`,
	RunE: runGUI,
}

func runGUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if a == nil {
		return err
	}
	defer a.Close()
	if err != nil {
		a.log.Warn("starting unconfigured", zap.Error(err))
	}

	a.timer.Mark("startup")
	gui.Run(a.session, a.log, nil)
	return nil
}
