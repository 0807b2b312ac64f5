package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the VM status periodically",
	Long: `Query the instance status now and then every --poll-interval, printing each
result until interrupted. Ticks that fall while a query is still running are
skipped.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if a != nil {
		defer a.Close()
	}
	if err != nil {
		return err
	}
	if !a.session.Configured() {
		return fmt.Errorf("%w (run 'gcpvm config set')", session.ErrNotConfigured)
	}

	events, unsubscribe := a.session.Subscribe()
	defer unsubscribe()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s every %s (Ctrl+C to stop)\n", a.session.Config().InstanceName, a.session.PollInterval())

	if _, err := a.session.RequestStatus(); err != nil {
		return err
	}
	if err := a.session.SetAutoPoll(true); err != nil {
		return err
	}

	ctx := cmd.Context()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			printEvent(out, time.Now(), ev)
		case <-ctx.Done():
			a.session.Cancel()
			fmt.Fprintln(out, "Stopped watching")
			return nil
		}
	}
}

func printEvent(w io.Writer, at time.Time, ev coordinator.Event) {
	fmt.Fprintf(w, "[%s] %s\n", at.Format("15:04:05"), formatEvent(ev))
}
