package cli

import (
	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the VM",
	Long: `Ask Compute Engine to stop the instance. The command returns once the
request has been accepted; the instance keeps shutting down afterwards.`,
	RunE: runStop,
}

var stopFollow bool

func init() {
	stopCmd.Flags().BoolVarP(&stopFollow, "follow", "f", false, "wait for the follow-up status check")
}

func runStop(cmd *cobra.Command, args []string) error {
	return runOneShot(cmd, func(s *session.Session) func() (*coordinator.Operation, error) {
		return s.RequestStop
	}, stopFollow)
}
