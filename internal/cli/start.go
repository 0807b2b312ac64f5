package cli

import (
	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the VM",
	Long: `Ask Compute Engine to start the instance. The command returns once the
request has been accepted; the instance keeps booting afterwards.`,
	RunE: runStart,
}

var startFollow bool

func init() {
	startCmd.Flags().BoolVarP(&startFollow, "follow", "f", false, "wait for the follow-up status check")
}

func runStart(cmd *cobra.Command, args []string) error {
	return runOneShot(cmd, func(s *session.Session) func() (*coordinator.Operation, error) {
		return s.RequestStart
	}, startFollow)
}
