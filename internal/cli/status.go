package cli

import (
	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the VM power state",
	Long:  `Query Compute Engine once and print the instance status: RUNNING, TERMINATED, TRANSITIONING or UNKNOWN.`,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	return runOneShot(cmd, func(s *session.Session) func() (*coordinator.Operation, error) {
		return s.RequestStatus
	}, false)
}
