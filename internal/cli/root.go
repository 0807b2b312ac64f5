// Package cli provides the gcpvm command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/javanstorm/gcpvm/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// v holds the runtime settings; flags are bound to it in init.
	v = viper.New()

	configPath    string
	timingEnabled bool
)

var rootCmd = &cobra.Command{
	Use:   "gcpvm",
	Short: "Manage a single Google Compute Engine VM",
	Long: `gcpvm checks the power state of one Compute Engine instance and starts
or stops it, authenticating with a service account key file.

The instance is chosen by a saved configuration (gcpvm config set) or by the
GCP_PROJECT_ID, GCP_ZONE, GCP_INSTANCE_NAME and GCP_SERVICE_KEY_PATH
environment variables, which take precedence over the saved file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func init() {
	config.SetDefaults(v)
	d := config.DefaultSettings()

	f := rootCmd.PersistentFlags()
	f.StringVar(&configPath, "config", "", "config file (default $HOME/.gcp-vm-manager/config.json)")
	f.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	f.String("log-file", d.LogFile, `log file, "-" for stderr`)
	f.Duration("poll-interval", d.PollInterval, "auto-refresh interval")
	f.Duration("repoll-delay", d.RepollDelay, "status re-check delay after start/stop, 0 to disable")
	f.String("nats-url", "", "publish lifecycle events to this NATS server")
	f.String("nats-subject", d.NATSSubject, "NATS subject for lifecycle events")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	f.Bool("trace", false, "write OpenTelemetry spans to stderr")
	f.BoolVar(&timingEnabled, "timing", false, "print command phase timing on exit")

	for key, flag := range map[string]string{
		"log_level":     "log-level",
		"log_file":      "log-file",
		"poll_interval": "poll-interval",
		"repoll_delay":  "repoll-delay",
		"nats_url":      "nats-url",
		"nats_subject":  "nats-subject",
		"metrics_addr":  "metrics-addr",
		"trace":         "trace",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(guiCmd)
	rootCmd.AddCommand(configCmd)
}
