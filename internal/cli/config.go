package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/javanstorm/gcpvm/internal/auth"
	"github.com/javanstorm/gcpvm/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the saved VM configuration",
	Long: `Manage the saved connection: project, zone, instance name and service
account key file. Without a subcommand the saved configuration is shown.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save a new configuration",
	Long: `Save the project, zone, instance and key file. Fields not given as flags
are prompted for, offering the saved value as the default. The key file is
checked before the command returns.

Examples:
  gcpvm config set
  gcpvm config set --project my-proj --zone us-central1-a --instance dev-box --key ~/sa.json`,
	RunE: runConfigSet,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved configuration",
	RunE:  runConfigReset,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  runConfigPath,
}

var (
	setProject  string
	setZone     string
	setInstance string
	setKey      string
	resetYes    bool
)

func init() {
	f := configSetCmd.Flags()
	f.StringVar(&setProject, "project", "", "GCP project ID")
	f.StringVar(&setZone, "zone", "", "instance zone, e.g. us-central1-a")
	f.StringVar(&setInstance, "instance", "", "instance name")
	f.StringVar(&setKey, "key", "", "path to the service account JSON key")

	configResetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	a, err := newBase()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	cfg := a.store.Resolve()
	fmt.Fprintln(out, "Current Configuration")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out, cfg.Summary())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "File: %s\n", a.store.Path())
	if err := cfg.Validate(); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprint(out, config.FormatValidationErrors(verr))
		}
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	a, err := newBase()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := collectConfig(cmd.InOrStdin(), cmd.OutOrStdout(), a.store.Load(), config.Config{
		ProjectID:      setProject,
		Zone:           setZone,
		InstanceName:   setInstance,
		ServiceKeyPath: setKey,
	})
	if err != nil {
		return err
	}
	if err := a.store.Save(cfg); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprint(cmd.ErrOrStderr(), config.FormatValidationErrors(verr))
		}
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration saved to %s\n", a.store.Path())

	h, err := auth.New(nil, a.log).Authenticate(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("configuration saved but unusable: %w", err)
	}
	fmt.Fprintf(out, "Service account: %s\n", h.Email())
	return nil
}

// collectConfig fills each field from flags, then from stdin, offering the
// saved value as the default.
func collectConfig(in io.Reader, out io.Writer, saved, flags config.Config) (config.Config, error) {
	var cfg config.Config
	reader := bufio.NewReader(in)
	fields := []struct {
		name  string
		flag  string
		saved string
		dst   *string
	}{
		{"GCP Project ID", flags.ProjectID, saved.ProjectID, &cfg.ProjectID},
		{"GCP Zone (e.g. us-central1-a)", flags.Zone, saved.Zone, &cfg.Zone},
		{"VM Instance Name", flags.InstanceName, saved.InstanceName, &cfg.InstanceName},
		{"Path to service account JSON key file", flags.ServiceKeyPath, saved.ServiceKeyPath, &cfg.ServiceKeyPath},
	}

	for _, f := range fields {
		if v := strings.TrimSpace(f.flag); v != "" {
			*f.dst = v
			continue
		}
		v, err := promptString(reader, out, f.name, f.saved)
		if err != nil {
			return config.Config{}, err
		}
		*f.dst = v
	}
	return cfg, nil
}

// promptString asks for a value; an empty answer or EOF keeps current.
func promptString(reader *bufio.Reader, out io.Writer, name, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(out, "%s [%s]: ", name, current)
	} else {
		fmt.Fprintf(out, "%s: ", name)
	}
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if line = strings.TrimSpace(line); line == "" {
		return current, nil
	}
	return line, nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	a, err := newBase()
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !resetYes {
		fmt.Fprint(out, "Delete the saved configuration? [y/N]: ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Configuration unchanged.")
			return nil
		}
	}
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Configuration cleared.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	store, err := openStore(nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), store.Path())
	return nil
}
