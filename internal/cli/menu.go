package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/javanstorm/gcpvm/internal/coordinator"
	"github.com/javanstorm/gcpvm/internal/policy"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/javanstorm/gcpvm/internal/tui"
	"github.com/javanstorm/gcpvm/internal/vm"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Check the VM and choose what to do",
	Long: `Check the instance status and offer the actions that make sense for it:
stop a running VM, start a terminated one, or either when the state is
unclear.

On a terminal the menu is interactive. With --plain, or when stdin is not a
terminal, a numbered prompt is read from stdin instead.`,
	RunE: runMenu,
}

var menuPlain bool

func init() {
	menuCmd.Flags().BoolVar(&menuPlain, "plain", false, "use the numbered prompt instead of the interactive menu")
}

func runMenu(cmd *cobra.Command, args []string) error {
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

	if !menuPlain && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		events, unsubscribe := a.session.Subscribe()
		defer unsubscribe()
		return tui.Run(a.session, events)
	}
	return runPlainMenu(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.session)
}

// menuBackend is the part of *session.Session the numbered prompt uses.
type menuBackend interface {
	operator
	LastStatus() vm.Status
	Perform(policy.Action) (*coordinator.Operation, error)
}

// runPlainMenu checks the status, reads one choice and carries it out.
func runPlainMenu(ctx context.Context, in io.Reader, out io.Writer, b menuBackend) error {
	fmt.Fprintln(out, "Checking VM status...")
	// A failed query still leads to the menu, with both actions offered.
	if err := awaitOperation(ctx, out, b, b.RequestStatus, 0); err != nil && b.LastStatus() != vm.StatusError {
		return err
	}

	status := b.LastStatus()
	action, err := readChoice(bufio.NewReader(in), out, status)
	if err != nil {
		return err
	}

	if action == policy.ActionNone {
		if _, err := b.Perform(action); err != nil {
			return err
		}
		fmt.Fprintln(out, "No action taken. VM state unchanged.")
		return nil
	}
	return awaitOperation(ctx, out, b, func() (*coordinator.Operation, error) {
		return b.Perform(action)
	}, 0)
}

var errNoChoice = errors.New("no choice entered")

func readChoice(reader *bufio.Reader, out io.Writer, status vm.Status) (policy.Action, error) {
	actions := policy.LegalActions(status)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "GCP VM Manager - Action Menu")
	fmt.Fprintln(out, "============================")
	for i, a := range actions {
		fmt.Fprintf(out, "%d. %s\n", i+1, policy.Label(status, a))
	}

	for {
		fmt.Fprintf(out, "Enter your choice (1-%d): ", len(actions))
		line, err := reader.ReadString('\n')
		if n, convErr := strconv.Atoi(strings.TrimSpace(line)); convErr == nil {
			if action, ok := policy.Choose(status, n); ok {
				return action, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return policy.ActionNone, errNoChoice
			}
			return policy.ActionNone, fmt.Errorf("read choice: %w", err)
		}
		fmt.Fprintln(out, invalidChoice(len(actions)))
	}
}

func invalidChoice(n int) string {
	if n == 3 {
		return "Invalid choice. Please enter 1, 2, or 3."
	}
	return "Invalid choice. Please enter 1 or 2."
}
