package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/javanstorm/gcpvm/internal/auth"
	"github.com/javanstorm/gcpvm/internal/policy"
	"github.com/javanstorm/gcpvm/internal/session"
	"github.com/javanstorm/gcpvm/internal/testutil"
	"github.com/javanstorm/gcpvm/internal/vm"
	"github.com/javanstorm/gcpvm/pkg/compute"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2/google"
)

// newTestSession returns a configured session backed by a fake API. The
// follow-up status poll is disabled so each request yields one event.
func newTestSession(t *testing.T, status string) (*session.Session, *testutil.FakeAPI) {
	t.Helper()
	return newRepollingSession(t, status, 0)
}

// newRepollingSession is newTestSession with the follow-up status poll
// running repoll after each accepted start/stop.
func newRepollingSession(t *testing.T, status string, repoll time.Duration) (*session.Session, *testutil.FakeAPI) {
	t.Helper()

	api := testutil.NewFakeAPI(status)
	log := zaptest.NewLogger(t)
	factory := func(ctx context.Context, creds *google.Credentials) (compute.API, error) {
		return api, nil
	}
	sess := session.New(session.Options{
		Store:         testutil.TestStore(t),
		Authenticator: auth.New(factory, log),
		Logger:        log,
		RepollDelay:   repoll,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = sess.Close(ctx)
	})
	if err := sess.SetConfig(context.Background(), testutil.TestConfig(t)); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	return sess, api
}

func TestReadChoice(t *testing.T) {
	tests := []struct {
		name    string
		status  vm.Status
		input   string
		want    policy.Action
		wantErr bool
		wantOut []string
	}{
		{
			name:    "stop running vm",
			status:  vm.StatusRunning,
			input:   "1\n",
			want:    policy.ActionStop,
			wantOut: []string{"GCP VM Manager - Action Menu", "1. Stop the VM", "2. Do nothing", "Enter your choice (1-2): "},
		},
		{
			name:    "retry after invalid choice",
			status:  vm.StatusTerminated,
			input:   "7\nabc\n1\n",
			want:    policy.ActionStart,
			wantOut: []string{"1. Start the VM", "Invalid choice. Please enter 1 or 2."},
		},
		{
			name:    "three options when state is unclear",
			status:  vm.StatusTransitioning,
			input:   "4\n2\n",
			want:    policy.ActionStop,
			wantOut: []string{"1. Try to start the VM", "2. Try to stop the VM", "3. Do nothing", "Invalid choice. Please enter 1, 2, or 3."},
		},
		{
			name:   "last line without newline",
			status: vm.StatusRunning,
			input:  "2",
			want:   policy.ActionNone,
		},
		{
			name:    "no input",
			status:  vm.StatusRunning,
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := readChoice(bufio.NewReader(strings.NewReader(tt.input)), &out, tt.status)
			if tt.wantErr {
				if !errors.Is(err, errNoChoice) {
					t.Fatalf("readChoice() error = %v, want errNoChoice", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("readChoice() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("readChoice() = %s, want %s", got, tt.want)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestPlainMenuStopsRunningVM(t *testing.T) {
	sess, api := newTestSession(t, "RUNNING")

	var out bytes.Buffer
	if err := runPlainMenu(context.Background(), strings.NewReader("1\n"), &out, sess); err != nil {
		t.Fatalf("runPlainMenu: %v\n%s", err, out.String())
	}

	for _, want := range []string{"VM Status: RUNNING", "1. Stop the VM", "VM stop operation initiated successfully"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	calls := api.Calls()
	if len(calls) != 2 || calls[1] != "stop vm1" {
		t.Errorf("API calls = %v, want [get vm1, stop vm1]", calls)
	}
}

func TestPlainMenuDoNothing(t *testing.T) {
	sess, api := newTestSession(t, "TERMINATED")

	var out bytes.Buffer
	if err := runPlainMenu(context.Background(), strings.NewReader("2\n"), &out, sess); err != nil {
		t.Fatalf("runPlainMenu: %v", err)
	}
	if !strings.Contains(out.String(), "No action taken. VM state unchanged.") {
		t.Errorf("output missing no-op message:\n%s", out.String())
	}
	if calls := api.Calls(); len(calls) != 1 {
		t.Errorf("API calls = %v, want only the status query", calls)
	}
}

func TestPlainMenuAfterFailedQuery(t *testing.T) {
	sess, api := newTestSession(t, "RUNNING")
	api.FailGet(errors.New("connection reset"))

	var out bytes.Buffer
	if err := runPlainMenu(context.Background(), strings.NewReader("3\n"), &out, sess); err != nil {
		t.Fatalf("runPlainMenu: %v", err)
	}
	for _, want := range []string{"Error getting status", "1. Try to start the VM", "No action taken."} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestAwaitOperationCancelled(t *testing.T) {
	sess, api := newTestSession(t, "RUNNING")
	release := api.Block()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	var out bytes.Buffer
	err := awaitOperation(ctx, &out, sess, sess.RequestStart, 0)
	if !errors.Is(err, errCancelled) {
		t.Fatalf("awaitOperation() error = %v, want errCancelled", err)
	}
	if sess.StatusDisplay() != "CANCELLED" {
		t.Errorf("StatusDisplay() = %q, want CANCELLED", sess.StatusDisplay())
	}
	if sess.Busy() {
		t.Error("session still busy after cancel")
	}
}

func TestAwaitOperationStatus(t *testing.T) {
	sess, _ := newTestSession(t, "TERMINATED")

	var out bytes.Buffer
	if err := awaitOperation(context.Background(), &out, sess, sess.RequestStatus, 0); err != nil {
		t.Fatalf("awaitOperation: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "VM Status: TERMINATED" {
		t.Errorf("output = %q, want VM Status: TERMINATED", got)
	}
}

func TestAwaitOperationFollowReportsStatus(t *testing.T) {
	sess, _ := newRepollingSession(t, "TERMINATED", 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := awaitOperation(ctx, &out, sess, sess.RequestStart, time.Second); err != nil {
		t.Fatalf("awaitOperation: %v\n%s", err, out.String())
	}
	// The fake reports STAGING once a start has been accepted.
	for _, want := range []string{"VM start operation initiated successfully", "Waiting for status update...", "VM Status: TRANSITIONING"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestAwaitOperationFollowFailedStatus(t *testing.T) {
	sess, api := newRepollingSession(t, "RUNNING", 10*time.Millisecond)
	api.FailGet(errors.New("boom"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out bytes.Buffer
	err := awaitOperation(ctx, &out, sess, sess.RequestStop, time.Second)
	if err == nil || errors.Is(err, errCancelled) {
		t.Fatalf("awaitOperation() error = %v, want the status failure", err)
	}
	if !strings.Contains(out.String(), "Error getting status") {
		t.Errorf("output missing status failure:\n%s", out.String())
	}
	if ctx.Err() != nil {
		t.Error("returned only because the context expired")
	}
}

func TestAwaitOperationFollowWithoutRepoll(t *testing.T) {
	sess, api := newTestSession(t, "RUNNING")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := awaitOperation(ctx, &out, sess, sess.RequestStop, 20*time.Millisecond); err != nil {
		t.Fatalf("awaitOperation: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "VM Status: TRANSITIONING") {
		t.Errorf("output missing status:\n%s", out.String())
	}
	if calls := api.Calls(); len(calls) != 2 || calls[1] != "get vm1" {
		t.Errorf("API calls = %v, want [stop vm1, get vm1]", calls)
	}
}
