package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/javanstorm/gcpvm/internal/config"
	"github.com/javanstorm/gcpvm/internal/testutil"
)

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("GCPVM_LOG_FILE", "-")
	t.Setenv("GCPVM_LOG_LEVEL", "error")
	t.Cleanup(func() {
		configPath = ""
		setProject, setZone, setInstance, setKey = "", "", "", ""
		resetYes = false
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigShow(t *testing.T) {
	store := testutil.TestStore(t)
	cfg := testutil.TestConfig(t)
	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := execute(t, "", "config", "show", "--config", store.Path())
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"Project: proj1", "Zone: us-central1-a", "Instance: vm1", "File: " + store.Path()} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Configuration errors") {
		t.Errorf("complete config reported errors:\n%s", out)
	}
}

func TestConfigShowIncomplete(t *testing.T) {
	store := testutil.TestStore(t)

	out, err := execute(t, "", "config", "--config", store.Path())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{"Project: not set", "Configuration errors:", "Error [project_id]: is required"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigShowEnvironmentOverride(t *testing.T) {
	store := testutil.TestStore(t)
	if err := store.Save(testutil.TestConfig(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Setenv(config.EnvInstanceName, "vm-from-env")

	out, err := execute(t, "", "config", "show", "--config", store.Path())
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "Instance: vm-from-env") {
		t.Errorf("environment override not shown:\n%s", out)
	}
}

func TestConfigSetSavesBeforeCheckingKey(t *testing.T) {
	store := testutil.TestStore(t)
	missing := t.TempDir() + "/missing.json"

	out, err := execute(t, "", "config", "set", "--config", store.Path(),
		"--project", "proj2", "--zone", "europe-west1-b", "--instance", "vm2", "--key", missing)
	if err == nil || !strings.Contains(err.Error(), "unusable") {
		t.Fatalf("config set error = %v, want unusable key", err)
	}
	if !strings.Contains(out, "Configuration saved to "+store.Path()) {
		t.Errorf("output missing save message:\n%s", out)
	}

	want := config.Config{ProjectID: "proj2", Zone: "europe-west1-b", InstanceName: "vm2", ServiceKeyPath: missing}
	if got := store.Load(); got != want {
		t.Errorf("saved config = %+v, want %+v", got, want)
	}
}

func TestConfigSetRejectsIncomplete(t *testing.T) {
	store := testutil.TestStore(t)

	out, err := execute(t, "\n\n\n\n", "config", "set", "--config", store.Path(), "--project", "proj2")
	if err == nil {
		t.Fatal("config set with missing fields succeeded")
	}
	if !strings.Contains(out, "Error [zone]: is required") {
		t.Errorf("output missing field error:\n%s", out)
	}
	if _, statErr := os.Stat(store.Path()); !os.IsNotExist(statErr) {
		t.Errorf("incomplete config was written: %v", statErr)
	}
}

func TestCollectConfig(t *testing.T) {
	saved := config.Config{ProjectID: "old-proj", Zone: "old-zone", InstanceName: "old-vm", ServiceKeyPath: "/old/key.json"}
	flags := config.Config{Zone: "us-east1-b"}

	var out bytes.Buffer
	got, err := collectConfig(strings.NewReader("new-proj\n\n/new/key.json\n"), &out, saved, flags)
	if err != nil {
		t.Fatalf("collectConfig: %v", err)
	}

	want := config.Config{ProjectID: "new-proj", Zone: "us-east1-b", InstanceName: "old-vm", ServiceKeyPath: "/new/key.json"}
	if got != want {
		t.Errorf("collectConfig() = %+v, want %+v", got, want)
	}
	if !strings.Contains(out.String(), "GCP Project ID [old-proj]: ") {
		t.Errorf("prompt did not offer saved value:\n%s", out.String())
	}
	if strings.Contains(out.String(), "GCP Zone") {
		t.Errorf("prompted for a field given as a flag:\n%s", out.String())
	}
}

func TestConfigReset(t *testing.T) {
	store := testutil.TestStore(t)
	if err := store.Save(testutil.TestConfig(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := execute(t, "n\n", "config", "reset", "--config", store.Path())
	if err != nil {
		t.Fatalf("config reset: %v", err)
	}
	if !strings.Contains(out, "Configuration unchanged.") {
		t.Errorf("declined reset output:\n%s", out)
	}
	if store.Load().IsEmpty() {
		t.Fatal("declined reset cleared the config")
	}

	out, err = execute(t, "", "config", "reset", "--yes", "--config", store.Path())
	if err != nil {
		t.Fatalf("config reset --yes: %v", err)
	}
	if !strings.Contains(out, "Configuration cleared.") {
		t.Errorf("reset output:\n%s", out)
	}
	if !store.Load().IsEmpty() {
		t.Error("config still present after reset")
	}
}

func TestConfigPath(t *testing.T) {
	path := t.TempDir() + "/custom.json"

	out, err := execute(t, "", "config", "path", "--config", path)
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", strings.TrimSpace(out), path)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "gcpvm ") {
		t.Errorf("version output = %q", out)
	}
}
