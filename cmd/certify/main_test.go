package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "certify ") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestImportExportCommands(t *testing.T) {
	t.Setenv("CERTIFY_SESSION_SECRET", "test-secret")
	t.Setenv("CERTIFY_ADMIN_PASSWORD", "test-password")
	t.Setenv("CERTIFY_LOG_LEVEL", "error")
	t.Setenv("CERTIFY_REMOTE_DSN", "")
	dir := t.TempDir()
	db := filepath.Join(dir, "certify.db")
	src := filepath.Join(dir, "src")
	if err := dataset.WriteDir(src, testutil.SampleBundle()); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "import", src, "--db", db, "--env", "")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "Imported 4 participants") {
		t.Errorf("unexpected import output %q", out)
	}

	dst := filepath.Join(dir, "out")
	if _, err := runCLI(t, "export", dst, "--db", db, "--env", ""); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, dataset.ParticipantsFile)); err != nil {
		t.Errorf("expected exported participants file: %v", err)
	}
}

func TestPushWithoutCloud(t *testing.T) {
	t.Setenv("CERTIFY_REMOTE_DSN", "")
	t.Setenv("CERTIFY_LOG_LEVEL", "error")
	db := filepath.Join(t.TempDir(), "certify.db")

	if _, err := runCLI(t, "push", "--db", db, "--env", ""); err == nil {
		t.Error("expected push to fail without a cloud store")
	}
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("CERTIFY_LOG_FORMAT", "xml")
	db := filepath.Join(t.TempDir(), "certify.db")

	if _, err := runCLI(t, "import", "--db", db, "--env", ""); err == nil {
		t.Error("expected invalid configuration to be rejected")
	}
}

func TestHandleKey(t *testing.T) {
	appLog := logger.NewWithWriter(&bytes.Buffer{}, logger.ParseLevel("info"))

	if !handleKey("h", "", appLog) || !appLog.IsHTTPLoggingEnabled() {
		t.Error("expected h to enable HTTP logging")
	}
	handleKey("H", "", appLog)
	if appLog.IsHTTPLoggingEnabled() {
		t.Error("expected H to toggle HTTP logging off")
	}

	handleKey("l", "", appLog)
	if appLog.GetLevel().String() != "WARN" {
		t.Errorf("expected warn after cycling from info, got %s", appLog.GetLevel())
	}

	if handleKey("q", "", appLog) {
		t.Error("expected q to stop the server")
	}
	if !handleKey("z", "", appLog) {
		t.Error("expected unknown keys to be ignored")
	}
}
