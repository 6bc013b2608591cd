package gitmeta

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juriadams/angular-build-info/internal/logging"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fakegit")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCurrentUserStripsTrailingNewline(t *testing.T) {
	script := writeScript(t, "echo \"Jane Doe\"\n")
	g := Git{Binary: script, Log: logging.Nop()}
	v := g.CurrentUser(context.Background())
	if !v.OK {
		t.Fatalf("expected present value, got %+v", v)
	}
	if v.Str != "Jane Doe" {
		t.Fatalf("expected trimmed output, got %q", v.Str)
	}
}

func TestCurrentRevision(t *testing.T) {
	script := writeScript(t, "echo abc1234\n")
	g := Git{Binary: script, Log: logging.Nop()}
	v := g.CurrentRevision(context.Background())
	if !v.OK || v.Str != "abc1234" {
		t.Fatalf("expected abc1234, got %+v", v)
	}
}

func TestNonZeroExitYieldsAbsent(t *testing.T) {
	g := Git{Binary: "false", Log: logging.Nop()}
	if v := g.CurrentUser(context.Background()); v.OK {
		t.Fatalf("expected absent value for failing command, got %+v", v)
	}
}

func TestStderrOutputYieldsAbsent(t *testing.T) {
	script := writeScript(t, "echo ok\necho \"fatal: not a git repository\" >&2\nexit 0\n")
	g := Git{Binary: script, Log: logging.Nop()}
	if v := g.CurrentRevision(context.Background()); v.OK {
		t.Fatalf("expected absent value when error channel is non-empty, got %+v", v)
	}
}

func TestMissingBinaryYieldsAbsent(t *testing.T) {
	g := Git{Binary: filepath.Join(t.TempDir(), "nope"), Log: logging.Nop()}
	if v := g.CurrentUser(context.Background()); v.OK {
		t.Fatalf("expected absent value for missing binary, got %+v", v)
	}
}

func TestTimeoutYieldsAbsent(t *testing.T) {
	script := writeScript(t, "sleep 2\necho late\n")
	g := Git{Binary: script, Timeout: 50 * time.Millisecond, Log: logging.Nop()}
	start := time.Now()
	v := g.CurrentRevision(context.Background())
	if v.OK {
		t.Fatalf("expected absent value on timeout, got %+v", v)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected the deadline to cut the query short, took %s", elapsed)
	}
}
