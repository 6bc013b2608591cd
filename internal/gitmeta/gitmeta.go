// Package gitmeta resolves build metadata from the local git checkout.
package gitmeta

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/juriadams/angular-build-info/internal/record"
)

// DefaultTimeout bounds each git invocation. The queries are tiny; a
// hanging git process must not hang the whole run.
const DefaultTimeout = 10 * time.Second

// Git answers metadata queries by shelling out to the git binary. Any
// failure, including a missing binary, a non-zero exit, output on the
// error channel, or the deadline expiring, is logged and reported as an
// absent value; it never aborts the run.
type Git struct {
	Binary  string
	Dir     string
	Timeout time.Duration
	Log     *slog.Logger
}

// CurrentUser resolves the committing user via `git config user.name`.
func (g Git) CurrentUser(ctx context.Context) record.Value {
	return g.query(ctx, "config", "user.name")
}

// CurrentRevision resolves the short revision hash via
// `git rev-parse --short HEAD`.
func (g Git) CurrentRevision(ctx context.Context) record.Value {
	return g.query(ctx, "rev-parse", "--short", "HEAD")
}

func (g Git) query(ctx context.Context, args ...string) record.Value {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	binary := strings.TrimSpace(g.Binary)
	if binary == "" {
		binary = "git"
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	if g.Dir != "" {
		cmd.Dir = g.Dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		g.logger().Error("git query timed out", "args", strings.Join(args, " "), "timeout", timeout)
		return record.Absent()
	}
	if err != nil || strings.TrimSpace(stderr.String()) != "" {
		g.logger().Error("git query failed", "args", strings.Join(args, " "), "err", err, "stderr", trimOutput(stderr.Bytes()))
		return record.Absent()
	}
	return record.Present(strings.TrimRight(stdout.String(), "\r\n"))
}

func (g Git) logger() *slog.Logger {
	if g.Log == nil {
		return slog.Default()
	}
	return g.Log
}

func trimOutput(output []byte) string {
	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > 280 {
		return trimmed[:280] + "..."
	}
	return trimmed
}
