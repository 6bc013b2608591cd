// Package cli parses arguments and dispatches the selected mode.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/juriadams/angular-build-info/internal/config"
	"github.com/juriadams/angular-build-info/internal/emit"
	"github.com/juriadams/angular-build-info/internal/gitmeta"
	"github.com/juriadams/angular-build-info/internal/logging"
	"github.com/juriadams/angular-build-info/internal/manifest"
	"github.com/juriadams/angular-build-info/internal/policy"
	"github.com/juriadams/angular-build-info/internal/record"
	"github.com/juriadams/angular-build-info/pkg/version"
)

const usagePreamble = `Usage: build-info [flags]

Collects build metadata (git revision, committing user, package version,
generation timestamp) and writes it to a typed TypeScript constant the
front-end imports at compile time.

Flags:
`

// Execute is the entrypoint for the CLI. Returns process exit code.
//
// Only argument-class problems (unknown flags, stray positional
// arguments, unreadable configuration or policy paths) produce a
// non-zero exit; metadata-lookup and write failures are logged and the
// run still completes normally.
func Execute(args []string, stdout, stderr io.Writer) int {
	log := logging.New(stderr)

	flags := pflag.NewFlagSet("build-info", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { fmt.Fprint(stderr, usagePreamble+flags.FlagUsages()) }

	help := flags.Bool("help", false, "Print usage text and exit")
	initMode := flags.Bool("init", false, "Write a placeholder build file with sample values and exit")
	noHash := flags.Bool("no-hash", false, "Omit the git revision from the build record")
	noUser := flags.Bool("no-user", false, "Omit the committing user from the build record")
	noVersion := flags.Bool("no-version", false, "Omit the manifest version from the build record")
	noTime := flags.Bool("no-time", false, "Omit the generation timestamp from the build record")
	configPath := flags.String("config", "", "Path to a build-info.yaml configuration file")
	outPath := flags.String("out", "", "Destination path for the generated file (default \"src/build.ts\")")
	manifestPath := flags.String("manifest", "", "Path to the package manifest (default \"package.json\")")
	gitBinary := flags.String("git-binary", "", "Git binary to invoke (default \"git\")")
	gitTimeout := flags.Int("git-timeout", 0, "Timeout in seconds for git queries (default 10)")
	policyPaths := flags.StringSlice("policy", nil, "Path to a Rego policy module or directory (repeatable)")
	showVersion := flags.Bool("version", false, "Print build-info version and exit")

	if err := flags.Parse(args); err != nil {
		log.Error("invalid argument", "err", err)
		return 2
	}
	if flags.NArg() > 0 {
		log.Error("invalid argument", "err", fmt.Errorf("unexpected argument %q", flags.Arg(0)))
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	// Help performs no file I/O at all, so configuration is resolved only
	// for the modes that write the destination file. Init still takes
	// priority over help.
	if !*initMode && *help {
		fmt.Fprint(stdout, usagePreamble+flags.FlagUsages())
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load configuration", "err", err)
		return 2
	}
	if flags.Changed("out") {
		cfg.OutputPath = *outPath
	}
	if flags.Changed("manifest") {
		cfg.ManifestPath = *manifestPath
	}
	if flags.Changed("git-binary") {
		cfg.GitBinary = *gitBinary
	}
	if flags.Changed("git-timeout") {
		cfg.GitTimeoutSeconds = *gitTimeout
	}
	cfg.Policies = append(cfg.Policies, *policyPaths...)

	if *initMode {
		return runInit(log, stdout, cfg)
	}
	sel := record.Selection{
		Hash:      !*noHash,
		User:      !*noUser,
		Version:   !*noVersion,
		Timestamp: !*noTime,
	}
	return runPipeline(log, cfg, sel)
}

func runInit(log *slog.Logger, stdout io.Writer, cfg config.Config) int {
	rec := record.Placeholder(time.Now())
	writeRecord(log, cfg.OutputPath, rec)
	fmt.Fprintf(stdout, "Scaffolded a placeholder build file at %s.\n", cfg.OutputPath)
	fmt.Fprintln(stdout, "Import it from your application:")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, `    import { buildInfo } from "./build";`)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Run build-info before each build to refresh the values.")
	return 0
}

func runPipeline(log *slog.Logger, cfg config.Config, sel record.Selection) int {
	ctx := context.Background()

	var checker *policy.Checker
	if len(cfg.Policies) > 0 {
		var err error
		checker, err = policy.Load(ctx, cfg.Policies...)
		if err != nil {
			log.Error("load policies", "err", err)
			return 2
		}
	}

	source := gitmeta.Git{
		Binary:  cfg.GitBinary,
		Timeout: time.Duration(cfg.GitTimeoutSeconds) * time.Second,
		Log:     log,
	}
	extras := make([]record.Extra, 0, len(cfg.ExtraFields))
	for _, extra := range cfg.ExtraFields {
		extras = append(extras, record.Extra{Key: extra.Key, Template: extra.Value})
	}
	asm := record.Assembler{
		Source: source,
		ManifestVersion: func() record.Value {
			v, err := manifest.Version(cfg.ManifestPath)
			if err != nil {
				log.Error("resolve manifest version", "err", err)
				return record.Absent()
			}
			return record.Present(v)
		},
		Now:    time.Now,
		Extras: extras,
		Log:    log,
	}
	rec := asm.Assemble(ctx, sel)

	if checker != nil {
		violations, err := checker.Check(ctx, rec)
		if err != nil {
			log.Error("evaluate policies", "err", err)
		}
		for _, v := range violations {
			log.Error("policy violation", "policy", v.Source, "message", v.Message)
		}
	}

	writeRecord(log, cfg.OutputPath, rec)
	return 0
}

// writeRecord serializes and writes the record. Write failures are
// reported, not raised; the run still exits normally.
func writeRecord(log *slog.Logger, path string, rec record.Record) {
	if err := emit.Write(path, emit.Serialize(rec)); err != nil {
		log.Error("write build information", "path", path, "err", err)
		return
	}
	log.Info("wrote build information", "path", path)
}
