// Package cli implements the anchor command line.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/toyz/anchor/internal/cache"
	"github.com/toyz/anchor/internal/config"
	"github.com/toyz/anchor/internal/report"
	"github.com/toyz/anchor/internal/scanner"
	"github.com/toyz/anchor/internal/server"
	"github.com/toyz/anchor/pkg/anchor"
	"github.com/toyz/anchor/pkg/anchor/container"
	"github.com/toyz/anchor/pkg/anchor/factory"
	"github.com/toyz/anchor/pkg/anchor/store"
)

// Exit codes
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// command is one sub-command. run is invoked through the dig container, so
// its parameters are resolved by type.
type command struct {
	name    string
	summary string
	flags   func(fs *flag.FlagSet, flags *commandFlags)
	run     func(ctx context.Context, flags *commandFlags) interface{}
}

// commandFlags holds the flags specific to one command
type commandFlags struct {
	emit bool
	json bool
}

func commands() []command {
	return []command{
		{
			name:    "compile",
			summary: "Scan annotations, compile the definition and cache it",
			flags: func(fs *flag.FlagSet, flags *commandFlags) {
				fs.BoolVar(&flags.emit, "emit", false, "Also write the Go registration file (output.file)")
			},
			run: runCompile,
		},
		{
			name:    "validate",
			summary: "Resolve the definition for the active profiles and report errors",
			run:     runValidate,
		},
		{
			name:    "inspect",
			summary: "Print the definition resolved for the active profiles",
			flags: func(fs *flag.FlagSet, flags *commandFlags) {
				fs.BoolVar(&flags.json, "json", false, "Print JSON instead of text")
			},
			run: runInspect,
		},
		{
			name:    "watch",
			summary: "Recompile whenever a source file changes",
			flags: func(fs *flag.FlagSet, flags *commandFlags) {
				fs.BoolVar(&flags.emit, "emit", false, "Also write the Go registration file on every compile")
			},
			run: runWatch,
		},
		{
			name:    "serve",
			summary: "Serve the resolved definition over HTTP",
			run:     runServe,
		},
		{
			name:    "clean",
			summary: "Remove the cache and generated files",
			run:     runClean,
		},
	}
}

// Run executes the command line args (without the program name) and returns
// the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return ExitUsage
	}

	name := args[0]
	switch name {
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return ExitOK
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "anchor %s\n", anchor.Version)
		return ExitOK
	}

	var cmd *command
	for _, candidate := range commands() {
		if candidate.name == name {
			c := candidate
			cmd = &c
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", name)
		usage(stderr)
		return ExitUsage
	}

	var opts Options
	var flags commandFlags
	fs := flag.NewFlagSet("anchor "+cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	registerOptions(fs, &opts)
	if cmd.flags != nil {
		cmd.flags(fs, &flags)
	}
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: anchor %s [options] [directory-patterns...]\n\n%s.\n\nOptions:\n", cmd.name, cmd.summary)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return ExitOK
		}
		return ExitUsage
	}
	opts.Directories = fs.Args()

	streams := Streams{Out: stdout, Err: stderr}
	c, err := newContainer(opts, streams)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}

	err = c.Invoke(cmd.run(ctx, &flags))
	if err != nil {
		d := NewDiagnosticSystem(opts.level(), stdout, stderr)
		d.ReportError(fmt.Sprintf("anchor %s failed", cmd.name), dig.RootCause(err))
		return ExitError
	}
	return ExitOK
}

func registerOptions(fs *flag.FlagSet, opts *Options) {
	fs.StringVar(&opts.ConfigPath, "config", "", "Configuration file (default: anchor.yaml, anchor.yml or anchor.toml if present)")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose output and detailed error reporting")
	fs.BoolVar(&opts.Quiet, "quiet", false, "Only show errors and final results")
	fs.BoolVar(&opts.Debug, "debug", false, "Enable debug output and debug logging")
	fs.StringVar(&opts.Profiles, "profiles", "", "Comma-separated active profiles (default: default)")
	fs.StringVar(&opts.Module, "module", "", "Module path used for import paths (defaults to go.mod)")
	fs.StringVar(&opts.CacheDir, "cache-dir", "", "Directory compiled definitions are cached in")
	fs.BoolVar(&opts.NoCache, "no-cache", false, "Neither read nor write the cache")
	fs.StringVar(&opts.Output, "output", "", "Generated Go file")
	fs.StringVar(&opts.Package, "package", "", "Package clause of the generated Go file")
	fs.StringVar(&opts.Addr, "addr", "", "Address the inspection server listens on")
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: anchor <command> [options] [directory-patterns...]\n\n")
	fmt.Fprintf(w, "Anchor compiles //anchor:: annotations into a container definition.\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands() {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(w, "  %-10s %s\n", "version", "Print the anchor version")
	fmt.Fprintf(w, "\nDirectory Patterns:\n")
	fmt.Fprintf(w, "  ./...              Scan current directory and all subdirectories recursively\n")
	fmt.Fprintf(w, "  ./internal/...     Scan internal directory and all its subdirectories\n")
	fmt.Fprintf(w, "  ./pkg/services     Scan only the specific directory (no recursion)\n")
	fmt.Fprintf(w, "\nRun 'anchor <command> -help' for the options of a command.\n")
}

func runCompile(ctx context.Context, flags *commandFlags) interface{} {
	return func(compiler *Compiler, d *DiagnosticSystem) error {
		d.Section("Anchor: compile")
		comp, err := compiler.Compile(ctx, flags.emit)
		if err != nil {
			return err
		}
		d.SetRunID(comp.RunID)
		summarize(d, comp)

		if flags.emit {
			path, err := compiler.Emit(comp)
			if err != nil {
				return err
			}
			d.Success("Wrote %s", path)
		}
		return nil
	}
}

func summarize(d *DiagnosticSystem, comp *Compilation) {
	def := comp.Definition
	source := "scanned"
	if comp.CacheHit {
		source = "cache"
	}
	d.Summary("Compilation complete", map[string]interface{}{
		"Source files": len(comp.Files),
		"Services":     len(def.ServiceDefinitions()),
		"Aliases":      len(def.AliasDefinitions()),
		"Delegates":    len(def.ServiceDelegateDefinitions()),
		"Prepares":     len(def.ServicePrepareDefinitions()),
		"Injects":      len(def.InjectDefinitions()),
		"Loaded from":  source,
	})
	if comp.CachePath != "" {
		d.Verbose("Cache entry %s", comp.CachePath)
	}
	d.Verbose("Run %s finished in %s", comp.RunID, comp.Duration)
}

// resolve compiles and builds the factory state for the configured profiles
func resolve(ctx context.Context, compiler *Compiler, cfg *config.Config, stores store.Stores, logger *zap.Logger) (*factory.State, error) {
	comp, err := compiler.Compile(ctx, false)
	if err != nil {
		return nil, err
	}
	f := factory.New(container.NewAdapter(container.NewCatalog()),
		factory.WithStores(stores),
		factory.WithLogger(logger))
	return f.State(comp.Definition, cfg.Profiles...)
}

func runValidate(ctx context.Context, _ *commandFlags) interface{} {
	return func(compiler *Compiler, cfg *config.Config, stores store.Stores, logger *zap.Logger, d *DiagnosticSystem) error {
		d.Section("Anchor: validate")
		state, err := resolve(ctx, compiler, cfg, stores, logger)
		if err != nil {
			return err
		}

		r := report.FromState(state)
		unresolved := 0
		for _, alias := range r.Aliases {
			if alias.Error != "" {
				d.Warn("%s", alias.Error)
				unresolved++
			}
		}
		d.Summary("Definition is valid", map[string]interface{}{
			"Profiles":           strings.Join(r.Profiles, ","),
			"Active services":    len(r.Services),
			"Unresolved aliases": unresolved,
		})
		return nil
	}
}

func runInspect(ctx context.Context, flags *commandFlags) interface{} {
	return func(compiler *Compiler, cfg *config.Config, stores store.Stores, logger *zap.Logger, d *DiagnosticSystem) error {
		state, err := resolve(ctx, compiler, cfg, stores, logger)
		if err != nil {
			return err
		}

		r := report.FromState(state)
		if flags.json {
			data, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return err
			}
			d.Print("%s\n", data)
			return nil
		}
		printReport(d, r)
		return nil
	}
}

func printReport(d *DiagnosticSystem, r *report.Report) {
	d.Print("Profiles: %s\n", strings.Join(r.Profiles, ", "))

	d.Print("\nServices (%d):\n", len(r.Services))
	for _, service := range r.Services {
		line := fmt.Sprintf("  %s [%s]", service.Type, service.Kind)
		if service.Name != "" {
			line += " name=" + service.Name
		}
		line += " profiles=" + strings.Join(service.Profiles, ",")
		if service.Primary {
			line += " primary"
		}
		if len(service.Implements) > 0 {
			line += " implements=" + strings.Join(service.Implements, ",")
		}
		d.Print("%s\n", line)
	}

	d.Print("\nAliases (%d):\n", len(r.Aliases))
	for _, alias := range r.Aliases {
		switch {
		case alias.Error != "":
			d.Print("  %s -> unresolved: %s\n", alias.Abstract, alias.Error)
		default:
			d.Print("  %s -> %s\n", alias.Abstract, alias.Concrete)
		}
	}

	if len(r.Delegates) > 0 {
		d.Print("\nDelegates (%d):\n", len(r.Delegates))
		for _, delegate := range r.Delegates {
			d.Print("  %s <- %s\n", delegate.Service, delegate.Delegate)
		}
	}
	if len(r.Prepares) > 0 {
		d.Print("\nPrepares (%d):\n", len(r.Prepares))
		for _, prepare := range r.Prepares {
			d.Print("  %s::%s\n", prepare.Service, prepare.Method)
		}
	}
	if len(r.Injects) > 0 {
		d.Print("\nInjects (%d):\n", len(r.Injects))
		for _, inject := range r.Injects {
			value := inject.Value
			if inject.Store != "" {
				value = inject.Store + ":" + value
			}
			d.Print("  %s = %s (%s)\n", inject.Target, value, inject.Kind)
		}
	}
}

func runWatch(ctx context.Context, flags *commandFlags) interface{} {
	return func(compiler *Compiler, cfg *config.Config, logger *zap.Logger, d *DiagnosticSystem) error {
		d.Section("Anchor: watch")
		build := func() {
			comp, err := compiler.Compile(ctx, flags.emit)
			if err != nil {
				d.ReportError("Compilation failed", err)
				return
			}
			d.SetRunID(comp.RunID)
			d.Success("Compiled %d services from %d files in %s",
				len(comp.Definition.ServiceDefinitions()), len(comp.Files), comp.Duration)
			if flags.emit {
				path, err := compiler.Emit(comp)
				if err != nil {
					d.ReportError("Code generation failed", err)
					return
				}
				d.Verbose("Wrote %s", path)
			}
		}
		build()

		watcher, err := NewWatcher(cfg.Directories, DefaultDebounce, logger)
		if err != nil {
			return err
		}
		defer watcher.Close()

		d.Info("Watching %s", strings.Join(cfg.Directories, ", "))
		return watcher.Run(ctx, func(files []string) {
			d.Verbose("Changed: %s", strings.Join(files, ", "))
			build()
		})
	}
}

func runServe(ctx context.Context, _ *commandFlags) interface{} {
	return func(compiler *Compiler, cfg *config.Config, stores store.Stores, logger *zap.Logger, d *DiagnosticSystem) error {
		srv := server.New(compiler.Load,
			server.WithStores(stores),
			server.WithDefaultProfiles(cfg.Profiles...),
			server.WithLogger(logger))
		d.Info("Serving the definition on %s", cfg.Serve.Addr)
		return srv.Start(ctx, cfg.Serve.Addr)
	}
}

func runClean(_ context.Context, _ *commandFlags) interface{} {
	return func(cfg *config.Config, c *cache.Cache, d *DiagnosticSystem) error {
		d.Section("Anchor: clean")
		removed, err := scanner.CleanGenerated(cfg.Directories)
		if err != nil {
			return err
		}
		entries, err := c.Entries()
		if err != nil {
			return err
		}
		if err := c.Clear(); err != nil {
			return err
		}

		sort.Strings(removed)
		for _, file := range removed {
			d.List("%s", file)
		}
		d.Success("Removed %d generated %s and %d cached %s",
			len(removed), plural(len(removed), "file"), len(entries), plural(len(entries), "definition"))
		return nil
	}
}
