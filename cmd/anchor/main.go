package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot string
	Config      string
	Format      string
	Output      string
	Store       string
	StorePath   string
	Workers     int
	Timeout     time.Duration
	Verbose     bool
	ServeMCP    bool
	MCPAddr     string
	Force       bool
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: anchor [flags] [command]

commands:
  index              extract every supported file and report (default)
  symbols <query>    search symbols and print their dependency context
  diagram            print a Mermaid diagram of file dependencies
  serve              run the MCP server (stdio, or HTTP with -mcp-addr)
  init               write anchor.yml and register the MCP server in .mcp.json

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var flags cliFlags

	fs := flag.NewFlagSet("anchor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "path to the target project")
	fs.StringVar(&flags.Config, "config", "", "config file (default: anchor.yml in the project root)")
	fs.StringVar(&flags.Format, "format", "summary", "output format for index: summary or json")
	fs.StringVar(&flags.Output, "output", "", "write output to this file instead of stdout")
	fs.StringVar(&flags.Store, "store", "", "graph store: memory, bolt or kuzu (overrides config)")
	fs.StringVar(&flags.StorePath, "store-path", "", "directory for persistent stores, relative to the project root (overrides config)")
	fs.IntVar(&flags.Workers, "workers", 0, "files extracted in parallel (overrides config)")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "per-file parse timeout (overrides config)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "print per-file progress to stderr")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server (same as the serve command)")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", "", "serve MCP over streamable HTTP on this address instead of stdio")
	fs.BoolVar(&flags.Force, "force", false, "init: overwrite existing files")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(stdout, version)
		return nil
	}

	command := "index"
	rest := fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}
	if flags.ServeMCP {
		command = "serve"
	}

	switch command {
	case "init":
		return runInit(flags.ProjectRoot, flags.Force, stdout)
	case "index", "symbols", "diagram", "serve":
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}

	env, err := newEnv(flags, stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	switch command {
	case "symbols":
		if len(rest) < 1 {
			return fmt.Errorf("usage: anchor symbols <query>")
		}
		return withOutput(flags.Output, stdout, func(w io.Writer) error {
			return runSymbols(ctx, env, rest[0], w)
		})
	case "diagram":
		return withOutput(flags.Output, stdout, func(w io.Writer) error {
			return runDiagram(ctx, env, w)
		})
	case "serve":
		return runServe(ctx, env, flags.MCPAddr)
	default:
		return withOutput(flags.Output, stdout, func(w io.Writer) error {
			return runIndex(ctx, env, flags.Format, w)
		})
	}
}

// withOutput calls fn with the output file, or stdout when path is empty.
func withOutput(path string, stdout io.Writer, fn func(io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
