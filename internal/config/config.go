// Package config provides CLI configuration and application logic for funcgen.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/bndr/gotabulate"

	"github.com/mazrean/funcgen/internal/funcgen"
	"github.com/mazrean/funcgen/internal/mcpserver"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ErrSkipped is returned by generate --fail-on-skip when declarations were skipped.
var ErrSkipped = errors.New("declarations skipped")

// CLI is the root command configuration with subcommands.
type CLI struct {
	LogLevel string           `kong:"short='l',help='Log level',enum='debug,info,warn,error',default='info',env='FUNCGEN_LOG_LEVEL'"`
	Options  Options          `kong:"embed"`
	Generate GenerateCmd      `kong:"cmd,default='withargs',help='Generate queue function code (default)'"`
	List     ListCmd          `kong:"cmd,help='List marked declarations without writing files'"`
	Marker   MarkerCmd        `kong:"cmd,help='Print the marker type definition'"`
	MCP      MCPCmd           `kong:"cmd,name='mcp',help='Serve scan and generate as MCP tools over stdio'"`
	Version  kong.VersionFlag `kong:"short='v',help='Show version and exit.'"`

	stdout io.Writer `kong:"-"`
}

// Options are the generator settings shared by every command. Flags override
// the config file.
type Options struct {
	Dir         string `kong:"short='C',default='.',help='Directory to run in',type='existingdir'"`
	Config      string `kong:"short='c',default='funcgen.yaml',help='Config file, relative to --dir',env='FUNCGEN_CONFIG'"`
	Behavior    string `kong:"short='b',help='Artifacts to generate: functions, services or kinds joined by +',env='FUNCGEN_BEHAVIOR'"`
	Strict      bool   `kong:"help='Reject names where the naming token is not a single suffix',env='FUNCGEN_STRICT'"`
	Tests       bool   `kong:"help='Also scan test files',env='FUNCGEN_TESTS'"`
	Concurrency int    `kong:"help='Number of files rendered and written in parallel',env='FUNCGEN_CONCURRENCY'"`
}

// Settings is the resolved configuration of one invocation.
type Settings struct {
	Dir          string
	Marker       funcgen.MarkerDefinition
	Naming       funcgen.Naming
	Behavior     funcgen.Behavior
	Registration funcgen.Registration
	Tests        bool
	Concurrency  int
}

// Settings merges the config file with the flags.
func (o *Options) Settings() (*Settings, error) {
	file, err := LoadFile(configPath(o.Dir, o.Config), o.Config == defaultConfigFile)
	if err != nil {
		return nil, err
	}

	marker, err := file.MarkerDefinition()
	if err != nil {
		return nil, err
	}

	behavior := file.Behavior
	if o.Behavior != "" {
		behavior = o.Behavior
	}
	b, err := funcgen.ParseBehavior(behavior)
	if err != nil {
		return nil, err
	}

	if err := file.Registration.Validate(); err != nil {
		return nil, err
	}

	naming := file.Naming
	if b == funcgen.BehaviorServices && naming == funcgen.DefaultNaming() {
		naming = funcgen.ServiceNaming()
	}

	s := &Settings{
		Dir:          o.Dir,
		Marker:       marker,
		Naming:       naming,
		Behavior:     b,
		Registration: file.Registration,
		Tests:        file.Tests || o.Tests,
		Concurrency:  file.Concurrency,
	}
	if o.Strict {
		s.Naming.Strict = true
	}
	if o.Concurrency > 0 {
		s.Concurrency = o.Concurrency
	}

	return s, nil
}

// PipelineOptions returns the pipeline options the settings describe.
func (s *Settings) PipelineOptions() []funcgen.PipelineOption {
	return []funcgen.PipelineOption{
		funcgen.WithNaming(s.Naming),
		funcgen.WithBehavior(s.Behavior),
		funcgen.WithRegistration(s.Registration),
		funcgen.WithConcurrency(s.Concurrency),
	}
}

func (s *Settings) process(ctx context.Context, patterns []string, dryRun bool) (*funcgen.Report, error) {
	processor := funcgen.NewProcessor(
		funcgen.NewPipeline(s.Marker, s.PipelineOptions()...),
		funcgen.WithDryRun(dryRun),
		funcgen.WithWriteConcurrency(s.Concurrency),
	)

	return processor.Process(ctx, funcgen.LoadConfig{
		Dir:      s.Dir,
		Patterns: patterns,
		Tests:    s.Tests,
	})
}

// GenerateCmd is the default command for generating code.
type GenerateCmd struct {
	Patterns   []string `kong:"arg,optional,help='Go package patterns to process',default='./...'"`
	DryRun     bool     `kong:"short='n',help='Run without writing files'"`
	FailOnSkip bool     `kong:"help='Exit with an error when a marked declaration is skipped',env='FUNCGEN_FAIL_ON_SKIP'"`
}

// Run executes the generate command.
func (c *GenerateCmd) Run(ctx context.Context, cli *CLI) error {
	settings, err := cli.Options.Settings()
	if err != nil {
		return err
	}

	slog.Info("Generating queue function code", "patterns", c.Patterns, "behavior", settings.Behavior)

	report, err := settings.process(ctx, c.Patterns, c.DryRun)
	if err != nil {
		return err
	}

	var changed int
	for _, f := range report.Written {
		if f.Changed {
			changed++
		}
	}
	slog.Info("Generation finished",
		"records", len(report.Records),
		"artifacts", len(report.Artifacts),
		"changed", changed,
		"removed", len(report.Removed),
		"skipped", len(report.Diagnostics),
	)

	if c.FailOnSkip && len(report.Diagnostics) > 0 {
		errs := make([]error, 0, len(report.Diagnostics))
		for _, d := range report.Diagnostics {
			errs = append(errs, d)
		}

		return fmt.Errorf("%w: %w", ErrSkipped, errors.Join(errs...))
	}

	return nil
}

// ListCmd prints the marked declarations as a table.
type ListCmd struct {
	Patterns []string `kong:"arg,optional,help='Go package patterns to scan',default='./...'"`
	Format   string   `kong:"help='Table format',enum='simple,grid',default='simple'"`
}

// Run executes the list command.
func (c *ListCmd) Run(ctx context.Context, cli *CLI) error {
	settings, err := cli.Options.Settings()
	if err != nil {
		return err
	}

	report, err := settings.process(ctx, c.Patterns, true)
	if err != nil {
		return err
	}

	if len(report.Records) == 0 {
		_, err := fmt.Fprintln(cli.stdout, "no marked declarations found")
		return err
	}

	rows := make([][]string, 0, len(report.Records))
	for _, r := range report.Records {
		rows = append(rows, []string{r.Name, r.Package, r.Contract, r.ServicePackage, r.Queue})
	}

	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Function", "Package", "Contract", "Service package", "Queue"})
	t.SetAlign("left")

	_, err = fmt.Fprint(cli.stdout, t.Render(c.Format))
	return err
}

// MarkerCmd prints the source of the configured marker type.
type MarkerCmd struct{}

// Run executes the marker command.
func (c *MarkerCmd) Run(cli *CLI) error {
	settings, err := cli.Options.Settings()
	if err != nil {
		return err
	}

	_, err = cli.stdout.Write(settings.Marker.Source)
	return err
}

// MCPCmd serves the generator over the Model Context Protocol.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run(ctx context.Context, cli *CLI) error {
	settings, err := cli.Options.Settings()
	if err != nil {
		return err
	}

	return mcpserver.Run(ctx, mcpserver.Options{
		Version:  version,
		Dir:      settings.Dir,
		Marker:   settings.Marker,
		Tests:    settings.Tests,
		Pipeline: settings.PipelineOptions(),
	})
}

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdout)
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cli := CLI{stdout: stdout}
	parser, err := kong.New(&cli,
		kong.Name("funcgen"),
		kong.Description("A code generator for queue-triggered functions and their dependency registration"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s) released on %s", version, commit, date),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	setupLogger(cli.LogLevel)

	return kongCtx.Run(&cli)
}

func setupLogger(level string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
