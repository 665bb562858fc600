package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/mcncl/jsontree/internal/config"
	"github.com/mcncl/jsontree/internal/document"
	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/guards"
	"github.com/mcncl/jsontree/internal/logging"
	"github.com/mcncl/jsontree/internal/parser"
	"github.com/mcncl/jsontree/internal/server"
	"github.com/mcncl/jsontree/internal/textview"
	"github.com/mcncl/jsontree/internal/tree"
	"github.com/mcncl/jsontree/internal/tui"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Version information
const (
	Version = "0.1.0"
)

type cli struct {
	Config    string           `help:"Path to a config file. Defaults to .jsontree.yml in this or a parent directory." short:"c" type:"path"`
	Debug     bool             `help:"Enable debug logging." short:"d"`
	LogFormat string           `help:"Log format: text or json." name:"log-format"`
	Version   kong.VersionFlag `help:"Show version information." short:"v"`

	Render RenderCmd `cmd:"" default:"withargs" help:"Render JSON as an HTML tree page or a text outline."`
	Serve  ServeCmd  `cmd:"" help:"Serve a live, interactive preview of a JSON file."`
	View   ViewCmd   `cmd:"" help:"Browse a JSON file in the terminal."`
	Stats  StatsCmd  `cmd:"" help:"Show size, depth and node counts for JSON input."`
}

// CLI defines the command-line interface
var CLI cli

// Context holds the global flags and the process streams.
type Context struct {
	ConfigPath string
	Debug      bool
	LogFormat  string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("jsontree"),
		kong.Description("Render JSON documents as collapsible trees"),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("jsontree version %s", Version)},
	)

	app := &Context{
		ConfigPath: CLI.Config,
		Debug:      CLI.Debug,
		LogFormat:  CLI.LogFormat,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}

	if err := kctx.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsontree --help\n")
		os.Exit(1)
	}
}

// setup resolves the config (flags > file > defaults) and builds a logger
// writing to stderr.
func (app *Context) setup(override config.Overrides) (*config.Config, logging.Logger, error) {
	path := app.ConfigPath
	if path == "" {
		path = config.FindConfigFile()
	}
	override.Debug = app.Debug
	override.LogFormat = app.LogFormat

	cfg, err := config.LoadConfigWithCLI(path, override)
	if err != nil {
		return nil, nil, err
	}

	lc := cfg.LoggerConfig()
	lc.Output = app.Stderr
	logger := logging.NewLogger(lc)
	if path != "" {
		logger.Debug(context.Background(), "loaded config", "path", path)
	}
	return cfg, logger, nil
}

// RenderCmd writes the rendered tree.
type RenderCmd struct {
	Input     string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Output    string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	Format    string `help:"Output format: html or text." short:"f"`
	Title     string `help:"Page title." short:"t"`
	Lang      string `help:"Locale for number formatting, e.g. en or de."`
	NoLazy    bool   `help:"Render every node up front." name:"no-lazy"`
	ExpandAll bool   `help:"Materialize and expand every container before writing." name:"expand-all"`
}

// Run renders the input.
func (c *RenderCmd) Run(app *Context) error {
	cfg, logger, err := app.setup(config.Overrides{
		NoLazy: c.NoLazy,
		Title:  c.Title,
		Format: c.Format,
		Lang:   c.Lang,
	})
	if err != nil {
		return err
	}

	loaded, err := app.load(c.Input, cfg.GuardLimits())
	if err != nil {
		return err
	}
	p, t := loaded.Render(cfg, logger)
	if c.ExpandAll {
		t.ExpandAll()
	}

	var buf bytes.Buffer
	switch cfg.Output.Format {
	case config.FormatText:
		err = textview.Render(&buf, t.Root())
	default:
		err = p.Render(&buf)
	}
	if err != nil {
		return errors.NewOutputError("failed to render output", err)
	}

	logger.Debug(context.Background(), "rendered tree", "nodes", t.Stats().NodeCount, "format", cfg.Output.Format)
	return app.writeOutput(c.Output, buf.Bytes())
}

// ServeCmd runs the live preview.
type ServeCmd struct {
	Input string `help:"Path to the JSON file to serve." short:"i" type:"path" required:""`
	Host  string `help:"Address to listen on."`
	Port  int    `help:"Port to listen on." short:"p"`
	Title string `help:"Page title." short:"t"`
}

// Run serves until interrupted.
func (c *ServeCmd) Run(app *Context) error {
	cfg, logger, err := app.setup(config.Overrides{Title: c.Title, Host: c.Host, Port: c.Port})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.New(cfg, c.Input, logger)
	fmt.Fprintf(app.Stderr, "Serving %s at http://%s (Ctrl+C to stop)\n", c.Input, s.Addr())
	return s.Start(ctx)
}

// ViewCmd opens the terminal viewer.
type ViewCmd struct {
	Input  string `help:"Path to the JSON file to view." short:"i" type:"path" required:""`
	NoLazy bool   `help:"Render every node up front." name:"no-lazy"`
}

// Run blocks until the viewer quits.
func (c *ViewCmd) Run(app *Context) error {
	cfg, logger, err := app.setup(config.Overrides{NoLazy: c.NoLazy})
	if err != nil {
		return err
	}
	loaded, err := document.LoadFile(c.Input, cfg.GuardLimits())
	if err != nil {
		return err
	}
	_, t := loaded.Render(cfg, logger)
	return tui.Run(c.Input, t, logger)
}

// StatsCmd reports on the input without rendering it.
type StatsCmd struct {
	Input string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
}

// Run prints the report. Inputs over the guard limits are reported, not
// rejected; only unreadable or malformed input fails.
func (c *StatsCmd) Run(app *Context) error {
	cfg, _, err := app.setup(config.Overrides{})
	if err != nil {
		return err
	}
	limits := cfg.GuardLimits()

	data, err := app.readSource(c.Input)
	if err != nil {
		return err
	}
	source := c.Input
	if source == "" {
		source = "stdin"
	}

	p := message.NewPrinter(language.Make(cfg.Output.Lang))
	w := app.Stdout
	p.Fprintf(w, "Source:     %s\n", source)
	p.Fprintf(w, "Size:       %d bytes\n", len(data))

	size := limits.CheckSize(int64(len(data)))
	if !size.Allowed {
		p.Fprintf(w, "Tree view:  disabled (%s)\n", size.Message)
		return nil
	}

	doc, err := parser.ParseBytes(data)
	if err != nil {
		return err
	}
	nodes := tree.CountNodes(doc.Root)
	policy := tree.DecidePolicy(nodes, cfg.TreeOptions(nil))

	p.Fprintf(w, "Depth:      %d\n", guards.Depth(doc.Root, limits.MaxTreeDepth))
	p.Fprintf(w, "Nodes:      %d\n", nodes)
	p.Fprintf(w, "Rendering:  %s\n", renderingMode(policy))

	if size.Warning {
		p.Fprintf(w, "Warning:    %s\n", size.Message)
	}
	if verdict := limits.CanRenderTree(doc.Root); !verdict.Allowed {
		p.Fprintf(w, "Tree view:  disabled (%s)\n", verdict.Reason)
	} else {
		p.Fprintf(w, "Tree view:  available\n")
	}
	return nil
}

func renderingMode(p tree.Policy) string {
	switch {
	case !p.LazyEnabled:
		return "eager"
	case p.Virtualized:
		return "lazy (virtualized)"
	default:
		return "lazy"
	}
}

// load runs the document pipeline over a file, or over stdin when path is
// empty.
func (app *Context) load(path string, limits guards.Limits) (*document.Loaded, error) {
	if path != "" {
		return document.LoadFile(path, limits)
	}
	data, err := app.readSource("")
	if err != nil {
		return nil, err
	}
	return document.LoadBytes(data, limits)
}

// readSource reads a file, piped stdin, or JSON pasted at a terminal.
func (app *Context) readSource(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NewInputError("file not found: "+path, errors.ErrFileNotFound)
			}
			return nil, errors.NewInputError("failed to read file: "+path, err)
		}
		return data, nil
	}

	if f, ok := app.Stdin.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return nil, errors.NewInputError("failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			return app.readInteractiveInput()
		}
	}

	data, err := io.ReadAll(app.Stdin)
	if err != nil {
		return nil, errors.NewInputError("failed to read from stdin", err)
	}
	if len(data) == 0 {
		return nil, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return data, nil
}

// readInteractiveInput lets users paste JSON and finish with Ctrl+D (EOF).
func (app *Context) readInteractiveInput() ([]byte, error) {
	fmt.Fprintln(app.Stderr, "jsontree Interactive Mode")
	fmt.Fprintln(app.Stderr, "Paste your JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(app.Stdin)
	var buf bytes.Buffer
	for {
		line, err := reader.ReadString('\n')
		buf.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewInputError("error reading input", err)
		}
	}
	if buf.Len() == 0 {
		return nil, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(app.Stderr, "\nProcessing JSON...")
	return buf.Bytes(), nil
}

// writeOutput writes to a file or stdout.
func (app *Context) writeOutput(path string, data []byte) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		fmt.Fprintf(app.Stderr, "Tree written to %s\n", path)
		return nil
	}

	if _, err := app.Stdout.Write(data); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
