// oxyedit loads, checks, formats and renders scene documents headlessly.
//
// Usage:
//
//	oxyedit check <scene.yaml>            report groups that could not be loaded
//	oxyedit fmt <scene.yaml> [-o out]     rewrite a document through the editor
//	oxyedit render <scene.yaml> [--frames N]
//
// Every command accepts --config with a YAML or TOML editor configuration.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Carmen-Shannon/oxy-editor/engine/config"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/editor"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
)

// errFailed signals that a command already reported its failure.
var errFailed = errors.New("failed")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage()
		return errFailed
	}
	switch args[0] {
	case "check":
		return runCheck(args[1:], stdout)
	case "fmt":
		return runFmt(args[1:], stdout)
	case "render":
		return runRender(args[1:], stdout)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: oxyedit <command> [flags] <scene>

Commands:
  check    load a scene and report groups that were skipped
  fmt      load a scene and write the document back out
  render   draw frames of a scene and report frame statistics

Run "oxyedit <command> --help" for command flags.
`)
}

// session is the editor a command works on, with its scene document loaded.
type session struct {
	editor editor.Editor
	logger *slog.Logger
	diags  []string
	// skipped counts groups left out of the scene.
	skipped int
}

type commonFlags struct {
	configPath string
	logLevel   string
}

func (c *commonFlags) add(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configPath, "config", "c", "", "editor configuration file (.yaml, .yml or .toml)")
	fs.StringVar(&c.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
}

func (c *commonFlags) open(scenePath string) (*session, error) {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath); err != nil {
			return nil, err
		}
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	doc, err := document.ReadFile(scenePath)
	if err != nil {
		return nil, err
	}
	ed, err := editor.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	reply := ed.Submit(editor.LoadDocument{Doc: doc})
	if _, err := ed.Frame(0); err != nil {
		ed.Close()
		return nil, err
	}
	r := <-reply
	s := &session{editor: ed, logger: logger}
	for _, d := range r.Diagnostics {
		s.diags = append(s.diags, d.String())
		if d.Skipped {
			s.skipped++
		}
	}
	return s, nil
}

func parse(fs *pflag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one scene file, got %d", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), nil
}

func runCheck(args []string, stdout io.Writer) error {
	var flags commonFlags
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	flags.add(fs)
	scenePath, err := parse(fs, args)
	if err != nil {
		return err
	}

	s, err := flags.open(scenePath)
	if err != nil {
		return err
	}
	defer s.editor.Close()

	for _, d := range s.diags {
		fmt.Fprintln(stdout, d)
	}
	fmt.Fprintf(stdout, "%s: %d nodes, %d lights, %d groups skipped\n",
		scenePath, s.editor.Scene().Len(), s.editor.Scene().LightCount(), s.skipped)
	if s.skipped > 0 {
		return errFailed
	}
	return nil
}

func runFmt(args []string, stdout io.Writer) error {
	var flags commonFlags
	var out string
	fs := pflag.NewFlagSet("fmt", pflag.ContinueOnError)
	flags.add(fs)
	fs.StringVarP(&out, "output", "o", "", "write to this file instead of stdout")
	scenePath, err := parse(fs, args)
	if err != nil {
		return err
	}

	s, err := flags.open(scenePath)
	if err != nil {
		return err
	}
	defer s.editor.Close()

	for _, d := range s.diags {
		s.logger.Warn("document problem", "diagnostic", d)
	}
	doc := s.editor.Serializer().Save()
	if out == "" {
		return document.Encode(stdout, doc)
	}
	return document.WriteFile(out, doc)
}

func runRender(args []string, stdout io.Writer) error {
	var flags commonFlags
	var frames int
	fs := pflag.NewFlagSet("render", pflag.ContinueOnError)
	flags.add(fs)
	fs.IntVarP(&frames, "frames", "n", 1, "frames to draw; 0 runs until interrupted")
	scenePath, err := parse(fs, args)
	if err != nil {
		return err
	}

	s, err := flags.open(scenePath)
	if err != nil {
		return err
	}
	defer s.editor.Close()

	if frames <= 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return s.editor.Run(ctx)
	}

	var stats scene.DrawStats
	for range frames {
		if stats, err = s.editor.Frame(1.0 / 60); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "drawn %d, lights %d\n", stats.Drawn, stats.Lights)
	reasons := make([]string, 0, len(stats.Skipped))
	for reason := range stats.Skipped {
		reasons = append(reasons, string(reason))
	}
	slices.Sort(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(stdout, "skipped %s: %d\n", reason, stats.Skipped[scene.SkipReason(reason)])
	}
	return nil
}
