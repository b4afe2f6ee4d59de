// Command formfill analyses inspection forms and fills them.
//
// Usage:
//
//	formfill [-config formfill.yaml] <command> [flags] [file]
//
// Commands:
//
//	analyze <file>                               print the field position map as JSON
//	preview [-map m.json | <file>] -values v.json print the fill preview as JSON
//	suggest <file> [-records r.json] [-offline]  suggest values (with records) or inspection-key mappings
//	fill <file> [-map m.json] -values v.json -o out
//	report <file> -record r.json -o out          analyse, map and fill from one inspection record
//	templates                                    list stored templates
//
// Settings come from the config file, .env and the environment
// (LOG_LEVEL, GEMINI_API_KEY, GEMINI_MODEL, DATABASE_URL).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/lmittmann/tint"

	"github.com/tsawler/formfill/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what every command needs.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"analyze":   analyzeCmd,
	"preview":   previewCmd,
	"suggest":   suggestCmd,
	"fill":      fillCmd,
	"report":    reportCmd,
	"templates": templatesCmd,
}

var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("formfill", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "formfill: %v\n", err)
		return 1
	}

	logger := slog.New(tint.NewHandler(stderr, &tint.Options{
		Level:   cfg.Level(),
		NoColor: !isTerminal(stderr),
	}))
	slog.SetDefault(logger)

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "formfill: unknown command %q\n", name)
		usage(stderr)
		return 2
	}

	a := &app{cfg: cfg, log: logger, stdout: stdout, stderr: stderr}
	if err := cmd(ctx, a, rest); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		logger.Error("command failed", "command", name, "error", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: formfill [-config file] <command> [flags] [file]

commands:
  analyze <file>                                print the field position map as JSON
  preview [-map m.json | <file>] -values v.json print the fill preview as JSON
  suggest <file> [-records r.json] [-offline]   suggest values or inspection-key mappings
  fill <file> [-map m.json] -values v.json -o out
  report <file> -record r.json -o out           analyse, map and fill from one inspection record
  templates                                     list stored templates
`)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
