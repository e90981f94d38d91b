// Command monkey runs Monkey programs: interactively, or from a file with
// `monkey run FILE`.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/peterh/liner"

	"monkey/config"
	"monkey/object"
	"monkey/repl"
)

const appName = "monkey"

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `Usage:
  %s [flags]             Start the REPL.
  %s [flags] run <file>  Run a script.

Flags:
`, appName, appName)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func realMain(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the YAML configuration (default ~/"+config.DefaultFile+")")
	logLevel := fs.String("log-level", "", "override log_level: debug, info, warn or error")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	if *logLevel != "" {
		if _, err := config.ParseLevel(*logLevel); err != nil {
			fmt.Fprintf(stderr, "%s: -log-level: %v\n", appName, err)
			return 2
		}
		cfg.LogLevel = *logLevel
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	rest := fs.Args()
	if len(rest) == 0 {
		return cmdRepl(cfg, logger, stdin, stdout)
	}

	switch rest[0] {
	case "run":
		return cmdRun(rest[1:], cfg, logger, stdout, stderr)
	case "repl":
		return cmdRepl(cfg, logger, stdin, stdout)
	case "help":
		usage(stdout, fs)
		return 0
	default:
		fmt.Fprintf(stderr, "%s: unknown command %q\n", appName, rest[0])
		usage(stderr, fs)
		return 2
	}
}

func cmdRun(args []string, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintf(stderr, "usage: %s run <file>\n", appName)
		return 2
	}

	file := args[0]
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	s := repl.NewSession(logger, cfg.MaxCallDepth)
	result, err := s.Exec(string(src))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %s: %v\n", appName, file, err)
		return 1
	}

	code := 0
	if errObj, ok := result.(*object.Error); ok {
		fmt.Fprintln(stderr, errObj.Inspect())
		code = 1
	} else if result != object.NULL {
		fmt.Fprintln(stdout, result.Inspect())
	}

	if cfg.GC.Report {
		stats := s.Heap.Collect(s.Env)
		fmt.Fprintf(stderr, "gc: kept=%d freed=%d\n", stats.Kept, stats.Freed)
	}
	return code
}

func cmdRepl(cfg *config.Config, logger *slog.Logger, stdin io.Reader, stdout io.Writer) int {
	opts := repl.Options{
		Prompt:             cfg.Prompt,
		ContinuationPrompt: cfg.ContinuationPrompt,
		MaxCallDepth:       cfg.MaxCallDepth,
		GCEvery:            cfg.GC.Every,
		GCReport:           cfg.GC.Report,
		Logger:             logger,
	}

	if f, ok := stdin.(*os.File); ok && isTerminal(f) {
		fmt.Fprintln(stdout, "Hello! This is the Monkey programming language!")
		fmt.Fprintln(stdout, "Ctrl+C cancels input, Ctrl+D exits. Type :quit to exit.")

		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)

		histPath := cfg.HistoryPath()
		if histPath != "" {
			loadHistory(ln, histPath, logger)
			defer saveHistory(ln, histPath, logger)
		}

		opts.Reader = linerReader{ln}
		opts.History = func(input string) {
			ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))
		}
	}

	if err := repl.Start(stdin, stdout, opts); err != nil {
		logger.Error("repl stopped", slog.Any("err", err))
		return 1
	}
	return 0
}

type linerReader struct {
	ln *liner.State
}

func (r linerReader) Prompt(prompt string) (string, error) {
	line, err := r.ln.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", repl.ErrInterrupted
	}
	return line, err
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0 && liner.TerminalSupported()
}

func loadHistory(ln *liner.State, path string, logger *slog.Logger) {
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("cannot read history", slog.String("path", path), slog.Any("err", err))
		}
		return
	}
	defer f.Close()
	if _, err := ln.ReadHistory(f); err != nil {
		logger.Warn("cannot read history", slog.String("path", path), slog.Any("err", err))
	}
}

func saveHistory(ln *liner.State, path string, logger *slog.Logger) {
	f, err := os.Create(path)
	if err != nil {
		logger.Warn("cannot write history", slog.String("path", path), slog.Any("err", err))
		return
	}
	defer f.Close()
	if _, err := ln.WriteHistory(f); err != nil {
		logger.Warn("cannot write history", slog.String("path", path), slog.Any("err", err))
	}
}
