// Package main is the entry point for the dropin editor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/dropin/internal/app"
	"github.com/dshills/dropin/internal/engine"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	app app.Options

	drop   string
	at     int
	choose int
	write  bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.drop != "" {
		if err := runHeadless(opts, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}

	// Log lines would corrupt the screen.
	opts.app.FallbackLogOutput = io.Discard
	opts.app.OnChange = func() {
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	}

	application, err := app.New(opts.app)
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	ed := newEditor(application, screen)

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			ed.quit()
		}
	}()

	runErr := ed.run()
	screen.Fini()
	if err := application.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		return 1
	}
	return 0
}

// runHeadless drops opts.drop into the file, optionally picks another
// candidate, and prints the resulting document.
func runHeadless(opts options, out io.Writer) error {
	application, err := app.New(opts.app)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pos := application.Document().Engine.Len()
	if opts.at >= 0 && engine.ByteOffset(opts.at) < pos {
		pos = engine.ByteOffset(opts.at)
	}

	op := application.DropText(pos, opts.drop)
	if op == nil {
		return errors.New("drop was not accepted")
	}
	if err := op.Wait(ctx); err != nil {
		op.Cancel()
		return err
	}

	if opts.choose >= 0 && !application.Picker().ChooseIndex(opts.choose) {
		return fmt.Errorf("no candidate %d to choose", opts.choose)
	}

	if opts.write {
		if err := application.Save(); err != nil {
			return err
		}
	}
	_, err = io.WriteString(out, application.Document().Engine.Text())
	return err
}

func parseFlags() options {
	opts := options{at: -1, choose: -1}
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.app.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.app.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.app.PluginsDir, "plugins", "", "Directory of Lua drop providers")
	flag.BoolVar(&opts.app.WatchConfig, "watch", false, "Reload the configuration file when it changes")
	flag.StringVar(&opts.drop, "drop", "", "Drop TEXT into the file without a terminal and print the result")
	flag.IntVar(&opts.at, "at", -1, "Byte offset for -drop (default end of file)")
	flag.IntVar(&opts.choose, "choose", -1, "Candidate index to apply after -drop")
	flag.BoolVar(&opts.write, "write", false, "Save the file after -drop")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dropin - drop files and text into an editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: dropin [options] FILE\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dropin notes.md                          Edit a file; paste paths to drop them\n")
		fmt.Fprintf(os.Stderr, "  dropin -drop 'hello' notes.md            Drop text and print the result\n")
		fmt.Fprintf(os.Stderr, "  dropin -drop x -choose 1 -write notes.md Apply the second candidate and save\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("dropin %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.app.File = flag.Arg(0)

	return opts
}
