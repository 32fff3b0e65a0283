package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/ccenv/ccenv/internal/ccenv/paths"
	"github.com/ccenv/ccenv/internal/ccenv/storage"
	"github.com/ccenv/ccenv/internal/ccenv/store"
	"github.com/ccenv/ccenv/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	root, err := paths.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	st := store.New(storage.New(afero.NewOsFs()), paths.New(root), newLogger())
	if err := st.Init(); err != nil {
		// Nothing works without a writable store root.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cmd := cli.NewRootCommand(st, cli.NewPromptUI(), os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, cli.ErrPromptCancelled) {
			fmt.Fprintln(os.Stderr, "Operation cancelled.")
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger() *slog.Logger {
	if os.Getenv("CCENV_DEBUG") == "1" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
