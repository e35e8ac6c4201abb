package util

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// ErrFolderConflict is returned when a working directory from a previous
// run is in the way and --force was not given.
var ErrFolderConflict = errors.New("target folder already exists")

// EnsureFreshDir guarantees path is an empty directory owned by this run.
// A pre-existing non-empty directory fails fast unless force wipes it, so
// a partially complete prior run is never silently overwritten.
func EnsureFreshDir(path string, force bool) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(path, 0755)
		}
		return err
	}

	if len(entries) > 0 {
		if !force {
			return fmt.Errorf("%w: %s (use --force to delete it)", ErrFolderConflict, path)
		}

		if err := os.RemoveAll(path); err != nil {
			return err
		}
		return os.MkdirAll(path, 0755)
	}

	return nil
}

// CheckFreshFile rejects an existing output file unless force allows
// overwriting it.
func CheckFreshFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrFolderConflict, path)
	}

	return nil
}

// SetupInterruptHandler makes Ctrl-C leave partial state on disk in a
// recoverable form: the data folder stays, only the message changes.
func SetupInterruptHandler(onInterrupt func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		fmt.Println("\nInterrupt received. Downloaded images are kept, re-run with --force to start over.")

		if onInterrupt != nil {
			onInterrupt()
		}

		os.Exit(1)
	}()
}

func CleanupFolder(folder string) {
	_ = os.RemoveAll(folder)
}
