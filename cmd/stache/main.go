package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	exitCode := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// run is the main entry point for the CLI, separated for testing
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return ExitCodeSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		fmt.Fprintf(stderr, FmtErrorWithCause, exitErr.msg, exitErr.err)
		return exitErr.code
	}

	// Flag and argument errors come from cobra itself
	fmt.Fprintln(stderr, err)
	return ExitCodeUsageError
}

// exitError carries the exit code a command failed with
type exitError struct {
	code int
	msg  string
	err  error
}

func (e *exitError) Error() string {
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *exitError) Unwrap() error {
	return e.err
}

func fail(code int, msg string, err error) error {
	return &exitError{code: code, msg: msg, err: err}
}
