package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/oneconcern/gitstamp/pkg/errors"
	graphstatus "github.com/oneconcern/gitstamp/pkg/graph/status"
	"github.com/oneconcern/gitstamp/pkg/ledger/status"
)

// exit codes
const (
	exitGeneric      = 1
	exitVerifyFailed = 2
	exitDetachedHead = 3
	exitReentrancy   = 4
	exitRefConflict  = 5
	exitNoTimestamp  = 6
)

var (
	// globals used to patch over calls to os.Exit() during test

	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit

	// infoLogger wraps informative messages to os.Stdout without cluttering expected output in tests.
	// To be used instead on fmt.Printf(os.Stdout, ...)
	infoLogger = log.New(os.Stdout, "", 0)

	// errOutput receives diagnostics
	errOutput io.Writer = os.Stderr
)

func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
	} else {
		logFatalf("%v", fmt.Errorf(msg+": %w", err))
	}
}

func wrapFatalWithCodef(code int, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(errOutput, format+"\n", args...)
	osExit(code)
}

// fatalError exits with the code documented for this kind of error
func fatalError(msg string, err error) {
	wrapFatalWithCodef(exitCode(err), "%s: %v", msg, err)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, graphstatus.ErrDetachedHead):
		return exitDetachedHead
	case errors.Is(err, status.ErrReentrancy):
		return exitReentrancy
	case errors.Is(err, graphstatus.ErrRefConflict):
		return exitRefConflict
	case errors.Is(err, status.ErrArtifactNotFound),
		errors.Is(err, graphstatus.ErrRefResolution):
		return exitNoTimestamp
	default:
		return exitGeneric
	}
}
