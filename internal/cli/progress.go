package cli

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress runs fn while a spinner with message is shown on stderr. The
// spinner is skipped in quiet mode. On failure failMsg replaces the spinner.
func Progress(quiet bool, message, failMsg string, fn func() error) error {
	return progressTo(os.Stderr, quiet, message, failMsg, fn)
}

func progressTo(w io.Writer, quiet bool, message, failMsg string, fn func() error) error {
	if quiet {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()

	err := fn()
	if err != nil && failMsg != "" {
		s.FinalMSG = text.FgRed.Sprint(failMsg) + "\n"
	}
	s.Stop()
	return err
}
