package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dmitrijs2005/pairjournal/internal/client/services"
	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/fatih/color"
)

var (
	successMark = color.New(color.FgGreen).Sprint("✓")
	errorMark   = color.New(color.FgRed).Sprint("✗")
	highlight   = color.New(color.FgCyan).SprintFunc()
	muted       = color.New(color.Faint).SprintFunc()
)

func (a *App) success(format string, args ...any) {
	fmt.Fprintln(a.out, successMark+" "+fmt.Sprintf(format, args...))
}

// PrintError reports err with a hint for the common cases.
func (a *App) PrintError(err error) {
	fmt.Fprintln(a.out, errorMark+" "+describe(err))
}

func describe(err error) string {
	switch {
	case errors.Is(err, services.ErrNotSignedIn):
		return "not signed in; run login (or unlock after lock)"
	case errors.Is(err, common.ErrDecryptionFailed):
		return "decryption failed; wrong password or damaged data"
	case errors.Is(err, common.ErrKeyNotAvailable):
		return "no shared key; link a partner first"
	}
	return err.Error()
}

// spin shows a spinner on interactive terminals until the returned func runs.
func (a *App) spin(message string) func() {
	if !a.interactive {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.out))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	s.Start()
	return s.Stop
}
