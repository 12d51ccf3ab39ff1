package cli

import (
	"context"
	"fmt"
	"strings"
)

// Execute runs args through the command tree. Without a command it starts
// the REPL.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.newRootCmd(true)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *App) prompt() string {
	if a.email == "" {
		return "pairjournal> "
	}
	return fmt.Sprintf("pairjournal (%s)> ", a.email)
}

// runREPL reads commands from a.in until EOF, exit or quit, or until ctx is
// done. Command errors are reported and the loop carries on.
func (a *App) runREPL(ctx context.Context) error {
	fmt.Fprintln(a.out, "PairJournal (type 'help' for commands, 'exit' to leave)")

	for ctx.Err() == nil {
		fmt.Fprint(a.out, a.prompt())

		line, readErr := a.in.ReadString('\n')
		parts := strings.Fields(line)

		if len(parts) > 0 {
			switch parts[0] {
			case "exit", "quit":
				fmt.Fprintln(a.out, "Bye!")
				return nil
			}

			root := a.newRootCmd(false)
			root.SetArgs(parts)
			if err := root.ExecuteContext(ctx); err != nil {
				a.PrintError(err)
			}
		}

		if readErr != nil {
			fmt.Fprintln(a.out)
			return nil
		}
	}
	return nil
}
