// Package cli is the interactive PairJournal client.
//
// Commands are a cobra tree. Run without a command, the client starts a REPL
// that feeds every line through the same tree, so the session (unlocked keys,
// partner state) lives as long as the process. Outside the REPL each command
// runs once, which is mostly useful for signup.
package cli
