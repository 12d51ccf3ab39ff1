package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pairjournal/internal/models"
	"github.com/dmitrijs2005/pairjournal/internal/partner"
	"github.com/dmitrijs2005/pairjournal/internal/session"
	"github.com/spf13/cobra"
)

// newRootCmd builds a fresh command tree. withREPL makes the bare command
// start the REPL; inside the REPL it is false so an empty line never nests.
func (a *App) newRootCmd(withREPL bool) *cobra.Command {
	root := &cobra.Command{
		Use:           "pairjournal",
		Short:         "End-to-end encrypted journal shared with one partner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if withREPL {
		root.RunE = func(cmd *cobra.Command, args []string) error {
			return a.runREPL(cmd.Context())
		}
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.out)

	root.AddCommand(
		a.signupCmd(), a.loginCmd(), a.lockCmd(), a.unlockCmd(), a.logoutCmd(), a.refreshCmd(),
		a.inviteCmd(), a.disconnectCmd(), a.passwdCmd(), a.statusCmd(),
		a.encryptCmd(), a.listCmd(), a.decryptCmd(),
	)
	return root
}

func (a *App) emailArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return GetSimpleText(a.in, "Email", a.out)
}

func (a *App) signupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup [email]",
		Short: "Create an account and sign in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.emailArg(args)
			if err != nil {
				return err
			}
			password, err := a.readNewSecret()
			if err != nil {
				return err
			}

			ctx, cancel := a.commandContext(cmd.Context())
			defer cancel()

			stop := a.spin("Creating account...")
			id, err := a.journal.SignUp(ctx, email, password)
			stop()
			if err != nil {
				return err
			}
			a.email = email
			a.success("Signed up as %s %s", highlight(email), muted(id))
			return nil
		},
	}
}

func (a *App) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [email]",
		Short: "Sign in and unlock your keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.emailArg(args)
			if err != nil {
				return err
			}
			password, err := a.readSecret("Password")
			if err != nil {
				return err
			}

			ctx, cancel := a.commandContext(cmd.Context())
			defer cancel()

			stop := a.spin("Signing in...")
			state, err := a.journal.SignIn(ctx, email, password)
			stop()
			if err != nil {
				return err
			}
			a.email = email
			a.success("Signed in as %s, partner %s", highlight(email), highlight(state))
			return nil
		},
	}
}

func (a *App) lockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Forget the keys but stay signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.journal.Lock()
			a.success("Locked")
			return nil
		},
	}
}

func (a *App) unlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Unlock the keys with your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readSecret("Password")
			if err != nil {
				return err
			}

			ctx, cancel := a.commandContext(cmd.Context())
			defer cancel()

			state, err := a.journal.Unlock(ctx, password)
			if err != nil {
				return err
			}
			a.success("Unlocked, partner %s", highlight(state))
			return nil
		},
	}
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.journal.SignOut()
			a.email = ""
			a.success("Signed out")
			return nil
		},
	}
}

func (a *App) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-read the partner link (accepts a pending invitation)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readSecret("Password")
			if err != nil {
				return err
			}

			ctx, cancel := a.commandContext(cmd.Context())
			defer cancel()

			state, err := a.journal.Refresh(ctx, password)
			if err != nil {
				return err
			}
			a.success("Partner %s", highlight(state))
			return nil
		},
	}
}

func (a *App) inviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <email>",
		Short: "Share a new key with a partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readSecret("Password")
			if err != nil {
				return err
			}

			ctx, cancel := a.commandContext(cmd.Context())
			defer cancel()

			stop := a.spin("Sending invitation...")
			err = a.journal.Invite(ctx, password, args[0])
			stop()
			if err != nil {
				return err
			}
			a.success("Invited %s; the link completes on their next sign-in", highlight(args[0]))
			return nil
		},
	}
}

func (a *App) disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Remove the partner link on both sides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd.Context())
			defer cancel()

			if err := a.journal.Disconnect(ctx); err != nil {
				return err
			}
			a.success("Disconnected; shared entries are no longer readable")
			return nil
		},
	}
}

func (a *App) passwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your password and rewrap your keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPassword, err := a.readSecret("Current password")
			if err != nil {
				return err
			}
			newPassword, err := a.readNewSecret()
			if err != nil {
				return err
			}

			ctx, cancel := a.commandContext(cmd.Context())
			defer cancel()

			stop := a.spin("Rewrapping keys...")
			err = a.journal.ChangePassword(ctx, oldPassword, newPassword)
			stop()
			if err != nil {
				return err
			}
			a.success("Password changed")
			return nil
		},
	}
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the account and partner link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd.Context())
			defer cancel()

			st, err := a.journal.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "  Account:    "+highlight(st.Email)+" "+muted(st.AccountID))
			fmt.Fprintln(a.out, "  Partner:    "+highlight(st.State))
			if st.State != partner.Unlinked {
				fmt.Fprintln(a.out, "  With:       "+highlight(st.PartnerEmail)+" "+muted(st.PartnerID))
			}
			shared := "no"
			if st.SharedKey {
				shared = "yes"
			}
			fmt.Fprintln(a.out, "  Shared key: "+shared)
			return nil
		},
	}
}

func (a *App) encryptCmd() *cobra.Command {
	var shared bool
	cmd := &cobra.Command{
		Use:   "encrypt [text...]",
		Short: "Encrypt an entry with the personal or shared key",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				var err error
				if text, err = GetMultiline(a.in, "Entry text", a.out); err != nil {
					return err
				}
			}

			t := models.Personal
			if shared {
				t = models.Shared
			}
			rec, err := a.journal.EncryptRecord(t, text)
			if err != nil {
				return err
			}
			a.records = append(a.records, rec)
			a.success("Encrypted %s entry %s", t, muted(rec.ID))
			fmt.Fprintln(a.out, rec.Ciphertext)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&shared, "shared", "s", false, "encrypt with the shared key")
	return cmd
}

func (a *App) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "Decrypt the entries encrypted in this session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.journal.DecryptRecords(a.records)
			if err != nil {
				return err
			}
			if len(out) == 0 {
				fmt.Fprintln(a.out, muted("no entries"))
				return nil
			}
			for i, r := range out {
				text := r.Plaintext
				if r.Err != nil {
					if !session.Recoverable(r.Err) {
						return r.Err
					}
					text = muted(text)
				}
				fmt.Fprintf(a.out, "%s  %-8s  %s\n", muted(r.ID), a.records[i].EncryptionType, text)
			}
			return nil
		},
	}
}

func (a *App) decryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <personal|shared> <ciphertext>",
		Short: "Decrypt a single ciphertext",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := models.ParseEncryptionType(args[0])
			if err != nil {
				return err
			}
			text, err := a.journal.DecryptRecord(models.EncryptedRecord{EncryptionType: t, Ciphertext: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, text)
			return nil
		},
	}
}
