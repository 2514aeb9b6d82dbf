package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/docchat/internal/auth"
	"github.com/diogo/docchat/internal/browser"
	apierrors "github.com/diogo/docchat/internal/errors"
)

func (a *app) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with the hosted UI",
		Long: `Sign in through the identity provider's hosted UI.

docchat prints (and copies) the sign-in URL, then waits for the browser to
redirect back to the local callback address configured in auth.redirect_url.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.provider.SignIn(cmd.Context()); err != nil {
				return fmt.Errorf("sign-in failed: %w", err)
			}
			fmt.Fprintln(a.out(), successStyle.Render("✓ Signed in as "+a.provider.CurrentUserLabel()))
			return nil
		},
	}
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.provider.SignOut(); err != nil {
				return err
			}
			a.printSignedOut()
			return nil
		},
	}
}

func (a *app) printSignedOut() {
	fmt.Fprintln(a.out(), successStyle.Render("✓ Signed out"))
	if logoutURL := a.provider.LogoutURL(); logoutURL != "" {
		fmt.Fprintf(a.out(), "To end the browser session too, open:\n  %s\n", logoutURL)
	}
}

func (a *app) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.provider.Status()
			switch st.State {
			case auth.StateAuthenticated:
				fmt.Fprintln(a.out(), st.Label())
				if st.Username != "" && st.Username != st.Label() {
					fmt.Fprintln(a.out(), dimStyle.Render("username: "+st.Username))
				}
				return nil
			case auth.StateError:
				return fmt.Errorf("failed to read stored credentials: %w", st.Err)
			default:
				fmt.Fprintln(a.out(), "Not signed in")
				if st.Err != nil {
					fmt.Fprintln(a.out(), dimStyle.Render(st.Err.Error()))
				}
				return &reportedError{err: apierrors.ErrNotSignedIn}
			}
		},
	}
}

func (a *app) newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored sign-in",
	}

	var browserFlag, domainFlag string
	importCmd := &cobra.Command{
		Use:   "import-browser",
		Short: "Import a signed-in session from a local browser",
		Long: `Import the tokens of a web session signed in with the same Cognito app
client from a local browser's cookie store.

Supported browsers: ` + fmt.Sprint(browser.AllSupportedBrowsers()) + `
Use "auto" to try each in turn.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := browser.ParseBrowser(browserFlag)
			if err != nil {
				return err
			}

			authCfg := a.cfg.ResolveAuth()
			if authCfg.ClientID == "" {
				return apierrors.ErrMissingAuthSetup
			}

			stop := a.progress("Reading browser cookies")
			res, err := a.deps.ExtractTokens(cmd.Context(), b, browser.Query{
				ClientID: authCfg.ClientID,
				Domain:   domainFlag,
			})
			if err != nil {
				stop(false, "")
				return fmt.Errorf("failed to extract tokens: %w", err)
			}
			stop(true, "Found session in "+res.BrowserName)

			t := res.Tokens
			if err := a.provider.ImportTokens(t.IDToken, t.AccessToken, t.RefreshToken); err != nil {
				return fmt.Errorf("failed to import tokens: %w", err)
			}
			fmt.Fprintf(a.out(), "%s from %s\n",
				successStyle.Render("✓ Signed in as "+a.provider.CurrentUserLabel()),
				res.BrowserName)
			return nil
		},
	}
	importCmd.Flags().StringVarP(&browserFlag, "browser", "b", "auto", "Browser to read from")
	importCmd.Flags().StringVar(&domainFlag, "domain", "", "Only read cookies of this host")

	cmd.AddCommand(importCmd)
	return cmd
}
