package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/docchat/internal/auth"
	apierrors "github.com/diogo/docchat/internal/errors"
	"github.com/diogo/docchat/internal/render"
	"github.com/diogo/docchat/internal/session"
	"github.com/diogo/docchat/internal/tui"
)

func (a *app) newChatCmd() *cobra.Command {
	var noAuth bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the document assistant.

Every answer lists the documents it was drawn from. Press Ctrl+P (or type
/prompts) for suggested questions, Ctrl+O to sign out, and Esc or Ctrl+C
to leave.

The chat requires a signed-in user unless auth.required is false or
--no-auth is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context(), noAuth)
		},
	}
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "Chat without signing in")
	return cmd
}

func (a *app) runChat(ctx context.Context, noAuth bool) error {
	var authn auth.Authenticator
	if !noAuth {
		if err := a.ensureSignedIn(ctx); err != nil {
			return err
		}
		authn = a.provider
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	prompts, err := a.deps.LoadPrompts()
	if err != nil {
		fmt.Fprintf(a.errOut(), "Warning: %v (using the built-in prompts)\n", err)
	}

	engine := session.New(client, nil, prompts, authn, a.logger)
	a.logger.Info("chat started", zap.String("conversation", engine.ConversationID()))

	signedOut, err := a.deps.RunChat(ctx, engine,
		tui.WithRenderOptions(render.FromConfig(a.cfg.Markdown)),
	)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	a.logger.Info("chat ended",
		zap.Int("messages", len(engine.Messages())),
		zap.Bool("signed_out", signedOut))

	if signedOut {
		a.printSignedOut()
	}
	return nil
}

// ensureSignedIn gates the chat view behind a signed-in user when the
// configuration requires it, running the hosted UI flow if needed.
func (a *app) ensureSignedIn(ctx context.Context) error {
	if !a.cfg.Auth.Required || a.provider.IsAuthenticated() {
		return nil
	}
	if st := a.provider.Status(); st.State == auth.StateError {
		return fmt.Errorf("failed to read stored credentials: %w", st.Err)
	}
	if !a.provider.Configured() {
		return apierrors.ErrMissingAuthSetup
	}

	if err := a.provider.SignIn(ctx); err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}
	fmt.Fprintln(a.errOut(), successStyle.Render("✓ Signed in as "+a.provider.CurrentUserLabel()))
	return nil
}
