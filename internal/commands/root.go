// Package commands provides CLI commands for docchat.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/docchat/internal/api"
	"github.com/diogo/docchat/internal/auth"
	"github.com/diogo/docchat/internal/config"
	"github.com/diogo/docchat/internal/logging"
	"github.com/diogo/docchat/internal/render"
	"github.com/diogo/docchat/internal/tui"
)

// Version info (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// reportedError is an error the command already printed
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// app is the state shared by one command tree
type app struct {
	deps *Dependencies

	cfg      config.Config
	logger   *zap.Logger
	baseURL  string
	provider *auth.Provider

	baseURLFlag string
	verboseFlag bool
	fileFlag    string
	outputFlag  string
	rawFlag     bool
}

// NewRootCmd builds the command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	a := &app{deps: deps.withDefaults(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "docchat [question]",
		Short: "Ask questions about your documents",
		Long: `docchat is a terminal client for the document question-answering service.
Answers come back with the source documents they were drawn from.

Examples:
  docchat chat                          Start interactive chat
  docchat "How do I deploy?"            Ask a single question
  docchat -f question.md                Read the question from a file
  cat question.md | docchat             Read the question from stdin
  docchat prompts                       List suggested questions
  docchat login                         Sign in with the hosted UI`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(a.out(), "docchat %s (built %s)\n", Version, BuildTime)
				return nil
			}

			question, ok, err := a.readQuestion(args)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}
			return a.runQuery(cmd.Context(), question)
		},
	}
	root.SetIn(a.deps.Stdin)
	root.SetOut(a.deps.Stdout)
	root.SetErr(a.deps.Stderr)

	root.PersistentFlags().StringVar(&a.baseURLFlag, "base-url", "", "Answering service base URL (overrides config and "+config.EnvAPIBaseURL+")")
	root.PersistentFlags().BoolVar(&a.verboseFlag, "verbose", false, "Debug logging to the log file")
	root.Flags().StringVarP(&a.fileFlag, "file", "f", "", "Read the question from a file")
	root.Flags().StringVarP(&a.outputFlag, "output", "o", "", "Save the answer to a file")
	root.Flags().BoolVar(&a.rawFlag, "raw", false, "Print the answer as plain markdown")
	root.Flags().BoolP("version", "v", false, "Show version and exit")

	root.AddCommand(
		a.newChatCmd(),
		a.newPromptsCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newWhoamiCmd(),
		a.newAuthCmd(),
		a.newUploadCmd(),
		a.newFetchCmd(),
		a.newConfigCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd(NewDependencies()).Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		}
		os.Exit(1)
	}
}

// setup loads the configuration, the logger and the stored sign-in
func (a *app) setup() error {
	cfg, err := a.deps.LoadConfig()
	if err != nil {
		fmt.Fprintf(a.errOut(), "Warning: %v (using defaults)\n", err)
	}
	a.cfg = cfg

	verbose := a.verboseFlag || cfg.Verbose
	a.baseURL = cfg.ResolveAPIBaseURL()
	if flag := strings.TrimRight(strings.TrimSpace(a.baseURLFlag), "/"); flag != "" {
		a.baseURL = flag
	}

	if a.deps.Logger != nil {
		a.logger = a.deps.Logger
	} else {
		logger, err := logging.NewOrNop(logging.Options{Verbose: verbose})
		if err != nil && verbose {
			fmt.Fprintf(a.errOut(), "Warning: logging disabled: %v\n", err)
		}
		a.logger = logger
	}

	tui.ApplyTheme(render.ResolveTUITheme(cfg.TUITheme))

	a.provider = auth.NewProvider(cfg.ResolveAuth(),
		auth.WithStore(a.deps.Store),
		auth.WithLogger(a.logger),
		auth.WithSignInHandler(a.announceSignIn),
	)
	a.provider.Load()

	a.logger.Debug("command setup",
		zap.String("base_url", a.baseURL),
		zap.Bool("attach_token", cfg.AttachToken),
		zap.Bool("signed_in", a.provider.IsAuthenticated()))
	return nil
}

// client builds the API client from the loaded configuration
func (a *app) client() (ChatClient, error) {
	opts := []api.ClientOption{
		api.WithTimeout(a.cfg.RequestTimeout()),
		api.WithLogger(a.logger),
	}
	if a.cfg.AttachToken {
		opts = append(opts, api.WithRequestDecorator(auth.BearerDecorator(a.provider)))
	}

	c, err := a.deps.NewClient(a.baseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

// readQuestion picks the question from --file, stdin or the argument
func (a *app) readQuestion(args []string) (string, bool, error) {
	if a.fileFlag != "" {
		data, err := os.ReadFile(a.fileFlag)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}
	if len(args) > 0 {
		return args[0], true, nil
	}
	if a.deps.StdinIsPipe() {
		data, err := io.ReadAll(a.deps.Stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), true, nil
	}
	return "", false, nil
}

func (a *app) announceSignIn(signInURL string) {
	fmt.Fprintf(a.errOut(), "Open this URL in your browser to sign in:\n\n  %s\n\n", signInURL)
	if err := a.deps.CopyToClipboard(signInURL); err == nil {
		fmt.Fprintln(a.errOut(), successStyle.Render("✓ Copied to clipboard"))
	}
	fmt.Fprintln(a.errOut(), "Waiting for the redirect...")
}

func (a *app) out() io.Writer    { return a.deps.Stdout }
func (a *app) errOut() io.Writer { return a.deps.Stderr }
