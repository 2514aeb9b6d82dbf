package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/docchat/internal/config"
	"github.com/diogo/docchat/internal/render"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show the effective configuration stored in ~/.docchat/config.json.

Use 'docchat config set <key> <value>' to change a setting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showConfig()
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Long:  "Change a setting. Keys:\n  " + strings.Join(config.SettableKeys(), "\n  "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.setConfig(args[0], args[1])
		},
	}

	themesCmd := &cobra.Command{
		Use:   "themes",
		Short: "List chat view themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range render.AvailableTUIThemes() {
				marker := "  "
				if t.Name == a.cfg.TUITheme {
					marker = "* "
				}
				fmt.Fprintf(a.out(), "%s%-12s %s\n", marker, t.Name, t.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(setCmd, themesCmd)
	return cmd
}

func (a *app) showConfig() error {
	if path, err := config.GetConfigPath(); err == nil {
		fmt.Fprintln(a.out(), dimStyle.Render("# "+path))
	}
	data, err := json.MarshalIndent(a.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(a.out(), string(data))
	fmt.Fprintf(a.out(), "\neffective api base url: %s\n", a.baseURL)
	return nil
}

func (a *app) setConfig(key, value string) error {
	if key == "tui_theme" {
		if _, ok := render.GetTUIThemeByName(value); !ok {
			return fmt.Errorf("unknown theme %q (available: %s)", value, strings.Join(render.TUIThemeNames(), ", "))
		}
	}

	cfg := a.cfg
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := a.deps.SaveConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	fmt.Fprintln(a.out(), successStyle.Render(fmt.Sprintf("✓ %s = %s", key, value)))
	return nil
}
