package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/docchat/internal/models"
)

func (a *app) newPromptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List the suggested questions",
		Long: `List the suggested questions offered by the chat view.

A custom list can be stored as a JSON array of strings in
~/.docchat/prompts.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, err := a.deps.LoadPrompts()
			if err != nil {
				fmt.Fprintf(a.errOut(), "Warning: %v (using the built-in prompts)\n", err)
			}
			if prompts == nil {
				prompts = models.DefaultPrompts()
			}
			for i, p := range prompts {
				fmt.Fprintf(a.out(), "%2d. %s\n", i+1, p)
			}
			return nil
		},
	}
}
