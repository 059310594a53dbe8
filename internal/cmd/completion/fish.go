package completion

import (
	"github.com/spf13/cobra"
)

// NewCmdFish creates the fish completion command.
func NewCmdFish() *cobra.Command {
	return &cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		Long: `Generate fish completion script for refnum.

To load completions in your current shell session:

  refnum completion fish | source

To load completions for every new session:

  refnum completion fish > ~/.config/fish/completions/refnum.fish`,
		Example: `  # Load in current session
  refnum completion fish | source

  # Install permanently
  refnum completion fish > ~/.config/fish/completions/refnum.fish`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	}
}
