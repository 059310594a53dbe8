package completion

import (
	"github.com/spf13/cobra"
)

// NewCmdBash creates the bash completion command.
func NewCmdBash() *cobra.Command {
	return &cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		Long: `Generate bash completion script for refnum.

To load completions in your current shell session:

  source <(refnum completion bash)

To load completions for every new session:

  # Linux
  refnum completion bash > /etc/bash_completion.d/refnum

  # macOS (requires bash-completion)
  refnum completion bash > $(brew --prefix)/etc/bash_completion.d/refnum`,
		Example: `  # Load in current session
  source <(refnum completion bash)

  # Install permanently (Linux)
  refnum completion bash | sudo tee /etc/bash_completion.d/refnum > /dev/null

  # Install permanently (macOS with Homebrew)
  refnum completion bash > $(brew --prefix)/etc/bash_completion.d/refnum`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	}
}
