// Package root provides the root command for the refnum CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/open-doc-collective/refnum/internal/cmd/completion"
	"github.com/open-doc-collective/refnum/internal/cmd/configcmd"
	initcmd "github.com/open-doc-collective/refnum/internal/cmd/init"
	"github.com/open-doc-collective/refnum/internal/cmd/inspect"
	"github.com/open-doc-collective/refnum/internal/cmd/run"
	"github.com/open-doc-collective/refnum/internal/version"
)

// NewCmdRoot creates the root command for refnum.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refnum",
		Short: "A pandoc filter that numbers figures, equations, tables and sections",
		Long: `refnum post-processes pandoc documents: it numbers figures, equations,
tables and sections, and turns @fig:label style citations into resolved
cross references in the output format's native style.

Get started by running: refnum init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/refnum/config.yml)")
	cmd.PersistentFlags().StringP("output", "o", "tree", "output format: tree, json")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	// Set version template
	cmd.SetVersionTemplate("refnum version {{.Version}} (commit: " + version.Commit + ", built: " + version.Date + ")\n")

	// Subcommands
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(run.NewCmdRun())
	cmd.AddCommand(inspect.NewCmdInspect())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}
