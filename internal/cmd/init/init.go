// Package init provides the init command for refnum.
package init

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-doc-collective/refnum/internal/config"
)

// NewCmdInit creates the init command.
func NewCmdInit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize refnum configuration",
		Long: `Initialize refnum with an interactive wizard.

This command walks through the warning level, reference rendering style,
and numbering scheme, and saves the result to ~/.config/refnum/config.yml.
The defaults cover figures (fig:), equations (eq:), tables (tbl:) and
sections (sec:); edit the file afterwards to add custom prefixes.`,
		Example: `  # Interactive setup
  refnum init`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit()
		},
	}

	return cmd
}

func runInit() error {
	configPath := config.DefaultConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		err := huh.NewConfirm().
			Title("Configuration already exists").
			Description(fmt.Sprintf("Overwrite %s?", configPath)).
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Initialization cancelled.")
			return nil
		}
	}

	cfg := config.Default()
	warningLevel := strconv.Itoa(cfg.WarningLevel)
	bySection := false

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Warning level").
				Description("How chatty the filter is on stderr").
				Options(
					huh.NewOption("Silent", "0"),
					huh.NewOption("Critical warnings only", "1"),
					huh.NewOption("Everything", "2"),
				).
				Value(&warningLevel),

			huh.NewConfirm().
				Title("Clever references").
				Description("Prefix every reference with its kind name (\"fig. 1\")").
				Value(&cfg.Cleveref),

			huh.NewConfirm().
				Title("Use \\eqref for equations").
				Description("Render equation references as \\eqref in TeX output").
				Value(&cfg.Eqref),

			huh.NewConfirm().
				Title("Number by section").
				Description("Number targets as section.index (e.g. \"2.3\")").
				Value(&bySection),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.WarningLevel, _ = strconv.Atoi(warningLevel)
	if bySection {
		for key, p := range cfg.Prefixes {
			p.NumberBySection = true
			cfg.Prefixes[key] = p
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Save(configPath); err != nil {
		return err
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	fmt.Println("\nYou're all set! Try running:")
	fmt.Println("  pandoc --filter refnum document.md -o document.pdf")
	fmt.Println("  refnum inspect document.md")

	return nil
}
