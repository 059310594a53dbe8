package configcmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-doc-collective/refnum/internal/config"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the effective refnum configuration with value source indicators.`,
		Example: `  # Show current config
  refnum config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runShow(noColor)
		},
	}

	return cmd
}

func runShow(noColor bool) error {
	if noColor {
		color.NoColor = true
	}

	configPath := config.DefaultConfigPath()

	_, fileErr := config.Load(configPath)
	cfg, _ := config.LoadWithEnv(configPath)

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	printField := func(label, value string, envVar string) {
		_, _ = bold.Printf("%-16s", label+":")
		fmt.Print(value)

		source := "config"
		if fileErr != nil {
			source = "default"
		}
		if envVar != "" && os.Getenv(envVar) != "" {
			source = envVar
		}
		_, _ = dim.Printf("  (source: %s)\n", source)
	}

	printField("Warning level", strconv.Itoa(cfg.WarningLevel), "REFNUM_WARNING_LEVEL")
	printField("Cleveref", strconv.FormatBool(cfg.Cleveref), "REFNUM_CLEVEREF")
	printField("Fake cleveref", strconv.FormatBool(cfg.FakeCleveref), "REFNUM_FAKE_CLEVEREF")
	printField("Eqref", strconv.FormatBool(cfg.Eqref), "REFNUM_EQREF")

	fmt.Println()
	_, _ = bold.Println("Prefixes:")
	keys := make([]string, 0, len(cfg.Prefixes))
	for key := range cfg.Prefixes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		p := cfg.Prefixes[key]
		fmt.Printf("  %-6s %s/%s, %s/%s", key+":",
			p.PlusName[0], p.PlusName[1], p.StarName[0], p.StarName[1])
		if p.NumberBySection {
			_, _ = dim.Print("  (by section)")
		}
		fmt.Println()
	}

	fmt.Println()
	_, _ = dim.Printf("Config file: %s\n", configPath)
	if fileErr != nil {
		_, _ = dim.Println("(file not found, showing defaults)")
	}

	return nil
}
