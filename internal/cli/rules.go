package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the active funnel configuration",
	Long: `Print the resolved stage rules, page categories and traffic groups as
YAML, after config file and environment overrides are applied. The output is a
valid funnel section for a config file.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out, err := yaml.Marshal(map[string]config.FunnelConfig{"funnel": cfg.Funnel})
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}
