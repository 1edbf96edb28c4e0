package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ConfigOutput is the JSON output of the config command.
type ConfigOutput struct {
	Config  any               `json:"config"`
	Sources map[string]string `json:"sources"`
}

func newConfigCmd(g *globalFlags) *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration after defaults, the configuration file and MOCKGATE_*
environment variables are applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.jsonOutput {
				return printResult(w, g, ConfigOutput{Config: cfg, Sources: cfg.Sources}, nil)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}
			fmt.Fprint(w, string(data))

			if showSources {
				keys := make([]string, 0, len(cfg.Sources))
				for k := range cfg.Sources {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				fmt.Fprintln(w, "\n# sources")
				for _, k := range keys {
					fmt.Fprintf(w, "# %-22s %s\n", k, cfg.Sources[k])
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSources, "sources", false, "Show where each value came from")
	return cmd
}
