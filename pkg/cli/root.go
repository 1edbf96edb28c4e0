package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockgate/pkg/config"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configFile string
	jsonOutput bool
}

// loadConfig layers defaults, the configuration file and the environment.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	return config.Load(g.configFile, nil)
}

// NewRootCommand returns the mockgate command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "mockgate",
		Short: "mockgate serves mock modules in front of a real backend",
		Long: `mockgate intercepts data, page and upload requests issued by a front end
under development and answers them from mock modules on disk. Requests that
are not intercepted are proxied to the configured backend.

Configuration is read from mockgate.yaml in the working directory (or --config),
then MOCKGATE_* environment variables, then command flags.`,
		// No Run function: 'mockgate' with no args prints help.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "Path to the configuration file")
	root.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Output command results in JSON format")

	root.AddCommand(
		newServeCmd(g),
		newValidateCmd(g),
		newResolveCmd(g),
		newConfigCmd(g),
		newVersionCmd(g),
	)
	return root
}

// Execute runs the command line with args.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// printResult writes data as JSON when --json is set and calls textFn
// otherwise.
func printResult(w io.Writer, g *globalFlags, data any, textFn func()) error {
	if g.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	textFn()
	return nil
}
