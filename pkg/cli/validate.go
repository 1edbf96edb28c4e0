package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockgate/pkg/config"
	"github.com/getmockd/mockgate/pkg/module"
)

// ModuleReport is the validation result of one module.
type ModuleReport struct {
	Identity  string   `json:"identity"`
	Source    string   `json:"source,omitempty"`
	Handlers  []string `json:"handlers,omitempty"`
	TimeoutMS int64    `json:"timeoutMs,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ValidateOutput is the JSON output of the validate command.
type ValidateOutput struct {
	MockRoot string         `json:"mockRoot"`
	Valid    bool           `json:"valid"`
	Modules  []ModuleReport `json:"modules"`
}

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and every module under the mock root",
		Long: `Validate the configuration, then load every module definition under the mock
root: YAML/JSON syntax, the definition schema, handler expressions and body
files. Exits non-zero when anything is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}

			out, err := validateModules(cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if err := printResult(w, g, out, func() { printValidation(w, out) }); err != nil {
				return err
			}
			if !out.Valid {
				return fmt.Errorf("%d invalid module(s)", countInvalid(out.Modules))
			}
			return nil
		},
	}
}

func validateModules(cfg *config.Config) (*ValidateOutput, error) {
	info, err := os.Stat(cfg.MockRoot)
	if err != nil {
		return nil, fmt.Errorf("mock root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mock root %s is not a directory", cfg.MockRoot)
	}

	loader := module.NewFileLoader(cfg.MockRoot)
	ids, err := loader.Identities()
	if err != nil {
		return nil, err
	}

	out := &ValidateOutput{MockRoot: cfg.MockRoot, Valid: true, Modules: make([]ModuleReport, 0, len(ids))}
	for _, id := range ids {
		report := ModuleReport{Identity: id}
		m, err := loader.Load(id)
		if err != nil {
			report.Error = err.Error()
			out.Valid = false
		} else {
			report.Source = relSource(cfg.MockRoot, m.Source)
			report.Handlers = m.Keys()
			report.TimeoutMS = m.Timeout.Milliseconds()
		}
		out.Modules = append(out.Modules, report)
	}
	return out, nil
}

func relSource(root, source string) string {
	if rel, err := filepath.Rel(root, source); err == nil {
		return filepath.ToSlash(rel)
	}
	return source
}

func printValidation(w io.Writer, out *ValidateOutput) {
	if len(out.Modules) == 0 {
		fmt.Fprintf(w, "no modules under %s\n", out.MockRoot)
		return
	}
	for _, m := range out.Modules {
		if m.Error != "" {
			fmt.Fprintf(w, "FAIL  %s\n      %s\n", m.Identity, m.Error)
			continue
		}
		fmt.Fprintf(w, "ok    %-30s %s (%d handlers)\n", m.Identity, m.Source, len(m.Handlers))
	}
	if out.Valid {
		fmt.Fprintf(w, "\n%d module(s) valid\n", len(out.Modules))
	}
}

func countInvalid(reports []ModuleReport) int {
	n := 0
	for _, r := range reports {
		if r.Error != "" {
			n++
		}
	}
	return n
}
