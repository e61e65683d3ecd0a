package cmd

import (
	"encoding/json"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/envcheck/internal/config"
	"github.com/Aman-CERP/envcheck/internal/output"
	"github.com/Aman-CERP/envcheck/internal/preflight"
)

type statusInfo struct {
	StateDir string     `json:"state_dir"`
	LastPass *time.Time `json:"last_pass,omitempty"`
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput  bool
		clearMarker bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show when the checks last all passed",
		Long: `Show when every check last passed in this project.

The time is recorded in .envcheck/last-pass after a fully passing run.
Use --clear to forget it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.dir)
			if err != nil {
				return err
			}
			stateDir := preflight.New(preflight.WithConfig(cfg), preflight.WithRoot(opts.dir)).StateDir()
			out := output.New(cmd.OutOrStdout())

			if clearMarker {
				if err := preflight.ClearMarker(stateDir); err != nil {
					return err
				}
				out.Success("Cleared last successful check")
				return nil
			}

			info := statusInfo{StateDir: stateDir}
			if last, ok := preflight.LastPassed(stateDir); ok {
				info.LastPass = &last
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			if info.LastPass == nil {
				out.Warning("No successful check recorded. Run 'envcheck'.")
				return nil
			}
			out.Successf("Last successful check: %s (%s)",
				humanize.Time(*info.LastPass), info.LastPass.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&clearMarker, "clear", false, "Remove the last-pass record")

	return cmd
}
