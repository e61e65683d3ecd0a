package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/envcheck/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var asJSON, short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the envcheck build",
		Long: `Show which envcheck build is running: release, commit, build date,
Go toolchain and platform. Useful when attaching a report to a setup issue.`,
		Example: `  envcheck version
  envcheck version --short
  envcheck version --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			switch {
			case short:
				_, err := fmt.Fprintln(w, version.Short())
				return err
			case asJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(version.GetInfo())
			default:
				_, err := fmt.Fprintln(w, version.String())
				return err
			}
		},
	}

	// --short wins when both flags are given.
	cmd.Flags().BoolVar(&short, "short", false, "Print only the release number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build details as JSON")

	return cmd
}
