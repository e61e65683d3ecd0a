package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/envcheck/configs"
	"github.com/Aman-CERP/envcheck/internal/config"
	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
	"github.com/Aman-CERP/envcheck/internal/output"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage envcheck configuration",
		Long: `Manage envcheck configuration files.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/envcheck/config.yaml)
  3. Project config (.envcheck.yaml in --dir)
  4. Environment variables (ENVCHECK_*), including those from .env`,
		Example: `  # Create .envcheck.yaml from the template
  envcheck config init

  # Show effective configuration
  envcheck config show

  # Print config file paths
  envcheck config path`,
	}

	cmd.AddCommand(newConfigInitCmd(opts))
	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigPathCmd(opts))

	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var (
		force     bool
		user      bool
		effective bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Create a configuration file from the built-in template.

By default the project file .envcheck.yaml is created in --dir. With --user the
user file ~/.config/envcheck/config.yaml is created instead.

An existing file is only replaced with --force, after a timestamped backup.`,
		Example: `  envcheck config init
  envcheck config init --user
  envcheck config init --force --effective`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := filepath.Join(opts.dir, config.ProjectConfigFile)
			if user {
				path = config.GetUserConfigPath()
			}
			return runConfigInit(cmd, opts, path, force, effective)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Create the user configuration instead of the project one")
	cmd.Flags().BoolVar(&effective, "effective", false, "Write the effective configuration instead of the template")

	return cmd
}

func runConfigInit(cmd *cobra.Command, opts *rootOptions, path string, force, effective bool) error {
	out := output.New(cmd.OutOrStdout())

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Newline()
			out.Status("💡", "Use --force to replace it (a backup is kept)")
			return nil
		}
		backupPath, err := config.BackupFile(path)
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
		out.Statusf("💾", "Backup: %s", backupPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if effective {
		cfg, err := config.Load(opts.dir)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := cfg.WriteYAML(path); err != nil {
			return err
		}
	} else if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Newline()
	out.Status(output.IconInfo, "Next steps:")
	out.Status("", "  1. Edit the file to match your project")
	out.Status("", "  2. Run 'envcheck config show' to verify")
	out.Status("", "  3. Run 'envcheck' to check the environment")

	return nil
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration after merging all sources.

--source selects a single layer: defaults, user, project or merged (default).`,
		Example: `  envcheck config show
  envcheck config show --json
  envcheck config show --source project`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, opts, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, defaults, user, project")

	return cmd
}

func runConfigShow(cmd *cobra.Command, opts *rootOptions, jsonOutput bool, source string) error {
	var (
		cfg *config.Config
		err error
	)

	switch source {
	case "merged":
		cfg, err = config.Load(opts.dir)
	case "defaults":
		cfg = config.NewConfig()
	case "user":
		if !config.UserConfigExists() {
			return enverrors.Newf(enverrors.ErrCodeConfigNotFound, "no user configuration at %s", config.GetUserConfigPath()).
				WithSuggestion("Create one with: envcheck config init --user")
		}
		cfg, err = config.LoadFile(config.GetUserConfigPath())
	case "project":
		path := config.ProjectConfigPath(opts.dir)
		if path == "" {
			return enverrors.Newf(enverrors.ErrCodeConfigNotFound, "no project configuration in %s", opts.dir).
				WithSuggestion("Create one with: envcheck config init")
		}
		cfg, err = config.LoadFile(path)
	default:
		return fmt.Errorf("unknown source %q (use merged, defaults, user or project)", source)
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func newConfigPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			userState := "missing"
			if config.UserConfigExists() {
				userState = "exists"
			}
			_, _ = fmt.Fprintf(w, "user:    %s (%s)\n", config.GetUserConfigPath(), userState)

			project := config.ProjectConfigPath(opts.dir)
			if project == "" {
				_, _ = fmt.Fprintf(w, "project: %s (missing)\n", filepath.Join(opts.dir, config.ProjectConfigFile))
				return nil
			}
			_, _ = fmt.Fprintf(w, "project: %s (exists)\n", project)
			return nil
		},
	}
}
