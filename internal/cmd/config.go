package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/adamancini/hoist/internal/config"
	"github.com/adamancini/hoist/internal/interactive"
	"github.com/adamancini/hoist/internal/templates"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration hoist runs with, after defaults and flags are applied.

Config files are searched in this order:
  $HOIST_CONFIG
  $XDG_CONFIG_HOME/hoist/config.{yaml,yml,toml,json}
  ~/.hoist/config.{yaml,yml,toml,json}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.out.Render(a.cfg, func(w io.Writer) error {
				return printConfig(w, a.cfg)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Path == "" {
				return config.ErrNotFound
			}
			_, err := fmt.Fprintln(a.out.Out(), a.cfg.Path)
			return err
		},
	})

	cmd.AddCommand(newConfigInitCmd(a))

	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var (
		templateName string
		outputPath   string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file from a template",
		Long: `Write a starter config file from a built-in template.

Available templates:
  minimal    - Defaults spelled out, no addons
  addons     - Addon list in both short and long form
  full       - Every option with comments

Examples:
  hoist config init                          # minimal template, default location
  hoist config init --template=addons
  hoist config init --path ./hoist.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overwrite := func(path string) bool {
				if force {
					return true
				}
				if !interactive.IsTerminal() {
					return false
				}
				return interactive.NewPrompterWithIO(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm("%s already exists. Overwrite?", path)
			}
			return a.runConfigInit(templateName, outputPath, overwrite)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", templates.Default, "Template name")
	cmd.Flags().StringVar(&outputPath, "path", "", "Output path (default: $XDG_CONFIG_HOME/hoist/config.yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var completions []string
		for _, name := range templates.List() {
			completions = append(completions, fmt.Sprintf("%s\t%s", name, templates.GetDescription(name)))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runConfigInit writes the named template to outputPath and loads it back.
// A file that fails to load is removed again.
func (a *app) runConfigInit(templateName, outputPath string, overwrite func(string) bool) error {
	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(outputPath); err == nil && !overwrite(outputPath) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", outputPath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(outputPath), err)
	}
	if err := os.WriteFile(outputPath, tmpl.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if _, err := config.Load(outputPath); err != nil {
		_ = os.Remove(outputPath)
		return fmt.Errorf("template %s does not load: %w", templateName, err)
	}

	a.log.Debug("wrote config", "template", templateName, "path", outputPath)
	_, err = fmt.Fprintf(a.out.Out(), "Created %s from the %s template\n", outputPath, templateName)
	return err
}

func printConfig(w io.Writer, cfg *config.Config) error {
	source := cfg.Path
	if source == "" {
		source = "(defaults, no config file found)"
	}
	if _, err := fmt.Fprintf(w, "# %s\n", source); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
