package commands

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/neurovine/assistant/internal/config"
)

func newVariantsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "variants",
		Short: "List and inspect deployment variants",
		Long: `Variants bundle the assistant's persona instruction, greeting, fallback
messages, temperature and model. Built-in variants can be overridden and new
ones added in variants.yaml (or variants.json) in the configuration
directory.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVariantsList(deps)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show variant details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVariantsShow(deps, args[0])
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in variants to variants.yaml for editing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVariantsInit(deps, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing variants file")
	cmd.AddCommand(initCmd)

	return cmd
}

func runVariantsInit(deps *Dependencies, force bool) error {
	paths, err := config.GetVariantsPaths()
	if err != nil {
		return err
	}

	if !force {
		for _, path := range paths {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check variants file: %w", err)
			}
		}
	}

	starter := &config.VariantConfig{
		DefaultVariant: config.DefaultVariantName,
		Variants:       config.BuiltinVariants(),
	}
	if err := config.SaveVariants(starter); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Wrote %s\n", paths[0])
	return nil
}

func runVariantsList(deps *Dependencies) error {
	variants, err := deps.LoadVariants()
	if err != nil {
		return fmt.Errorf("failed to load variants: %w", err)
	}

	defaultName := variants.DefaultName()
	if cfg, err := deps.LoadConfig(); err == nil && cfg.Variant != "" {
		defaultName = cfg.Variant
	}

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tMODEL\tTEMPERATURE\tDEFAULT\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t-----\t-----------\t-------\t-----------")

	for _, v := range variants.Variants {
		isDefault := ""
		if v.Name == defaultName {
			isDefault = "✓"
		}
		model := v.Model
		if model == "" {
			model = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%s\n", v.Name, model, v.EffectiveTemperature(), isDefault, v.Description)
	}

	return w.Flush()
}

func runVariantsShow(deps *Dependencies, name string) error {
	variants, err := deps.LoadVariants()
	if err != nil {
		return fmt.Errorf("failed to load variants: %w", err)
	}

	v, err := variants.Find(name)
	if err != nil {
		return err
	}

	// Temperature is always printed, including the default
	t := v.EffectiveTemperature()
	v.Temperature = &t

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal variant: %w", err)
	}

	_, err = deps.Stdout.Write(data)
	return err
}
