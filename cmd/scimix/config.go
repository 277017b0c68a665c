package main

import (
	"fmt"
	"io"

	"github.com/YuminosukeSato/scimix/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `config prints the configuration the other commands would run with: the
defaults overlaid with --config and, when given, a mixture preset. The table
format prints YAML that can be saved and passed back with --config.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if preset != "" {
				if err := a.cfg.ApplyPreset(preset); err != nil {
					return err
				}
			}
			if a.format == formatJSON {
				return a.render(a.cfg, nil)
			}
			out, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = a.out.Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "apply a mixture preset before printing")

	cmd.AddCommand(&cobra.Command{
		Use:   "presets",
		Short: "List the mixture presets",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.render(config.Presets, func(w io.Writer) {
				fmt.Fprintln(w, "PRESET\tCYCLES\tSLOTS\tPERMUTATIONS")
				for _, name := range config.PresetNames() {
					p := config.Presets[name]
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", name, p.Cycles, p.Slots, p.Permutations)
				}
			})
		},
	})
	return cmd
}
