package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/config"
)

// configCmd prints or writes the default settings. It skips the root
// PersistentPreRunE so a broken config file can still be replaced.
func configCmd() *cobra.Command {
	var write string
	cmd := &cobra.Command{
		Use:               "config",
		Short:             "Print the default configuration or write it to a file",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if write != "" {
				if err := cfg.Write(write); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", write)
				return nil
			}
			raw, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
	cmd.Flags().StringVar(&write, "write", "", "write the defaults to this path")
	return cmd
}
