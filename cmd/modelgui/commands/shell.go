package commands

import (
	"github.com/spf13/cobra"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/shell"
)

func shellCmd(get func() *app) *cobra.Command {
	var (
		file       string
		accessible bool
	)
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if file != "" {
				if _, err := a.session.Load(file); err != nil {
					return err
				}
			}
			return shell.New(a.session, cmd.OutOrStdout(), accessible).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "data file to load on start")
	cmd.Flags().BoolVar(&accessible, "accessible", false, "plain prompts instead of full-screen forms")
	return cmd
}
