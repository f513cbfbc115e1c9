package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/shell"
)

func historyCmd(get func() *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if a.store == nil {
				return errors.New("history is disabled")
			}
			recs, err := a.store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), shell.RenderHistory(recs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show, 0 for all")
	return cmd
}
