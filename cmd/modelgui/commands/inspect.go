package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/shell"
)

func inspectCmd(get func() *app) *cobra.Command {
	var (
		file string
		head int
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the columns of a data file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := get().session
			ds, err := s.Load(file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d rows, fingerprint %016x\n", ds.Path, ds.Rows(), ds.Fingerprint)
			fmt.Fprintln(out, shell.RenderColumns(s.Columns()))
			if head > 0 {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, row := range ds.Head(head) {
					fmt.Fprintln(tw, strings.Join(row, "\t"))
				}
				return tw.Flush()
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "delimited data file")
	cmd.Flags().IntVarP(&head, "head", "n", 5, "rows to preview")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
