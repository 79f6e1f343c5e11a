package main

import (
	"fmt"

	"github.com/ilkit/ilexpr/accessor"
	"github.com/spf13/cobra"
)

func newFieldCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "field [Type::Property...]",
		Short: "Find the fields trivial properties read and write",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = a.table.PropertyNames()
			}
			m := accessor.New(a.table, accessor.WithLogger(a.logger))
			out := cmd.OutOrStdout()
			for _, name := range names {
				prop, ok := a.table.Property(name)
				if !ok {
					return fmt.Errorf("no property named %q", name)
				}
				if f, ok := m.FindBackingField(prop); ok {
					fmt.Fprintf(out, "%s: %s\n", name, green(f.String()))
				} else {
					fmt.Fprintf(out, "%s: no backing field\n", name)
				}
			}
			return nil
		},
	}
}
