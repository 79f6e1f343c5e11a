package main

import (
	"fmt"

	"github.com/ilkit/ilexpr/decoder"
	"github.com/ilkit/ilexpr/dis"
	"github.com/spf13/cobra"
)

func newDisCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dis [Type::Method...]",
		Short: "Disassemble method bodies",
		RunE: func(cmd *cobra.Command, args []string) error {
			bodies, err := a.bodies(args)
			if err != nil {
				return err
			}
			dec := decoder.New(a.table, decoder.WithLogger(a.logger))
			out := cmd.OutOrStdout()
			for i, body := range bodies {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, bold(body.Method.String()))
				list, err := dec.Decode(body.Code)
				if err != nil {
					return fmt.Errorf("%s: %w", bodyName(body), err)
				}
				rows, err := dis.Disassemble(list)
				if err != nil {
					return err
				}
				dis.Print(rows, out)
			}
			return nil
		},
	}
}
