package main

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/ilkit/ilexpr/decoder"
	"github.com/ilkit/ilexpr/transform"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newTreeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree [Type::Method...]",
		Short: "Print the expression each method body computes",
		RunE: func(cmd *cobra.Command, args []string) error {
			bodies, err := a.bodies(args)
			if err != nil {
				return err
			}
			cache, err := transform.NewCache(
				viper.GetInt("cache-size"),
				decoder.New(a.table, decoder.WithLogger(a.logger)),
				transform.New(transform.WithLogger(a.logger)),
			)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var result *multierror.Error
			for _, body := range bodies {
				name := bodyName(body)
				tree, err := cache.Get(body)
				if err != nil {
					fmt.Fprintf(out, "%s: %s\n", name, red(err.Error()))
					result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
					continue
				}
				fmt.Fprintf(out, "%s: %s\n", name, tree)
			}
			return result.ErrorOrNil()
		},
	}
	cmd.Flags().Int("cache-size", 256, "Number of transformed bodies to keep")
	viper.BindPFlag("cache-size", cmd.Flags().Lookup("cache-size"))
	return cmd
}
