package main

import (
	"errors"
	"strings"

	"github.com/fatih/color"
	"github.com/ilkit/ilexpr/metadata"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once global flags are processed.
type app struct {
	table  *metadata.Table
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "ildis",
		Short:         "Inspect CIL method bodies and the expressions they compute",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			processGlobalFlags()
			a.logger = newLogger(cmd.ErrOrStderr())
			path := viper.GetString("symbols")
			if path == "" {
				return errors.New("no symbol file given (use --symbols or ILDIS_SYMBOLS)")
			}
			table, err := metadata.LoadTableFile(path)
			if err != nil {
				return err
			}
			a.table = table
			a.logger.Debug().
				Str("symbols", path).
				Int("bodies", len(table.BodyNames())).
				Int("properties", len(table.PropertyNames())).
				Msg("loaded symbols")
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP("symbols", "s", "", "TOML file describing types, fields, methods, and properties")
	flags.BoolP("verbose", "v", false, "Log at debug level")
	flags.Bool("trace", false, "Log every decoded instruction and transformer step")
	flags.Bool("no-color", false, "Disable colored output")
	viper.BindPFlags(flags)

	viper.SetEnvPrefix("ildis")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	cmd.AddCommand(newDisCmd(a), newTreeCmd(a), newFieldCmd(a))
	return cmd
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") {
		color.NoColor = true
	}
}
