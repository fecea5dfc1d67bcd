// Package rootcmd wires the root cobra.Command for deckctl.
package rootcmd

import (
	"github.com/spf13/cobra"

	downloadscmd "github.com/dgallion1/lessondeck/cmd/deckctl/downloads"
	exportcmd "github.com/dgallion1/lessondeck/cmd/deckctl/export"
	ledgercmd "github.com/dgallion1/lessondeck/cmd/deckctl/ledger"
	outlinecmd "github.com/dgallion1/lessondeck/cmd/deckctl/outline"
	patchcmd "github.com/dgallion1/lessondeck/cmd/deckctl/patch"
	"github.com/dgallion1/lessondeck/cmd/deckctl/shared"
	validatecmd "github.com/dgallion1/lessondeck/cmd/deckctl/validate"
)

// New creates the root command.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "deckctl",
		Short:         "Edit, validate and export lesson slide decks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(&ctx.ConfigFile, "config", "", "YAML config file (default: $CONFIG_FILE)")
	root.PersistentFlags().StringVar(&ctx.SlidesPath, "slides", "", "Slides document (default: $SLIDES_PATH or slides.json)")
	root.PersistentFlags().BoolVarP(&ctx.Verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(
		exportcmd.New(ctx).Cmd(),
		patchcmd.New(ctx).Cmd(),
		validatecmd.New(ctx).Cmd(),
		ledgercmd.New(ctx).Cmd(),
		downloadscmd.New(ctx).Cmd(),
		outlinecmd.New(ctx).Cmd(),
	)

	return root
}
