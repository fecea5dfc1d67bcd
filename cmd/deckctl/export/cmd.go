// Package exportcmd implements `deckctl export`.
package exportcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lessondeck/cmd/deckctl/shared"
	"github.com/dgallion1/lessondeck/internal/export"
	"github.com/dgallion1/lessondeck/internal/ledger"
	"github.com/dgallion1/lessondeck/internal/viewer"
)

// Command implements `deckctl export`.
type Command struct {
	ctx     *shared.Context
	cmd     *cobra.Command
	mode    string
	persist bool
}

// New creates the export command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "export <lesson-id|unified>",
		Short: "Render a deck to PDF and record it in the download ledger",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.mode, "mode", "live", "Capture mode: live or batch")
	c.cmd.Flags().BoolVar(&c.persist, "persist", false, "Also upload to the persist service")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	mode, err := export.ParseMode(c.mode)
	if err != nil {
		return err
	}
	a, err := c.ctx.Open(cmd.Context(), c.persist)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.Editor.DeckFor(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	res, err := a.Exporter.Export(cmd.Context(), viewer.NewSlideStore(d), mode, func(done, total int) {
		fmt.Fprintf(out, "\rcaptured %d/%d", done, total)
	})
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("export %s: %w", d.ID, err)
	}

	fmt.Fprintf(out, "Saved %s (%d pages, %s)\n", res.LocalPath, res.Pages, ledger.FormatFileSize(int64(res.Bytes)))
	if c.persist {
		if res.Persisted {
			fmt.Fprintln(out, "Persisted to downloads service")
		} else {
			fmt.Fprintln(out, "Persist failed; ledger entry has no size")
		}
	}
	return nil
}
