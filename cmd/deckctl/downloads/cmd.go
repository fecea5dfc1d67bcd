// Package downloadscmd implements `deckctl downloads`.
package downloadscmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lessondeck/cmd/deckctl/shared"
	"github.com/dgallion1/lessondeck/internal/downloads"
	"github.com/dgallion1/lessondeck/internal/ledger"
)

// Command implements `deckctl downloads`.
type Command struct {
	ctx    *shared.Context
	cmd    *cobra.Command
	remote bool
}

// New creates the downloads command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "downloads",
		Short: "List PDFs in the downloads directory",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.remote, "remote", false, "Ask the persist service instead of reading the directory")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	a, err := c.ctx.Open(cmd.Context(), c.remote)
	if err != nil {
		return err
	}
	defer a.Close()

	var files []downloads.File
	if c.remote {
		files, err = a.Persist.ListDownloads(cmd.Context())
	} else {
		files, err = a.Downloads.List()
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tPAGES\tMODIFIED")
	for _, f := range files {
		pages := "-"
		if f.Pages != nil {
			pages = strconv.Itoa(*f.Pages)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, ledger.FormatFileSize(f.Size), pages, f.Modified.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
