// Package ledgercmd implements `deckctl ledger`.
package ledgercmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lessondeck/cmd/deckctl/shared"
	"github.com/dgallion1/lessondeck/internal/ledger"
)

// Command implements `deckctl ledger` and its subcommands.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the ledger command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or edit the download ledger",
		RunE:  c.list,
	}
	c.cmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List recorded downloads", Args: cobra.NoArgs, RunE: c.list},
		&cobra.Command{Use: "remove <lesson-id>", Short: "Forget one lesson's download", Args: cobra.ExactArgs(1), RunE: c.remove},
		&cobra.Command{Use: "clear", Short: "Forget every download", Args: cobra.NoArgs, RunE: c.clear},
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) open(cmd *cobra.Command) (*ledger.Ledger, func() error, error) {
	a, err := c.ctx.Open(cmd.Context(), false)
	if err != nil {
		return nil, nil, err
	}
	return a.Ledger, a.Close, nil
}

func (c *Command) list(cmd *cobra.Command, _ []string) error {
	l, closeFn, err := c.open(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	recs, err := l.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No downloads recorded")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LESSON\tTITLE\tFILE\tSIZE\tDATE")
	for _, r := range recs {
		size := "-"
		if r.FileSize != nil {
			size = ledger.FormatFileSize(*r.FileSize)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.LessonID, r.LessonTitle, r.FileName, size, r.DownloadDate.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (c *Command) remove(cmd *cobra.Command, args []string) error {
	l, closeFn, err := c.open(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := l.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}

func (c *Command) clear(cmd *cobra.Command, _ []string) error {
	l, closeFn, err := c.open(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := l.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Ledger cleared")
	return nil
}
