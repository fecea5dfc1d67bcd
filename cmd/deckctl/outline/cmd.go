// Package outlinecmd implements `deckctl outline`.
package outlinecmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lessondeck/cmd/deckctl/shared"
	"github.com/dgallion1/lessondeck/internal/outline"
)

// Command implements `deckctl outline`.
type Command struct {
	ctx    *shared.Context
	cmd    *cobra.Command
	output string
}

// New creates the outline command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "outline <lesson-id|unified>",
		Short: "Write a DOCX handout of a deck",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	c.cmd.Flags().StringVarP(&c.output, "output", "o", "", "Output file (default: <deck file name>.docx)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	a, err := c.ctx.Open(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.Editor.DeckFor(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	path := c.output
	if path == "" {
		path = strings.TrimSuffix(d.FileName(), ".pdf") + ".docx"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := outline.Write(f, d); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
