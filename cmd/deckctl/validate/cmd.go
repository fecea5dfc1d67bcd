// Package validatecmd implements `deckctl validate`.
package validatecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lessondeck/cmd/deckctl/shared"
	"github.com/dgallion1/lessondeck/internal/deck"
)

// Command implements `deckctl validate`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the validate command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "validate",
		Short: "Report structural problems in the slides document",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	a, err := c.ctx.Open(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.Editor.Document(cmd.Context())
	if err != nil {
		return err
	}
	problems := deck.Validate(doc)
	out := cmd.OutOrStdout()
	for _, p := range problems {
		fmt.Fprintln(out, p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) found", len(problems))
	}
	slides := 0
	for _, l := range doc.Lessons {
		slides += len(l.Slides)
	}
	fmt.Fprintf(out, "OK: %d lessons, %d slides\n", len(doc.Lessons), slides)
	return nil
}
