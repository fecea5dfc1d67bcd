// Package patchcmd implements `deckctl patch`.
package patchcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lessondeck/cmd/deckctl/shared"
)

// Command implements `deckctl patch`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the patch command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "patch <lesson-id> <slide-id> <field> <value>",
		Short: "Set one slide field, e.g. title, content.2 or math.0.formula",
		Args:  cobra.ExactArgs(4),
		RunE:  c.run,
	}
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

	if _, err := a.Editor.UpdateSlide(cmd.Context(), args[0], args[1], args[2], args[3]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s/%s %s\n", args[0], args[1], args[2])
	return nil
}
