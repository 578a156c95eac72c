package cmd

import "fmt"

type VersionCmd struct{}

func (v *VersionCmd) Run(ctx *Context) error {
	if ctx.JSONOutput {
		return writeIndentedJSON(ctx, map[string]string{"version": ctx.Version})
	}
	_, err := fmt.Fprintln(ctx.Out, ctx.Version)
	return err
}
