package main

import (
	"context"
	"encoding/json"
	"fmt"

	"metamod/internal/errors"
	"metamod/internal/metadata"
	"metamod/internal/session"

	"github.com/spf13/cobra"
)

// controller builds a session that prints its outcomes to the command's streams
func (a *app) controller(cmd *cobra.Command) *session.Controller {
	reporter := &cliReporter{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
	return session.NewController(a.tool, nil, reporter, session.WithSuccessMessages(true))
}

// edit opens path and runs fn against it
func (a *app) edit(cmd *cobra.Command, path string, fn func(ctx context.Context, c *session.Controller) error) error {
	ctx, cancel := a.context(cmd)
	defer cancel()

	c := a.controller(cmd)
	if err := c.Open(ctx, path); err != nil {
		return reported(err)
	}
	return reported(fn(ctx, c))
}

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [file]",
		Short: "Edit metadata in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(a.cfg, a.tool, firstArg(args))
		},
	}
}

type jsonEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (a *app) showCmd() *cobra.Command {
	var filter string
	var asJSON, keysOnly bool

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print every metadata tag of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			c := a.controller(cmd)
			if err := c.Open(ctx, args[0]); err != nil {
				return reported(err)
			}
			if err := c.Table().SetFilter(filter); err != nil {
				return errors.Wrapf(err, "invalid filter %q", filter)
			}

			visible := c.Table().Visible()
			switch {
			case keysOnly:
				for _, key := range visible.Keys() {
					fmt.Fprintln(cmd.OutOrStdout(), key)
				}
				return nil
			case asJSON:
				return printJSON(cmd, visible)
			}
			printRows(cmd, visible)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only show keys matching this pattern (e.g. GPS*)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tags as a JSON array")
	cmd.Flags().BoolVar(&keysOnly, "keys", false, "print only the tag names")
	cmd.MarkFlagsMutuallyExclusive("json", "keys")

	return cmd
}

func printJSON(cmd *cobra.Command, entries metadata.Snapshot) error {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonEntry{Key: e.Key, Value: e.Value})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printRows(cmd *cobra.Command, entries metadata.Snapshot) {
	width := 0
	for _, e := range entries {
		if len(e.Key) > width {
			width = len(e.Key)
		}
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %s\n", width, e.Key, e.Value)
	}
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <file> <key> <value>",
		Short: "Add a tag or change its value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := metadata.Form{Key: args[1], Value: args[2]}
			return a.edit(cmd, args[0], func(ctx context.Context, c *session.Controller) error {
				return c.AddUpdate(ctx, form)
			})
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file> <key>",
		Short: "Remove one tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := metadata.Form{Key: args[1]}
			return a.edit(cmd, args[0], func(ctx context.Context, c *session.Controller) error {
				return c.Delete(ctx, form)
			})
		},
	}
}

func (a *app) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <file> <old> <new>",
		Short: "Move a tag's value to a new key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := metadata.Form{Key: args[1], Value: args[2]}
			return a.edit(cmd, args[0], func(ctx context.Context, c *session.Controller) error {
				return c.Rename(ctx, form)
			})
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear <file>",
		Short: "Remove all metadata from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var confirm session.ConfirmFunc
			declined := false
			if !yes {
				ask := promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
				confirm = func(title, message string) bool {
					ok := ask(title, message)
					declined = !ok
					return ok
				}
			}

			err := a.edit(cmd, args[0], func(ctx context.Context, c *session.Controller) error {
				return c.ClearAll(ctx, confirm)
			})
			if err == nil && declined {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing was changed.")
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <src> <dst>",
		Short: "Write a copy of a file, metadata included",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := args[1]
			return a.edit(cmd, args[0], func(ctx context.Context, c *session.Controller) error {
				return c.Save(ctx, func(string) (string, bool) {
					return dst, true
				})
			})
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print metamod and exiftool versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			fmt.Fprintf(cmd.OutOrStdout(), "metamod %s\n", version)
			v, err := a.tool.Version(ctx)
			if err != nil {
				return errors.Wrapf(err, "running %s", a.tool.Executable())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exiftool %s\n", v)
			return nil
		},
	}
}
